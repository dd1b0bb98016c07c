package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aureum-app/settings/internal/config"
	"github.com/aureum-app/settings/internal/i18n"
	"github.com/aureum-app/settings/internal/preference"
	"github.com/aureum-app/settings/internal/system"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print OS appearance and device language changes as they happen",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		watchSignals(ctx, system.NewOSAppearance(), system.NewEnvLocales(), cfg.Theme.WatchInterval, cfg.Locale.PollInterval)
		return nil
	},
}

// watchSignals reports the current appearance and device language, then
// every change, until ctx is cancelled.
func watchSignals(ctx context.Context, detector system.AppearanceDetector, locales system.LocaleSource, themeEvery, localeEvery time.Duration) {
	if t, ok := detector.Current(); ok {
		printStatus("Appearance", "%s", t)
	} else {
		printStatus("Appearance", "unavailable (using %s)", preference.DefaultTheme)
	}
	lang := i18n.DeviceLanguage(locales, nil)
	printStatus("Device language", "%s", lang)

	watcher := system.NewAppearanceWatcher(detector, themeEvery)
	unsubscribe := watcher.Subscribe(func(t preference.Theme) {
		printStep("appearance changed to %s", t)
	})
	defer unsubscribe()
	go watcher.Run(ctx)

	ticker := time.NewTicker(localeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(stderr)
			return
		case <-ticker.C:
			if next := i18n.DeviceLanguage(locales, nil); next != lang {
				lang = next
				printStep("device language changed to %s", lang)
			}
		}
	}
}
