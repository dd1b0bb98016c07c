package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aureum-app/settings/internal/config"
	"github.com/aureum-app/settings/internal/i18n"
	"github.com/aureum-app/settings/internal/profile"
	"github.com/aureum-app/settings/internal/settings"
	"github.com/aureum-app/settings/internal/theme"
)

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- theme ---

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show or change the appearance mode",
}

var themeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the theme mode and the resolved appearance",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/settings/theme")
		if err != nil {
			return err
		}
		var st theme.State
		if err := decodeJSON(resp, &st); err != nil {
			return err
		}
		printThemeState(st)
		return nil
	},
}

var themeSetCmd = &cobra.Command{
	Use:       "set <light|dark|system>",
	Short:     "Set the appearance mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"light", "dark", "system"},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/settings/theme", map[string]string{"mode": args[0]})
		if err != nil {
			return err
		}
		var st theme.State
		if err := decodeJSON(resp, &st); err != nil {
			return err
		}
		printSuccess("Theme set to %s (showing %s)", st.Mode, st.Resolved)
		return nil
	},
}

var themeToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Switch between light and dark",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/settings/theme/toggle", nil)
		if err != nil {
			return err
		}
		var st theme.State
		if err := decodeJSON(resp, &st); err != nil {
			return err
		}
		printSuccess("Theme set to %s", st.Mode)
		return nil
	},
}

func printThemeState(st theme.State) {
	printField("Mode", string(st.Mode))
	printField("Showing", string(st.Resolved))
	if st.Loading {
		printField("Loading", "yes")
	}
}

func init() {
	themeCmd.AddCommand(themeShowCmd)
	themeCmd.AddCommand(themeSetCmd)
	themeCmd.AddCommand(themeToggleCmd)
}

// --- language ---

var languageCmd = &cobra.Command{
	Use:   "language",
	Short: "Show or change the interface language",
}

var languageShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the language mode and the applied language",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/settings/language")
		if err != nil {
			return err
		}
		var ls settings.LanguageState
		if err := decodeJSON(resp, &ls); err != nil {
			return err
		}
		printField("Mode", fmt.Sprintf("%s %s", ls.Current.Flag, ls.Current.Name))
		printField("Showing", string(ls.Resolved))
		return nil
	},
}

var languageSetCmd = &cobra.Command{
	Use:       "set <auto|en|es>",
	Short:     "Set the language mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"auto", "en", "es"},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/settings/language", map[string]string{"mode": args[0]})
		if err != nil {
			return err
		}
		var ls settings.LanguageState
		if err := decodeJSON(resp, &ls); err != nil {
			return err
		}
		printSuccess("Language set to %s (showing %s)", ls.Mode, ls.Resolved)
		return nil
	},
}

var languageOptionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the selectable language modes",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/settings/language/options")
		if err != nil {
			return err
		}
		var opts []i18n.Option
		if err := decodeJSON(resp, &opts); err != nil {
			return err
		}
		for _, o := range opts {
			fmt.Fprintf(stdout, "%s %-5s %s (%s)\n", o.Flag, colorize(colorBold, string(o.Code)), o.Name, o.NativeName)
		}
		return nil
	},
}

func init() {
	languageCmd.AddCommand(languageShowCmd)
	languageCmd.AddCommand(languageSetCmd)
	languageCmd.AddCommand(languageOptionsCmd)
}

// --- notifications ---

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show or change notification toggles",
}

var notificationsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the notification toggles",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/settings/notifications")
		if err != nil {
			return err
		}
		var n settings.Notifications
		if err := decodeJSON(resp, &n); err != nil {
			return err
		}
		printField("Email", onOff(n.Email))
		printField("Push", onOff(n.Push))
		printField("Auto sync", onOff(n.AutoSync))
		return nil
	},
}

var notificationsSetCmd = &cobra.Command{
	Use:   "set <email|push|auto_sync> <on|off>",
	Short: "Enable or disable a notification toggle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		enabled, err := parseOnOff(args[1])
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/settings/notifications/"+url.PathEscape(name), map[string]bool{"enabled": enabled})
		if err != nil {
			return err
		}
		var n settings.Notifications
		if err := decodeJSON(resp, &n); err != nil {
			return err
		}
		printSuccess("%s notifications %s", name, onOff(enabled))
		return nil
	},
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "enable", "enabled":
		return true, nil
	case "off", "disable", "disabled":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid toggle value %q (want on or off)", s)
	}
	return b, nil
}

func init() {
	notificationsCmd.AddCommand(notificationsShowCmd)
	notificationsCmd.AddCommand(notificationsSetCmd)
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the user profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}
		var p profile.Profile
		if err := decodeJSON(resp, &p); err != nil {
			return err
		}
		if asJSON {
			return printJSON(p)
		}
		fmt.Fprintln(stdout, profile.Describe(p))
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <name|email|role> <value>",
	Short: "Set a profile field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.patch(cmd.Context(), "/profile", map[string]string{key: value})
		if err != nil {
			return err
		}
		var p profile.Profile
		if err := decodeJSON(resp, &p); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	profileShowCmd.Flags().Bool("json", false, "print the profile as JSON")
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
}

// --- translate ---

var translateCmd = &cobra.Command{
	Use:   "t <key> [args...]",
	Short: "Translate a UI string key in the applied language",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")

		q := url.Values{}
		if lang != "" {
			q.Set("lang", lang)
		}
		for _, a := range args[1:] {
			q.Add("arg", a)
		}
		path := "/i18n/" + url.PathEscape(args[0])
		if len(q) > 0 {
			path += "?" + q.Encode()
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}
		var tr struct {
			Text string `json:"text"`
		}
		if err := decodeJSON(resp, &tr); err != nil {
			return err
		}
		fmt.Fprintln(stdout, tr.Text)
		return nil
	},
}

func init() {
	translateCmd.Flags().String("lang", "", "language code (default: the applied language)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(stdout, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Reset a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
