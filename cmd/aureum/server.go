package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/aureum-app/settings/internal/api"
	"github.com/aureum-app/settings/internal/config"
	"github.com/aureum-app/settings/internal/i18n"
	"github.com/aureum-app/settings/internal/preference"
	"github.com/aureum-app/settings/internal/profile"
	"github.com/aureum-app/settings/internal/settings"
	"github.com/aureum-app/settings/internal/storage"
	"github.com/aureum-app/settings/internal/system"
	"github.com/aureum-app/settings/internal/theme"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the aureum settings server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		mcpMode, _ := cmd.Flags().GetString("mcp")
		return runServer(mcpMode)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running aureum server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status and the current preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func init() {
	startCmd.Flags().String("mcp", "stdio", "MCP transport: stdio, http (served at /mcp) or off")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "aureum.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(mcpMode string) error {
	switch mcpMode {
	case "stdio", "http", "off":
	default:
		return fmt.Errorf("unknown --mcp transport %q (want stdio, http or off)", mcpMode)
	}

	fmt.Fprintf(os.Stderr, "aureum version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.Log.Level)})))

	token, err := config.EnsureAPIToken(&cfg)
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Refuse to start twice.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("aureum is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("aureum is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Theme: OS appearance watcher feeding the provider. Chrome colour goes
	// to stderr so it never mixes with the MCP stdio stream.
	watcher := system.NewAppearanceWatcher(system.NewOSAppearance(), cfg.Theme.WatchInterval)
	go watcher.Run(ctx)

	themeProvider := theme.NewProvider(
		preference.NewThemeStore(store),
		watcher,
		system.NewTerminalChrome(os.Stderr),
		theme.Colors{Dark: cfg.Theme.DarkColor, Light: cfg.Theme.LightColor},
	)
	themeProvider.Start(ctx)
	defer themeProvider.Stop()
	defer themeProvider.Subscribe(func(s theme.State) {
		slog.Debug("theme state", "mode", s.Mode, "resolved", s.Resolved, "loading", s.Loading)
	})()

	// Language: catalog, persisted mode, device locale listener.
	catalog, err := i18n.LoadCatalog()
	if err != nil {
		return fmt.Errorf("loading translations: %w", err)
	}
	languages := i18n.NewManager(preference.NewLanguageStore(store), system.NewEnvLocales(), catalog, cfg.Locale.PollInterval)
	languages.Init(ctx)
	languages.StartListener(ctx)
	defer languages.StopListener()

	profiles := profile.NewManager(store)
	if _, err := profiles.EnsureID(); err != nil {
		return fmt.Errorf("initializing profile: %w", err)
	}

	deps := api.Deps{
		Settings: settings.NewService(themeProvider, languages, profiles, store),
		Theme:    themeProvider,
		Language: languages,
		Profile:  profiles,
		Token:    token,
	}

	topRouter := chi.NewRouter()
	topRouter.Mount("/", api.NewRouter(deps))

	mcpSrv := api.NewMCPServer(deps, version)
	switch mcpMode {
	case "stdio":
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	case "http":
		topRouter.With(api.BearerAuth(token)).Handle("/mcp", server.NewStreamableHTTPServer(mcpSrv))
		slog.Info("MCP server started (HTTP transport)", "path", "/mcp")
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           topRouter,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "aureum listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("aureum is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop aureum (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to aureum (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if running && cfg.Server.APIToken != "" {
		c := &apiClient{baseURL: serverURL, token: cfg.Server.APIToken, httpClient: client}
		if snap, err := fetchSnapshot(ctx, c); err == nil {
			printSnapshotStatus(snap)
		} else {
			printWarning("could not read settings: %v", err)
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func fetchSnapshot(ctx context.Context, c *apiClient) (settings.Snapshot, error) {
	var snap settings.Snapshot
	resp, err := c.get(ctx, "/settings")
	if err != nil {
		return snap, err
	}
	err = decodeJSON(resp, &snap)
	return snap, err
}

func printSnapshotStatus(snap settings.Snapshot) {
	printStatus("Theme", "%s (showing %s)", snap.Theme.Mode, snap.Theme.Resolved)
	printStatus("Language", "%s %s (showing %s)", snap.Language.Current.Flag, snap.Language.Mode, snap.Language.Resolved)
	printStatus("Profile", "%s", profile.Describe(snap.Profile))
}
