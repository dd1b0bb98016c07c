package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aureum-app/settings/internal/config"
	"github.com/aureum-app/settings/internal/scaffold"
	"github.com/aureum-app/settings/internal/storage"
)

// openStore is swapped in tests.
var openStore = func() (*storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return storage.Open(cfg.Storage.DataDir)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [project-dir]",
	Short: "Move a project from useDarkMode to the theme context",
	Long: `Back up the project's source tree, check the i18n dependencies, create the
theme/i18n directories and rewrite useDarkMode imports to useTheme.

Examples:
  aureum migrate
  aureum migrate ./mobile --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		root, err := filepath.Abs(root)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		srcDir, _ := cmd.Flags().GetString("src")
		if srcDir == "" {
			srcDir = cfg.Scaffold.SrcDir
		}

		var recorder scaffold.RunRecorder
		store, err := openStore()
		if err != nil {
			printWarning("migration history unavailable: %v", err)
		} else {
			defer store.Close()
			recorder = store
		}

		m := scaffold.New(scaffold.Config{
			Root:      root,
			SrcDir:    srcDir,
			BackupDir: cfg.Scaffold.BackupDir,
			DryRun:    dryRun,
		}, recorder)
		m.OnStep = func(msg string) { printStep("%s", msg) }

		res, err := m.Run(cmd.Context())
		if err != nil {
			return err
		}
		printMigrationResult(res)
		return nil
	},
}

func printMigrationResult(res *scaffold.Result) {
	if res.DryRun {
		printWarning("Dry run: nothing was written")
	}
	printStatus("Run", "%s", res.RunID)
	printStatus("Updated files", "%d", len(res.UpdatedFiles))
	for _, f := range res.UpdatedFiles {
		fmt.Fprintf(stdout, "  %s\n", f)
	}
	if res.AppFile != "" {
		printStatus("App entry", "%s wrapped in ThemeProvider", res.AppFile)
	}
	if res.BackupPath != "" {
		printStatus("Backup", "%s", res.BackupPath)
	}
	if len(res.MissingDependencies) > 0 {
		printWarning("Missing dependencies: %v", res.MissingDependencies)
	}
	if res.ReportPath != "" {
		printSuccess("Migration complete, report written to %s", res.ReportPath)
	}
}

var migrateHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List previous migration runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openStore()
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		runs, err := store.ListMigrationRuns(limit)
		if err != nil {
			return fmt.Errorf("listing migration runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(stdout, "No migrations recorded.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(stdout, "%s  %s  %-9s  %2d files  %s\n",
				colorize(colorCyan, r.ID[:8]),
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				r.Status,
				r.UpdatedFiles,
				r.Root,
			)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("dry-run", false, "report what would change without writing anything")
	migrateCmd.Flags().String("src", "", "source directory relative to the project (default: scaffold.src_dir)")
	migrateHistoryCmd.Flags().Int("limit", 10, "maximum number of runs to list")
	migrateCmd.AddCommand(migrateHistoryCmd)
}
