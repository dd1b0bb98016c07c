// Package scaffold migrates a React Native project from the legacy
// useDarkMode hook to the theme context: it backs up the source tree,
// checks the i18n dependencies, prepares the directory layout, rewrites
// the affected imports, and writes a report.
package scaffold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aureum-app/settings/internal/storage"
)

// ReportName is the report file written at the project root.
const ReportName = "MIGRATION-REPORT.md"

var (
	// ErrNotProject is returned when the root has no package.json.
	ErrNotProject = errors.New("package.json not found; run from the project root")
	// ErrNoSource is returned when the source directory is missing.
	ErrNoSource = errors.New("source directory not found")
	// ErrBackupOverlap is returned when the backup directory lies inside the
	// source directory or contains it.
	ErrBackupOverlap = errors.New("backup directory overlaps the source directory")
)

// DefaultDependencies are the packages the migrated code imports.
var DefaultDependencies = []string{"i18next", "react-i18next", "react-native-localize"}

// layoutDirs are created under the source directory.
var layoutDirs = []string{"contexts", "i18n", "i18n/locales", "components/common"}

// Config controls a migration run.
type Config struct {
	Root         string
	SrcDir       string // relative to Root; default "src"
	BackupDir    string // relative to Root; default "backup-pre-migration"
	AppFile      string // relative to Root; default "App.tsx"
	Dependencies []string
	DryRun       bool
	Concurrency  int
}

func (c Config) withDefaults() Config {
	if c.Root == "" {
		c.Root = "."
	}
	if c.SrcDir == "" {
		c.SrcDir = "src"
	}
	if c.BackupDir == "" {
		c.BackupDir = "backup-pre-migration"
	}
	if c.AppFile == "" {
		c.AppFile = "App.tsx"
	}
	if c.Dependencies == nil {
		c.Dependencies = DefaultDependencies
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// Result describes what a run did, or in a dry run, would do.
type Result struct {
	RunID               string
	StartedAt           time.Time
	Root                string
	BackupPath          string
	MissingDependencies []string
	CreatedDirs         []string
	UpdatedFiles        []string
	AppFile             string // set when the app entry was (or would be) rewritten
	ReportPath          string
	DryRun              bool
}

// RunRecorder stores the outcome of a run. Implemented by storage.Store.
type RunRecorder interface {
	SaveMigrationRun(run storage.MigrationRun) error
}

// Migrator runs project migrations.
type Migrator struct {
	cfg      Config
	recorder RunRecorder
	logger   *slog.Logger
	now      func() time.Time

	// OnStep, if set, is called as each phase begins.
	OnStep func(step string)
}

// New creates a Migrator. recorder may be nil.
func New(cfg Config, recorder RunRecorder) *Migrator {
	return &Migrator{
		cfg:      cfg.withDefaults(),
		recorder: recorder,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// Run executes the migration. Dry runs inspect the project without
// touching it. When a step fails after the backup was taken, the error
// names the backup location.
func (m *Migrator) Run(ctx context.Context) (*Result, error) {
	root, err := filepath.Abs(m.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: m.now(),
		Root:      root,
		DryRun:    m.cfg.DryRun,
	}
	srcPath := filepath.Join(root, m.cfg.SrcDir)
	backupPath := filepath.Join(root, m.cfg.BackupDir)

	pkgPath := filepath.Join(root, "package.json")
	if _, err := os.Stat(pkgPath); err != nil {
		return nil, ErrNotProject
	}
	if info, err := os.Stat(srcPath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, srcPath)
	}
	if within(srcPath, backupPath) || within(backupPath, srcPath) {
		return nil, fmt.Errorf("%w: backup %s, source %s", ErrBackupOverlap, backupPath, srcPath)
	}

	if !m.cfg.DryRun {
		m.step("Creating backup")
		if err := backup(srcPath, backupPath); err != nil {
			return nil, fmt.Errorf("creating backup: %w", err)
		}
		res.BackupPath = backupPath
	}

	if err := m.migrate(ctx, res, pkgPath, srcPath); err != nil {
		m.record(res, "failed")
		if res.BackupPath != "" {
			return res, fmt.Errorf("%w (backup kept at %s)", err, res.BackupPath)
		}
		return res, err
	}

	status := "completed"
	if m.cfg.DryRun {
		status = "dry_run"
	}
	m.record(res, status)
	return res, nil
}

func (m *Migrator) migrate(ctx context.Context, res *Result, pkgPath, srcPath string) error {
	m.step("Checking dependencies")
	missing, err := missingDependencies(pkgPath, m.cfg.Dependencies)
	if err != nil {
		return err
	}
	res.MissingDependencies = missing

	m.step("Creating directory structure")
	for _, dir := range layoutDirs {
		p := filepath.Join(srcPath, filepath.FromSlash(dir))
		if _, err := os.Stat(p); err == nil {
			continue
		}
		rel, _ := filepath.Rel(res.Root, p)
		res.CreatedDirs = append(res.CreatedDirs, filepath.ToSlash(rel))
		if m.cfg.DryRun {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", rel, err)
		}
	}

	m.step("Updating imports")
	updated, err := m.rewriteTree(ctx, srcPath)
	if err != nil {
		return err
	}
	for _, p := range updated {
		rel, _ := filepath.Rel(res.Root, p)
		res.UpdatedFiles = append(res.UpdatedFiles, filepath.ToSlash(rel))
	}
	sort.Strings(res.UpdatedFiles)

	m.step("Updating " + m.cfg.AppFile)
	appPath := filepath.Join(res.Root, m.cfg.AppFile)
	changed, err := rewriteFile(appPath, RewriteApp, m.cfg.DryRun)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m.logger.Warn("app entry not found, skipping", "path", appPath)
	case err != nil:
		return err
	case changed:
		res.AppFile = filepath.ToSlash(m.cfg.AppFile)
	}

	if m.cfg.DryRun {
		return nil
	}
	m.step("Writing report")
	reportPath := filepath.Join(res.Root, ReportName)
	if err := os.WriteFile(reportPath, []byte(Report(res)), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	res.ReportPath = reportPath
	return nil
}

// rewriteTree rewrites every candidate file under dir concurrently and
// returns the paths that changed.
func (m *Migrator) rewriteTree(ctx context.Context, dir string) ([]string, error) {
	candidates, err := findCandidates(dir)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		updated []string
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)

	for _, path := range candidates {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			changed, err := rewriteFile(path, Rewrite, m.cfg.DryRun)
			if err != nil {
				return err
			}
			if changed {
				mu.Lock()
				updated = append(updated, path)
				mu.Unlock()
				m.logger.Debug("rewrote legacy hook", "path", path, "dry_run", m.cfg.DryRun)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (m *Migrator) step(msg string) {
	m.logger.Info("migration step", "step", msg)
	if m.OnStep != nil {
		m.OnStep(msg)
	}
}

func (m *Migrator) record(res *Result, status string) {
	if m.recorder == nil {
		return
	}
	run := storage.MigrationRun{
		ID:           res.RunID,
		Root:         res.Root,
		BackupPath:   res.BackupPath,
		UpdatedFiles: len(res.UpdatedFiles),
		Status:       status,
		CreatedAt:    res.StartedAt,
	}
	if err := m.recorder.SaveMigrationRun(run); err != nil {
		m.logger.Warn("recording migration run failed", "id", run.ID, "error", err)
	}
}

// findCandidates lists .ts and .tsx files under dir that mention the legacy
// hook. Directories named like node_modules or .git are skipped.
func findCandidates(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && (strings.Contains(name, "node_modules") || strings.Contains(name, ".git")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !strings.HasSuffix(name, ".ts") && !strings.HasSuffix(name, ".tsx") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if needsRewrite(string(data)) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return out, nil
}

func rewriteFile(path string, rewrite func(string) (string, bool), dryRun bool) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	out, changed := rewrite(string(data))
	if !changed || dryRun {
		return changed, nil
	}
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

type packageManifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// missingDependencies returns the deps listed in neither dependencies nor
// devDependencies of the manifest at path.
func missingDependencies(path string, deps []string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading package.json: %w", err)
	}
	var pkg packageManifest
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parsing package.json: %w", err)
	}

	var missing []string
	for _, dep := range deps {
		if _, ok := pkg.Dependencies[dep]; ok {
			continue
		}
		if _, ok := pkg.DevDependencies[dep]; ok {
			continue
		}
		missing = append(missing, dep)
	}
	return missing, nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// backup replaces dst with a recursive copy of src. Symlinks are copied as
// links.
func backup(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("removing previous backup: %w", err)
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			return copyFile(path, target)
		}
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
