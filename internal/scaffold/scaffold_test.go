package scaffold

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aureum-app/settings/internal/storage"
)

const legacyScreen = `import React from 'react';
import { useDarkMode } from '../../hooks/useDarkMode';

export default function Settings() {
  const [isDarkMode, toggleDarkMode] = useDarkMode();
  return <Switch value={isDarkMode} onValueChange={toggleDarkMode} />;
}
`

const legacyCard = `import { useDarkMode } from "../hooks/useDarkMode"
const Card = () => {
  const [isDarkMode] = useDarkMode();
  return null;
};
`

const legacyApp = `import React from 'react';
import { SafeAreaProvider } from 'react-native-safe-area-context';
import Navigation from './src/navigation';

export default function App() {
  return (
    <SafeAreaProvider>
      <Navigation />
    </SafeAreaProvider>
  );
}
`

type recorder struct {
	mu   sync.Mutex
	runs []storage.MigrationRun
}

func (r *recorder) SaveMigrationRun(run storage.MigrationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// newProject lays out a minimal project with two legacy files, one clean
// file, and a node_modules copy that must be left alone.
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"dependencies":{"i18next":"^23.0.0"},"devDependencies":{"react-i18next":"^14.0.0"}}`)
	writeFile(t, filepath.Join(root, "src/screens/Settings.tsx"), legacyScreen)
	writeFile(t, filepath.Join(root, "src/components/Card.ts"), legacyCard)
	writeFile(t, filepath.Join(root, "src/components/Clean.tsx"), "export const x = 1;\n")
	writeFile(t, filepath.Join(root, "src/README.md"), "useDarkMode docs\n")
	writeFile(t, filepath.Join(root, "src/node_modules/lib/index.ts"), legacyScreen)
	writeFile(t, filepath.Join(root, "App.tsx"), legacyApp)
	return root
}

// --- Rewrite ---

func TestRewrite(t *testing.T) {
	out, changed := Rewrite(legacyScreen)
	if !changed {
		t.Fatal("expected change")
	}
	for _, want := range []string{
		"import { useTheme } from '../../contexts/ThemeContext';",
		"const { isDarkMode, toggleTheme } = useTheme();",
		"onValueChange={toggleTheme}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "useDarkMode") || strings.Contains(out, "toggleDarkMode") {
		t.Errorf("legacy names remain:\n%s", out)
	}
}

func TestRewrite_SoloDestructure(t *testing.T) {
	out, _ := Rewrite(legacyCard)
	if !strings.Contains(out, "const { isDarkMode } = useTheme();") {
		t.Errorf("solo destructure not rewritten:\n%s", out)
	}
	if !strings.Contains(out, themeImport) {
		t.Errorf("double-quoted import without semicolon not rewritten:\n%s", out)
	}
}

func TestRewrite_NoChange(t *testing.T) {
	src := "const x = useTheme();\n"
	if out, changed := Rewrite(src); changed || out != src {
		t.Errorf("Rewrite changed clean source: %q", out)
	}
}

func TestRewriteApp(t *testing.T) {
	out, changed := RewriteApp(legacyApp)
	if !changed {
		t.Fatal("expected change")
	}
	for _, want := range []string{
		"import React from 'react';\nimport './src/i18n/i18n';\n",
		"import { SafeAreaProvider } from 'react-native-safe-area-context';\n" + themeProviderImport + "\n",
		"    <SafeAreaProvider>\n      <ThemeProvider>\n      <Navigation />\n",
		"      </ThemeProvider>\n    </SafeAreaProvider>\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	again, changed := RewriteApp(out)
	if changed || again != out {
		t.Errorf("second rewrite changed the file:\n%s", again)
	}
}

func TestRewriteApp_NoSafeArea(t *testing.T) {
	src := "import React from 'react';\nexport default () => null;\n"
	out, changed := RewriteApp(src)
	if !changed || !strings.Contains(out, i18nSetupImport) {
		t.Errorf("i18n import not added:\n%s", out)
	}
	if strings.Contains(out, "ThemeProvider") {
		t.Errorf("ThemeProvider added without a SafeAreaProvider to wrap:\n%s", out)
	}
}

// --- Migrator ---

func TestRun(t *testing.T) {
	root := newProject(t)
	rec := &recorder{}
	var steps []string
	m := New(Config{Root: root}, rec)
	m.OnStep = func(s string) { steps = append(steps, s) }

	res, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantUpdated := []string{"src/components/Card.ts", "src/screens/Settings.tsx"}
	if strings.Join(res.UpdatedFiles, ",") != strings.Join(wantUpdated, ",") {
		t.Errorf("UpdatedFiles = %v, want %v", res.UpdatedFiles, wantUpdated)
	}
	if strings.Contains(readFile(t, filepath.Join(root, "src/screens/Settings.tsx")), "useDarkMode") {
		t.Error("Settings.tsx was not rewritten")
	}
	if !strings.Contains(readFile(t, filepath.Join(root, "src/node_modules/lib/index.ts")), "useDarkMode") {
		t.Error("node_modules must be skipped")
	}
	if !strings.Contains(readFile(t, filepath.Join(root, "src/README.md")), "useDarkMode") {
		t.Error("non-TypeScript files must be skipped")
	}

	if res.AppFile != "App.tsx" {
		t.Errorf("AppFile = %q, want App.tsx", res.AppFile)
	}
	if app := readFile(t, filepath.Join(root, "App.tsx")); !strings.Contains(app, "<ThemeProvider>") {
		t.Errorf("App.tsx not wrapped:\n%s", app)
	}

	backup := readFile(t, filepath.Join(root, "backup-pre-migration/screens/Settings.tsx"))
	if backup != legacyScreen {
		t.Error("backup should hold the original source")
	}

	if len(res.MissingDependencies) != 1 || res.MissingDependencies[0] != "react-native-localize" {
		t.Errorf("MissingDependencies = %v", res.MissingDependencies)
	}
	for _, dir := range []string{"contexts", "i18n/locales", "components/common"} {
		if info, err := os.Stat(filepath.Join(root, "src", dir)); err != nil || !info.IsDir() {
			t.Errorf("directory %s not created", dir)
		}
	}

	report := readFile(t, filepath.Join(root, ReportName))
	for _, want := range []string{res.RunID, "src/screens/Settings.tsx", "npm install react-native-localize"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}

	if len(rec.runs) != 1 || rec.runs[0].Status != "completed" || rec.runs[0].UpdatedFiles != 2 {
		t.Errorf("recorded runs = %+v", rec.runs)
	}
	if len(steps) == 0 {
		t.Error("expected step callbacks")
	}
}

func TestRun_ReplacesPreviousBackup(t *testing.T) {
	root := newProject(t)
	writeFile(t, filepath.Join(root, "backup-pre-migration/stale.txt"), "old")

	if _, err := New(Config{Root: root}, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "backup-pre-migration/stale.txt")); !os.IsNotExist(err) {
		t.Error("previous backup should be removed")
	}
}

func TestRun_DryRun(t *testing.T) {
	root := newProject(t)
	rec := &recorder{}

	res, err := New(Config{Root: root, DryRun: true}, rec).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.UpdatedFiles) != 2 {
		t.Errorf("dry run should list 2 files, got %v", res.UpdatedFiles)
	}
	if readFile(t, filepath.Join(root, "src/screens/Settings.tsx")) != legacyScreen {
		t.Error("dry run must not modify files")
	}
	if readFile(t, filepath.Join(root, "App.tsx")) != legacyApp || res.AppFile != "App.tsx" {
		t.Errorf("dry run must report but not rewrite App.tsx (AppFile=%q)", res.AppFile)
	}
	for _, p := range []string{"backup-pre-migration", ReportName, "src/contexts"} {
		if _, err := os.Stat(filepath.Join(root, p)); !os.IsNotExist(err) {
			t.Errorf("dry run created %s", p)
		}
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != "dry_run" {
		t.Errorf("recorded runs = %+v", rec.runs)
	}
}

func TestRun_MissingAppIsSkipped(t *testing.T) {
	root := newProject(t)
	if err := os.Remove(filepath.Join(root, "App.tsx")); err != nil {
		t.Fatal(err)
	}

	res, err := New(Config{Root: root}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.AppFile != "" {
		t.Errorf("AppFile = %q, want empty", res.AppFile)
	}
	if report := readFile(t, filepath.Join(root, ReportName)); !strings.Contains(report, "Wrap the app in `ThemeProvider`") {
		t.Error("report should ask for the manual ThemeProvider step")
	}
}

func TestRun_BackupOverlapsSource(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"source is root", Config{SrcDir: "."}},
		{"backup inside source", Config{BackupDir: "src/backup"}},
		{"source inside backup", Config{SrcDir: "backup/src", BackupDir: "backup"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newProject(t)
			writeFile(t, filepath.Join(root, "backup/src/App.ts"), "export {};\n")
			cfg := tt.cfg
			cfg.Root = root

			_, err := New(cfg, nil).Run(context.Background())
			if !errors.Is(err, ErrBackupOverlap) {
				t.Fatalf("err = %v, want ErrBackupOverlap", err)
			}
			if readFile(t, filepath.Join(root, "src/screens/Settings.tsx")) != legacyScreen {
				t.Error("refused run must not touch the source")
			}
			if _, err := os.Stat(filepath.Join(root, "backup-pre-migration")); !os.IsNotExist(err) {
				t.Error("refused run must not create a backup")
			}
		})
	}
}

func TestRun_NotAProject(t *testing.T) {
	root := t.TempDir()
	if _, err := New(Config{Root: root}, nil).Run(context.Background()); !errors.Is(err, ErrNotProject) {
		t.Errorf("err = %v, want ErrNotProject", err)
	}
}

func TestRun_NoSource(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), "{}")
	if _, err := New(Config{Root: root}, nil).Run(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Errorf("err = %v, want ErrNoSource", err)
	}
}

func TestRun_FailureMentionsBackup(t *testing.T) {
	root := newProject(t)
	writeFile(t, filepath.Join(root, "package.json"), "{not json")
	rec := &recorder{}

	_, err := New(Config{Root: root}, rec).Run(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed package.json")
	}
	if !strings.Contains(err.Error(), "backup-pre-migration") {
		t.Errorf("error should name the backup: %v", err)
	}
	if len(rec.runs) != 1 || rec.runs[0].Status != "failed" {
		t.Errorf("recorded runs = %+v", rec.runs)
	}
}

func TestRun_RecordsToSQLite(t *testing.T) {
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	root := newProject(t)
	res, err := New(Config{Root: root}, store).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	runs, err := store.ListMigrationRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != res.RunID {
		t.Errorf("runs = %+v", runs)
	}
}
