package scaffold

import (
	"fmt"
	"strings"
	"time"
)

// Report renders the markdown migration report for res.
func Report(res *Result) string {
	var b strings.Builder

	b.WriteString("# Migration Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", res.RunID)
	fmt.Fprintf(&b, "- Completed: %s\n", res.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Project: `%s`\n", res.Root)
	if res.BackupPath != "" {
		fmt.Fprintf(&b, "- Backup: `%s`\n", res.BackupPath)
	}

	b.WriteString("\n## Updated files\n\n")
	if len(res.UpdatedFiles) == 0 {
		b.WriteString("No files referenced useDarkMode.\n")
	}
	for _, f := range res.UpdatedFiles {
		fmt.Fprintf(&b, "- `%s`\n", f)
	}

	if len(res.CreatedDirs) > 0 {
		b.WriteString("\n## Created directories\n\n")
		for _, d := range res.CreatedDirs {
			fmt.Fprintf(&b, "- `%s`\n", d)
		}
	}

	if res.AppFile != "" {
		b.WriteString("\n## App entry\n\n")
		fmt.Fprintf(&b, "`%s` imports the i18n setup and wraps the app in `ThemeProvider`.\n", res.AppFile)
	}

	b.WriteString("\n## Dependencies\n\n")
	if len(res.MissingDependencies) == 0 {
		b.WriteString("All required dependencies are declared.\n")
	} else {
		b.WriteString("Install the missing packages:\n\n")
		fmt.Fprintf(&b, "```bash\nnpm install %s\n```\n", strings.Join(res.MissingDependencies, " "))
	}

	var steps []string
	if res.AppFile == "" {
		steps = append(steps, "Wrap the app in `ThemeProvider` and import the i18n setup.")
	}
	steps = append(steps, "Run `npm start` and switch between light, dark and system themes.")
	if res.BackupPath != "" {
		steps = append(steps, fmt.Sprintf("If anything broke, restore from `%s`.", res.BackupPath))
	}
	b.WriteString("\n## Next steps\n\n")
	for i, step := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return b.String()
}
