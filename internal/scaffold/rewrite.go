package scaffold

import (
	"regexp"
	"strings"
)

const (
	themeImport = "import { useTheme } from '../../contexts/ThemeContext';"
	legacyHook  = "useDarkMode"

	themeProviderImport = "import { ThemeProvider } from './src/contexts/ThemeContext';"
	i18nSetupImport     = "import './src/i18n/i18n';"
)

var (
	legacyImport = regexp.MustCompile(`import\s*{\s*useDarkMode\s*}\s*from\s*['"][^'"]*['"];?`)
	pairHookCall = regexp.MustCompile(`const\s*\[\s*isDarkMode\s*,\s*toggleDarkMode\s*\]\s*=\s*useDarkMode\(\);?`)
	soloHookCall = regexp.MustCompile(`const\s*\[\s*isDarkMode\s*\]\s*=\s*useDarkMode\(\);?`)

	safeAreaImport = regexp.MustCompile(`(?m)^import[^\n]*from\s*['"]react-native-safe-area-context['"];?[ \t]*$`)
	reactImport    = regexp.MustCompile(`(?m)^import[^\n]*from\s*['"]react['"];?[ \t]*$`)
	safeAreaOpen   = regexp.MustCompile(`(?m)^([ \t]*)<SafeAreaProvider>`)
	safeAreaClose  = regexp.MustCompile(`(?m)^([ \t]*)</SafeAreaProvider>`)
)

// Rewrite replaces the legacy dark-mode hook with the theme context in one
// source file. It reports whether anything changed.
func Rewrite(src string) (string, bool) {
	out := legacyImport.ReplaceAllLiteralString(src, themeImport)
	out = pairHookCall.ReplaceAllLiteralString(out, "const { isDarkMode, toggleTheme } = useTheme();")
	out = soloHookCall.ReplaceAllLiteralString(out, "const { isDarkMode } = useTheme();")
	out = strings.ReplaceAll(out, "toggleDarkMode", "toggleTheme")
	return out, out != src
}

// needsRewrite reports whether a file mentions the legacy hook at all.
func needsRewrite(src string) bool {
	return strings.Contains(src, legacyHook)
}

// RewriteApp wires the theme context and the i18n setup into the app entry:
// it imports ThemeProvider next to the safe-area import, imports the i18n
// setup after React, and wraps the SafeAreaProvider children in
// <ThemeProvider>. Each edit is skipped when already present.
func RewriteApp(src string) (string, bool) {
	out := src
	if !strings.Contains(out, "ThemeProvider") {
		out = insertAfter(out, safeAreaImport, themeProviderImport)
	}
	if !strings.Contains(out, "./src/i18n/i18n") {
		out = insertAfter(out, reactImport, i18nSetupImport)
	}
	if strings.Contains(out, "ThemeProvider") && !strings.Contains(out, "<ThemeProvider>") {
		out = wrapThemeProvider(out)
	}
	return out, out != src
}

// insertAfter adds line below the first line matching re.
func insertAfter(src string, re *regexp.Regexp, line string) string {
	loc := re.FindStringIndex(src)
	if loc == nil {
		return src
	}
	return src[:loc[1]] + "\n" + line + src[loc[1]:]
}

func wrapThemeProvider(src string) string {
	start := safeAreaOpen.FindStringSubmatchIndex(src)
	if start == nil {
		return src
	}
	rest := src[start[1]:]
	end := safeAreaClose.FindStringSubmatchIndex(rest)
	if end == nil {
		return src
	}
	openIndent := src[start[2]:start[3]]
	closeIndent := rest[end[2]:end[3]]

	var b strings.Builder
	b.WriteString(src[:start[1]])
	b.WriteString("\n" + openIndent + "  <ThemeProvider>")
	b.WriteString(rest[:end[0]])
	b.WriteString(closeIndent + "  </ThemeProvider>\n")
	b.WriteString(rest[end[0]:])
	return b.String()
}
