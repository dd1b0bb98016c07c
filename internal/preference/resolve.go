package preference

// ResolveTheme maps a theme mode to a concrete appearance. For
// ThemeModeSystem the OS signal is used when ok is true and the signal is a
// known appearance; otherwise DefaultTheme.
func ResolveTheme(mode ThemeMode, signal Theme, ok bool) Theme {
	switch mode {
	case ThemeModeLight:
		return ThemeLight
	case ThemeModeDark:
		return ThemeDark
	}
	if ok {
		if t, valid := ParseTheme(string(signal)); valid {
			return t
		}
	}
	return DefaultTheme
}

// ResolveLanguage maps a language mode to a supported language. For
// LanguageModeAuto (or any unknown mode) the device signal is used when
// supported; otherwise DefaultLanguage.
func ResolveLanguage(mode LanguageMode, signal Language) Language {
	if mode != LanguageModeAuto {
		if lang := Language(mode); IsSupported(lang) {
			return lang
		}
	}
	if IsSupported(signal) {
		return signal
	}
	return DefaultLanguage
}
