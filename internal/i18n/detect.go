package i18n

import (
	"log/slog"

	"golang.org/x/text/language"

	"github.com/aureum-app/settings/internal/preference"
	"github.com/aureum-app/settings/internal/system"
)

// DeviceLanguage returns the base language of the first device locale when
// it is supported, and DefaultLanguage otherwise. Only the first locale is
// considered.
func DeviceLanguage(src system.LocaleSource, logger *slog.Logger) preference.Language {
	if logger == nil {
		logger = slog.Default()
	}
	locales, err := src.Locales()
	if err != nil {
		logger.Warn("detecting device language failed", "error", err)
		return preference.DefaultLanguage
	}
	if len(locales) == 0 {
		return preference.DefaultLanguage
	}

	tag, err := language.Parse(locales[0])
	if err != nil {
		logger.Warn("unparseable device locale", "locale", locales[0], "error", err)
		return preference.DefaultLanguage
	}
	base, _ := tag.Base()
	lang := preference.Language(base.String())
	if !preference.IsSupported(lang) {
		return preference.DefaultLanguage
	}
	return lang
}
