// Package i18n owns the language preference: the embedded translation
// catalog, device-language detection, and the Manager that applies the
// user's choice and follows the device locale in automatic mode.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"

	"github.com/aureum-app/settings/internal/preference"
)

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Catalog holds the flattened messages for every supported language.
type Catalog struct {
	messages map[preference.Language]map[string]string
	printers map[preference.Language]*message.Printer
}

// LoadCatalog loads the catalogs embedded in the binary.
func LoadCatalog() (*Catalog, error) {
	return LoadCatalogFS(embeddedLocales)
}

// LoadCatalogFS loads locales/<lang>.yaml files from fsys. Nested keys are
// flattened with dots. The default language must be present.
func LoadCatalogFS(fsys fs.FS) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	builder := catalog.NewBuilder(catalog.Fallback(language.Make(string(preference.DefaultLanguage))))
	c := &Catalog{
		messages: make(map[preference.Language]map[string]string),
		printers: make(map[preference.Language]*message.Printer),
	}

	for _, p := range paths {
		lang := preference.Language(strings.TrimSuffix(path.Base(p), ".yaml"))
		if !preference.IsSupported(lang) {
			return nil, fmt.Errorf("catalog %s: unsupported language %q", p, lang)
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		flat := make(map[string]string)
		if err := flatten("", tree, flat); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", p, err)
		}

		tag := language.Make(string(lang))
		for key, msg := range flat {
			if err := builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("register %s %q: %w", lang, key, err)
			}
		}
		c.messages[lang] = flat
	}

	if _, ok := c.messages[preference.DefaultLanguage]; !ok {
		return nil, fmt.Errorf("default language %s has no catalog", preference.DefaultLanguage)
	}
	for lang := range c.messages {
		c.printers[lang] = message.NewPrinter(language.Make(string(lang)), message.Catalog(builder))
	}
	return c, nil
}

func flatten(prefix string, tree map[string]any, out map[string]string) error {
	for k, v := range tree {
		key := strings.TrimSpace(k)
		if key == "" {
			return fmt.Errorf("blank message key under %q", prefix)
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("message %q must be a string, got %T", key, v)
		}
	}
	return nil
}

// Has reports whether lang defines key.
func (c *Catalog) Has(lang preference.Language, key string) bool {
	_, ok := c.messages[lang][key]
	return ok
}

// Keys returns the sorted message keys for lang.
func (c *Catalog) Keys(lang preference.Language) []string {
	keys := make([]string, 0, len(c.messages[lang]))
	for k := range c.messages[lang] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// T formats key in lang. Keys missing from lang fall back to the default
// language; keys missing everywhere are returned unchanged.
func (c *Catalog) T(lang preference.Language, key string, args ...any) string {
	switch {
	case c.Has(lang, key):
		return c.printers[lang].Sprintf(key, args...)
	case c.Has(preference.DefaultLanguage, key):
		return c.printers[preference.DefaultLanguage].Sprintf(key, args...)
	default:
		return key
	}
}
