package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const FallbackLocale = "en"

type Translations map[string]string

//go:embed locales
var embedded embed.FS

var (
	locales  = make(map[string]Translations)
	mu       sync.RWMutex
	loadOnce sync.Once
	loadErr  error
)

// Load reads the bundled locale files once.
func Load() error {
	loadOnce.Do(func() {
		loadErr = LoadTranslations(embedded, "locales")
	})
	return loadErr
}

// LoadTranslations reads <root>/<locale>/notifications.yaml for every locale
// directory under root.
func LoadTranslations(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return err
	}

	loaded := make(map[string]Translations, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		locale := entry.Name()
		filePath := path.Join(root, locale, "notifications.yaml")

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			continue
		}

		var file struct {
			Notifications Translations `yaml:"NOTIFICATIONS"`
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filePath, err)
		}
		loaded[locale] = file.Notifications
	}

	mu.Lock()
	defer mu.Unlock()
	for locale, trans := range loaded {
		locales[locale] = trans
	}
	return nil
}

// Translate looks key up in locale, then in the fallback locale, and
// returns the key itself when neither has it.
func Translate(locale, key string) string {
	_ = Load()

	mu.RLock()
	defer mu.RUnlock()

	if trans, ok := locales[locale]; ok {
		if val, ok := trans[key]; ok {
			return val
		}
	}

	if locale != FallbackLocale {
		if trans, ok := locales[FallbackLocale]; ok {
			if val, ok := trans[key]; ok {
				return val
			}
		}
	}

	return key
}

// Format translates key and substitutes {name} style placeholders.
func Format(locale, key string, args map[string]string) string {
	text := Translate(locale, key)
	if len(args) == 0 {
		return text
	}

	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func Supported(locale string) bool {
	_ = Load()

	mu.RLock()
	defer mu.RUnlock()
	_, ok := locales[locale]
	return ok
}
