package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const DefaultLocale = "en"

type Translations map[string]string

//go:embed locales/*/messages.yaml
var builtin embed.FS

var (
	locales = make(map[string]Translations)
	mu      sync.RWMutex
)

func init() {
	if err := loadFS(builtin, "locales"); err != nil {
		panic(fmt.Sprintf("i18n: load builtin catalog: %v", err))
	}
}

// LoadTranslations overlays the catalog with <localePath>/<locale>/messages.yaml
// files. Keys missing from disk keep their builtin value.
func LoadTranslations(localePath string) error {
	err := loadFS(os.DirFS(localePath), ".")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func loadFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		locale := entry.Name()
		filePath := path.Join(root, locale, "messages.yaml")

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			continue
		}

		var catalog struct {
			Messages Translations `yaml:"MESSAGES"`
		}
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.FromSlash(filePath), err)
		}

		if locales[locale] == nil {
			locales[locale] = make(Translations, len(catalog.Messages))
		}
		for k, v := range catalog.Messages {
			locales[locale][k] = v
		}
	}

	return nil
}

func Translate(locale, key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if trans, ok := locales[locale]; ok {
		if val, ok := trans[key]; ok {
			return val
		}
	}

	if locale != DefaultLocale {
		if trans, ok := locales[DefaultLocale]; ok {
			if val, ok := trans[key]; ok {
				return val
			}
		}
	}

	return key
}

// Format translates key and substitutes {name} placeholders from args,
// given as alternating name/value pairs.
func Format(locale, key string, args ...string) string {
	template := Translate(locale, key)
	if len(args) < 2 {
		return template
	}
	pairs := make([]string, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, "{"+args[i]+"}", args[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
