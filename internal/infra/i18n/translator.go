package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"

	"diaryshare/internal/domain/model"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLang is the catalog every other language falls back to.
const DefaultLang = "en"

var _ model.Phrasebook = (*Translator)(nil)

type Translator struct {
	translations map[string]string
	fallback     map[string]string
}

// NewTranslator loads locales/<lang>.yaml from fsys, with DefaultLang filling missing keys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	if langCode == "" {
		langCode = DefaultLang
	}
	base, err := loadCatalog(fsys, DefaultLang)
	if err != nil {
		return nil, err
	}
	if langCode == DefaultLang {
		return &Translator{translations: base}, nil
	}
	tr, err := loadCatalog(fsys, langCode)
	if err != nil {
		return nil, err
	}
	return &Translator{translations: tr, fallback: base}, nil
}

func loadCatalog(fsys fs.FS, langCode string) (map[string]string, error) {
	filePath := path.Join("locales", fmt.Sprintf("%s.yaml", langCode))
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	return newCatalogFromBytes(data)
}

func newCatalogFromBytes(data []byte) (map[string]string, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return translations, nil
}

// T formats the message for key, or returns key when no catalog has it.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		format, ok = t.fallback[key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
