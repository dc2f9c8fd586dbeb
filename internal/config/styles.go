package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"diaryshare/internal/domain/model"
)

type styleEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
	Premium     bool   `yaml:"premium"`
}

type styleCatalog struct {
	Styles []styleEntry `yaml:"styles"`
}

// LoadStyleCatalog reads the seed list of answer-document styles.
// Names must be unique; template falls back to the name.
func LoadStyleCatalog(path string) ([]*model.Style, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read style catalog: %w", err)
	}
	var cat styleCatalog
	if err := yaml.Unmarshal(b, &cat); err != nil {
		return nil, fmt.Errorf("parse style catalog: %w", err)
	}

	seen := make(map[string]bool, len(cat.Styles))
	out := make([]*model.Style, 0, len(cat.Styles))
	for i, e := range cat.Styles {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("style #%d: name is required", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("style %q listed twice", name)
		}
		seen[name] = true

		tmpl := strings.TrimSpace(e.Template)
		if tmpl == "" {
			tmpl = name
		}
		out = append(out, &model.Style{
			Name:         name,
			Description:  strings.TrimSpace(e.Description),
			TemplateName: tmpl,
			IsPremium:    e.Premium,
		})
	}
	if len(out) == 0 {
		return nil, errors.New("style catalog is empty")
	}
	return out, nil
}
