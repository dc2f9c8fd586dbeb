//go:build !integration

package i18n

import (
	"testing"
	"testing/fstest"

	"diaryshare/internal/domain/model"
)

func TestTranslator(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("greeting: hello\nwelcome_user: hello %s\nonly_en: english\n")},
		"locales/fa.yaml": {Data: []byte("greeting: سلام\nwelcome_user: سلام %s\n")},
	}

	translator, err := NewTranslator(fsys, "fa")
	if err != nil {
		t.Fatalf("NewTranslator failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got, want := translator.T("greeting"), "سلام"; got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should fall back to the default language", func(t *testing.T) {
		if got, want := translator.T("only_en"), "english"; got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted the key back, got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got, want := translator.T("welcome_user", "Ali"), "سلام Ali"; got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should fail on an unknown language", func(t *testing.T) {
		if _, err := NewTranslator(fsys, "de"); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestEmbeddedLocales(t *testing.T) {
	for _, lang := range []string{"en", "fa"} {
		tr, err := NewTranslator(LocalesFS, lang)
		if err != nil {
			t.Fatalf("NewTranslator(%s) failed: %v", lang, err)
		}
		for _, key := range []string{model.MsgReceivedResponse, model.MsgAnsweredDiary} {
			if got := tr.T(key, "ravi", "Summer"); got == key {
				t.Errorf("%s: missing message for %s", lang, key)
			}
		}
	}
}
