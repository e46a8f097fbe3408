package i18n

import (
	"sort"
	"strings"
	"testing"
)

func sortedKeys(messages map[string]string) []string {
	keys := make([]string, 0, len(messages))
	for key := range messages {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// verbs returns the formatting verbs of message in order, e.g. "sd".
func verbs(message string) string {
	var out []byte
	for i := 0; i < len(message)-1; i++ {
		if message[i] == '%' {
			out = append(out, message[i+1])
			i++
		}
	}
	return string(out)
}

func TestCatalogsCoverReference(t *testing.T) {
	reference := getMessages(DefaultLanguage)
	if len(reference) == 0 {
		t.Fatal("English catalog is empty")
	}

	for _, lang := range GetSupportedLanguages() {
		t.Run(lang, func(t *testing.T) {
			messages := getMessages(lang)
			var missing, extra []string
			for _, key := range sortedKeys(reference) {
				if _, ok := messages[key]; !ok {
					missing = append(missing, key)
				}
			}
			for _, key := range sortedKeys(messages) {
				if _, ok := reference[key]; !ok {
					extra = append(extra, key)
				}
			}
			if len(missing) > 0 {
				t.Errorf("%s is missing %d keys: %v", lang, len(missing), missing)
			}
			if len(extra) > 0 {
				t.Errorf("%s has keys unknown to English: %v", lang, extra)
			}
		})
	}
}

func TestCatalogKeyNamespaces(t *testing.T) {
	namespaces := []string{"error.", "success.", "status.", "format."}

	for _, key := range sortedKeys(getMessages(DefaultLanguage)) {
		ok := false
		for _, ns := range namespaces {
			if strings.HasPrefix(key, ns) && len(key) > len(ns) {
				ok = true
				break
			}
		}
		if !ok {
			t.Errorf("key %q is outside the %v namespaces", key, namespaces)
		}
	}
}

func TestFormattedMessagesTakeArguments(t *testing.T) {
	tests := map[string]string{
		"error.remove_failed":      "s",
		"success.removed_saved":    "s",
		"success.removed_playlist": "ss",
		"success.reverted":         "d",
		"success.mode_playlist":    "s",
		"status.duplicates":        "d",
		"format.track":             "ss",
		"format.playlist":          "sd",
		"format.removal":           "sss",
	}

	reference := getMessages(DefaultLanguage)
	for key, want := range tests {
		message, ok := reference[key]
		if !ok {
			t.Errorf("key %q not found", key)
			continue
		}
		if got := verbs(message); got != want {
			t.Errorf("%s verbs = %q, want %q (%s)", key, got, want, message)
		}
	}
}

func TestTranslationsKeepVerbs(t *testing.T) {
	reference := getMessages(DefaultLanguage)
	for _, lang := range GetSupportedLanguages() {
		for key, message := range getMessages(lang) {
			want, ok := reference[key]
			if !ok {
				continue
			}
			if verbs(message) != verbs(want) {
				t.Errorf("%s %s verbs = %q, English has %q", lang, key, verbs(message), verbs(want))
			}
		}
	}
}

func TestLocalizerT(t *testing.T) {
	en := NewLocalizer(DefaultLanguage)

	if got := en.T("format.track", "Queen", "Bohemian Rhapsody"); got != "Queen - Bohemian Rhapsody" {
		t.Errorf("T(format.track) = %q", got)
	}
	if got := en.T("success.reverted", 3); !strings.Contains(got, "3") {
		t.Errorf("T(success.reverted, 3) = %q, want the count", got)
	}
	if got := en.T("status.loading"); got == "" || got == "status.loading" {
		t.Errorf("T(status.loading) = %q", got)
	}

	be := NewLocalizer(BerneseGermanMessages)
	if be.T("error.auth") == en.T("error.auth") {
		t.Error("Bernese German should have its own error.auth text")
	}
}

func TestLocalizerFallsBackPerKey(t *testing.T) {
	saved := berneseGermanMessages["status.loading"]
	delete(berneseGermanMessages, "status.loading")
	defer func() { berneseGermanMessages["status.loading"] = saved }()

	be := NewLocalizer(BerneseGermanMessages)
	if got, want := be.T("status.loading"), englishMessages["status.loading"]; got != want {
		t.Errorf("T(status.loading) = %q, want English %q", got, want)
	}
}

func TestNewLocalizerResolvesLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", DefaultLanguage},
		{"ch_be", BerneseGermanMessages},
		{"CH-BE", BerneseGermanMessages},
		{" ch_be ", BerneseGermanMessages},
		{"fr", DefaultLanguage},
		{"", DefaultLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NewLocalizer(tt.input).Language(); got != tt.expected {
				t.Errorf("NewLocalizer(%q).Language() = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLocalizerHas(t *testing.T) {
	localizer := NewLocalizer(BerneseGermanMessages)
	if !localizer.Has("error.generic") {
		t.Error("Has(error.generic) = false")
	}
	if localizer.Has("no.such.key") {
		t.Error("Has(no.such.key) = true")
	}
	if got := localizer.T("no.such.key"); got != "no.such.key" {
		t.Errorf("T() of unknown key = %q, want the key", got)
	}
}

func TestGetSupportedLanguages(t *testing.T) {
	languages := GetSupportedLanguages()
	if len(languages) < 2 || languages[0] != DefaultLanguage {
		t.Errorf("GetSupportedLanguages() = %v, want English first plus translations", languages)
	}
	for _, lang := range languages {
		if _, ok := catalogs[lang]; !ok {
			t.Errorf("language %q has no catalog", lang)
		}
	}
}

func BenchmarkLocalizer(b *testing.B) {
	localizer := NewLocalizer(DefaultLanguage)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		localizer.T("error.generic")
	}
}

func BenchmarkLocalizerWithArgs(b *testing.B) {
	localizer := NewLocalizer(DefaultLanguage)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		localizer.T("format.track", "Queen", "Bohemian Rhapsody")
	}
}
