// Package i18n renders the host's toasts, errors and status lines.
// The deck itself never produces user-facing text.
package i18n

import (
	"fmt"
	"strings"
)

const (
	// DefaultLanguage is used for unknown languages and for keys missing from a catalog
	DefaultLanguage = "en"
	// BerneseGermanMessages is a Swiss Dialect spoken in the Canton of Bern
	BerneseGermanMessages = "ch_be"
)

var catalogs = map[string]map[string]string{
	DefaultLanguage:       englishMessages,
	BerneseGermanMessages: berneseGermanMessages,
}

// Localizer looks up messages in one language, falling back to English per key.
type Localizer struct {
	language string
	messages map[string]string
	fallback map[string]string
}

// NewLocalizer creates a localizer. Language codes are matched case-insensitively
// and accept "-" for "_"; unknown codes get English.
func NewLocalizer(language string) *Localizer {
	lang := normalizeLanguage(language)
	if _, ok := catalogs[lang]; !ok {
		lang = DefaultLanguage
	}
	return &Localizer{
		language: lang,
		messages: getMessages(lang),
		fallback: getMessages(DefaultLanguage),
	}
}

// Language returns the resolved language code.
func (l *Localizer) Language() string {
	return l.language
}

// Has reports whether key exists in the localizer's language or the fallback.
func (l *Localizer) Has(key string) bool {
	_, ok := l.lookup(key)
	return ok
}

// T renders key with args. Unknown keys are returned as is.
func (l *Localizer) T(key string, args ...any) string {
	message, ok := l.lookup(key)
	if !ok {
		return key
	}
	if len(args) == 0 {
		return message
	}
	return fmt.Sprintf(message, args...)
}

func (l *Localizer) lookup(key string) (string, bool) {
	if message, ok := l.messages[key]; ok {
		return message, true
	}
	message, ok := l.fallback[key]
	return message, ok
}

// GetSupportedLanguages returns list of supported language codes
func GetSupportedLanguages() []string {
	return []string{DefaultLanguage, BerneseGermanMessages}
}

func normalizeLanguage(language string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(language)), "-", "_")
}

// getMessages returns the catalog for language, English when unknown.
func getMessages(language string) map[string]string {
	if messages, ok := catalogs[language]; ok {
		return messages
	}
	return englishMessages
}
