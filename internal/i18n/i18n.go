// Package i18n holds the UI string catalog. The CLI runs in exactly one
// language per invocation, chosen by flag or env at startup, so a single
// process-wide localizer replaces per-request localizer plumbing.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// localeFiles are loaded in order; the first is the fallback language.
var localeFiles = []string{"en.json", "ru.json"}

var loc *i18n.Localizer

// Init builds the message bundle and selects the output language. It must
// run before any translation helper; helpers called earlier return the
// message id untranslated.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	bundle := i18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, name := range localeFiles {
		data, err := localeFS.ReadFile("locales/" + name)
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", name, err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, name); err != nil {
			return fmt.Errorf("parse locale file %s: %w", name, err)
		}
	}

	loc = i18n.NewLocalizer(bundle, lang)
	return nil
}

func localize(cfg *i18n.LocalizeConfig) string {
	if loc == nil {
		return cfg.MessageID
	}
	s, err := loc.Localize(cfg)
	if err != nil {
		slog.Warn("missing translation", "id", cfg.MessageID, "error", err)
		return cfg.MessageID
	}
	return s
}

// T translates a message by ID.
func T(msgID string) string {
	return localize(&i18n.LocalizeConfig{MessageID: msgID})
}

// Td translates a message by ID with template data.
func Td(msgID string, data map[string]any) string {
	return localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	})
}

// Tp translates a pluralized message by ID.
func Tp(msgID string, count int) string {
	return localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}
