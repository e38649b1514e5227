// Package models contains domain models for the CoCo completion service.
package models

import (
	"strings"

	"github.com/coco-ide/completion-service/internal/domain/errors"
)

// Recognized user setting keys. A normalized settings map always contains
// all three, regardless of what the plugin sent.
const (
	SettingStoreCompletions = "store_completions"
	SettingStoreContext     = "store_context"
	SettingAskForFeedback   = "ask_for_feedback"
)

// UserSettings is a normalized, per-session copy of the preferences the
// plugin declared at session creation. It is built once and read thereafter.
type UserSettings map[string]any

// defaultSettings returns the documented default for each recognized key.
func defaultSettings() map[string]any {
	return map[string]any{
		SettingStoreCompletions: false,
		SettingStoreContext:     false,
		SettingAskForFeedback:   true,
	}
}

// NormalizeSettings validates a raw settings map from the plugin and produces
// an owned copy containing every recognized key.
//
// Values arriving as the strings "true"/"false" (any case) are coerced to
// booleans before validation. Recognized keys missing from the input are
// filled with their defaults; recognized keys with a value of the wrong type
// fail with a configuration error naming the key. Unrecognized keys pass
// through untouched.
func NormalizeSettings(raw map[string]any) (UserSettings, error) {
	normalized := make(UserSettings, len(raw)+3)

	for key, value := range raw {
		if s, ok := value.(string); ok {
			switch strings.ToLower(s) {
			case "true":
				value = true
			case "false":
				value = false
			}
		}
		normalized[key] = value
	}

	for key, def := range defaultSettings() {
		value, present := normalized[key]
		if !present {
			normalized[key] = def
			continue
		}
		if _, ok := value.(bool); !ok {
			return nil, errors.NewConfigurationError(key, "bool")
		}
	}

	return normalized, nil
}

// boolSetting reads a recognized key, falling back to its default. Normalized
// maps always carry the key; the fallback covers zero-value UserSettings.
func (s UserSettings) boolSetting(key string) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return defaultSettings()[key].(bool)
}

// StoreCompletions reports whether generated completions may be persisted.
func (s UserSettings) StoreCompletions() bool {
	return s.boolSetting(SettingStoreCompletions)
}

// StoreContext reports whether the code context around the cursor may be
// persisted.
func (s UserSettings) StoreContext() bool {
	return s.boolSetting(SettingStoreContext)
}

// AskForFeedback reports whether the plugin should prompt the user to take
// the feedback survey.
func (s UserSettings) AskForFeedback() bool {
	return s.boolSetting(SettingAskForFeedback)
}
