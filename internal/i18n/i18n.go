package i18n

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Language 标识一种受支持的界面语言。
type Language string

const (
	EN Language = "en"
	ES Language = "es"
	PT Language = "pt"
)

// Key 是语言包中的字符串键。
type Key string

var ErrUnsupportedLanguage = errors.New("unsupported language")

var supported = []Language{EN, ES, PT}

// Languages returns the supported languages in display order.
func Languages() []Language {
	return append([]Language(nil), supported...)
}

// ParseLanguage validates a raw language tag.
func ParseLanguage(raw string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(raw)))
	for _, l := range supported {
		if l == lang {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, raw)
}

// DisplayName returns the language's name in that language.
func (l Language) DisplayName() string {
	switch l {
	case EN:
		return "English"
	case ES:
		return "Español"
	case PT:
		return "Português"
	default:
		return string(l)
	}
}

// Text looks up a localized string. A missing entry yields the key itself.
func Text(key Key, lang Language) string {
	if entry, ok := table[key]; ok {
		if value, ok := entry[lang]; ok {
			return value
		}
	}
	return string(key)
}

// Format looks up a localized string and replaces {placeholder} tokens.
func Format(key Key, lang Language, vars map[string]string) string {
	text := Text(key, lang)
	if len(vars) == 0 {
		return text
	}

	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Bundle returns every string for one language.
func Bundle(lang Language) map[Key]string {
	out := make(map[Key]string, len(table))
	for key := range table {
		out[key] = Text(key, lang)
	}
	return out
}

// Verify checks that every key has a non-empty entry for every supported language.
func Verify() error {
	var missing []string
	for key, entry := range table {
		for _, lang := range supported {
			if strings.TrimSpace(entry[lang]) == "" {
				missing = append(missing, fmt.Sprintf("%s/%s", key, lang))
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("locale table incomplete: %s", strings.Join(missing, ", "))
}

// HandoffTriggers returns the "prefer email" button label in every language.
func HandoffTriggers() []string {
	out := make([]string, 0, len(supported))
	for _, lang := range supported {
		out = append(out, Text(HandoffEmailButton, lang))
	}
	return out
}

// IsHandoffTrigger reports whether text equals the handoff label of any language.
func IsHandoffTrigger(text string) bool {
	for _, trigger := range HandoffTriggers() {
		if text == trigger {
			return true
		}
	}
	return false
}
