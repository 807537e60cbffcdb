package binding

import (
	"encoding/json"
	"strings"
)

// Translation is one element of the serialised overlay payload.
type Translation struct {
	LanguageID string `json:"language_id"`
	Value      string `json:"value"`
}

// TranslationKey is the binding key of one language of a translated field.
func TranslationKey(field, language string) string {
	return field + "@" + language
}

// EncodeTranslations serialises per-language values as a JSON array of
// {language_id, value} in the order of languages. Every language appears,
// missing ones with an empty value.
func EncodeTranslations(languages []string, values map[string]string) string {
	payload := make([]Translation, 0, len(languages))
	for _, lang := range languages {
		payload = append(payload, Translation{LanguageID: lang, Value: values[lang]})
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// DecodeTranslations reads a translation payload from a record value. It
// accepts the array form produced by EncodeTranslations, a {lang: value}
// object, or either of those JSON-encoded in a string.
func DecodeTranslations(v any) (map[string]string, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return nil, false
		}
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return nil, false
		}
		if _, isString := decoded.(string); isString {
			return nil, false
		}
		return DecodeTranslations(decoded)
	case []Translation:
		out := make(map[string]string, len(val))
		for _, t := range val {
			out[t.LanguageID] = t.Value
		}
		return out, true
	case []any:
		out := make(map[string]string, len(val))
		for _, item := range val {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			lang, _ := m["language_id"].(string)
			if lang == "" {
				continue
			}
			if s, ok := Stringify(m["value"], DefaultDelimiter); ok {
				out[lang] = s
			} else {
				out[lang] = ""
			}
		}
		return out, true
	case map[string]any:
		out := make(map[string]string, len(val))
		for lang, raw := range val {
			if s, ok := Stringify(raw, DefaultDelimiter); ok {
				out[lang] = s
			}
		}
		return out, true
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}
