package rendering

import "strings"

// Dictionary is the translation dictionary consumed by field resolution and
// the translation overlay.
type Dictionary struct {
	Languages []string `json:"languages"`
	Default   string   `json:"default"`
	Current   string   `json:"current,omitempty"`
}

// NewDictionary builds a dictionary; the default language is added to the
// list when missing.
func NewDictionary(languages []string, defaultLanguage string) Dictionary {
	var cleaned []string
	seen := make(map[string]bool)
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" || lang == AllLanguages || seen[lang] {
			continue
		}
		seen[lang] = true
		cleaned = append(cleaned, lang)
	}
	if defaultLanguage == "" && len(cleaned) > 0 {
		defaultLanguage = cleaned[0]
	}
	if defaultLanguage != "" && !seen[defaultLanguage] {
		cleaned = append([]string{defaultLanguage}, cleaned...)
	}
	return Dictionary{Languages: cleaned, Default: defaultLanguage}
}

// WithCurrent returns a copy using lang as the current language when it is known.
func (d Dictionary) WithCurrent(lang string) Dictionary {
	if d.Contains(lang) {
		d.Current = lang
	}
	return d
}

// Primary is the language used to resolve translatable fields.
func (d Dictionary) Primary() string {
	if d.Current != "" {
		return d.Current
	}
	return d.Default
}

// Contains reports whether lang is configured.
func (d Dictionary) Contains(lang string) bool {
	for _, l := range d.Languages {
		if l == lang {
			return true
		}
	}
	return false
}
