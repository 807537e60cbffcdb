package rendering

import (
	"sort"
	"strconv"
)

// ResolveField extracts the string value of a named field. It is total: an
// absent field, a nil node or null content all resolve to "".
//
// Priority: a direct {content} property on the node, then fields[name] as a
// shorthand, its "all" entry, the primary language entry, and finally the
// first other language entry in key order.
func ResolveField(node *StyleNode, name, primaryLanguage string) string {
	if node == nil {
		return ""
	}

	if direct, ok := node.Direct[name]; ok && direct.Shorthand {
		return deref(direct.Content)
	}

	fv, ok := node.Fields[name]
	if !ok {
		return ""
	}
	if fv.Shorthand {
		return deref(fv.Content)
	}

	if all, ok := fv.Languages[AllLanguages]; ok && all != nil {
		return *all
	}
	if content, ok := fv.Languages[primaryLanguage]; ok {
		return deref(content)
	}

	langs := make([]string, 0, len(fv.Languages))
	for lang := range fv.Languages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if content := fv.Languages[lang]; content != nil {
			return *content
		}
	}
	return ""
}

// ResolveFieldIn resolves the content of a per-language field for one
// specific language, without falling back to other languages. The "all"
// entry still applies.
func ResolveFieldIn(node *StyleNode, name, language string) (string, bool) {
	if node == nil {
		return "", false
	}
	fv, ok := node.Fields[name]
	if !ok {
		return "", false
	}
	if fv.Shorthand {
		return deref(fv.Content), fv.Content != nil
	}
	if content, ok := fv.Languages[language]; ok && content != nil {
		return *content, true
	}
	if all, ok := fv.Languages[AllLanguages]; ok && all != nil {
		return *all, true
	}
	return "", false
}

// HasFieldValue reports whether the field resolves to expected, "1" by default.
func HasFieldValue(node *StyleNode, name, primaryLanguage string, expected ...string) bool {
	want := "1"
	if len(expected) > 0 {
		want = expected[0]
	}
	return ResolveField(node, name, primaryLanguage) == want
}

// FormName is the node's form field name: its "name" field, or field_<id>.
func FormName(node *StyleNode, primaryLanguage string) string {
	if name := ResolveField(node, "name", primaryLanguage); name != "" {
		return name
	}
	if node == nil {
		return ""
	}
	return "field_" + strconv.Itoa(node.ID)
}

// DOMID is the stable DOM hook of a node.
func DOMID(node *StyleNode) string {
	if node == nil {
		return ""
	}
	return "st-node-" + strconv.Itoa(node.ID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
