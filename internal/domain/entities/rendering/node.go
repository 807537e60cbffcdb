// Package rendering provides domain entities for HTML rendering operations
package rendering

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
)

// AllLanguages is the language key of language-independent field content.
const AllLanguages = "all"

// Record is one flat snapshot of a backing data row.
type Record map[string]any

// FieldValue is either a {content} shorthand or a per-language mapping of
// {content} entries. A nil content pointer means null or undefined.
type FieldValue struct {
	Shorthand bool
	Content   *string
	Languages map[string]*string
}

// Text builds a shorthand field value.
func Text(content string) FieldValue {
	return FieldValue{Shorthand: true, Content: &content}
}

// Localized builds a per-language field value. Use AllLanguages for
// language-independent content.
func Localized(contents map[string]string) FieldValue {
	fv := FieldValue{Languages: make(map[string]*string, len(contents))}
	for lang, content := range contents {
		c := content
		fv.Languages[lang] = &c
	}
	return fv
}

func (fv *FieldValue) UnmarshalJSON(data []byte) error {
	*fv = FieldValue{}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	obj, isObject := raw.(map[string]any)
	if !isObject {
		fv.Shorthand = true
		fv.Content = contentString(raw)
		return nil
	}

	if content, ok := obj["content"]; ok {
		fv.Shorthand = true
		fv.Content = contentString(content)
		return nil
	}

	fv.Languages = make(map[string]*string, len(obj))
	for lang, entry := range obj {
		if entryObj, ok := entry.(map[string]any); ok {
			fv.Languages[lang] = contentString(entryObj["content"])
			continue
		}
		fv.Languages[lang] = contentString(entry)
	}
	return nil
}

func (fv FieldValue) MarshalJSON() ([]byte, error) {
	if fv.Shorthand {
		return json.Marshal(map[string]*string{"content": fv.Content})
	}
	out := make(map[string]map[string]*string, len(fv.Languages))
	for lang, content := range fv.Languages {
		out[lang] = map[string]*string{"content": content}
	}
	return json.Marshal(out)
}

// contentString converts decoded JSON content to a string pointer; null stays nil.
func contentString(v any) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return &val
	case float64:
		s := binding.FormatNumber(val)
		return &s
	case bool:
		s := strconv.FormatBool(val)
		return &s
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			s := fmt.Sprint(val)
			return &s
		}
		s := string(encoded)
		return &s
	}
}

// StyleNode is one node of the server-supplied UI description tree. The type
// tag is fixed at construction; the engine never mutates a node in place.
type StyleNode struct {
	ID          int
	typeTag     string
	Fields      map[string]FieldValue
	Direct      map[string]FieldValue
	Children    []*StyleNode
	SectionData []Record
}

// NewStyleNode creates a node with the given type tag.
func NewStyleNode(id int, typeTag string, fields map[string]FieldValue, children ...*StyleNode) *StyleNode {
	if fields == nil {
		fields = make(map[string]FieldValue)
	}
	return &StyleNode{
		ID:       id,
		typeTag:  typeTag,
		Fields:   fields,
		Children: children,
	}
}

// Type returns the node's type tag.
func (n *StyleNode) Type() string {
	if n == nil {
		return ""
	}
	return n.typeTag
}

// WithSectionData returns a shallow copy bound to the given records.
func (n *StyleNode) WithSectionData(records []Record) *StyleNode {
	clone := *n
	clone.SectionData = records
	return &clone
}

// WithChildren returns a shallow copy with a replaced child list.
func (n *StyleNode) WithChildren(children []*StyleNode) *StyleNode {
	clone := *n
	clone.Children = children
	return &clone
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips the node's subtree.
func (n *StyleNode) Walk(fn func(*StyleNode) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Find returns the descendant (or self) with the given id.
func (n *StyleNode) Find(id int) *StyleNode {
	var found *StyleNode
	n.Walk(func(node *StyleNode) bool {
		if found != nil {
			return false
		}
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// Record returns the bound record, the first section data element.
func (n *StyleNode) Record() Record {
	if n == nil || len(n.SectionData) == 0 {
		return nil
	}
	return n.SectionData[0]
}

// RecordIdentity identifies the bound record: its id when present, a digest
// of its content otherwise, and "" when the node is not bound.
func (n *StyleNode) RecordIdentity() string {
	rec := n.Record()
	if rec == nil {
		return ""
	}
	if id, ok := binding.Stringify(rec["id"], binding.DefaultDelimiter); ok && id != "" {
		return id
	}
	encoded, err := json.Marshal(rec)
	if err != nil {
		return "record"
	}
	h := fnv.New64a()
	h.Write(encoded)
	return fmt.Sprintf("digest:%x", h.Sum64())
}

// RecordValue reads field from the bound record as a form string.
func (n *StyleNode) RecordValue(field, delimiter string) (string, bool) {
	raw, ok := n.RecordRaw(field)
	if !ok {
		return "", false
	}
	return binding.Stringify(raw, delimiter)
}

// RecordRaw reads field from the bound record without conversion.
func (n *StyleNode) RecordRaw(field string) (any, bool) {
	rec := n.Record()
	if rec == nil || field == "" {
		return nil, false
	}
	v, ok := rec[field]
	return v, ok
}

var reservedNodeKeys = map[string]bool{
	"id": true, "type": true, "typeTag": true, "fields": true, "children": true, "sectionData": true,
}

func (n *StyleNode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*n = StyleNode{Fields: make(map[string]FieldValue)}

	if idRaw, ok := raw["id"]; ok {
		var id json.Number
		if err := json.Unmarshal(idRaw, &id); err != nil {
			var idString string
			if err2 := json.Unmarshal(idRaw, &idString); err2 != nil {
				return fmt.Errorf("invalid node id: %w", err)
			}
			id = json.Number(idString)
		}
		parsed, err := strconv.Atoi(id.String())
		if err != nil {
			return fmt.Errorf("invalid node id %q: %w", id, err)
		}
		n.ID = parsed
	}

	for _, key := range []string{"type", "typeTag"} {
		if tagRaw, ok := raw[key]; ok {
			if err := json.Unmarshal(tagRaw, &n.typeTag); err != nil {
				return fmt.Errorf("node %d: invalid type tag: %w", n.ID, err)
			}
			break
		}
	}

	if fieldsRaw, ok := raw["fields"]; ok && string(fieldsRaw) != "null" {
		if err := json.Unmarshal(fieldsRaw, &n.Fields); err != nil {
			return fmt.Errorf("node %d: invalid fields: %w", n.ID, err)
		}
	}

	if childrenRaw, ok := raw["children"]; ok {
		if err := json.Unmarshal(childrenRaw, &n.Children); err != nil {
			return fmt.Errorf("node %d: invalid children: %w", n.ID, err)
		}
	}

	if sectionRaw, ok := raw["sectionData"]; ok {
		if err := json.Unmarshal(sectionRaw, &n.SectionData); err != nil {
			return fmt.Errorf("node %d: invalid sectionData: %w", n.ID, err)
		}
	}

	for key, value := range raw {
		if reservedNodeKeys[key] {
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(value, &obj); err != nil {
			continue
		}
		if _, hasContent := obj["content"]; !hasContent {
			continue
		}
		var fv FieldValue
		if err := json.Unmarshal(value, &fv); err != nil {
			continue
		}
		if n.Direct == nil {
			n.Direct = make(map[string]FieldValue)
		}
		n.Direct[key] = fv
	}

	return nil
}

func (n StyleNode) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 5+len(n.Direct))
	for key, fv := range n.Direct {
		out[key] = fv
	}
	out["id"] = n.ID
	out["type"] = n.typeTag
	out["fields"] = n.Fields
	if n.Children != nil {
		out["children"] = n.Children
	}
	if n.SectionData != nil {
		out["sectionData"] = n.SectionData
	}
	return json.Marshal(out)
}

// FieldNames lists the node's field names in sorted order.
func (n *StyleNode) FieldNames() []string {
	names := make([]string, 0, len(n.Fields))
	for name := range n.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
