package rendering

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustNode(t *testing.T, src string) *StyleNode {
	t.Helper()
	var node StyleNode
	if err := json.Unmarshal([]byte(src), &node); err != nil {
		t.Fatalf("unmarshal node: %v", err)
	}
	return &node
}

func TestResolveFieldPriority(t *testing.T) {
	node := mustNode(t, `{
		"id": 1,
		"type": "text",
		"title": {"content": "direct title"},
		"fields": {
			"title": {"content": "field title"},
			"flag": {"all": {"content": "1"}, "en": {"content": "0"}},
			"label": {"en": {"content": "Hello"}, "fr": {"content": "Bonjour"}},
			"only_fr": {"fr": {"content": "Seulement"}},
			"null_all": {"all": {"content": null}, "en": {"content": "english"}},
			"null_primary": {"en": {"content": null}, "de": {"content": "deutsch"}},
			"count": {"content": 3},
			"empty": {}
		}
	}`)

	tests := []struct {
		name, field, lang, want string
	}{
		{"direct property wins", "title", "en", "direct title"},
		{"all entry wins over language", "flag", "en", "1"},
		{"primary language", "label", "fr", "Bonjour"},
		{"primary language en", "label", "en", "Hello"},
		{"falls back to available language", "only_fr", "en", "Seulement"},
		{"null all is skipped", "null_all", "en", "english"},
		{"null primary is empty", "null_primary", "en", ""},
		{"numeric content", "count", "en", "3"},
		{"empty mapping", "empty", "en", ""},
		{"absent field", "missing", "en", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveField(node, tt.field, tt.lang); got != tt.want {
				t.Errorf("ResolveField(%q, %q) = %q, want %q", tt.field, tt.lang, got, tt.want)
			}
		})
	}
}

func TestResolveFieldIsTotal(t *testing.T) {
	nodes := []*StyleNode{
		nil,
		{},
		NewStyleNode(1, "text", nil),
		mustNode(t, `{"id": 2, "type": "x", "fields": {"a": null, "b": {"content": null}, "c": {"en": null}}}`),
	}
	for _, node := range nodes {
		for _, field := range []string{"", "a", "b", "c", "name", "value"} {
			got := ResolveField(node, field, "en")
			if got == "null" || got == "undefined" {
				t.Errorf("ResolveField(%v, %q) = %q", node, field, got)
			}
		}
	}
}

func TestHasFieldValue(t *testing.T) {
	node := NewStyleNode(1, "checkbox", map[string]FieldValue{
		"required": Text("1"),
		"mode":     Text("dark"),
	})
	if !HasFieldValue(node, "required", "en") {
		t.Error("required should be set")
	}
	if HasFieldValue(node, "disabled", "en") {
		t.Error("disabled should not be set")
	}
	if !HasFieldValue(node, "mode", "en", "dark") {
		t.Error("mode should equal dark")
	}
}

func TestFormNameDefaultsToNodeID(t *testing.T) {
	if got := FormName(NewStyleNode(42, "text-input", nil), "en"); got != "field_42" {
		t.Errorf("FormName = %q", got)
	}
	named := NewStyleNode(42, "text-input", map[string]FieldValue{"name": Text("title")})
	if got := FormName(named, "en"); got != "title" {
		t.Errorf("FormName = %q", got)
	}
}

func TestUnmarshalTreeWithNullChildren(t *testing.T) {
	root := mustNode(t, `{
		"id": 1, "typeTag": "page",
		"children": [null, {"id": 2, "type": "text"}, null],
		"sectionData": [{"id": 7, "title": "Existing"}]
	}`)
	if root.Type() != "page" {
		t.Errorf("type = %q", root.Type())
	}
	if len(root.Children) != 3 || root.Children[0] != nil || root.Children[1].ID != 2 {
		t.Fatalf("children = %#v", root.Children)
	}
	if got := root.RecordIdentity(); got != "7" {
		t.Errorf("RecordIdentity = %q", got)
	}
	if v, ok := root.RecordValue("title", ""); !ok || v != "Existing" {
		t.Errorf("RecordValue = %q, %v", v, ok)
	}
	if root.Find(2) == nil {
		t.Error("Find(2) = nil")
	}
}

func TestRecordIdentityWithoutID(t *testing.T) {
	a := NewStyleNode(1, "text-input", nil).WithSectionData([]Record{{"title": "A"}})
	b := NewStyleNode(1, "text-input", nil).WithSectionData([]Record{{"title": "B"}})
	if a.RecordIdentity() == "" || a.RecordIdentity() == b.RecordIdentity() {
		t.Errorf("identities %q and %q", a.RecordIdentity(), b.RecordIdentity())
	}
	if got := NewStyleNode(1, "x", nil).RecordIdentity(); got != "" {
		t.Errorf("unbound identity = %q", got)
	}
}

func TestFieldValueJSONRoundTrip(t *testing.T) {
	in := map[string]FieldValue{
		"a": Text("x"),
		"b": Localized(map[string]string{"en": "one", "all": "1"}),
	}
	encoded, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]FieldValue
	if err := json.Unmarshal(encoded, &out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("(-in +out):\n%s", diff)
	}
}

func TestDictionary(t *testing.T) {
	d := NewDictionary([]string{"fr", " en", "all", "fr"}, "en")
	if diff := cmp.Diff([]string{"fr", "en"}, d.Languages); diff != "" {
		t.Errorf("languages (-want +got):\n%s", diff)
	}
	if d.Primary() != "en" {
		t.Errorf("Primary = %q", d.Primary())
	}
	if got := d.WithCurrent("fr").Primary(); got != "fr" {
		t.Errorf("WithCurrent(fr).Primary = %q", got)
	}
	if got := d.WithCurrent("xx").Primary(); got != "en" {
		t.Errorf("WithCurrent(xx).Primary = %q", got)
	}
}
