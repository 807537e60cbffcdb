package templates

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/templates/elements"
	"github.com/google/go-cmp/cmp"
)

func newTestContext(logs *bytes.Buffer) *rendering.RenderContext {
	return &rendering.RenderContext{
		PageID:     "page-1",
		FormID:     "form-1",
		Dictionary: rendering.NewDictionary([]string{"en"}, "en"),
		Binder:     binding.NewBinder(binding.NewMemoryStore(), nil),
		Logger:     slog.New(slog.NewTextHandler(logs, nil)),
	}
}

func mustParse(t *testing.T, src string) *rendering.StyleNode {
	t.Helper()
	root, err := ParseTree([]byte(src))
	if err != nil {
		t.Fatalf("ParseTree: %v", err)
	}
	return root
}

func TestUnknownTagRendersEmptyAndLogsOnce(t *testing.T) {
	var logs bytes.Buffer
	root := mustParse(t, `{"id": 1, "type": "page", "children": [
		{"id": 2, "type": "hologram"},
		{"id": 3, "type": "text", "fields": {"content": {"content": "still here"}}},
		{"id": 4, "type": "hologram"}
	]}`)

	out := NewNodeRenderer(newTestContext(&logs), DefaultRegistry()).Render(root)

	if !strings.Contains(out, "still here") {
		t.Errorf("sibling of unknown node missing: %s", out)
	}
	if strings.Contains(out, "st-node-2") || strings.Contains(out, "st-node-4") {
		t.Errorf("unknown nodes rendered markup: %s", out)
	}
	if got := strings.Count(logs.String(), "Unknown node type"); got != 1 {
		t.Errorf("unknown type logged %d times, want 1", got)
	}
}

func TestUnknownTagWarnsAgainNextPass(t *testing.T) {
	var logs bytes.Buffer
	root := mustParse(t, `{"id": 1, "type": "hologram"}`)
	nr := NewNodeRenderer(newTestContext(&logs), DefaultRegistry())
	nr.Render(root)
	nr.Render(root)
	if got := strings.Count(logs.String(), "Unknown node type"); got != 2 {
		t.Errorf("logged %d times over two passes, want 2", got)
	}
}

func TestPanickingRendererIsContained(t *testing.T) {
	var logs bytes.Buffer
	registry := DefaultRegistry()
	registry.Register("explode", func(node *rendering.StyleNode, ctx *rendering.RenderContext, nr elements.NodeRenderer) string {
		panic("boom")
	})
	root := mustParse(t, `{"id": 1, "type": "section", "children": [
		{"id": 2, "type": "explode"},
		{"id": 3, "type": "text", "fields": {"content": {"content": "survivor"}}}
	]}`)

	out := NewNodeRenderer(newTestContext(&logs), registry).Render(root)
	if !strings.Contains(out, "survivor") || !strings.Contains(out, `id="st-node-1"`) {
		t.Errorf("panic escaped its node: %s", out)
	}
	if !strings.Contains(logs.String(), "Renderer panicked") {
		t.Errorf("panic not logged: %s", logs.String())
	}
}

func TestNullChildrenAreSkipped(t *testing.T) {
	var logs bytes.Buffer
	root := mustParse(t, `{"id": 1, "type": "page", "children": [null, {"id": 2, "type": "text", "fields": {"content": {"content": "a"}}}, null, {"id": 3, "type": "text", "fields": {"content": {"content": "b"}}}]}`)
	ctx := newTestContext(&logs)
	out := NewNodeRenderer(ctx, nil).Render(root)

	if strings.Index(out, ">a<") > strings.Index(out, ">b<") || !strings.Contains(out, ">a<") {
		t.Errorf("children out of order or missing: %s", out)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, ctx.Mounted()); diff != "" {
		t.Errorf("mounted (-want +got):\n%s", diff)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("text"); ok {
		t.Error("empty registry resolved text")
	}
	r.Register("", nil)
	r.Register("a", func(*rendering.StyleNode, *rendering.RenderContext, elements.NodeRenderer) string { return "A" })
	r.Register("b", func(*rendering.StyleNode, *rendering.RenderContext, elements.NodeRenderer) string { return "B" })
	if diff := cmp.Diff([]string{"a", "b"}, r.Tags()); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}

	d := DefaultRegistry()
	for _, tag := range elements.BuiltinTags() {
		if _, ok := d.Lookup(tag); !ok {
			t.Errorf("builtin %q not registered", tag)
		}
	}
}

func TestParseTreeFlatNodes(t *testing.T) {
	root := mustParse(t, `{"nodes": [
		{"id": 3, "type": "text-input", "parentId": 1, "fields": {"name": {"content": "b"}}},
		{"id": 1, "type": "form"},
		{"id": 2, "type": "text-input", "parentId": 1, "fields": {"name": {"content": "a"}}}
	]}`)
	if root.ID != 1 || root.Type() != "form" {
		t.Fatalf("root = %d %q", root.ID, root.Type())
	}
	var ids []int
	for _, c := range root.Children {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]int{3, 2}, ids); diff != "" {
		t.Errorf("children (-want +got):\n%s", diff)
	}
}

func TestParseTreeRejectsBrokenFlatLists(t *testing.T) {
	for name, src := range map[string]string{
		"two roots":      `{"nodes": [{"id": 1, "type": "page"}, {"id": 2, "type": "page"}]}`,
		"duplicate id":   `{"nodes": [{"id": 1, "type": "page"}, {"id": 1, "type": "text", "parentId": 1}]}`,
		"missing parent": `{"nodes": [{"id": 1, "type": "page"}, {"id": 2, "type": "text", "parentId": 9}]}`,
		"cycle":          `{"nodes": [{"id": 1, "type": "page"}, {"id": 2, "type": "text", "parentId": 3}, {"id": 3, "type": "text", "parentId": 2}]}`,
	} {
		if _, err := ParseTree([]byte(src)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestDiagnose(t *testing.T) {
	root := mustParse(t, `{"id": 1, "type": "form", "children": [
		{"id": 2, "type": "text-input", "fields": {"name": {"content": "title"}}},
		{"id": 3, "type": "textarea", "fields": {"name": {"content": "title"}}},
		{"id": 4, "type": "sparkle"},
		{"id": 2, "type": "divider"}
	]}`)
	got := Diagnose(root, nil, "en")
	want := []Diagnostic{
		{NodeID: 2, Type: "divider", Message: "duplicate node id"},
		{NodeID: 3, Type: "textarea", Message: `form name "title" already used by node 2`},
		{NodeID: 4, Type: "sparkle", Message: "unknown node type"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Diagnose (-want +got):\n%s", diff)
	}
}
