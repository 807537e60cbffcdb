package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/templates"
)

const fixtureTree = `{"id": 1, "type": "form", "children": [
  {"id": 2, "type": "text-input", "fields": {"name": {"content": "title"}, "required": {"content": "1"}}},
  {"id": 3, "type": "password-input"},
  {"id": 4, "type": "marquee"},
  {"id": 5, "type": "text-input", "fields": {"name": {"content": "title"}}}
]}`

func TestInspect(t *testing.T) {
	root, err := templates.ParseTree([]byte(fixtureTree))
	if err != nil {
		t.Fatalf("ParseTree: %v", err)
	}
	page := &content.Page{ID: "signup", Title: "Sign up", Root: root}

	var out bytes.Buffer
	problems := inspect(&out, page, templates.DefaultRegistry(), "", newStyles(true))
	if problems != 2 {
		t.Errorf("problems = %d, want 2", problems)
	}

	got := out.String()
	for _, want := range []string{
		"Sign up (signup)",
		"<text-input> #2 title [required]",
		"<password-input> #3 field_3 [secret]",
		"<marquee> #4 unknown",
		"node 4 <marquee>: unknown node type",
		`node 5 <text-input>: form name "title" already used by node 2`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
