package elements

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/templates/formscan"
	"github.com/google/go-cmp/cmp"
)

// testRenderer dispatches straight through the builtin table.
type testRenderer struct {
	ctx *rendering.RenderContext
}

func (r testRenderer) RenderNode(node *rendering.StyleNode) string {
	if node == nil {
		return ""
	}
	fn, ok := builtins[node.Type()]
	if !ok {
		return ""
	}
	return fn(node, r.ctx, r)
}

func (r testRenderer) RenderChildren(node *rendering.StyleNode) string {
	var sb strings.Builder
	for _, child := range node.Children {
		sb.WriteString(r.RenderNode(child))
	}
	return sb.String()
}

func newTestContext(mode rendering.Mode, binder *binding.Binder) *rendering.RenderContext {
	if binder == nil {
		binder = binding.NewBinder(binding.NewMemoryStore(), nil)
	}
	return &rendering.RenderContext{
		PageID:     "page-1",
		FormID:     "form-1",
		Dictionary: rendering.NewDictionary([]string{"en", "fr"}, "en"),
		Mode:       mode,
		Binder:     binder,
	}
}

func parseNode(t *testing.T, src string) *rendering.StyleNode {
	t.Helper()
	var node rendering.StyleNode
	if err := json.Unmarshal([]byte(src), &node); err != nil {
		t.Fatalf("unmarshal node: %v", err)
	}
	return &node
}

func render(node *rendering.StyleNode, ctx *rendering.RenderContext) string {
	return testRenderer{ctx: ctx}.RenderNode(node)
}

func scan(t *testing.T, markup string) url.Values {
	t.Helper()
	values, err := formscan.Scan(markup)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return values
}

const twoOptions = `"options": {"content": "[{\"value\":\"a\",\"label\":\"A\"},{\"value\":\"b\",\"label\":\"B\"},{\"value\":\"c\",\"label\":\"C\"}]"}`

func TestModeSymmetry(t *testing.T) {
	tests := []struct {
		name string
		node string
		want url.Values
	}{
		{
			name: "text input bound to record",
			node: `{"id": 42, "type": "text-input", "fields": {"name": {"content": "title"}, "value": {"content": "Untitled"}}, "sectionData": [{"title": "Existing Page"}]}`,
			want: url.Values{"title": {"Existing Page"}},
		},
		{
			name: "text input declared default",
			node: `{"id": 42, "type": "text-input", "fields": {"name": {"content": "title"}, "value": {"content": "Untitled"}}}`,
			want: url.Values{"title": {"Untitled"}},
		},
		{
			name: "default form name",
			node: `{"id": 9, "type": "email-input", "fields": {"value": {"content": "a@b.c"}}}`,
			want: url.Values{"field_9": {"a@b.c"}},
		},
		{
			name: "password never prefilled from record",
			node: `{"id": 3, "type": "password-input", "fields": {"name": {"content": "password"}}, "sectionData": [{"password": "$2a$hash"}]}`,
			want: url.Values{"password": {""}},
		},
		{
			name: "number canonical",
			node: `{"id": 4, "type": "number-input", "fields": {"name": {"content": "qty"}, "value": {"content": "3.50"}}}`,
			want: url.Values{"qty": {"3.5"}},
		},
		{
			name: "hidden input",
			node: `{"id": 5, "type": "hidden-input", "fields": {"name": {"content": "ref"}, "value": {"content": "abc"}}}`,
			want: url.Values{"ref": {"abc"}},
		},
		{
			name: "textarea",
			node: `{"id": 6, "type": "textarea", "fields": {"name": {"content": "body"}, "value": {"content": "hello\nworld"}}}`,
			want: url.Values{"body": {"hello\nworld"}},
		},
		{
			name: "select",
			node: `{"id": 7, "type": "select", "fields": {"name": {"content": "pick"}, "value": {"content": "b"}, ` + twoOptions + `}}`,
			want: url.Values{"pick": {"b"}},
		},
		{
			name: "select without value",
			node: `{"id": 7, "type": "select", "fields": {"name": {"content": "pick"}, ` + twoOptions + `}}`,
			want: url.Values{"pick": {""}},
		},
		{
			name: "select keeps unknown value",
			node: `{"id": 7, "type": "select", "fields": {"name": {"content": "pick"}}, "sectionData": [{"pick": "z"}]}`,
			want: url.Values{"pick": {"z"}},
		},
		{
			name: "multi select joined",
			node: `{"id": 8, "type": "multi-select", "fields": {"name": {"content": "tags"}, "value": {"content": "a  c"}, ` + twoOptions + `}}`,
			want: url.Values{"tags": {"a c"}},
		},
		{
			name: "multi select record array with delimiter",
			node: `{"id": 8, "type": "multi-select", "fields": {"name": {"content": "tags"}, "delimiter": {"content": ","}, ` + twoOptions + `}, "sectionData": [{"tags": ["a", "b"]}]}`,
			want: url.Values{"tags": {"a,b"}},
		},
		{
			name: "radio group",
			node: `{"id": 10, "type": "radio-group", "fields": {"name": {"content": "size"}, "value": {"content": "b"}, ` + twoOptions + `}}`,
			want: url.Values{"size": {"b"}},
		},
		{
			name: "radio group empty",
			node: `{"id": 10, "type": "radio-group", "fields": {"name": {"content": "size"}, ` + twoOptions + `}}`,
			want: url.Values{"size": {""}},
		},
		{
			name: "combobox",
			node: `{"id": 11, "type": "combobox", "fields": {"name": {"content": "city"}, "value": {"content": "c"}, ` + twoOptions + `}}`,
			want: url.Values{"city": {"c"}},
		},
		{
			name: "group picker empty",
			node: `{"id": 12, "type": "group-picker", "fields": {"name": {"content": "group"}}}`,
			want: url.Values{"group": {""}},
		},
		{
			name: "chips",
			node: `{"id": 13, "type": "chips", "fields": {"name": {"content": "kw"}, "value": {"content": " go  html "}}}`,
			want: url.Values{"kw": {"go html"}},
		},
		{
			name: "checkbox checked by record",
			node: `{"id": 14, "type": "checkbox", "fields": {"name": {"content": "agree"}}, "sectionData": [{"agree": true}]}`,
			want: url.Values{"agree": {"1"}},
		},
		{
			name: "checkbox unchecked",
			node: `{"id": 14, "type": "checkbox", "fields": {"name": {"content": "agree"}}}`,
			want: url.Values{"agree": {""}},
		},
		{
			name: "checkbox custom values",
			node: `{"id": 14, "type": "checkbox", "fields": {"name": {"content": "agree"}, "checkbox_value": {"content": "yes"}, "unchecked_value": {"content": "no"}, "value": {"content": "on"}}}`,
			want: url.Values{"agree": {"yes"}},
		},
		{
			name: "switch off",
			node: `{"id": 15, "type": "switch", "fields": {"name": {"content": "notify"}}}`,
			want: url.Values{"notify": {"0"}},
		},
		{
			name: "date picker",
			node: `{"id": 16, "type": "date-picker", "fields": {"name": {"content": "when"}}, "sectionData": [{"when": "2024-03-05T10:00:00Z"}]}`,
			want: url.Values{"when": {"2024-03-05"}},
		},
		{
			name: "date picker garbage",
			node: `{"id": 16, "type": "date-picker", "fields": {"name": {"content": "when"}, "value": {"content": "soon"}}}`,
			want: url.Values{"when": {""}},
		},
		{
			name: "time picker",
			node: `{"id": 17, "type": "time-picker", "fields": {"name": {"content": "at"}, "value": {"content": "09:30:00"}}}`,
			want: url.Values{"at": {"09:30"}},
		},
		{
			name: "datetime picker",
			node: `{"id": 18, "type": "datetime-picker", "fields": {"name": {"content": "starts"}, "value": {"content": "2024-03-05 10:30"}}}`,
			want: url.Values{"starts": {"2024-03-05T10:30"}},
		},
		{
			name: "color picker",
			node: `{"id": 19, "type": "color-picker", "fields": {"name": {"content": "brand"}, "value": {"content": "#ABC"}}}`,
			want: url.Values{"brand": {"#aabbcc"}},
		},
		{
			name: "color picker empty",
			node: `{"id": 19, "type": "color-picker", "fields": {"name": {"content": "brand"}}}`,
			want: url.Values{"brand": {"#000000"}},
		},
		{
			name: "rating clamped",
			node: `{"id": 20, "type": "rating", "fields": {"name": {"content": "stars"}, "max": {"content": "5"}, "value": {"content": "7"}}}`,
			want: url.Values{"stars": {"5"}},
		},
		{
			name: "rating empty",
			node: `{"id": 20, "type": "rating", "fields": {"name": {"content": "stars"}}}`,
			want: url.Values{"stars": {""}},
		},
		{
			name: "slider snaps to step",
			node: `{"id": 21, "type": "slider", "fields": {"name": {"content": "vol"}, "step": {"content": "5"}, "value": {"content": "42"}, "marks": {"content": "[0, 50, {\"value\": 100, \"label\": \"max\"}]"}}}`,
			want: url.Values{"vol": {"40"}},
		},
		{
			name: "slider fractional step stays decimal",
			node: `{"id": 21, "type": "slider", "fields": {"name": {"content": "ratio"}, "min": {"content": "0"}, "max": {"content": "1"}, "step": {"content": "0.1"}, "value": {"content": "0.3"}}}`,
			want: url.Values{"ratio": {"0.3"}},
		},
		{
			name: "range slider ordered",
			node: `{"id": 22, "type": "range-slider", "fields": {"name": {"content": "span"}, "value": {"content": "80 20"}}}`,
			want: url.Values{"span": {"20 80"}},
		},
		{
			name: "range slider defaults",
			node: `{"id": 22, "type": "range-slider", "fields": {"name": {"content": "span"}, "min": {"content": "10"}, "max": {"content": "20"}}}`,
			want: url.Values{"span": {"10 20"}},
		},
		{
			name: "range slider negative bounds ignore numeric delimiter",
			node: `{"id": 22, "type": "range-slider", "fields": {"name": {"content": "temp"}, "delimiter": {"content": "-"}, "min": {"content": "-20"}, "max": {"content": "20"}, "value": {"content": "-5 5"}}}`,
			want: url.Values{"temp": {"-5 5"}},
		},
		{
			name: "file input",
			node: `{"id": 23, "type": "file-input", "fields": {"name": {"content": "doc"}}, "sectionData": [{"doc": "uploads/a.pdf"}]}`,
			want: url.Values{"doc": {"uploads/a.pdf"}},
		},
		{
			name: "multi file input",
			node: `{"id": 24, "type": "multi-file-input", "fields": {"name": {"content": "docs"}}, "sectionData": [{"docs": ["a.png", "b.png"]}]}`,
			want: url.Values{"docs": {"a.png b.png"}},
		},
		{
			name: "image picker",
			node: `{"id": 25, "type": "image-picker", "fields": {"name": {"content": "hero"}, "value": {"content": "/media/x.png"}}}`,
			want: url.Values{"hero": {"/media/x.png"}},
		},
		{
			name: "translated input",
			node: `{"id": 26, "type": "translated-input", "fields": {"name": {"content": "headline"}, "value": {"en": {"content": "Hello"}, "fr": {"content": "Bonjour"}}}}`,
			want: url.Values{"headline": {`[{"language_id":"en","value":"Hello"},{"language_id":"fr","value":"Bonjour"}]`}},
		},
		{
			name: "translated textarea from record",
			node: `{"id": 27, "type": "translated-textarea", "fields": {"name": {"content": "body"}}, "sectionData": [{"body": {"fr": "Salut"}}]}`,
			want: url.Values{"body": {`[{"language_id":"en","value":""},{"language_id":"fr","value":"Salut"}]`}},
		},
		{
			name: "disabled field submits nothing",
			node: `{"id": 28, "type": "chips", "fields": {"name": {"content": "kw"}, "disabled": {"content": "1"}, "value": {"content": "a"}}}`,
			want: url.Values{},
		},
		{
			name: "disabled fieldset",
			node: `{"id": 29, "type": "fieldset", "fields": {"disabled": {"content": "1"}}, "children": [{"id": 30, "type": "text-input", "fields": {"name": {"content": "x"}, "value": {"content": "y"}}}]}`,
			want: url.Values{},
		},
		{
			name: "form with null children",
			node: `{"id": 1, "type": "form", "children": [null, {"id": 2, "type": "switch", "fields": {"name": {"content": "on"}, "value": {"content": "1"}}}, null, {"id": 3, "type": "heading", "fields": {"content": {"content": "Hi"}}}]}`,
			want: url.Values{"_st_form": {"form-1"}, "_st_token": {""}, "on": {"1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := parseNode(t, tt.node)

			enhanced := scan(t, render(node, newTestContext(rendering.ModeEnhanced, nil)))
			fallback := scan(t, render(node, newTestContext(rendering.ModeFallback, nil)))

			if diff := cmp.Diff(tt.want, enhanced); diff != "" {
				t.Errorf("enhanced payload (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(enhanced, fallback); diff != "" {
				t.Errorf("mode asymmetry (-enhanced +fallback):\n%s", diff)
			}
		})
	}
}

func TestEveryInteractiveTagHasOneValue(t *testing.T) {
	for tag, d := range descriptors {
		if !d.Interactive {
			continue
		}
		t.Run(tag, func(t *testing.T) {
			node := rendering.NewStyleNode(1, tag, map[string]rendering.FieldValue{
				"name": rendering.Text("f"),
			})
			for _, mode := range []rendering.Mode{rendering.ModeEnhanced, rendering.ModeFallback} {
				values := scan(t, render(node, newTestContext(mode, nil)))
				if got := len(values["f"]); got != 1 {
					t.Errorf("%s: %d values for f, want 1 (%v)", mode, got, values)
				}
			}
		})
	}
}

func TestCarrierWidgetsLeaveVisualControlsUnnamed(t *testing.T) {
	for _, tag := range []string{"multi-select", "combobox", "chips", "checkbox", "switch", "date-picker", "color-picker", "rating", "slider", "range-slider", "translated-input"} {
		node := rendering.NewStyleNode(1, tag, map[string]rendering.FieldValue{"name": rendering.Text("f")})
		markup := render(node, newTestContext(rendering.ModeEnhanced, nil))
		names, err := formscan.Fields(markup)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"f"}, names); diff != "" {
			t.Errorf("%s named controls (-want +got):\n%s", tag, diff)
		}
		if !strings.Contains(markup, `data-st-carrier="st-node-1"`) {
			t.Errorf("%s: missing carrier", tag)
		}
	}
}

func TestIdempotentRerenderKeepsEdit(t *testing.T) {
	node := parseNode(t, `{"id": 42, "type": "text-input", "fields": {"name": {"content": "title"}, "value": {"content": "Untitled"}}, "sectionData": [{"id": 7, "title": "Existing Page"}]}`)
	binder := binding.NewBinder(binding.NewMemoryStore(), nil)

	for _, mode := range []rendering.Mode{rendering.ModeEnhanced, rendering.ModeFallback} {
		ctx := newTestContext(mode, binder)
		if got := scan(t, render(node, ctx)).Get("title"); got != "Existing Page" {
			t.Fatalf("%s initial = %q", mode, got)
		}
	}

	if err := binder.Edit("form-1", 42, "value", "Edited"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		for _, mode := range []rendering.Mode{rendering.ModeEnhanced, rendering.ModeFallback} {
			if got := scan(t, render(node, newTestContext(mode, binder))).Get("title"); got != "Edited" {
				t.Errorf("%s render %d = %q, want Edited", mode, i, got)
			}
		}
	}

	switched := node.WithSectionData([]rendering.Record{{"id": 8, "title": "Other Record"}})
	if got := scan(t, render(switched, newTestContext(rendering.ModeEnhanced, binder))).Get("title"); got != "Other Record" {
		t.Errorf("after record change = %q, want Other Record", got)
	}
}

func TestCheckboxToggleScenario(t *testing.T) {
	node := parseNode(t, `{"id": 5, "type": "checkbox", "fields": {"name": {"content": "agree"}}}`)
	binder := binding.NewBinder(binding.NewMemoryStore(), nil)

	steps := []struct{ edit, want string }{
		{"1", "1"},
		{"", ""},
		{"true", "1"},
		{"maybe", ""},
	}
	for _, step := range steps {
		if err := binder.Edit("form-1", 5, "value", step.edit); err != nil {
			t.Fatal(err)
		}
		for _, mode := range []rendering.Mode{rendering.ModeEnhanced, rendering.ModeFallback} {
			values := scan(t, render(node, newTestContext(mode, binder)))
			if diff := cmp.Diff([]string{step.want}, values["agree"]); diff != "" {
				t.Errorf("%s after edit %q (-want +got):\n%s", mode, step.edit, diff)
			}
		}
	}
}

func TestNodeFallbackFlag(t *testing.T) {
	node := rendering.NewStyleNode(1, "color-picker", map[string]rendering.FieldValue{
		"name":     rendering.Text("c"),
		"fallback": rendering.Text("1"),
	})
	markup := render(node, newTestContext(rendering.ModeAuto, nil))
	if !strings.Contains(markup, `type="color"`) {
		t.Errorf("fallback flag ignored: %s", markup)
	}
	if strings.Contains(markup, "data-st-carrier") {
		t.Errorf("native colour input should not need a carrier: %s", markup)
	}
}

func TestRangeSliderFallbackControls(t *testing.T) {
	node := parseNode(t, `{"id": 22, "type": "range-slider", "fields": {"name": {"content": "span"}, "label": {"content": "Span"}, "required": {"content": "1"}}}`)
	markup := render(node, newTestContext(rendering.ModeFallback, nil))
	for _, want := range []string{`for="st-node-22-control"`, `id="st-node-22-control"`, `id="st-node-22-control-high"`} {
		if !strings.Contains(markup, want) {
			t.Errorf("fallback markup missing %s: %s", want, markup)
		}
	}
	if got := strings.Count(markup, "required"); got != 2 {
		t.Errorf("required controls = %d, want 2: %s", got, markup)
	}
}

func TestMalformedOptionsRenderEmpty(t *testing.T) {
	node := parseNode(t, `{"id": 7, "type": "select", "fields": {"name": {"content": "pick"}, "options": {"content": "[{oops"}, "value": {"content": "b"}}}`)
	for _, mode := range []rendering.Mode{rendering.ModeEnhanced, rendering.ModeFallback} {
		values := scan(t, render(node, newTestContext(mode, nil)))
		if got := values.Get("pick"); got != "b" {
			t.Errorf("%s pick = %q", mode, got)
		}
	}

	slider := parseNode(t, `{"id": 8, "type": "slider", "fields": {"name": {"content": "v"}, "marks": {"content": "not json"}}}`)
	if markup := render(slider, newTestContext(rendering.ModeEnhanced, nil)); strings.Contains(markup, "<datalist") {
		t.Errorf("malformed marks produced a datalist: %s", markup)
	}
}

type stubOptions struct {
	options []rendering.Option
	ready   bool
	calls   []string
}

func (s *stubOptions) Options(formID string, nodeID int, kind, query string) ([]rendering.Option, bool) {
	s.calls = append(s.calls, kind+"?"+query)
	return s.options, s.ready
}

func TestRemoteOptions(t *testing.T) {
	node := parseNode(t, `{"id": 7, "type": "select", "fields": {"name": {"content": "owner"}, "option_kind": {"content": "users"}, "option_query": {"content": "active"}, "value": {"content": "u2"}}}`)

	pending := &stubOptions{}
	ctx := newTestContext(rendering.ModeEnhanced, nil)
	ctx.Options = pending
	markup := render(node, ctx)
	if !strings.Contains(markup, `data-st-options="loading"`) {
		t.Errorf("pending options not flagged: %s", markup)
	}
	if got := scan(t, markup).Get("owner"); got != "u2" {
		t.Errorf("owner while loading = %q", got)
	}
	if diff := cmp.Diff([]string{"users?active"}, pending.calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}

	ready := &stubOptions{ready: true, options: []rendering.Option{{Value: "u1", Label: "Ada"}, {Value: "u2", Label: "Grace"}}}
	ctx = newTestContext(rendering.ModeEnhanced, nil)
	ctx.Options = ready
	markup = render(node, ctx)
	if strings.Contains(markup, "loading") || !strings.Contains(markup, "Grace") {
		t.Errorf("ready options not rendered: %s", markup)
	}
}

func TestFieldErrorsRenderInBothModes(t *testing.T) {
	node := rendering.NewStyleNode(1, "text-input", map[string]rendering.FieldValue{"name": rendering.Text("title")})
	for _, mode := range []rendering.Mode{rendering.ModeEnhanced, rendering.ModeFallback} {
		ctx := newTestContext(mode, nil)
		ctx.FieldErrors = map[string]string{"title": "This field is required"}
		if markup := render(node, ctx); !strings.Contains(markup, "This field is required") {
			t.Errorf("%s: error message missing", mode)
		}
	}
}

func TestTabsRenderEveryPanel(t *testing.T) {
	node := parseNode(t, `{"id": 1, "type": "tabs", "fields": {"default_tab": {"content": "1"}}, "children": [
		{"id": 2, "type": "tab", "fields": {"label": {"content": "One"}}, "children": [{"id": 4, "type": "text-input", "fields": {"name": {"content": "a"}, "value": {"content": "x"}}}]},
		null,
		{"id": 3, "type": "tab", "fields": {"label": {"content": "Two"}}, "children": [{"id": 5, "type": "text-input", "fields": {"name": {"content": "b"}, "value": {"content": "y"}}}]}
	]}`)
	ctx := newTestContext(rendering.ModeEnhanced, nil)
	markup := render(node, ctx)

	values := scan(t, markup)
	if diff := cmp.Diff(url.Values{"a": {"x"}, "b": {"y"}}, values); diff != "" {
		t.Errorf("tabs payload (-want +got):\n%s", diff)
	}
	if !strings.Contains(markup, `id="st-node-1-panel-0" role="tabpanel" aria-labelledby="st-node-1-panel-0-tab" class="pt-4" hidden`) {
		t.Errorf("inactive panel not hidden: %s", markup)
	}
	if ctx.ActiveTab(node) != 1 {
		t.Errorf("ActiveTab = %d", ctx.ActiveTab(node))
	}
}

func TestBuiltinTagsAreDescribedConsistently(t *testing.T) {
	tags := BuiltinTags()
	sort.Strings(tags)
	if len(tags) < 40 {
		t.Errorf("only %d built-in tags", len(tags))
	}
	for tag := range descriptors {
		if _, ok := builtins[tag]; !ok {
			t.Errorf("descriptor for unregistered tag %q", tag)
		}
	}
}
