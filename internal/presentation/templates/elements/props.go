package elements

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"strconv"
	"strings"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

var fieldTemplates = template.Must(template.New("field").Parse(
	`{{define "fieldOpen"}}<div id="{{.DOMID}}" class="st-field mb-4 {{.Class}}" data-st-node="{{.NodeID}}">` +
		`{{if .Label}}<label for="{{.ControlID}}" class="block text-sm font-bold leading-6 text-mydarkgrey">{{.Label}}{{if .Required}}<span class="ml-0.5 text-red-600" aria-hidden="true">*</span>{{end}}</label>{{end}}` +
		`<div class="mt-1">{{end}}` +
		`{{define "fieldClose"}}</div>` +
		`{{if .Help}}<p id="{{.DOMID}}-help" class="mt-1 text-xs text-mydarkgrey">{{.Help}}</p>{{end}}` +
		`{{if .Error}}<p id="{{.DOMID}}-error" class="mt-1 text-sm text-red-600" role="alert">{{.Error}}</p>{{end}}` +
		`</div>{{end}}`,
))

// fieldProps are the fields every interactive renderer reads, resolved once
// through the same contract for both render modes.
type fieldProps struct {
	NodeID      int
	DOMID       string
	ControlID   string
	Name        string
	Label       string
	Placeholder string
	Help        string
	Class       string
	Error       string
	Required    bool
	Disabled    bool
	Enhanced    bool
	Delimiter   string
}

func newFieldProps(node *rendering.StyleNode, ctx *rendering.RenderContext) fieldProps {
	domID := rendering.DOMID(node)
	name := ctx.FormName(node)
	return fieldProps{
		NodeID:      node.ID,
		DOMID:       domID,
		ControlID:   domID + "-control",
		Name:        name,
		Label:       ctx.Field(node, "label"),
		Placeholder: ctx.Field(node, "placeholder"),
		Help:        ctx.Field(node, "help"),
		Class:       ctx.Field(node, "class"),
		Error:       ctx.FieldError(name),
		Required:    ctx.Flag(node, "required"),
		Disabled:    ctx.Flag(node, "disabled"),
		Enhanced:    ctx.Enhanced(node),
		Delimiter:   delimiterOf(node, ctx),
	}
}

func delimiterOf(node *rendering.StyleNode, ctx *rendering.RenderContext) string {
	if d := ctx.Field(node, "delimiter"); d != "" {
		return d
	}
	return binding.DefaultDelimiter
}

// boundValue resolves the node's value: record value under its form name,
// else its declared "value" field, else live edits made since.
func boundValue(node *rendering.StyleNode, ctx *rendering.RenderContext, p fieldProps) string {
	return ctx.Bind(node, "value", p.Name, ctx.Field(node, "value"), p.Delimiter)
}

// enhancedField wraps an enhanced control in the toolkit field chrome.
func enhancedField(p fieldProps, control string) string {
	var buf strings.Builder
	executeTemplate(fieldTemplates, &buf, "fieldOpen", p)
	buf.WriteString(control)
	executeTemplate(fieldTemplates, &buf, "fieldClose", p)
	return buf.String()
}

// fallbackField wraps native controls in a bare labelled block.
func fallbackField(p fieldProps, controls ...g.Node) string {
	children := []g.Node{
		h.ID(p.DOMID),
		g.Attr("data-st-node", strconv.Itoa(p.NodeID)),
	}
	if p.Label != "" {
		children = append(children, h.Label(h.For(p.ControlID), g.Text(p.Label)))
	}
	children = append(children, controls...)
	if p.Help != "" {
		children = append(children, h.Small(g.Text(p.Help)))
	}
	if p.Error != "" {
		children = append(children, h.Strong(g.Attr("role", "alert"), g.Text(p.Error)))
	}
	return renderNodes(h.Div(children...))
}

// carrier is the hidden input holding the canonical value of a widget that
// has no native form encoding. The visual widget stays unnamed.
func carrier(p fieldProps, value string) g.Node {
	return h.Input(
		h.Type("hidden"),
		h.Name(p.Name),
		h.Value(value),
		g.Attr("data-st-carrier", p.DOMID),
		g.If(p.Disabled, h.Disabled()),
	)
}

// nativeAttrs are the attributes of a named native control.
func nativeAttrs(p fieldProps) []g.Node {
	return []g.Node{
		h.ID(p.ControlID),
		h.Name(p.Name),
		g.If(p.Required, h.Required()),
		g.If(p.Disabled, h.Disabled()),
	}
}

// boundAttrs are the attributes of an unnamed control kept in sync with a carrier.
func boundAttrs(p fieldProps) []g.Node {
	return []g.Node{
		h.ID(p.ControlID),
		g.Attr("data-st-bind", p.DOMID),
		g.If(p.Required, h.Required()),
		g.If(p.Disabled, h.Disabled()),
	}
}

func renderNodes(nodes ...g.Node) string {
	var buf strings.Builder
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if err := n.Render(&buf); err != nil {
			slog.Default().Error("Failed to render fallback markup", "error", err.Error())
			return "<!-- render error -->"
		}
	}
	return buf.String()
}

// executeTemplate is a helper to render a named template and handle errors
func executeTemplate(t *template.Template, buf *strings.Builder, name string, data any) {
	if err := t.ExecuteTemplate(buf, name, data); err != nil {
		slog.Default().Error("Failed to execute template", "template", name, "error", err.Error())
		buf.WriteString("<!-- template error -->")
	}
}

// parseOptions reads a JSON option list. Malformed input is logged and
// yields an empty list.
func parseOptions(node *rendering.StyleNode, ctx *rendering.RenderContext, field string) []rendering.Option {
	raw := strings.TrimSpace(ctx.Field(node, field))
	if raw == "" {
		return nil
	}

	var decoded []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		ctx.Log().Warn("Malformed option list", "nodeId", node.ID, "field", field, "error", err.Error())
		return nil
	}

	options := make([]rendering.Option, 0, len(decoded))
	for _, item := range decoded {
		var asString string
		if err := json.Unmarshal(item, &asString); err == nil {
			options = append(options, rendering.Option{Value: asString, Label: asString})
			continue
		}
		var asObject map[string]any
		if err := json.Unmarshal(item, &asObject); err != nil {
			continue
		}
		value, _ := binding.Stringify(asObject["value"], binding.DefaultDelimiter)
		label, _ := binding.Stringify(asObject["label"], binding.DefaultDelimiter)
		if label == "" {
			label = value
		}
		options = append(options, rendering.Option{Value: value, Label: label})
	}
	return options
}

// choiceOptions merges the static "options" field with the remote list named
// by "option_kind". Remote lists are fetched asynchronously; until they are
// ready only static options render.
func choiceOptions(node *rendering.StyleNode, ctx *rendering.RenderContext) (options []rendering.Option, loading bool) {
	options = parseOptions(node, ctx, "options")
	kind := ctx.Field(node, "option_kind")
	if kind == "" && node.Type() == "group-picker" {
		kind = "group"
	}
	if kind == "" {
		return options, false
	}
	remote, ready := ctx.OptionsFor(node, kind, ctx.Field(node, "option_query"))
	return append(options, remote...), !ready
}

// ensureOptions appends any selected value missing from options so the
// current value stays representable.
func ensureOptions(options []rendering.Option, selected []string) []rendering.Option {
	known := make(map[string]bool, len(options))
	for _, o := range options {
		known[o.Value] = true
	}
	for _, v := range selected {
		if v != "" && !known[v] {
			options = append(options, rendering.Option{Value: v, Label: v})
			known[v] = true
		}
	}
	return options
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func parseFloatOr(raw string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return f
}

// canonicalNumber rewrites a parseable number in its shortest form and
// leaves anything else untouched.
func canonicalNumber(raw string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	return binding.FormatNumber(f)
}
