package elements

import (
	"html/template"
	"strings"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

var toggleTemplates = template.Must(template.New("toggles").Parse(
	`{{define "checkbox"}}<div class="relative flex items-start"><div class="flex h-6 items-center">` +
		`<input type="checkbox" id="{{.ControlID}}" data-st-bind="{{.DOMID}}" data-st-on="{{.On}}" data-st-off="{{.Off}}"` +
		` class="h-4 w-4 rounded border-gray-300 text-cyan-600 focus:ring-cyan-600"{{if .Checked}} checked{{end}}{{if .Required}} required{{end}}{{if .Disabled}} disabled{{end}}></div>` +
		`{{if .Prompt}}<div class="ml-3 text-sm leading-6"><label for="{{.ControlID}}" class="text-mydarkgrey">{{.Prompt}}</label></div>{{end}}</div>{{end}}` +
		`{{define "switch"}}<div class="flex items-center">` +
		`<input type="checkbox" id="{{.ControlID}}" data-st-bind="{{.DOMID}}" data-st-on="{{.On}}" data-st-off="{{.Off}}" class="peer sr-only" role="switch" aria-checked="{{.Checked}}"` +
		`{{if .Checked}} checked{{end}}{{if .Disabled}} disabled{{end}}>` +
		`<label for="{{.ControlID}}" class="relative inline-flex cursor-pointer items-center">` +
		`<div class="h-6 w-11 rounded-full bg-gray-200 after:absolute after:left-[2px] after:top-[2px] after:h-5 after:w-5 after:rounded-full after:border after:border-gray-300 after:bg-white after:transition-all after:content-[''] peer-checked:bg-cyan-600 peer-checked:after:translate-x-full peer-checked:after:border-white peer-focus:ring-4 peer-focus:ring-cyan-300"></div>` +
		`{{if .Prompt}}<span class="ml-3 text-sm text-gray-900">{{.Prompt}}</span>{{end}}</label></div>{{end}}`,
))

type toggleData struct {
	fieldProps
	On      string
	Off     string
	Prompt  string
	Checked bool
}

// toggleValues returns the on/off pair of a toggle node.
func toggleValues(node *rendering.StyleNode, ctx *rendering.RenderContext, defaultOff string) (on, off string) {
	on = ctx.FieldOr(node, "checkbox_value", "1")
	off = ctx.FieldOr(node, "unchecked_value", defaultOff)
	return on, off
}

// renderToggle writes a checkbox-like control. The unnamed checkbox is
// decorative; the carrier always holds exactly the on or the off value.
func renderToggle(node *rendering.StyleNode, ctx *rendering.RenderContext, templateName, defaultOff string) string {
	p := newFieldProps(node, ctx)
	on, off := toggleValues(node, ctx, defaultOff)
	value := binding.Toggle(boundValue(node, ctx, p), on, off)
	checked := value == on

	// The label doubles as the prompt beside the box.
	prompt := ctx.FieldOr(node, "prompt", p.Label)
	fp := p
	fp.Label = ""

	if !p.Enhanced {
		attrs := append(boundAttrs(p),
			h.Type("checkbox"),
			g.Attr("data-st-on", on),
			g.Attr("data-st-off", off),
			g.If(checked, h.Checked()),
		)
		return fallbackField(fp, h.Label(h.Input(attrs...), g.Text(prompt)), carrier(p, value))
	}

	var buf strings.Builder
	executeTemplate(toggleTemplates, &buf, templateName, toggleData{
		fieldProps: p,
		On:         on,
		Off:        off,
		Prompt:     prompt,
		Checked:    checked,
	})
	buf.WriteString(renderNodes(carrier(p, value)))
	return enhancedField(fp, buf.String())
}

func renderCheckbox(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	return renderToggle(node, ctx, "checkbox", descriptors["checkbox"].OffValue)
}

func renderSwitch(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	return renderToggle(node, ctx, "switch", descriptors["switch"].OffValue)
}

// ToggleValues returns the on/off pair of a toggle node in the given language.
func ToggleValues(node *rendering.StyleNode, language string) (on, off string) {
	on = rendering.ResolveField(node, "checkbox_value", language)
	if on == "" {
		on = "1"
	}
	off = rendering.ResolveField(node, "unchecked_value", language)
	if off == "" {
		off = descriptors[node.Type()].OffValue
	}
	return on, off
}
