package elements

import (
	"html/template"
	"strings"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

const inputClass = "block w-full rounded-md border-0 px-2.5 py-1.5 text-mydarkgrey shadow-sm ring-1 ring-inset ring-gray-300 placeholder:text-gray-400 focus:ring-2 focus:ring-inset focus:ring-cyan-600 disabled:bg-gray-50 sm:text-sm sm:leading-6"

var inputTemplates = template.Must(template.New("inputs").Parse(
	`{{define "input"}}<input type="{{.Type}}" id="{{.ControlID}}" name="{{.Name}}" value="{{.Value}}" class="` + inputClass + `"` +
		`{{if .Placeholder}} placeholder="{{.Placeholder}}"{{end}}{{if .Autocomplete}} autocomplete="{{.Autocomplete}}"{{end}}` +
		`{{if .Min}} min="{{.Min}}"{{end}}{{if .Max}} max="{{.Max}}"{{end}}{{if .Step}} step="{{.Step}}"{{end}}` +
		`{{if .Help}} aria-describedby="{{.DOMID}}-help"{{end}}{{if .Error}} aria-invalid="true"{{end}}` +
		`{{if .Required}} required{{end}}{{if .Disabled}} disabled{{end}}>{{end}}` +
		`{{define "textarea"}}<textarea id="{{.ControlID}}" name="{{.Name}}" rows="{{.Rows}}" class="` + inputClass + `"` +
		`{{if .Placeholder}} placeholder="{{.Placeholder}}"{{end}}{{if .Required}} required{{end}}{{if .Disabled}} disabled{{end}}>{{.Value}}</textarea>{{end}}`,
))

type inputData struct {
	fieldProps
	Type         string
	Value        string
	Autocomplete string
	Min          string
	Max          string
	Step         string
	Rows         int
}

var inputTypes = map[string]string{
	"text-input":     "text",
	"email-input":    "email",
	"password-input": "password",
	"number-input":   "number",
	"url-input":      "url",
	"tel-input":      "tel",
}

// renderTextInput covers every single-line native input. Native inputs
// encode themselves, so neither mode needs a carrier.
func renderTextInput(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	inputType := inputTypes[node.Type()]
	if inputType == "" {
		inputType = "text"
	}

	var value string
	if Describe(node.Type()).Secret {
		// Stored secrets are hashes; never prefill them from a record.
		value = ctx.Bind(node, "value", "", ctx.Field(node, "value"), p.Delimiter)
	} else {
		value = boundValue(node, ctx, p)
	}

	data := inputData{
		fieldProps:   p,
		Type:         inputType,
		Value:        value,
		Autocomplete: ctx.Field(node, "autocomplete"),
	}
	if inputType == "number" {
		data.Min = ctx.Field(node, "min")
		data.Max = ctx.Field(node, "max")
		data.Step = ctx.Field(node, "step")
		data.Value = canonicalNumber(value)
	}

	if !p.Enhanced {
		attrs := append(nativeAttrs(p),
			h.Type(inputType),
			h.Value(data.Value),
			g.If(p.Placeholder != "", h.Placeholder(p.Placeholder)),
			g.If(data.Min != "", g.Attr("min", data.Min)),
			g.If(data.Max != "", g.Attr("max", data.Max)),
			g.If(data.Step != "", g.Attr("step", data.Step)),
		)
		return fallbackField(p, h.Input(attrs...))
	}

	var buf strings.Builder
	executeTemplate(inputTemplates, &buf, "input", data)
	return enhancedField(p, buf.String())
}

// renderHiddenInput emits only the named hidden input in both modes.
func renderHiddenInput(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	value := boundValue(node, ctx, p)
	return renderNodes(h.Input(
		h.Type("hidden"),
		h.ID(p.DOMID),
		h.Name(p.Name),
		h.Value(value),
		nodeAttr(node),
		g.If(p.Disabled, h.Disabled()),
	))
}

func renderTextarea(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	value := boundValue(node, ctx, p)
	rows := int(binding.ClampNumber(ctx.Field(node, "rows"), 1, 40, 1, 4))

	if !p.Enhanced {
		attrs := append(nativeAttrs(p),
			g.Attr("rows", binding.FormatNumber(float64(rows))),
			g.If(p.Placeholder != "", h.Placeholder(p.Placeholder)),
			g.Text(value),
		)
		return fallbackField(p, h.Textarea(attrs...))
	}

	var buf strings.Builder
	executeTemplate(inputTemplates, &buf, "textarea", inputData{fieldProps: p, Value: value, Rows: rows})
	return enhancedField(p, buf.String())
}
