package elements

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

var choiceTemplates = template.Must(template.New("choices").Parse(
	`{{define "select"}}<select id="{{.ControlID}}" {{if .Carried}}data-st-bind="{{.DOMID}}"{{else}}name="{{.Name}}"{{end}}{{if .Multiple}} multiple{{end}}` +
		` class="block w-full rounded-md border-0 py-1.5 pl-3 pr-10 text-mydarkgrey ring-1 ring-inset ring-gray-300 focus:ring-2 focus:ring-cyan-600 sm:text-sm sm:leading-6"` +
		`{{if .Loading}} data-st-options="loading"{{end}}{{if .Required}} required{{end}}{{if .Disabled}} disabled{{end}}>` +
		`{{if not .Multiple}}<option value="">{{.Placeholder}}</option>{{end}}` +
		`{{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}</select>{{end}}` +
		`{{define "radios"}}<div role="radiogroup" class="space-y-2"{{if .Loading}} data-st-options="loading"{{end}}>` +
		`{{range $i, $o := .Options}}<div class="flex items-center gap-x-3">` +
		`<input type="radio" id="{{$.ControlID}}-{{$i}}" name="{{$.Name}}" value="{{$o.Value}}" class="h-4 w-4 border-gray-300 text-cyan-600 focus:ring-cyan-600"` +
		`{{if $o.Selected}} checked{{end}}{{if $.Required}} required{{end}}{{if $.Disabled}} disabled{{end}}>` +
		`<label for="{{$.ControlID}}-{{$i}}" class="block text-sm leading-6 text-mydarkgrey">{{$o.Label}}</label></div>{{end}}` +
		`{{if .Empty}}<input type="radio" name="{{.Name}}" value="" checked hidden{{if .Disabled}} disabled{{end}}>{{end}}</div>{{end}}` +
		`{{define "combobox"}}<div class="relative" data-st-combobox="{{.DOMID}}"{{if .Loading}} data-st-options="loading"{{end}}>` +
		`<input type="text" id="{{.ControlID}}" data-st-bind="{{.DOMID}}" role="combobox" aria-expanded="false" aria-controls="{{.DOMID}}-listbox" autocomplete="off" value="{{.Display}}"` +
		` class="w-full rounded-md border-0 py-1.5 pl-3 pr-12 text-mydarkgrey shadow-sm ring-1 ring-inset ring-gray-300 focus:ring-2 focus:ring-inset focus:ring-cyan-600 sm:text-sm sm:leading-6"` +
		`{{if .Placeholder}} placeholder="{{.Placeholder}}"{{end}}{{if .Required}} required{{end}}{{if .Disabled}} disabled{{end}}>` +
		`<ul id="{{.DOMID}}-listbox" role="listbox" class="absolute z-10 mt-1 max-h-60 w-full overflow-auto rounded-md bg-white py-1 text-sm shadow-lg ring-1 ring-black ring-opacity-5" hidden>` +
		`{{range .Options}}<li role="option" data-value="{{.Value}}" aria-selected="{{.Selected}}" class="relative cursor-default select-none py-2 pl-3 pr-9 text-mydarkgrey hover:bg-cyan-600 hover:text-white">{{.Label}}</li>{{end}}` +
		`</ul></div>{{end}}` +
		`{{define "chips"}}<div class="flex flex-wrap items-center gap-2 rounded-md px-2 py-1.5 ring-1 ring-inset ring-gray-300" data-st-chips="{{.DOMID}}" data-st-delimiter="{{.Delimiter}}">` +
		`{{range .Values}}<span class="inline-flex items-center gap-x-1 rounded-md bg-cyan-50 px-2 py-1 text-xs font-bold text-cyan-800" data-st-chip="{{.}}">{{.}}` +
		`<button type="button" class="h-3.5 w-3.5 rounded-sm hover:bg-cyan-600/20" aria-label="Remove {{.}}" data-st-chip-remove="{{.}}"{{if $.Disabled}} disabled{{end}}>&times;</button></span>{{end}}` +
		`<input type="text" id="{{.ControlID}}" data-st-bind="{{.DOMID}}" class="min-w-[8rem] flex-1 border-0 p-0 text-sm focus:ring-0"` +
		`{{if .Placeholder}} placeholder="{{.Placeholder}}"{{end}}{{if .Disabled}} disabled{{end}}></div>{{end}}`,
))

type choiceOption struct {
	Value    string
	Label    string
	Selected bool
}

type choiceData struct {
	fieldProps
	Options  []choiceOption
	Values   []string
	Display  string
	Multiple bool
	Carried  bool
	Loading  bool
	Empty    bool
}

func markSelected(options []rendering.Option, selected []string) []choiceOption {
	out := make([]choiceOption, 0, len(options))
	for _, o := range options {
		out = append(out, choiceOption{Value: o.Value, Label: o.Label, Selected: contains(selected, o.Value)})
	}
	return out
}

func optionNodes(options []choiceOption) g.Node {
	return g.Map(options, func(o choiceOption) g.Node {
		return h.Option(h.Value(o.Value), g.If(o.Selected, h.Selected()), g.Text(o.Label))
	})
}

func loadingAttr(loading bool) g.Node {
	return g.If(loading, g.Attr("data-st-options", "loading"))
}

// renderSelect is a native named select in both modes.
func renderSelect(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	value := boundValue(node, ctx, p)
	options, loading := choiceOptions(node, ctx)
	marked := markSelected(ensureOptions(options, []string{value}), []string{value})

	if !p.Enhanced {
		attrs := append(nativeAttrs(p),
			loadingAttr(loading),
			h.Option(h.Value(""), g.Text(p.Placeholder)),
			optionNodes(marked),
		)
		return fallbackField(p, h.Select(attrs...))
	}

	var buf strings.Builder
	executeTemplate(choiceTemplates, &buf, "select", choiceData{fieldProps: p, Options: marked, Loading: loading})
	return enhancedField(p, buf.String())
}

// renderMultiSelect submits the joined selection through a carrier in both
// modes so the field never repeats.
func renderMultiSelect(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	selected := binding.SplitValues(boundValue(node, ctx, p), p.Delimiter)
	joined := binding.JoinValues(selected, p.Delimiter)
	options, loading := choiceOptions(node, ctx)
	marked := markSelected(ensureOptions(options, selected), selected)

	if !p.Enhanced {
		attrs := append(boundAttrs(p),
			h.Multiple(),
			g.Attr("data-st-delimiter", p.Delimiter),
			loadingAttr(loading),
			optionNodes(marked),
		)
		return fallbackField(p, h.Select(attrs...), carrier(p, joined))
	}

	var buf strings.Builder
	executeTemplate(choiceTemplates, &buf, "select", choiceData{
		fieldProps: p, Options: marked, Multiple: true, Carried: true, Loading: loading,
	})
	buf.WriteString(renderNodes(carrier(p, joined)))
	return enhancedField(p, buf.String())
}

// renderRadioGroup uses native named radios. An empty value is carried by a
// hidden pre-checked radio so the field is always present.
func renderRadioGroup(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	value := boundValue(node, ctx, p)
	options, loading := choiceOptions(node, ctx)
	marked := markSelected(ensureOptions(options, []string{value}), []string{value})
	empty := value == ""

	if !p.Enhanced {
		var controls []g.Node
		for i, o := range marked {
			id := p.ControlID + "-" + strconv.Itoa(i)
			controls = append(controls, h.Label(
				h.Input(
					h.Type("radio"), h.ID(id), h.Name(p.Name), h.Value(o.Value),
					g.If(o.Selected, h.Checked()),
					g.If(p.Required, h.Required()),
					g.If(p.Disabled, h.Disabled()),
				),
				g.Text(o.Label),
			))
		}
		if empty {
			controls = append(controls, h.Input(
				h.Type("radio"), h.Name(p.Name), h.Value(""), h.Checked(), g.Attr("hidden"),
				g.If(p.Disabled, h.Disabled()),
			))
		}
		return fallbackField(p, g.El("fieldset", loadingAttr(loading), g.Group(controls)))
	}

	var buf strings.Builder
	executeTemplate(choiceTemplates, &buf, "radios", choiceData{fieldProps: p, Options: marked, Loading: loading, Empty: empty})
	return enhancedField(p, buf.String())
}

// renderCombobox serves combobox and group-picker. Enhanced mode is a
// searchable text box backed by a carrier; fallback is a native select.
func renderCombobox(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	value := boundValue(node, ctx, p)
	options, loading := choiceOptions(node, ctx)
	marked := markSelected(ensureOptions(options, []string{value}), []string{value})

	if !p.Enhanced {
		attrs := append(nativeAttrs(p),
			loadingAttr(loading),
			h.Option(h.Value(""), g.Text(p.Placeholder)),
			optionNodes(marked),
		)
		return fallbackField(p, h.Select(attrs...))
	}

	display := ""
	for _, o := range marked {
		if o.Selected {
			display = o.Label
		}
	}
	var buf strings.Builder
	executeTemplate(choiceTemplates, &buf, "combobox", choiceData{
		fieldProps: p, Options: marked, Display: display, Loading: loading,
	})
	buf.WriteString(renderNodes(carrier(p, value)))
	return enhancedField(p, buf.String())
}

// renderChips edits a multi-valued field as removable tags. Fallback is a
// plain text input holding the joined value.
func renderChips(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	values := binding.SplitValues(boundValue(node, ctx, p), p.Delimiter)
	joined := binding.JoinValues(values, p.Delimiter)

	if !p.Enhanced {
		attrs := append(nativeAttrs(p),
			h.Type("text"),
			h.Value(joined),
			g.If(p.Placeholder != "", h.Placeholder(p.Placeholder)),
		)
		return fallbackField(p, h.Input(attrs...))
	}

	var buf strings.Builder
	executeTemplate(choiceTemplates, &buf, "chips", choiceData{fieldProps: p, Values: values})
	buf.WriteString(renderNodes(carrier(p, joined)))
	return enhancedField(p, buf.String())
}
