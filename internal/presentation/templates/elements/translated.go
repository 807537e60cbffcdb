package elements

import (
	"html/template"
	"strings"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

var translatedTemplates = template.Must(template.New("translated").Parse(
	`{{define "overlay"}}<div class="space-y-2" data-st-translations="{{.DOMID}}">` +
		`{{range .Entries}}<div class="flex rounded-md shadow-sm">` +
		`<span class="inline-flex w-12 shrink-0 items-center justify-center rounded-l-md border border-r-0 border-gray-300 bg-gray-50 text-xs font-bold uppercase text-mydarkgrey">{{.Language}}</span>` +
		`{{if $.Multiline}}<textarea id="{{.ID}}" data-st-bind="{{$.DOMID}}" data-st-lang="{{.Language}}" rows="3" lang="{{.Language}}"` +
		` class="block w-full rounded-none rounded-r-md border-0 py-1.5 text-mydarkgrey ring-1 ring-inset ring-gray-300 focus:ring-2 focus:ring-inset focus:ring-cyan-600 sm:text-sm"` +
		`{{if $.Disabled}} disabled{{end}}>{{.Value}}</textarea>` +
		`{{else}}<input type="text" id="{{.ID}}" data-st-bind="{{$.DOMID}}" data-st-lang="{{.Language}}" value="{{.Value}}" lang="{{.Language}}"` +
		` class="block w-full rounded-none rounded-r-md border-0 py-1.5 text-mydarkgrey ring-1 ring-inset ring-gray-300 focus:ring-2 focus:ring-inset focus:ring-cyan-600 sm:text-sm"` +
		`{{if $.Disabled}} disabled{{end}}>{{end}}</div>{{end}}</div>{{end}}`,
))

type translationEntry struct {
	ID       string
	Language string
	Value    string
}

type translatedData struct {
	fieldProps
	Multiline bool
	Entries   []translationEntry
}

// renderTranslated renders one control per dictionary language. The controls
// are unnamed; a single carrier submits the JSON array of
// {language_id, value} pairs in dictionary order.
func renderTranslated(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	values := ctx.BindTranslations(node, p.Name)
	languages := ctx.Dictionary.Languages
	payload := binding.EncodeTranslations(languages, values)
	multiline := node.Type() == "translated-textarea"

	entries := make([]translationEntry, 0, len(languages))
	for i, lang := range languages {
		id := p.ControlID + "-" + lang
		if i == 0 {
			id = p.ControlID
		}
		entries = append(entries, translationEntry{ID: id, Language: lang, Value: values[lang]})
	}

	if !p.Enhanced {
		var controls []g.Node
		for _, e := range entries {
			attrs := []g.Node{
				h.ID(e.ID),
				g.Attr("data-st-bind", p.DOMID),
				g.Attr("data-st-lang", e.Language),
				g.Attr("lang", e.Language),
				g.If(p.Disabled, h.Disabled()),
			}
			var control g.Node
			if multiline {
				control = h.Textarea(append(attrs, g.Text(e.Value))...)
			} else {
				control = h.Input(append(attrs, h.Type("text"), h.Value(e.Value))...)
			}
			controls = append(controls, h.Div(h.Span(g.Text(strings.ToUpper(e.Language))), control))
		}
		controls = append(controls, carrier(p, payload))
		return fallbackField(p, controls...)
	}

	var buf strings.Builder
	executeTemplate(translatedTemplates, &buf, "overlay", translatedData{
		fieldProps: p,
		Multiline:  multiline,
		Entries:    entries,
	})
	buf.WriteString(renderNodes(carrier(p, payload)))
	return enhancedField(p, buf.String())
}
