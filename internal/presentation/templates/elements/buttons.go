package elements

import (
	"html/template"
	"strings"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// buttonTmpl renders the opening tag; children and the label follow it.
var buttonTmpl = template.Must(template.New("button").Parse(
	`<button type="{{.Type}}" id="{{.DOMID}}" class="st-button inline-flex items-center rounded-md px-3.5 py-2.5 text-sm font-bold shadow-sm {{.Tone}} {{.Class}}" data-st-node="{{.NodeID}}"{{if .Disabled}} disabled{{end}}>{{.Label}}{{.Children}}</button>`,
))

type buttonData struct {
	Type     string
	DOMID    string
	Class    string
	Tone     string
	NodeID   int
	Label    string
	Disabled bool
	Children template.HTML
}

const (
	primaryTone   = "bg-cyan-600 text-white hover:bg-cyan-700 disabled:opacity-50"
	secondaryTone = "bg-white text-mydarkgrey ring-1 ring-inset ring-gray-300 hover:bg-gray-50"
)

func renderButtonAs(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer, buttonType, defaultLabel, tone string) string {
	label := ctx.FieldOr(node, "content", ctx.FieldOr(node, "label", defaultLabel))
	disabled := ctx.Flag(node, "disabled")
	children := nr.RenderChildren(node)

	if !ctx.Enhanced(node) {
		return renderNodes(h.Button(
			h.Type(buttonType),
			h.ID(rendering.DOMID(node)),
			nodeAttr(node),
			g.If(disabled, h.Disabled()),
			g.Text(label),
			g.Raw(children),
		))
	}

	if variant := ctx.Field(node, "variant"); variant == "secondary" {
		tone = secondaryTone
	}
	var buf strings.Builder
	executeTemplate(buttonTmpl, &buf, "button", buttonData{
		Type:     buttonType,
		DOMID:    rendering.DOMID(node),
		Class:    ctx.Field(node, "class"),
		Tone:     tone,
		NodeID:   node.ID,
		Label:    label,
		Disabled: disabled,
		Children: template.HTML(children),
	})
	return buf.String()
}

func renderButton(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	return renderButtonAs(node, ctx, nr, "button", "", primaryTone)
}

func renderSubmitButton(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	return renderButtonAs(node, ctx, nr, "submit", "Submit", primaryTone)
}

func renderResetButton(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	return renderButtonAs(node, ctx, nr, "reset", "Reset", secondaryTone)
}
