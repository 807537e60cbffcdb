package elements

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

var containerTemplates = template.Must(template.New("containers").Parse(
	`{{define "open"}}{{if eq .Tag "main"}}<main{{else if eq .Tag "section"}}<section{{else}}<div{{end}} id="{{.DOMID}}" class="{{.Class}}" data-st-node="{{.NodeID}}">{{end}}` +
		`{{define "formOpen"}}<form id="{{.DOMID}}" class="st-form space-y-6 {{.Class}}" method="post" action="{{.Action}}" enctype="multipart/form-data" data-st-node="{{.NodeID}}" data-st-form="{{.FormID}}">` +
		`<input type="hidden" name="_st_form" value="{{.FormID}}">` +
		`<input type="hidden" name="_st_token" value="{{.Token}}">` +
		`{{if .Message}}<div class="rounded-md bg-red-50 p-4 text-sm text-red-700" role="alert">{{.Message}}</div>{{end}}{{end}}` +
		`{{define "boxTitle"}}<h2 class="mb-4 text-xl font-bold text-gray-900">{{.}}</h2>{{end}}` +
		`{{define "cardOpen"}}<div id="{{.DOMID}}" class="overflow-hidden rounded-lg bg-white shadow {{.Class}}" data-st-node="{{.NodeID}}">` +
		`{{if .Title}}<div class="border-b border-gray-200 px-4 py-5 sm:px-6"><h3 class="text-base font-bold leading-6 text-gray-900">{{.Title}}</h3></div>{{end}}` +
		`<div class="px-4 py-5 sm:p-6">{{end}}` +
		`{{define "tabList"}}<div class="border-b border-gray-200"><nav class="-mb-px flex space-x-8" role="tablist">` +
		`{{range .Tabs}}<button type="button" role="tab" id="{{.ID}}-tab" aria-controls="{{.ID}}" aria-selected="{{.Active}}" data-st-tab="{{.Index}}" data-st-tabs="{{$.DOMID}}" ` +
		`class="{{if .Active}}border-cyan-600 text-cyan-700{{else}}border-transparent text-mydarkgrey hover:border-gray-300{{end}} whitespace-nowrap border-b-2 px-1 py-4 text-sm font-bold">{{.Label}}</button>{{end}}` +
		`</nav></div>{{end}}` +
		`{{define "tabPanel"}}<div id="{{.ID}}" role="tabpanel" aria-labelledby="{{.ID}}-tab" class="pt-4"{{if not .Active}} hidden{{end}}>{{end}}` +
		`{{define "details"}}<details id="{{.DOMID}}" class="group border-b border-gray-200 py-3 {{.Class}}" data-st-node="{{.NodeID}}"{{if .Open}} open{{end}}>` +
		`<summary class="flex cursor-pointer items-center justify-between text-sm font-bold text-gray-900">{{.Title}}</summary><div class="pt-3">{{end}}`,
))

type containerData struct {
	Tag    string
	DOMID  string
	Class  string
	NodeID int
}

type formData struct {
	DOMID   string
	Class   string
	NodeID  int
	Action  string
	FormID  string
	Token   string
	Message string
}

type cardData struct {
	DOMID  string
	Class  string
	NodeID int
	Title  string
}

type tabData struct {
	ID     string
	Index  int
	Label  string
	Active bool
}

type tabListData struct {
	DOMID string
	Tabs  []tabData
}

type detailsData struct {
	DOMID  string
	Class  string
	NodeID int
	Title  string
	Open   bool
}

// renderBox renders a plain container in either mode.
func renderBox(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer, tag, enhancedClasses string) string {
	return renderTitledBox(node, ctx, nr, tag, enhancedClasses, "")
}

// renderTitledBox renders a container whose children are preceded by an optional title.
func renderTitledBox(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer, tag, enhancedClasses, title string) string {
	children := nr.RenderChildren(node)
	extra := ctx.Field(node, "class")

	if !ctx.Enhanced(node) {
		return renderNodes(g.El(tag,
			h.ID(rendering.DOMID(node)),
			g.If(extra != "", h.Class(extra)),
			g.Attr("data-st-node", strconv.Itoa(node.ID)),
			g.If(title != "", h.H2(g.Text(title))),
			g.Raw(children),
		))
	}

	var buf strings.Builder
	executeTemplate(containerTemplates, &buf, "open", containerData{
		Tag:    tag,
		DOMID:  rendering.DOMID(node),
		Class:  strings.TrimSpace(enhancedClasses + " " + extra),
		NodeID: node.ID,
	})
	if title != "" {
		executeTemplate(containerTemplates, &buf, "boxTitle", title)
	}
	buf.WriteString(children)
	buf.WriteString("</" + tag + ">")
	return buf.String()
}

func renderPage(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	return renderBox(node, ctx, nr, "main", "st-page mx-auto max-w-5xl px-4 py-8")
}

func renderSection(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	return renderTitledBox(node, ctx, nr, "section", "st-section py-6", ctx.Field(node, "title"))
}

func renderRow(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	return renderBox(node, ctx, nr, "div", "st-row flex flex-col gap-4 md:flex-row")
}

func renderColumn(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	width := ctx.FieldOr(node, "width", "1")
	return renderBox(node, ctx, nr, "div", "st-column min-w-0 flex-"+width)
}

func renderForm(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	action := ctx.FormAction
	if action == "" {
		action = "/api/v1/forms/" + ctx.FormID + "/submit"
	}
	children := nr.RenderChildren(node)

	if !ctx.Enhanced(node) {
		return renderNodes(g.El("form",
			h.ID(rendering.DOMID(node)),
			g.Attr("method", "post"),
			g.Attr("action", action),
			g.Attr("enctype", "multipart/form-data"),
			g.Attr("data-st-node", strconv.Itoa(node.ID)),
			g.Attr("data-st-form", ctx.FormID),
			h.Input(h.Type("hidden"), h.Name("_st_form"), h.Value(ctx.FormID)),
			h.Input(h.Type("hidden"), h.Name("_st_token"), h.Value(ctx.FormToken)),
			g.If(ctx.FormMessage != "", h.P(g.Attr("role", "alert"), g.Text(ctx.FormMessage))),
			g.Raw(children),
		))
	}

	var buf strings.Builder
	executeTemplate(containerTemplates, &buf, "formOpen", formData{
		DOMID:   rendering.DOMID(node),
		Class:   ctx.Field(node, "class"),
		NodeID:  node.ID,
		Action:  action,
		FormID:  ctx.FormID,
		Token:   ctx.FormToken,
		Message: ctx.FormMessage,
	})
	buf.WriteString(children)
	buf.WriteString("</form>")
	return buf.String()
}

func renderCard(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	title := ctx.Field(node, "title")
	children := nr.RenderChildren(node)

	if !ctx.Enhanced(node) {
		return renderNodes(h.Div(
			h.ID(rendering.DOMID(node)),
			g.Attr("data-st-node", strconv.Itoa(node.ID)),
			g.If(title != "", h.H3(g.Text(title))),
			g.Raw(children),
		))
	}

	var buf strings.Builder
	executeTemplate(containerTemplates, &buf, "cardOpen", cardData{
		DOMID:  rendering.DOMID(node),
		Class:  ctx.Field(node, "class"),
		NodeID: node.ID,
		Title:  title,
	})
	buf.WriteString(children)
	buf.WriteString("</div></div>")
	return buf.String()
}

func renderFieldset(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	legend := ctx.Field(node, "legend")
	if legend == "" {
		legend = ctx.Field(node, "label")
	}
	disabled := ctx.Flag(node, "disabled")
	children := nr.RenderChildren(node)

	class := ""
	if ctx.Enhanced(node) {
		class = strings.TrimSpace("st-fieldset space-y-4 rounded-md border border-gray-200 p-4 " + ctx.Field(node, "class"))
	}
	return renderNodes(g.El("fieldset",
		h.ID(rendering.DOMID(node)),
		g.If(class != "", h.Class(class)),
		g.Attr("data-st-node", strconv.Itoa(node.ID)),
		g.If(disabled, h.Disabled()),
		g.If(legend != "", g.El("legend", g.Text(legend))),
		g.Raw(children),
	))
}

// renderTabs renders every tab panel; inactive panels are hidden, not
// omitted, so their fields still submit.
func renderTabs(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	domID := rendering.DOMID(node)

	var panels []*rendering.StyleNode
	for _, child := range node.Children {
		if child != nil {
			panels = append(panels, child)
		}
	}

	active := ctx.ActiveTab(node)
	if active >= len(panels) {
		active = 0
	}

	if !ctx.Enhanced(node) {
		var parts []g.Node
		parts = append(parts, h.ID(domID), g.Attr("data-st-node", strconv.Itoa(node.ID)))
		for _, panel := range panels {
			parts = append(parts, h.Section(
				h.H3(g.Text(tabLabel(panel, ctx))),
				g.Raw(nr.RenderNode(panel)),
			))
		}
		return renderNodes(h.Div(parts...))
	}

	tabs := make([]tabData, 0, len(panels))
	for i, panel := range panels {
		tabs = append(tabs, tabData{
			ID:     domID + "-panel-" + strconv.Itoa(i),
			Index:  i,
			Label:  tabLabel(panel, ctx),
			Active: i == active,
		})
	}

	var buf strings.Builder
	executeTemplate(containerTemplates, &buf, "open", containerData{
		Tag:    "div",
		DOMID:  domID,
		Class:  strings.TrimSpace("st-tabs " + ctx.Field(node, "class")),
		NodeID: node.ID,
	})
	executeTemplate(containerTemplates, &buf, "tabList", tabListData{DOMID: domID, Tabs: tabs})
	for i, panel := range panels {
		executeTemplate(containerTemplates, &buf, "tabPanel", tabs[i])
		buf.WriteString(nr.RenderNode(panel))
		buf.WriteString("</div>")
	}
	buf.WriteString("</div>")
	return buf.String()
}

func tabLabel(panel *rendering.StyleNode, ctx *rendering.RenderContext) string {
	if label := ctx.Field(panel, "label"); label != "" {
		return label
	}
	return "Tab " + strconv.Itoa(panel.ID)
}

func renderTab(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	return renderBox(node, ctx, nr, "div", "st-tab space-y-4")
}

func renderAccordion(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	return renderBox(node, ctx, nr, "div", "st-accordion divide-y divide-gray-200")
}

func renderAccordionItem(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	title := ctx.FieldOr(node, "title", ctx.Field(node, "label"))
	open := ctx.Flag(node, "open")
	children := nr.RenderChildren(node)

	if !ctx.Enhanced(node) {
		return renderNodes(g.El("details",
			h.ID(rendering.DOMID(node)),
			g.Attr("data-st-node", strconv.Itoa(node.ID)),
			g.If(open, g.Attr("open")),
			g.El("summary", g.Text(title)),
			g.Raw(children),
		))
	}

	var buf strings.Builder
	executeTemplate(containerTemplates, &buf, "details", detailsData{
		DOMID:  rendering.DOMID(node),
		Class:  ctx.Field(node, "class"),
		NodeID: node.ID,
		Title:  title,
		Open:   open,
	})
	buf.WriteString(children)
	buf.WriteString("</div></details>")
	return buf.String()
}
