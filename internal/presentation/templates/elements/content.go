package elements

import (
	"encoding/json"
	"html/template"
	"strconv"
	"strings"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/russross/blackfriday/v2"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

var contentTemplates = template.Must(template.New("content").Parse(
	`{{define "heading"}}{{if eq .Level 1}}<h1{{else if eq .Level 2}}<h2{{else if eq .Level 3}}<h3{{else if eq .Level 4}}<h4{{else if eq .Level 5}}<h5{{else}}<h6{{end}}` +
		` id="{{.DOMID}}" class="st-heading font-action font-bold tracking-tight text-mydarkgrey {{.Class}}" data-st-node="{{.NodeID}}">{{.Text}}` +
		`{{if eq .Level 1}}</h1>{{else if eq .Level 2}}</h2>{{else if eq .Level 3}}</h3>{{else if eq .Level 4}}</h4>{{else if eq .Level 5}}</h5>{{else}}</h6>{{end}}{{end}}` +
		`{{define "text"}}<p id="{{.DOMID}}" class="st-text text-base leading-7 text-mydarkgrey {{.Class}}" data-st-node="{{.NodeID}}">{{.Text}}</p>{{end}}` +
		`{{define "richText"}}<div id="{{.DOMID}}" class="st-rich-text prose max-w-none {{.Class}}" data-st-node="{{.NodeID}}">{{.Body}}</div>{{end}}` +
		`{{define "image"}}<figure id="{{.DOMID}}" class="st-image {{.Class}}" data-st-node="{{.NodeID}}">` +
		`<img src="{{.Src}}" alt="{{.Alt}}" class="h-auto w-full rounded-md object-cover" loading="lazy">` +
		`{{if .Caption}}<figcaption class="mt-2 text-sm text-mydarkgrey">{{.Caption}}</figcaption>{{end}}</figure>{{end}}` +
		`{{define "link"}}<a id="{{.DOMID}}" href="{{.Href}}" class="st-link font-bold text-cyan-700 underline hover:text-cyan-600 {{.Class}}" data-st-node="{{.NodeID}}"{{if .External}} target="_blank" rel="noopener noreferrer"{{end}}>{{.Text}}</a>{{end}}` +
		`{{define "divider"}}<hr id="{{.DOMID}}" class="st-divider my-6 border-gray-200 {{.Class}}" data-st-node="{{.NodeID}}">{{end}}` +
		`{{define "badge"}}<span id="{{.DOMID}}" class="st-badge inline-flex items-center rounded-md px-2 py-1 text-xs font-bold {{.Tone}} {{.Class}}" data-st-node="{{.NodeID}}">{{.Text}}</span>{{end}}` +
		`{{define "alert"}}<div id="{{.DOMID}}" class="st-alert rounded-md p-4 text-sm {{.Tone}} {{.Class}}" role="alert" data-st-node="{{.NodeID}}">` +
		`{{if .Title}}<h3 class="font-bold">{{.Title}}</h3>{{end}}<div{{if .Title}} class="mt-2"{{end}}>{{.Text}}</div>{{.Children}}</div>{{end}}` +
		`{{define "list"}}{{if .Ordered}}<ol{{else}}<ul{{end}} id="{{.DOMID}}" class="st-list list-inside space-y-1 text-mydarkgrey {{if .Ordered}}list-decimal{{else}}list-disc{{end}} {{.Class}}" data-st-node="{{.NodeID}}">` +
		`{{range .Items}}<li>{{.}}</li>{{end}}{{.Children}}{{if .Ordered}}</ol>{{else}}</ul>{{end}}{{end}}` +
		`{{define "table"}}<div id="{{.DOMID}}" class="st-table overflow-x-auto {{.Class}}" data-st-node="{{.NodeID}}"><table class="min-w-full divide-y divide-gray-300">` +
		`{{if .Caption}}<caption class="py-2 text-left text-sm font-bold text-gray-900">{{.Caption}}</caption>{{end}}` +
		`<thead><tr>{{range .Columns}}<th scope="col" class="px-3 py-3.5 text-left text-sm font-bold text-gray-900">{{.Label}}</th>{{end}}</tr></thead>` +
		`<tbody class="divide-y divide-gray-200">{{range .Rows}}<tr>{{range .}}<td class="whitespace-nowrap px-3 py-4 text-sm text-mydarkgrey">{{.}}</td>{{end}}</tr>{{end}}</tbody></table></div>{{end}}`,
))

type contentData struct {
	DOMID    string
	Class    string
	NodeID   int
	Level    int
	Text     string
	Title    string
	Tone     string
	Body     template.HTML
	Children template.HTML
}

type imageData struct {
	DOMID   string
	Class   string
	NodeID  int
	Src     template.URL
	Alt     string
	Caption string
}

type linkData struct {
	DOMID    string
	Class    string
	NodeID   int
	Href     string
	Text     string
	External bool
}

type listData struct {
	DOMID    string
	Class    string
	NodeID   int
	Ordered  bool
	Items    []string
	Children template.HTML
}

type tableColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type tableData struct {
	DOMID   string
	Class   string
	NodeID  int
	Caption string
	Columns []tableColumn
	Rows    [][]string
}

func newContentData(node *rendering.StyleNode, ctx *rendering.RenderContext) contentData {
	return contentData{
		DOMID:  rendering.DOMID(node),
		Class:  ctx.Field(node, "class"),
		NodeID: node.ID,
		Text:   ctx.Field(node, "content"),
	}
}

func nodeAttr(node *rendering.StyleNode) g.Node {
	return g.Attr("data-st-node", strconv.Itoa(node.ID))
}

func renderHeading(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	data := newContentData(node, ctx)
	data.Level = int(binding.ClampNumber(ctx.Field(node, "level"), 1, 6, 1, 2))

	if !ctx.Enhanced(node) {
		return renderNodes(g.El("h"+strconv.Itoa(data.Level), h.ID(data.DOMID), nodeAttr(node), g.Text(data.Text)))
	}
	var buf strings.Builder
	executeTemplate(contentTemplates, &buf, "heading", data)
	return buf.String()
}

func renderText(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	data := newContentData(node, ctx)
	if !ctx.Enhanced(node) {
		return renderNodes(h.P(h.ID(data.DOMID), nodeAttr(node), g.Text(data.Text)))
	}
	var buf strings.Builder
	executeTemplate(contentTemplates, &buf, "text", data)
	return buf.String()
}

// markdownHTML renders markdown with raw HTML stripped.
func markdownHTML(src string) string {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML | blackfriday.Safelink,
	})
	return string(blackfriday.Run([]byte(src), blackfriday.WithRenderer(renderer)))
}

func renderRichText(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	data := newContentData(node, ctx)
	body := markdownHTML(data.Text)

	if !ctx.Enhanced(node) {
		return renderNodes(h.Div(h.ID(data.DOMID), nodeAttr(node), g.Raw(body)))
	}
	data.Body = template.HTML(body)
	var buf strings.Builder
	executeTemplate(contentTemplates, &buf, "richText", data)
	return buf.String()
}

// safeAssetURL admits resolved asset URLs html/template would otherwise
// filter, such as data:image payloads. Anything else is dropped.
func safeAssetURL(raw string) template.URL {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case lower == "":
		return ""
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "data:image/"), strings.HasPrefix(lower, "/"):
		return template.URL(raw)
	case !strings.Contains(lower, ":"):
		return template.URL(raw)
	}
	return ""
}

func renderImage(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	src := safeAssetURL(ctx.ResolveAsset(ctx.Field(node, "src")))
	data := imageData{
		DOMID:   rendering.DOMID(node),
		Class:   ctx.Field(node, "class"),
		NodeID:  node.ID,
		Src:     src,
		Alt:     ctx.Field(node, "alt"),
		Caption: ctx.Field(node, "caption"),
	}

	if !ctx.Enhanced(node) {
		return renderNodes(g.El("figure",
			h.ID(data.DOMID),
			nodeAttr(node),
			h.Img(h.Src(string(src)), h.Alt(data.Alt)),
			g.If(data.Caption != "", g.El("figcaption", g.Text(data.Caption))),
		))
	}
	var buf strings.Builder
	executeTemplate(contentTemplates, &buf, "image", data)
	return buf.String()
}

func renderLink(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	href := ctx.Field(node, "href")
	text := ctx.FieldOr(node, "content", href)
	external := strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")

	if !ctx.Enhanced(node) {
		return renderNodes(h.A(h.ID(rendering.DOMID(node)), h.Href(href), nodeAttr(node), g.Text(text)))
	}
	var buf strings.Builder
	executeTemplate(contentTemplates, &buf, "link", linkData{
		DOMID:    rendering.DOMID(node),
		Class:    ctx.Field(node, "class"),
		NodeID:   node.ID,
		Href:     href,
		Text:     text,
		External: external,
	})
	return buf.String()
}

func renderDivider(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	if !ctx.Enhanced(node) {
		return renderNodes(h.Hr(h.ID(rendering.DOMID(node)), nodeAttr(node)))
	}
	var buf strings.Builder
	executeTemplate(contentTemplates, &buf, "divider", newContentData(node, ctx))
	return buf.String()
}

var toneClasses = map[string]string{
	"info":    "bg-cyan-50 text-cyan-800",
	"success": "bg-green-50 text-green-800",
	"warning": "bg-yellow-50 text-yellow-800",
	"error":   "bg-red-50 text-red-800",
}

func toneOf(node *rendering.StyleNode, ctx *rendering.RenderContext) string {
	if tone, ok := toneClasses[ctx.Field(node, "variant")]; ok {
		return tone
	}
	return toneClasses["info"]
}

func renderBadge(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	data := newContentData(node, ctx)
	if !ctx.Enhanced(node) {
		return renderNodes(h.Span(h.ID(data.DOMID), nodeAttr(node), g.Text(data.Text)))
	}
	data.Tone = toneOf(node, ctx)
	var buf strings.Builder
	executeTemplate(contentTemplates, &buf, "badge", data)
	return buf.String()
}

func renderAlert(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	data := newContentData(node, ctx)
	data.Title = ctx.Field(node, "title")
	children := nr.RenderChildren(node)

	if !ctx.Enhanced(node) {
		return renderNodes(h.Div(
			h.ID(data.DOMID),
			nodeAttr(node),
			g.Attr("role", "alert"),
			g.If(data.Title != "", h.Strong(g.Text(data.Title))),
			g.If(data.Text != "", h.P(g.Text(data.Text))),
			g.Raw(children),
		))
	}
	data.Tone = toneOf(node, ctx)
	data.Children = template.HTML(children)
	var buf strings.Builder
	executeTemplate(contentTemplates, &buf, "alert", data)
	return buf.String()
}

// listItems reads items from the bound records when present, else from the
// JSON "items" field.
func listItems(node *rendering.StyleNode, ctx *rendering.RenderContext) []string {
	if len(node.SectionData) > 0 {
		field := ctx.FieldOr(node, "item_field", "title")
		items := make([]string, 0, len(node.SectionData))
		for _, record := range node.SectionData {
			if v, ok := binding.Stringify(record[field], binding.DefaultDelimiter); ok {
				items = append(items, v)
			}
		}
		return items
	}

	raw := strings.TrimSpace(ctx.Field(node, "items"))
	if raw == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		ctx.Log().Warn("Malformed list items", "nodeId", node.ID, "error", err.Error())
		return nil
	}
	return items
}

func renderList(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	items := listItems(node, ctx)
	ordered := ctx.Flag(node, "ordered")
	children := nr.RenderChildren(node)

	if !ctx.Enhanced(node) {
		tag := "ul"
		if ordered {
			tag = "ol"
		}
		return renderNodes(g.El(tag,
			h.ID(rendering.DOMID(node)),
			nodeAttr(node),
			g.Map(items, func(item string) g.Node { return h.Li(g.Text(item)) }),
			g.Raw(children),
		))
	}
	var buf strings.Builder
	executeTemplate(contentTemplates, &buf, "list", listData{
		DOMID:    rendering.DOMID(node),
		Class:    ctx.Field(node, "class"),
		NodeID:   node.ID,
		Ordered:  ordered,
		Items:    items,
		Children: template.HTML(children),
	})
	return buf.String()
}

// tableContent reads "columns" as JSON and takes rows from the bound records.
func tableContent(node *rendering.StyleNode, ctx *rendering.RenderContext) ([]tableColumn, [][]string) {
	var columns []tableColumn
	if raw := strings.TrimSpace(ctx.Field(node, "columns")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &columns); err != nil {
			ctx.Log().Warn("Malformed table columns", "nodeId", node.ID, "error", err.Error())
			columns = nil
		}
	}
	for i := range columns {
		if columns[i].Label == "" {
			columns[i].Label = columns[i].Key
		}
	}

	rows := make([][]string, 0, len(node.SectionData))
	for _, record := range node.SectionData {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i], _ = binding.Stringify(record[col.Key], ", ")
		}
		rows = append(rows, row)
	}
	return columns, rows
}

func renderTable(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	columns, rows := tableContent(node, ctx)
	caption := ctx.Field(node, "caption")

	if !ctx.Enhanced(node) {
		return renderNodes(g.El("table",
			h.ID(rendering.DOMID(node)),
			nodeAttr(node),
			g.If(caption != "", g.El("caption", g.Text(caption))),
			g.El("thead", g.El("tr", g.Map(columns, func(c tableColumn) g.Node {
				return g.El("th", g.Text(c.Label))
			}))),
			g.El("tbody", g.Map(rows, func(row []string) g.Node {
				return g.El("tr", g.Map(row, func(cell string) g.Node { return g.El("td", g.Text(cell)) }))
			})),
		))
	}
	var buf strings.Builder
	executeTemplate(contentTemplates, &buf, "table", tableData{
		DOMID:   rendering.DOMID(node),
		Class:   ctx.Field(node, "class"),
		NodeID:  node.ID,
		Caption: caption,
		Columns: columns,
		Rows:    rows,
	})
	return buf.String()
}
