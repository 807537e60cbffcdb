package elements

import (
	"html/template"
	"net/url"
	"path"
	"strings"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// UploadSuffix is appended to a field name to name its file upload control.
// The field itself carries the stored paths.
const UploadSuffix = "__file"

// ThumbnailPath is the preview endpoint used by image pickers.
const ThumbnailPath = "/api/v1/assets/thumb"

var fileTemplates = template.Must(template.New("files").Parse(
	`{{define "dropzone"}}<div class="flex justify-center rounded-lg border border-dashed border-gray-900/25 px-6 py-6" data-st-dropzone="{{.DOMID}}">` +
		`<div class="text-center">` +
		`{{if .Previews}}<div class="mb-4 flex flex-wrap justify-center gap-2">{{range .Previews}}<img src="{{.}}" alt="" class="h-20 w-20 rounded-md object-cover">{{end}}</div>{{end}}` +
		`{{if .Files}}<ul class="mb-4 space-y-1 text-left text-sm text-mydarkgrey" data-st-files="{{.DOMID}}">{{range .Files}}<li class="flex items-center justify-between gap-x-2" data-st-file="{{.Path}}"><span class="truncate">{{.Name}}</span>` +
		`<button type="button" class="text-xs font-bold text-red-600 hover:text-red-500" data-st-file-remove="{{.Path}}"{{if $.Disabled}} disabled{{end}}>Remove</button></li>{{end}}</ul>{{end}}` +
		`<label for="{{.ControlID}}" class="relative cursor-pointer rounded-md font-bold text-cyan-600 hover:text-cyan-500">` +
		`<span>{{if .Placeholder}}{{.Placeholder}}{{else}}Upload {{if .Multiple}}files{{else}}a file{{end}}{{end}}</span>` +
		`<input type="file" id="{{.ControlID}}" name="{{.Upload}}" class="sr-only"{{if .Accept}} accept="{{.Accept}}"{{end}}{{if .Multiple}} multiple{{end}}{{if .Disabled}} disabled{{end}}></label>` +
		`</div></div>{{end}}`,
))

type storedFile struct {
	Path string
	Name string
}

type fileData struct {
	fieldProps
	Upload   string
	Accept   string
	Multiple bool
	Files    []storedFile
	Previews []template.URL
}

// previewURL points image previews at the thumbnail endpoint unless the
// asset is already an absolute or inline URL.
func previewURL(ctx *rendering.RenderContext, raw string) template.URL {
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "data:image/") || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return safeAssetURL(ctx.ResolveAsset(raw))
	}
	q := url.Values{}
	q.Set("src", raw)
	q.Set("w", "160")
	return template.URL(ThumbnailPath + "?" + q.Encode())
}

// renderFileInput serves file, multi-file and image pickers. The carrier
// holds the stored path(s); new uploads travel under the upload suffix.
func renderFileInput(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	multiple := Describe(node.Type()).MultiValued
	imagePicker := node.Type() == "image-picker"

	raw := boundValue(node, ctx, p)
	var files []string
	if multiple {
		files = binding.SplitValues(raw, p.Delimiter)
	} else if v := strings.TrimSpace(raw); v != "" {
		files = []string{v}
	}
	value := binding.JoinValues(files, p.Delimiter)

	accept := ctx.Field(node, "accept")
	if accept == "" && imagePicker {
		accept = "image/*"
	}

	var previews []template.URL
	if imagePicker {
		for _, f := range files {
			if u := previewURL(ctx, f); u != "" {
				previews = append(previews, u)
			}
		}
	}

	if !p.Enhanced {
		var controls []g.Node
		for _, u := range previews {
			controls = append(controls, h.Img(h.Src(string(u)), h.Alt("")))
		}
		if len(files) > 0 {
			controls = append(controls, h.Ul(g.Map(files, func(f string) g.Node {
				return h.Li(g.Text(path.Base(f)))
			})))
		}
		controls = append(controls,
			h.Input(
				h.Type("file"),
				h.ID(p.ControlID),
				h.Name(p.Name+UploadSuffix),
				g.If(accept != "", g.Attr("accept", accept)),
				g.If(multiple, h.Multiple()),
				g.If(p.Disabled, h.Disabled()),
			),
			carrier(p, value),
		)
		return fallbackField(p, controls...)
	}

	display := make([]storedFile, 0, len(files))
	for _, f := range files {
		display = append(display, storedFile{Path: f, Name: path.Base(f)})
	}
	var buf strings.Builder
	executeTemplate(fileTemplates, &buf, "dropzone", fileData{
		fieldProps: p,
		Upload:     p.Name + UploadSuffix,
		Accept:     accept,
		Multiple:   multiple,
		Files:      display,
		Previews:   previews,
	})
	buf.WriteString(renderNodes(carrier(p, value)))
	return enhancedField(p, buf.String())
}
