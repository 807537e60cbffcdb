package elements

import (
	"encoding/json"
	"html/template"
	"strconv"
	"strings"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

var pickerTemplates = template.Must(template.New("pickers").Parse(
	`{{define "datePicker"}}<div class="relative flex rounded-md shadow-sm" data-st-picker="{{.Kind}}">` +
		`<input type="text" id="{{.ControlID}}" data-st-bind="{{.DOMID}}" data-st-format="{{.Format}}" value="{{.Value}}" inputmode="numeric"` +
		` class="block w-full rounded-l-md border-0 py-1.5 pl-3 text-mydarkgrey ring-1 ring-inset ring-gray-300 focus:ring-2 focus:ring-inset focus:ring-cyan-600 sm:text-sm sm:leading-6"` +
		`{{if .Placeholder}} placeholder="{{.Placeholder}}"{{else}} placeholder="{{.Format}}"{{end}}{{if .Min}} data-st-min="{{.Min}}"{{end}}{{if .Max}} data-st-max="{{.Max}}"{{end}}` +
		`{{if .Required}} required{{end}}{{if .Disabled}} disabled{{end}}>` +
		`<button type="button" class="relative -ml-px inline-flex items-center rounded-r-md px-3 py-2 text-sm text-mydarkgrey ring-1 ring-inset ring-gray-300 hover:bg-gray-50" aria-label="Open picker" data-st-open="{{.DOMID}}"{{if .Disabled}} disabled{{end}}>&#128197;</button></div>{{end}}` +
		`{{define "colorPicker"}}<div class="flex items-center gap-x-3" data-st-picker="color">` +
		`<span class="h-8 w-8 rounded-md ring-1 ring-inset ring-gray-300" style="background-color: {{.Value}}" data-st-swatch="{{.DOMID}}"></span>` +
		`<input type="text" id="{{.ControlID}}" data-st-bind="{{.DOMID}}" value="{{.Value}}" maxlength="7" pattern="#[0-9a-fA-F]{6}"` +
		` class="block w-32 rounded-md border-0 py-1.5 pl-3 font-mono text-mydarkgrey ring-1 ring-inset ring-gray-300 focus:ring-2 focus:ring-inset focus:ring-cyan-600 sm:text-sm"` +
		`{{if .Required}} required{{end}}{{if .Disabled}} disabled{{end}}>` +
		`{{if .Swatches}}<div class="flex gap-x-1">{{range .Swatches}}<button type="button" class="h-6 w-6 rounded-full ring-1 ring-gray-300" style="background-color: {{.}}" data-st-pick="{{.}}" aria-label="{{.}}"{{if $.Disabled}} disabled{{end}}></button>{{end}}</div>{{end}}</div>{{end}}` +
		`{{define "rating"}}<div class="flex items-center gap-x-1" role="radiogroup" data-st-rating="{{.DOMID}}">` +
		`{{range .Stars}}<button type="button" data-st-bind="{{$.DOMID}}" data-value="{{.Value}}" aria-label="{{.Value}} of {{$.Max}}" aria-checked="{{.Filled}}" role="radio"` +
		` class="text-2xl {{if .Filled}}text-yellow-400{{else}}text-gray-300{{end}} hover:text-yellow-500"{{if $.Disabled}} disabled{{end}}>&#9733;</button>{{end}}</div>{{end}}` +
		`{{define "slider"}}<div class="flex items-center gap-x-4" data-st-slider="{{.DOMID}}">` +
		`{{range $i, $v := .Values}}<input type="range" id="{{$.ControlID}}{{if $i}}-{{$i}}{{end}}" data-st-bind="{{$.DOMID}}" data-st-index="{{$i}}" value="{{$v}}" min="{{$.Min}}" max="{{$.Max}}" step="{{$.Step}}"` +
		`{{if $.MarksID}} list="{{$.MarksID}}"{{end}} class="h-2 w-full cursor-pointer appearance-none rounded-lg bg-gray-200 accent-cyan-600"{{if $.Disabled}} disabled{{end}}>{{end}}` +
		`<output class="min-w-[3rem] text-right text-sm font-bold text-mydarkgrey" data-st-output="{{.DOMID}}">{{.Display}}</output></div>` +
		`{{if .Marks}}<datalist id="{{.MarksID}}">{{range .Marks}}<option value="{{.Value}}" label="{{.Label}}"></option>{{end}}</datalist>{{end}}{{end}}`,
))

type mark struct {
	Value string
	Label string
}

type star struct {
	Value  int
	Filled bool
}

type pickerData struct {
	fieldProps
	Kind     string
	Format   string
	Value    string
	Min      string
	Max      string
	Step     string
	Display  string
	MarksID  string
	Marks    []mark
	Values   []string
	Stars    []star
	Swatches []string
}

type dateKind struct {
	inputType string
	format    string
	canonical func(string) string
}

var dateKinds = map[string]dateKind{
	"date-picker":     {"date", binding.DateLayout, binding.CanonicalDate},
	"time-picker":     {"time", binding.TimeLayout, binding.CanonicalTime},
	"datetime-picker": {"datetime-local", binding.DateTimeLayout, binding.CanonicalDateTime},
}

var displayFormats = map[string]string{
	binding.DateLayout:     "YYYY-MM-DD",
	binding.TimeLayout:     "HH:MM",
	binding.DateTimeLayout: "YYYY-MM-DDTHH:MM",
}

// parseMarks reads the JSON "marks" field: numbers or {value,label} objects.
func parseMarks(node *rendering.StyleNode, ctx *rendering.RenderContext) []mark {
	raw := strings.TrimSpace(ctx.Field(node, "marks"))
	if raw == "" {
		return nil
	}
	var decoded []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		ctx.Log().Warn("Malformed marks", "nodeId", node.ID, "error", err.Error())
		return nil
	}
	marks := make([]mark, 0, len(decoded))
	for _, item := range decoded {
		var number float64
		if err := json.Unmarshal(item, &number); err == nil {
			v := binding.FormatNumber(number)
			marks = append(marks, mark{Value: v, Label: v})
			continue
		}
		var obj struct {
			Value any    `json:"value"`
			Label string `json:"label"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		v, ok := binding.Stringify(obj.Value, binding.DefaultDelimiter)
		if !ok {
			continue
		}
		marks = append(marks, mark{Value: v, Label: obj.Label})
	}
	return marks
}

// renderDatePicker serves date, time and datetime pickers. The value is
// always the canonical layout; anything unparseable becomes empty.
func renderDatePicker(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	kind := dateKinds[node.Type()]
	if kind.canonical == nil {
		kind = dateKinds["date-picker"]
	}
	value := kind.canonical(boundValue(node, ctx, p))
	min := kind.canonical(ctx.Field(node, "min"))
	max := kind.canonical(ctx.Field(node, "max"))

	if !p.Enhanced {
		attrs := append(nativeAttrs(p),
			h.Type(kind.inputType),
			h.Value(value),
			g.If(min != "", g.Attr("min", min)),
			g.If(max != "", g.Attr("max", max)),
		)
		return fallbackField(p, h.Input(attrs...))
	}

	var buf strings.Builder
	executeTemplate(pickerTemplates, &buf, "datePicker", pickerData{
		fieldProps: p,
		Kind:       kind.inputType,
		Format:     displayFormats[kind.format],
		Value:      value,
		Min:        min,
		Max:        max,
	})
	buf.WriteString(renderNodes(carrier(p, value)))
	return enhancedField(p, buf.String())
}

// colorSwatches reads an optional JSON list of preset colours.
func colorSwatches(node *rendering.StyleNode, ctx *rendering.RenderContext) []string {
	raw := strings.TrimSpace(ctx.Field(node, "swatches"))
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		ctx.Log().Warn("Malformed swatches", "nodeId", node.ID, "error", err.Error())
		return nil
	}
	swatches := make([]string, 0, len(list))
	for _, c := range list {
		if c = binding.CanonicalColor(c, ""); c != "" {
			swatches = append(swatches, c)
		}
	}
	return swatches
}

// renderColorPicker always yields #rrggbb; a native colour input cannot be
// empty, so an unset value falls back to the configured default.
func renderColorPicker(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	fallback := binding.CanonicalColor(ctx.Field(node, "default_color"), "#000000")
	value := binding.CanonicalColor(boundValue(node, ctx, p), fallback)

	if !p.Enhanced {
		attrs := append(nativeAttrs(p), h.Type("color"), h.Value(value))
		return fallbackField(p, h.Input(attrs...))
	}

	var buf strings.Builder
	executeTemplate(pickerTemplates, &buf, "colorPicker", pickerData{
		fieldProps: p,
		Value:      value,
		Swatches:   colorSwatches(node, ctx),
	})
	buf.WriteString(renderNodes(carrier(p, value)))
	return enhancedField(p, buf.String())
}

// renderRating is an integer in [0, max]; empty stays empty.
func renderRating(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	maxStars := int(binding.ClampNumber(ctx.Field(node, "max"), 1, 10, 1, 5))
	raw := strings.TrimSpace(boundValue(node, ctx, p))
	value := ""
	if raw != "" {
		value = binding.FormatNumber(binding.ClampNumber(raw, 0, float64(maxStars), 1, 0))
	}

	if !p.Enhanced {
		attrs := append(nativeAttrs(p),
			h.Type("number"),
			h.Value(value),
			g.Attr("min", "0"),
			g.Attr("max", strconv.Itoa(maxStars)),
			g.Attr("step", "1"),
		)
		return fallbackField(p, h.Input(attrs...))
	}

	current := int(parseFloatOr(value, 0))
	stars := make([]star, 0, maxStars)
	for i := 1; i <= maxStars; i++ {
		stars = append(stars, star{Value: i, Filled: i <= current})
	}
	var buf strings.Builder
	executeTemplate(pickerTemplates, &buf, "rating", pickerData{
		fieldProps: p,
		Max:        strconv.Itoa(maxStars),
		Stars:      stars,
	})
	buf.WriteString(renderNodes(carrier(p, value)))
	return enhancedField(p, buf.String())
}

type sliderBounds struct {
	min, max, step float64
}

func sliderBoundsOf(node *rendering.StyleNode, ctx *rendering.RenderContext) sliderBounds {
	b := sliderBounds{
		min:  parseFloatOr(ctx.Field(node, "min"), 0),
		max:  parseFloatOr(ctx.Field(node, "max"), 100),
		step: parseFloatOr(ctx.Field(node, "step"), 1),
	}
	if b.max < b.min {
		b.min, b.max = b.max, b.min
	}
	if b.step <= 0 {
		b.step = 1
	}
	return b
}

func (b sliderBounds) clamp(raw string, fallback float64) string {
	return binding.FormatNumber(binding.ClampNumber(raw, b.min, b.max, b.step, fallback))
}

func (b sliderBounds) data(p fieldProps, node *rendering.StyleNode, ctx *rendering.RenderContext) pickerData {
	data := pickerData{
		fieldProps: p,
		Min:        binding.FormatNumber(b.min),
		Max:        binding.FormatNumber(b.max),
		Step:       binding.FormatNumber(b.step),
		Marks:      parseMarks(node, ctx),
	}
	if len(data.Marks) > 0 {
		data.MarksID = p.DOMID + "-marks"
	}
	return data
}

// renderSlider is a native range input in fallback mode. Its value is always
// a number within bounds since a range input cannot submit empty.
func renderSlider(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	bounds := sliderBoundsOf(node, ctx)
	value := bounds.clamp(boundValue(node, ctx, p), bounds.min)
	data := bounds.data(p, node, ctx)

	if !p.Enhanced {
		attrs := append(nativeAttrs(p),
			h.Type("range"),
			h.Value(value),
			g.Attr("min", data.Min),
			g.Attr("max", data.Max),
			g.Attr("step", data.Step),
			g.If(data.MarksID != "", g.Attr("list", data.MarksID)),
		)
		return fallbackField(p, h.Input(attrs...), marksDatalist(data))
	}

	data.Values = []string{value}
	data.Display = value
	var buf strings.Builder
	executeTemplate(pickerTemplates, &buf, "slider", data)
	buf.WriteString(renderNodes(carrier(p, value)))
	return enhancedField(p, buf.String())
}

// renderRangeSlider binds a low/high pair joined by the field delimiter.
func renderRangeSlider(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string {
	p := newFieldProps(node, ctx)
	p.Delimiter = numericDelimiter(p.Delimiter)
	bounds := sliderBoundsOf(node, ctx)
	parts := binding.SplitValues(boundValue(node, ctx, p), p.Delimiter)

	lowRaw, highRaw := "", ""
	if len(parts) > 0 {
		lowRaw = parts[0]
	}
	if len(parts) > 1 {
		highRaw = parts[1]
	}
	low := bounds.clamp(lowRaw, bounds.min)
	high := bounds.clamp(highRaw, bounds.max)
	if parseFloatOr(low, 0) > parseFloatOr(high, 0) {
		low, high = high, low
	}
	joined := binding.JoinValues([]string{low, high}, p.Delimiter)
	data := bounds.data(p, node, ctx)

	if !p.Enhanced {
		var controls []g.Node
		for i, v := range []string{low, high} {
			id := p.ControlID
			if i > 0 {
				id += "-high"
			}
			controls = append(controls, h.Input(
				h.ID(id),
				h.Type("number"),
				g.Attr("data-st-bind", p.DOMID),
				g.Attr("data-st-index", strconv.Itoa(i)),
				h.Value(v),
				g.Attr("min", data.Min),
				g.Attr("max", data.Max),
				g.Attr("step", data.Step),
				g.If(p.Required, h.Required()),
				g.If(p.Disabled, h.Disabled()),
			))
		}
		controls = append(controls, carrier(p, joined))
		return fallbackField(p, controls...)
	}

	data.Values = []string{low, high}
	data.Display = low + "–" + high
	var buf strings.Builder
	executeTemplate(pickerTemplates, &buf, "slider", data)
	buf.WriteString(renderNodes(carrier(p, joined)))
	return enhancedField(p, buf.String())
}

// numericDelimiter keeps the range delimiter from colliding with the
// characters of a number such as a sign or decimal point.
func numericDelimiter(delimiter string) string {
	if delimiter == "" || strings.ContainsAny(delimiter, "+-.0123456789eE") {
		return binding.DefaultDelimiter
	}
	return delimiter
}

func marksDatalist(data pickerData) g.Node {
	if data.MarksID == "" {
		return nil
	}
	return g.El("datalist",
		h.ID(data.MarksID),
		g.Map(data.Marks, func(m mark) g.Node {
			return h.Option(h.Value(m.Value), g.If(m.Label != "", g.Attr("label", m.Label)))
		}),
	)
}
