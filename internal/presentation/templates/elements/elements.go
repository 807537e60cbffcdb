// Package elements provides the per-type renderers of style nodes. Every
// renderer has an enhanced path (html/template toolkit markup) and a fallback
// path (bare native elements) sharing one field and value contract.
package elements

import (
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
)

// NodeRenderer is the dispatcher used by renderers to recurse into children.
type NodeRenderer interface {
	RenderNode(node *rendering.StyleNode) string
	RenderChildren(node *rendering.StyleNode) string
}

// RendererFunc renders one node.
type RendererFunc func(node *rendering.StyleNode, ctx *rendering.RenderContext, nr NodeRenderer) string

// Registrar receives renderer registrations.
type Registrar interface {
	Register(typeTag string, fn RendererFunc)
}

// Descriptor tells the submission layer how a type tag participates in forms.
type Descriptor struct {
	Interactive bool
	Secret      bool
	Translated  bool
	MultiValued bool
	Toggle      bool
	Upload      bool
	// OffValue is the default unchecked value of a toggle.
	OffValue string
}

var builtins = map[string]RendererFunc{
	// containers
	"page":           renderPage,
	"section":        renderSection,
	"form":           renderForm,
	"row":            renderRow,
	"column":         renderColumn,
	"card":           renderCard,
	"fieldset":       renderFieldset,
	"tabs":           renderTabs,
	"tab":            renderTab,
	"accordion":      renderAccordion,
	"accordion-item": renderAccordionItem,

	// content
	"heading":   renderHeading,
	"text":      renderText,
	"rich-text": renderRichText,
	"image":     renderImage,
	"link":      renderLink,
	"divider":   renderDivider,
	"badge":     renderBadge,
	"alert":     renderAlert,
	"list":      renderList,
	"table":     renderTable,

	// buttons
	"button":        renderButton,
	"submit-button": renderSubmitButton,
	"reset-button":  renderResetButton,

	// inputs
	"text-input":     renderTextInput,
	"email-input":    renderTextInput,
	"password-input": renderTextInput,
	"number-input":   renderTextInput,
	"url-input":      renderTextInput,
	"tel-input":      renderTextInput,
	"hidden-input":   renderHiddenInput,
	"textarea":       renderTextarea,

	// choices
	"select":       renderSelect,
	"multi-select": renderMultiSelect,
	"radio-group":  renderRadioGroup,
	"combobox":     renderCombobox,
	"group-picker": renderCombobox,
	"chips":        renderChips,

	// toggles
	"checkbox": renderCheckbox,
	"switch":   renderSwitch,

	// pickers
	"date-picker":     renderDatePicker,
	"time-picker":     renderDatePicker,
	"datetime-picker": renderDatePicker,
	"color-picker":    renderColorPicker,
	"rating":          renderRating,
	"slider":          renderSlider,
	"range-slider":    renderRangeSlider,

	// files
	"file-input":       renderFileInput,
	"multi-file-input": renderFileInput,
	"image-picker":     renderFileInput,

	// translated
	"translated-input":    renderTranslated,
	"translated-textarea": renderTranslated,
}

var descriptors = map[string]Descriptor{
	"text-input":          {Interactive: true},
	"email-input":         {Interactive: true},
	"password-input":      {Interactive: true, Secret: true},
	"number-input":        {Interactive: true},
	"url-input":           {Interactive: true},
	"tel-input":           {Interactive: true},
	"hidden-input":        {Interactive: true},
	"textarea":            {Interactive: true},
	"select":              {Interactive: true},
	"multi-select":        {Interactive: true, MultiValued: true},
	"radio-group":         {Interactive: true},
	"combobox":            {Interactive: true},
	"group-picker":        {Interactive: true},
	"chips":               {Interactive: true, MultiValued: true},
	"checkbox":            {Interactive: true, Toggle: true},
	"switch":              {Interactive: true, Toggle: true, OffValue: "0"},
	"date-picker":         {Interactive: true},
	"time-picker":         {Interactive: true},
	"datetime-picker":     {Interactive: true},
	"color-picker":        {Interactive: true},
	"rating":              {Interactive: true},
	"slider":              {Interactive: true},
	"range-slider":        {Interactive: true, MultiValued: true},
	"file-input":          {Interactive: true, Upload: true},
	"multi-file-input":    {Interactive: true, MultiValued: true, Upload: true},
	"image-picker":        {Interactive: true, Upload: true},
	"translated-input":    {Interactive: true, Translated: true},
	"translated-textarea": {Interactive: true, Translated: true},
}

// RegisterBuiltins registers every built-in renderer with r.
func RegisterBuiltins(r Registrar) {
	for tag, fn := range builtins {
		r.Register(tag, fn)
	}
}

// Describe returns how typeTag participates in form submission.
func Describe(typeTag string) Descriptor {
	return descriptors[typeTag]
}

// BuiltinTags lists the built-in type tags.
func BuiltinTags() []string {
	tags := make([]string, 0, len(builtins))
	for tag := range builtins {
		tags = append(tags, tag)
	}
	return tags
}
