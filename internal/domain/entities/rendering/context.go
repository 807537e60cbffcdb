package rendering

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
)

// Mode selects the visual representation of a node.
type Mode string

const (
	ModeAuto     Mode = ""
	ModeEnhanced Mode = "enhanced"
	ModeFallback Mode = "fallback"
)

// ParseMode maps a request parameter onto a Mode; unknown values are ModeAuto.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeEnhanced, ModeFallback:
		return Mode(s)
	default:
		return ModeAuto
	}
}

// Option is one entry of a select-like option list.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionProvider exposes asynchronously fetched option lists. Options never
// blocks: it reports ready=false while the list is still being fetched.
type OptionProvider interface {
	Options(formID string, nodeID int, kind, query string) (options []Option, ready bool)
}

// AssetResolver turns raw asset paths into absolute URLs.
type AssetResolver interface {
	ResolveAssetURL(rawPath string) string
}

// RenderContext is the capability bundle handed to every renderer for one
// render pass of one form instance.
type RenderContext struct {
	PageID     string
	RecordID   string
	FormID     string
	FormToken  string
	FormAction string
	Dictionary Dictionary
	Mode       Mode

	Binder  *binding.Binder
	Options OptionProvider
	Assets  AssetResolver
	Logger  *slog.Logger

	// Set when a submission is re-rendered after failing.
	FormMessage string
	FieldErrors map[string]string

	mounted map[int]struct{}
	warned  map[string]struct{}
}

// Log returns the render logger.
func (c *RenderContext) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Language is the primary language of this render pass.
func (c *RenderContext) Language() string {
	return c.Dictionary.Primary()
}

// Field resolves a node field in the page's primary language.
func (c *RenderContext) Field(node *StyleNode, name string) string {
	return ResolveField(node, name, c.Language())
}

// FieldOr resolves a field, returning fallback when it is empty.
func (c *RenderContext) FieldOr(node *StyleNode, name, fallback string) string {
	if v := c.Field(node, name); v != "" {
		return v
	}
	return fallback
}

// Flag reports whether a boolean flag field is set to "1".
func (c *RenderContext) Flag(node *StyleNode, name string) bool {
	return HasFieldValue(node, name, c.Language())
}

// FormName is the node's form field name.
func (c *RenderContext) FormName(node *StyleNode) string {
	return FormName(node, c.Language())
}

// Enhanced reports whether node renders in enhanced mode.
func (c *RenderContext) Enhanced(node *StyleNode) bool {
	switch c.Mode {
	case ModeEnhanced:
		return true
	case ModeFallback:
		return false
	}
	return !c.Flag(node, "fallback")
}

// Bind resolves the bound value of node under key, reading the record value
// from recordField. An empty recordField binds to declared only.
func (c *RenderContext) Bind(node *StyleNode, key, recordField, declared, delimiter string) string {
	scope := binding.Scope{
		FormID:   c.FormID,
		NodeID:   node.ID,
		Key:      key,
		RecordID: node.RecordIdentity(),
	}
	if recordField != "" {
		scope.RecordValue, scope.HasRecord = node.RecordValue(recordField, delimiter)
	}
	if c.Binder == nil {
		if scope.HasRecord {
			return scope.RecordValue
		}
		return declared
	}
	return c.Binder.Bind(scope, declared)
}

// BindTranslations resolves the per-language values of a translated field.
func (c *RenderContext) BindTranslations(node *StyleNode, name string) map[string]string {
	recordValues, hasRecord := map[string]string(nil), false
	if raw, ok := node.RecordRaw(name); ok {
		recordValues, hasRecord = binding.DecodeTranslations(raw)
	}

	values := make(map[string]string, len(c.Dictionary.Languages))
	for _, lang := range c.Dictionary.Languages {
		declared, _ := ResolveFieldIn(node, "value", lang)
		scope := binding.Scope{
			FormID:   c.FormID,
			NodeID:   node.ID,
			Key:      binding.TranslationKey("value", lang),
			RecordID: node.RecordIdentity(),
		}
		if hasRecord {
			scope.RecordValue, scope.HasRecord = recordValues[lang]
		}
		if c.Binder == nil {
			if scope.HasRecord {
				values[lang] = scope.RecordValue
			} else {
				values[lang] = declared
			}
			continue
		}
		values[lang] = c.Binder.Bind(scope, declared)
	}
	return values
}

// ActiveTab returns the active tab index of a tabs node.
func (c *RenderContext) ActiveTab(node *StyleNode) int {
	raw := c.Bind(node, "active_tab", "", c.FieldOr(node, "default_tab", "0"), "")
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return 0
	}
	return idx
}

// ResolveAsset resolves a raw asset path, passing it through when no resolver is set.
func (c *RenderContext) ResolveAsset(raw string) string {
	if raw == "" || c.Assets == nil {
		return raw
	}
	return c.Assets.ResolveAssetURL(raw)
}

// OptionsFor returns the remote option list of a node, never blocking.
func (c *RenderContext) OptionsFor(node *StyleNode, kind, query string) ([]Option, bool) {
	if c.Options == nil || kind == "" {
		return nil, true
	}
	return c.Options.Options(c.FormID, node.ID, kind, query)
}

// FieldError is the inline validation message of a form field.
func (c *RenderContext) FieldError(name string) string {
	if c.FieldErrors == nil {
		return ""
	}
	return c.FieldErrors[name]
}

// MarkMounted records that node was rendered in this pass.
func (c *RenderContext) MarkMounted(nodeID int) {
	if c.mounted == nil {
		c.mounted = make(map[int]struct{})
	}
	c.mounted[nodeID] = struct{}{}
}

// Mounted lists the node ids rendered in this pass, sorted.
func (c *RenderContext) Mounted() []int {
	ids := make([]int, 0, len(c.mounted))
	for id := range c.mounted {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ResetPass clears per-pass bookkeeping so the context can render again.
func (c *RenderContext) ResetPass() {
	c.mounted = nil
	c.warned = nil
}

// WarnOnce reports true the first time key is seen in this pass.
func (c *RenderContext) WarnOnce(key string) bool {
	if c.warned == nil {
		c.warned = make(map[string]struct{})
	}
	if _, seen := c.warned[key]; seen {
		return false
	}
	c.warned[key] = struct{}{}
	return true
}
