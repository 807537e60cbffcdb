// Package templates provides node rendering functionality for style trees
package templates

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/templates/elements"
)

// Registry maps type tags to renderers. It is built explicitly and handed to
// each renderer so concurrent page renders never share mutable state.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]elements.RendererFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{renderers: make(map[string]elements.RendererFunc)}
}

// DefaultRegistry creates a registry holding every built-in renderer.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	elements.RegisterBuiltins(r)
	return r
}

// Register adds or replaces the renderer of typeTag.
func (r *Registry) Register(typeTag string, fn elements.RendererFunc) {
	if typeTag == "" || fn == nil {
		return
	}
	r.mu.Lock()
	r.renderers[typeTag] = fn
	r.mu.Unlock()
}

// Lookup returns the renderer of typeTag.
func (r *Registry) Lookup(typeTag string) (elements.RendererFunc, bool) {
	r.mu.RLock()
	fn, ok := r.renderers[typeTag]
	r.mu.RUnlock()
	return fn, ok
}

// Tags lists the registered type tags, sorted.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.renderers))
	for tag := range r.renderers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// NodeRendererImpl walks a style tree, dispatching each node to its renderer
type NodeRendererImpl struct {
	ctx      *rendering.RenderContext
	registry *Registry
}

// NewNodeRenderer creates a new node renderer with context
func NewNodeRenderer(ctx *rendering.RenderContext, registry *Registry) *NodeRendererImpl {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &NodeRendererImpl{ctx: ctx, registry: registry}
}

// Render starts a new render pass at root.
func (nr *NodeRendererImpl) Render(root *rendering.StyleNode) string {
	nr.ctx.ResetPass()
	return nr.RenderNode(root)
}

// RenderNode renders one node. Unknown tags render nothing and a failing
// renderer only blanks its own node.
func (nr *NodeRendererImpl) RenderNode(node *rendering.StyleNode) (out string) {
	if node == nil {
		return ""
	}

	typeTag := node.Type()
	fn, ok := nr.registry.Lookup(typeTag)
	if !ok {
		if nr.ctx.WarnOnce("type:" + typeTag) {
			nr.ctx.Log().Warn("Unknown node type", "type", typeTag, "nodeId", node.ID, "pageId", nr.ctx.PageID)
		}
		return ""
	}

	nr.ctx.MarkMounted(node.ID)

	defer func() {
		if r := recover(); r != nil {
			nr.ctx.Log().Error("Renderer panicked",
				"type", typeTag, "nodeId", node.ID, "pageId", nr.ctx.PageID, "panic", fmt.Sprint(r))
			out = ""
		}
	}()

	return fn(node, nr.ctx, nr)
}

// RenderChildren renders node's children in order, skipping holes.
func (nr *NodeRendererImpl) RenderChildren(node *rendering.StyleNode) string {
	if node == nil || len(node.Children) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, child := range node.Children {
		if child == nil {
			continue
		}
		sb.WriteString(nr.RenderNode(child))
	}
	return sb.String()
}
