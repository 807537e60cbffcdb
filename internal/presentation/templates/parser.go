package templates

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/templates/elements"
)

// flatNode is one entry of a flat node list, linked to its parent by id.
type flatNode struct {
	node     rendering.StyleNode
	parentID *int
}

func (f *flatNode) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &f.node); err != nil {
		return err
	}
	var link struct {
		ParentID *int `json:"parentId"`
	}
	if err := json.Unmarshal(data, &link); err != nil {
		return fmt.Errorf("node %d: invalid parentId: %w", f.node.ID, err)
	}
	f.parentID = link.ParentID
	return nil
}

// ParseTree decodes a page tree. It accepts a nested root node or an object
// with a flat "nodes" array whose entries reference their parent through
// "parentId"; in the flat form the single parentless node is the root.
func ParseTree(data []byte) (*rendering.StyleNode, error) {
	var envelope struct {
		Nodes json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode tree: %w", err)
	}
	if len(envelope.Nodes) == 0 {
		var root rendering.StyleNode
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to decode tree: %w", err)
		}
		return &root, nil
	}

	var flat []*flatNode
	if err := json.Unmarshal(envelope.Nodes, &flat); err != nil {
		return nil, fmt.Errorf("nodes is not an array of nodes: %w", err)
	}
	return linkFlatNodes(flat)
}

func linkFlatNodes(flat []*flatNode) (*rendering.StyleNode, error) {
	byID := make(map[int]*rendering.StyleNode, len(flat))
	parentChildMap := make(map[int][]int)
	var roots []int

	for _, fn := range flat {
		if fn == nil {
			continue
		}
		id := fn.node.ID
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("duplicate node id %d", id)
		}
		node := fn.node
		byID[id] = &node
		if fn.parentID == nil {
			roots = append(roots, id)
			continue
		}
		parentChildMap[*fn.parentID] = append(parentChildMap[*fn.parentID], id)
	}

	if len(roots) != 1 {
		return nil, fmt.Errorf("expected exactly one root node, found %d", len(roots))
	}

	for parentID, childIDs := range parentChildMap {
		parent, ok := byID[parentID]
		if !ok {
			return nil, fmt.Errorf("node %d references missing parent %d", childIDs[0], parentID)
		}
		for _, id := range childIDs {
			parent.Children = append(parent.Children, byID[id])
		}
	}

	// Every node must hang off the root; anything else is a parent cycle.
	reached := make(map[int]bool, len(byID))
	queue := []int{roots[0]}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if reached[id] {
			continue
		}
		reached[id] = true
		queue = append(queue, parentChildMap[id]...)
	}
	if len(reached) != len(byID) {
		return nil, fmt.Errorf("%d nodes are not reachable from root %d", len(byID)-len(reached), roots[0])
	}
	return byID[roots[0]], nil
}

// Diagnostic is one finding about a page tree.
type Diagnostic struct {
	NodeID  int    `json:"nodeId"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Diagnose reports unknown type tags, duplicate ids and duplicate form names
// among interactive nodes.
func Diagnose(root *rendering.StyleNode, registry *Registry, language string) []Diagnostic {
	if registry == nil {
		registry = DefaultRegistry()
	}
	var out []Diagnostic
	seenIDs := make(map[int]bool)
	seenNames := make(map[string]int)

	root.Walk(func(n *rendering.StyleNode) bool {
		if seenIDs[n.ID] {
			out = append(out, Diagnostic{NodeID: n.ID, Type: n.Type(), Message: "duplicate node id"})
		}
		seenIDs[n.ID] = true

		if _, ok := registry.Lookup(n.Type()); !ok {
			out = append(out, Diagnostic{NodeID: n.ID, Type: n.Type(), Message: "unknown node type"})
			return true
		}
		if elements.Describe(n.Type()).Interactive {
			name := rendering.FormName(n, language)
			if other, dup := seenNames[name]; dup {
				out = append(out, Diagnostic{
					NodeID:  n.ID,
					Type:    n.Type(),
					Message: fmt.Sprintf("form name %q already used by node %d", name, other),
				})
			} else {
				seenNames[name] = n.ID
			}
		}
		return true
	})

	sort.SliceStable(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}
