package layout

// SummarizedNode is the flattened, classified view of one raw element.
// Immutable after summarization.
type SummarizedNode struct {
	// ID is assigned at summarization time. When the source element carries
	// a DOM id, the ID is derived from it and Anchored is true; anchored IDs
	// are the primary node-identity signal across repeated captures of the
	// same page. Generated IDs are only unique within one summary.
	ID       string `json:"id"`
	Anchored bool   `json:"anchored,omitempty"`

	Tag        string          `json:"tag"`
	Role       string          `json:"role,omitempty"`
	Class      string          `json:"class,omitempty"`
	AriaLabel  string          `json:"aria_label,omitempty"`
	Text       string          `json:"text,omitempty"` // truncated to MaxTextLength
	Rect       Rect            `json:"rect"`
	Visible    bool            `json:"visible"`
	Type       SemanticType    `json:"type"`
	Importance int             `json:"importance"` // 0..100
	ChildCount int             `json:"child_count"`
	States     map[string]bool `json:"states,omitempty"` // present boolean ARIA states
	Style      map[string]string `json:"style,omitempty"` // stacking/overflow-related properties
}

// NodeGroup is a cluster of spatially close nodes sharing a semantic type.
// A node belongs to at most one group within a summarization run.
type NodeGroup struct {
	ID     string       `json:"id"`
	Type   SemanticType `json:"type"`
	Bounds Rect         `json:"bounds"` // union of member rects
	Nodes  []string     `json:"nodes"`  // member node IDs, in summarization order
}

// LayoutSummary is the top-level artifact of one capture: an ordered node
// list, the spatial groups, and the viewport the capture was taken under.
// Read-only for all downstream consumers.
type LayoutSummary struct {
	ID        string           `json:"id"`
	Nodes     []SummarizedNode `json:"nodes"`
	Groups    []NodeGroup      `json:"groups"`
	Viewport  Viewport         `json:"viewport"`
	Timestamp int64            `json:"timestamp"` // epoch milliseconds
}

// NodeByID returns the node with the given ID, or nil.
func (s *LayoutSummary) NodeByID(id string) *SummarizedNode {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}
