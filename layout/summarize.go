package layout

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/hazyhaar/domdiff/idgen"
)

// GroupRadius is the spatial clustering radius in pixels: a node joins an
// open group of its semantic type when its origin is closer than this to
// the group seed's origin.
const GroupRadius = 100.0

// ErrZeroViewport is returned when a capture reports a viewport without area.
var ErrZeroViewport = errors.New("layout: zero-area viewport")

// stackingProps are the style-adjacent attributes lifted onto summarized
// nodes so the differ can track stacking and overflow changes.
var stackingProps = []string{"z-index", "opacity", "transform", "position", "overflow"}

// Summarizer flattens raw element trees into LayoutSummary artifacts.
// It holds no state between runs; a single Summarizer may be shared.
type Summarizer struct {
	newSummaryID idgen.Generator
	newNodeID    idgen.Generator
	logger       *slog.Logger
}

// SummarizerOption configures a Summarizer.
type SummarizerOption func(*Summarizer)

// WithSummaryIDGenerator sets the generator for summary IDs.
func WithSummaryIDGenerator(gen idgen.Generator) SummarizerOption {
	return func(s *Summarizer) { s.newSummaryID = gen }
}

// WithNodeIDGenerator sets the generator for non-anchored node IDs.
func WithNodeIDGenerator(gen idgen.Generator) SummarizerOption {
	return func(s *Summarizer) { s.newNodeID = gen }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) SummarizerOption {
	return func(s *Summarizer) { s.logger = logger }
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{
		newSummaryID: idgen.Prefixed("sum_", idgen.Default),
		newNodeID:    idgen.Prefixed("node_", idgen.Short(10)),
		logger:       slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Summarize flattens a raw element tree captured under the given viewport.
// An empty tree yields a summary with empty node and group lists, not an
// error. A zero-area viewport is rejected before any division happens.
func (s *Summarizer) Summarize(root *RawElement, vp Viewport) (*LayoutSummary, error) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil, fmt.Errorf("layout: viewport %dx%d: %w", vp.Width, vp.Height, ErrZeroViewport)
	}

	sum := &LayoutSummary{
		ID:        s.newSummaryID(),
		Viewport:  vp,
		Timestamp: time.Now().UnixMilli(),
	}
	if root == nil {
		return sum, nil
	}

	s.walk(root, vp, sum)
	sum.Groups = s.group(sum.Nodes)

	s.logger.Debug("layout: summarized",
		"summary_id", sum.ID, "nodes", len(sum.Nodes), "groups", len(sum.Groups))
	return sum, nil
}

// walk appends the subtree rooted at el to the summary, depth-first in
// document order. Traversal order is part of the contract: grouping and
// greedy matching downstream depend on it.
func (s *Summarizer) walk(el *RawElement, vp Viewport, sum *LayoutSummary) {
	sum.Nodes = append(sum.Nodes, s.summarizeOne(el, vp))
	for i := range el.Children {
		s.walk(&el.Children[i], vp, sum)
	}
}

func (s *Summarizer) summarizeOne(el *RawElement, vp Viewport) SummarizedNode {
	typ := Classify(el)

	n := SummarizedNode{
		Tag:        strings.ToLower(el.Tag),
		Role:       el.Accessibility.Role,
		Class:      el.Class,
		AriaLabel:  el.Accessibility.Label,
		Text:       truncate(el.Text, MaxTextLength),
		Rect:       el.Rect,
		Visible:    el.Visible && el.Opacity > 0.01,
		Type:       typ,
		Importance: Importance(el, typ, vp),
		ChildCount: len(el.Children),
	}

	if el.ID != "" {
		n.ID = "#" + el.ID
		n.Anchored = true
	} else {
		n.ID = s.newNodeID()
	}

	if states := el.Accessibility.States(); len(states) > 0 {
		n.States = states
	}
	for _, prop := range stackingProps {
		if v, ok := el.Attributes[prop]; ok {
			if n.Style == nil {
				n.Style = make(map[string]string)
			}
			n.Style[prop] = v
		}
	}

	return n
}

// group assigns nodes to spatial clusters with a single greedy pass in
// summarization order: a node joins the first open group of its type whose
// seed origin is within GroupRadius, else it opens a new group. The pass is
// deliberately order-dependent: calibration relies on group identity being
// reproducible for the same input order.
func (s *Summarizer) group(nodes []SummarizedNode) []NodeGroup {
	type openGroup struct {
		group NodeGroup
		seed  Rect
	}
	var open []*openGroup

	for i := range nodes {
		n := &nodes[i]
		var joined *openGroup
		for _, g := range open {
			if g.group.Type != n.Type {
				continue
			}
			if math.Hypot(n.Rect.X-g.seed.X, n.Rect.Y-g.seed.Y) < GroupRadius {
				joined = g
				break
			}
		}
		if joined != nil {
			joined.group.Nodes = append(joined.group.Nodes, n.ID)
			joined.group.Bounds = joined.group.Bounds.Union(n.Rect)
			continue
		}
		open = append(open, &openGroup{
			group: NodeGroup{
				ID:     fmt.Sprintf("grp_%d", len(open)),
				Type:   n.Type,
				Bounds: n.Rect,
				Nodes:  []string{n.ID},
			},
			seed: n.Rect,
		})
	}

	groups := make([]NodeGroup, len(open))
	for i, g := range open {
		groups[i] = g.group
	}
	return groups
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary.
	for i := max; i > 0; i-- {
		if (s[i] & 0xC0) != 0x80 {
			return s[:i]
		}
	}
	return ""
}
