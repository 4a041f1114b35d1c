// Package stability measures how invariant a page's layout is across
// repeated captures. Feed it N summaries of the same page and it tracks
// per-node variation (position, text, visibility, importance) and scores
// each node and the page as a whole. The calibrator turns its output into
// usable comparison tolerances.
package stability

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/hazyhaar/domdiff/layout"
)

// ErrInsufficientSamples is returned for calibration inputs with fewer than
// two iterations. Deriving tolerances from one sample would silently degrade
// to guesswork, so this fails fast instead.
var ErrInsufficientSamples = errors.New("stability: need at least 2 summaries")

const (
	// UnstableBelow is the per-node stability threshold. A node is stable
	// only when its score exceeds it; a score landing exactly on the
	// threshold counts as unstable. The flag itself is decided in integer
	// arithmetic (see unstableNode) so the boundary does not depend on
	// float rounding.
	UnstableBelow = 0.9

	// positionBucket is the rounding step for distinct-position tracking:
	// sub-5px jitter collapses into one bucket.
	positionBucket = 5

	// fallbackTolerance is the position rounding (px) used in the identity
	// key for nodes without an anchored ID.
	fallbackTolerance = 50

	// groupTolerance is the per-axis distance within which groups in
	// consecutive iterations count as the same group.
	groupTolerance = 50.0
)

// NodeVariation records one node's observed variation across iterations.
type NodeVariation struct {
	Key     string `json:"key"` // anchored ID or fallback identity key
	Tag     string `json:"tag"`
	Class   string `json:"class,omitempty"`
	NodeID  string `json:"node_id"` // ID from the first iteration that saw the node

	Observations       int `json:"observations"`
	DistinctPositions  int `json:"distinct_positions"`
	DistinctTexts      int `json:"distinct_texts"`
	DistinctVisibility int `json:"distinct_visibility"`
	DistinctImportance int `json:"distinct_importance"`

	// MaxPositionDelta is the largest positional jump observed between
	// consecutive sightings of this node.
	MaxPositionDelta float64 `json:"max_position_delta"`

	TextObserved bool    `json:"text_observed"`
	Score        float64 `json:"score"` // 0..1
	Unstable     bool    `json:"unstable"`
}

// TextVaried reports whether the node's text changed across iterations.
func (v *NodeVariation) TextVaried() bool {
	return v.TextObserved && v.DistinctTexts > 1
}

// VisibilityVaried reports whether the node's visibility changed.
func (v *NodeVariation) VisibilityVaried() bool {
	return v.DistinctVisibility > 1
}

// Profile is the result of a stability analysis.
type Profile struct {
	Iterations int              `json:"iterations"`
	Nodes      []*NodeVariation `json:"nodes"`

	StableCount   int `json:"stable_count"`
	UnstableCount int `json:"unstable_count"`

	NodeStability  float64 `json:"node_stability"`  // percent
	GroupStability float64 `json:"group_stability"` // percent, valid when HasGroups
	HasGroups      bool    `json:"has_groups"`
	Overall        float64 `json:"overall"` // percent
}

// Unstable returns the variations flagged unstable.
func (p *Profile) Unstable() []*NodeVariation {
	var out []*NodeVariation
	for _, v := range p.Nodes {
		if v.Unstable {
			out = append(out, v)
		}
	}
	return out
}

// tracker accumulates one node's observations during analysis.
type tracker struct {
	v          *NodeVariation
	positions  map[string]bool
	texts      map[string]bool
	visibility map[bool]bool
	importance map[int]bool
	lastRect   layout.Rect
	seenOnce   bool
}

// Analyze measures per-node and group stability over n >= 2 summaries of
// the same page. Node identity is resolved by anchored ID when present,
// else by a (tag, class, coarse position) fallback key.
func Analyze(summaries []*layout.LayoutSummary, logger *slog.Logger) (*Profile, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(summaries) < 2 {
		return nil, fmt.Errorf("stability: %d summaries: %w", len(summaries), ErrInsufficientSamples)
	}

	trackers := make(map[string]*tracker)
	var order []string // deterministic output order: first-seen

	for _, sum := range summaries {
		for i := range sum.Nodes {
			n := &sum.Nodes[i]
			key := identityKey(n)
			tr, ok := trackers[key]
			if !ok {
				tr = &tracker{
					v: &NodeVariation{
						Key: key, Tag: n.Tag, Class: n.Class, NodeID: n.ID,
					},
					positions:  make(map[string]bool),
					texts:      make(map[string]bool),
					visibility: make(map[bool]bool),
					importance: make(map[int]bool),
				}
				trackers[key] = tr
				order = append(order, key)
			}
			tr.observe(n)
		}
	}

	iterations := len(summaries)
	prof := &Profile{Iterations: iterations}
	for _, key := range order {
		tr := trackers[key]
		v := tr.v
		v.DistinctPositions = len(tr.positions)
		v.DistinctTexts = len(tr.texts)
		v.DistinctVisibility = len(tr.visibility)
		// A node absent from some iterations has an extra, implicit
		// visibility state.
		if v.Observations < iterations {
			v.DistinctVisibility++
		}
		v.DistinctImportance = len(tr.importance)
		v.Score = scoreNode(v, iterations)
		v.Unstable = unstableNode(v, iterations)
		if v.Unstable {
			prof.UnstableCount++
		} else {
			prof.StableCount++
		}
		prof.Nodes = append(prof.Nodes, v)
	}

	total := prof.StableCount + prof.UnstableCount
	if total > 0 {
		prof.NodeStability = float64(prof.StableCount) / float64(total) * 100
	} else {
		prof.NodeStability = 100
	}

	if groupStability, ok := analyzeGroups(summaries); ok {
		prof.HasGroups = true
		prof.GroupStability = groupStability
		prof.Overall = 0.7*prof.NodeStability + 0.3*prof.GroupStability
	} else {
		prof.Overall = prof.NodeStability
	}

	logger.Debug("stability: analyzed",
		"iterations", iterations, "nodes", total,
		"unstable", prof.UnstableCount, "overall", prof.Overall)
	return prof, nil
}

func (tr *tracker) observe(n *layout.SummarizedNode) {
	v := tr.v
	v.Observations++

	tr.positions[positionKey(n.Rect)] = true
	if n.Text != "" {
		v.TextObserved = true
	}
	tr.texts[n.Text] = true
	tr.visibility[n.Visible] = true
	tr.importance[n.Importance] = true

	if tr.seenOnce {
		if d := n.Rect.Distance(tr.lastRect); d > v.MaxPositionDelta {
			v.MaxPositionDelta = d
		}
	}
	tr.lastRect = n.Rect
	tr.seenOnce = true
}

// scoreNode weighs the variation dimensions 0.4/0.3/0.2/0.1: position,
// text, visibility, importance. A node with no text in any iteration gets
// full credit on the text dimension.
func scoreNode(v *NodeVariation, iterations int) float64 {
	n := float64(iterations)

	term := func(distinct int) float64 {
		t := 1 - float64(distinct-1)/n
		if t < 0 {
			return 0
		}
		return t
	}

	text := 1.0
	if v.TextObserved {
		text = term(v.DistinctTexts)
	}

	score := 0.4*term(v.DistinctPositions) +
		0.3*text +
		0.2*term(v.DistinctVisibility) +
		0.1*term(v.DistinctImportance)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// unstableNode is scoreNode's threshold decision carried out exactly. The
// weights are tenths and each term is a stable-sample count over the
// iteration count, so score <= 0.9 is equivalent to
// 4*pos + 3*text + 2*vis + 1*imp <= 9*iterations in integers. A live-text
// node over three iterations lands exactly on the boundary; comparing the
// float score there flips on rounding, the integer form does not.
func unstableNode(v *NodeVariation, iterations int) bool {
	stable := func(distinct int) int {
		s := iterations - (distinct - 1)
		if s < 0 {
			return 0
		}
		return s
	}

	text := iterations
	if v.TextObserved {
		text = stable(v.DistinctTexts)
	}

	weighted := 4*stable(v.DistinctPositions) +
		3*text +
		2*stable(v.DistinctVisibility) +
		stable(v.DistinctImportance)
	return weighted <= 9*iterations
}

// identityKey resolves a node's cross-iteration identity.
func identityKey(n *layout.SummarizedNode) string {
	if n.Anchored {
		return n.ID
	}
	return fmt.Sprintf("%s|%s|%d,%d",
		n.Tag, n.Class,
		bucket(n.Rect.X, fallbackTolerance), bucket(n.Rect.Y, fallbackTolerance))
}

func positionKey(r layout.Rect) string {
	return fmt.Sprintf("%d,%d,%d,%d",
		bucket(r.X, positionBucket), bucket(r.Y, positionBucket),
		bucket(r.Width, positionBucket), bucket(r.Height, positionBucket))
}

func bucket(v float64, step int) int {
	return int(math.Round(v/float64(step)))
}

// analyzeGroups measures, for each consecutive iteration pair, the fraction
// of groups with a same-type counterpart within groupTolerance on both
// axes, and averages across pairs. Returns false when no iteration carries
// group data.
func analyzeGroups(summaries []*layout.LayoutSummary) (float64, bool) {
	hasAny := false
	for _, s := range summaries {
		if len(s.Groups) > 0 {
			hasAny = true
			break
		}
	}
	if !hasAny {
		return 0, false
	}

	var sum float64
	pairs := 0
	for i := 0; i+1 < len(summaries); i++ {
		cur, next := summaries[i].Groups, summaries[i+1].Groups
		if len(cur) == 0 {
			continue
		}
		persisted := 0
		for _, g := range cur {
			if hasCounterpart(g, next) {
				persisted++
			}
		}
		sum += float64(persisted) / float64(len(cur))
		pairs++
	}
	if pairs == 0 {
		return 0, false
	}
	return sum / float64(pairs) * 100, true
}

func hasCounterpart(g layout.NodeGroup, candidates []layout.NodeGroup) bool {
	for _, c := range candidates {
		if c.Type != g.Type {
			continue
		}
		if math.Abs(c.Bounds.X-g.Bounds.X) <= groupTolerance &&
			math.Abs(c.Bounds.Y-g.Bounds.Y) <= groupTolerance {
			return true
		}
	}
	return false
}
