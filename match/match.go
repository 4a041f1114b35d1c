// Package match finds best-effort node correspondences between two layout
// summaries.
//
// The general matcher is a deliberately order-sensitive greedy pass: nodes
// in A claim candidates in B in input order, and a claimed B node leaves the
// pool. It must not be replaced with an optimal bipartite assignment; the
// calibration thresholds downstream were derived against this exact
// behavior.
package match

import (
	"math"
	"strings"

	"github.com/hazyhaar/domdiff/layout"
)

// AcceptThreshold is the minimum weighted score for a correspondence to be
// accepted by the general matcher.
const AcceptThreshold = 0.3

// distanceScale normalises positional distance in the proximity component:
// distance >= 200px contributes zero.
const distanceScale = 200.0

// Correspondence pairs a node in A with at most one node in B. B is nil for
// unmatched A nodes (a degenerate match, not an error).
type Correspondence struct {
	A          *layout.SummarizedNode
	B          *layout.SummarizedNode
	Confidence float64
	Reasons    []string

	// Deltas are derived at match time for matched pairs.
	PositionDelta float64 // Euclidean distance between rect origins
	SizeDelta     float64 // Euclidean norm of (dWidth, dHeight)
}

// Matched reports whether the correspondence claimed a B node.
func (c *Correspondence) Matched() bool { return c.B != nil }

// Match pairs every node in A against the unclaimed pool of B, in A's input
// order. The result covers all of A; B nodes never claimed form the implicit
// "added" set (see Unclaimed). The mapping is injective: a B node is claimed
// at most once.
func Match(a, b []layout.SummarizedNode) []Correspondence {
	tokens := newTokenCache()
	claimed := make([]bool, len(b))
	out := make([]Correspondence, 0, len(a))

	for i := range a {
		na := &a[i]
		bestScore := 0.0
		bestIdx := -1
		var bestReasons []string

		for j := range b {
			if claimed[j] {
				continue
			}
			score, reasons := scoreNodes(na, &b[j], tokens)
			if score > bestScore {
				bestScore = score
				bestIdx = j
				bestReasons = reasons
			}
		}

		c := Correspondence{A: na}
		if bestIdx >= 0 && bestScore > AcceptThreshold {
			claimed[bestIdx] = true
			nb := &b[bestIdx]
			c.B = nb
			c.Confidence = bestScore
			c.Reasons = bestReasons
			c.PositionDelta = na.Rect.Distance(nb.Rect)
			c.SizeDelta = math.Hypot(na.Rect.Width-nb.Rect.Width, na.Rect.Height-nb.Rect.Height)
		}
		out = append(out, c)
	}
	return out
}

// Unclaimed returns the B nodes no correspondence claimed, the "added" set.
func Unclaimed(b []layout.SummarizedNode, corrs []Correspondence) []layout.SummarizedNode {
	taken := make(map[*layout.SummarizedNode]bool, len(corrs))
	for i := range corrs {
		if corrs[i].B != nil {
			taken[corrs[i].B] = true
		}
	}
	var out []layout.SummarizedNode
	for i := range b {
		if !taken[&b[i]] {
			out = append(out, b[i])
		}
	}
	return out
}

// scoreNodes computes the weighted match score:
// 0.3 tag equality + 0.2 semantic type equality + 0.2 class-token Jaccard
// + 0.3 proximity.
func scoreNodes(a, b *layout.SummarizedNode, tokens *tokenCache) (float64, []string) {
	var score float64
	var reasons []string

	if a.Tag == b.Tag {
		score += 0.3
		reasons = append(reasons, "tag")
	}
	if a.Type == b.Type {
		score += 0.2
		reasons = append(reasons, "semantic_type")
	}
	if j := jaccard(tokens.get(a.Class), tokens.get(b.Class)); j > 0 {
		score += 0.2 * j
		reasons = append(reasons, "class")
	}
	dist := a.Rect.Distance(b.Rect)
	if prox := 1 - dist/distanceScale; prox > 0 {
		score += 0.3 * prox
		reasons = append(reasons, "proximity")
	}

	return score, reasons
}

// jaccard computes set similarity over class tokens. Two empty sets are
// identical (1): nodes without classes should not be penalised against
// each other.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if b[tok] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// tokenCache memoizes class-token sets for one Match call. Per-call scope
// keeps the matcher a pure function with no shared state.
type tokenCache struct {
	sets map[string]map[string]bool
}

func newTokenCache() *tokenCache {
	return &tokenCache{sets: make(map[string]map[string]bool)}
}

func (c *tokenCache) get(class string) map[string]bool {
	if set, ok := c.sets[class]; ok {
		return set
	}
	set := make(map[string]bool)
	for _, tok := range strings.Fields(class) {
		set[strings.ToLower(tok)] = true
	}
	c.sets[class] = set
	return set
}
