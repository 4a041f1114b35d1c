// Package similarity scores how alike two layout summaries are.
//
// The overall score is a fixed convex combination of four independent
// dimensions (coordinate, accessibility, text, text length), each in
// [0,1]. A dimension with no applicable pairs is vacuously similar (1):
// absence of evidence of change is not evidence of change.
package similarity

import (
	"math"

	"github.com/hazyhaar/domdiff/layout"
	"github.com/hazyhaar/domdiff/match"
	"github.com/hazyhaar/domdiff/textsim"
)

// Dimension weights. They sum to 1.
const (
	WeightCoordinate    = 0.3
	WeightAccessibility = 0.2
	WeightText          = 0.3
	WeightTextLength    = 0.2
)

// Scales that turn average deltas into sub-scores.
const (
	positionDeltaScale = 50.0 // avg position delta at which the position score hits 0
	sizeDeltaScale     = 30.0 // same for size
)

// Result is the outcome of comparing two summaries.
type Result struct {
	Overall       float64 `json:"overall"`
	Coordinate    float64 `json:"coordinate"`
	Accessibility float64 `json:"accessibility"`
	Text          float64 `json:"text"`
	TextLength    float64 `json:"text_length"`
	Detail        Detail  `json:"detail"`
}

// Detail carries the supporting records behind each sub-score.
type Detail struct {
	NodesA           int     `json:"nodes_a"`
	NodesB           int     `json:"nodes_b"`
	MatchedPairs     int     `json:"matched_pairs"`
	MatchRatio       float64 `json:"match_ratio"`
	AvgPositionDelta float64 `json:"avg_position_delta"`
	AvgSizeDelta     float64 `json:"avg_size_delta"`
	PositionScore    float64 `json:"position_score"`
	SizeScore        float64 `json:"size_score"`

	Text textsim.Aggregate `json:"text"`

	TotalTextLenA int `json:"total_text_len_a"`
	TotalTextLenB int `json:"total_text_len_b"`
}

// Compare scores summary B against summary A. It is deterministic given the
// inputs and their node order (the underlying matcher is greedy).
func Compare(a, b *layout.LayoutSummary) *Result {
	res := &Result{Detail: Detail{NodesA: len(a.Nodes), NodesB: len(b.Nodes)}}

	// Two empty captures are trivially identical.
	if len(a.Nodes) == 0 && len(b.Nodes) == 0 {
		res.Coordinate = 1
		res.Accessibility = 1
		res.Text = 1
		res.TextLength = 1
		res.Overall = 1
		res.Detail.MatchRatio = 1
		return res
	}

	corrs := match.Match(a.Nodes, b.Nodes)

	res.Coordinate = coordinateScore(corrs, len(a.Nodes), len(b.Nodes), &res.Detail)
	res.Accessibility = accessibilityScore(corrs)
	res.Text = textScore(corrs, &res.Detail)
	res.TextLength = textLengthScore(a, b, corrs, &res.Detail)

	res.Overall = WeightCoordinate*res.Coordinate +
		WeightAccessibility*res.Accessibility +
		WeightText*res.Text +
		WeightTextLength*res.TextLength
	return res
}

// coordinateScore blends positional drift, size drift, and coverage:
// 0.5 position + 0.3 size + 0.2 match ratio.
func coordinateScore(corrs []match.Correspondence, lenA, lenB int, d *Detail) float64 {
	var posSum, sizeSum float64
	matched := 0
	for i := range corrs {
		if !corrs[i].Matched() {
			continue
		}
		matched++
		posSum += corrs[i].PositionDelta
		sizeSum += corrs[i].SizeDelta
	}

	posScore, sizeScore := 1.0, 1.0
	if matched > 0 {
		d.AvgPositionDelta = posSum / float64(matched)
		d.AvgSizeDelta = sizeSum / float64(matched)
		posScore = math.Max(0, 1-d.AvgPositionDelta/positionDeltaScale)
		sizeScore = math.Max(0, 1-d.AvgSizeDelta/sizeDeltaScale)
	}

	total := lenA
	if lenB > total {
		total = lenB
	}
	ratio := 0.0
	if total > 0 {
		ratio = float64(matched) / float64(total)
	}

	d.MatchedPairs = matched
	d.MatchRatio = ratio
	d.PositionScore = posScore
	d.SizeScore = sizeScore
	return 0.5*posScore + 0.3*sizeScore + 0.2*ratio
}

// accessibilityScore compares roles, labels, and boolean ARIA states over
// matched pairs, weighted 0.4/0.4/0.2. Each component only counts pairs
// where the signal is present on at least one side.
func accessibilityScore(corrs []match.Correspondence) float64 {
	var roleApplicable, roleEqual int
	var labelApplicable, labelEqual int
	var stateApplicable, stateEqual int

	for i := range corrs {
		c := &corrs[i]
		if !c.Matched() {
			continue
		}
		if c.A.Role != "" || c.B.Role != "" {
			roleApplicable++
			if c.A.Role == c.B.Role {
				roleEqual++
			}
		}
		if c.A.AriaLabel != "" || c.B.AriaLabel != "" {
			labelApplicable++
			if c.A.AriaLabel == c.B.AriaLabel {
				labelEqual++
			}
		}
		// Union of state keys present on either side.
		for key := range c.A.States {
			stateApplicable++
			if bv, ok := c.B.States[key]; ok && bv == c.A.States[key] {
				stateEqual++
			}
		}
		for key := range c.B.States {
			if _, ok := c.A.States[key]; !ok {
				stateApplicable++
			}
		}
	}

	ratio := func(eq, total int) float64 {
		if total == 0 {
			return 1 // vacuously similar
		}
		return float64(eq) / float64(total)
	}
	return 0.4*ratio(roleEqual, roleApplicable) +
		0.4*ratio(labelEqual, labelApplicable) +
		0.2*ratio(stateEqual, stateApplicable)
}

// textScore averages pairwise text similarity over matched pairs with text
// on at least one side.
func textScore(corrs []match.Correspondence, d *Detail) float64 {
	var pairs []textsim.Pair
	for i := range corrs {
		if corrs[i].Matched() {
			pairs = append(pairs, textsim.Pair{A: corrs[i].A.Text, B: corrs[i].B.Text})
		}
	}
	agg := textsim.AggregatePairs(pairs)
	d.Text = agg
	if agg.ComparedPairs == 0 {
		return 1
	}
	return agg.AvgSimilarity
}

// textLengthScore blends the total-text-volume ratio of the two summaries
// with the average per-matched-pair length agreement.
func textLengthScore(a, b *layout.LayoutSummary, corrs []match.Correspondence, d *Detail) float64 {
	totalA, totalB := 0, 0
	for i := range a.Nodes {
		totalA += len(a.Nodes[i].Text)
	}
	for i := range b.Nodes {
		totalB += len(b.Nodes[i].Text)
	}
	d.TotalTextLenA = totalA
	d.TotalTextLenB = totalB

	totalRatio := 1.0
	if totalA != totalB {
		max := math.Max(float64(totalA), float64(totalB))
		totalRatio = math.Min(float64(totalA), float64(totalB)) / max
	}

	pairSum, pairCount := 0.0, 0
	for i := range corrs {
		c := &corrs[i]
		if !c.Matched() {
			continue
		}
		la, lb := len(c.A.Text), len(c.B.Text)
		if la == 0 && lb == 0 {
			continue
		}
		pairCount++
		maxLen := math.Max(float64(la), float64(lb))
		pairSum += math.Min(float64(la), float64(lb)) / maxLen
	}
	pairScore := 1.0
	if pairCount > 0 {
		pairScore = pairSum / float64(pairCount)
	}

	return 0.5*totalRatio + 0.5*pairScore
}
