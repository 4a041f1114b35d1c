package similarity

import (
	"math"
	"testing"

	"github.com/hazyhaar/domdiff/layout"
)

func summary(nodes ...layout.SummarizedNode) *layout.LayoutSummary {
	return &layout.LayoutSummary{
		ID:       "test",
		Nodes:    nodes,
		Viewport: layout.Viewport{Width: 1280, Height: 800},
	}
}

func heading(x, y float64, text string) layout.SummarizedNode {
	return layout.SummarizedNode{
		ID: "h", Tag: "h1", Type: layout.TypeHeading, Text: text,
		Rect:    layout.Rect{X: x, Y: y, Width: 200, Height: 40},
		Visible: true,
	}
}

func TestCompare_SelfSimilarity(t *testing.T) {
	s := summary(
		heading(0, 0, "Hello"),
		layout.SummarizedNode{ID: "p", Tag: "p", Type: layout.TypeContent,
			Text: "body", Rect: layout.Rect{Y: 60, Width: 400, Height: 100}, Visible: true},
	)
	res := Compare(s, s)
	if math.Abs(res.Overall-1) > 1e-9 {
		t.Errorf("self similarity: got %v, want 1", res.Overall)
	}
	for name, v := range map[string]float64{
		"coordinate": res.Coordinate, "accessibility": res.Accessibility,
		"text": res.Text, "text_length": res.TextLength,
	} {
		if math.Abs(v-1) > 1e-9 {
			t.Errorf("%s sub-score: got %v, want 1", name, v)
		}
	}
}

func TestCompare_BothEmpty(t *testing.T) {
	res := Compare(summary(), summary())
	if res.Overall != 1 {
		t.Errorf("empty vs empty: got %v, want exactly 1", res.Overall)
	}
}

func TestCompare_Disjoint(t *testing.T) {
	a := summary(layout.SummarizedNode{
		ID: "a", Tag: "p", Type: layout.TypeContent, Text: "alpha",
		Rect: layout.Rect{X: 0, Y: 0, Width: 10, Height: 10},
	})
	b := summary(layout.SummarizedNode{
		ID: "b", Tag: "img", Type: layout.TypeMedia,
		Rect: layout.Rect{X: 9000, Y: 9000, Width: 10, Height: 10},
	})

	res := Compare(a, b)
	if res.Detail.MatchedPairs != 0 {
		t.Fatalf("expected no matches, got %d", res.Detail.MatchedPairs)
	}
	// With zero matched pairs every per-pair dimension is vacuously 1 and
	// the match ratio is the only non-trivial signal.
	if res.Accessibility != 1 || res.Text != 1 {
		t.Errorf("vacuous sub-scores: access=%v text=%v, want 1",
			res.Accessibility, res.Text)
	}
	wantCoord := 0.5 + 0.3 + 0.2*0
	if math.Abs(res.Coordinate-wantCoord) > 1e-9 {
		t.Errorf("coordinate: got %v, want %v", res.Coordinate, wantCoord)
	}
	if res.Overall >= 1 {
		t.Errorf("disjoint summaries should not be fully similar: %v", res.Overall)
	}
}

func TestCompare_OnePixelShift(t *testing.T) {
	a := summary(heading(0, 0, "Hello"))
	b := summary(heading(0, 1, "Hello"))

	res := Compare(a, b)
	if res.Detail.MatchedPairs != 1 {
		t.Fatalf("matched pairs: got %d, want 1", res.Detail.MatchedPairs)
	}
	// Average position delta 1px → position score 1 - 1/50 = 0.98.
	if math.Abs(res.Detail.PositionScore-0.98) > 1e-9 {
		t.Errorf("position score: got %v, want 0.98", res.Detail.PositionScore)
	}
	wantCoord := 0.5*0.98 + 0.3*1 + 0.2*1
	if math.Abs(res.Coordinate-wantCoord) > 1e-9 {
		t.Errorf("coordinate: got %v, want %v", res.Coordinate, wantCoord)
	}
	if res.Text != 1 || res.TextLength != 1 {
		t.Errorf("text dimensions should be unaffected: %v, %v", res.Text, res.TextLength)
	}
}

func TestCompare_TextChange(t *testing.T) {
	a := summary(heading(0, 0, "Monday"))
	b := summary(heading(0, 0, "Tuesday"))

	res := Compare(a, b)
	if res.Text >= 1 {
		t.Errorf("text sub-score should drop: %v", res.Text)
	}
	if math.Abs(res.Coordinate-1) > 1e-9 {
		t.Errorf("coordinate should be unaffected: %v", res.Coordinate)
	}
	if res.Detail.Text.ComparedPairs != 1 {
		t.Errorf("compared text pairs: got %d, want 1", res.Detail.Text.ComparedPairs)
	}
}

func TestCompare_AccessibilityStates(t *testing.T) {
	mk := func(expanded bool) *layout.LayoutSummary {
		return summary(layout.SummarizedNode{
			ID: "b", Tag: "button", Type: layout.TypeInteractive, Role: "button",
			Rect:   layout.Rect{Width: 80, Height: 30},
			States: map[string]bool{"expanded": expanded},
		})
	}
	same := Compare(mk(true), mk(true))
	diff := Compare(mk(true), mk(false))

	if math.Abs(same.Accessibility-1) > 1e-9 {
		t.Errorf("same states: got %v, want 1", same.Accessibility)
	}
	// Role and label agree, the one state key differs: 0.4 + 0.4 + 0.
	if math.Abs(diff.Accessibility-0.8) > 1e-9 {
		t.Errorf("state flip: got %v, want 0.8", diff.Accessibility)
	}
}

func TestCompare_TextLengthRatio(t *testing.T) {
	a := summary(heading(0, 0, "aaaaaaaaaa")) // 10 chars
	b := summary(heading(0, 0, "aaaaa"))      // 5 chars

	res := Compare(a, b)
	// Total ratio 0.5, per-pair ratio 0.5 → 0.5.
	if math.Abs(res.TextLength-0.5) > 1e-9 {
		t.Errorf("text length: got %v, want 0.5", res.TextLength)
	}
}

func TestCompare_WeightsSumToOne(t *testing.T) {
	sum := WeightCoordinate + WeightAccessibility + WeightText + WeightTextLength
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("weights sum to %v, want 1", sum)
	}
}
