package layout

import (
	"strings"
	"testing"
)

func testViewport() Viewport { return Viewport{Width: 1280, Height: 800} }

func el(tag string, rect Rect) RawElement {
	return RawElement{Tag: tag, Rect: rect, Visible: true, Opacity: 1}
}

func TestClassify_OrderedRules(t *testing.T) {
	cases := []struct {
		name string
		el   RawElement
		want SemanticType
	}{
		{"h1", el("h1", Rect{}), TypeHeading},
		{"role heading wins over div", RawElement{Tag: "div", Accessibility: Accessibility{Role: "heading"}}, TypeHeading},
		{"nav tag", el("nav", Rect{}), TypeNavigation},
		{"menu class", RawElement{Tag: "div", Class: "dropdown-menu"}, TypeNavigation},
		{"button", el("button", Rect{}), TypeInteractive},
		{"anchor", el("a", Rect{}), TypeInteractive},
		{"img", el("img", Rect{}), TypeMedia},
		{"li", el("li", Rect{}), TypeList},
		{"td", el("td", Rect{}), TypeTable},
		{"p", el("p", Rect{}), TypeContent},
		{"div with text", RawElement{Tag: "div", Text: "hello"}, TypeContent},
		{"bare div", el("div", Rect{}), TypeStructural},
		// Navigation rule precedes interactive: an <a> with class "nav-link"
		// is navigation because the rule list is ordered.
		{"nav-link anchor", RawElement{Tag: "a", Class: "nav-link"}, TypeNavigation},
	}
	for _, tc := range cases {
		if got := Classify(&tc.el); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestImportance_BaseScores(t *testing.T) {
	vp := testViewport()
	h := el("h1", Rect{X: 0, Y: 0, Width: 10, Height: 10})
	d := el("div", Rect{X: 0, Y: 790, Width: 10, Height: 10})

	hi := Importance(&h, TypeHeading, vp)
	di := Importance(&d, TypeStructural, vp)
	if hi <= di {
		t.Errorf("heading at top (%d) should outrank structural at bottom (%d)", hi, di)
	}
	// Top-of-page heading: base 80 + ~0 area + 10 vertical = 90.
	if hi != 90 {
		t.Errorf("heading importance: got %d, want 90", hi)
	}
}

func TestImportance_Bonuses(t *testing.T) {
	vp := testViewport()
	plain := el("div", Rect{Y: 800})
	boosted := plain
	boosted.ID = "hero"
	boosted.Class = "primary main-content"

	p := Importance(&plain, TypeStructural, vp)
	b := Importance(&boosted, TypeStructural, vp)
	if b-p != 15 {
		t.Errorf("id+primary+main bonus: got %d, want 15", b-p)
	}
}

func TestImportance_Clamped(t *testing.T) {
	vp := Viewport{Width: 100, Height: 100}
	big := RawElement{
		Tag: "h1", ID: "x", Class: "primary main",
		Rect: Rect{X: 0, Y: 0, Width: 1000, Height: 1000},
	}
	if got := Importance(&big, TypeHeading, vp); got != 100 {
		t.Errorf("got %d, want clamp at 100", got)
	}
}

func TestSummarize_EmptyTree(t *testing.T) {
	s := NewSummarizer()
	sum, err := s.Summarize(nil, testViewport())
	if err != nil {
		t.Fatalf("Summarize(nil): %v", err)
	}
	if len(sum.Nodes) != 0 || len(sum.Groups) != 0 {
		t.Errorf("got %d nodes, %d groups, want empty", len(sum.Nodes), len(sum.Groups))
	}
	if sum.ID == "" {
		t.Error("summary ID should still be assigned")
	}
}

func TestSummarize_ZeroViewport(t *testing.T) {
	s := NewSummarizer()
	root := el("div", Rect{})
	if _, err := s.Summarize(&root, Viewport{}); err == nil {
		t.Fatal("expected error for zero-area viewport")
	}
}

func TestSummarize_FlattensInDocumentOrder(t *testing.T) {
	root := el("main", Rect{Width: 1280, Height: 800})
	root.Children = []RawElement{
		el("h1", Rect{Y: 10, Width: 300, Height: 40}),
		{Tag: "p", Text: "body text", Rect: Rect{Y: 60, Width: 300, Height: 100}, Visible: true, Opacity: 1},
	}

	sum, err := NewSummarizer().Summarize(&root, testViewport())
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(sum.Nodes))
	}
	wantTags := []string{"main", "h1", "p"}
	for i, w := range wantTags {
		if sum.Nodes[i].Tag != w {
			t.Errorf("node[%d].Tag: got %s, want %s", i, sum.Nodes[i].Tag, w)
		}
	}
	if sum.Nodes[0].ChildCount != 2 {
		t.Errorf("root child count: got %d, want 2", sum.Nodes[0].ChildCount)
	}
}

func TestSummarize_AnchoredIDs(t *testing.T) {
	root := el("div", Rect{})
	root.ID = "header"
	sum, err := NewSummarizer().Summarize(&root, testViewport())
	if err != nil {
		t.Fatal(err)
	}
	n := sum.Nodes[0]
	if n.ID != "#header" || !n.Anchored {
		t.Errorf("got ID=%q anchored=%v, want #header anchored", n.ID, n.Anchored)
	}
}

func TestSummarize_TextTruncated(t *testing.T) {
	root := el("p", Rect{})
	root.Text = strings.Repeat("x", MaxTextLength+50)
	sum, err := NewSummarizer().Summarize(&root, testViewport())
	if err != nil {
		t.Fatal(err)
	}
	if got := len(sum.Nodes[0].Text); got != MaxTextLength {
		t.Errorf("text length: got %d, want %d", got, MaxTextLength)
	}
}

func TestGrouping_GreedySinglePass(t *testing.T) {
	root := el("div", Rect{Width: 1280, Height: 800})
	root.Children = []RawElement{
		el("button", Rect{X: 10, Y: 10, Width: 80, Height: 30}),
		el("button", Rect{X: 60, Y: 40, Width: 80, Height: 30}),  // within 100px of first seed
		el("button", Rect{X: 500, Y: 500, Width: 80, Height: 30}), // far away: new group
		el("img", Rect{X: 15, Y: 15, Width: 80, Height: 30}),      // close but different type
	}

	sum, err := NewSummarizer().Summarize(&root, testViewport())
	if err != nil {
		t.Fatal(err)
	}

	byType := map[SemanticType]int{}
	for _, g := range sum.Groups {
		byType[g.Type]++
	}
	if byType[TypeInteractive] != 2 {
		t.Errorf("interactive groups: got %d, want 2", byType[TypeInteractive])
	}
	if byType[TypeMedia] != 1 {
		t.Errorf("media groups: got %d, want 1", byType[TypeMedia])
	}

	// First interactive group holds the two near buttons and its bounds
	// cover both.
	for _, g := range sum.Groups {
		if g.Type == TypeInteractive && len(g.Nodes) == 2 {
			if g.Bounds.Width < 130 {
				t.Errorf("group bounds should span members, got width %v", g.Bounds.Width)
			}
			return
		}
	}
	t.Error("no interactive group with 2 members found")
}

func TestSummaryCodecRoundtrip(t *testing.T) {
	root := el("main", Rect{Width: 1280, Height: 800})
	root.Children = []RawElement{el("h1", Rect{Y: 10, Width: 300, Height: 40})}
	sum, err := NewSummarizer().Summarize(&root, testViewport())
	if err != nil {
		t.Fatal(err)
	}

	data, err := MarshalSummary(sum)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalSummary(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != sum.ID {
		t.Errorf("ID: got %q, want %q", got.ID, sum.ID)
	}
	if len(got.Nodes) != len(sum.Nodes) {
		t.Fatalf("nodes: got %d, want %d", len(got.Nodes), len(sum.Nodes))
	}
	if got.Nodes[1].Type != TypeHeading {
		t.Errorf("node type survived: got %s", got.Nodes[1].Type)
	}
}

func TestHashSummary_IgnoresText(t *testing.T) {
	mk := func(text string) *LayoutSummary {
		root := RawElement{Tag: "p", Text: text, Rect: Rect{Width: 100, Height: 20}, Visible: true, Opacity: 1}
		sum, err := NewSummarizer().Summarize(&root, testViewport())
		if err != nil {
			t.Fatal(err)
		}
		return sum
	}
	a := mk("monday")
	b := mk("tuesday")
	if HashSummary(a) != HashSummary(b) {
		t.Error("fingerprint should ignore text content")
	}

	c := mk("monday")
	c.Nodes[0].Rect.X = 300
	if HashSummary(a) == HashSummary(c) {
		t.Error("fingerprint should change with geometry")
	}
}

func TestHashSummary_NegativeCoordinateBuckets(t *testing.T) {
	// Off-screen nodes bucket like on-screen ones: -4 and -6 share the -5
	// bucket and neither collapses into the 0 bucket.
	mk := func(x float64) *LayoutSummary {
		return &LayoutSummary{Nodes: []SummarizedNode{{
			Tag: "div", Type: TypeContent,
			Rect: Rect{X: x, Y: 10, Width: 100, Height: 20},
		}}}
	}
	if HashSummary(mk(-4)) != HashSummary(mk(-6)) {
		t.Error("-4 and -6 should land in the same 5px bucket")
	}
	if HashSummary(mk(-4)) == HashSummary(mk(0)) {
		t.Error("-4 should not bucket to 0")
	}
}
