// Package layout defines the data model for captured page layouts and turns
// raw extracted element trees into flat, semantically classified summaries.
//
// A LayoutSummary is the interchange artifact of the module: the matcher,
// similarity aggregator, differ, and stability analyzer all consume it and
// never look at the raw tree again. Summaries are created once per capture
// and are read-only afterwards; re-summarizing produces a fresh set.
package layout

import "math"

// MaxTextLength is the truncation cap applied to captured element text.
const MaxTextLength = 200

// Rect is an axis-aligned bounding rectangle in page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns width times height, never negative.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Distance returns the Euclidean distance between the origins of two rects.
func (r Rect) Distance(o Rect) float64 {
	return math.Hypot(r.X-o.X, r.Y-o.Y)
}

// Union returns the smallest rect enclosing both r and o.
func (r Rect) Union(o Rect) Rect {
	x1 := math.Min(r.X, o.X)
	y1 := math.Min(r.Y, o.Y)
	x2 := math.Max(r.X+r.Width, o.X+o.Width)
	y2 := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Viewport is the size of the viewport a capture was taken under.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Accessibility holds the ARIA attributes captured from an element.
// Pointer booleans distinguish "attribute absent" from "attribute false";
// the accessibility similarity dimension only compares states present on
// at least one side of a pair.
type Accessibility struct {
	Role        string   `json:"role,omitempty"`
	Label       string   `json:"label,omitempty"`        // aria-label
	LabelledBy  string   `json:"labelled_by,omitempty"`  // aria-labelledby
	DescribedBy string   `json:"described_by,omitempty"` // aria-describedby
	Hidden      *bool    `json:"hidden,omitempty"`
	Expanded    *bool    `json:"expanded,omitempty"`
	Selected    *bool    `json:"selected,omitempty"`
	Checked     *bool    `json:"checked,omitempty"`
	Disabled    *bool    `json:"disabled,omitempty"`
	ValueNow    *float64 `json:"value_now,omitempty"`
	ValueMin    *float64 `json:"value_min,omitempty"`
	ValueMax    *float64 `json:"value_max,omitempty"`
	TabIndex    *int     `json:"tab_index,omitempty"`
}

// States returns the boolean ARIA states that are present, keyed by name.
func (a Accessibility) States() map[string]bool {
	s := make(map[string]bool)
	if a.Hidden != nil {
		s["hidden"] = *a.Hidden
	}
	if a.Expanded != nil {
		s["expanded"] = *a.Expanded
	}
	if a.Selected != nil {
		s["selected"] = *a.Selected
	}
	if a.Checked != nil {
		s["checked"] = *a.Checked
	}
	if a.Disabled != nil {
		s["disabled"] = *a.Disabled
	}
	return s
}

// RawElement is one node of an extracted element tree, as delivered by a
// capture collaborator. The parent exclusively owns its children; the tree
// is acyclic by construction (DOM-derived).
type RawElement struct {
	Tag           string            `json:"tag"`
	ID            string            `json:"id,omitempty"`
	Class         string            `json:"class,omitempty"`
	Text          string            `json:"text,omitempty"` // truncated to MaxTextLength
	Rect          Rect              `json:"rect"`
	Visible       bool              `json:"visible"`
	Opacity       float64           `json:"opacity"`
	Accessibility Accessibility     `json:"accessibility,omitzero"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Children      []RawElement      `json:"children,omitempty"`
}
