// Package visdiff classifies the differences between two layout summaries
// into added, removed, modified, and moved nodes, grades their severity,
// and tags recognisable difference patterns.
//
// Pattern tags are advisory metadata for the reporting layer; they never
// decide pass/fail.
package visdiff

import (
	"fmt"
	"log/slog"

	"github.com/hazyhaar/domdiff/layout"
	"github.com/hazyhaar/domdiff/match"
	"github.com/hazyhaar/domdiff/similarity"
)

// Severity grades a comparison by its overall similarity.
type Severity string

const (
	SeverityMinimal  Severity = "minimal"  // >= 98%
	SeverityLow      Severity = "low"      // >= 95%
	SeverityMedium   Severity = "medium"   // >= 90%
	SeverityHigh     Severity = "high"     // >= 80%
	SeverityCritical Severity = "critical" // below 80%
)

// Pattern tags.
const (
	PatternMicroShift      = "1px micro-shift"
	PatternSmallShift      = "small shift"
	PatternLargeShift      = "large shift"
	PatternStackingChanged = "stacking order changed"
	PatternOverflow        = "potential overflow"
	PatternStructural      = "structural layout shift"
)

// Change describes one modified or moved node pair.
type Change struct {
	A             *layout.SummarizedNode `json:"a"`
	B             *layout.SummarizedNode `json:"b"`
	PositionDelta float64                `json:"position_delta"`
	SizeDelta     float64                `json:"size_delta"`
	Fields        []string               `json:"fields,omitempty"` // which tracked attributes differ
}

// Report is the differ output a reporting collaborator consumes.
type Report struct {
	Added    []layout.SummarizedNode `json:"added"`
	Removed  []layout.SummarizedNode `json:"removed"`
	Moved    []Change                `json:"moved"`
	Modified []Change                `json:"modified"`

	Severity   Severity                     `json:"severity"`
	Patterns   []string                     `json:"patterns,omitempty"`
	Similarity *similarity.Result           `json:"similarity"`
	Regions    []match.RegionCorrespondence `json:"-"` // optional group-level pairing
}

// Options tunes the differ.
type Options struct {
	// MoveEpsilon is the position delta (px) above which a pair counts as
	// moved. The default 0 means any nonzero delta matters; a 1px shift
	// is a real finding for this system.
	MoveEpsilon float64

	// RawA/RawB optionally supply the raw trees so group-level region
	// correspondence can be computed with the accessibility ladder.
	RawA, RawB *layout.RawElement

	Logger *slog.Logger
}

// Diff compares two summaries and classifies every node.
func Diff(a, b *layout.LayoutSummary, opts Options) *Report {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	corrs := match.Match(a.Nodes, b.Nodes)
	rep := &Report{Similarity: similarity.Compare(a, b)}

	for i := range corrs {
		c := &corrs[i]
		if !c.Matched() {
			rep.Removed = append(rep.Removed, *c.A)
			continue
		}
		fields := changedFields(c)
		if len(fields) == 0 {
			continue
		}
		ch := Change{
			A: c.A, B: c.B,
			PositionDelta: c.PositionDelta,
			SizeDelta:     c.SizeDelta,
			Fields:        fields,
		}
		if len(fields) == 1 && fields[0] == "position" && c.PositionDelta > opts.MoveEpsilon {
			rep.Moved = append(rep.Moved, ch)
		} else {
			rep.Modified = append(rep.Modified, ch)
		}
	}
	rep.Added = match.Unclaimed(b.Nodes, corrs)

	rep.Severity = severityFor(rep.Similarity.Overall)
	rep.Patterns = detectPatterns(rep, b)

	if opts.RawA != nil && opts.RawB != nil {
		rep.Regions = match.MatchRegions(regions(opts.RawA), regions(opts.RawB))
	}

	log.Debug("visdiff: diff complete",
		"added", len(rep.Added), "removed", len(rep.Removed),
		"moved", len(rep.Moved), "modified", len(rep.Modified),
		"severity", rep.Severity)
	return rep
}

// changedFields lists which tracked attributes differ within a matched pair:
// position, size, visibility, and stacking-related style properties.
func changedFields(c *match.Correspondence) []string {
	var fields []string
	if c.PositionDelta != 0 {
		fields = append(fields, "position")
	}
	if c.SizeDelta != 0 {
		fields = append(fields, "size")
	}
	if c.A.Visible != c.B.Visible {
		fields = append(fields, "visibility")
	}
	if stackingChanged(c.A.Style, c.B.Style) {
		fields = append(fields, "stacking")
	}
	return fields
}

var stackingKeys = []string{"z-index", "opacity", "transform"}

func stackingChanged(a, b map[string]string) bool {
	for _, k := range stackingKeys {
		if a[k] != b[k] {
			return true
		}
	}
	return false
}

func severityFor(overall float64) Severity {
	pct := overall * 100
	switch {
	case pct >= 98:
		return SeverityMinimal
	case pct >= 95:
		return SeverityLow
	case pct >= 90:
		return SeverityMedium
	case pct >= 80:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// detectPatterns derives heuristic tags from the classified changes.
func detectPatterns(rep *Report, b *layout.LayoutSummary) []string {
	seen := make(map[string]bool)
	var patterns []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			patterns = append(patterns, p)
		}
	}

	shifts := make([]Change, 0, len(rep.Moved)+len(rep.Modified))
	shifts = append(shifts, rep.Moved...)
	shifts = append(shifts, rep.Modified...)
	for _, ch := range shifts {
		d := ch.PositionDelta
		switch {
		case d > 0 && d <= 1:
			add(PatternMicroShift)
		case d > 1 && d <= 5:
			add(PatternSmallShift)
		case d > 5:
			add(PatternLargeShift)
		}
		for _, f := range ch.Fields {
			if f == "stacking" {
				add(PatternStackingChanged)
			}
		}
	}

	// Scrollable or fixed-dimension elements can hide clipped content.
	for i := range b.Nodes {
		switch b.Nodes[i].Style["overflow"] {
		case "scroll", "auto", "hidden":
			add(PatternOverflow)
		}
	}

	if len(rep.Modified) > 3 || len(rep.Added) > 0 || len(rep.Removed) > 0 {
		add(PatternStructural)
	}
	return patterns
}

// Summary returns a one-line human-oriented description of the report.
func (r *Report) Summary() string {
	return fmt.Sprintf("%s: +%d -%d ~%d moved %d (similarity %.4f)",
		r.Severity, len(r.Added), len(r.Removed), len(r.Modified), len(r.Moved),
		r.Similarity.Overall)
}

// regions collects landmark subtree roots for region matching.
func regions(root *layout.RawElement) []*layout.RawElement {
	var out []*layout.RawElement
	var walk func(el *layout.RawElement)
	walk = func(el *layout.RawElement) {
		if isLandmark(el) {
			out = append(out, el)
		}
		for i := range el.Children {
			walk(&el.Children[i])
		}
	}
	walk(root)
	return out
}

var landmarkish = map[string]bool{
	"main": true, "header": true, "footer": true, "nav": true, "aside": true,
	"article": true, "section": true, "form": true, "dialog": true, "figure": true,
}

func isLandmark(el *layout.RawElement) bool {
	return landmarkish[el.Tag] || el.Accessibility.Role != ""
}
