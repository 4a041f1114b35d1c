// Package calibrate turns stability profiles into concrete comparison
// settings: pixel and percentage tolerances, text thresholds, confidence,
// and ignore lists. Run N captures of a page through stability.Analyze,
// calibrate the result, and hand the settings to whatever performs the
// actual comparisons.
package calibrate

import (
	"math"
	"strings"
	"time"

	"github.com/hazyhaar/domdiff/idgen"
	"github.com/hazyhaar/domdiff/stability"
)

// Strictness scales derived tolerances: higher strictness means tighter
// (smaller) tolerances.
type Strictness string

const (
	StrictnessLow    Strictness = "low"    // multiplier 1.5
	StrictnessMedium Strictness = "medium" // multiplier 1.0
	StrictnessHigh   Strictness = "high"   // multiplier 0.7
)

// Multiplier returns the tolerance multiplier for the strictness level.
// Unknown values fall back to medium.
func (s Strictness) Multiplier() float64 {
	switch s {
	case StrictnessLow:
		return 1.5
	case StrictnessHigh:
		return 0.7
	default:
		return 1.0
	}
}

// ToleranceVariant selects which percentage-tolerance formula applies.
// The source system grew two in different call paths; both are preserved
// as documented variants and the caller picks by intent.
type ToleranceVariant string

const (
	// VariantLinear derives a fine-grained percentage from the unstable
	// node ratio.
	VariantLinear ToleranceVariant = "linear"
	// VariantBanded derives a coarse percentage band from overall
	// stability.
	VariantBanded ToleranceVariant = "banded"
)

// Settings is the derived, versionable comparison configuration. It is a
// JSON-serializable value object; consumers treat it as opaque.
type Settings struct {
	ID         string `json:"id" yaml:"id"`
	CreatedAt  int64  `json:"created_at" yaml:"created_at"` // epoch milliseconds
	Iterations int    `json:"iterations" yaml:"iterations"`

	Strictness Strictness       `json:"strictness" yaml:"strictness"`
	Variant    ToleranceVariant `json:"variant" yaml:"variant"`

	PixelTolerance          int     `json:"pixel_tolerance" yaml:"pixel_tolerance"`                     // px
	PercentageTolerance     float64 `json:"percentage_tolerance" yaml:"percentage_tolerance"`           // 0-100 scale
	TextSimilarityThreshold float64 `json:"text_similarity_threshold" yaml:"text_similarity_threshold"` // 0-1
	ConfidenceLevel         float64 `json:"confidence_level" yaml:"confidence_level"`                   // 0-1

	IgnoreSelectors  []string `json:"ignore_selectors,omitempty" yaml:"ignore_selectors,omitempty"`
	IgnoreAttributes []string `json:"ignore_attributes,omitempty" yaml:"ignore_attributes,omitempty"`
}

// ignoreClassSubstrings are the class fragments checked for systematic
// instability; a fragment shared by at least 30% of unstable nodes becomes
// an ignore pattern.
var ignoreClassSubstrings = []string{"animate", "animation", "dynamic", "carousel", "ticker"}

// ignoreSelectorBelow is the per-node stability score under which a node's
// selector lands on the ignore list.
const ignoreSelectorBelow = 0.5

// Calibrate derives Settings from a stability profile.
func Calibrate(prof *stability.Profile, strictness Strictness, variant ToleranceVariant) *Settings {
	mult := strictness.Multiplier()
	unstable := prof.Unstable()

	s := &Settings{
		ID:         idgen.Prefixed("cal_", idgen.Default)(),
		CreatedAt:  time.Now().UnixMilli(),
		Iterations: prof.Iterations,
		Strictness: strictness,
		Variant:    variant,
	}

	s.PixelTolerance = pixelTolerance(unstable, mult)
	s.PercentageTolerance = percentageTolerance(prof, variant, mult)
	s.TextSimilarityThreshold = textThreshold(unstable)
	s.ConfidenceLevel = confidenceLevel(prof.Iterations)
	s.IgnoreSelectors = ignoreSelectors(unstable)
	s.IgnoreAttributes = ignoreAttributes(unstable)
	return s
}

// pixelTolerance is the largest observed inter-iteration positional jump
// among unstable nodes, padded by 1.5x and scaled by strictness.
func pixelTolerance(unstable []*stability.NodeVariation, mult float64) int {
	maxDelta := 0.0
	for _, v := range unstable {
		if v.MaxPositionDelta > maxDelta {
			maxDelta = v.MaxPositionDelta
		}
	}
	tol := int(math.Ceil(maxDelta * 1.5 * mult))
	if tol < 0 {
		tol = 0
	}
	return tol
}

func percentageTolerance(prof *stability.Profile, variant ToleranceVariant, mult float64) float64 {
	if variant == VariantBanded {
		var band float64
		switch {
		case prof.Overall >= 90:
			band = 5
		case prof.Overall >= 80:
			band = 10
		case prof.Overall >= 70:
			band = 20
		default:
			band = 30
		}
		return band * mult
	}

	total := prof.StableCount + prof.UnstableCount
	ratio := 0.0
	if total > 0 {
		ratio = float64(prof.UnstableCount) / float64(total)
	}
	pct := ratio * 10
	if pct < 0.1 {
		pct = 0.1
	}
	if pct > 5 {
		pct = 5
	}
	return pct * mult
}

// textThreshold loosens the text-similarity acceptance when text variation
// is endemic: 0.95 for quiet pages, 0.8 when any unstable node varies its
// text, 0.6 when more than 30% of unstable nodes do.
func textThreshold(unstable []*stability.NodeVariation) float64 {
	varied := 0
	for _, v := range unstable {
		if v.TextVaried() {
			varied++
		}
	}
	switch {
	case varied == 0:
		return 0.95
	case float64(varied) > 0.3*float64(len(unstable)):
		return 0.6
	default:
		return 0.8
	}
}

// confidenceLevel grows with sample count: iterations/10 capped at 1, with
// a 1.1x boost at 5 iterations and another at 10.
func confidenceLevel(iterations int) float64 {
	conf := math.Min(float64(iterations)/10, 1)
	if iterations >= 5 {
		conf *= 1.1
	}
	if iterations >= 10 {
		conf *= 1.1
	}
	return math.Min(conf, 1)
}

// ignoreSelectors derives selector strings for nodes too unstable to ever
// compare (score below ignoreSelectorBelow).
func ignoreSelectors(unstable []*stability.NodeVariation) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range unstable {
		if v.Score >= ignoreSelectorBelow {
			continue
		}
		sel := selectorFor(v)
		if sel != "" && !seen[sel] {
			seen[sel] = true
			out = append(out, sel)
		}
	}
	return out
}

func selectorFor(v *stability.NodeVariation) string {
	if strings.HasPrefix(v.NodeID, "#") {
		return v.NodeID
	}
	if v.Class != "" {
		tok := strings.Fields(v.Class)[0]
		return "." + tok
	}
	if v.Tag != "" {
		return v.Tag
	}
	return ""
}

// ignoreAttributes derives attribute-name ignore patterns:
//   - "text" when any unstable node shows text variation
//   - "visibility" when more than 5 unstable nodes flicker
//   - class substrings shared by >= 30% of unstable nodes
func ignoreAttributes(unstable []*stability.NodeVariation) []string {
	var out []string

	textVaried := false
	visibilityVaried := 0
	for _, v := range unstable {
		if v.TextVaried() {
			textVaried = true
		}
		if v.VisibilityVaried() {
			visibilityVaried++
		}
	}
	if textVaried {
		out = append(out, "text")
	}
	if visibilityVaried > 5 {
		out = append(out, "visibility")
	}

	if len(unstable) > 0 {
		for _, sub := range ignoreClassSubstrings {
			count := 0
			for _, v := range unstable {
				if strings.Contains(strings.ToLower(v.Class), sub) {
					count++
				}
			}
			if float64(count) >= 0.3*float64(len(unstable)) && count > 0 {
				out = append(out, sub)
			}
		}
	}
	return out
}
