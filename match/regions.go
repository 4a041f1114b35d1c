package match

import (
	"math"
	"strings"

	"github.com/hazyhaar/domdiff/layout"
)

// RegionAcceptThreshold is the minimum confidence for a region
// correspondence to be accepted.
const RegionAcceptThreshold = 0.7

// signatureDepth bounds how deep descendant signatures reach when computing
// the structural adjustment.
const signatureDepth = 3

// RegionCorrespondence pairs a container element in A with at most one in B.
type RegionCorrespondence struct {
	A          *layout.RawElement
	B          *layout.RawElement
	Confidence float64
	Reason     string
}

// Matched reports whether the region claimed a counterpart.
func (c *RegionCorrespondence) Matched() bool { return c.B != nil }

var landmarkTags = map[string]bool{
	"main": true, "header": true, "footer": true, "nav": true, "aside": true,
}

var sectioningTags = map[string]bool{
	"article": true, "section": true, "form": true, "dialog": true, "figure": true,
}

var uniqueRoles = map[string]bool{
	"main": true, "banner": true, "contentinfo": true, "search": true, "form": true,
}

// MatchRegions finds semantically corresponding container elements between
// two sets of regions (typically landmark subtrees). Unlike the general
// matcher it uses a strict priority ladder of accessibility identity signals
// rather than a weighted sum; geometry plays no part. B candidates are
// claimed exclusively, in A's input order.
func MatchRegions(a, b []*layout.RawElement) []RegionCorrespondence {
	claimed := make([]bool, len(b))
	out := make([]RegionCorrespondence, 0, len(a))

	for _, ra := range a {
		bestConf := 0.0
		bestIdx := -1
		bestReason := ""

		for j, rb := range b {
			if claimed[j] {
				continue
			}
			conf, reason := regionConfidence(ra, rb)
			if conf > bestConf {
				bestConf = conf
				bestIdx = j
				bestReason = reason
			}
		}

		c := RegionCorrespondence{A: ra}
		if bestIdx >= 0 && bestConf > RegionAcceptThreshold {
			claimed[bestIdx] = true
			c.B = b[bestIdx]
			c.Confidence = bestConf
			c.Reason = bestReason
		}
		out = append(out, c)
	}
	return out
}

// regionConfidence walks the identity ladder top to bottom and takes the
// first rung that applies, then folds in the structural signature as a
// small secondary adjustment.
func regionConfidence(a, b *layout.RawElement) (float64, string) {
	tagA := strings.ToLower(a.Tag)
	tagB := strings.ToLower(b.Tag)
	roleA := strings.ToLower(a.Accessibility.Role)
	roleB := strings.ToLower(b.Accessibility.Role)
	tagEq := tagA == tagB
	roleEq := roleA != "" && roleA == roleB

	var conf float64
	var reason string

	switch {
	case a.Accessibility.Label != "" && a.Accessibility.Label == b.Accessibility.Label:
		conf, reason = 0.95, "aria-label"
	case a.Accessibility.LabelledBy != "" && a.Accessibility.LabelledBy == b.Accessibility.LabelledBy:
		conf, reason = 0.92, "aria-labelledby"
	case a.Accessibility.DescribedBy != "" && a.Accessibility.DescribedBy == b.Accessibility.DescribedBy:
		conf, reason = 0.90, "aria-describedby"
	case a.ID != "" && a.ID == b.ID:
		conf, reason = 0.93, "id"
	case tagEq:
		reason = "tag"
		switch {
		case landmarkTags[tagA]:
			conf = 0.90
		case sectioningTags[tagA]:
			conf = 0.80
		default:
			conf = 0.70
		}
	case roleEq:
		reason = "role"
		if uniqueRoles[roleA] {
			conf = 0.88
		} else {
			conf = 0.75
		}
	default:
		return 0, ""
	}

	// A simultaneous tag and role agreement is a stronger signal than
	// either rung alone.
	if tagEq && roleEq {
		conf = math.Min(conf*1.1, 0.98)
	}

	if conf > 0 {
		sig := signatureSimilarity(a, b)
		conf = conf*0.9 + sig*0.1
	}
	return conf, reason
}

// signatureSimilarity is the Jaccard similarity of the tag[+role] signature
// sets of descendants up to signatureDepth.
func signatureSimilarity(a, b *layout.RawElement) float64 {
	return jaccard(signatures(a), signatures(b))
}

func signatures(el *layout.RawElement) map[string]bool {
	set := make(map[string]bool)
	collectSignatures(el, 0, set)
	return set
}

func collectSignatures(el *layout.RawElement, depth int, set map[string]bool) {
	if depth > signatureDepth {
		return
	}
	sig := strings.ToLower(el.Tag)
	if r := el.Accessibility.Role; r != "" {
		sig += "[" + strings.ToLower(r) + "]"
	}
	set[sig] = true
	for i := range el.Children {
		collectSignatures(&el.Children[i], depth+1, set)
	}
}
