package layout

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// MarshalSummary serialises a LayoutSummary to JSON. This is the shape a
// baseline store is expected to persist.
func MarshalSummary(s *LayoutSummary) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSummary deserialises a LayoutSummary from JSON.
func UnmarshalSummary(data []byte) (*LayoutSummary, error) {
	var s LayoutSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// MarshalRawElement serialises a raw element tree to JSON.
func MarshalRawElement(el *RawElement) ([]byte, error) {
	return json.Marshal(el)
}

// UnmarshalRawElement deserialises a raw element tree from JSON.
func UnmarshalRawElement(data []byte) (*RawElement, error) {
	var el RawElement
	if err := json.Unmarshal(data, &el); err != nil {
		return nil, err
	}
	return &el, nil
}

// HashSummary returns a 128-bit structural fingerprint of a summary:
// the node sequence's tags, semantic types, and 5px-rounded rects,
// ignoring text. Two captures with the same fingerprint have the same
// visible structure.
func HashSummary(s *LayoutSummary) string {
	var b strings.Builder
	for i := range s.Nodes {
		n := &s.Nodes[i]
		fmt.Fprintf(&b, "%s:%s:%d,%d,%d,%d;",
			n.Tag, n.Type,
			roundTo(n.Rect.X, 5), roundTo(n.Rect.Y, 5),
			roundTo(n.Rect.Width, 5), roundTo(n.Rect.Height, 5))
	}
	h := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", h[:16])
}

// roundTo buckets v to the nearest multiple of step. math.Round keeps the
// bucketing symmetric for negative coordinates (off-screen nodes).
func roundTo(v float64, step int) int {
	if step <= 0 {
		return int(v)
	}
	return int(math.Round(v/float64(step))) * step
}
