package layout

import "strings"

// SemanticType is the coarse role classification of a summarized node.
type SemanticType string

const (
	TypeHeading     SemanticType = "heading"
	TypeNavigation  SemanticType = "navigation"
	TypeInteractive SemanticType = "interactive"
	TypeMedia       SemanticType = "media"
	TypeList        SemanticType = "list"
	TypeTable       SemanticType = "table"
	TypeContent     SemanticType = "content"
	TypeStructural  SemanticType = "structural"
)

// Classification is an ordered rule list evaluated top to bottom; the first
// matching rule wins. The order is part of the observable contract: group
// identity and importance scoring downstream depend on it being stable.

var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var interactiveTags = map[string]bool{
	"button": true, "a": true, "input": true, "textarea": true,
	"select": true, "form": true,
}

var mediaTags = map[string]bool{
	"img": true, "video": true, "audio": true, "svg": true, "picture": true,
}

var listTags = map[string]bool{
	"ul": true, "ol": true, "li": true,
}

var tableTags = map[string]bool{
	"table": true, "thead": true, "tbody": true, "tr": true, "td": true, "th": true,
}

var contentTags = map[string]bool{
	"p": true, "article": true, "section": true, "main": true,
}

// Classify assigns a SemanticType to a raw element.
func Classify(el *RawElement) SemanticType {
	tag := strings.ToLower(el.Tag)
	role := strings.ToLower(el.Accessibility.Role)
	class := strings.ToLower(el.Class)

	switch {
	case headingTags[tag] || role == "heading":
		return TypeHeading
	case tag == "nav" || role == "navigation" ||
		strings.Contains(class, "nav") || strings.Contains(class, "menu"):
		return TypeNavigation
	case interactiveTags[tag] || role == "button" || role == "link" ||
		role == "textbox" || role == "checkbox":
		return TypeInteractive
	case mediaTags[tag] || role == "img":
		return TypeMedia
	case listTags[tag] || role == "list" || role == "listitem":
		return TypeList
	case tableTags[tag] || role == "table" || role == "grid" ||
		role == "row" || role == "cell":
		return TypeTable
	case contentTags[tag] || strings.TrimSpace(el.Text) != "":
		return TypeContent
	default:
		return TypeStructural
	}
}

// importanceBase is the per-type base score for importance calculation.
var importanceBase = map[SemanticType]int{
	TypeHeading:     80,
	TypeNavigation:  70,
	TypeInteractive: 60,
	TypeContent:     50,
	TypeMedia:       40,
	TypeList:        30,
	TypeTable:       30,
	TypeStructural:  20,
}

// Importance scores an element 0..100: the per-type base, up to 20 points
// for viewport area coverage, up to 10 for vertical position (top of the
// page scores highest, falling linearly to zero at viewport height), and
// 5 each for a non-empty id, a "primary" class token, and a "main" class
// token.
func Importance(el *RawElement, typ SemanticType, vp Viewport) int {
	score := float64(importanceBase[typ])

	vpArea := float64(vp.Width) * float64(vp.Height)
	if vpArea > 0 {
		ratio := el.Rect.Area() / vpArea
		if ratio > 1 {
			ratio = 1
		}
		score += ratio * 20
	}

	if vp.Height > 0 {
		vpos := 1 - el.Rect.Y/float64(vp.Height)
		if vpos < 0 {
			vpos = 0
		}
		if vpos > 1 {
			vpos = 1
		}
		score += vpos * 10
	}

	if el.ID != "" {
		score += 5
	}
	class := strings.ToLower(el.Class)
	if strings.Contains(class, "primary") {
		score += 5
	}
	if strings.Contains(class, "main") {
		score += 5
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score)
}
