// Package rawdom builds layout.RawElement trees from geometry-annotated
// HTML documents.
//
// Capture collaborators that speak CDP deliver RawElement JSON directly;
// this package is the interchange path for everything else (fixtures,
// archived captures, non-browser extractors). Geometry travels in data
// attributes the extractor stamps onto each element:
//
//	data-dd-rect="x,y,w,h"     bounding rect in page coordinates
//	data-dd-visible="false"    visibility (default true)
//	data-dd-opacity="0.5"      computed opacity (default 1)
//
// Elements without a rect annotation get a zero rect, which downstream
// scoring treats as zero-area.
package rawdom

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domdiff/layout"
)

// Annotation attribute names.
const (
	AttrRect    = "data-dd-rect"
	AttrVisible = "data-dd-visible"
	AttrOpacity = "data-dd-opacity"
)

// skipTags never become raw elements.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"head": true, "meta": true, "link": true, "title": true,
}

// Parse reads an annotated HTML document and returns the element tree
// rooted at <body> (or the document root when no body exists). An input
// without any elements yields nil, which the summarizer treats as an
// empty tree.
func Parse(r io.Reader) (*layout.RawElement, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("rawdom: parse: %w", err)
	}

	root := findBody(doc)
	if root == nil {
		root = firstElement(doc)
	}
	if root == nil {
		return nil, nil
	}
	return convert(root), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*layout.RawElement, error) {
	return Parse(strings.NewReader(s))
}

func convert(n *html.Node) *layout.RawElement {
	el := &layout.RawElement{
		Tag:     strings.ToLower(n.Data),
		Visible: true,
		Opacity: 1,
	}

	for _, attr := range n.Attr {
		applyAttr(el, strings.ToLower(attr.Key), attr.Val)
	}
	el.Text = truncateText(directText(n))

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || skipTags[strings.ToLower(c.Data)] {
			continue
		}
		el.Children = append(el.Children, *convert(c))
	}
	return el
}

func applyAttr(el *layout.RawElement, key, val string) {
	switch key {
	case "id":
		el.ID = val
	case "class":
		el.Class = val
	case AttrRect:
		if r, ok := parseRect(val); ok {
			el.Rect = r
		}
	case AttrVisible:
		el.Visible = val != "false"
	case AttrOpacity:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			el.Opacity = f
		}
	case "role":
		el.Accessibility.Role = val
	case "aria-label":
		el.Accessibility.Label = val
	case "aria-labelledby":
		el.Accessibility.LabelledBy = val
	case "aria-describedby":
		el.Accessibility.DescribedBy = val
	case "aria-hidden":
		el.Accessibility.Hidden = parseBool(val)
	case "aria-expanded":
		el.Accessibility.Expanded = parseBool(val)
	case "aria-selected":
		el.Accessibility.Selected = parseBool(val)
	case "aria-checked":
		el.Accessibility.Checked = parseBool(val)
	case "aria-disabled":
		el.Accessibility.Disabled = parseBool(val)
	case "aria-valuenow":
		el.Accessibility.ValueNow = parseFloat(val)
	case "aria-valuemin":
		el.Accessibility.ValueMin = parseFloat(val)
	case "aria-valuemax":
		el.Accessibility.ValueMax = parseFloat(val)
	case "tabindex":
		if n, err := strconv.Atoi(val); err == nil {
			el.Accessibility.TabIndex = &n
		}
	case "style":
		applyInlineStyle(el, val)
	default:
		if el.Attributes == nil {
			el.Attributes = make(map[string]string)
		}
		el.Attributes[key] = val
	}
}

// styleProps are the inline-style properties lifted into the attribute map
// so the summarizer can track stacking and overflow.
var styleProps = map[string]bool{
	"z-index": true, "opacity": true, "transform": true,
	"position": true, "overflow": true,
}

func applyInlineStyle(el *layout.RawElement, style string) {
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(strings.ToLower(name))
		if !styleProps[name] {
			continue
		}
		if el.Attributes == nil {
			el.Attributes = make(map[string]string)
		}
		el.Attributes[name] = strings.TrimSpace(value)
	}
}

func parseRect(s string) (layout.Rect, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return layout.Rect{}, false
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return layout.Rect{}, false
		}
		vals[i] = f
	}
	return layout.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, true
}

func parseBool(s string) *bool {
	b := s == "true"
	return &b
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// directText concatenates the element's immediate text children.
func directText(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}

func truncateText(s string) string {
	if len(s) <= layout.MaxTextLength {
		return s
	}
	for i := layout.MaxTextLength; i > 0; i-- {
		if (s[i] & 0xC0) != 0x80 {
			return s[:i]
		}
	}
	return ""
}

func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return body
}

func firstElement(doc *html.Node) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && !skipTags[strings.ToLower(n.Data)] {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}
