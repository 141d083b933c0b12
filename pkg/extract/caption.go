package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	minCaptionRunes = 20 // Shorter sibling/parent text falls through to the next level
	maxAncestorHops = 3
)

// meaningfulText matches at least one CJK ideograph or ASCII letter
var meaningfulText = regexp.MustCompile(`[\x{4e00}-\x{9fff}A-Za-z]`)

// captionFor derives the caption of img by walking outward from it:
// sibling text within the parent, then the parent's full text, then up to
// three ancestors, stopping at the first ancestor with more than 20 characters.
func captionFor(img *html.Node) string {
	parent := img.Parent
	if parent == nil {
		return ""
	}

	var parts []string
	for sib := parent.FirstChild; sib != nil; sib = sib.NextSibling {
		if sib == img {
			continue
		}
		var t string
		switch sib.Type {
		case html.TextNode:
			t = strings.TrimSpace(sib.Data)
		case html.ElementNode:
			t = strippedText(sib)
		}
		if t != "" {
			parts = append(parts, t)
		}
	}
	text := strings.Join(parts, " ")

	if runeLen(text) < minCaptionRunes {
		text = strippedText(parent)
	}

	if runeLen(text) < minCaptionRunes {
		ancestor := parent
		for i := 0; i < maxAncestorHops && ancestor.Parent != nil; i++ {
			ancestor = ancestor.Parent
			if t := strippedText(ancestor); runeLen(t) > minCaptionRunes {
				text = t
				break
			}
		}
	}
	return text
}

// strippedText concatenates every trimmed descendant text node of n with no separator.
// Script and style bodies are not text.
func strippedText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(strings.TrimSpace(n.Data))
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" || n.Data == "template" {
				return
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// hasMeaningfulText reports whether text contains a CJK ideograph or an ASCII letter
func hasMeaningfulText(text string) bool {
	return meaningfulText.MatchString(text)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
