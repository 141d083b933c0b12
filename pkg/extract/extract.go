package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/models"
)

// imageSourceAttrs lists the attributes consulted for an image URL, first non-empty wins
var imageSourceAttrs = []string{"src", "data-src", "data-original", "srcset", "data-srcset"}

// ExtractPairs returns one RawPair per usable <img> inside the content region of doc, in document order.
// The region is the first match of selector, or the whole document when nothing matches.
// Image URLs are resolved against pageURL (or the document's <base href>).
func ExtractPairs(doc *goquery.Document, pageURL *url.URL, sourceURL, selector string, log *logrus.Entry) []models.RawPair {
	base := resolveBase(doc, pageURL)

	content := doc.Selection
	if selector != "" {
		if region := doc.Find(selector).First(); region.Length() > 0 {
			content = region
		} else {
			log.Debugf("Content selector '%s' not found, using whole document", selector)
		}
	}

	var pairs []models.RawPair
	content.Find("img").Each(func(_ int, img *goquery.Selection) {
		imgURL, ok := imageURL(img, base)
		if !ok {
			return
		}

		text := captionFor(img.Nodes[0])
		if !hasMeaningfulText(text) {
			log.WithField("img_url", imgURL).Debugf("Skipping image, caption has no usable characters: %.50q", text)
			return
		}

		pairs = append(pairs, models.RawPair{
			ImageURL:  imgURL,
			Text:      text,
			SourceURL: sourceURL,
		})
	})
	return pairs
}

// imageURL resolves the first non-empty source attribute of img to an absolute http(s) URL
func imageURL(img *goquery.Selection, base *url.URL) (string, bool) {
	var raw, attr string
	for _, name := range imageSourceAttrs {
		if v, exists := img.Attr(name); exists && strings.TrimSpace(v) != "" {
			raw, attr = strings.TrimSpace(v), name
			break
		}
	}
	if raw == "" {
		return "", false
	}
	if strings.HasSuffix(attr, "srcset") {
		raw = firstSrcsetCandidate(raw)
	}
	if strings.HasPrefix(strings.ToLower(raw), "data:") {
		return "", false
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if (abs.Scheme != "http" && abs.Scheme != "https") || abs.Host == "" {
		return "", false
	}
	return abs.String(), true
}

// firstSrcsetCandidate returns the URL of the first "url [descriptor]" entry of a srcset value
func firstSrcsetCandidate(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// resolveBase honours a <base href> in the document, relative to pageURL
func resolveBase(doc *goquery.Document, pageURL *url.URL) *url.URL {
	href, exists := doc.Find("base[href]").First().Attr("href")
	if !exists || strings.TrimSpace(href) == "" {
		return pageURL
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return pageURL
	}
	return pageURL.ResolveReference(ref)
}
