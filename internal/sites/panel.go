package sites

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImageToken marks where an image sat in an answer.
const ImageToken = "[이미지: %s]"

// brMark stands in for <br> while parsing; it survives whitespace collapsing.
const brMark = "\uE000"

var lineBreaks = strings.NewReplacer("<br>", brMark, "<br/>", brMark, "<br />", brMark)

// PanelAnswer flattens the outer HTML of an answer panel into text. Every
// descendant is visited in document order: paragraphs contribute their text,
// images an ImageToken with their src resolved against pageURL. Parts are
// joined by newlines.
func PanelAnswer(markup, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(lineBreaks.Replace(markup)))
	if err != nil {
		return "", fmt.Errorf("parse answer panel: %w", err)
	}

	var parts []string
	doc.Find("body").Children().Find("*").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "p":
			parts = append(parts, paragraphText(s))
		case "img":
			if src, ok := s.Attr("src"); ok && src != "" {
				parts = append(parts, fmt.Sprintf(ImageToken, resolve(base, src)))
			}
		}
	})
	return strings.Join(parts, "\n"), nil
}

// paragraphText collapses whitespace the way a browser renders it, keeping
// explicit line breaks.
func paragraphText(s *goquery.Selection) string {
	lines := strings.Split(s.Text(), brMark)
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// resolve makes src absolute the way the browser reports img.src. A src that
// does not parse is kept as written.
func resolve(base *url.URL, src string) string {
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}
