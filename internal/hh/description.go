package hh

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var sectionHeading = regexp.MustCompile(`(Требования|Условия)`)

// CleanDescription turns the hh.ru HTML description into chat text: list
// items become bullets, paragraphs and breaks become newlines, and the
// requirements and conditions headings start new blocks.
func CleanDescription(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	renderText(&b, doc.Find("body"))

	text := sectionHeading.ReplaceAllString(b.String(), "\n\n$1")
	return strings.TrimSpace(text), nil
}

func renderText(b *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, node *goquery.Selection) {
		switch goquery.NodeName(node) {
		case "#text":
			b.WriteString(node.Text())
		case "li":
			b.WriteString("\n   • ")
			renderText(b, node)
		case "p":
			b.WriteString("\n")
			renderText(b, node)
		case "br":
			b.WriteString("\n")
		default:
			renderText(b, node)
		}
	})
}
