package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockTags start a new line in rendered text, like the browser's innerText.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "br": true, "dd": true,
	"div": true, "dl": true, "dt": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "section": true, "table": true, "tr": true, "ul": true,
}

// ExtractListingTexts reads a saved listing page and returns the text of
// each item under container, one line per rendered block. It lets the
// parser and filters run against a page snapshot without a browser.
func ExtractListingTexts(r io.Reader, container, item string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: parse html: %w", err)
	}

	scope := doc.Selection
	if container != "" {
		scope = doc.Find(container)
		if scope.Length() == 0 {
			return nil, fmt.Errorf("snapshot: container %q not found", container)
		}
	}

	var texts []string
	scope.Find(item).Each(func(_ int, s *goquery.Selection) {
		if text := renderText(s); text != "" {
			texts = append(texts, text)
		}
	})
	return texts, nil
}

func renderText(s *goquery.Selection) string {
	var b strings.Builder
	walkText(s, &b)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func walkText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch name {
		case "#text":
			b.WriteString(c.Text())
		case "script", "style", "#comment":
		default:
			block := blockTags[name]
			if block {
				b.WriteByte('\n')
			}
			walkText(c, b)
			if block {
				b.WriteByte('\n')
			}
		}
	})
}
