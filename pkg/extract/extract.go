// Package extract turns raw cached HTML into the (title, body text) pair
// the keyword match engine operates on.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Result is the extracted content of one article page.
type Result struct {
	Title string
	Text  string
}

var whitespace = regexp.MustCompile(`\s+`)

// FromHTML extracts the main article content from a raw page body.
// go-readability does the heavy lifting; pages it cannot distill (thin
// markup, listing-shaped pages) fall back to a goquery text sweep so an
// article is never left permanently unextractable.
func FromHTML(rawURL string, html []byte) (*Result, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid article URL: %w", err)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(html), parsedURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return &Result{
			Title: normalizeText(article.Title),
			Text:  normalizeText(article.TextContent),
		}, nil
	}

	return fallback(html)
}

// fallback strips boilerplate elements and takes the text of the most
// article-like container, the way the original scrapers did.
func fallback(html []byte) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := normalizeText(doc.Find("title").First().Text())
	doc.Find("script,style,nav,header,footer,aside").Remove()

	var body string
	for _, sel := range []string{"article", "main", "body"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			body = s.Text()
			break
		}
	}
	if body == "" {
		body = doc.Text()
	}

	return &Result{
		Title: title,
		Text:  normalizeText(body),
	}, nil
}

func normalizeText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
