package processors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLExtractor pulls scene descriptions out of HTML pages.
type HTMLExtractor struct{}

// NewHTMLExtractor creates a new instance of HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// ExtractText returns the visible body text. Paragraph-like blocks are kept
// as separate sentences.
func (e *HTMLExtractor) ExtractText(ctx context.Context, content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to create document from HTML content: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var blocks []string
	doc.Find("body p, body li, body h1, body h2, body h3, body td").Each(func(_ int, s *goquery.Selection) {
		if text := collapseSpace(s.Text()); text != "" {
			blocks = append(blocks, terminate(text))
		}
	})
	if len(blocks) == 0 {
		return collapseSpace(doc.Find("body").Text()), nil
	}
	return strings.Join(blocks, " "), nil
}

// SupportedTypes returns the MIME types supported by the HTMLExtractor.
func (e *HTMLExtractor) SupportedTypes() []string {
	return []string{"text/html"}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// terminate makes sure a block ends a sentence so the segmenter splits there
func terminate(s string) string {
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") {
		return s
	}
	return s + "."
}
