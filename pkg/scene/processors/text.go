package processors

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// TextExtractor turns a source file into a plain-text scene description
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte) (string, error)
	SupportedTypes() []string
}

// PlainTextExtractor passes .txt and .md content through, dropping markdown
// heading and list markers
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) ExtractText(ctx context.Context, content []byte) (string, error) {
	var lines []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#>*- ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " "), nil
}

func (e *PlainTextExtractor) SupportedTypes() []string {
	return []string{"text/plain", "text/markdown"}
}

// ExtractorFor picks an extractor from the file extension of path
func ExtractorFor(path string) (TextExtractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return NewPlainTextExtractor(), nil
	case ".html", ".htm":
		return NewHTMLExtractor(), nil
	case ".pdf":
		return NewPDFExtractor(), nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}
