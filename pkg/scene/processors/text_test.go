package processors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLExtractor(t *testing.T) {
	page := []byte(`<html><head><style>p{}</style></head><body>
<h1>Living room</h1>
<p>A   red sofa is near the window.</p>
<script>var x = "on the table";</script>
<ul><li>A lamp is on the desk</li></ul>
</body></html>`)

	text, err := NewHTMLExtractor().ExtractText(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "Living room. A red sofa is near the window. A lamp is on the desk.", text)
}

func TestHTMLExtractorBodyFallback(t *testing.T) {
	text, err := NewHTMLExtractor().ExtractText(context.Background(), []byte(`<body>  a cube   under a chair </body>`))
	require.NoError(t, err)
	assert.Equal(t, "a cube under a chair", text)
}

func TestPlainTextExtractor(t *testing.T) {
	text, err := NewPlainTextExtractor().ExtractText(context.Background(), []byte("# Scene\n\n- A cat sits on the mat.\n  A dog is behind it.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Scene A cat sits on the mat. A dog is behind it.", text)
}

func TestPDFExtractorRejectsGarbage(t *testing.T) {
	_, err := NewPDFExtractor().ExtractText(context.Background(), []byte("not a pdf"))
	assert.Error(t, err)
}

func TestExtractorFor(t *testing.T) {
	for path, want := range map[string][]string{
		"a.txt":     {"text/plain", "text/markdown"},
		"b.MD":      {"text/plain", "text/markdown"},
		"c.html":    {"text/html"},
		"dir/d.htm": {"text/html"},
		"e.pdf":     {"application/pdf"},
	} {
		ex, err := ExtractorFor(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, ex.SupportedTypes(), path)
	}

	_, err := ExtractorFor("scene.docx")
	assert.Error(t, err)
}
