package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot-ai/docupilot/pkg/config"
)

func TestNormalize(t *testing.T) {
	in := "\ufeffFirst line  \r\nsecond line\r\r\n\n\n\nNext paragraph\n"
	assert.Equal(t, "First line\nsecond line\n\nNext paragraph", Normalize(in))
}

func TestExtractFile(t *testing.T) {
	got, err := ExtractFile("notes.md", []byte("# Field Notes\n\nSome text."))
	require.NoError(t, err)
	assert.Equal(t, "Field Notes", got.Title)
	assert.Contains(t, got.Text, "Some text.")

	got, err = ExtractFile("report.txt", []byte("Plain body."))
	require.NoError(t, err)
	assert.Equal(t, "report", got.Title)
	assert.Equal(t, "Plain body.", got.Text)
}

func TestExtractFileRejectsUnsupported(t *testing.T) {
	_, err := ExtractFile("slides.pptx", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ExtractFile("empty.txt", []byte("   \n\n  "))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestFetchURLStripsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Doc &amp; Co</title>
<script>var x = 1;</script><style>body{}</style></head>
<body><h1>Heading</h1><p>First paragraph.</p><p>Second &gt; first.</p></body></html>`))
	}))
	defer srv.Close()

	got, err := FetchURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Doc & Co", got.Title)
	assert.Contains(t, got.Text, "Heading")
	assert.Contains(t, got.Text, "First paragraph.")
	assert.Contains(t, got.Text, "Second > first.")
	assert.NotContains(t, got.Text, "var x")
	assert.NotContains(t, got.Text, "body{}")
}

func TestFetchURLPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("# Title line\n\nBody text.\r\n"))
	}))
	defer srv.Close()

	got, err := FetchURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Title line", got.Title)
	assert.Contains(t, got.Text, "Body text.")
}

func TestFetchURLErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := FetchURL(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "status 404")
}

func TestChunkerPacksParagraphs(t *testing.T) {
	chunker := NewChunker(&config.IngestConfig{DefaultChunkSize: 40, MaxChunksPerDoc: 100})

	text := "Alpha paragraph one.\n\nBeta paragraph.\n\nGamma paragraph closes it."
	chunks, err := chunker.Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Alpha paragraph one.\n\nBeta paragraph.", chunks[0])
	assert.Equal(t, "Gamma paragraph closes it.", chunks[1])
}

func TestChunkerSplitsOversizedParagraph(t *testing.T) {
	chunker := NewChunker(&config.IngestConfig{DefaultChunkSize: 10, MaxChunksPerDoc: 100})

	chunks, err := chunker.Split(strings.Repeat("a", 25))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("a", 10), chunks[0])
	assert.Equal(t, strings.Repeat("a", 10), chunks[1])
	assert.Equal(t, strings.Repeat("a", 5), chunks[2])
}

func TestChunkerEnforcesCap(t *testing.T) {
	chunker := NewChunker(&config.IngestConfig{DefaultChunkSize: 10, MaxChunksPerDoc: 2})

	_, err := chunker.Split(strings.Repeat("a", 100))
	assert.ErrorIs(t, err, ErrTooManyChunks)

	_, err = chunker.Split("  ")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}
