// Package ingest turns uploaded files and fetched URLs into normalized
// document text and contiguous paragraph-aware chunks.
package ingest

import (
	"errors"
	"strings"

	"github.com/docupilot-ai/docupilot/pkg/config"
)

// ErrTooManyChunks is returned when a document would exceed the configured
// chunk cap.
var ErrTooManyChunks = errors.New("document produces too many chunks")

// ErrEmptyDocument is returned when no text survives normalization.
var ErrEmptyDocument = errors.New("document contains no text")

// Chunker splits normalized text into chunks, keeping paragraphs together
// where they fit.
type Chunker struct {
	size      int
	maxChunks int
}

// NewChunker creates a chunker from ingest configuration.
func NewChunker(cfg *config.IngestConfig) *Chunker {
	return &Chunker{size: cfg.DefaultChunkSize, maxChunks: cfg.MaxChunksPerDoc}
}

// Split chunks text at paragraph boundaries. Paragraphs are packed into a
// chunk until the next one would push it past the target size; a single
// paragraph longer than the target is split hard at the size boundary.
func (c *Chunker) Split(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyDocument
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, para := range splitParagraphs(text) {
		for len(para) > c.size {
			flush()
			chunks = append(chunks, para[:c.size])
			para = strings.TrimSpace(para[c.size:])
		}
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(para)+2 > c.size {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	if len(chunks) > c.maxChunks {
		return nil, ErrTooManyChunks
	}
	return chunks, nil
}

func splitParagraphs(text string) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para != "" {
			out = append(out, para)
		}
	}
	return out
}
