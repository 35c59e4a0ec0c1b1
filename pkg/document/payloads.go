package document

import (
	"time"

	"github.com/docupilot-ai/docupilot/ent"
)

// NavigationPayload addresses a chunk by zero-based index.
type NavigationPayload struct {
	Index int `json:"index"`
}

// ChunkView is the wire form of a document chunk.
type ChunkView struct {
	ID       string `json:"id"`
	Sequence int    `json:"sequence"`
	Content  string `json:"content"`
	Length   int    `json:"length"`
}

// DocumentView is the wire form of a document's metadata.
type DocumentView struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Topic      string    `json:"topic,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChunkListCompleted carries the document's chunks in sequence order.
type ChunkListCompleted struct {
	DocumentID string      `json:"document_id"`
	Chunks     []ChunkView `json:"chunks"`
}

// MetadataCompleted carries the document summary plus all chunks.
type MetadataCompleted struct {
	Document DocumentView `json:"document"`
	Chunks   []ChunkView  `json:"chunks"`
}

// NavigationCompleted carries the chunk ids around an index. Prev and Next
// are empty at the document's edges.
type NavigationCompleted struct {
	Index   int    `json:"index"`
	Current string `json:"current"`
	Prev    string `json:"prev,omitempty"`
	Next    string `json:"next,omitempty"`
}

// ProcessingCompleted acknowledges that the document is ready.
type ProcessingCompleted struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

func chunkView(chunk *ent.DocumentChunk) ChunkView {
	return ChunkView{
		ID:       chunk.ID,
		Sequence: chunk.Sequence,
		Content:  chunk.Content,
		Length:   chunk.Meta.Length,
	}
}

func chunkViews(chunks []*ent.DocumentChunk) []ChunkView {
	views := make([]ChunkView, len(chunks))
	for i, chunk := range chunks {
		views[i] = chunkView(chunk)
	}
	return views
}

func documentView(doc *ent.Document) DocumentView {
	return DocumentView{
		ID:         doc.ID,
		Title:      doc.Title,
		Status:     string(doc.Status),
		Topic:      doc.Meta.Topic,
		ChunkCount: doc.Meta.ChunkCount,
		CreatedAt:  doc.CreatedAt,
	}
}
