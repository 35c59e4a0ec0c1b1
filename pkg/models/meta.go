// Package models contains domain types shared between the ent schemas,
// the service layer, and the request handlers.
package models

// HighlightRange is a character range inside a chunk's text.
type HighlightRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// DocumentMeta is the typed representation of the Document metadata column.
type DocumentMeta struct {
	Topic      string `json:"topic,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
}

// ChunkMeta is the typed representation of the DocumentChunk metadata column.
type ChunkMeta struct {
	Length int `json:"length"`
	Index  int `json:"index"`
}

// ConversationMeta is the typed representation of the Conversation metadata
// column. ConnectionID is set only for demo conversations; SeenChunks tracks
// which chunks have had suggested questions generated.
type ConversationMeta struct {
	ConnectionID   string          `json:"connection_id,omitempty"`
	SeenChunks     []string        `json:"seen_chunks,omitempty"`
	HighlightText  string          `json:"highlight_text,omitempty"`
	HighlightRange *HighlightRange `json:"highlight_range,omitempty"`
}

// HasSeenChunk reports whether questions were already generated for a chunk.
func (m ConversationMeta) HasSeenChunk(chunkID string) bool {
	for _, c := range m.SeenChunks {
		if c == chunkID {
			return true
		}
	}
	return false
}

// MessageMeta is the typed representation of the Message metadata column.
type MessageMeta struct {
	MergedFrom string `json:"merged_from,omitempty"`
	QuestionID string `json:"question_id,omitempty"`
}

// QuestionMeta is the typed representation of the Question metadata column.
// ChunkID is the chunk sequence number (as a string) the question belongs to.
type QuestionMeta struct {
	ChunkID string `json:"chunk_id,omitempty"`
}
