package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/docupilot-ai/docupilot/pkg/models"
)

// Document holds the schema definition for the Document entity.
// A document is owned by a user, or unowned when it belongs to the curated
// example set (globally readable, un-writable by end users).
type Document struct {
	ent.Schema
}

// Fields of the Document.
func (Document) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("document_id").
			Unique().
			Immutable(),
		field.String("owner_id").
			Optional().
			Nillable().
			Comment("Nil for curated example documents"),
		field.String("title"),
		field.Text("full_text").
			Comment("Normalized text produced by ingest"),
		field.Enum("status").
			Values("processing", "ready", "failed").
			Default("processing"),
		field.String("blob_path").
			Optional().
			Nillable().
			Comment("Opaque object-store address of the original file"),
		field.JSON("meta", models.DocumentMeta{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Document.
func (Document) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("owner", User.Type).
			Ref("documents").
			Field("owner_id").
			Unique(),
		edge.To("chunks", DocumentChunk.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("conversations", Conversation.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Document.
func (Document) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("owner_id", "created_at"),
	}
}
