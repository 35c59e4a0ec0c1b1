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

// Conversation holds the schema definition for the Conversation entity.
// A document has at most one main conversation per demo scope and any number
// of highlight conversations anchored to chunks.
type Conversation struct {
	ent.Schema
}

// Fields of the Conversation.
func (Conversation) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("conversation_id").
			Unique().
			Immutable(),
		field.String("document_id").
			Immutable(),
		field.Enum("kind").
			Values("main", "highlight"),
		field.String("origin_chunk_id").
			Optional().
			Nillable().
			Comment("Chunk sequence number as a string; required for highlights"),
		field.Bool("is_demo").
			Default(false),
		field.JSON("meta", models.ConversationMeta{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Conversation.
func (Conversation) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("document", Document.Type).
			Ref("conversations").
			Field("document_id").
			Unique().
			Required().
			Immutable(),
		edge.To("messages", Message.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("questions", Question.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Conversation.
func (Conversation) Indexes() []ent.Index {
	return []ent.Index{
		// Main-conversation lookup and per-chunk listings
		index.Fields("document_id", "kind"),
		index.Fields("document_id", "origin_chunk_id"),
	}
}
