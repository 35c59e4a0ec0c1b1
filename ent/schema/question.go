package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/docupilot-ai/docupilot/pkg/models"
)

// Question holds the schema definition for the Question entity.
// Suggested questions generated per (conversation, chunk); answered=true is
// terminal and regeneration marks all prior questions answered.
type Question struct {
	ent.Schema
}

// Fields of the Question.
func (Question) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("question_id").
			Unique().
			Immutable(),
		field.String("conversation_id").
			Immutable(),
		field.Text("content"),
		field.Bool("answered").
			Default(false),
		field.JSON("meta", models.QuestionMeta{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Question.
func (Question) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("conversation", Conversation.Type).
			Ref("questions").
			Field("conversation_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Question.
func (Question) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("conversation_id", "answered"),
		index.Fields("conversation_id", "created_at"),
	}
}
