// Code generated by ent, DO NOT EDIT.

package ent

import (
	"time"

	"github.com/docupilot-ai/docupilot/ent/conversation"
	"github.com/docupilot-ai/docupilot/ent/document"
	"github.com/docupilot-ai/docupilot/ent/documentchunk"
	"github.com/docupilot-ai/docupilot/ent/message"
	"github.com/docupilot-ai/docupilot/ent/question"
	"github.com/docupilot-ai/docupilot/ent/schema"
	"github.com/docupilot-ai/docupilot/ent/user"
)

// The init function reads all schema descriptors with runtime code
// (default values, validators, hooks and policies) and stitches it
// to their package variables.
func init() {
	conversationFields := schema.Conversation{}.Fields()
	_ = conversationFields
	// conversationDescIsDemo is the schema descriptor for is_demo field.
	conversationDescIsDemo := conversationFields[4].Descriptor()
	// conversation.DefaultIsDemo holds the default value on creation for the is_demo field.
	conversation.DefaultIsDemo = conversationDescIsDemo.Default.(bool)
	// conversationDescCreatedAt is the schema descriptor for created_at field.
	conversationDescCreatedAt := conversationFields[6].Descriptor()
	// conversation.DefaultCreatedAt holds the default value on creation for the created_at field.
	conversation.DefaultCreatedAt = conversationDescCreatedAt.Default.(func() time.Time)
	documentFields := schema.Document{}.Fields()
	_ = documentFields
	// documentDescCreatedAt is the schema descriptor for created_at field.
	documentDescCreatedAt := documentFields[7].Descriptor()
	// document.DefaultCreatedAt holds the default value on creation for the created_at field.
	document.DefaultCreatedAt = documentDescCreatedAt.Default.(func() time.Time)
	documentchunkFields := schema.DocumentChunk{}.Fields()
	_ = documentchunkFields
	// documentchunkDescSequence is the schema descriptor for sequence field.
	documentchunkDescSequence := documentchunkFields[2].Descriptor()
	// documentchunk.SequenceValidator is a validator for the "sequence" field. It is called by the builders before save.
	documentchunk.SequenceValidator = documentchunkDescSequence.Validators[0].(func(int) error)
	// documentchunkDescCreatedAt is the schema descriptor for created_at field.
	documentchunkDescCreatedAt := documentchunkFields[5].Descriptor()
	// documentchunk.DefaultCreatedAt holds the default value on creation for the created_at field.
	documentchunk.DefaultCreatedAt = documentchunkDescCreatedAt.Default.(func() time.Time)
	messageFields := schema.Message{}.Fields()
	_ = messageFields
	// messageDescCreatedAt is the schema descriptor for created_at field.
	messageDescCreatedAt := messageFields[6].Descriptor()
	// message.DefaultCreatedAt holds the default value on creation for the created_at field.
	message.DefaultCreatedAt = messageDescCreatedAt.Default.(func() time.Time)
	questionFields := schema.Question{}.Fields()
	_ = questionFields
	// questionDescAnswered is the schema descriptor for answered field.
	questionDescAnswered := questionFields[3].Descriptor()
	// question.DefaultAnswered holds the default value on creation for the answered field.
	question.DefaultAnswered = questionDescAnswered.Default.(bool)
	// questionDescCreatedAt is the schema descriptor for created_at field.
	questionDescCreatedAt := questionFields[5].Descriptor()
	// question.DefaultCreatedAt holds the default value on creation for the created_at field.
	question.DefaultCreatedAt = questionDescCreatedAt.Default.(func() time.Time)
	userFields := schema.User{}.Fields()
	_ = userFields
	// userDescCostAccum is the schema descriptor for cost_accum field.
	userDescCostAccum := userFields[4].Descriptor()
	// user.DefaultCostAccum holds the default value on creation for the cost_accum field.
	user.DefaultCostAccum = userDescCostAccum.Default.(float64)
	// user.CostAccumValidator is a validator for the "cost_accum" field. It is called by the builders before save.
	user.CostAccumValidator = userDescCostAccum.Validators[0].(func(float64) error)
	// userDescCreatedAt is the schema descriptor for created_at field.
	userDescCreatedAt := userFields[5].Descriptor()
	// user.DefaultCreatedAt holds the default value on creation for the created_at field.
	user.DefaultCreatedAt = userDescCreatedAt.Default.(func() time.Time)
}
