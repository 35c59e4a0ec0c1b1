// Code generated by ent, DO NOT EDIT.

package predicate

import (
	"entgo.io/ent/dialect/sql"
)

// Conversation is the predicate function for conversation builders.
type Conversation func(*sql.Selector)

// Document is the predicate function for document builders.
type Document func(*sql.Selector)

// DocumentChunk is the predicate function for documentchunk builders.
type DocumentChunk func(*sql.Selector)

// Message is the predicate function for message builders.
type Message func(*sql.Selector)

// Question is the predicate function for question builders.
type Question func(*sql.Selector)

// User is the predicate function for user builders.
type User func(*sql.Selector)
