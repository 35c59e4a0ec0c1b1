package queue

import (
	"context"
	"fmt"

	"github.com/docupilot-ai/docupilot/ent"
)

// EntSessions opens one transaction per task against a shared ent client.
type EntSessions struct {
	client *ent.Client
}

// NewEntSessions creates a SessionFactory backed by the given client.
func NewEntSessions(client *ent.Client) *EntSessions {
	return &EntSessions{client: client}
}

// NewSession opens a transaction and wraps it as a TaskSession.
func (s *EntSessions) NewSession(ctx context.Context) (TaskSession, error) {
	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening task transaction: %w", err)
	}
	return &entSession{tx: tx}, nil
}

type entSession struct {
	tx *ent.Tx
}

func (s *entSession) Client() *ent.Client { return s.tx.Client() }
func (s *entSession) Commit() error       { return s.tx.Commit() }
func (s *entSession) Rollback() error     { return s.tx.Rollback() }
