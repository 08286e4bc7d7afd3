package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// CheckpointStore persists one snapshot per session: the full ordered message
// history, including system and tool turns. Save overwrites last-write-wins;
// Delete is idempotent. A Save must be visible to a subsequent Load issued by
// any process so conversations survive restarts.
type CheckpointStore interface {
	// Load retrieves the snapshot for a session. A missing session yields a
	// state with an empty message list, not an error.
	Load(ctx context.Context, sessionID string) (*ConversationState, error)

	// Save replaces the snapshot for the state's session.
	Save(ctx context.Context, state *ConversationState) error

	// Delete removes all checkpoint data for the session.
	Delete(ctx context.Context, sessionID string) error
}

// ConversationState is the unit of checkpointing. Messages are append-only
// and never reordered or deduplicated.
type ConversationState struct {
	SessionID string            `json:"session_id"`
	Messages  []*schema.Message `json:"messages"`
}
