package repo

import (
	"context"
	"sync"

	"github.com/convoagent/server/internal/agent/model"
	"github.com/cloudwego/eino/schema"
)

// MemoryCheckpointStore keeps snapshots in process memory. It backs tests and
// the degraded mode where the Redis backend is unavailable and checkpointing
// is not required: conversations still work, they just don't survive restarts.
type MemoryCheckpointStore struct {
	mu     sync.RWMutex
	states map[string][]*schema.Message
}

func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{states: make(map[string][]*schema.Message)}
}

func (m *MemoryCheckpointStore) Load(ctx context.Context, sessionID string) (*model.ConversationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.states[sessionID]
	out := make([]*schema.Message, len(msgs))
	copy(out, msgs)
	return &model.ConversationState{SessionID: sessionID, Messages: out}, nil
}

func (m *MemoryCheckpointStore) Save(ctx context.Context, state *model.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := make([]*schema.Message, len(state.Messages))
	copy(msgs, state.Messages)
	m.states[state.SessionID] = msgs
	return nil
}

func (m *MemoryCheckpointStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, sessionID)
	return nil
}

var _ model.CheckpointStore = (*MemoryCheckpointStore)(nil)
