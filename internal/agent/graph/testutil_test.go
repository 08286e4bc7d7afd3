package graph

import (
	"context"
	"sync/atomic"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/convoagent/server/internal/agent/model"
	"github.com/convoagent/server/internal/agent/tools"
)

// stubChatModel scripts model behavior for executor tests. Generate drives
// batch runs; Stream falls back to replaying the Generate result as a single
// chunk unless a dedicated stream func is provided.
type stubChatModel struct {
	calls    atomic.Int64
	generate func(ctx context.Context, msgs []*schema.Message) (*schema.Message, error)
	stream   func(ctx context.Context, msgs []*schema.Message) (*schema.StreamReader[*schema.Message], error)
}

func (s *stubChatModel) Generate(ctx context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	s.calls.Add(1)
	return s.generate(ctx, in)
}

func (s *stubChatModel) Stream(ctx context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	s.calls.Add(1)
	if s.stream != nil {
		return s.stream(ctx, in)
	}
	out, err := s.generate(ctx, in)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (s *stubChatModel) WithTools(_ []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return s, nil
}

var _ einomodel.ToolCallingChatModel = (*stubChatModel)(nil)

// scripted returns a generate func that replays the given messages in order
// and keeps returning the last one afterwards.
func scripted(outputs ...*schema.Message) func(context.Context, []*schema.Message) (*schema.Message, error) {
	i := 0
	return func(context.Context, []*schema.Message) (*schema.Message, error) {
		out := outputs[min(i, len(outputs)-1)]
		i++
		return out, nil
	}
}

func assistantToolCalls(calls ...schema.ToolCall) *schema.Message {
	return schema.AssistantMessage("", calls)
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{
		ID:   id,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

// newTestExecutor wires an executor around stub models, the default tool
// registry, and the given store.
func newTestExecutor(t *testing.T, primary, fallback einomodel.ToolCallingChatModel, store model.CheckpointStore, maxToolRounds int) *Executor {
	t.Helper()

	reg, err := tools.NewDefaultRegistry(context.Background())
	require.NoError(t, err)

	chat := &chatNode{
		models: &ChatModels{
			Primary:      primary,
			Fallback:     fallback,
			PrimaryName:  "stub-primary",
			FallbackName: "stub-fallback",
		},
		systemPrompt: "You are a test assistant.",
		maxRetries:   3,
	}
	return newExecutor(store, chat, &toolNode{registry: reg}, maxToolRounds)
}
