package graph

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestModelForDowngradesOnFinalAttempt(t *testing.T) {
	primary := &stubChatModel{}
	fallback := &stubChatModel{}
	cms := &ChatModels{
		Primary:      primary,
		Fallback:     fallback,
		PrimaryName:  "primary",
		FallbackName: "fallback",
	}

	cases := []struct {
		attempt    int
		maxRetries int
		want       string
	}{
		{0, 3, "primary"},
		{1, 3, "primary"},
		{2, 3, "fallback"},
		{0, 1, "primary"}, // single attempt never downgrades
		{1, 2, "fallback"},
	}
	for _, tc := range cases {
		_, name := cms.modelFor(tc.attempt, tc.maxRetries)
		assert.Equal(t, tc.want, name, "attempt %d of %d", tc.attempt, tc.maxRetries)
	}
}

func TestNormalizeToolCallIDs(t *testing.T) {
	seq := 0
	msg := schema.AssistantMessage("", []schema.ToolCall{
		toolCall("", "search", `{}`),
		toolCall("existing", "calc", `{}`),
		toolCall("  ", "search", `{}`),
	})

	normalizeToolCallIDs(msg, &seq)

	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "existing", msg.ToolCalls[1].ID)
	assert.Equal(t, "call_2", msg.ToolCalls[2].ID)
	assert.Equal(t, 2, seq)

	// nil message is a no-op
	normalizeToolCallIDs(nil, &seq)
	assert.Equal(t, 2, seq)
}
