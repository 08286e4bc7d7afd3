package graph

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareMessagesKeepsEverythingWithoutBudget(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage("one"),
		schema.AssistantMessage("two", nil),
	}

	out := prepareMessages("sys", history, 0)

	require.Len(t, out, 3)
	assert.Equal(t, schema.System, out[0].Role)
	assert.Equal(t, "sys", out[0].Content)
	assert.Equal(t, "one", out[1].Content)
}

func TestPrepareMessagesEvictsOldestFirst(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage(strings.Repeat("a", 400)),
		schema.AssistantMessage(strings.Repeat("b", 400), nil),
		schema.UserMessage("newest"),
	}

	// Budget that fits the system prompt, the newest message, and one more.
	out := prepareMessages("sys", history, 130)

	require.GreaterOrEqual(t, len(out), 2)
	assert.Equal(t, schema.System, out[0].Role)
	assert.Equal(t, "newest", out[len(out)-1].Content)
	// The oldest message is the one evicted.
	for _, m := range out[1:] {
		assert.NotEqual(t, strings.Repeat("a", 400), m.Content)
	}
}

func TestPrepareMessagesAlwaysKeepsNewestMessage(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage(strings.Repeat("x", 10000)),
	}

	out := prepareMessages("sys", history, 50)

	require.Len(t, out, 2)
	assert.Equal(t, schema.User, out[1].Role)
}

func TestPrepareMessagesSkipsOrphanedToolResults(t *testing.T) {
	bigArgs := `{"query":"` + strings.Repeat("a", 120) + `"}`
	history := []*schema.Message{
		schema.UserMessage(strings.Repeat("u", 1000)),
		schema.AssistantMessage("", []schema.ToolCall{toolCall("1", "search", bigArgs)}),
		schema.ToolMessage("result", "1"),
		schema.UserMessage("follow-up"),
		schema.AssistantMessage("answer", nil),
	}

	// A budget that cuts between the assistant tool-call turn and its result,
	// which would leave the tool message orphaned at the window head.
	out := prepareMessages("sys", history, 40)

	// The orphaned tool result is dropped along with its assistant turn.
	require.Greater(t, len(out), 1)
	assert.NotEqual(t, schema.Tool, out[1].Role)
	for _, m := range out {
		assert.NotEqual(t, schema.Tool, m.Role)
	}
	assert.Equal(t, "follow-up", out[1].Content)
	assert.Equal(t, "answer", out[len(out)-1].Content)
}

func TestPrepareMessagesPinsPendingToolResults(t *testing.T) {
	bigArgs := `{"query":"` + strings.Repeat("a", 2000) + `"}`
	history := []*schema.Message{
		schema.UserMessage(strings.Repeat("u", 2000)),
		schema.AssistantMessage("", []schema.ToolCall{toolCall("1", "search", bigArgs)}),
		schema.ToolMessage("result", "1"),
	}

	// Budget far smaller than the pending exchange: the tool-call turn and
	// its result must still reach the model, only older turns get evicted.
	out := prepareMessages("sys", history, 60)

	require.Len(t, out, 3)
	assert.Equal(t, schema.System, out[0].Role)
	require.Len(t, out[1].ToolCalls, 1)
	assert.Equal(t, "1", out[1].ToolCalls[0].ID)
	assert.Equal(t, schema.Tool, out[2].Role)
	assert.Equal(t, "1", out[2].ToolCallID)
}

func TestPrepareMessagesPinsMultipleTrailingToolResults(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage(strings.Repeat("u", 2000)),
		schema.AssistantMessage("", []schema.ToolCall{
			toolCall("1", "search", `{"query":"x"}`),
			toolCall("2", "calc", `{"operation":"add","a":1,"b":2}`),
		}),
		schema.ToolMessage("first", "1"),
		schema.ToolMessage("second", "2"),
	}

	out := prepareMessages("sys", history, 40)

	require.Len(t, out, 4)
	assert.Len(t, out[1].ToolCalls, 2)
	assert.Equal(t, "1", out[2].ToolCallID)
	assert.Equal(t, "2", out[3].ToolCallID)
}

func TestEstimateTokensCountsToolCalls(t *testing.T) {
	plain := schema.UserMessage("hello")
	withCalls := schema.AssistantMessage("", []schema.ToolCall{
		toolCall("1", "search", `{"query":"a longer argument payload"}`),
	})

	assert.Greater(t, estimateTokens(withCalls), 0)
	assert.Greater(t, estimateTokens(plain), 0)
	assert.Equal(t, 0, estimateTokens(nil))
}
