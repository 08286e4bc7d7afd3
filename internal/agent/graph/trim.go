package graph

import (
	"github.com/cloudwego/eino/schema"
)

// estimateTokens approximates the token footprint of a message. Four bytes
// per token tracks the Gemini tokenizer closely enough for budget trimming.
func estimateTokens(msg *schema.Message) int {
	if msg == nil {
		return 0
	}
	n := len(msg.Content)/4 + 4
	for _, tc := range msg.ToolCalls {
		n += (len(tc.Function.Name) + len(tc.Function.Arguments)) / 4
	}
	if msg.ToolCallID != "" {
		n += len(msg.ToolCallID) / 4
	}
	return n
}

// prepareMessages injects the system prompt ahead of the history and evicts
// oldest messages until the remainder fits the token budget. The system
// prompt is always kept, messages are never split, and at least the newest
// message survives even when it alone exceeds the budget.
func prepareMessages(systemPrompt string, history []*schema.Message, tokenBudget int) []*schema.Message {
	sys := schema.SystemMessage(systemPrompt)
	if tokenBudget <= 0 {
		return append([]*schema.Message{sys}, history...)
	}

	// When the tail of the history is pending tool results, the whole exchange
	// back to the assistant turn that issued the calls is pinned along with
	// the newest message: the model must always see its own pending calls next
	// to their results.
	floor := len(history) - 1
	for floor > 0 && history[floor] != nil && history[floor].Role == schema.Tool {
		floor--
	}

	budget := tokenBudget - estimateTokens(sys)
	start := len(history)
	total := 0
	for i := len(history) - 1; i >= 0; i-- {
		t := estimateTokens(history[i])
		if i < floor && total+t > budget {
			break
		}
		total += t
		start = i
	}

	// Never open the window on a tool result whose originating assistant turn
	// was evicted; providers reject orphaned tool messages.
	for start < floor && history[start] != nil && history[start].Role == schema.Tool {
		start++
	}

	return append([]*schema.Message{sys}, history[start:]...)
}
