package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/convoagent/server/internal/agent/tools"
	logx "github.com/convoagent/server/pkg/logger"
)

// toolNode resolves every tool call attached to the most recent assistant
// message against the registry.
type toolNode struct {
	registry *tools.Registry
}

// resolve executes the pending calls sequentially, in issue order, and
// returns one tool message per call carrying the originating call id. An
// unknown tool name aborts the turn: it indicates a model/tool-catalogue
// mismatch, and skipping it silently would leave the call unresolved.
func (t *toolNode) resolve(ctx context.Context, sessionID string, assistant *schema.Message) ([]*schema.Message, error) {
	results := make([]*schema.Message, 0, len(assistant.ToolCalls))
	for _, call := range assistant.ToolCalls {
		name := call.Function.Name
		tl, ok := t.registry.Lookup(name)
		if !ok {
			logx.Error().
				Str("session_id", sessionID).
				Str("tool", name).
				Msg("model requested an unregistered tool")
			return nil, fmt.Errorf("unknown tool %q requested by model", name)
		}

		out, err := tl.InvokableRun(ctx, call.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", name, err)
		}

		logx.Debug().
			Str("session_id", sessionID).
			Str("tool", name).
			Str("tool_call_id", call.ID).
			Msg("tool call resolved")
		results = append(results, schema.ToolMessage(out, call.ID, schema.WithToolName(name)))
	}
	return results, nil
}
