package graph

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/convoagent/server/internal/agent/model"
	logx "github.com/convoagent/server/pkg/logger"
)

// chatNode produces exactly one assistant turn from the current history,
// degrading gracefully under provider failure: immediate retries up to the
// configured budget, with the fallback model taking over the final attempt.
type chatNode struct {
	models       *ChatModels
	systemPrompt string
	tokenBudget  int
	maxRetries   int
	timeout      time.Duration
}

// generate runs the batch variant of the chat node.
func (c *chatNode) generate(ctx context.Context, st *runState) (*schema.Message, error) {
	msgs := prepareMessages(c.systemPrompt, st.messages, c.tokenBudget)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		cm, name := c.models.modelFor(attempt, c.maxRetries)

		out, err := c.invokeOnce(ctx, cm, msgs)
		if err == nil {
			c.recordUsage(st, name, out)
			normalizeToolCallIDs(out, &st.toolCallIDSeq)
			return out, nil
		}
		lastErr = err
		logx.Error().Err(err).
			Str("session_id", st.sessionID).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Str("model", name).
			Msg("model call failed")
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("no response from model after %d attempts: %w", c.maxRetries, lastErr)
}

// generateStream mirrors generate but forwards content fragments through emit
// as they arrive. Retries only apply while nothing has been delivered to the
// caller; once partial output is out, a failure belongs to the stream.
func (c *chatNode) generateStream(ctx context.Context, st *runState, emit func(string) error) (*schema.Message, error) {
	msgs := prepareMessages(c.systemPrompt, st.messages, c.tokenBudget)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		cm, name := c.models.modelFor(attempt, c.maxRetries)

		out, delivered, err := c.streamOnce(ctx, cm, msgs, emit)
		if err == nil {
			c.recordUsage(st, name, out)
			normalizeToolCallIDs(out, &st.toolCallIDSeq)
			return out, nil
		}
		lastErr = err
		logx.Error().Err(err).
			Str("session_id", st.sessionID).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Str("model", name).
			Bool("partial_output", delivered).
			Msg("model stream failed")
		if delivered || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no response from model after %d attempts: %w", c.maxRetries, lastErr)
}

// invokeOnce performs a single bounded Generate call.
func (c *chatNode) invokeOnce(ctx context.Context, cm einomodel.BaseChatModel, msgs []*schema.Message) (*schema.Message, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return cm.Generate(ctx, msgs)
}

// streamOnce performs a single bounded Stream call, emitting content chunks
// and concatenating them into the final assistant message. delivered reports
// whether any fragment reached the caller before the error.
func (c *chatNode) streamOnce(
	ctx context.Context,
	cm einomodel.BaseChatModel,
	msgs []*schema.Message,
	emit func(string) error,
) (out *schema.Message, delivered bool, err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	sr, err := cm.Stream(ctx, msgs)
	if err != nil {
		return nil, false, err
	}
	defer sr.Close()

	var chunks []*schema.Message
	for {
		chunk, recvErr := sr.Recv()
		if recvErr == io.EOF {
			break
		}
		if recvErr != nil {
			return nil, delivered, recvErr
		}
		if chunk == nil {
			continue
		}
		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			delivered = true
			if emitErr := emit(chunk.Content); emitErr != nil {
				return nil, true, emitErr
			}
		}
	}

	if len(chunks) == 0 {
		return nil, delivered, fmt.Errorf("model stream produced no output")
	}
	msg, err := schema.ConcatMessages(chunks)
	if err != nil {
		return nil, delivered, fmt.Errorf("concat stream chunks: %w", err)
	}
	return msg, delivered, nil
}

// recordUsage logs token usage and accumulates the run's USD cost when the
// provider reports usage metadata.
func (c *chatNode) recordUsage(st *runState, modelName string, out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(usage, pricing)
	st.costUSD += totalC

	logx.Debug().
		Str("session_id", st.sessionID).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("run_cost_usd", st.costUSD).
		Msg("LLM usage")
}

// normalizeToolCallIDs synthesizes ids for providers (Gemini OpenAI-compat)
// that omit them, so tool results can always be correlated to their calls.
func normalizeToolCallIDs(out *schema.Message, seq *int) {
	if out == nil {
		return
	}
	for i := range out.ToolCalls {
		if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
			*seq++
			out.ToolCalls[i].ID = fmt.Sprintf("call_%d", *seq)
		}
	}
}
