package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/convoagent/server/internal/agent/graph/prompts"
	"github.com/convoagent/server/internal/agent/model"
	"github.com/convoagent/server/internal/agent/tools"
	logx "github.com/convoagent/server/pkg/logger"
)

// runPhase enumerates the states of the generate/act loop.
type runPhase int

const (
	phaseChat runPhase = iota
	phaseTool
	phaseDone
)

// streamBufferSize bounds the event channel so a slow consumer applies
// backpressure to the producing run instead of buffering without limit.
const streamBufferSize = 32

// Config holds everything needed to compose the executor end-to-end.
type Config struct {
	APIKey  string
	BaseURL string

	ChatModel    model.ChatModelConfig
	Prompt       model.PromptConfig
	Conversation model.ConversationConfig

	// AttemptTimeout bounds each individual model call so a stalled provider
	// cannot hold a session lock indefinitely.
	AttemptTimeout time.Duration

	Store    model.CheckpointStore
	Registry *tools.Registry
}

// Executor composes the chat and tool nodes into an explicit state machine
// and owns the Run/Stream/History/Clear operations for all sessions.
// Execution for one session is serialized; unrelated sessions run in
// parallel.
type Executor struct {
	store         model.CheckpointStore
	chat          *chatNode
	tools         *toolNode
	maxToolRounds int
	locks         *sessionLocks
}

// runState is the working state of one run: the session's full message
// history plus loop-local counters. Owned exclusively by the executor while
// the session lock is held.
type runState struct {
	sessionID     string
	userID        string
	messages      []*schema.Message
	toolRounds    int
	toolCallIDSeq int
	wrapUpIssued  bool
	costUSD       float64
}

// New builds the chat models, renders the system prompt, and returns a ready
// executor.
func New(ctx context.Context, cfg Config) (*Executor, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("checkpoint store is nil")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}

	cms, err := NewChatModels(ctx, ChatModelParams{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Config:    cfg.ChatModel,
		ToolInfos: cfg.Registry.Infos(),
	})
	if err != nil {
		return nil, err
	}

	systemPrompt, err := prompts.RenderSystem(ctx, cfg.Prompt)
	if err != nil {
		return nil, err
	}

	chat := &chatNode{
		models:       cms,
		systemPrompt: systemPrompt,
		tokenBudget:  cfg.Conversation.TokenBudget,
		maxRetries:   normalizeMaxRetries(cfg.ChatModel.MaxRetries),
		timeout:      cfg.AttemptTimeout,
	}

	logx.Debug().
		Str("model", cms.PrimaryName).
		Str("fallback_model", cms.FallbackName).
		Int("tools", cfg.Registry.Len()).
		Msg("executor built")
	return newExecutor(cfg.Store, chat, &toolNode{registry: cfg.Registry}, cfg.Conversation.Tools.MaxRounds), nil
}

// newExecutor wires pre-built nodes; tests use it to inject stub models.
func newExecutor(store model.CheckpointStore, chat *chatNode, tn *toolNode, maxToolRounds int) *Executor {
	return &Executor{
		store:         store,
		chat:          chat,
		tools:         tn,
		maxToolRounds: normalizeMaxToolRounds(maxToolRounds),
		locks:         newSessionLocks(),
	}
}

// Run executes the state machine to completion for one batch request,
// persists the final state, and returns the filtered conversation view.
func (e *Executor) Run(ctx context.Context, messages []model.Message, sessionID, userID string) ([]model.Message, error) {
	unlock, err := e.locks.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := e.seed(ctx, sessionID, userID, messages)
	if err != nil {
		return nil, err
	}

	if err := e.loop(ctx, st, nil); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("run failed")
		return nil, err
	}

	if err := e.store.Save(ctx, &model.ConversationState{SessionID: sessionID, Messages: st.messages}); err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}

	logx.Info().
		Str("session_id", sessionID).
		Str("user_id", st.userID).
		Int("messages", len(st.messages)).
		Int("tool_rounds", st.toolRounds).
		Float64("cost_usd", st.costUSD).
		Msg("run completed")
	return filterView(st.messages), nil
}

// Stream executes the same state machine but yields model output fragments
// as they are produced. The returned channel carries zero or more content
// events followed by exactly one Done event: empty content on success, the
// error text on failure. Cancelling ctx aborts the underlying generation.
func (e *Executor) Stream(ctx context.Context, messages []model.Message, sessionID, userID string) <-chan model.StreamEvent {
	events := make(chan model.StreamEvent, streamBufferSize)

	go func() {
		defer close(events)

		send := func(ev model.StreamEvent) error {
			select {
			case events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		fail := func(err error) {
			logx.Error().Err(err).Str("session_id", sessionID).Msg("stream failed")
			// Best effort: the terminal event is dropped when the consumer is
			// already gone.
			_ = send(model.StreamEvent{Content: err.Error(), Done: true})
		}

		unlock, err := e.locks.acquire(ctx, sessionID)
		if err != nil {
			fail(err)
			return
		}
		defer unlock()

		st, err := e.seed(ctx, sessionID, userID, messages)
		if err != nil {
			fail(err)
			return
		}

		emit := func(fragment string) error {
			return send(model.StreamEvent{Content: fragment})
		}
		if err := e.loop(ctx, st, emit); err != nil {
			fail(err)
			return
		}

		if err := e.store.Save(ctx, &model.ConversationState{SessionID: sessionID, Messages: st.messages}); err != nil {
			fail(fmt.Errorf("save checkpoint: %w", err))
			return
		}

		logx.Info().
			Str("session_id", sessionID).
			Str("user_id", st.userID).
			Int("messages", len(st.messages)).
			Int("tool_rounds", st.toolRounds).
			Float64("cost_usd", st.costUSD).
			Msg("stream completed")
		_ = send(model.StreamEvent{Done: true})
	}()

	return events
}

// History returns the persisted conversation for the session in the same
// filtered view Run produces. Missing sessions yield an empty slice.
func (e *Executor) History(ctx context.Context, sessionID string) ([]model.Message, error) {
	state, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return filterView(state.Messages), nil
}

// Clear deletes all checkpoint data for the session. Clearing a session that
// does not exist is a no-op.
func (e *Executor) Clear(ctx context.Context, sessionID string) error {
	unlock, err := e.locks.acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	return e.store.Delete(ctx, sessionID)
}

// seed loads any previously checkpointed state for the session and appends
// the incoming messages to it.
func (e *Executor) seed(ctx context.Context, sessionID, userID string, incoming []model.Message) (*runState, error) {
	state, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	return &runState{
		sessionID: sessionID,
		userID:    userID,
		messages:  append(state.Messages, toSchemaMessages(incoming)...),
	}, nil
}

// loop drives the CHAT -> (TOOL -> CHAT)* -> DONE state machine. When emit is
// non-nil, chat turns stream their fragments through it.
func (e *Executor) loop(ctx context.Context, st *runState, emit func(string) error) error {
	phase := phaseChat
	for phase != phaseDone {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch phase {
		case phaseChat:
			var out *schema.Message
			var err error
			if emit != nil {
				out, err = e.chat.generateStream(ctx, st, emit)
			} else {
				out, err = e.chat.generate(ctx, st)
			}
			if err != nil {
				return err
			}

			// After the wrap-up notice the next assistant turn is final.
			// Tool calls it still issues are dropped before persisting:
			// checkpointing them unresolved would poison later runs, since
			// providers reject histories with unanswered calls.
			if st.wrapUpIssued && len(out.ToolCalls) > 0 {
				logx.Warn().
					Str("session_id", st.sessionID).
					Int("dropped_tool_calls", len(out.ToolCalls)).
					Msg("ignoring tool calls issued after wrap-up notice")
				out.ToolCalls = nil
			}
			st.messages = append(st.messages, out)

			if len(out.ToolCalls) == 0 {
				phase = phaseDone
			} else {
				phase = phaseTool
			}

		case phaseTool:
			st.toolRounds++
			last := st.messages[len(st.messages)-1]
			results, err := e.tools.resolve(ctx, st.sessionID, last)
			if err != nil {
				return err
			}
			st.messages = append(st.messages, results...)

			if st.toolRounds >= e.maxToolRounds && !st.wrapUpIssued {
				logx.Warn().
					Str("session_id", st.sessionID).
					Int("tool_rounds", st.toolRounds).
					Int("max_tool_rounds", e.maxToolRounds).
					Msg("tool round limit reached, asking model to wrap up")
				st.messages = append(st.messages, wrapUpNotice(e.maxToolRounds))
				st.wrapUpIssued = true
			}
			phase = phaseChat
		}
	}
	return nil
}

// wrapUpNotice tells the model the tool budget is spent and it must answer
// with what it has.
func wrapUpNotice(maxRounds int) *schema.Message {
	return schema.SystemMessage(fmt.Sprintf(
		"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
			"Please synthesize a helpful response using the information you've already gathered. "+
			"Acknowledge any limitations in your response if you couldn't complete all necessary tool calls.",
		maxRounds,
	))
}

// filterView keeps only user and assistant turns with non-empty content, the
// shape surfaced to callers. System and tool turns stay in the checkpoint for
// resumption and correlation.
func filterView(msgs []*schema.Message) []model.Message {
	out := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		if (m.Role == schema.User || m.Role == schema.Assistant) && strings.TrimSpace(m.Content) != "" {
			out = append(out, model.Message{Role: string(m.Role), Content: m.Content})
		}
	}
	return out
}

// toSchemaMessages converts the validated boundary messages into the wire
// message type used internally.
func toSchemaMessages(in []model.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(in))
	for _, m := range in {
		switch m.Role {
		case string(schema.System):
			out = append(out, schema.SystemMessage(m.Content))
		case string(schema.Assistant):
			out = append(out, schema.AssistantMessage(m.Content, nil))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}

const (
	defaultMaxRetries    = 3
	defaultMaxToolRounds = 10
)

func normalizeMaxRetries(n int) int {
	if n <= 0 {
		return defaultMaxRetries
	}
	return n
}

func normalizeMaxToolRounds(n int) int {
	if n <= 0 {
		return defaultMaxToolRounds
	}
	return n
}
