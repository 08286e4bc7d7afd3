package model

// Message is the external view of one conversational turn. Only user and
// assistant turns with non-empty content are surfaced to callers; the full
// history, tool and system turns included, lives in the checkpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamEvent is one fragment of a streamed response. A Done event with empty
// Content marks normal completion. A Done event with non-empty Content
// carries a terminal error description so clients can tell the two apart.
type StreamEvent struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
}
