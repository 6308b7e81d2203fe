package agent

import (
	"encoding/json"
	"time"
)

// Run statuses reported by the remote platform. The set is remote-defined;
// anything outside the in-progress pair is terminal.
const (
	RunStatusQueued     = "queued"
	RunStatusInProgress = "in_progress"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
	RunStatusCancelled  = "cancelled"
	RunStatusExpired    = "expired"
)

// Thread references a remote-managed conversation context.
type Thread struct {
	ID string `json:"id"`
}

// Run is a remote-managed unit of agent processing against a thread.
type Run struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// InProgress reports whether the run has not yet reached a terminal state.
func (r Run) InProgress() bool {
	return r.Status == RunStatusQueued || r.Status == RunStatusInProgress
}

// Succeeded reports whether the run reached a successful terminal state.
func (r Run) Succeeded() bool {
	return r.Status == RunStatusCompleted
}

// Message is a single thread entry with its content resolved to plain text.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// TurnResult is the outcome of one full conversational turn.
type TurnResult struct {
	ThreadID string    `json:"threadId"`
	Messages []Message `json:"messages"`
	Run      Run       `json:"run"`
}

// wireMessage is the upstream message representation. Content is kept raw
// because the platform nests it in several shapes.
type wireMessage struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	CreatedAt int64           `json:"created_at"`
}

// messageList is the upstream list envelope. Data is kept raw so a
// missing or non-array list can be treated as empty instead of failing.
type messageList struct {
	Data json.RawMessage `json:"data"`
}

func (l messageList) entries() []wireMessage {
	if len(l.Data) == 0 {
		return nil
	}
	var wire []wireMessage
	if err := json.Unmarshal(l.Data, &wire); err != nil {
		return nil
	}
	return wire
}

func (m wireMessage) toMessage() Message {
	createdAt := time.Now().UTC()
	if m.CreatedAt > 0 {
		createdAt = time.Unix(m.CreatedAt, 0).UTC()
	}
	return Message{
		ID:        m.ID,
		Role:      m.Role,
		Content:   normalizeContent(m.Content),
		CreatedAt: createdAt,
	}
}
