package chat

import "time"

// Turn 会话中的一条消息，追加后不可变。
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Turn roles as sent to the LLM transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// NewTurn stamps a turn with the current UTC time.
func NewTurn(role, content string) Turn {
	return Turn{Role: role, Content: content, Timestamp: time.Now().UTC()}
}
