package domain

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single provider-agnostic chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
