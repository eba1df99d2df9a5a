package chat

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one logged turn. Messages are append-only.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	TenantID       string    `json:"tenantId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}
