package chat

import (
	"context"
	"errors"
	"time"

	"github.com/zhouzirui/concierge/backend/internal/model/chat"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrConversationOwned is returned when a conversation id already belongs to another tenant.
	ErrConversationOwned = errors.New("conversation belongs to another tenant")
)

// Log is the durable record of conversations and their messages.
// Implementations must be safe for concurrent use.
type Log interface {
	AppendMessage(ctx context.Context, message chat.Message) error
	// UpsertConversation creates the conversation with chat.TurnMessages messages,
	// or adds chat.TurnMessages to an existing one and moves EndedAt to at.
	// An existing conversation of another tenant is left untouched and ErrConversationOwned returned.
	UpsertConversation(ctx context.Context, tenantID, conversationID string, at time.Time) (chat.Conversation, error)
	Conversation(ctx context.Context, conversationID string) (chat.Conversation, error)
	Transcript(ctx context.Context, conversationID string) ([]chat.Message, error)
	// ConversationsSince returns conversations of a tenant started at or after since.
	ConversationsSince(ctx context.Context, tenantID string, since time.Time) ([]chat.Conversation, error)
	// MessagesSince returns messages of a tenant created at or after since, oldest first.
	MessagesSince(ctx context.Context, tenantID string, since time.Time) ([]chat.Message, error)
}
