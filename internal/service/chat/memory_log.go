package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/concierge/backend/internal/model/chat"
)

// MemoryLog keeps conversations in process memory. Used when no database is configured.
type MemoryLog struct {
	mu            sync.RWMutex
	conversations map[string]chat.Conversation
	messages      []chat.Message
}

// NewMemoryLog returns an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		conversations: make(map[string]chat.Conversation),
		messages:      make([]chat.Message, 0, 64),
	}
}

// AppendMessage stores a message, assigning an id and timestamp when missing.
func (l *MemoryLog) AppendMessage(_ context.Context, message chat.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	l.mu.Lock()
	l.messages = append(l.messages, message)
	l.mu.Unlock()
	return nil
}

// UpsertConversation implements Log.
func (l *MemoryLog) UpsertConversation(_ context.Context, tenantID, conversationID string, at time.Time) (chat.Conversation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	conv, ok := l.conversations[conversationID]
	if ok && conv.TenantID != tenantID {
		return chat.Conversation{}, ErrConversationOwned
	}
	if !ok {
		conv = chat.Conversation{
			ID:               conversationID,
			TenantID:         tenantID,
			StartedAt:        at,
			LanguageDetected: chat.DefaultLanguage,
		}
	}
	conv.MessageCount += chat.TurnMessages
	conv.EndedAt = at

	l.conversations[conversationID] = conv
	return conv, nil
}

// Conversation implements Log.
func (l *MemoryLog) Conversation(_ context.Context, conversationID string) (chat.Conversation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	conv, ok := l.conversations[conversationID]
	if !ok {
		return chat.Conversation{}, ErrConversationNotFound
	}
	return conv, nil
}

// Transcript implements Log.
func (l *MemoryLog) Transcript(_ context.Context, conversationID string) ([]chat.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []chat.Message
	for _, m := range l.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ConversationsSince implements Log.
func (l *MemoryLog) ConversationsSince(_ context.Context, tenantID string, since time.Time) ([]chat.Conversation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []chat.Conversation
	for _, conv := range l.conversations {
		if conv.TenantID == tenantID && !conv.StartedAt.Before(since) {
			out = append(out, conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

// MessagesSince implements Log.
func (l *MemoryLog) MessagesSince(_ context.Context, tenantID string, since time.Time) ([]chat.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []chat.Message
	for _, m := range l.messages {
		if m.TenantID == tenantID && !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
