package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhouzirui/concierge/backend/internal/model/chat"
)

// PostgresLog stores conversations and messages in Postgres.
// Tables are created by database.Migrate.
type PostgresLog struct {
	pool *pgxpool.Pool
}

// NewPostgresLog wraps an open pool.
func NewPostgresLog(pool *pgxpool.Pool) *PostgresLog {
	return &PostgresLog{pool: pool}
}

// AppendMessage implements Log.
func (l *PostgresLog) AppendMessage(ctx context.Context, m chat.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := l.pool.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, tenant_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.ConversationID, m.TenantID, string(m.Role), m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// UpsertConversation implements Log.
func (l *PostgresLog) UpsertConversation(ctx context.Context, tenantID, conversationID string, at time.Time) (chat.Conversation, error) {
	var conv chat.Conversation
	err := l.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, tenant_id, message_count, started_at, ended_at, language_detected)
		VALUES ($1, $2, $3, $4, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET message_count = conversations.message_count + EXCLUDED.message_count,
		              ended_at = EXCLUDED.ended_at
		WHERE conversations.tenant_id = EXCLUDED.tenant_id
		RETURNING id, tenant_id, message_count, started_at, ended_at, language_detected
	`, conversationID, tenantID, chat.TurnMessages, at, chat.DefaultLanguage).Scan(
		&conv.ID, &conv.TenantID, &conv.MessageCount, &conv.StartedAt, &conv.EndedAt, &conv.LanguageDetected,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// The conflicting row belongs to another tenant, so the update matched nothing.
		return chat.Conversation{}, ErrConversationOwned
	}
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("upsert conversation: %w", err)
	}
	return conv, nil
}

// Conversation implements Log.
func (l *PostgresLog) Conversation(ctx context.Context, conversationID string) (chat.Conversation, error) {
	var conv chat.Conversation
	err := l.pool.QueryRow(ctx, `
		SELECT id, tenant_id, message_count, started_at, ended_at, language_detected
		FROM conversations
		WHERE id = $1
	`, conversationID).Scan(
		&conv.ID, &conv.TenantID, &conv.MessageCount, &conv.StartedAt, &conv.EndedAt, &conv.LanguageDetected,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("select conversation: %w", err)
	}
	return conv, nil
}

// Transcript implements Log.
func (l *PostgresLog) Transcript(ctx context.Context, conversationID string) ([]chat.Message, error) {
	return l.queryMessages(ctx, `
		SELECT id, conversation_id, tenant_id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, seq ASC
	`, conversationID)
}

// ConversationsSince implements Log.
func (l *PostgresLog) ConversationsSince(ctx context.Context, tenantID string, since time.Time) ([]chat.Conversation, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, tenant_id, message_count, started_at, ended_at, language_detected
		FROM conversations
		WHERE tenant_id = $1 AND started_at >= $2
		ORDER BY started_at ASC
	`, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("select conversations: %w", err)
	}
	defer rows.Close()

	var out []chat.Conversation
	for rows.Next() {
		var conv chat.Conversation
		if err := rows.Scan(&conv.ID, &conv.TenantID, &conv.MessageCount, &conv.StartedAt, &conv.EndedAt, &conv.LanguageDetected); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read conversations: %w", err)
	}
	return out, nil
}

// MessagesSince implements Log.
func (l *PostgresLog) MessagesSince(ctx context.Context, tenantID string, since time.Time) ([]chat.Message, error) {
	return l.queryMessages(ctx, `
		SELECT id, conversation_id, tenant_id, role, content, created_at
		FROM messages
		WHERE tenant_id = $1 AND created_at >= $2
		ORDER BY created_at ASC, seq ASC
	`, tenantID, since)
}

func (l *PostgresLog) queryMessages(ctx context.Context, sql string, args ...any) ([]chat.Message, error) {
	rows, err := l.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var (
			m    chat.Message
			role string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.TenantID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = chat.Role(role)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	return out, nil
}
