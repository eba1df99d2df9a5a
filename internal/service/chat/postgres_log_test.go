package chat_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/concierge/backend/internal/database"
	"github.com/zhouzirui/concierge/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/concierge/backend/internal/service/chat"
)

// Runs only against a real database: TEST_DATABASE_URL=postgres://... go test ./...
func TestPostgresLogRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	l := chatservice.NewPostgresLog(pool)
	tenantID := "test-" + uuid.NewString()
	convID := uuid.NewString()
	at := time.Now().UTC().Truncate(time.Microsecond)

	for _, m := range []chat.Message{
		{ConversationID: convID, TenantID: tenantID, Role: chat.RoleUser, Content: "hi", CreatedAt: at},
		{ConversationID: convID, TenantID: tenantID, Role: chat.RoleAssistant, Content: "hello", CreatedAt: at},
	} {
		if err := l.AppendMessage(ctx, m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if _, err := l.UpsertConversation(ctx, tenantID, convID, at); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	conv, err := l.UpsertConversation(ctx, tenantID, convID, at.Add(time.Minute))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if conv.MessageCount != 4 {
		t.Fatalf("expected 4 messages after two turns, got %d", conv.MessageCount)
	}

	if _, err := l.UpsertConversation(ctx, "other-"+tenantID, convID, at.Add(time.Hour)); !errors.Is(err, chatservice.ErrConversationOwned) {
		t.Fatalf("expected ErrConversationOwned for another tenant, got %v", err)
	}
	if conv, _ := l.Conversation(ctx, convID); conv.MessageCount != 4 || conv.TenantID != tenantID {
		t.Fatalf("owner's conversation changed: %+v", conv)
	}

	transcript, err := l.Transcript(ctx, convID)
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(transcript) != 2 || transcript[0].Role != chat.RoleUser || transcript[1].Role != chat.RoleAssistant {
		t.Fatalf("unexpected transcript %+v", transcript)
	}

	msgs, err := l.MessagesSince(ctx, tenantID, at)
	if err != nil || len(msgs) != 2 {
		t.Fatalf("MessagesSince = %d, %v", len(msgs), err)
	}
	convs, err := l.ConversationsSince(ctx, tenantID, at)
	if err != nil || len(convs) != 1 {
		t.Fatalf("ConversationsSince = %d, %v", len(convs), err)
	}
}
