package analytics_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/concierge/backend/internal/model/chat"
	"github.com/zhouzirui/concierge/backend/internal/model/tenant"
	"github.com/zhouzirui/concierge/backend/internal/service/analytics"
	chatservice "github.com/zhouzirui/concierge/backend/internal/service/chat"
)

type stubTenants map[string]tenant.Config

func (s stubTenants) Get(id string) (tenant.Config, bool) {
	cfg, ok := s[id]
	return cfg, ok
}

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, l *chatservice.MemoryLog, role chat.Role, content string, at time.Time) {
	t.Helper()
	err := l.AppendMessage(context.Background(), chat.Message{
		TenantID:       "inn",
		ConversationID: "c-" + at.Format(time.RFC3339Nano),
		Role:           role,
		Content:        content,
		CreatedAt:      at,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func newAggregator(l *chatservice.MemoryLog) *analytics.Aggregator {
	return analytics.NewAggregator(stubTenants{"inn": {ID: "inn"}}, l, func() time.Time { return now })
}

func TestSummarizeTopQuestionsGroupsByPrefix(t *testing.T) {
	l := chatservice.NewMemoryLog()
	prefix := strings.Repeat("a", 100)

	seed(t, l, chat.RoleUser, prefix+" one", now.Add(-4*time.Hour))
	seed(t, l, chat.RoleUser, "Distinct question", now.Add(-3*time.Hour))
	seed(t, l, chat.RoleUser, prefix+" two", now.Add(-2*time.Hour))
	seed(t, l, chat.RoleUser, prefix, now.Add(-1*time.Hour))
	seed(t, l, chat.RoleAssistant, prefix+" assistant", now.Add(-30*time.Minute))

	summary, err := newAggregator(l).Summarize(context.Background(), "inn", 7)
	if err != nil {
		t.Fatal(err)
	}

	if len(summary.TopQuestions) != 2 {
		t.Fatalf("expected 2 question groups, got %+v", summary.TopQuestions)
	}
	if summary.TopQuestions[0].Count != 3 || summary.TopQuestions[0].Question != prefix {
		t.Fatalf("unexpected top question %+v", summary.TopQuestions[0])
	}
	if summary.TopQuestions[1].Question != "Distinct question" || summary.TopQuestions[1].Count != 1 {
		t.Fatalf("unexpected second question %+v", summary.TopQuestions[1])
	}
	if summary.TotalMessages != 5 {
		t.Fatalf("expected 5 messages, got %d", summary.TotalMessages)
	}
}

func TestSummarizeTopQuestionsTieKeepsFirstSeenOrder(t *testing.T) {
	l := chatservice.NewMemoryLog()
	for i, q := range []string{"b", "a", "c", "a", "b", "c"} {
		seed(t, l, chat.RoleUser, q, now.Add(-time.Duration(10-i)*time.Minute))
	}

	summary, _ := newAggregator(l).Summarize(context.Background(), "inn", 1)
	var order []string
	for _, q := range summary.TopQuestions {
		order = append(order, q.Question)
	}
	if strings.Join(order, ",") != "b,a,c" {
		t.Fatalf("expected first-seen order on ties, got %v", order)
	}
}

func TestSummarizeCapsTopAndRecent(t *testing.T) {
	l := chatservice.NewMemoryLog()
	for i := 0; i < 25; i++ {
		seed(t, l, chat.RoleUser, fmt.Sprintf("question %d", i), now.Add(-time.Duration(25-i)*time.Minute))
	}

	summary, _ := newAggregator(l).Summarize(context.Background(), "inn", 7)
	if len(summary.TopQuestions) != 10 {
		t.Fatalf("expected 10 top questions, got %d", len(summary.TopQuestions))
	}
	if len(summary.RecentMessages) != 20 {
		t.Fatalf("expected 20 recent messages, got %d", len(summary.RecentMessages))
	}
	if summary.RecentMessages[0].Content != "question 24" {
		t.Fatalf("expected newest first, got %q", summary.RecentMessages[0].Content)
	}
	for i := 1; i < len(summary.RecentMessages); i++ {
		if summary.RecentMessages[i].CreatedAt.After(summary.RecentMessages[i-1].CreatedAt) {
			t.Fatal("recent messages must be in descending time order")
		}
	}
}

func TestSummarizeWindow(t *testing.T) {
	l := chatservice.NewMemoryLog()
	ctx := context.Background()

	seed(t, l, chat.RoleUser, "too old", now.AddDate(0, 0, -8))
	seed(t, l, chat.RoleUser, "on the edge", now.AddDate(0, 0, -7))
	seed(t, l, chat.RoleUser, "recent", now.Add(-time.Hour))
	_, _ = l.UpsertConversation(ctx, "inn", "old", now.AddDate(0, 0, -8))
	_, _ = l.UpsertConversation(ctx, "inn", "new", now.Add(-time.Hour))

	summary, err := newAggregator(l).Summarize(ctx, "inn", 0)
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalMessages != 2 {
		t.Fatalf("expected inclusive 7 day window with 2 messages, got %d", summary.TotalMessages)
	}
	if summary.TotalConversations != 1 {
		t.Fatalf("expected 1 conversation in window, got %d", summary.TotalConversations)
	}
}

func TestSummarizeUnknownTenant(t *testing.T) {
	_, err := newAggregator(chatservice.NewMemoryLog()).Summarize(context.Background(), "missing", 7)
	if !errors.Is(err, analytics.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}
