package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zhouzirui/concierge/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/concierge/backend/internal/service/chat"
)

const (
	DefaultWindowDays = 7
	questionPrefixLen = 100
	topQuestionsLimit = 10
	recentLimit       = 20
)

// ErrTenantNotFound is returned for unknown tenants.
var ErrTenantNotFound = chatservice.ErrTenantNotFound

// Reader is the read side of the conversation log used for analytics.
type Reader interface {
	ConversationsSince(ctx context.Context, tenantID string, since time.Time) ([]chat.Conversation, error)
	MessagesSince(ctx context.Context, tenantID string, since time.Time) ([]chat.Message, error)
}

// QuestionCount is how often a visitor question (by its first 100 characters) was asked.
type QuestionCount struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// Summary aggregates one tenant's activity over a window.
type Summary struct {
	TotalConversations int             `json:"totalConversations"`
	TotalMessages      int             `json:"totalMessages"`
	TopQuestions       []QuestionCount `json:"topQuestions"`
	RecentMessages     []chat.Message  `json:"recentMessages"`
}

// Aggregator computes read-only statistics from the conversation log.
type Aggregator struct {
	tenants chatservice.TenantLookup
	reader  Reader
	now     func() time.Time
}

// NewAggregator returns an Aggregator. now may be nil to use time.Now.
func NewAggregator(tenants chatservice.TenantLookup, reader Reader, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{tenants: tenants, reader: reader, now: now}
}

// Summarize covers [now - windowDays, now]. A non-positive window uses DefaultWindowDays.
func (a *Aggregator) Summarize(ctx context.Context, tenantID string, windowDays int) (Summary, error) {
	if _, ok := a.tenants.Get(tenantID); !ok {
		return Summary{}, ErrTenantNotFound
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	since := a.now().UTC().AddDate(0, 0, -windowDays)

	conversations, err := a.reader.ConversationsSince(ctx, tenantID, since)
	if err != nil {
		return Summary{}, fmt.Errorf("load conversations: %w", err)
	}
	messages, err := a.reader.MessagesSince(ctx, tenantID, since)
	if err != nil {
		return Summary{}, fmt.Errorf("load messages: %w", err)
	}

	return Summary{
		TotalConversations: len(conversations),
		TotalMessages:      len(messages),
		TopQuestions:       topQuestions(messages),
		RecentMessages:     recentMessages(messages),
	}, nil
}

// topQuestions groups user messages by their first 100 runes.
// Ties keep the order in which a question was first seen.
func topQuestions(messages []chat.Message) []QuestionCount {
	index := make(map[string]int)
	counts := make([]QuestionCount, 0)

	for _, m := range messages {
		if m.Role != chat.RoleUser {
			continue
		}
		key := truncate(m.Content, questionPrefixLen)
		if i, ok := index[key]; ok {
			counts[i].Count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, QuestionCount{Question: key, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if len(counts) > topQuestionsLimit {
		counts = counts[:topQuestionsLimit]
	}
	return counts
}

func recentMessages(messages []chat.Message) []chat.Message {
	out := make([]chat.Message, len(messages))
	copy(out, messages)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if len(out) > recentLimit {
		out = out[:recentLimit]
	}
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
