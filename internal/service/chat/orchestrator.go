package chat

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/concierge/backend/internal/analysis/intent"
	"github.com/zhouzirui/concierge/backend/internal/model/chat"
	"github.com/zhouzirui/concierge/backend/internal/model/tenant"
	"github.com/zhouzirui/concierge/backend/internal/service/ai"
)

var ErrTenantNotFound = errors.New("chatbot not found")

// GenericFallback is shown when no tenant-specific fallback can be built.
const GenericFallback = "I'm sorry, I encountered an error. Please try again in a moment."

const defaultStoreTimeout = 5 * time.Second

var phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)

// TenantLookup resolves tenant configs by id.
type TenantLookup interface {
	Get(id string) (tenant.Config, bool)
}

// Reply is what the visitor gets back for one message.
type Reply struct {
	Text           string
	ConversationID string
	// Fallback is set when the provider failed and Text is the canned apology.
	Fallback bool
}

// Orchestrator runs one inbound visitor message through classification,
// prompt composition, completion and logging.
type Orchestrator struct {
	tenants      TenantLookup
	completer    ai.Completer
	log          Log
	storeTimeout time.Duration
	now          func() time.Time
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithStoreTimeout bounds each best-effort log write.
func WithStoreTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.storeTimeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator wires the pipeline collaborators.
func NewOrchestrator(tenants TenantLookup, completer ai.Completer, conversationLog Log, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		tenants:      tenants,
		completer:    completer,
		log:          conversationLog,
		storeTimeout: defaultStoreTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleMessage answers one visitor message. The only error it returns is ErrTenantNotFound;
// provider failures become a fallback reply and log failures are only reported.
// The tenant's Active flag is deliberately not consulted.
func (o *Orchestrator) HandleMessage(ctx context.Context, tenantID, conversationID, message string) (Reply, error) {
	cfg, ok := o.tenants.Get(tenantID)
	if !ok {
		return Reply{}, ErrTenantNotFound
	}

	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	// Log writes outlive a cancelled request.
	writeCtx := context.WithoutCancel(ctx)

	o.appendMessage(writeCtx, chat.Message{
		ConversationID: conversationID,
		TenantID:       tenantID,
		Role:           chat.RoleUser,
		Content:        message,
		CreatedAt:      o.now().UTC(),
	})

	result := intent.Classify(message)
	systemPrompt := ai.ComposeSystemPrompt(cfg, result)

	text, err := o.completer.Complete(ctx, systemPrompt, message)
	if err != nil {
		log.Printf("[orchestrator] completion failed tenant=%s conversation=%s: %v", tenantID, conversationID, err)
		return Reply{
			Text:           FallbackReply(cfg),
			ConversationID: conversationID,
			Fallback:       true,
		}, nil
	}

	at := o.now().UTC()
	o.appendMessage(writeCtx, chat.Message{
		ConversationID: conversationID,
		TenantID:       tenantID,
		Role:           chat.RoleAssistant,
		Content:        text,
		CreatedAt:      at,
	})
	o.upsertConversation(writeCtx, tenantID, conversationID, at)

	log.Printf("[orchestrator] replied tenant=%s conversation=%s sales=%v", tenantID, conversationID, result.SalesMode)
	return Reply{Text: text, ConversationID: conversationID}, nil
}

func (o *Orchestrator) appendMessage(ctx context.Context, message chat.Message) {
	ctx, cancel := context.WithTimeout(ctx, o.storeTimeout)
	defer cancel()

	if err := o.log.AppendMessage(ctx, message); err != nil {
		log.Printf("[orchestrator] failed to log %s message conversation=%s: %v", message.Role, message.ConversationID, err)
	}
}

func (o *Orchestrator) upsertConversation(ctx context.Context, tenantID, conversationID string, at time.Time) {
	ctx, cancel := context.WithTimeout(ctx, o.storeTimeout)
	defer cancel()

	if _, err := o.log.UpsertConversation(ctx, tenantID, conversationID, at); err != nil {
		log.Printf("[orchestrator] failed to upsert conversation=%s: %v", conversationID, err)
	}
}

// FallbackReply is the apology sent when the completion provider fails.
// It points visitors at the first phone number found in the business info.
func FallbackReply(cfg tenant.Config) string {
	phone := strings.TrimSpace(phonePattern.FindString(cfg.BusinessInfo))
	if phone == "" {
		return "I'm sorry, I encountered an error. Please try again or contact us directly."
	}
	return "I'm sorry, I encountered an error. Please try again or call us at " + phone + "."
}
