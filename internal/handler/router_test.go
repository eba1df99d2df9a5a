package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zhouzirui/concierge/backend/internal/config"
	"github.com/zhouzirui/concierge/backend/internal/model/tenant"
	analyticsService "github.com/zhouzirui/concierge/backend/internal/service/analytics"
	chatService "github.com/zhouzirui/concierge/backend/internal/service/chat"
	tenantService "github.com/zhouzirui/concierge/backend/internal/service/tenant"
)

type nopSnapshot struct{}

func (nopSnapshot) Load(context.Context) ([]tenant.Config, error) {
	return nil, tenantService.ErrSnapshotNotFound
}

func (nopSnapshot) Save(context.Context, []tenant.Config) error { return nil }

type echoCompleter struct {
	lastPrompt string
}

func (e *echoCompleter) Complete(_ context.Context, systemPrompt, userMessage string) (string, error) {
	e.lastPrompt = systemPrompt
	return "We open at 9am", nil
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestEndToEndTenantLifecycle(t *testing.T) {
	store := tenantService.NewStore(nopSnapshot{})
	conversationLog := chatService.NewMemoryLog()
	completer := &echoCompleter{}
	orch := chatService.NewOrchestrator(store, completer, conversationLog)
	agg := analyticsService.NewAggregator(store, conversationLog, nil)

	router := NewRouter(config.ServerConfig{PublicBaseURL: "https://bots.test"}, store, orch, agg)

	resp := do(t, router, http.MethodPost, "/api/admin/chatbots",
		`{"clientName":"Ann","businessName":"Test Inn","businessInfo":"Open 9-5","knowledgeBase":"Wifi free"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.Code)
	}
	var created struct {
		ChatbotID string `json:"chatbotId"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&created)

	resp = do(t, router, http.MethodPost, "/api/chat/"+created.ChatbotID, `{"message":"What time do you open?","conversationId":"visitor-1"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("message: expected 200, got %d", resp.Code)
	}
	var reply struct {
		Response string `json:"response"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&reply)
	if reply.Response != "We open at 9am" {
		t.Fatalf("unexpected reply %q", reply.Response)
	}
	if !strings.Contains(completer.lastPrompt, "Open 9-5") || !strings.Contains(completer.lastPrompt, "Wifi free") {
		t.Fatalf("prompt missing tenant text:\n%s", completer.lastPrompt)
	}

	transcript, _ := conversationLog.Transcript(context.Background(), "visitor-1")
	if len(transcript) != 2 {
		t.Fatalf("expected 2 logged messages, got %d", len(transcript))
	}

	resp = do(t, router, http.MethodGet, "/api/analytics/"+created.ChatbotID+"?days=7", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("analytics: expected 200, got %d", resp.Code)
	}
	var stats analyticsService.Summary
	_ = json.NewDecoder(resp.Body).Decode(&stats)
	if stats.TotalConversations != 1 || stats.TotalMessages != 2 || len(stats.TopQuestions) != 1 {
		t.Fatalf("unexpected analytics %+v", stats)
	}

	resp = do(t, router, http.MethodGet, "/api/health", "")
	var health map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&health)
	if health["status"] != "ok" || health["chatbots"] != float64(1) || health["timestamp"] == "" {
		t.Fatalf("unexpected health %v", health)
	}
}

func TestUnknownTenantRoutes(t *testing.T) {
	store := tenantService.NewStore(nopSnapshot{})
	conversationLog := chatService.NewMemoryLog()
	orch := chatService.NewOrchestrator(store, &echoCompleter{}, conversationLog)
	router := NewRouter(config.ServerConfig{}, store, orch, analyticsService.NewAggregator(store, conversationLog, nil))

	if resp := do(t, router, http.MethodPost, "/api/chat/ghost", `{"message":"hi"}`); resp.Code != http.StatusNotFound {
		t.Fatalf("message: expected 404, got %d", resp.Code)
	}
	if resp := do(t, router, http.MethodGet, "/api/analytics/ghost", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("analytics: expected 404, got %d", resp.Code)
	}
}
