package widget

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/concierge/backend/internal/model/tenant"
)

type stubTenants map[string]tenant.Config

func (s stubTenants) Get(id string) (tenant.Config, bool) {
	cfg, ok := s[id]
	return cfg, ok
}

func setupRouter() *chi.Mux {
	h := New(stubTenants{"inn_1": {ID: "inn_1", BusinessName: "Test Inn", BusinessInfo: "secret-info"}}, "https://bots.test")
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Route("/api", h.RegisterAPIRoutes)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
	return resp
}

func TestEmbedScriptRoute(t *testing.T) {
	resp := get(setupRouter(), "/widget/inn_1.js")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.HasPrefix(resp.Header().Get("Content-Type"), "application/javascript") {
		t.Fatalf("unexpected content type %s", resp.Header().Get("Content-Type"))
	}
	if !strings.Contains(resp.Body.String(), "https://bots.test/chat/inn_1") {
		t.Fatal("expected iframe url in script")
	}
}

func TestChatPageRoute(t *testing.T) {
	r := setupRouter()
	if resp := get(r, "/chat/inn_1"); resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "Test Inn") {
		t.Fatalf("unexpected page response %d", resp.Code)
	}
	if resp := get(r, "/chat/ghost"); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestPublicConfigRoute(t *testing.T) {
	resp := get(setupRouter(), "/api/chatbots/inn_1/config")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "secret-info") {
		t.Fatalf("public config leaked business info: %s", resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), tenant.DefaultPrimaryColor) {
		t.Fatalf("expected default color, got %s", resp.Body.String())
	}
}
