package widget

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/concierge/backend/internal/model/tenant"
	"github.com/zhouzirui/concierge/backend/internal/widget"
	"github.com/zhouzirui/concierge/backend/pkg/utils"
)

// TenantLookup resolves tenant configs by id.
type TenantLookup interface {
	Get(id string) (tenant.Config, bool)
}

// Handler 提供嵌入脚本、聊天页面和公开配置
type Handler struct {
	tenants TenantLookup
	baseURL string
}

// New 创建组件处理器
func New(tenants TenantLookup, baseURL string) *Handler {
	return &Handler{tenants: tenants, baseURL: baseURL}
}

// RegisterRoutes mounts the browser-facing pages at the root router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/widget/{tenantID}.js", h.handleEmbedScript)
	r.Get("/chat/{tenantID}", h.handleChatPage)
}

// RegisterAPIRoutes mounts the JSON config endpoint under /api.
func (h *Handler) RegisterAPIRoutes(r chi.Router) {
	r.Get("/chatbots/{tenantID}/config", h.handlePublicConfig)
}

func (h *Handler) handleEmbedScript(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.tenants.Get(chi.URLParam(r, "tenantID"))
	if !ok {
		utils.RespondBytes(w, http.StatusNotFound, "application/javascript", []byte("console.warn('chatbot not found');\n"))
		return
	}

	body, err := widget.RenderEmbedScript(h.baseURL, cfg)
	if err != nil {
		log.Printf("[widget] render script failed tenant=%s: %v", cfg.ID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to render widget")
		return
	}
	utils.RespondBytes(w, http.StatusOK, "application/javascript; charset=utf-8", body)
}

func (h *Handler) handleChatPage(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.tenants.Get(chi.URLParam(r, "tenantID"))
	if !ok {
		http.Error(w, "chatbot not found", http.StatusNotFound)
		return
	}

	body, err := widget.RenderChatPage(h.baseURL, cfg)
	if err != nil {
		log.Printf("[widget] render page failed tenant=%s: %v", cfg.ID, err)
		http.Error(w, "failed to render chat", http.StatusInternalServerError)
		return
	}
	utils.RespondBytes(w, http.StatusOK, "text/html; charset=utf-8", body)
}

func (h *Handler) handlePublicConfig(w http.ResponseWriter, r *http.Request) {
	cfg, ok := h.tenants.Get(chi.URLParam(r, "tenantID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "chatbot not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, widget.Public(cfg))
}
