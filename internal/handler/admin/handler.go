package admin

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/concierge/backend/internal/model/tenant"
	"github.com/zhouzirui/concierge/backend/internal/widget"
	"github.com/zhouzirui/concierge/backend/pkg/utils"
)

// Store 是管理端需要的租户存储能力。
type Store interface {
	Create(ctx context.Context, input tenant.CreateInput) (tenant.Config, error)
	List() []tenant.Summary
}

// Handler 管理端的HTTP处理器
type Handler struct {
	store   Store
	baseURL string
	apiKey  string
}

// New 创建管理端处理器。apiKey 为空时不做鉴权。
func New(store Store, baseURL, apiKey string) *Handler {
	return &Handler{
		store:   store,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// RegisterRoutes 注册管理端路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(h.requireAPIKey)
		admin.Post("/chatbots", h.handleCreate)
		admin.Get("/chatbots", h.handleList)
	})
}

type createResponse struct {
	Success    bool   `json:"success"`
	ChatbotID  string `json:"chatbotId"`
	EmbedCode  string `json:"embedCode"`
	PreviewURL string `json:"previewUrl"`
}

// handleCreate 创建租户聊天机器人
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input tenant.CreateInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := h.store.Create(r.Context(), input)
	if err != nil {
		log.Printf("[admin] create chatbot failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to create chatbot")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, createResponse{
		Success:    true,
		ChatbotID:  cfg.ID,
		EmbedCode:  widget.EmbedCode(h.baseURL, cfg.ID),
		PreviewURL: widget.PreviewURL(h.baseURL, cfg.ID),
	})
}

// handleList 列出所有租户的安全摘要
func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.apiKey)) != 1 {
			utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
