package chat

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/zhouzirui/concierge/backend/internal/service/chat"
	"github.com/zhouzirui/concierge/backend/pkg/utils"
)

// Responder answers visitor messages; implemented by chatservice.Orchestrator.
type Responder interface {
	HandleMessage(ctx context.Context, tenantID, conversationID, message string) (chatservice.Reply, error)
}

// Handler 访客消息的HTTP处理器
type Handler struct {
	responder Responder
	tenants   chatservice.TenantLookup
	upgrader  websocket.Upgrader
	pongWait  time.Duration
}

// New 创建聊天处理器
func New(responder Responder, tenants chatservice.TenantLookup) *Handler {
	return &Handler{
		responder: responder,
		tenants:   tenants,
		pongWait:  wsPongWait,
		upgrader: websocket.Upgrader{
			// 组件嵌入在第三方站点，允许任意来源。
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/{tenantID}", h.handleMessage)
	r.Get("/chat/{tenantID}/ws", h.handleWebSocket)
}

type messageRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}

type messageResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId,omitempty"`
}

// handleMessage 处理一条访客消息。除租户不存在外，一律返回 {response}。
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if _, ok := h.tenants.Get(tenantID); !ok {
		utils.RespondError(w, http.StatusNotFound, "chatbot not found")
		return
	}

	var payload messageRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondJSON(w, http.StatusBadRequest, messageResponse{Response: chatservice.GenericFallback})
		return
	}

	reply, err := h.responder.HandleMessage(r.Context(), tenantID, payload.ConversationID, payload.Message)
	if err != nil {
		if errors.Is(err, chatservice.ErrTenantNotFound) {
			utils.RespondError(w, http.StatusNotFound, "chatbot not found")
			return
		}
		log.Printf("[chat] unexpected error tenant=%s: %v", tenantID, err)
		utils.RespondJSON(w, http.StatusOK, messageResponse{Response: chatservice.GenericFallback})
		return
	}

	utils.RespondJSON(w, http.StatusOK, messageResponse{
		Response:       reply.Text,
		ConversationID: reply.ConversationID,
	})
}
