package chat

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/zhouzirui/concierge/backend/internal/service/chat"
	"github.com/zhouzirui/concierge/backend/pkg/utils"
)

const (
	wsWriteWait      = 10 * time.Second
	wsMaxMessageSize = 16 << 10
)

// wsPongWait is how long a socket may stay silent; pings go out at 9/10 of it.
// New copies it into the handler.
var wsPongWait = 60 * time.Second

// wsFrame is sent back for every inbound frame.
type wsFrame struct {
	Response       string `json:"response,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	Error          string `json:"error,omitempty"`
}

// handleWebSocket keeps a socket open for the widget; each inbound
// {message, conversationId} frame goes through the same pipeline as the POST endpoint.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if _, ok := h.tenants.Get(tenantID); !ok {
		utils.RespondError(w, http.StatusNotFound, "chatbot not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed tenant=%s: %v", tenantID, err)
		return
	}
	defer conn.Close()

	pongWait := h.pongWait
	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var writeMu sync.Mutex
	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, &writeMu, pongWait*9/10, done)

	ctx := r.Context()
	for {
		var in messageRequest
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error tenant=%s: %v", tenantID, err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		out := wsFrame{}
		reply, err := h.responder.HandleMessage(ctx, tenantID, in.ConversationID, in.Message)
		switch {
		case errors.Is(err, chatservice.ErrTenantNotFound):
			out.Error = "chatbot not found"
		case err != nil:
			log.Printf("[ws] unexpected error tenant=%s: %v", tenantID, err)
			out.Response = chatservice.GenericFallback
		default:
			out.Response = reply.Text
			out.ConversationID = reply.ConversationID
		}

		writeMu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		err = conn.WriteJSON(out)
		writeMu.Unlock()
		if err != nil {
			log.Printf("[ws] write error tenant=%s: %v", tenantID, err)
			return
		}
	}
}

// pingLoop 定期发送ping，读循环退出时关闭 done。
func pingLoop(conn *websocket.Conn, writeMu *sync.Mutex, period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
