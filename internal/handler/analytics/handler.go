package analytics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	analyticsservice "github.com/zhouzirui/concierge/backend/internal/service/analytics"
	"github.com/zhouzirui/concierge/backend/pkg/utils"
)

// Summarizer is implemented by analyticsservice.Aggregator.
type Summarizer interface {
	Summarize(ctx context.Context, tenantID string, windowDays int) (analyticsservice.Summary, error)
}

// Handler 统计接口处理器
type Handler struct {
	summarizer Summarizer
}

// New 创建统计处理器
func New(summarizer Summarizer) *Handler {
	return &Handler{summarizer: summarizer}
}

// RegisterRoutes 注册统计路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/analytics/{tenantID}", h.handleSummary)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	days := analyticsservice.DefaultWindowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.RespondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	summary, err := h.summarizer.Summarize(r.Context(), tenantID, days)
	if err != nil {
		if errors.Is(err, analyticsservice.ErrTenantNotFound) {
			utils.RespondError(w, http.StatusNotFound, "chatbot not found")
			return
		}
		log.Printf("[analytics] summarize failed tenant=%s: %v", tenantID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}

	utils.RespondJSON(w, http.StatusOK, summary)
}
