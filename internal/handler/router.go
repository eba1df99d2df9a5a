package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zhouzirui/concierge/backend/internal/config"
	"github.com/zhouzirui/concierge/backend/internal/handler/admin"
	analyticsHandler "github.com/zhouzirui/concierge/backend/internal/handler/analytics"
	"github.com/zhouzirui/concierge/backend/internal/handler/chat"
	widgetHandler "github.com/zhouzirui/concierge/backend/internal/handler/widget"
	analyticsService "github.com/zhouzirui/concierge/backend/internal/service/analytics"
	chatService "github.com/zhouzirui/concierge/backend/internal/service/chat"
	tenantService "github.com/zhouzirui/concierge/backend/internal/service/tenant"
	"github.com/zhouzirui/concierge/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(serverCfg config.ServerConfig, tenants *tenantService.Store, orchestrator *chatService.Orchestrator, aggregator *analyticsService.Aggregator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// The widget runs on tenants' own sites.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	adminHandler := admin.New(tenants, serverCfg.PublicBaseURL, serverCfg.AdminAPIKey)
	chatHandler := chat.New(orchestrator, tenants)
	statsHandler := analyticsHandler.New(aggregator)
	pageHandler := widgetHandler.New(tenants, serverCfg.PublicBaseURL)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":    "ok",
				"chatbots":  tenants.Count(),
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		})

		adminHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		statsHandler.RegisterRoutes(api)
		pageHandler.RegisterAPIRoutes(api)
	})

	pageHandler.RegisterRoutes(r)

	return r
}
