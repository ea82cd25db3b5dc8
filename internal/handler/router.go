package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/health-assistant/backend/internal/handler/chat"
	"github.com/zhouzirui/health-assistant/backend/internal/handler/conversation"
	"github.com/zhouzirui/health-assistant/backend/internal/handler/page"
	recordHandler "github.com/zhouzirui/health-assistant/backend/internal/handler/record"
	middlewarePkg "github.com/zhouzirui/health-assistant/backend/internal/middleware"
	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
	"github.com/zhouzirui/health-assistant/backend/internal/model/record"
	"github.com/zhouzirui/health-assistant/backend/internal/service/assistant"
	chatService "github.com/zhouzirui/health-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/health-assistant/backend/pkg/utils"
)

// Options tunes the HTTP edge.
type Options struct {
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
}

const (
	limiterSweepInterval = time.Minute
	limiterIdleTimeout   = 10 * time.Minute
)

// NewRouter wires HTTP routes to core services. Background work started here
// stops when ctx is cancelled.
func NewRouter(ctx context.Context, records record.Store, chatSvc *chatService.Service, assistantSvc *assistant.Service, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	limiter := middlewarePkg.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	go limiter.Run(ctx, limiterSweepInterval, limiterIdleTimeout)

	pageHandler := page.New(chatSvc, assistantSvc, opts.MaxUploadBytes)
	chatHandler := chat.New(chatSvc, assistantSvc, opts.MaxUploadBytes)
	recordsHandler := recordHandler.New(records)
	wsHandler := conversation.NewWebSocketHandler(chatSvc, assistantSvc, opts.MaxUploadBytes)

	pageHandler.RegisterRoutes(r)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"records": records.Len(),
		})
	})

	r.Group(func(limited chi.Router) {
		limited.Use(limiter.Limit)
		pageHandler.RegisterSubmitRoutes(limited)
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/languages", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, language.Options())
		})

		recordsHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterWebSocketRoutes(api)

		api.Group(func(limited chi.Router) {
			limited.Use(limiter.Limit)
			chatHandler.RegisterSubmitRoutes(limited)
		})
	})

	return r
}
