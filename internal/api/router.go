package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"scribechat/internal/api/handlers"
	"scribechat/internal/api/middleware"
	"scribechat/internal/chat"
	"scribechat/internal/transcription"
)

type Router struct {
	mux      *chi.Mux
	db       *pgxpool.Pool
	redis    *redis.Client
	transSvc *transcription.Service
	chatSvc  *chat.Service
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, transSvc *transcription.Service, chatSvc *chat.Service) *Router {
	return &Router{
		mux:      chi.NewRouter(),
		db:       db,
		redis:    rdb,
		transSvc: transSvc,
		chatSvc:  chatSvc,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	// Health endpoints
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	r.Get("/api", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Welcome to the Audio Transcription and Chat API"}`))
	})

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		transH := handlers.NewTranscriptionHandler(rt.transSvc)
		r.Route("/transcriptions", func(r chi.Router) {
			r.Get("/", transH.List)
			r.Post("/", transH.Upload)
			r.Post("/real-time", transH.RealTime)
			r.Get("/{id}", transH.Get)
		})

		chatH := handlers.NewChatHandler(rt.chatSvc)
		r.Route("/chat", func(r chi.Router) {
			r.Post("/", chatH.Ask)
			r.Post("/stream", chatH.AskStream)
			r.Get("/history/{transcriptionID}", chatH.History)
		})
	})

	return r
}
