package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/wtwq666/smartdata/internal/handler/chat"
	sessionHandler "github.com/wtwq666/smartdata/internal/handler/session"
	middlewarePkg "github.com/wtwq666/smartdata/internal/middleware"
	"github.com/wtwq666/smartdata/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(sessions *sessionHandler.Handler, chats *chatHandler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		sessions.RegisterRoutes(api)
		chats.RegisterRoutes(api)
	})

	return r
}
