package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/llm-server/internal/handler/completion"
	"github.com/zhouzirui/llm-server/internal/handler/session"
	middlewarePkg "github.com/zhouzirui/llm-server/internal/middleware"
	chatService "github.com/zhouzirui/llm-server/internal/service/chat"
	"github.com/zhouzirui/llm-server/pkg/utils"
)

// NewRouter wires every endpoint family under basePath/<kind>.
func NewRouter(basePath string, sessions *chatService.Service, families ...*completion.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mount := func(api chi.Router) {
		if sessions != nil {
			session.New(sessions).RegisterRoutes(api)
		}
		for _, family := range families {
			api.Route("/"+family.Kind(), family.RegisterRoutes)
		}
	}

	if basePath == "" {
		mount(r)
	} else {
		r.Route(basePath, mount)
	}

	return r
}
