package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/scrimlabs/inhouse-backend/internal/hub"
	"github.com/scrimlabs/inhouse-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, originPatterns []string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/rooms", CreateRoom(h, log))
	r.Post("/rooms/{code}/start", StartAllocation(h, log))
	r.Get("/rooms/{code}/result", GetResult(h))
	r.Delete("/rooms/{code}", CloseRoom(h, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, originPatterns, log))
	return r
}
