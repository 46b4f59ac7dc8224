package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/scrimlabs/inhouse-backend/internal/engine"
	"github.com/scrimlabs/inhouse-backend/internal/hub"
	"github.com/scrimlabs/inhouse-backend/internal/session"
	"github.com/scrimlabs/inhouse-backend/pkg/types"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *session.Session, 1)
			h.Inbox() <- hub.GetRoom{Code: c, Reply: reply}
			if <-reply == nil {
				code = c
				break
			}
			log.Info("collision on code, regenerating", zap.String("code", c))
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.CreateRoom{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

// StartAllocation receives the finalized roster and flips the room into team
// formation.
func StartAllocation(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
		sess := <-reply
		if sess == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		var req types.StartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		teams := make([]*engine.Team, 0, len(req.Teams))
		for _, t := range req.Teams {
			teams = append(teams, &engine.Team{
				ID:        engine.TeamID(t.ID),
				Name:      t.Name,
				CaptainID: t.CaptainID,
				Capacity:  t.Capacity,
			})
		}

		start := session.Start{
			Protocol: req.Protocol,
			Teams:    teams,
			Players:  req.Players,
			Config:   req.Config,
			Reply:    make(chan error, 1),
		}
		sess.Inbox() <- start
		if err := <-start.Reply; err != nil {
			switch {
			case errors.Is(err, engine.ErrConfiguration):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			case errors.Is(err, engine.ErrSessionNotActive):
				http.Error(w, "allocation already started", http.StatusConflict)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}

		log.Info("allocation started", zap.String("room", code), zap.String("protocol", string(req.Protocol)))
		w.WriteHeader(http.StatusAccepted)
	}
}

// GetResult serves the final partition once allocation has completed.
func GetResult(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
		sess := <-reply
		if sess == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		viewReply := make(chan session.View, 1)
		sess.Inbox() <- session.GetState{Reply: viewReply}
		view := <-viewReply
		if view.Status != session.StatusCompleted {
			http.Error(w, "allocation not completed", http.StatusConflict)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(view.Result)
	}
}

// CloseRoom tears a room down, cancelling any in-flight allocation and its
// timer. Used when the host cancels the tournament.
func CloseRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		h.Inbox() <- hub.RemoveRoom{Code: code}
		log.Info("room closed", zap.String("room", code))
		w.WriteHeader(http.StatusNoContent)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
