package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/scrimlabs/inhouse-backend/internal/engine"
	"github.com/scrimlabs/inhouse-backend/internal/hub"
	"github.com/scrimlabs/inhouse-backend/internal/session"
	"github.com/scrimlabs/inhouse-backend/pkg/types"
)

// actionRate caps how fast a single connection may submit bids/picks. The
// burst absorbs a bidding flurry without letting one client spam the room.
var actionRate = rate.Limit(10)

const actionBurst = 20

func Handler(h *hub.Hub, originPatterns []string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		// Captain identity comes from the auth collaborator upstream; an empty
		// value joins as a spectator.
		captainID := r.URL.Query().Get("captain")

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
		sess := <-reply
		if sess == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan session.Outbound, 16)
		clientID := uuid.NewString()
		clog := log.With(zap.String("room", code), zap.String("client", clientID))

		sess.Inbox() <- session.Join{ClientID: clientID, Outbox: out}
		defer func() { sess.Inbox() <- session.Leave{ClientID: clientID} }()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for o := range out {
				msg := toServerMessage(o)
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		limiter := rate.NewLimiter(actionRate, actionBurst)

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Otherwise, just exit (session.Leave in defer):
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			cmd, ok := toCommand(cm)
			if !ok {
				writeError(r.Context(), conn, "unknown type")
				continue
			}

			if !limiter.Allow() {
				clog.Warn("action rate limit exceeded")
				writeError(r.Context(), conn, "rate limited")
				continue
			}

			resultCh := make(chan session.ActionResult, 1)
			sess.Inbox() <- session.SubmitAction{CaptainID: captainID, Cmd: cmd, Reply: resultCh}
			res := <-resultCh

			reply := types.ServerMessage{Type: "ActionResult", Result: &types.ActionResult{
				Accepted: res.Accepted,
				Reason:   res.ErrorKind,
				Seq:      res.Seq,
			}}
			payload, _ := json.Marshal(reply)
			_ = conn.Write(r.Context(), websocket.MessageText, payload)
		}
	}
}

func toServerMessage(o session.Outbound) types.ServerMessage {
	if o.Snapshot != nil {
		return types.ServerMessage{Type: "Snapshot", Snapshot: o.Snapshot}
	}
	return types.ServerMessage{Type: "Delta", Delta: o.Delta}
}

func toCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case "PlaceBid":
		return engine.Command{Type: engine.CmdPlaceBid, Amount: m.Amount}, true
	case "MakePick":
		return engine.Command{Type: engine.CmdMakePick, Player: engine.PlayerID(m.PlayerID)}, true
	default:
		return engine.Command{}, false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: msg})
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
