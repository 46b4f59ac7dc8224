package types

import (
	"github.com/scrimlabs/inhouse-backend/internal/engine"
	"github.com/scrimlabs/inhouse-backend/internal/session"
)

// Client -> Server
type ClientMessage struct {
	Type     string `json:"type"` // "PlaceBid" | "MakePick"
	Amount   int    `json:"amount,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
}

// Server -> Client
type ServerMessage struct {
	Type     string            `json:"type"` // "Snapshot" | "Delta" | "ActionResult" | "Error"
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Delta    *session.Delta    `json:"delta,omitempty"`
	Result   *ActionResult     `json:"result,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// ActionResult answers the submitting client only; rejected actions are never
// broadcast.
type ActionResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Seq      uint64 `json:"seq,omitempty"`
}

// StartRequest is the roster-finalization payload the host POSTs to begin
// allocation.
type StartRequest struct {
	Protocol engine.Protocol `json:"protocol"`
	Teams    []TeamSpec      `json:"teams"`
	Players  []engine.Player `json:"players"`
	Config   engine.Config   `json:"config"`
}

type TeamSpec struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CaptainID string `json:"captain_id"`
	Capacity  int    `json:"capacity"`
}
