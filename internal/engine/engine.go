package engine

type CommandType string

const (
	CmdPlaceBid CommandType = "PlaceBid"
	CmdMakePick CommandType = "MakePick"
	// CmdTimeoutResolve has no originating client; the session routes timer
	// expiry through it so timeouts follow the same validate/apply path as
	// captain actions.
	CmdTimeoutResolve CommandType = "TimeoutResolve"
)

type Command struct {
	Type   CommandType
	Team   TeamID
	Player PlayerID
	Amount int
}

type EventType string

const (
	EvtPlayerNominated  EventType = "PLAYER_NOMINATED"
	EvtBidPlaced        EventType = "BID_PLACED"
	EvtPlayerAwarded    EventType = "PLAYER_AWARDED"
	EvtPlayerPassed     EventType = "PLAYER_PASSED"
	EvtPlayerUnassigned EventType = "PLAYER_UNASSIGNED"
	EvtPickMade         EventType = "PICK_MADE"
	EvtTimerReset       EventType = "TIMER_RESET"
	EvtSessionComplete  EventType = "SESSION_COMPLETE"
	// EvtSessionFailed is emitted by the session, never by an engine, when a
	// post-acceptance invariant check trips.
	EvtSessionFailed EventType = "SESSION_FAILED"
)

type Event struct {
	Type   EventType `json:"type"`
	Team   TeamID    `json:"team,omitempty"`
	Player PlayerID  `json:"player,omitempty"`
	Amount int       `json:"amount,omitempty"`
	// Auto marks mutations produced by timer expiry rather than a captain.
	Auto bool `json:"auto,omitempty"`
	// Cycles reports the no-bid cycle count on PLAYER_PASSED/PLAYER_UNASSIGNED.
	Cycles int `json:"cycles,omitempty"`
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// Engine is the closed set of allocation protocols. The variant is chosen once
// at session start and never switched. Apply is the only mutation entry point;
// the owning session serializes calls, so engines need no locking of their own.
type Engine interface {
	Apply(cmd Command) ([]Event, error)
	Snapshot() State
	Completed() bool
	// TimerSec is the countdown to arm after the most recent accepted mutation.
	TimerSec() int
}

// State is the protocol-specific slice of a session snapshot. Fields are
// populated per variant; clients key off Protocol.
type State struct {
	Protocol Protocol `json:"protocol"`

	// Auction
	NominationQueue []PlayerID `json:"nomination_queue,omitempty"`
	CurrentPlayer   PlayerID   `json:"current_player,omitempty"`
	HighBid         int        `json:"high_bid,omitempty"`
	HighBidder      TeamID     `json:"high_bidder,omitempty"`
	NoBidCycles     int        `json:"no_bid_cycles,omitempty"`
	Unassigned      []PlayerID `json:"unassigned,omitempty"`

	// Snake draft
	PickOrder []TeamID `json:"pick_order,omitempty"`
	PickIndex int      `json:"pick_index,omitempty"`
}
