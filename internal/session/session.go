package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/scrimlabs/inhouse-backend/internal/engine"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type Msg interface{ isSessionMsg() }

type Join struct {
	ClientID string
	Outbox   chan Outbound // where this client wants snapshots/deltas
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

// Start carries the finalized roster from the room collaborator and flips the
// session into IN_PROGRESS.
type Start struct {
	Protocol engine.Protocol
	Teams    []*engine.Team
	Players  []engine.Player
	Config   engine.Config
	Reply    chan error
}

func (Start) isSessionMsg() {}

// SubmitAction is a captain's bid or pick. CaptainID is resolved by the
// transport layer; the session decides which team (if any) it may act for.
type SubmitAction struct {
	CaptainID string
	Cmd       engine.Command
	Reply     chan ActionResult
}

func (SubmitAction) isSessionMsg() {}

type GetState struct{ Reply chan View }

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// timerFired enters through the same inbox as client actions so that a bid
// and an expiry racing each other are resolved purely by mailbox order.
type timerFired struct{ gen uint64 }

func (timerFired) isSessionMsg() {}

type ActionResult struct {
	Accepted  bool
	ErrorKind string
	Seq       uint64
}

type Delta struct {
	Seq            uint64       `json:"seq"`
	Event          engine.Event `json:"event"`
	DeadlineUnixMS int64        `json:"deadline_unix_ms,omitempty"`
	RemainingMS    int64        `json:"remaining_ms,omitempty"`
}

type Snapshot struct {
	Seq            uint64          `json:"seq"`
	RoomCode       string          `json:"room_code"`
	Status         Status          `json:"status"`
	Protocol       engine.Protocol `json:"protocol,omitempty"`
	Teams          []engine.Team   `json:"teams,omitempty"`
	Pool           []engine.Player `json:"pool,omitempty"`
	Engine         engine.State    `json:"engine,omitempty"`
	DeadlineUnixMS int64           `json:"deadline_unix_ms,omitempty"`
	RemainingMS    int64           `json:"remaining_ms,omitempty"`
}

// Outbound is one message on a subscriber's outbox: exactly one field is set.
type Outbound struct {
	Snapshot *Snapshot
	Delta    *Delta
}

type TeamResult struct {
	ID        engine.TeamID     `json:"id"`
	MemberIDs []engine.PlayerID `json:"member_ids"`
}

// Result is the final partition handed to the bracket stage.
type Result struct {
	Teams               []TeamResult      `json:"teams"`
	UnassignedPlayerIDs []engine.PlayerID `json:"unassigned_player_ids"`
}

// View reflects internal state for tests and the HTTP result endpoint.
type View struct {
	Status     Status
	NumClients int
	Snapshot   Snapshot
	Result     Result
}

// Archiver receives the audit trail and final result. Implementations must
// not block: the session calls from its single-writer loop.
type Archiver interface {
	RecordAction(roomCode string, d Delta)
	ArchiveResult(roomCode string, res Result)
}

type NopArchiver struct{}

func (NopArchiver) RecordAction(string, Delta)   {}
func (NopArchiver) ArchiveResult(string, Result) {}

// Session is the single writer for one room's allocation state. Every
// mutation, captain action or timer fire, funnels through its inbox.
type Session struct {
	code     string
	inbox    chan Msg
	status   Status
	roster   *engine.Roster
	eng      engine.Engine
	captains map[string]engine.TeamID
	initial  map[engine.PlayerID]bool
	seq      uint64
	clients  map[string]chan Outbound
	timer    turnTimer
	archiver Archiver
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, code string, archiver Archiver, log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		code:     code,
		inbox:    make(chan Msg, 64),
		status:   StatusWaiting,
		captains: make(map[string]engine.TeamID),
		clients:  make(map[string]chan Outbound),
		archiver: archiver,
		log:      log.With(zap.String("room", code)),
		ctx:      ctx,
		cancel:   cancel,
	}
	go s.loop()
	return s
}

// Inbox exposes the mailbox to the transport layer and tests.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- Outbound{Snapshot: s.snapshot()}

			case Leave:
				if ch, ok := s.clients[msg.ClientID]; ok {
					close(ch)
					delete(s.clients, msg.ClientID)
				}

			case Start:
				msg.Reply <- s.start(msg)

			case SubmitAction:
				msg.Reply <- s.submit(msg)

			case timerFired:
				s.onTimerFired(msg.gen)

			case GetState:
				msg.Reply <- View{
					Status:     s.status,
					NumClients: len(s.clients),
					Snapshot:   *s.snapshot(),
					Result:     s.result(),
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) start(msg Start) error {
	if s.status != StatusWaiting {
		return engine.ErrSessionNotActive
	}

	seenTeams := make(map[engine.TeamID]bool, len(msg.Teams))
	for _, t := range msg.Teams {
		if seenTeams[t.ID] {
			return fmt.Errorf("%w: duplicate team id %s", engine.ErrConfiguration, t.ID)
		}
		seenTeams[t.ID] = true
	}
	seenPlayers := make(map[engine.PlayerID]bool, len(msg.Players))
	for _, p := range msg.Players {
		if seenPlayers[p.ID] {
			return fmt.Errorf("%w: duplicate player id %s", engine.ErrConfiguration, p.ID)
		}
		seenPlayers[p.ID] = true
	}

	roster := &engine.Roster{Pool: slices.Clone(msg.Players)}
	for _, t := range msg.Teams {
		team := *t
		team.Members = nil
		roster.Teams = append(roster.Teams, &team)
	}

	var (
		eng    engine.Engine
		events []engine.Event
		err    error
	)
	switch msg.Protocol {
	case engine.ProtocolAuction:
		eng, events, err = engine.NewAuction(roster, msg.Config)
	case engine.ProtocolSnakeDraft:
		eng, events, err = engine.NewSnakeDraft(roster, msg.Config)
	default:
		err = fmt.Errorf("%w: unknown protocol %q", engine.ErrConfiguration, msg.Protocol)
	}
	if err != nil {
		return err
	}

	s.roster = roster
	s.eng = eng
	s.initial = make(map[engine.PlayerID]bool, len(msg.Players))
	for _, p := range msg.Players {
		s.initial[p.ID] = true
	}
	for _, t := range roster.Teams {
		if t.CaptainID != "" {
			s.captains[t.CaptainID] = t.ID
		}
	}
	s.status = StatusInProgress
	s.log.Info("allocation started",
		zap.String("protocol", string(msg.Protocol)),
		zap.Int("teams", len(roster.Teams)),
		zap.Int("players", len(roster.Pool)))

	s.applyEvents(events)
	return nil
}

func (s *Session) submit(msg SubmitAction) ActionResult {
	if s.status != StatusInProgress {
		return ActionResult{ErrorKind: KindOf(engine.ErrSessionNotActive)}
	}

	switch msg.Cmd.Type {
	case engine.CmdPlaceBid, engine.CmdMakePick:
	default:
		// Timeout resolution never originates from a client.
		return ActionResult{ErrorKind: KindOf(engine.ErrUnsupportedCommand)}
	}

	team, ok := s.captains[msg.CaptainID]
	if !ok {
		// Spectators and non-captains can watch, not act.
		return ActionResult{ErrorKind: KindOf(engine.ErrNotYourTurn)}
	}

	cmd := msg.Cmd
	cmd.Team = team
	events, err := s.eng.Apply(cmd)
	if err != nil {
		return ActionResult{ErrorKind: KindOf(err)}
	}

	s.applyEvents(events)
	return ActionResult{Accepted: true, Seq: s.seq}
}

// onTimerFired re-validates relevance before acting: a fire armed for an
// earlier state (the action beat the clock into the mailbox) is a no-op.
func (s *Session) onTimerFired(gen uint64) {
	if s.status != StatusInProgress || gen != s.timer.gen {
		return
	}

	events, err := s.eng.Apply(engine.Command{Type: engine.CmdTimeoutResolve})
	if err != nil {
		s.log.Warn("timer resolution rejected", zap.Error(err))
		return
	}
	s.applyEvents(events)
}

// applyEvents assigns sequence numbers, records and broadcasts each delta,
// then either completes the session or re-arms the clock.
func (s *Session) applyEvents(events []engine.Event) {
	complete := false
	for _, ev := range events {
		s.seq++
		d := Delta{Seq: s.seq, Event: ev}
		s.archiver.RecordAction(s.code, d)
		s.broadcast(Outbound{Delta: &d})
		if ev.Type == engine.EvtSessionComplete {
			complete = true
		}
	}

	if err := s.checkInvariants(); err != nil {
		s.fail(err)
		return
	}

	if complete {
		s.status = StatusCompleted
		s.timer.stop()
		s.archiver.ArchiveResult(s.code, s.result())
		s.log.Info("allocation completed", zap.Uint64("seq", s.seq))
		return
	}
	s.armTimer(time.Duration(s.eng.TimerSec()) * time.Second)
}

// armTimer replaces the deadline, bumps the generation so the superseded fire
// goes stale, and tells subscribers the clock restarted.
func (s *Session) armTimer(d time.Duration) {
	s.timer.arm(s.ctx, d, s.inbox)

	s.seq++
	delta := Delta{
		Seq:            s.seq,
		Event:          engine.Event{Type: engine.EvtTimerReset},
		DeadlineUnixMS: s.timer.deadline.UnixMilli(),
		RemainingMS:    d.Milliseconds(),
	}
	s.archiver.RecordAction(s.code, delta)
	s.broadcast(Outbound{Delta: &delta})
}

// checkInvariants is the post-acceptance guard of last resort. A failure here
// means a validation bug; the room is halted rather than handing a corrupt
// partition to the bracket stage.
func (s *Session) checkInvariants() error {
	if s.roster == nil {
		return nil
	}

	seen := make(map[engine.PlayerID]int, len(s.initial))
	for _, p := range s.roster.Pool {
		seen[p.ID]++
	}
	for _, t := range s.roster.Teams {
		if len(t.Members) > t.Capacity {
			return fmt.Errorf("team %s over capacity: %d/%d", t.ID, len(t.Members), t.Capacity)
		}
		if t.Budget < 0 {
			return fmt.Errorf("team %s budget negative: %d", t.ID, t.Budget)
		}
		for _, p := range t.Members {
			seen[p.ID]++
		}
	}
	for _, id := range s.eng.Snapshot().Unassigned {
		seen[id]++
	}
	for id := range s.initial {
		if seen[id] != 1 {
			return fmt.Errorf("player %s held %d places", id, seen[id])
		}
	}
	return nil
}

func (s *Session) fail(err error) {
	s.log.Error("invariant violation, halting room", zap.Error(err))
	s.status = StatusFailed
	s.timer.stop()
	s.seq++
	d := Delta{Seq: s.seq, Event: engine.Event{Type: engine.EvtSessionFailed}}
	s.archiver.RecordAction(s.code, d)
	s.broadcast(Outbound{Delta: &d})
}

func (s *Session) snapshot() *Snapshot {
	snap := &Snapshot{Seq: s.seq, RoomCode: s.code, Status: s.status}
	if s.eng != nil {
		snap.Engine = s.eng.Snapshot()
		snap.Protocol = snap.Engine.Protocol
	}
	if s.roster != nil {
		for _, t := range s.roster.Teams {
			team := *t
			team.Members = slices.Clone(t.Members)
			snap.Teams = append(snap.Teams, team)
		}
		snap.Pool = slices.Clone(s.roster.Pool)
	}
	if s.status == StatusInProgress && !s.timer.deadline.IsZero() {
		snap.DeadlineUnixMS = s.timer.deadline.UnixMilli()
		if rem := time.Until(s.timer.deadline); rem > 0 {
			snap.RemainingMS = rem.Milliseconds()
		}
	}
	return snap
}

func (s *Session) result() Result {
	var res Result
	if s.roster == nil {
		return res
	}
	for _, t := range s.roster.Teams {
		tr := TeamResult{ID: t.ID}
		for _, p := range t.Members {
			tr.MemberIDs = append(tr.MemberIDs, p.ID)
		}
		res.Teams = append(res.Teams, tr)
	}
	res.UnassignedPlayerIDs = append(res.UnassignedPlayerIDs, s.eng.Snapshot().Unassigned...)
	for _, p := range s.roster.Pool {
		res.UnassignedPlayerIDs = append(res.UnassignedPlayerIDs, p.ID)
	}
	return res
}

func (s *Session) broadcast(out Outbound) {
	for id, ch := range s.clients {
		select {
		case ch <- out:
			// ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(s.clients, id)
		}
	}
}

func (s *Session) shutdown() {
	s.timer.stop()
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.cancel()
}

// KindOf maps an engine rejection to its wire ErrorKind.
func KindOf(err error) string {
	switch {
	case errors.Is(err, engine.ErrConfiguration):
		return "CONFIGURATION"
	case errors.Is(err, engine.ErrNotYourTurn):
		return "NOT_YOUR_TURN"
	case errors.Is(err, engine.ErrInvalidAmount):
		return "INVALID_AMOUNT"
	case errors.Is(err, engine.ErrPlayerUnavailable):
		return "PLAYER_UNAVAILABLE"
	case errors.Is(err, engine.ErrSessionNotActive):
		return "SESSION_NOT_ACTIVE"
	case errors.Is(err, engine.ErrUnsupportedCommand):
		return "UNSUPPORTED_COMMAND"
	default:
		return "INTERNAL"
	}
}
