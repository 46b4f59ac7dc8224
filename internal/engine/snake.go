package engine

import "slices"

// SnakeDraft runs the turn-based protocol: a fixed serpentine pick order is
// built once at start, and each turn the team on the clock claims one pool
// player. Timer expiry claims the best remaining player on the team's behalf.
type SnakeDraft struct {
	roster    *Roster
	cfg       Config
	pickOrder []TeamID
	pickIndex int
	done      bool
}

func NewSnakeDraft(roster *Roster, cfg Config) (*SnakeDraft, []Event, error) {
	cfg = cfg.withDefaults()
	if len(roster.Teams) == 0 || len(roster.Pool) < roster.totalCapacity() {
		return nil, nil, ErrConfiguration
	}
	for _, t := range roster.Teams {
		if t.Capacity <= 0 {
			return nil, nil, ErrConfiguration
		}
	}

	s := &SnakeDraft{
		roster:    roster,
		cfg:       cfg,
		pickOrder: serpentineOrder(roster.Teams),
	}
	return s, nil, nil
}

// serpentineOrder walks the teams forward, then backward, round after round,
// skipping any team whose capacity is already covered by earlier rounds. The
// result has exactly sum-of-capacities entries.
func serpentineOrder(teams []*Team) []TeamID {
	maxCap := 0
	for _, t := range teams {
		if t.Capacity > maxCap {
			maxCap = t.Capacity
		}
	}

	var order []TeamID
	for round := 0; round < maxCap; round++ {
		idx := make([]int, 0, len(teams))
		for i := range teams {
			idx = append(idx, i)
		}
		if round%2 == 1 {
			slices.Reverse(idx)
		}
		for _, i := range idx {
			if teams[i].Capacity > round {
				order = append(order, teams[i].ID)
			}
		}
	}
	return order
}

func (s *SnakeDraft) Apply(cmd Command) ([]Event, error) {
	if s.done {
		return nil, ErrSessionNotActive
	}

	switch cmd.Type {
	case CmdMakePick:
		return s.makePick(cmd.Team, cmd.Player)
	case CmdTimeoutResolve:
		return s.autoPick()
	default:
		return nil, ErrUnsupportedCommand
	}
}

func (s *SnakeDraft) onClock() TeamID { return s.pickOrder[s.pickIndex] }

func (s *SnakeDraft) makePick(team TeamID, player PlayerID) ([]Event, error) {
	if team != s.onClock() {
		return nil, ErrNotYourTurn
	}
	t := s.roster.Team(team)
	if t == nil || t.Full() {
		return nil, ErrNotYourTurn
	}
	if !s.roster.InPool(player) {
		return nil, ErrPlayerUnavailable
	}
	return s.claim(t, player, false), nil
}

// autoPick claims the highest-tier pool player for the team on the clock.
func (s *SnakeDraft) autoPick() ([]Event, error) {
	best, ok := s.roster.bestInPool()
	if !ok {
		// Can't happen while picks remain: the pool is at least total capacity.
		return nil, ErrPlayerUnavailable
	}
	t := s.roster.Team(s.onClock())
	return s.claim(t, best.ID, true), nil
}

func (s *SnakeDraft) claim(t *Team, player PlayerID, auto bool) []Event {
	p, _ := s.roster.takeFromPool(player)
	t.Members = append(t.Members, p)
	s.pickIndex++

	events := []Event{{Type: EvtPickMade, Team: t.ID, Player: player, Auto: auto}}
	if s.pickIndex >= len(s.pickOrder) {
		s.done = true
		events = append(events, Event{Type: EvtSessionComplete})
	}
	return events
}

func (s *SnakeDraft) Completed() bool { return s.done }

func (s *SnakeDraft) TimerSec() int { return s.cfg.PickTimerSec }

func (s *SnakeDraft) Snapshot() State {
	return State{
		Protocol:  ProtocolSnakeDraft,
		PickOrder: slices.Clone(s.pickOrder),
		PickIndex: s.pickIndex,
	}
}
