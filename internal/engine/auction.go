package engine

import "slices"

// Auction runs the live-bidding protocol: players are nominated one at a time
// in tier order, captains bid against a shared clock, and timer expiry awards
// the player to the highest bidder. A player whose round closes with no bid is
// re-queued until the configured no-bid allowance runs out.
type Auction struct {
	roster *Roster
	cfg    Config

	queue      []PlayerID // upcoming nominations, current player excluded
	current    PlayerID   // empty once the queue is exhausted
	highBid    int        // 0 until the first accepted bid of the round
	highBidder TeamID
	noBids     map[PlayerID]int
	unassigned []PlayerID
	done       bool
}

func NewAuction(roster *Roster, cfg Config) (*Auction, []Event, error) {
	cfg = cfg.withDefaults()
	if len(roster.Teams) == 0 || len(roster.Pool) < roster.totalCapacity() {
		return nil, nil, ErrConfiguration
	}
	for _, t := range roster.Teams {
		if t.Capacity <= 0 {
			return nil, nil, ErrConfiguration
		}
		t.Budget = cfg.TeamBudget
	}

	a := &Auction{
		roster: roster,
		cfg:    cfg,
		queue:  roster.sortedByTier(),
		noBids: make(map[PlayerID]int),
	}
	return a, a.nominate(), nil
}

// nominate opens bidding on the next queued player, or completes the session
// when nobody is left to nominate.
func (a *Auction) nominate() []Event {
	if len(a.queue) == 0 {
		a.current = ""
		a.done = true
		return []Event{{Type: EvtSessionComplete}}
	}
	a.current = a.queue[0]
	a.queue = a.queue[1:]
	a.highBid = 0
	a.highBidder = ""
	return []Event{{Type: EvtPlayerNominated, Player: a.current}}
}

func (a *Auction) Apply(cmd Command) ([]Event, error) {
	if a.done {
		return nil, ErrSessionNotActive
	}

	switch cmd.Type {
	case CmdPlaceBid:
		return a.placeBid(cmd.Team, cmd.Amount)
	case CmdTimeoutResolve:
		return a.resolveRound(), nil
	default:
		return nil, ErrUnsupportedCommand
	}
}

func (a *Auction) placeBid(team TeamID, amount int) ([]Event, error) {
	t := a.roster.Team(team)
	if t == nil || t.Full() {
		return nil, ErrNotYourTurn
	}

	min := a.cfg.BidFloor
	if a.highBidder != "" {
		min = a.highBid + a.cfg.BidIncrement
	}
	if amount%a.cfg.BidIncrement != 0 || amount < min || amount > t.Budget {
		return nil, ErrInvalidAmount
	}
	if team == a.highBidder {
		// Re-raising your own high bid only burns budget.
		return nil, ErrNotYourTurn
	}

	a.highBid = amount
	a.highBidder = team
	delete(a.noBids, a.current)
	return []Event{{Type: EvtBidPlaced, Team: team, Player: a.current, Amount: amount}}, nil
}

// resolveRound closes the current player's bidding round: award to the high
// bidder, or count a no-bid cycle and either re-queue or park the player.
func (a *Auction) resolveRound() []Event {
	if a.highBidder != "" {
		t := a.roster.Team(a.highBidder)
		p, _ := a.roster.takeFromPool(a.current)
		t.Members = append(t.Members, p)
		t.Budget -= a.highBid

		events := []Event{{Type: EvtPlayerAwarded, Team: a.highBidder, Player: a.current, Amount: a.highBid, Auto: true}}
		return append(events, a.nominate()...)
	}

	a.noBids[a.current]++
	cycles := a.noBids[a.current]
	if cycles > a.cfg.MaxNoBidCycles {
		// Allowance spent; the player sits out team formation entirely.
		a.roster.takeFromPool(a.current)
		a.unassigned = append(a.unassigned, a.current)
		events := []Event{{Type: EvtPlayerUnassigned, Player: a.current, Cycles: cycles, Auto: true}}
		return append(events, a.nominate()...)
	}

	a.queue = append(a.queue, a.current)
	events := []Event{{Type: EvtPlayerPassed, Player: a.current, Cycles: cycles, Auto: true}}
	return append(events, a.nominate()...)
}

func (a *Auction) Completed() bool { return a.done }

func (a *Auction) TimerSec() int { return a.cfg.BidTimerSec }

func (a *Auction) Snapshot() State {
	return State{
		Protocol:        ProtocolAuction,
		NominationQueue: slices.Clone(a.queue),
		CurrentPlayer:   a.current,
		HighBid:         a.highBid,
		HighBidder:      a.highBidder,
		NoBidCycles:     a.noBids[a.current],
		Unassigned:      slices.Clone(a.unassigned),
	}
}

// UnassignedPlayers lists players whose no-bid allowance ran out.
func (a *Auction) UnassignedPlayers() []PlayerID { return slices.Clone(a.unassigned) }
