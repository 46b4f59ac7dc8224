package engine

import (
	"slices"
	"sort"
)

type Protocol string

const (
	ProtocolAuction    Protocol = "auction"
	ProtocolSnakeDraft Protocol = "snake_draft"
)

type TeamID string

type PlayerID string

// Player is immutable for the lifetime of an allocation session. TierScore is
// precomputed by the rating collaborator before the roster is handed to us.
type Player struct {
	ID          PlayerID `json:"id"`
	DisplayName string   `json:"display_name"`
	TierScore   int      `json:"tier_score"`
	Role        string   `json:"role,omitempty"`
}

type Team struct {
	ID        TeamID   `json:"id"`
	Name      string   `json:"name"`
	CaptainID string   `json:"captain_id"`
	Capacity  int      `json:"capacity"`
	Budget    int      `json:"budget"` // auction only, never negative
	Members   []Player `json:"members"`
}

func (t *Team) Full() bool { return len(t.Members) >= t.Capacity }

// Roster holds the mutable pool/team state an engine allocates over. Only the
// owning session's loop ever touches it.
type Roster struct {
	Teams []*Team
	Pool  []Player
}

func (r *Roster) Team(id TeamID) *Team {
	for _, t := range r.Teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (r *Roster) InPool(id PlayerID) bool {
	return slices.ContainsFunc(r.Pool, func(p Player) bool { return p.ID == id })
}

// takeFromPool removes and returns a pool player by id.
func (r *Roster) takeFromPool(id PlayerID) (Player, bool) {
	for i, p := range r.Pool {
		if p.ID == id {
			r.Pool = slices.Delete(r.Pool, i, i+1)
			return p, true
		}
	}
	return Player{}, false
}

// bestInPool picks the highest tier score, player id ascending on equal score.
// Deterministic so auto-picks replay identically everywhere.
func (r *Roster) bestInPool() (Player, bool) {
	if len(r.Pool) == 0 {
		return Player{}, false
	}
	best := r.Pool[0]
	for _, p := range r.Pool[1:] {
		if p.TierScore > best.TierScore || (p.TierScore == best.TierScore && p.ID < best.ID) {
			best = p
		}
	}
	return best, true
}

func (r *Roster) totalCapacity() int {
	n := 0
	for _, t := range r.Teams {
		n += t.Capacity
	}
	return n
}

// sortedByTier returns pool player ids ordered tier score descending, id
// ascending. Used as the auction nomination order.
func (r *Roster) sortedByTier() []PlayerID {
	pool := slices.Clone(r.Pool)
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].TierScore != pool[j].TierScore {
			return pool[i].TierScore > pool[j].TierScore
		}
		return pool[i].ID < pool[j].ID
	})
	ids := make([]PlayerID, len(pool))
	for i, p := range pool {
		ids[i] = p.ID
	}
	return ids
}

// Config carries the tunables both engines read. Zero values are replaced by
// Defaults at session start.
type Config struct {
	BidFloor       int `json:"bid_floor"`
	BidIncrement   int `json:"bid_increment"`
	TeamBudget     int `json:"team_budget"`
	MaxNoBidCycles int `json:"max_no_bid_cycles"`
	BidTimerSec    int `json:"bid_timer_sec"`
	PickTimerSec   int `json:"pick_timer_sec"`
}

func Defaults() Config {
	return Config{
		BidFloor:       100,
		BidIncrement:   100,
		TeamBudget:     1000,
		MaxNoBidCycles: 2,
		BidTimerSec:    15,
		PickTimerSec:   30,
	}
}

func (c Config) withDefaults() Config {
	d := Defaults()
	if c.BidFloor <= 0 {
		c.BidFloor = d.BidFloor
	}
	if c.BidIncrement <= 0 {
		c.BidIncrement = d.BidIncrement
	}
	if c.TeamBudget <= 0 {
		c.TeamBudget = d.TeamBudget
	}
	if c.MaxNoBidCycles <= 0 {
		c.MaxNoBidCycles = d.MaxNoBidCycles
	}
	if c.BidTimerSec <= 0 {
		c.BidTimerSec = d.BidTimerSec
	}
	if c.PickTimerSec <= 0 {
		c.PickTimerSec = d.PickTimerSec
	}
	return c
}
