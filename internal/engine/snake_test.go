package engine

import (
	"errors"
	"slices"
	"testing"
)

func testDraftRoster(capacity int) *Roster {
	return &Roster{
		Teams: []*Team{
			{ID: "A", Name: "Team A", CaptainID: "cap-a", Capacity: capacity},
			{ID: "B", Name: "Team B", CaptainID: "cap-b", Capacity: capacity},
		},
		Pool: []Player{
			{ID: "p1", TierScore: 90},
			{ID: "p2", TierScore: 80},
			{ID: "p3", TierScore: 70},
			{ID: "p4", TierScore: 60},
		},
	}
}

func testDraftConfig() Config {
	return Config{PickTimerSec: 30}
}

func TestSerpentineOrder(t *testing.T) {
	cases := []struct {
		name  string
		teams []*Team
		want  []TeamID
	}{
		{
			name:  "two teams capacity two",
			teams: []*Team{{ID: "A", Capacity: 2}, {ID: "B", Capacity: 2}},
			want:  []TeamID{"A", "B", "B", "A"},
		},
		{
			name:  "three teams capacity two",
			teams: []*Team{{ID: "A", Capacity: 2}, {ID: "B", Capacity: 2}, {ID: "C", Capacity: 2}},
			want:  []TeamID{"A", "B", "C", "C", "B", "A"},
		},
		{
			name:  "uneven capacities skip full teams",
			teams: []*Team{{ID: "A", Capacity: 2}, {ID: "B", Capacity: 1}},
			want:  []TeamID{"A", "B", "A"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := serpentineOrder(tc.teams)
			if !slices.Equal(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSnakeDraft_PickFlow(t *testing.T) {
	roster := testDraftRoster(1)
	s, _, err := NewSnakeDraft(roster, testDraftConfig())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// A picks p1.
	events, err := s.Apply(Command{Type: CmdMakePick, Team: "A", Player: "p1"})
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if !ContainsEvent(events, EvtPickMade) {
		t.Fatalf("expected PICK_MADE, got %+v", events)
	}

	// B tries to take the same player off a stale view.
	if _, err := s.Apply(Command{Type: CmdMakePick, Team: "B", Player: "p1"}); !errors.Is(err, ErrPlayerUnavailable) {
		t.Fatalf("want ErrPlayerUnavailable, got %v", err)
	}

	// B picks p2 and the draft completes.
	events, err = s.Apply(Command{Type: CmdMakePick, Team: "B", Player: "p2"})
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if !ContainsEvent(events, EvtSessionComplete) {
		t.Fatalf("expected completion, got %+v", events)
	}
	for _, team := range roster.Teams {
		if !team.Full() {
			t.Fatalf("team %s not at capacity: %+v", team.ID, team.Members)
		}
	}
}

func TestSnakeDraft_RejectsOutOfTurnPick(t *testing.T) {
	s, _, err := NewSnakeDraft(testDraftRoster(1), testDraftConfig())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := s.Apply(Command{Type: CmdMakePick, Team: "B", Player: "p1"}); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("want ErrWrongTurn-style rejection, got %v", err)
	}
	if got := s.Snapshot().PickIndex; got != 0 {
		t.Fatalf("rejected pick advanced the index to %d", got)
	}
}

func TestSnakeDraft_TimeoutAutoPicksHighestTier(t *testing.T) {
	roster := testDraftRoster(1)
	s, _, err := NewSnakeDraft(roster, testDraftConfig())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	events, err := s.Apply(Command{Type: CmdTimeoutResolve})
	if err != nil {
		t.Fatalf("timeout: %v", err)
	}
	if len(events) == 0 || events[0].Type != EvtPickMade || !events[0].Auto {
		t.Fatalf("expected auto PICK_MADE, got %+v", events)
	}
	if events[0].Player != "p1" {
		t.Fatalf("want highest-tier p1 auto-assigned, got %s", events[0].Player)
	}
	teamA := roster.Team("A")
	if len(teamA.Members) != 1 || teamA.Members[0].ID != "p1" {
		t.Fatalf("auto-pick did not land on team A: %+v", teamA.Members)
	}
}

func TestSnakeDraft_AutoPickTieBreaksOnPlayerID(t *testing.T) {
	roster := &Roster{
		Teams: []*Team{{ID: "A", Capacity: 1}},
		Pool: []Player{
			{ID: "p9", TierScore: 70},
			{ID: "p2", TierScore: 70},
		},
	}
	s, _, err := NewSnakeDraft(roster, testDraftConfig())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	events, err := s.Apply(Command{Type: CmdTimeoutResolve})
	if err != nil {
		t.Fatalf("timeout: %v", err)
	}
	if events[0].Player != "p2" {
		t.Fatalf("equal tiers must break on id ascending; got %s", events[0].Player)
	}
}

// The pick sequence must equal the serpentine order no matter how many picks
// were timeouts.
func TestSnakeDraft_PickOrderSurvivesTimeouts(t *testing.T) {
	roster := testDraftRoster(2)
	s, _, err := NewSnakeDraft(roster, testDraftConfig())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := slices.Clone(s.Snapshot().PickOrder)

	var made []TeamID
	for i := 0; !s.Completed(); i++ {
		var events []Event
		var err error
		if i%2 == 0 {
			events, err = s.Apply(Command{Type: CmdTimeoutResolve})
		} else {
			onClock := s.Snapshot().PickOrder[s.Snapshot().PickIndex]
			best, _ := roster.bestInPool()
			events, err = s.Apply(Command{Type: CmdMakePick, Team: onClock, Player: best.ID})
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		made = append(made, events[0].Team)
	}
	if !slices.Equal(made, want) {
		t.Fatalf("pick sequence %v diverged from serpentine order %v", made, want)
	}
}

func TestSnakeDraft_SparesStayInPool(t *testing.T) {
	roster := &Roster{
		Teams: []*Team{{ID: "A", Capacity: 1}},
		Pool: []Player{
			{ID: "p1", TierScore: 90},
			{ID: "p2", TierScore: 80},
		},
	}
	s, _, err := NewSnakeDraft(roster, testDraftConfig())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := s.Apply(Command{Type: CmdMakePick, Team: "A", Player: "p1"}); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if !s.Completed() {
		t.Fatalf("expected completion at capacity")
	}
	if len(roster.Pool) != 1 || roster.Pool[0].ID != "p2" {
		t.Fatalf("want p2 left as a spare, got %+v", roster.Pool)
	}
}

func TestSnakeDraft_ConfigurationError(t *testing.T) {
	roster := &Roster{
		Teams: []*Team{{ID: "A", Capacity: 5}},
		Pool:  []Player{{ID: "p1"}},
	}
	if _, _, err := NewSnakeDraft(roster, testDraftConfig()); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}
