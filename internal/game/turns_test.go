package game

import (
	"errors"
	"testing"
	"time"
)

func TestAPForTurn(t *testing.T) {
	tests := map[int]int{1: 0, 2: 0, 3: 5, 4: 10, 5: 15, 20: 15, 24: 15}
	for turn, want := range tests {
		if got := APForTurn(turn); got != want {
			t.Errorf("APForTurn(%d) = %d, want %d", turn, got, want)
		}
	}
}

func TestEndTurn_SavesCappedAP(t *testing.T) {
	g := createTestGameState([]string{"A", "B"})

	next, saved, err := EndTurn(g, "A", 12, testNow)
	if err != nil {
		t.Fatalf("EndTurn failed: %v", err)
	}
	if saved != MaxSavedActionPoints {
		t.Errorf("Expected %d saved, got %d", MaxSavedActionPoints, saved)
	}
	if next.CurrentPlayer != "B" || next.ActionPoints != 15 {
		t.Errorf("Expected B with 15 AP, got %s with %d", next.CurrentPlayer, next.ActionPoints)
	}

	later := testNow.Add(time.Minute)
	next, _, err = EndTurn(next, "B", 0, later)
	if err != nil {
		t.Fatalf("EndTurn failed: %v", err)
	}
	if next.Turn != 6 || next.CurrentPlayer != "A" {
		t.Errorf("Expected A on turn 6, got %s on turn %d", next.CurrentPlayer, next.Turn)
	}
	if next.ActionPoints != 25 {
		t.Errorf("Expected 15 + 10 saved AP, got %d", next.ActionPoints)
	}
	if !next.TurnStartTime.Equal(later) {
		t.Errorf("Expected turn start %v, got %v", later, next.TurnStartTime)
	}
	if len(next.TideDiscard) != 1 {
		t.Errorf("Expected a tide drawn for the new turn, got %d", len(next.TideDiscard))
	}
}

func TestEndTurn_CannotSaveMoreThanLeft(t *testing.T) {
	g := createTestGameState([]string{"A", "B"})
	g.ActionPoints = 3
	_, saved, err := EndTurn(g, "A", 8, testNow)
	if err != nil {
		t.Fatalf("EndTurn failed: %v", err)
	}
	if saved != 3 {
		t.Errorf("Expected 3 saved, got %d", saved)
	}

	_, saved, _ = EndTurn(g, "A", -4, testNow)
	if saved != 0 {
		t.Errorf("Expected negative request clamped to 0, got %d", saved)
	}
}

func TestEndTurn_Rejections(t *testing.T) {
	g := createTestGameState([]string{"A", "B"})
	if _, _, err := EndTurn(g, "B", 0, testNow); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("Expected ErrNotYourTurn, got %v", err)
	}

	g.Phase = PhaseLanding
	if _, _, err := EndTurn(g, "A", 0, testNow); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("Expected ErrWrongPhase during landing, got %v", err)
	}
}

func TestShotsResetOnTurnStart(t *testing.T) {
	tank := placed(1, UnitTank, "B", 0, 0)
	tank.ShotsRemaining = 0
	g := createTestGameState([]string{"A", "B"}, tank)

	next, _, err := EndTurn(g, "A", 0, testNow)
	if err != nil {
		t.Fatalf("EndTurn failed: %v", err)
	}
	if next.Unit(1).ShotsRemaining != MaxShots {
		t.Errorf("Expected B's tank reloaded, got %d", next.Unit(1).ShotsRemaining)
	}
}

func TestTimeoutTurn(t *testing.T) {
	g := createTestGameState([]string{"A", "B"})

	if _, err := TimeoutTurn(g, g.Turn, "B", testNow); !errors.Is(err, ErrStaleTimeout) {
		t.Errorf("Expected ErrStaleTimeout for the wrong player, got %v", err)
	}
	if _, err := TimeoutTurn(g, g.Turn-1, "A", testNow); !errors.Is(err, ErrStaleTimeout) {
		t.Errorf("Expected ErrStaleTimeout for an old turn, got %v", err)
	}

	next, err := TimeoutTurn(g, g.Turn, "A", testNow)
	if err != nil {
		t.Fatalf("TimeoutTurn failed: %v", err)
	}
	if next.CurrentPlayer != "B" || next.SavedActionPoints["A"] != 0 {
		t.Errorf("Expected B up and nothing saved, got %s / %d", next.CurrentPlayer, next.SavedActionPoints["A"])
	}

	// A second firing for the same turn is a no-op.
	if _, err := TimeoutTurn(next, g.Turn, "A", testNow); !errors.Is(err, ErrStaleTimeout) {
		t.Errorf("Expected ErrStaleTimeout on replay, got %v", err)
	}
}

func TestTimeoutTurn_LandingStrandsPlayer(t *testing.T) {
	g := newTestGame(t, "A", "B", "C")
	late := g.TurnOrder[0]

	next, err := TimeoutTurn(g, g.Turn, late, testNow)
	if err != nil {
		t.Fatalf("TimeoutTurn failed: %v", err)
	}
	if !next.Player(late).Stranded {
		t.Error("Expected player who never landed to be stranded")
	}
	if indexOf(next.TurnOrder, late) >= 0 {
		t.Errorf("Expected %s removed from turn order, got %v", late, next.TurnOrder)
	}
	if next.CurrentPlayer != g.TurnOrder[1] || next.Phase != PhaseLanding {
		t.Errorf("Expected %s to land next, got %s in %s", g.TurnOrder[1], next.CurrentPlayer, next.Phase)
	}
	if len(next.UnitsOf(late)) != 0 {
		t.Error("Expected the stranded player's equipment removed")
	}
}

func TestDeadline(t *testing.T) {
	g := createTestGameState([]string{"A", "B"})
	g.TurnTimeLimit = 90 * time.Second
	if want := testNow.Add(90 * time.Second); !g.Deadline().Equal(want) {
		t.Errorf("Expected deadline %v, got %v", want, g.Deadline())
	}
}

func TestTurnOrderSkipsPlayersWhoLeft(t *testing.T) {
	g := createTestGameState([]string{"A", "B", "C"})
	g.Players[1].HasLiftedOff = true

	next, _, err := EndTurn(g, "A", 0, testNow)
	if err != nil {
		t.Fatalf("EndTurn failed: %v", err)
	}
	if next.CurrentPlayer != "C" {
		t.Errorf("Expected C after A, got %s", next.CurrentPlayer)
	}
}
