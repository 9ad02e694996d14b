package game

import (
	"math/rand"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestEffectiveClass(t *testing.T) {
	tests := []struct {
		terrain TerrainType
		tide    TideLevel
		want    Class
	}{
		{TerrainMarsh, TideLow, ClassLand},
		{TerrainMarsh, TideNormal, ClassLand},
		{TerrainMarsh, TideHigh, ClassSea},
		{TerrainReef, TideLow, ClassLand},
		{TerrainReef, TideNormal, ClassSea},
		{TerrainReef, TideHigh, ClassSea},
		{TerrainSea, TideLow, ClassSea},
		{TerrainLand, TideHigh, ClassLand},
		{TerrainMountain, TideNormal, ClassMountain},
		{TerrainNone, TideNormal, ClassNone},
	}
	for _, tt := range tests {
		if got := EffectiveClass(tt.terrain, tt.tide); got != tt.want {
			t.Errorf("EffectiveClass(%s, %s) = %q, want %q", tt.terrain, tt.tide, got, tt.want)
		}
	}
}

func TestTideDeckComposition(t *testing.T) {
	deck := NewTideDeck(rand.New(rand.NewSource(7)))
	counts := map[TideLevel]int{}
	for _, c := range deck {
		counts[c]++
	}
	for _, level := range []TideLevel{TideLow, TideNormal, TideHigh} {
		if counts[level] != 5 {
			t.Errorf("Expected 5 %s cards, got %d", level, counts[level])
		}
	}
}

func TestTideCycle(t *testing.T) {
	g := createTestGameState([]string{"A", "B"})

	for i := 0; i < 15; i++ {
		g.DrawTide()
	}
	if len(g.TideDeck) != 0 || len(g.TideDiscard) != 15 {
		t.Fatalf("Expected exhausted deck after 15 draws, got %d left, %d discarded", len(g.TideDeck), len(g.TideDiscard))
	}
	if g.Reshuffles != 1 {
		t.Errorf("Expected no reshuffle yet, got %d", g.Reshuffles)
	}

	g.DrawTide()
	if g.Reshuffles != 2 {
		t.Errorf("Expected a reshuffle on the 16th draw, got %d", g.Reshuffles)
	}
	if len(g.TideDeck) != 14 || len(g.TideDiscard) != 1 {
		t.Errorf("Expected discard recycled into deck, got %d left, %d discarded", len(g.TideDeck), len(g.TideDiscard))
	}
}

func TestTideCycle_ThirtyDraws(t *testing.T) {
	g := createTestGameState([]string{"A", "B"})
	counts := map[TideLevel]int{}
	for i := 0; i < 30; i++ {
		counts[g.DrawTide()]++
	}
	for _, level := range []TideLevel{TideLow, TideNormal, TideHigh} {
		if counts[level] != 10 {
			t.Errorf("Expected 10 %s draws, got %d", level, counts[level])
		}
	}
}

func TestTideSequenceIsSeeded(t *testing.T) {
	a := createTestGameState([]string{"A", "B"})
	b := createTestGameState([]string{"A", "B"})
	for i := 0; i < 40; i++ {
		if x, y := a.DrawTide(), b.DrawTide(); x != y {
			t.Fatalf("Draw %d differs: %s vs %s", i, x, y)
		}
	}
}

func TestTerrainJSON(t *testing.T) {
	board := Terrain{}
	board[hexAt(0, 0)] = TerrainLand
	board[hexAt(1, -1)] = TerrainReef

	data, err := board.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	var back Terrain
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON failed: %v", err)
	}
	if len(back) != 2 || back.At(hexAt(1, -1)) != TerrainReef {
		t.Errorf("Expected board restored, got %v", back)
	}
	if back.At(hexAt(5, 5)) != TerrainNone {
		t.Error("Expected off-board hex to be TerrainNone")
	}
}

func TestTerrainMsgpack(t *testing.T) {
	board := Terrain{hexAt(0, 0): TerrainMarsh, hexAt(2, -1): TerrainMountain}

	data, err := msgpack.Marshal(board)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back Terrain
	if err := msgpack.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(back) != 2 || back.At(hexAt(2, -1)) != TerrainMountain {
		t.Errorf("Expected board restored, got %v", back)
	}
}
