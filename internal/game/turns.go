package game

import (
	"fmt"
	"time"
)

// APForTurn returns the fresh action points granted on a given turn, before
// saved points are added.
func APForTurn(turn int) int {
	switch {
	case turn < TurnFirstPlaying:
		return 0
	case turn == TurnFirstPlaying:
		return 5
	case turn == TurnFirstPlaying+1:
		return 10
	default:
		return 15
	}
}

// EndTurn closes actor's turn, banking up to savedAP unused points, and
// returns the new snapshot plus the points actually saved.
func EndTurn(g *GameState, actor string, savedAP int, now time.Time) (*GameState, int, error) {
	if err := checkActor(g, actor); err != nil {
		return nil, 0, err
	}
	if err := g.requirePhase(PhaseDeployment, PhasePlaying); err != nil {
		return nil, 0, err
	}
	next := g.Clone()
	saved := 0
	if next.Phase == PhasePlaying {
		saved = clamp(savedAP, 0, min(next.ActionPoints, MaxSavedActionPoints))
	}
	next.bank(actor, saved)
	next.advanceTurn(now)
	return next, saved, nil
}

// TimeoutTurn ends the turn of expectedPlayer when the turn timer fires. It
// fails with ErrStaleTimeout when the game has already moved past that turn,
// so a timer racing with a regular end of turn is a no-op.
func TimeoutTurn(g *GameState, expectedTurn int, expectedPlayer string, now time.Time) (*GameState, error) {
	if g.Phase == PhaseFinished {
		return nil, reject(ErrGameOver, "")
	}
	if g.Turn != expectedTurn || g.CurrentPlayer != expectedPlayer {
		return nil, reject(ErrStaleTimeout, fmt.Sprintf("turn %d of %s", expectedTurn, expectedPlayer))
	}

	next := g.Clone()
	switch next.Phase {
	case PhaseLanding:
		// A player who never lands is out of the game.
		idx := indexOf(next.TurnOrder, expectedPlayer)
		next.strand(expectedPlayer)
		next.TurnOrder = append(next.TurnOrder[:idx], next.TurnOrder[idx+1:]...)
		next.advanceFrom(idx-1, now)
	case PhaseEndgame:
		for _, id := range next.pendingDecisions() {
			next.LiftOffDecisions[id] = true
		}
		next.resolveDecisions(now)
	default:
		next.bank(expectedPlayer, 0)
		next.advanceTurn(now)
	}
	return next, nil
}

// Deadline is when the current turn times out.
func (g *GameState) Deadline() time.Time {
	limit := g.TurnTimeLimit
	if limit <= 0 {
		limit = DefaultTurnTimeLimit
	}
	return g.TurnStartTime.Add(limit)
}

func (g *GameState) bank(playerID string, saved int) {
	g.SavedActionPoints[playerID] = saved
	if p := g.Player(playerID); p != nil {
		p.SavedActionPoints = saved
	}
	g.ActionPoints = 0
}

// advanceTurn hands the turn to the next player still on the planet,
// starting a new global turn when the order wraps.
func (g *GameState) advanceTurn(now time.Time) {
	g.advanceFrom(indexOf(g.TurnOrder, g.CurrentPlayer), now)
}

// advanceLanding passes the landing turn on once an Astronef is down.
func (g *GameState) advanceLanding(now time.Time) {
	g.advanceTurn(now)
}

func (g *GameState) advanceFrom(idx int, now time.Time) {
	for j := idx + 1; j < len(g.TurnOrder); j++ {
		if p := g.Player(g.TurnOrder[j]); p != nil && !p.Done() {
			g.beginPlayerTurn(p.ID, now)
			return
		}
	}
	g.nextGlobalTurn(now)
}

// nextGlobalTurn increments the turn counter, moves the phase along the turn
// milestones and draws the tide for the new turn.
func (g *GameState) nextGlobalTurn(now time.Time) {
	active := g.activePlayers()
	if len(active) == 0 {
		g.finish()
		return
	}

	g.Turn++
	if g.Turn > TurnLastPlaying {
		for _, id := range active {
			g.liftOff(id)
		}
		g.finish()
		return
	}

	switch g.Turn {
	case TurnDeployment:
		g.Phase = PhaseDeployment
	case TurnFirstPlaying:
		g.Phase = PhasePlaying
	case TurnLiftOffChoice:
		g.Phase = PhaseEndgame
	}
	g.DrawTide()

	if g.Phase == PhaseEndgame {
		g.CurrentPlayer = active[0]
		g.TurnStartTime = now.UTC()
		g.ActionPoints = 0
		g.LiftOffDecisions = make(map[string]bool)
		g.refreshStatus()
		return
	}
	g.beginPlayerTurn(active[0], now)
}

// beginPlayerTurn makes id the active player: shots are restored, status
// flags follow the tide and fire zones, and fresh plus saved AP are granted.
func (g *GameState) beginPlayerTurn(id string, now time.Time) {
	g.CurrentPlayer = id
	g.TurnStartTime = now.UTC()
	g.Units = ResetShotsForTurn(g.Units, id)
	g.refreshStatus()

	ap := APForTurn(g.Turn)
	if g.Phase == PhasePlaying {
		ap += g.SavedActionPoints[id]
	}
	g.SavedActionPoints[id] = 0
	if p := g.Player(id); p != nil {
		p.SavedActionPoints = 0
	}
	g.ActionPoints = ap
}

func (g *GameState) finish() {
	g.Phase = PhaseFinished
	g.ActionPoints = 0
}

func indexOf(list []string, s string) int {
	for i, x := range list {
		if x == s {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
