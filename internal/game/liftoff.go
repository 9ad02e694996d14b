package game

import (
	"sort"
	"time"
)

// Scoring weights.
const (
	PointsPerMineral = 2
	PointsPerUnit    = 1
	PointsPerTower   = 1
)

// DecisionResult reports what recording a lift-off decision did.
type DecisionResult struct {
	// Pending lists the players who still have to decide.
	Pending []string
	// Revealed is set once the last decision came in. Decisions then holds
	// every player's choice.
	Revealed  bool
	Decisions map[string]bool
	LiftedOff []string
	Stranded  []string
}

// RecordLiftOffDecision stores a secret decision during the endgame turn.
// Nothing is resolved until every player on the planet has decided.
func RecordLiftOffDecision(g *GameState, playerID string, leave bool, now time.Time) (*GameState, DecisionResult, error) {
	var res DecisionResult
	if g.Phase == PhaseFinished {
		return nil, res, reject(ErrGameOver, "")
	}
	if g.Phase != PhaseEndgame {
		return nil, res, reject(ErrWrongPhase, string(g.Phase))
	}
	p := g.Player(playerID)
	if p == nil || p.Done() {
		return nil, res, reject(ErrPlayerNotFound, playerID)
	}
	if _, ok := g.LiftOffDecisions[playerID]; ok {
		return nil, res, reject(ErrAlreadyDecided, "")
	}

	next := g.Clone()
	next.LiftOffDecisions[playerID] = leave
	res.Pending = next.pendingDecisions()
	if len(res.Pending) > 0 {
		return next, res, nil
	}

	res.Revealed = true
	res.Decisions = make(map[string]bool, len(next.LiftOffDecisions))
	for k, v := range next.LiftOffDecisions {
		res.Decisions[k] = v
	}
	before := next.doneSet()
	next.resolveDecisions(now)
	res.LiftedOff, res.Stranded = next.newlyDone(before)
	return next, res, nil
}

// pendingDecisions returns the active players without a recorded decision,
// in turn order.
func (g *GameState) pendingDecisions() []string {
	var out []string
	for _, id := range g.activePlayers() {
		if _, ok := g.LiftOffDecisions[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// resolveDecisions lifts off every player who chose to leave and resumes
// play for the others on the turn after the decision.
func (g *GameState) resolveDecisions(now time.Time) {
	for _, id := range g.activePlayers() {
		if g.LiftOffDecisions[id] {
			g.liftOff(id)
		}
	}
	g.Phase = PhasePlaying
	g.nextGlobalTurn(now)
}

func (g *GameState) liftOffAction(actor string, now time.Time) error {
	if err := g.requirePhase(PhasePlaying); err != nil {
		return err
	}
	if g.Turn <= TurnLiftOffChoice {
		return reject(ErrWrongPhase, "lift-off opens after the decision turn")
	}
	astronef := g.Astronef(actor)
	if astronef == nil || astronef.Position == nil {
		return reject(ErrInvalidAction, "no astronef to lift off")
	}
	if astronef.IsStuck {
		return reject(ErrUnitStuck, "astronef")
	}
	g.liftOff(actor)
	g.advanceTurn(now)
	return nil
}

// liftOff takes the player's Astronef off the planet and scores what is
// aboard. A player whose Astronef is gone, captured or stuck is stranded.
// Equipment left behind is abandoned and leaves the board.
func (g *GameState) liftOff(playerID string) {
	p := g.Player(playerID)
	if p == nil || p.Done() {
		return
	}
	astronef := g.Astronef(playerID)
	if astronef == nil || astronef.Position == nil || astronef.IsStuck {
		g.strand(playerID)
		return
	}

	p.Score = g.scoreAboard(astronef)
	p.HasLiftedOff = true
	p.AstronefPosition = nil
	g.abandon(playerID)
}

// scoreAboard counts the minerals and equipment inside the Astronef, nested
// cargo included, plus the intact turrets on its podes.
func (g *GameState) scoreAboard(astronef *Unit) int {
	score := 0
	var walk func(u *Unit)
	walk = func(u *Unit) {
		score += PointsPerMineral * len(u.Minerals)
		for _, id := range u.Cargo {
			if c := g.Unit(id); c != nil {
				score += PointsPerUnit
				walk(c)
			}
		}
	}
	walk(astronef)

	for _, c := range PodeHexes(astronef) {
		t := g.UnitAt(c)
		if t != nil && t.Type == UnitTower && t.Owner == astronef.Owner && !t.IsNeutralized {
			score += PointsPerTower
		}
	}
	return score
}

// strand marks a player as unable to leave. Stranded players score nothing.
func (g *GameState) strand(playerID string) {
	p := g.Player(playerID)
	if p == nil {
		return
	}
	p.Stranded = true
	p.Score = 0
	p.AstronefPosition = nil
	g.abandon(playerID)
}

// abandon removes every unit still owned by a player who left the game.
func (g *GameState) abandon(playerID string) {
	kept := g.Units[:0]
	for _, u := range g.Units {
		if u.Owner != playerID {
			kept = append(kept, u)
		}
	}
	g.Units = kept
	for i := range g.Units {
		u := &g.Units[i]
		u.Cargo = g.existing(u.Cargo)
	}
	delete(g.SavedActionPoints, playerID)
}

func (g *GameState) existing(ids []UnitID) []UnitID {
	var out []UnitID
	for _, id := range ids {
		if g.Unit(id) != nil {
			out = append(out, id)
		}
	}
	return out
}

func (g *GameState) doneSet() map[string]bool {
	out := make(map[string]bool)
	for _, p := range g.Players {
		if p.Done() {
			out[p.ID] = true
		}
	}
	return out
}

// newlyDone splits the players who left since before into lifted off and
// stranded, sorted by id.
func (g *GameState) newlyDone(before map[string]bool) (lifted, stranded []string) {
	for _, p := range g.Players {
		if before[p.ID] {
			continue
		}
		switch {
		case p.HasLiftedOff:
			lifted = append(lifted, p.ID)
		case p.Stranded:
			stranded = append(stranded, p.ID)
		}
	}
	sort.Strings(lifted)
	sort.Strings(stranded)
	return lifted, stranded
}
