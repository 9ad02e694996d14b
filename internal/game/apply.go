package game

import (
	"fmt"
	"time"
)

// Apply validates an action for actor against g and returns the resulting
// snapshot. g itself is never modified; on error the returned state is nil.
func Apply(g *GameState, actor string, action Action, now time.Time) (*GameState, Outcome, error) {
	out := Outcome{PlayerID: actor}
	if action == nil {
		return nil, out, reject(ErrInvalidAction, "empty action")
	}
	out.Kind = action.Kind()

	if err := checkActor(g, actor); err != nil {
		return nil, out, err
	}

	next := g.Clone()
	startTurn, startPhase := next.Turn, next.Phase
	apBefore := next.ActionPoints
	doneBefore := next.doneSet()

	var err error
	switch a := action.(type) {
	case LandAstronef:
		err = next.landAstronef(actor, a, now)
	case Deploy:
		err = next.deploy(actor, a)
	case Move:
		err = next.move(actor, a)
	case Fire:
		err = next.fire(actor, a, &out)
	case Capture:
		err = next.captureAction(actor, a, &out)
	case Load:
		err = next.load(actor, a)
	case Unload:
		err = next.unload(actor, a)
	case RebuildTower:
		err = next.rebuildTower(actor, a, &out)
	case LiftOff:
		err = next.liftOffAction(actor, now)
	default:
		err = reject(ErrInvalidAction, fmt.Sprintf("unknown action %q", action.Kind()))
	}
	if err != nil {
		return nil, out, err
	}

	if next.ActionPoints < 0 {
		return nil, out, reject(ErrInsufficientAP, "")
	}
	next.releaseNeutralized()
	out.LiftedOff, out.StrandedNow = next.newlyDone(doneBefore)
	if next.Turn == startTurn && next.CurrentPlayer == actor {
		out.APSpent = apBefore - next.ActionPoints
	}
	out.TurnAdvanced = next.Turn != startTurn || next.CurrentPlayer != g.CurrentPlayer
	out.PhaseChanged = next.Phase != startPhase
	out.GameFinished = next.Phase == PhaseFinished
	return next, out, nil
}

// checkActor rejects actions from anyone but the current player.
func checkActor(g *GameState, actor string) error {
	if g.Phase == PhaseFinished {
		return reject(ErrGameOver, "")
	}
	p := g.Player(actor)
	if p == nil {
		return reject(ErrPlayerNotFound, actor)
	}
	if g.Phase == PhaseEndgame {
		return reject(ErrWrongPhase, "waiting for lift-off decisions")
	}
	if g.CurrentPlayer != actor {
		return reject(ErrNotYourTurn, "")
	}
	return nil
}

func (g *GameState) requirePhase(phases ...Phase) error {
	for _, p := range phases {
		if g.Phase == p {
			return nil
		}
	}
	return reject(ErrWrongPhase, string(g.Phase))
}

// spend deducts AP, rejecting before any mutation when the budget is short.
func (g *GameState) spend(cost int) error {
	if cost > g.ActionPoints {
		return reject(ErrInsufficientAP, fmt.Sprintf("need %d, have %d", cost, g.ActionPoints))
	}
	g.ActionPoints -= cost
	return nil
}

// ownedUnit resolves a unit of actor that is on the board and able to act.
func (g *GameState) ownedUnit(actor string, id UnitID) (*Unit, error) {
	u := g.Unit(id)
	if u == nil {
		return nil, reject(ErrUnitNotFound, fmt.Sprint(id))
	}
	if u.Owner != actor {
		return nil, reject(ErrNotYourUnit, fmt.Sprint(id))
	}
	if u.Position == nil {
		return nil, reject(ErrInvalidAction, fmt.Sprintf("unit %d is not on the board", id))
	}
	if u.IsStuck {
		return nil, reject(ErrUnitStuck, fmt.Sprint(id))
	}
	if u.IsNeutralized {
		return nil, reject(ErrUnitNeutralized, fmt.Sprint(id))
	}
	return u, nil
}

func (g *GameState) fire(actor string, a Fire, out *Outcome) error {
	if err := g.requirePhase(PhasePlaying); err != nil {
		return err
	}
	if g.ActionPoints < CostFire {
		return reject(ErrInsufficientAP, fmt.Sprintf("need %d, have %d", CostFire, g.ActionPoints))
	}
	id, err := g.destroy(actor, a.Attackers, a.Target)
	if err != nil {
		return err
	}
	out.Destroyed = append(out.Destroyed, id)
	return g.spend(CostFire)
}

func (g *GameState) captureAction(actor string, a Capture, out *Outcome) error {
	if err := g.requirePhase(PhasePlaying); err != nil {
		return err
	}
	if g.ActionPoints < CostCapture {
		return reject(ErrInsufficientAP, fmt.Sprintf("need %d, have %d", CostCapture, g.ActionPoints))
	}
	if err := g.capture(actor, a.Attackers, a.TargetID); err != nil {
		return err
	}
	out.Captured = append(out.Captured, a.TargetID)
	return g.spend(CostCapture)
}

func (g *GameState) rebuildTower(actor string, a RebuildTower, out *Outcome) error {
	if err := g.requirePhase(PhasePlaying); err != nil {
		return err
	}
	p := g.Player(actor)
	astronef := g.Astronef(actor)
	if astronef == nil || astronef.Position == nil {
		return reject(ErrInvalidAction, "no astronef on the board")
	}
	if p.TowersLost == 0 {
		return reject(ErrInvalidAction, "no turret to rebuild")
	}
	if !IsTurretPlacementValid(a.Pode, astronef, g.Units) {
		return reject(ErrInvalidPlacement, "pode unavailable")
	}
	if err := g.spend(CostRebuildTower); err != nil {
		return err
	}
	pos := a.Pode
	// Rebuilt turrets fire from the owner's next turn.
	tower := g.addUnit(Unit{Type: UnitTower, Owner: actor, Position: &pos})
	p.TowersLost--
	out.Created = append(out.Created, tower.ID)
	return nil
}
