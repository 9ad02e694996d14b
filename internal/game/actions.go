package game

import (
	"fullmetal-planet/pkg/hex"
)

// ActionKind is the wire tag of an action.
type ActionKind string

const (
	ActionLandAstronef ActionKind = "LAND_ASTRONEF"
	ActionDeploy       ActionKind = "DEPLOY"
	ActionMove         ActionKind = "MOVE"
	ActionFire         ActionKind = "FIRE"
	ActionCapture      ActionKind = "CAPTURE"
	ActionLoad         ActionKind = "LOAD"
	ActionUnload       ActionKind = "UNLOAD"
	ActionRebuildTower ActionKind = "REBUILD_TOWER"
	ActionLiftOff      ActionKind = "LIFT_OFF"
)

// AP costs.
const (
	CostFire         = 2
	CostCapture      = 1
	CostLoad         = 1
	CostUnload       = 1
	CostRebuildTower = 2
)

// Action is a closed set of player intents. Only types in this package
// implement it.
type Action interface {
	Kind() ActionKind
	sealed()
}

// LandAstronef places the player's Astronef during the landing turn.
type LandAstronef struct {
	Anchor   hex.Coord `json:"anchor"`
	Rotation int       `json:"rotation"`
}

// Deploy takes a unit out of the Astronef during the deployment turn.
type Deploy struct {
	UnitID   UnitID    `json:"unitId"`
	Position hex.Coord `json:"position"`
	Rotation int       `json:"rotation"`
}

// Move walks a unit along a path of adjacent hexes. Rotation, when set,
// is applied at the last step.
type Move struct {
	UnitID   UnitID      `json:"unitId"`
	Path     []hex.Coord `json:"path"`
	Rotation *int        `json:"rotation,omitempty"`
}

// Fire destroys the enemy unit at Target with two attackers.
type Fire struct {
	Attackers [2]UnitID `json:"attackers"`
	Target    hex.Coord `json:"target"`
}

// Capture takes over an enemy unit surrounded by two attackers.
type Capture struct {
	Attackers [2]UnitID `json:"attackers"`
	TargetID  UnitID    `json:"targetId"`
}

// Load puts a unit or a mineral into a carrier. Exactly one of UnitID and
// MineralID is set.
type Load struct {
	CarrierID UnitID     `json:"carrierId"`
	UnitID    *UnitID    `json:"unitId,omitempty"`
	MineralID *MineralID `json:"mineralId,omitempty"`
}

// Unload takes a unit or a mineral out of a carrier onto an adjacent hex.
type Unload struct {
	CarrierID UnitID     `json:"carrierId"`
	UnitID    *UnitID    `json:"unitId,omitempty"`
	MineralID *MineralID `json:"mineralId,omitempty"`
	Position  hex.Coord  `json:"position"`
	Rotation  int        `json:"rotation"`
}

// RebuildTower mounts a new turret on a free pode of the player's Astronef.
type RebuildTower struct {
	Pode hex.Coord `json:"pode"`
}

// LiftOff leaves the planet with whatever is aboard the Astronef.
type LiftOff struct{}

func (LandAstronef) Kind() ActionKind { return ActionLandAstronef }
func (Deploy) Kind() ActionKind       { return ActionDeploy }
func (Move) Kind() ActionKind         { return ActionMove }
func (Fire) Kind() ActionKind         { return ActionFire }
func (Capture) Kind() ActionKind      { return ActionCapture }
func (Load) Kind() ActionKind         { return ActionLoad }
func (Unload) Kind() ActionKind       { return ActionUnload }
func (RebuildTower) Kind() ActionKind { return ActionRebuildTower }
func (LiftOff) Kind() ActionKind      { return ActionLiftOff }

func (LandAstronef) sealed() {}
func (Deploy) sealed()       {}
func (Move) sealed()         {}
func (Fire) sealed()         {}
func (Capture) sealed()      {}
func (Load) sealed()         {}
func (Unload) sealed()       {}
func (RebuildTower) sealed() {}
func (LiftOff) sealed()      {}

// Outcome describes what an applied action changed, for broadcasting.
type Outcome struct {
	Kind          ActionKind `json:"kind"`
	PlayerID      string     `json:"playerId"`
	APSpent       int        `json:"apSpent"`
	Destroyed     []UnitID   `json:"destroyed,omitempty"`
	Captured      []UnitID   `json:"captured,omitempty"`
	Created       []UnitID   `json:"created,omitempty"`
	TurnAdvanced  bool       `json:"turnAdvanced,omitempty"`
	PhaseChanged  bool       `json:"phaseChanged,omitempty"`
	GameFinished  bool       `json:"gameFinished,omitempty"`
	LiftedOff     []string   `json:"liftedOff,omitempty"`
	StrandedNow   []string   `json:"stranded,omitempty"`
}
