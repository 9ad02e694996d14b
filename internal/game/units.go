package game

import (
	"math"

	"fullmetal-planet/pkg/hex"
)

// UnitType identifies a kind of equipment.
type UnitType string

const (
	UnitAstronef  UnitType = "astronef"
	UnitTower     UnitType = "tower"
	UnitTank      UnitType = "tank"
	UnitSuperTank UnitType = "super_tank"
	UnitMotorBoat UnitType = "motor_boat"
	UnitBarge     UnitType = "barge"
	UnitCrab      UnitType = "crab"
)

// Domain is the terrain class a unit operates on.
type Domain string

const (
	DomainLand Domain = "land"
	DomainSea  Domain = "sea"
)

// MaxShots is the number of shots a combat unit gets per turn.
const MaxShots = 2

// Immobile marks a movement cost for units that never move.
var Immobile = math.Inf(1)

// UnlimitedCargo marks a carrier without a load limit.
const UnlimitedCargo = -1

// Properties are the static characteristics of a unit type.
type Properties struct {
	MovementCost       float64
	CombatRange        int
	MountainRangeBonus int
	Domain             Domain
	CanEnterMountain   bool
	CargoCapacity      int
	LoadSize           int
	CarriesMinerals    bool
	Carries            []UnitType
	// Footprint is the shape at rotation 0, relative to the anchor.
	Footprint []hex.Coord
}

// UnitProperties is the unit catalogue.
var UnitProperties = map[UnitType]Properties{
	UnitAstronef: {
		MovementCost:    Immobile,
		Domain:          DomainLand,
		CargoCapacity:   UnlimitedCargo,
		CarriesMinerals: true,
		Carries:         []UnitType{UnitTank, UnitSuperTank, UnitMotorBoat, UnitBarge, UnitCrab},
		Footprint:       []hex.Coord{{}, hex.Direction(0), hex.Direction(2), hex.Direction(4)},
	},
	UnitTower: {
		MovementCost: Immobile,
		CombatRange:  2,
		Domain:       DomainLand,
		Footprint:    []hex.Coord{{}},
	},
	UnitTank: {
		MovementCost:       1,
		CombatRange:        2,
		MountainRangeBonus: 1,
		Domain:             DomainLand,
		CanEnterMountain:   true,
		LoadSize:           1,
		Footprint:          []hex.Coord{{}},
	},
	UnitSuperTank: {
		MovementCost: 1,
		CombatRange:  3,
		Domain:       DomainLand,
		LoadSize:     2,
		Footprint:    []hex.Coord{{}},
	},
	UnitMotorBoat: {
		MovementCost: 1,
		CombatRange:  2,
		Domain:       DomainSea,
		LoadSize:     1,
		Footprint:    []hex.Coord{{}},
	},
	UnitBarge: {
		MovementCost:    1,
		Domain:          DomainSea,
		CargoCapacity:   4,
		LoadSize:        4,
		CarriesMinerals: true,
		Carries:         []UnitType{UnitTank, UnitSuperTank, UnitCrab},
		Footprint:       []hex.Coord{{}, hex.Direction(0)},
	},
	UnitCrab: {
		MovementCost:     1,
		Domain:           DomainLand,
		CanEnterMountain: true,
		CargoCapacity:    2,
		LoadSize:         2,
		CarriesMinerals:  true,
		Carries:          []UnitType{UnitTank},
		Footprint:        []hex.Coord{{}},
	},
}

// StartingInventory is the equipment each player brings down inside the
// Astronef, towers excluded.
var StartingInventory = []UnitType{
	UnitTank, UnitTank, UnitTank, UnitTank,
	UnitSuperTank,
	UnitMotorBoat, UnitMotorBoat,
	UnitBarge,
	UnitCrab,
}

// TowersPerAstronef is the number of turrets mounted on each Astronef pode.
const TowersPerAstronef = 3

// UnitID is a stable handle. IDs are allocated in increasing order and never
// reused within a game.
type UnitID int

// MineralID identifies a mineral.
type MineralID int

// Unit is one piece of equipment.
type Unit struct {
	ID             UnitID      `json:"id" msgpack:"id"`
	Type           UnitType    `json:"type" msgpack:"type"`
	Owner          string      `json:"owner" msgpack:"owner"`
	Position       *hex.Coord  `json:"position" msgpack:"position"`
	Rotation       int         `json:"rotation" msgpack:"rotation"`
	ShotsRemaining int         `json:"shotsRemaining" msgpack:"shotsRemaining"`
	IsStuck        bool        `json:"isStuck" msgpack:"isStuck"`
	IsNeutralized  bool        `json:"isNeutralized" msgpack:"isNeutralized"`
	Cargo          []UnitID    `json:"cargo" msgpack:"cargo"`
	Minerals       []MineralID `json:"minerals" msgpack:"minerals"`
}

// Mineral is ore lying on the ground.
type Mineral struct {
	ID       MineralID `json:"id" msgpack:"id"`
	Position hex.Coord `json:"position" msgpack:"position"`
}

// Props returns the catalogue entry for the unit's type.
func (u *Unit) Props() Properties {
	return UnitProperties[u.Type]
}

// Placed reports whether the unit is on the board.
func (u *Unit) Placed() bool {
	return u.Position != nil
}

// IsCombat reports whether the unit type can shoot at all.
func (u *Unit) IsCombat() bool {
	return UnitProperties[u.Type].CombatRange > 0
}

// IsMobile reports whether the unit can move on its own.
func (u *Unit) IsMobile() bool {
	return !math.IsInf(UnitProperties[u.Type].MovementCost, 1)
}

// Footprint returns the hexes the unit occupies, or nil when not placed.
func (u *Unit) Footprint() []hex.Coord {
	if u.Position == nil {
		return nil
	}
	return GetUnitFootprint(u.Type, *u.Position, u.Rotation)
}

func (u Unit) clone() Unit {
	c := u
	if u.Position != nil {
		p := *u.Position
		c.Position = &p
	}
	c.Cargo = append([]UnitID(nil), u.Cargo...)
	c.Minerals = append([]MineralID(nil), u.Minerals...)
	return c
}

// GetUnitFootprint rotates the type's shape by rotation × 60° around the
// anchor and translates it.
func GetUnitFootprint(t UnitType, anchor hex.Coord, rotation int) []hex.Coord {
	shape := UnitProperties[t].Footprint
	if len(shape) <= 1 {
		return []hex.Coord{anchor}
	}
	out := make([]hex.Coord, len(shape))
	for i, off := range shape {
		out[i] = anchor.Add(hex.Rotate(off, rotation))
	}
	return out
}

// PodeHexes returns the three turret mounts of an Astronef, or nil when the
// unit is not a placed Astronef.
func PodeHexes(astronef *Unit) []hex.Coord {
	if astronef == nil || astronef.Type != UnitAstronef || astronef.Position == nil {
		return nil
	}
	return PodeHexesAt(*astronef.Position, astronef.Rotation)
}

// PodeHexesAt returns the turret mounts of an Astronef anchored at anchor.
func PodeHexesAt(anchor hex.Coord, rotation int) []hex.Coord {
	fp := GetUnitFootprint(UnitAstronef, anchor, rotation)
	return fp[1:]
}

// CombatRange is the unit's base range plus the mountain bonus when the unit
// stands on a mountain.
func CombatRange(u *Unit, terrainAtUnit TerrainType) int {
	p := UnitProperties[u.Type]
	if p.CombatRange == 0 {
		return 0
	}
	if terrainAtUnit == TerrainMountain {
		return p.CombatRange + p.MountainRangeBonus
	}
	return p.CombatRange
}

// ResetShotsForTurn returns a copy of units where every combat unit owned by
// owner has its shots restored. An empty owner resets every combat unit.
func ResetShotsForTurn(units []Unit, owner string) []Unit {
	out := make([]Unit, len(units))
	for i, u := range units {
		out[i] = u.clone()
		if owner != "" && u.Owner != owner {
			continue
		}
		if u.IsCombat() {
			out[i].ShotsRemaining = MaxShots
		} else {
			out[i].ShotsRemaining = 0
		}
	}
	return out
}
