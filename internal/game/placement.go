package game

import (
	"fullmetal-planet/pkg/hex"
)

// HexSet is a set of hexes.
type HexSet map[hex.Coord]bool

// GetOccupiedHexes is the union of the footprints of all placed units.
func GetOccupiedHexes(units []Unit) HexSet {
	occupied := make(HexSet)
	for i := range units {
		for _, c := range units[i].Footprint() {
			occupied[c] = true
		}
	}
	return occupied
}

// occupiedExcept is GetOccupiedHexes without the listed units.
func occupiedExcept(units []Unit, skip ...UnitID) HexSet {
	occupied := make(HexSet)
	for i := range units {
		if containsID(skip, units[i].ID) {
			continue
		}
		for _, c := range units[i].Footprint() {
			occupied[c] = true
		}
	}
	return occupied
}

// TerrainCompatible reports whether a unit type may stand on a hex of the
// given terrain at the given tide.
func TerrainCompatible(t UnitType, terrain TerrainType, tide TideLevel) bool {
	p := UnitProperties[t]
	switch EffectiveClass(terrain, tide) {
	case ClassLand:
		return p.Domain == DomainLand
	case ClassMountain:
		return p.Domain == DomainLand && p.CanEnterMountain
	case ClassSea:
		return p.Domain == DomainSea
	}
	return false
}

// IsPlacementValidWithTerrain checks that every footprint hex is free and
// terrain-compatible. Towers are validated with IsTurretPlacementValid.
func IsPlacementValidWithTerrain(t UnitType, anchor hex.Coord, rotation int, occupied HexSet, terrain TerrainGetter, tide TideLevel) bool {
	for _, c := range GetUnitFootprint(t, anchor, rotation) {
		if occupied[c] {
			return false
		}
		if !TerrainCompatible(t, terrain(c), tide) {
			return false
		}
	}
	return true
}

// IsTurretPlacementValid reports whether a Tower may be mounted at c: c must
// be a pode of the owner's Astronef and no other Tower may sit there.
func IsTurretPlacementValid(c hex.Coord, astronef *Unit, units []Unit) bool {
	if !containsCoord(PodeHexes(astronef), c) {
		return false
	}
	for i := range units {
		u := &units[i]
		if u.Type == UnitTower && u.Position != nil && *u.Position == c {
			return false
		}
	}
	return true
}

// IsAstronefLandingValid checks a landing footprint: every hex must be plain
// land under the current tide, unoccupied and on the board.
func IsAstronefLandingValid(anchor hex.Coord, rotation int, occupied HexSet, terrain TerrainGetter, tide TideLevel) bool {
	for _, c := range GetUnitFootprint(UnitAstronef, anchor, rotation) {
		if occupied[c] {
			return false
		}
		if EffectiveClass(terrain(c), tide) != ClassLand {
			return false
		}
	}
	return true
}

// footprintsAdjacent reports whether any hex of a is within one step of any
// hex of b.
func footprintsAdjacent(a, b []hex.Coord) bool {
	for _, x := range a {
		for _, y := range b {
			if hex.Distance(x, y) <= 1 {
				return true
			}
		}
	}
	return false
}

// minDistance is the smallest distance between c and any hex of fp.
func minDistance(c hex.Coord, fp []hex.Coord) int {
	best := -1
	for _, f := range fp {
		if d := hex.Distance(c, f); best < 0 || d < best {
			best = d
		}
	}
	return best
}

func containsCoord(list []hex.Coord, c hex.Coord) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

func containsID(list []UnitID, id UnitID) bool {
	for _, x := range list {
		if x == id {
			return true
		}
	}
	return false
}
