package game

import (
	"fmt"
	"math"
	"time"

	"fullmetal-planet/pkg/hex"
)

func (g *GameState) landAstronef(actor string, a LandAstronef, now time.Time) error {
	if err := g.requirePhase(PhaseLanding); err != nil {
		return err
	}
	p := g.Player(actor)
	astronef := g.Unit(p.AstronefID)
	if astronef == nil || astronef.Position != nil {
		return reject(ErrInvalidAction, "astronef already landed")
	}
	rot := mod6(a.Rotation)
	if !IsAstronefLandingValid(a.Anchor, rot, GetOccupiedHexes(g.Units), g.TerrainAt, g.CurrentTide) {
		return reject(ErrInvalidPlacement, "landing zone must be free plain land")
	}

	anchor := a.Anchor
	astronef.Position = &anchor
	astronef.Rotation = rot
	pos := anchor
	p.AstronefPosition = &pos

	// Turrets mount themselves on the podes.
	podes := PodeHexes(astronef)
	var keep []UnitID
	mounted := 0
	for _, id := range astronef.Cargo {
		u := g.Unit(id)
		if u != nil && u.Type == UnitTower && mounted < len(podes) {
			c := podes[mounted]
			u.Position = &c
			u.Rotation = 0
			mounted++
			continue
		}
		keep = append(keep, id)
	}
	astronef.Cargo = keep

	for _, c := range GetUnitFootprint(UnitAstronef, anchor, rot) {
		if m := g.mineralAt(c); m != nil {
			g.removeMineral(m.ID)
		}
	}

	g.advanceLanding(now)
	return nil
}

func (g *GameState) deploy(actor string, a Deploy) error {
	if err := g.requirePhase(PhaseDeployment); err != nil {
		return err
	}
	astronef := g.Astronef(actor)
	if astronef == nil || astronef.Position == nil {
		return reject(ErrInvalidAction, "no astronef on the board")
	}
	u := g.Unit(a.UnitID)
	if u == nil || !containsID(astronef.Cargo, a.UnitID) {
		return reject(ErrUnitNotFound, "unit is not aboard the astronef")
	}
	if u.Type == UnitTower {
		return reject(ErrInvalidAction, "turrets are mounted automatically")
	}
	return g.placeFromCarrier(astronef, u, a.Position, a.Rotation)
}

// placeFromCarrier puts a carried unit on a hex next to its carrier.
func (g *GameState) placeFromCarrier(carrier, u *Unit, pos hex.Coord, rotation int) error {
	rot := mod6(rotation)
	fp := GetUnitFootprint(u.Type, pos, rot)
	if !footprintsAdjacent(fp, carrier.Footprint()) {
		return reject(ErrNotAdjacent, "must be next to the carrier")
	}
	if !IsPlacementValidWithTerrain(u.Type, pos, rot, GetOccupiedHexes(g.Units), g.TerrainAt, g.CurrentTide) {
		return reject(ErrInvalidPlacement, fmt.Sprintf("%s cannot stand at %v", u.Type, pos))
	}
	enemy := g.EnemyFireZone(carrier.Owner)
	for _, c := range fp {
		if enemy[c] {
			return reject(ErrUnderFire, c.String())
		}
	}

	carrier.Cargo = removeID(carrier.Cargo, u.ID)
	p := pos
	u.Position = &p
	u.Rotation = rot
	return nil
}

func (g *GameState) move(actor string, a Move) error {
	if err := g.requirePhase(PhasePlaying); err != nil {
		return err
	}
	u, err := g.ownedUnit(actor, a.UnitID)
	if err != nil {
		return err
	}
	props := u.Props()
	if math.IsInf(props.MovementCost, 1) {
		return reject(ErrInvalidAction, fmt.Sprintf("%s cannot move", u.Type))
	}
	if len(a.Path) == 0 {
		return reject(ErrInvalidAction, "empty path")
	}
	cost := int(math.Ceil(float64(len(a.Path)) * props.MovementCost))
	if cost > g.ActionPoints {
		return reject(ErrInsufficientAP, fmt.Sprintf("need %d, have %d", cost, g.ActionPoints))
	}

	occupied := occupiedExcept(g.Units, u.ID)
	enemy := g.EnemyFireZone(actor)
	cur := *u.Position
	rot := u.Rotation
	for i, step := range a.Path {
		if hex.Distance(cur, step) != 1 {
			return reject(ErrNotAdjacent, fmt.Sprintf("step %d to %v", i, step))
		}
		if i == len(a.Path)-1 && a.Rotation != nil {
			rot = mod6(*a.Rotation)
		}
		if !IsPlacementValidWithTerrain(u.Type, step, rot, occupied, g.TerrainAt, g.CurrentTide) {
			return reject(ErrInvalidPlacement, fmt.Sprintf("step %d to %v", i, step))
		}
		for _, c := range GetUnitFootprint(u.Type, step, rot) {
			if enemy[c] {
				return reject(ErrUnderFire, c.String())
			}
		}
		cur = step
	}

	u.Position = &cur
	u.Rotation = rot
	return g.spend(cost)
}

// loadItem resolves the cargo item of a Load or Unload. Exactly one of the
// two ids must be set.
func loadItem(unitID *UnitID, mineralID *MineralID) error {
	if (unitID == nil) == (mineralID == nil) {
		return reject(ErrInvalidAction, "exactly one of unitId and mineralId is required")
	}
	return nil
}

// cargoLoad is the load-size a unit takes up including what it carries.
func (g *GameState) cargoLoad(u *Unit) int {
	n := u.Props().LoadSize + len(u.Minerals)
	for _, id := range u.Cargo {
		if c := g.Unit(id); c != nil {
			n += g.cargoLoad(c)
		}
	}
	return n
}

// usedCapacity is the load-size currently inside a carrier.
func (g *GameState) usedCapacity(carrier *Unit) int {
	return g.cargoLoad(carrier) - carrier.Props().LoadSize
}

func (g *GameState) hasRoom(carrier *Unit, size int) bool {
	limit := carrier.Props().CargoCapacity
	if limit == UnlimitedCargo {
		return true
	}
	return g.usedCapacity(carrier)+size <= limit
}

func (g *GameState) load(actor string, a Load) error {
	if err := g.requirePhase(PhasePlaying); err != nil {
		return err
	}
	if err := loadItem(a.UnitID, a.MineralID); err != nil {
		return err
	}
	carrier, err := g.ownedUnit(actor, a.CarrierID)
	if err != nil {
		return err
	}
	props := carrier.Props()
	if props.CargoCapacity == 0 {
		return reject(ErrInvalidAction, fmt.Sprintf("%s carries nothing", carrier.Type))
	}
	if g.ActionPoints < CostLoad {
		return reject(ErrInsufficientAP, "")
	}

	if a.MineralID != nil {
		if !props.CarriesMinerals {
			return reject(ErrInvalidAction, fmt.Sprintf("%s cannot carry minerals", carrier.Type))
		}
		var mineral *Mineral
		for i := range g.Minerals {
			if g.Minerals[i].ID == *a.MineralID {
				mineral = &g.Minerals[i]
			}
		}
		if mineral == nil {
			return reject(ErrInvalidTarget, "mineral not found")
		}
		if minDistance(mineral.Position, carrier.Footprint()) > 1 {
			return reject(ErrNotAdjacent, "mineral is out of reach")
		}
		if !g.hasRoom(carrier, 1) {
			return reject(ErrCargoFull, "")
		}
		g.removeMineral(*a.MineralID)
		carrier.Minerals = append(carrier.Minerals, *a.MineralID)
		return g.spend(CostLoad)
	}

	item, err := g.ownedUnit(actor, *a.UnitID)
	if err != nil {
		return err
	}
	if item.ID == carrier.ID {
		return reject(ErrInvalidTarget, "a unit cannot load itself")
	}
	if !carries(props, item.Type) {
		return reject(ErrInvalidTarget, fmt.Sprintf("%s cannot carry %s", carrier.Type, item.Type))
	}
	if !footprintsAdjacent(item.Footprint(), carrier.Footprint()) {
		return reject(ErrNotAdjacent, "unit is out of reach")
	}
	if !g.hasRoom(carrier, g.cargoLoad(item)) {
		return reject(ErrCargoFull, "")
	}
	item.Position = nil
	item.Rotation = 0
	carrier.Cargo = append(carrier.Cargo, item.ID)
	return g.spend(CostLoad)
}

func (g *GameState) unload(actor string, a Unload) error {
	if err := g.requirePhase(PhasePlaying); err != nil {
		return err
	}
	if err := loadItem(a.UnitID, a.MineralID); err != nil {
		return err
	}
	carrier, err := g.ownedUnit(actor, a.CarrierID)
	if err != nil {
		return err
	}
	if g.ActionPoints < CostUnload {
		return reject(ErrInsufficientAP, "")
	}

	if a.MineralID != nil {
		idx := -1
		for i, id := range carrier.Minerals {
			if id == *a.MineralID {
				idx = i
			}
		}
		if idx < 0 {
			return reject(ErrInvalidTarget, "mineral is not aboard")
		}
		if minDistance(a.Position, carrier.Footprint()) != 1 {
			return reject(ErrNotAdjacent, "must be next to the carrier")
		}
		if EffectiveClass(g.TerrainAt(a.Position), g.CurrentTide) != ClassLand {
			return reject(ErrInvalidPlacement, "minerals rest on land")
		}
		if g.mineralAt(a.Position) != nil {
			return reject(ErrInvalidPlacement, "hex already holds a mineral")
		}
		carrier.Minerals = append(carrier.Minerals[:idx], carrier.Minerals[idx+1:]...)
		g.Minerals = append(g.Minerals, Mineral{ID: *a.MineralID, Position: a.Position})
		return g.spend(CostUnload)
	}

	item := g.Unit(*a.UnitID)
	if item == nil || !containsID(carrier.Cargo, item.ID) {
		return reject(ErrUnitNotFound, "unit is not aboard")
	}
	if err := g.placeFromCarrier(carrier, item, a.Position, a.Rotation); err != nil {
		return err
	}
	return g.spend(CostUnload)
}

func carries(p Properties, t UnitType) bool {
	for _, c := range p.Carries {
		if c == t {
			return true
		}
	}
	return false
}

func removeID(list []UnitID, id UnitID) []UnitID {
	out := list[:0]
	for _, x := range list {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func mod6(n int) int {
	n %= 6
	if n < 0 {
		n += 6
	}
	return n
}
