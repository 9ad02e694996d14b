package game

import (
	"fmt"

	"fullmetal-planet/pkg/hex"
)

// CanShoot reports whether u may fire at target this turn. Towers keep
// their fire-back capability while neutralized.
func CanShoot(u *Unit, target hex.Coord, terrainAtUnit TerrainType, ignoreNeutralized bool) bool {
	if u.Position == nil {
		return false
	}
	rng := CombatRange(u, terrainAtUnit)
	if rng == 0 || u.ShotsRemaining <= 0 || u.IsStuck {
		return false
	}
	if u.IsNeutralized && u.Type != UnitTower && !ignoreNeutralized {
		return false
	}
	d := hex.Distance(*u.Position, target)
	return d > 0 && d <= rng
}

// GetFireableHexes returns every hex u can currently shoot at.
func GetFireableHexes(u *Unit, terrain TerrainGetter) []hex.Coord {
	return fireableHexes(u, terrain, false)
}

func fireableHexes(u *Unit, terrain TerrainGetter, ignoreNeutralized bool) []hex.Coord {
	if u.Position == nil {
		return nil
	}
	at := terrain(*u.Position)
	var out []hex.Coord
	for _, c := range hex.InRange(*u.Position, CombatRange(u, at)) {
		if CanShoot(u, c, at, ignoreNeutralized) {
			out = append(out, c)
		}
	}
	return out
}

// GetSharedFireableHexes returns the hexes both units can shoot at, i.e. the
// zone where the pair can destroy a target.
func GetSharedFireableHexes(a, b *Unit, terrain TerrainGetter) []hex.Coord {
	fromB := make(HexSet)
	for _, c := range GetFireableHexes(b, terrain) {
		fromB[c] = true
	}
	var out []hex.Coord
	for _, c := range GetFireableHexes(a, terrain) {
		if fromB[c] {
			out = append(out, c)
		}
	}
	return out
}

// GetValidTargets returns the enemy units the pair a, b could destroy now.
func GetValidTargets(a, b *Unit, allUnits []Unit, terrain TerrainGetter) []Unit {
	if a.Owner != b.Owner || a.ID == b.ID {
		return nil
	}
	shared := make(HexSet)
	for _, c := range GetSharedFireableHexes(a, b, terrain) {
		shared[c] = true
	}
	var out []Unit
	for i := range allUnits {
		u := &allUnits[i]
		if u.Owner == a.Owner || u.Position == nil {
			continue
		}
		if shared[*u.Position] {
			out = append(out, u.clone())
		}
	}
	return out
}

// UnderFireZone returns the hexes covered by two or more of owner's active
// combat units. Each unit's own hex is excluded from its coverage.
func UnderFireZone(units []Unit, owner string, terrain TerrainGetter) HexSet {
	return underFireZone(units, owner, terrain, false)
}

func underFireZone(units []Unit, owner string, terrain TerrainGetter, ignoreNeutralized bool) HexSet {
	var active []*Unit
	for i := range units {
		u := &units[i]
		if u.Owner != owner || u.Position == nil || !u.IsCombat() {
			continue
		}
		if u.IsStuck || u.ShotsRemaining <= 0 {
			continue
		}
		if u.IsNeutralized && !ignoreNeutralized {
			continue
		}
		active = append(active, u)
	}

	zone := make(HexSet)
	if len(active) < 2 {
		return zone
	}

	coverage := make(map[hex.Coord]int)
	for _, u := range active {
		for _, c := range fireableHexes(u, terrain, true) {
			coverage[c]++
		}
	}
	for c, n := range coverage {
		if n >= 2 {
			zone[c] = true
		}
	}
	return zone
}

// EnemyFireZone is the union of the under-fire zones of every player other
// than playerID.
func (g *GameState) EnemyFireZone(playerID string) HexSet {
	zone := make(HexSet)
	for _, p := range g.Players {
		if p.ID == playerID {
			continue
		}
		for c := range UnderFireZone(g.Units, p.ID, g.TerrainAt) {
			zone[c] = true
		}
	}
	return zone
}

// validateAttackers resolves a firing pair and checks the shared constraints.
func (g *GameState) validateAttackers(actor string, ids [2]UnitID) (*Unit, *Unit, error) {
	if ids[0] == ids[1] {
		return nil, nil, reject(ErrInvalidAction, "two distinct attackers are required")
	}
	a, b := g.Unit(ids[0]), g.Unit(ids[1])
	if a == nil || b == nil {
		return nil, nil, reject(ErrUnitNotFound, "attacker")
	}
	if a.Owner != b.Owner {
		return nil, nil, reject(ErrInvalidTarget, "attackers must share an owner")
	}
	if a.Owner != actor {
		return nil, nil, reject(ErrNotYourUnit, "attacker")
	}
	if a.Position == nil || b.Position == nil {
		return nil, nil, reject(ErrInvalidAction, "attacker is not on the board")
	}
	return a, b, nil
}

// CanDestroy checks the destruction rule without changing anything.
func (g *GameState) CanDestroy(actor string, attackers [2]UnitID, target hex.Coord) error {
	a, b, err := g.validateAttackers(actor, attackers)
	if err != nil {
		return err
	}
	for _, u := range []*Unit{a, b} {
		if !CanShoot(u, target, g.TerrainAt(*u.Position), false) {
			return reject(ErrOutOfRange, fmt.Sprintf("unit %d cannot fire at %v", u.ID, target))
		}
	}
	victim := g.UnitAt(target)
	if victim == nil || victim.Owner == actor {
		return reject(ErrInvalidTarget, "no enemy unit at "+target.String())
	}
	return nil
}

// destroy removes the unit at target and spends one shot of each attacker.
// Units carried by a destroyed carrier are left orphaned: they keep their
// records with no position and no carrier.
func (g *GameState) destroy(actor string, attackers [2]UnitID, target hex.Coord) (UnitID, error) {
	if err := g.CanDestroy(actor, attackers, target); err != nil {
		return 0, err
	}
	victim := g.UnitAt(target)
	victimID, victimOwner, victimType := victim.ID, victim.Owner, victim.Type

	if victimType == UnitTower {
		if p := g.Player(victimOwner); p != nil {
			p.TowersLost++
		}
	}
	for _, id := range attackers {
		g.Unit(id).ShotsRemaining--
	}
	g.removeUnit(victimID)
	if victimType == UnitAstronef {
		if p := g.Player(victimOwner); p != nil && p.AstronefID == victimID {
			p.AstronefPosition = nil
		}
	}
	return victimID, nil
}

// CanCapture checks the capture rule without changing anything.
func (g *GameState) CanCapture(actor string, attackers [2]UnitID, targetID UnitID) error {
	a, b, err := g.validateAttackers(actor, attackers)
	if err != nil {
		return err
	}
	target := g.Unit(targetID)
	if target == nil || target.Position == nil {
		return reject(ErrUnitNotFound, "target")
	}
	if target.Owner == actor {
		return reject(ErrInvalidTarget, "cannot capture your own unit")
	}

	fp := target.Footprint()
	for _, u := range []*Unit{a, b} {
		if !u.IsCombat() {
			return reject(ErrInvalidAction, fmt.Sprintf("unit %d cannot capture", u.ID))
		}
		if u.IsStuck {
			return reject(ErrUnitStuck, fmt.Sprintf("unit %d", u.ID))
		}
		if u.IsNeutralized {
			return reject(ErrUnitNeutralized, fmt.Sprintf("unit %d", u.ID))
		}
		if minDistance(*u.Position, fp) != 1 {
			return reject(ErrNotAdjacent, fmt.Sprintf("unit %d is not next to the target", u.ID))
		}
	}

	for _, p := range g.Players {
		if p.ID == actor {
			continue
		}
		zone := UnderFireZone(g.Units, p.ID, g.TerrainAt)
		if zone[*a.Position] || zone[*b.Position] {
			return reject(ErrUnderFire, "attacker stands under enemy fire")
		}
		if p.ID != target.Owner && zone[*target.Position] {
			return reject(ErrUnderFire, "target is covered by another player")
		}
	}

	if target.Type == UnitAstronef {
		for _, c := range PodeHexes(target) {
			if t := g.UnitAt(c); t != nil && t.Type == UnitTower && t.Owner == target.Owner {
				return reject(ErrInvalidTarget, "astronef still has turrets")
			}
		}
	}
	return nil
}

// capture hands the target over to actor. A captured Astronef brings its
// cargo along.
func (g *GameState) capture(actor string, attackers [2]UnitID, targetID UnitID) error {
	if err := g.CanCapture(actor, attackers, targetID); err != nil {
		return err
	}
	target := g.Unit(targetID)
	g.transferOwnership(target, actor)
	if target.Type == UnitAstronef {
		p := g.Player(actor)
		p.CapturedAstronefs = append(p.CapturedAstronefs, target.ID)
	}
	return nil
}

func (g *GameState) transferOwnership(u *Unit, owner string) {
	u.Owner = owner
	u.IsNeutralized = false
	if u.IsCombat() {
		u.ShotsRemaining = MaxShots
	} else {
		u.ShotsRemaining = 0
	}
	for _, id := range u.Cargo {
		if c := g.Unit(id); c != nil {
			g.transferOwnership(c, owner)
		}
	}
}

// refreshStatus recomputes the stuck and neutralized flags of every placed
// unit against the current tide and fire zones. It runs when a player's turn
// begins.
func (g *GameState) refreshStatus() {
	for i := range g.Units {
		u := &g.Units[i]
		u.IsStuck = false
		if u.Position == nil {
			continue
		}
		for _, c := range u.Footprint() {
			if !TerrainCompatible(u.Type, g.TerrainAt(c), g.CurrentTide) {
				u.IsStuck = true
				break
			}
		}
	}

	zones := g.playerZones()
	for i := range g.Units {
		u := &g.Units[i]
		u.IsNeutralized = u.Position != nil && coveredByOthers(u, zones)
	}
}

// releaseNeutralized clears the flag of units no longer covered by any other
// player, e.g. after an attacker was destroyed. Flags are only ever set when a
// turn begins, so a freshly captured unit stays active for its new owner.
func (g *GameState) releaseNeutralized() {
	var zones map[string]HexSet
	for i := range g.Units {
		u := &g.Units[i]
		if !u.IsNeutralized {
			continue
		}
		if zones == nil {
			zones = g.playerZones()
		}
		if u.Position == nil || !coveredByOthers(u, zones) {
			u.IsNeutralized = false
		}
	}
}

// playerZones computes every player's under-fire zone. Neutralized units
// still count here, which keeps the result independent of the flags being
// recomputed.
func (g *GameState) playerZones() map[string]HexSet {
	zones := make(map[string]HexSet, len(g.Players))
	for _, p := range g.Players {
		zones[p.ID] = underFireZone(g.Units, p.ID, g.TerrainAt, true)
	}
	return zones
}

func coveredByOthers(u *Unit, zones map[string]HexSet) bool {
	for owner, zone := range zones {
		if owner == u.Owner {
			continue
		}
		for _, c := range u.Footprint() {
			if zone[c] {
				return true
			}
		}
	}
	return false
}
