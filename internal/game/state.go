// Package game contains the authoritative Full Metal Planète rules engine.
//
// Every operation that changes a game takes a *GameState, works on a private
// copy and returns the new snapshot. On error the input is untouched, so the
// caller can swap snapshots atomically.
package game

import (
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	fmphex "fullmetal-planet/pkg/hex"

	"lukechampine.com/blake3"
)

// Phase is the current stage of the game.
type Phase string

const (
	PhaseLanding    Phase = "landing"
	PhaseDeployment Phase = "deployment"
	PhasePlaying    Phase = "playing"
	PhaseEndgame    Phase = "endgame"
	PhaseFinished   Phase = "finished"
)

// Turn milestones.
const (
	TurnLanding       = 1
	TurnDeployment    = 2
	TurnFirstPlaying  = 3
	TurnLiftOffChoice = 21
	TurnLastPlaying   = 25
)

// DefaultTurnTimeLimit is the wall-clock budget of one player turn.
const DefaultTurnTimeLimit = 5 * time.Minute

// MaxSavedActionPoints caps the AP a player may bank for the next turn.
const MaxSavedActionPoints = 10

// GameState is the aggregate root of one game.
type GameState struct {
	GameID            string          `json:"gameId"`
	Seed              int64           `json:"seed"`
	Players           []Player        `json:"players"`
	Units             []Unit          `json:"units"`
	Terrain           Terrain         `json:"terrain"`
	Minerals          []Mineral       `json:"minerals"`
	CurrentTide       TideLevel       `json:"currentTide"`
	TideDeck          []TideLevel     `json:"tideDeck"`
	TideDiscard       []TideLevel     `json:"tideDiscard"`
	Reshuffles        int             `json:"reshuffles"`
	Turn              int             `json:"turn"`
	Phase             Phase           `json:"phase"`
	CurrentPlayer     string          `json:"currentPlayer"`
	TurnOrder         []string        `json:"turnOrder"`
	ActionPoints      int             `json:"actionPoints"`
	SavedActionPoints map[string]int  `json:"savedActionPoints"`
	TurnStartTime     time.Time       `json:"turnStartTime"`
	TurnTimeLimit     time.Duration   `json:"turnTimeLimit"`
	LiftOffDecisions  map[string]bool `json:"liftOffDecisions"`
	NextUnitID        UnitID          `json:"nextUnitId"`
	NextMineralID     MineralID       `json:"nextMineralId"`
}

// Clone returns a deep copy. Terrain is shared because it never changes.
func (g *GameState) Clone() *GameState {
	c := *g
	c.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		c.Players[i] = p.clone()
	}
	c.Units = make([]Unit, len(g.Units))
	for i, u := range g.Units {
		c.Units[i] = u.clone()
	}
	c.Minerals = append([]Mineral(nil), g.Minerals...)
	c.TideDeck = append([]TideLevel(nil), g.TideDeck...)
	c.TideDiscard = append([]TideLevel(nil), g.TideDiscard...)
	c.TurnOrder = append([]string(nil), g.TurnOrder...)
	c.SavedActionPoints = make(map[string]int, len(g.SavedActionPoints))
	for k, v := range g.SavedActionPoints {
		c.SavedActionPoints[k] = v
	}
	c.LiftOffDecisions = make(map[string]bool, len(g.LiftOffDecisions))
	for k, v := range g.LiftOffDecisions {
		c.LiftOffDecisions[k] = v
	}
	return &c
}

// PublicView is the snapshot safe to send to clients: pending lift-off
// decisions are withheld until they are revealed together.
func (g *GameState) PublicView() *GameState {
	c := g.Clone()
	if c.Phase == PhaseEndgame {
		c.LiftOffDecisions = map[string]bool{}
	}
	return c
}

// Digest is a blake3 hash of the canonical JSON encoding. Two snapshots with
// the same digest are identical.
func (g *GameState) Digest() string {
	data, err := json.Marshal(g)
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// TerrainAt is the TerrainGetter of this game.
func (g *GameState) TerrainAt(c fmphex.Coord) TerrainType {
	return g.Terrain[c]
}

// Unit returns the unit with the given id, or nil.
func (g *GameState) Unit(id UnitID) *Unit {
	i := sort.Search(len(g.Units), func(i int) bool { return g.Units[i].ID >= id })
	if i < len(g.Units) && g.Units[i].ID == id {
		return &g.Units[i]
	}
	return nil
}

// UnitAt returns the unit standing at c. A unit anchored exactly at c wins
// over one whose footprint merely covers it, so a Tower shadows its pode.
func (g *GameState) UnitAt(c fmphex.Coord) *Unit {
	var covering *Unit
	for i := range g.Units {
		u := &g.Units[i]
		if u.Position == nil {
			continue
		}
		if *u.Position == c {
			return u
		}
		if covering == nil && containsCoord(u.Footprint(), c) {
			covering = u
		}
	}
	return covering
}

// Player returns the player with the given id, or nil.
func (g *GameState) Player(id string) *Player {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// Astronef returns the player's own Astronef while the player still owns it.
func (g *GameState) Astronef(playerID string) *Unit {
	p := g.Player(playerID)
	if p == nil {
		return nil
	}
	u := g.Unit(p.AstronefID)
	if u == nil || u.Owner != playerID {
		return nil
	}
	return u
}

// UnitsOf returns pointers to the units owned by a player.
func (g *GameState) UnitsOf(playerID string) []*Unit {
	var out []*Unit
	for i := range g.Units {
		if g.Units[i].Owner == playerID {
			out = append(out, &g.Units[i])
		}
	}
	return out
}

// Carrier returns the unit whose cargo holds id, or nil.
func (g *GameState) Carrier(id UnitID) *Unit {
	for i := range g.Units {
		if containsID(g.Units[i].Cargo, id) {
			return &g.Units[i]
		}
	}
	return nil
}

// Scores returns the final score of each player.
func (g *GameState) Scores() map[string]int {
	out := make(map[string]int, len(g.Players))
	for _, p := range g.Players {
		out[p.ID] = p.Score
	}
	return out
}

// addUnit appends a unit with a freshly allocated id.
func (g *GameState) addUnit(u Unit) *Unit {
	g.NextUnitID++
	u.ID = g.NextUnitID
	g.Units = append(g.Units, u)
	return &g.Units[len(g.Units)-1]
}

// removeUnit deletes a unit record. Pointers into Units are invalid afterwards.
func (g *GameState) removeUnit(id UnitID) {
	for i := range g.Units {
		if g.Units[i].ID == id {
			g.Units = append(g.Units[:i], g.Units[i+1:]...)
			return
		}
	}
}

// removeMineral deletes a ground mineral and reports whether it existed.
func (g *GameState) removeMineral(id MineralID) (Mineral, bool) {
	for i, m := range g.Minerals {
		if m.ID == id {
			g.Minerals = append(g.Minerals[:i], g.Minerals[i+1:]...)
			return m, true
		}
	}
	return Mineral{}, false
}

func (g *GameState) mineralAt(c fmphex.Coord) *Mineral {
	for i := range g.Minerals {
		if g.Minerals[i].Position == c {
			return &g.Minerals[i]
		}
	}
	return nil
}

// activePlayers returns turn-order players still on the planet.
func (g *GameState) activePlayers() []string {
	var out []string
	for _, id := range g.TurnOrder {
		if p := g.Player(id); p != nil && !p.Done() {
			out = append(out, id)
		}
	}
	return out
}
