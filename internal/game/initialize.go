package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fullmetal-planet/pkg/hex"
)

// MinPlayers is the smallest table a game can start with.
const MinPlayers = 2

// MapData is the board a game is played on.
type MapData struct {
	ID       string
	Name     string
	Terrain  Terrain
	Minerals []hex.Coord
}

// Settings holds game-level parameters.
type Settings struct {
	GameID        string
	Seed          int64
	TurnTimeLimit time.Duration
}

// InitializeGame creates a new game state from a map and players. Every
// player starts with an Astronef in orbit carrying the full inventory and
// the turrets; the first player in the seeded turn order lands first.
func InitializeGame(mapData MapData, players []Player, settings Settings, now time.Time) (*GameState, error) {
	if len(players) < MinPlayers {
		return nil, fmt.Errorf("need at least %d players", MinPlayers)
	}
	if len(players) > MaxPlayers {
		return nil, fmt.Errorf("max %d players", MaxPlayers)
	}
	if len(mapData.Terrain) == 0 {
		return nil, fmt.Errorf("map %q has no terrain", mapData.ID)
	}

	id := settings.GameID
	if id == "" {
		id = uuid.New().String()
	}
	limit := settings.TurnTimeLimit
	if limit <= 0 {
		limit = DefaultTurnTimeLimit
	}

	state := &GameState{
		GameID:            id,
		Seed:              settings.Seed,
		Terrain:           mapData.Terrain,
		CurrentTide:       TideNormal,
		Reshuffles:        1,
		Turn:              TurnLanding,
		Phase:             PhaseLanding,
		TurnTimeLimit:     limit,
		SavedActionPoints: make(map[string]int),
		LiftOffDecisions:  make(map[string]bool),
	}
	state.TideDeck = NewTideDeck(state.rng(0))

	seen := make(map[string]bool)
	for _, p := range players {
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate player %q", p.ID)
		}
		seen[p.ID] = true
		p = p.clone()
		p.AstronefPosition = nil
		p.HasLiftedOff, p.Stranded = false, false
		p.SavedActionPoints, p.TowersLost, p.Score = 0, 0, 0
		p.CapturedAstronefs = nil
		state.Players = append(state.Players, p)
		state.SavedActionPoints[p.ID] = 0
	}

	for i := range state.Players {
		state.Players[i].AstronefID = state.equip(state.Players[i].ID)
	}

	for _, c := range mapData.Minerals {
		state.NextMineralID++
		state.Minerals = append(state.Minerals, Mineral{ID: state.NextMineralID, Position: c})
	}

	state.TurnOrder = make([]string, len(state.Players))
	for i, p := range state.Players {
		state.TurnOrder[i] = p.ID
	}
	shufflePlayerOrder(state)

	state.beginPlayerTurn(state.TurnOrder[0], now)
	return state, nil
}

// equip creates a player's Astronef with its turrets and starting inventory
// aboard, and returns the Astronef id.
func (g *GameState) equip(owner string) UnitID {
	astronef := g.addUnit(Unit{Type: UnitAstronef, Owner: owner})
	astronefID := astronef.ID

	var cargo []UnitID
	for i := 0; i < TowersPerAstronef; i++ {
		cargo = append(cargo, g.addUnit(Unit{Type: UnitTower, Owner: owner, ShotsRemaining: MaxShots}).ID)
	}
	for _, t := range StartingInventory {
		u := Unit{Type: t, Owner: owner}
		if UnitProperties[t].CombatRange > 0 {
			u.ShotsRemaining = MaxShots
		}
		cargo = append(cargo, g.addUnit(u).ID)
	}
	g.Unit(astronefID).Cargo = cargo
	return astronefID
}

// shufflePlayerOrder randomizes the player order from the game seed.
func shufflePlayerOrder(state *GameState) {
	rng := state.rng(-1)
	// Fisher-Yates shuffle
	for i := len(state.TurnOrder) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		state.TurnOrder[i], state.TurnOrder[j] = state.TurnOrder[j], state.TurnOrder[i]
	}
}
