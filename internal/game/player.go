package game

import "fullmetal-planet/pkg/hex"

// PlayerColor represents a player's color.
type PlayerColor string

const (
	ColorRed    PlayerColor = "red"
	ColorBlue   PlayerColor = "blue"
	ColorGreen  PlayerColor = "green"
	ColorYellow PlayerColor = "yellow"
)

// MaxPlayers is the size of the color palette and the room cap.
const MaxPlayers = 4

// AllColors returns the palette in assignment order.
func AllColors() []PlayerColor {
	return []PlayerColor{ColorRed, ColorBlue, ColorGreen, ColorYellow}
}

// Player represents a player in the game.
type Player struct {
	ID                string      `json:"id" msgpack:"id"`
	Name              string      `json:"name" msgpack:"name"`
	Color             PlayerColor `json:"color" msgpack:"color"`
	IsReady           bool        `json:"isReady" msgpack:"isReady"`
	IsConnected       bool        `json:"isConnected" msgpack:"isConnected"`
	AstronefID        UnitID      `json:"astronefId" msgpack:"astronefId"`
	AstronefPosition  *hex.Coord  `json:"astronefPosition" msgpack:"astronefPosition"`
	HasLiftedOff      bool        `json:"hasLiftedOff" msgpack:"hasLiftedOff"`
	Stranded          bool        `json:"stranded" msgpack:"stranded"`
	CapturedAstronefs []UnitID    `json:"capturedAstronefs" msgpack:"capturedAstronefs"`
	SavedActionPoints int         `json:"savedActionPoints" msgpack:"savedActionPoints"`
	TowersLost        int         `json:"towersLost" msgpack:"towersLost"`
	Score             int         `json:"score" msgpack:"score"`
}

// NewPlayer creates a new player.
func NewPlayer(id, name string, color PlayerColor) Player {
	return Player{
		ID:          id,
		Name:        name,
		Color:       color,
		IsConnected: true,
	}
}

// Done reports whether the player has left the game board for good.
func (p *Player) Done() bool {
	return p.HasLiftedOff || p.Stranded
}

func (p Player) clone() Player {
	c := p
	if p.AstronefPosition != nil {
		pos := *p.AstronefPosition
		c.AstronefPosition = &pos
	}
	c.CapturedAstronefs = append([]UnitID(nil), p.CapturedAstronefs...)
	return c
}
