package game

import (
	"encoding/json"
	"math/rand"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"fullmetal-planet/pkg/hex"
)

// TerrainType is the static terrain of a hex.
type TerrainType string

const (
	TerrainNone     TerrainType = "" // off the board
	TerrainSea      TerrainType = "sea"
	TerrainLand     TerrainType = "land"
	TerrainMarsh    TerrainType = "marsh"
	TerrainReef     TerrainType = "reef"
	TerrainMountain TerrainType = "mountain"
)

// TideLevel is the current sea level.
type TideLevel string

const (
	TideLow    TideLevel = "low"
	TideNormal TideLevel = "normal"
	TideHigh   TideLevel = "high"
)

// Class is the effective behaviour of a hex once the tide is applied.
type Class string

const (
	ClassNone     Class = ""
	ClassLand     Class = "land"
	ClassSea      Class = "sea"
	ClassMountain Class = "mountain"
)

// EffectiveClass resolves tide-dependent terrain. Marsh is land at low and
// normal tide; reef is land only at low tide.
func EffectiveClass(t TerrainType, tide TideLevel) Class {
	switch t {
	case TerrainSea:
		return ClassSea
	case TerrainLand:
		return ClassLand
	case TerrainMountain:
		return ClassMountain
	case TerrainMarsh:
		if tide == TideHigh {
			return ClassSea
		}
		return ClassLand
	case TerrainReef:
		if tide == TideLow {
			return ClassLand
		}
		return ClassSea
	}
	return ClassNone
}

// TerrainGetter looks up the static terrain of a hex. Off-board hexes return
// TerrainNone.
type TerrainGetter func(hex.Coord) TerrainType

// Terrain is the immutable board of a game.
type Terrain map[hex.Coord]TerrainType

// At implements TerrainGetter.
func (t Terrain) At(c hex.Coord) TerrainType {
	return t[c]
}

// Coords returns all board hexes ordered by q then r.
func (t Terrain) Coords() []hex.Coord {
	out := make([]hex.Coord, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Q != out[j].Q {
			return out[i].Q < out[j].Q
		}
		return out[i].R < out[j].R
	})
	return out
}

// TerrainCell is the wire form of one board hex.
type TerrainCell struct {
	Q       int         `json:"q" msgpack:"q"`
	R       int         `json:"r" msgpack:"r"`
	Terrain TerrainType `json:"terrain" msgpack:"terrain"`
}

// Cells returns the board as an ordered list.
func (t Terrain) Cells() []TerrainCell {
	coords := t.Coords()
	out := make([]TerrainCell, len(coords))
	for i, c := range coords {
		out[i] = TerrainCell{Q: c.Q, R: c.R, Terrain: t[c]}
	}
	return out
}

// MarshalJSON encodes the board as an ordered cell list.
func (t Terrain) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Cells())
}

// UnmarshalJSON decodes a cell list.
func (t *Terrain) UnmarshalJSON(data []byte) error {
	var cells []TerrainCell
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}
	out := make(Terrain, len(cells))
	for _, c := range cells {
		out[hex.Coord{Q: c.Q, R: c.R}] = c.Terrain
	}
	*t = out
	return nil
}

// EncodeMsgpack writes the same cell list as MarshalJSON.
func (t Terrain) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(t.Cells())
}

// DecodeMsgpack reads a cell list.
func (t *Terrain) DecodeMsgpack(dec *msgpack.Decoder) error {
	var cells []TerrainCell
	if err := dec.Decode(&cells); err != nil {
		return err
	}
	out := make(Terrain, len(cells))
	for _, c := range cells {
		out[hex.Coord{Q: c.Q, R: c.R}] = c.Terrain
	}
	*t = out
	return nil
}

// tideCardsPerLevel is the number of each tide card in a full deck.
const tideCardsPerLevel = 5

// NewTideDeck returns a shuffled 15-card deck.
func NewTideDeck(rng *rand.Rand) []TideLevel {
	deck := make([]TideLevel, 0, 3*tideCardsPerLevel)
	for _, level := range []TideLevel{TideLow, TideNormal, TideHigh} {
		for i := 0; i < tideCardsPerLevel; i++ {
			deck = append(deck, level)
		}
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// DrawTide draws the next tide card, recycling the discard pile into a fresh
// deck when the draw pile is empty. Reshuffles are seeded from the game seed
// so a restored game draws the same sequence.
func (g *GameState) DrawTide() TideLevel {
	if len(g.TideDeck) == 0 {
		g.TideDeck = g.TideDiscard
		g.TideDiscard = nil
		if len(g.TideDeck) == 0 {
			g.TideDeck = NewTideDeck(g.rng(g.Reshuffles))
		} else {
			rng := g.rng(g.Reshuffles)
			rng.Shuffle(len(g.TideDeck), func(i, j int) {
				g.TideDeck[i], g.TideDeck[j] = g.TideDeck[j], g.TideDeck[i]
			})
		}
		g.Reshuffles++
	}

	card := g.TideDeck[0]
	g.TideDeck = g.TideDeck[1:]
	g.TideDiscard = append(g.TideDiscard, card)
	g.CurrentTide = card
	return card
}

// rng returns a deterministic source derived from the game seed.
func (g *GameState) rng(salt int) *rand.Rand {
	return rand.New(rand.NewSource(g.Seed + int64(salt)*7919))
}
