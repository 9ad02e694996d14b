package maps

import (
	"fmt"

	"fullmetal-planet/internal/game"
)

// terrainChars maps the one-character YAML encoding to terrain types.
var terrainChars = map[byte]game.TerrainType{
	'~': game.TerrainSea,
	'.': game.TerrainLand,
	'm': game.TerrainMarsh,
	'r': game.TerrainReef,
	'^': game.TerrainMountain,
}

// TerrainChar returns the character a terrain type is written as.
func TerrainChar(t game.TerrainType) byte {
	for c, tt := range terrainChars {
		if tt == t {
			return c
		}
	}
	return ' '
}

// ParseTerrainChar decodes one map character.
func ParseTerrainChar(c byte) (game.TerrainType, error) {
	t, ok := terrainChars[c]
	if !ok {
		return game.TerrainNone, fmt.Errorf("unknown terrain %q", c)
	}
	return t, nil
}

// clamp restricts a value to a range
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
