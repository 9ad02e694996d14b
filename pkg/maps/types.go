// Package maps handles map loading, processing, and generation.
package maps

import (
	"fullmetal-planet/internal/game"
	"fullmetal-planet/pkg/hex"
)

// RawMap is the format stored in YAML files. Rows are read as odd-q offset
// columns left to right, one character per hex (see terrainChars).
type RawMap struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Width  int      `yaml:"width"`
	Height int      `yaml:"height"`
	Rows   []string `yaml:"rows"`
	// Minerals lists fixed ore positions as [col, row]. When empty,
	// MineralCount minerals are scattered from MineralSeed.
	Minerals     [][2]int `yaml:"minerals,omitempty"`
	MineralCount int      `yaml:"mineral_count,omitempty"`
	MineralSeed  int64    `yaml:"mineral_seed,omitempty"`
}

// Map is the processed, runtime map data.
type Map struct {
	ID     string
	Name   string
	Width  int
	Height int

	Terrain  game.Terrain
	Minerals []hex.Coord
}

// MapInfo contains basic map information for listing.
type MapInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Minerals int    `json:"minerals"`
}

// Info returns the listing entry of the map.
func (m *Map) Info() MapInfo {
	return MapInfo{ID: m.ID, Name: m.Name, Width: m.Width, Height: m.Height, Minerals: len(m.Minerals)}
}

// GameData converts the map into what a new game is built from.
func (m *Map) GameData() game.MapData {
	minerals := make([]hex.Coord, len(m.Minerals))
	copy(minerals, m.Minerals)
	return game.MapData{ID: m.ID, Name: m.Name, Terrain: m.Terrain, Minerals: minerals}
}

// TerrainAt returns the terrain at offset (col, row).
// Returns TerrainNone if out of bounds.
func (m *Map) TerrainAt(col, row int) game.TerrainType {
	if col < 0 || col >= m.Width || row < 0 || row >= m.Height {
		return game.TerrainNone
	}
	return m.Terrain[hex.FromOffset(hex.Offset{Col: col, Row: row})]
}

// Count returns how many hexes carry each terrain type.
func (m *Map) Count() map[game.TerrainType]int {
	out := make(map[game.TerrainType]int)
	for _, t := range m.Terrain {
		out[t]++
	}
	return out
}
