package maps

import (
	"fullmetal-planet/internal/game"
	"fullmetal-planet/pkg/hex"
)

// Process takes a validated raw map and computes the runtime board.
func Process(raw *RawMap) *Map {
	m := &Map{
		ID:      raw.ID,
		Name:    raw.Name,
		Width:   raw.Width,
		Height:  raw.Height,
		Terrain: make(game.Terrain, raw.Width*raw.Height),
	}

	// Step 1: Decode terrain
	for row, line := range raw.Rows {
		for col := 0; col < raw.Width; col++ {
			t, _ := ParseTerrainChar(line[col])
			m.Terrain[hex.FromOffset(hex.Offset{Col: col, Row: row})] = t
		}
	}

	// Step 2: Fixed minerals, or a seeded scatter
	if len(raw.Minerals) > 0 {
		for _, p := range raw.Minerals {
			m.Minerals = append(m.Minerals, hex.FromOffset(hex.Offset{Col: p[0], Row: p[1]}))
		}
	} else if raw.MineralCount > 0 {
		m.Minerals = GenerateMinerals(m.Terrain, raw.MineralCount, raw.MineralSeed)
	}

	return m
}

// Encode turns a map back into its YAML form. Minerals are written as fixed
// positions.
func Encode(m *Map) *RawMap {
	raw := &RawMap{ID: m.ID, Name: m.Name, Width: m.Width, Height: m.Height}
	for row := 0; row < m.Height; row++ {
		line := make([]byte, m.Width)
		for col := 0; col < m.Width; col++ {
			line[col] = TerrainChar(m.TerrainAt(col, row))
		}
		raw.Rows = append(raw.Rows, string(line))
	}
	for _, c := range m.Minerals {
		o := hex.ToOffset(c)
		raw.Minerals = append(raw.Minerals, [2]int{o.Col, o.Row})
	}
	return raw
}
