package maps

import (
	"fmt"
	"strings"

	"fullmetal-planet/internal/game"
	"fullmetal-planet/pkg/hex"
)

// Debug returns a string visualization of the map. Odd columns are shifted
// down half a line the way they sit on the board; '*' marks ore.
func (m *Map) Debug() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Map: %s (%s)\n", m.Name, m.ID))
	sb.WriteString(fmt.Sprintf("Size: %dx%d\n", m.Width, m.Height))
	sb.WriteString(fmt.Sprintf("Minerals: %d\n", len(m.Minerals)))

	counts := m.Count()
	for _, t := range []game.TerrainType{game.TerrainSea, game.TerrainLand, game.TerrainMarsh, game.TerrainReef, game.TerrainMountain} {
		sb.WriteString(fmt.Sprintf("  %-9s %d\n", t, counts[t]))
	}
	sb.WriteString("\n")

	ore := make(map[hex.Coord]bool, len(m.Minerals))
	for _, c := range m.Minerals {
		ore[c] = true
	}

	for row := 0; row < m.Height; row++ {
		// Two text lines per row: even columns then odd columns.
		for parity := 0; parity < 2; parity++ {
			for col := 0; col < m.Width; col++ {
				if col%2 != parity {
					sb.WriteString("  ")
					continue
				}
				c := TerrainChar(m.TerrainAt(col, row))
				if ore[hex.FromOffset(hex.Offset{Col: col, Row: row})] {
					c = '*'
				}
				sb.WriteByte(c)
				sb.WriteByte(' ')
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
