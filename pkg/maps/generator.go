package maps

import (
	"fmt"
	"math/rand"
	"sort"

	"fullmetal-planet/internal/game"
	"fullmetal-planet/pkg/hex"
)

// GeneratorOptions contains settings for map generation.
type GeneratorOptions struct {
	Width       int   // Map width in columns: 15-60
	Height      int   // Map height in rows: 11-40
	Seed        int64 // Same seed, same map
	Landmasses  int   // 1-5 (1=one continent, 5=many islands)
	LandPercent int   // Share of hexes grown as land: 30-80
	Mountains   int   // Number of mountain ranges
	Minerals    int   // Ore count scattered after the terrain
	WaterBorder bool  // Whether to surround map with sea
}

// DefaultOptions returns the classic 37x23 board.
func DefaultOptions() GeneratorOptions {
	return GeneratorOptions{
		Width:       37,
		Height:      23,
		Landmasses:  3,
		LandPercent: 55,
		Mountains:   6,
		Minerals:    90,
		WaterBorder: true,
	}
}

// Generator handles procedural map generation.
type Generator struct {
	options GeneratorOptions
	rng     *rand.Rand
	width   int
	height  int
	grid    [][]game.TerrainType // [row][col]
}

// NewGenerator creates a new map generator.
func NewGenerator(opts GeneratorOptions) *Generator {
	return &Generator{
		options: opts,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		width:   clamp(opts.Width, 15, 60),
		height:  clamp(opts.Height, 11, 40),
	}
}

// Generate creates the map. Sea is whatever is left after land is grown.
func (g *Generator) Generate() *Map {
	g.grid = make([][]game.TerrainType, g.height)
	for y := range g.grid {
		g.grid[y] = make([]game.TerrainType, g.width)
		for x := range g.grid[y] {
			g.grid[y][x] = game.TerrainSea
		}
	}

	landmasses := clamp(g.options.Landmasses, 1, 5)
	total := g.width * g.height * clamp(g.options.LandPercent, 30, 80) / 100
	seeds := g.placeSeeds(landmasses)
	for _, seed := range seeds {
		g.grow(seed, total/len(seeds), game.TerrainSea, game.TerrainLand)
	}

	g.shoreline()
	g.raiseMountains(g.options.Mountains)

	m := &Map{
		ID:      fmt.Sprintf("gen_%d", g.options.Seed),
		Name:    "Generated Map",
		Width:   g.width,
		Height:  g.height,
		Terrain: make(game.Terrain, g.width*g.height),
	}
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			m.Terrain[hex.FromOffset(hex.Offset{Col: x, Row: y})] = g.grid[y][x]
		}
	}
	m.Minerals = GenerateMinerals(m.Terrain, g.options.Minerals, g.options.Seed)
	return m
}

// GenerateMinerals scatters count minerals over the land, marsh and reef
// hexes of terrain. The result depends only on the board and the seed.
func GenerateMinerals(terrain game.Terrain, count int, seed int64) []hex.Coord {
	var eligible []hex.Coord
	for _, c := range terrain.Coords() {
		if MineralTerrain(terrain[c]) {
			eligible = append(eligible, c)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	if count > len(eligible) {
		count = len(eligible)
	}
	if count < 0 {
		count = 0
	}

	out := eligible[:count]
	sortCoords(out)
	return out
}

func (g *Generator) placeSeeds(count int) []hex.Offset {
	minX, maxX := 0, g.width-1
	minY, maxY := 0, g.height-1
	if g.options.WaterBorder {
		minX, maxX = 2, g.width-3
		minY, maxY = 2, g.height-3
	}

	// Spread landmasses apart, relaxing the spacing until they all fit.
	seeds := make([]hex.Offset, 0, count)
	for spacing := g.width / count; spacing >= 2; spacing-- {
		seeds = seeds[:0]
		for attempts := 0; len(seeds) < count && attempts < count*150; attempts++ {
			o := hex.Offset{Col: minX + g.rng.Intn(maxX-minX+1), Row: minY + g.rng.Intn(maxY-minY+1)}
			tooClose := false
			for _, s := range seeds {
				if hex.Distance(hex.FromOffset(o), hex.FromOffset(s)) < spacing {
					tooClose = true
					break
				}
			}
			if !tooClose {
				seeds = append(seeds, o)
			}
		}
		if len(seeds) >= count {
			break
		}
	}
	return seeds
}

// grow converts up to target connected hexes of type from into type to,
// starting at start.
func (g *Generator) grow(start hex.Offset, target int, from, to game.TerrainType) int {
	if !g.inside(start) || g.grid[start.Row][start.Col] != from {
		return 0
	}

	frontier := []hex.Offset{start}
	inFrontier := map[hex.Offset]bool{start: true}
	grown := 0

	for grown < target && len(frontier) > 0 {
		idx := g.pickGrowthCell(frontier, to)
		cell := frontier[idx]

		frontier[idx] = frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		delete(inFrontier, cell)

		if g.grid[cell.Row][cell.Col] != from {
			continue
		}
		g.grid[cell.Row][cell.Col] = to
		grown++

		for _, n := range g.neighbors(cell) {
			if g.grid[n.Row][n.Col] == from && !inFrontier[n] {
				frontier = append(frontier, n)
				inFrontier[n] = true
			}
		}
	}
	return grown
}

// pickGrowthCell mixes random picks with picks next to few grown cells so
// shapes stay irregular.
func (g *Generator) pickGrowthCell(frontier []hex.Offset, grown game.TerrainType) int {
	if len(frontier) <= 1 {
		return 0
	}

	if g.rng.Float32() < 0.40 {
		return g.rng.Intn(len(frontier))
	}

	weights := map[int]int{1: 5, 2: 4, 3: 2}
	var choices []int
	for i, cell := range frontier {
		score := 0
		for _, n := range g.neighbors(cell) {
			if g.grid[n.Row][n.Col] == grown {
				score++
			}
		}
		w := weights[score]
		if w == 0 {
			w = 1
		}
		for k := 0; k < w; k++ {
			choices = append(choices, i)
		}
	}
	return choices[g.rng.Intn(len(choices))]
}

// shoreline turns part of the coast into tidal terrain: marsh on the land
// side, reef on the sea side.
func (g *Generator) shoreline() {
	var marsh, reef []hex.Offset
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			o := hex.Offset{Col: x, Row: y}
			if g.options.WaterBorder && g.onBorder(o) {
				continue
			}
			switch g.grid[y][x] {
			case game.TerrainLand:
				if g.touches(o, game.TerrainSea) && g.rng.Float32() < 0.35 {
					marsh = append(marsh, o)
				}
			case game.TerrainSea:
				if g.touches(o, game.TerrainLand) && g.rng.Float32() < 0.30 {
					reef = append(reef, o)
				}
			}
		}
	}
	for _, o := range marsh {
		g.grid[o.Row][o.Col] = game.TerrainMarsh
	}
	for _, o := range reef {
		g.grid[o.Row][o.Col] = game.TerrainReef
	}
}

// raiseMountains grows small ranges from inland hexes.
func (g *Generator) raiseMountains(count int) {
	var inland []hex.Offset
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			o := hex.Offset{Col: x, Row: y}
			if g.grid[y][x] != game.TerrainLand {
				continue
			}
			interior := true
			for _, n := range g.neighbors(o) {
				if g.grid[n.Row][n.Col] != game.TerrainLand {
					interior = false
					break
				}
			}
			if interior {
				inland = append(inland, o)
			}
		}
	}
	for i := 0; i < count && len(inland) > 0; i++ {
		idx := g.rng.Intn(len(inland))
		g.grow(inland[idx], 2+g.rng.Intn(4), game.TerrainLand, game.TerrainMountain)
		inland = append(inland[:idx], inland[idx+1:]...)
	}
}

func (g *Generator) inside(o hex.Offset) bool {
	return o.Col >= 0 && o.Col < g.width && o.Row >= 0 && o.Row < g.height
}

func (g *Generator) onBorder(o hex.Offset) bool {
	return o.Col == 0 || o.Col == g.width-1 || o.Row == 0 || o.Row == g.height-1
}

// neighbors returns the on-map hex neighbors of o, skipping the border ring
// when the map has a sea border.
func (g *Generator) neighbors(o hex.Offset) []hex.Offset {
	out := make([]hex.Offset, 0, 6)
	for _, c := range hex.Neighbors(hex.FromOffset(o)) {
		n := hex.ToOffset(c)
		if !g.inside(n) {
			continue
		}
		if g.options.WaterBorder && g.onBorder(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (g *Generator) touches(o hex.Offset, t game.TerrainType) bool {
	for _, c := range hex.Neighbors(hex.FromOffset(o)) {
		n := hex.ToOffset(c)
		if g.inside(n) && g.grid[n.Row][n.Col] == t {
			return true
		}
	}
	return false
}

func sortCoords(cs []hex.Coord) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Q != cs[j].Q {
			return cs[i].Q < cs[j].Q
		}
		return cs[i].R < cs[j].R
	})
}
