package maps

import (
	"embed"
	"fmt"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"fullmetal-planet/internal/game"
)

//go:embed data/*.yaml
var mapFiles embed.FS

// Registry holds all loaded maps.
var Registry = make(map[string]*Map)

// LoadAll loads all embedded maps.
func LoadAll() error {
	entries, err := mapFiles.ReadDir("data")
	if err != nil {
		return fmt.Errorf("failed to read map directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		mapData, err := Load(entry.Name())
		if err != nil {
			return fmt.Errorf("failed to load map %s: %w", entry.Name(), err)
		}

		Registry[mapData.ID] = mapData
	}

	return nil
}

// Load loads a single embedded map by filename.
func Load(filename string) (*Map, error) {
	data, err := mapFiles.ReadFile(path.Join("data", filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}
	return LoadFromYAML(data)
}

// LoadFromYAML loads a map from YAML bytes (for custom/uploaded maps).
func LoadFromYAML(data []byte) (*Map, error) {
	var raw RawMap
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse map YAML: %w", err)
	}

	if err := validate(&raw); err != nil {
		return nil, fmt.Errorf("invalid map: %w", err)
	}

	return Process(&raw), nil
}

// Get retrieves a map from the registry by ID.
func Get(id string) *Map {
	return Registry[id]
}

// List returns all registered maps ordered by ID.
func List() []MapInfo {
	infos := make([]MapInfo, 0, len(Registry))
	for _, m := range Registry {
		infos = append(infos, m.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Register adds a map to the registry.
func Register(m *Map) {
	if m != nil && m.ID != "" {
		Registry[m.ID] = m
	}
}

// validate checks a raw map for errors.
func validate(raw *RawMap) error {
	if raw.ID == "" {
		return fmt.Errorf("map ID is required")
	}
	if raw.Name == "" {
		return fmt.Errorf("map name is required")
	}
	if raw.Width <= 0 || raw.Height <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", raw.Width, raw.Height)
	}
	if len(raw.Rows) != raw.Height {
		return fmt.Errorf("grid height mismatch: expected %d, got %d", raw.Height, len(raw.Rows))
	}
	for y, row := range raw.Rows {
		if len(row) != raw.Width {
			return fmt.Errorf("row %d width mismatch: expected %d, got %d", y, raw.Width, len(row))
		}
		for x := 0; x < len(row); x++ {
			if _, err := ParseTerrainChar(row[x]); err != nil {
				return fmt.Errorf("row %d col %d: %w", y, x, err)
			}
		}
	}
	for _, p := range raw.Minerals {
		if p[0] < 0 || p[0] >= raw.Width || p[1] < 0 || p[1] >= raw.Height {
			return fmt.Errorf("mineral at %v is off the map", p)
		}
		t, _ := ParseTerrainChar(raw.Rows[p[1]][p[0]])
		if !MineralTerrain(t) {
			return fmt.Errorf("mineral at %v lies on %s", p, t)
		}
	}
	return nil
}

// MineralTerrain reports whether ore may lie on a terrain type.
func MineralTerrain(t game.TerrainType) bool {
	return t == game.TerrainLand || t == game.TerrainMarsh || t == game.TerrainReef
}
