package worldgen

import "math"

// TileKind classifies a map tile. Tiles never change during a session.
type TileKind uint8

const (
	TileWater TileKind = iota
	TileGrass
	TileSand
	TileRoad
	TileMountain
)

func (t TileKind) String() string {
	switch t {
	case TileWater:
		return "water"
	case TileGrass:
		return "grass"
	case TileSand:
		return "sand"
	case TileRoad:
		return "road"
	case TileMountain:
		return "mountain"
	}
	return "unknown"
}

// Map is the static tile grid produced by Generate. Tiles and Elevations are
// parallel grids indexed [z][x]. Read-only during simulation.
type Map struct {
	Width      int
	Height     int
	TileSize   float64
	Tiles      [][]TileKind
	Elevations [][]float64
}

// InBounds reports whether the tile coordinate lies inside the grid.
func (m *Map) InBounds(x, z int) bool {
	return m != nil && x >= 0 && x < m.Width && z >= 0 && z < m.Height
}

// TileAt returns the tile kind at the coordinate; ok is false out of bounds.
func (m *Map) TileAt(x, z int) (TileKind, bool) {
	if !m.InBounds(x, z) {
		return TileWater, false
	}
	return m.Tiles[z][x], true
}

// ElevationAt returns the ground height at the coordinate.
func (m *Map) ElevationAt(x, z int) (float64, bool) {
	if !m.InBounds(x, z) {
		return 0, false
	}
	return m.Elevations[z][x], true
}

// WorldToTile converts world-space XZ into tile coordinates. Floor keeps the
// negative fringe out of tile 0 instead of truncating toward it.
func (m *Map) WorldToTile(wx, wz float64) (int, int) {
	if m == nil || m.TileSize <= 0 {
		return -1, -1
	}
	return int(math.Floor(wx / m.TileSize)), int(math.Floor(wz / m.TileSize))
}

// TileCenter returns the world-space center of a tile.
func (m *Map) TileCenter(x, z int) (float64, float64) {
	return (float64(x) + 0.5) * m.TileSize, (float64(z) + 0.5) * m.TileSize
}

func newMap(width, height int, tileSize float64) *Map {
	tiles := make([][]TileKind, height)
	elevations := make([][]float64, height)
	for z := range tiles {
		tiles[z] = make([]TileKind, width)
		elevations[z] = make([]float64, width)
	}
	return &Map{Width: width, Height: height, TileSize: tileSize, Tiles: tiles, Elevations: elevations}
}
