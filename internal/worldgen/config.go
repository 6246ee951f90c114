package worldgen

// Config sizes the generated world. Zero values fall back to defaults via
// normalized().
type Config struct {
	Width    int
	Height   int
	TileSize float64
	Seed     string
}

const (
	defaultWidth    = 64
	defaultHeight   = 64
	defaultTileSize = 4.0

	// DefaultSeed anchors deterministic tests; live sessions pass an
	// ambient (time-derived) seed instead.
	DefaultSeed = "gridlock"
)

const (
	oceanMargin      = 6
	oceanFloor       = -2.0
	beachDepth       = 2
	maxLandElevation = 0.3

	roadSpacing = 8

	mountainElevationMin = 6.0
	mountainElevationMax = 14.0
	mountainDensity      = 0.55

	// Safe zone: no entities within this many tiles of spawn.
	spawnSafeRadius = 5

	trafficChance  = 0.02
	roadsideChance = 0.3
	buildingChance = 0.25
	treeChance     = 0.05
	npcChance      = 0.012
	weaponChance   = 0.002

	parkedCurbOffset = 0.1
)

func (c Config) normalized() Config {
	if c.Width <= 0 {
		c.Width = defaultWidth
	}
	if c.Height <= 0 {
		c.Height = defaultHeight
	}
	if c.TileSize <= 0 {
		c.TileSize = defaultTileSize
	}
	if c.Seed == "" {
		c.Seed = DefaultSeed
	}
	return c
}

// SpawnTile is the fixed spawn coordinate; the road grid is offset so a road
// passes exactly through it.
func (c Config) SpawnTile() (int, int) {
	return c.Width / 2, c.Height / 2
}
