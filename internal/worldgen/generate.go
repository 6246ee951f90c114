package worldgen

import (
	"math"
	"math/rand"

	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
)

// Generator walks the tile grid once, carving terrain and populating
// entities. The layout RNG is consumed exactly once per session; per-entity
// visual variation draws from EntityRNG instead so it survives re-evaluation.
type Generator struct {
	cfg      Config
	rng      *rand.Rand
	counters map[entity.Kind]uint64
}

// Generate builds the static map and its initial entity population. The
// player is excluded; the caller adds it at the spawn point.
func Generate(cfg Config, rng *rand.Rand) (*Map, []*entity.Entity) {
	normalized := cfg.normalized()
	if rng == nil {
		rng = NewDeterministicRNG(normalized.Seed, "layout")
	}
	g := &Generator{
		cfg:      normalized,
		rng:      rng,
		counters: make(map[entity.Kind]uint64),
	}
	m := g.carveTerrain()
	entities := g.populate(m)
	return m, entities
}

// SpawnPosition returns the world-space spawn point on the generated map.
func SpawnPosition(m *Map, cfg Config) geom.Vec3 {
	normalized := cfg.normalized()
	sx, sz := normalized.SpawnTile()
	wx, wz := m.TileCenter(sx, sz)
	elevation, _ := m.ElevationAt(sx, sz)
	return geom.Vec3{X: wx, Y: elevation, Z: wz}
}

func (g *Generator) carveTerrain() *Map {
	m := newMap(g.cfg.Width, g.cfg.Height, g.cfg.TileSize)

	// Phase 1: everything starts as ocean.
	for z := 0; z < m.Height; z++ {
		for x := 0; x < m.Width; x++ {
			m.Tiles[z][x] = TileWater
			m.Elevations[z][x] = oceanFloor
		}
	}

	// Phase 2: rectangular landmass with a noisy sand coastline.
	for z := oceanMargin; z < m.Height-oceanMargin; z++ {
		for x := oceanMargin; x < m.Width-oceanMargin; x++ {
			edgeDist := minInt(
				minInt(x-oceanMargin, m.Width-oceanMargin-1-x),
				minInt(z-oceanMargin, m.Height-oceanMargin-1-z),
			)
			threshold := beachDepth + g.rng.Intn(2)
			if edgeDist < threshold {
				m.Tiles[z][x] = TileSand
				m.Elevations[z][x] = 0.05
				continue
			}
			m.Tiles[z][x] = TileGrass
			m.Elevations[z][x] = g.rng.Float64() * maxLandElevation
		}
	}

	// Phase 3: mountain cluster in the north-east quadrant.
	mx0, mx1 := m.Width*5/8, m.Width-oceanMargin-beachDepth
	mz0, mz1 := oceanMargin+beachDepth, m.Height*3/8
	for z := mz0; z < mz1; z++ {
		for x := mx0; x < mx1; x++ {
			if m.Tiles[z][x] != TileGrass {
				continue
			}
			if g.rng.Float64() >= mountainDensity {
				continue
			}
			m.Tiles[z][x] = TileMountain
			m.Elevations[z][x] = mountainElevationMin + g.rng.Float64()*(mountainElevationMax-mountainElevationMin)
		}
	}

	// Phase 4: orthogonal road grid offset through the spawn tile. Roads
	// replace grass only; mountains and water break the grid and sand
	// beaches stay clear.
	sx, sz := g.cfg.SpawnTile()
	for z := 0; z < m.Height; z++ {
		for x := 0; x < m.Width; x++ {
			onGrid := (x-sx)%roadSpacing == 0 || (z-sz)%roadSpacing == 0
			if !onGrid {
				continue
			}
			if m.Tiles[z][x] != TileGrass {
				continue
			}
			m.Tiles[z][x] = TileRoad
			m.Elevations[z][x] = 0.02
		}
	}

	return m
}

func (g *Generator) populate(m *Map) []*entity.Entity {
	entities := make([]*entity.Entity, 0, 256)
	sx, sz := g.cfg.SpawnTile()

	for z := 0; z < m.Height; z++ {
		for x := 0; x < m.Width; x++ {
			tile := m.Tiles[z][x]
			if tile == TileWater || tile == TileMountain || tile == TileSand {
				continue
			}
			// Clear spawn guarantee: the safe zone never receives entities.
			if math.Hypot(float64(x-sx), float64(z-sz)) <= spawnSafeRadius {
				continue
			}

			switch tile {
			case TileRoad:
				if g.rng.Float64() < trafficChance {
					entities = append(entities, g.trafficVehicle(m, x, z, sx, sz))
				}
			case TileGrass:
				if g.nextToRoad(m, x, z) {
					if g.rng.Float64() < roadsideChance {
						entities = append(entities, g.roadsideFeature(m, x, z))
					}
				} else {
					if g.rng.Float64() < buildingChance {
						entities = append(entities, g.building(m, x, z))
					}
					if g.rng.Float64() < treeChance {
						entities = append(entities, g.tree(m, x, z))
					}
				}
				if g.rng.Float64() < npcChance {
					entities = append(entities, g.npc(m, x, z))
				}
				if g.rng.Float64() < weaponChance {
					entities = append(entities, g.weaponPickup(m, x, z))
				}
			}
		}
	}

	return entities
}

func (g *Generator) nextToRoad(m *Map, x, z int) bool {
	neighbors := [4][2]int{{x - 1, z}, {x + 1, z}, {x, z - 1}, {x, z + 1}}
	for _, n := range neighbors {
		if tile, ok := m.TileAt(n[0], n[1]); ok && tile == TileRoad {
			return true
		}
	}
	return false
}

func (g *Generator) nextID(kind entity.Kind) string {
	g.counters[kind]++
	return entity.FormatID(kind, g.counters[kind])
}

func (g *Generator) groundedPos(m *Map, x, z int, height float64) geom.Vec3 {
	wx, wz := m.TileCenter(x, z)
	elevation := m.Elevations[z][x]
	return geom.Vec3{X: wx, Y: elevation + height/2, Z: wz}
}

func (g *Generator) trafficVehicle(m *Map, x, z, sx, sz int) *entity.Entity {
	id := g.nextID(entity.KindVehicle)
	size := geom.Vec3{X: 2, Y: 1.6, Z: 4.2}
	e := entity.New(id, entity.KindVehicle, g.groundedPos(m, x, z, size.Y), size, 250)

	// Orientation follows the road axis the tile lies on; vertical grid
	// lines carry north/south traffic, horizontal ones east/west.
	var yaw float64
	if (x-sx)%roadSpacing == 0 {
		yaw = 0
	} else {
		yaw = math.Pi / 2
	}
	if g.rng.Float64() < 0.5 {
		yaw += math.Pi
	}
	e.Rotation.Y = yaw
	e.Vel = geom.Vec3{X: math.Sin(yaw), Z: math.Cos(yaw)}.Scale(4)
	e.Color = vehiclePalette[EntityRNG(id).Intn(len(vehiclePalette))]
	return e
}

func (g *Generator) roadsideFeature(m *Map, x, z int) *entity.Entity {
	roll := g.rng.Float64()
	switch {
	case roll < 0.35:
		return g.prop(m, x, z, "streetlight", geom.Vec3{X: 0.3, Y: 5, Z: 0.3})
	case roll < 0.45:
		return g.prop(m, x, z, "hydrant", geom.Vec3{X: 0.4, Y: 0.8, Z: 0.4})
	case roll < 0.65:
		return g.streetSign(m, x, z)
	default:
		return g.parkedVehicle(m, x, z)
	}
}

func (g *Generator) prop(m *Map, x, z int, propKind string, size geom.Vec3) *entity.Entity {
	id := g.nextID(entity.KindProp)
	e := entity.New(id, entity.KindProp, g.groundedPos(m, x, z, size.Y), size, 50)
	e.PropKind = propKind
	return e
}

func (g *Generator) streetSign(m *Map, x, z int) *entity.Entity {
	e := g.prop(m, x, z, "sign", geom.Vec3{X: 0.3, Y: 2.5, Z: 0.3})
	// Color encodes the sign variant: red stop signs versus green name signs.
	if EntityRNG(e.ID).Float64() < 0.4 {
		e.Color = "#cc2222"
	} else {
		e.Color = "#22aa55"
	}
	return e
}

func (g *Generator) parkedVehicle(m *Map, x, z int) *entity.Entity {
	id := g.nextID(entity.KindVehicle)
	size := geom.Vec3{X: 2, Y: 1.6, Z: 4.2}
	pos := g.groundedPos(m, x, z, size.Y)
	pos.Y += parkedCurbOffset
	e := entity.New(id, entity.KindVehicle, pos, size, 250)
	e.Rotation.Y = math.Pi / 2
	e.Color = vehiclePalette[EntityRNG(id).Intn(len(vehiclePalette))]
	return e
}

func (g *Generator) building(m *Map, x, z int) *entity.Entity {
	id := g.nextID(entity.KindBuilding)
	detail := EntityRNG(id)

	kind := "commercial"
	heightMin, heightMax := 12.0, 20.0
	roll := g.rng.Float64()
	switch {
	case roll < 0.05:
		kind = "skyscraper"
		heightMin, heightMax = 30, 60
	case roll < 0.40:
		kind = "residential"
		heightMin, heightMax = 8, 14
	case roll < 0.60:
		kind = "industrial"
		heightMin, heightMax = 10, 18
	}

	height := heightMin + g.rng.Float64()*(heightMax-heightMin)
	footprint := g.cfg.TileSize * 0.9
	size := geom.Vec3{X: footprint, Y: height, Z: footprint}
	e := entity.New(id, entity.KindBuilding, g.groundedPos(m, x, z, size.Y), size, 1000)
	e.BuildingKind = kind
	e.Color = buildingPalettes[kind][detail.Intn(len(buildingPalettes[kind]))]
	// Rooftop antenna placement keys off the entity id so re-renders of the
	// same building always agree.
	if kind == "skyscraper" && detail.Float64() < 0.6 {
		e.Accessory = "antenna"
	}
	return e
}

func (g *Generator) tree(m *Map, x, z int) *entity.Entity {
	wx, wz := m.TileCenter(x, z)
	offsetX := (g.rng.Float64() - 0.5) * g.cfg.TileSize * 0.6
	offsetZ := (g.rng.Float64() - 0.5) * g.cfg.TileSize * 0.6
	e := g.prop(m, x, z, "tree", geom.Vec3{X: 1, Y: 4, Z: 1})
	e.Pos.X = wx + offsetX
	e.Pos.Z = wz + offsetZ
	return e
}

func (g *Generator) npc(m *Map, x, z int) *entity.Entity {
	faction := g.rollFaction()

	kind := entity.KindCivilian
	switch faction {
	case entity.FactionVipers, entity.FactionKings:
		kind = entity.KindGangMember
	case entity.FactionPolice:
		kind = entity.KindPolice
	}

	id := g.nextID(kind)
	size := geom.Vec3{X: 0.8, Y: 1.8, Z: 0.8}
	e := entity.New(id, kind, g.groundedPos(m, x, z, size.Y), size, 100)
	e.Faction = faction
	e.Color = factionColors[faction]
	if faction.IsGang() {
		e.Accessory = "bandana"
	}
	e.Rotation.Y = g.rng.Float64() * 2 * math.Pi
	return e
}

func (g *Generator) rollFaction() entity.Faction {
	roll := g.rng.Float64()
	switch {
	case roll < 0.60:
		return entity.FactionCivilian
	case roll < 0.75:
		return entity.FactionVipers
	case roll < 0.90:
		return entity.FactionKings
	default:
		return entity.FactionPolice
	}
}

func (g *Generator) weaponPickup(m *Map, x, z int) *entity.Entity {
	id := g.nextID(entity.KindWeaponItem)
	size := geom.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	e := entity.New(id, entity.KindWeaponItem, g.groundedPos(m, x, z, size.Y), size, 1)
	e.Inventory = []string{"pistol"}
	return e
}

var vehiclePalette = []string{"#b03030", "#3050b0", "#c0c0c0", "#202020", "#d0a020", "#306040"}

var buildingPalettes = map[string][]string{
	"skyscraper":  {"#7a8a99", "#5f707f", "#8fa0b0"},
	"residential": {"#b08968", "#9c6644", "#ddb892"},
	"industrial":  {"#6b705c", "#797d62", "#585c4e"},
	"commercial":  {"#829cab", "#94a8b3", "#70878f"},
}

var factionColors = map[entity.Faction]string{
	entity.FactionCivilian: "#c8b89a",
	entity.FactionVipers:   "#2e8b57",
	entity.FactionKings:    "#6a3db8",
	entity.FactionPolice:   "#1f3a93",
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
