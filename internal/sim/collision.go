package sim

import (
	"math"

	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
)

// CheckCollision reports whether a box at pos with the given half-extents
// overlaps any live entity. Height is ignored; the test is horizontal only.
// The querying entity, its current driver, projectiles, and dead entities
// are excluded. A cheap per-axis distance reject runs before the precise
// AABB test, and the scan stops at the first overlap: this is a movement
// gate, not a physics response.
func CheckCollision(pos, half geom.Vec3, entities []*entity.Entity, selfID string) bool {
	query := geom.AABBAround(pos, half)
	for _, e := range entities {
		if e == nil || e.ID == selfID {
			continue
		}
		if e.Kind == entity.KindProjectile {
			continue
		}
		if !e.Alive() {
			continue
		}
		// The driver rides at the vehicle's position; never collide a
		// vehicle against its own occupant.
		if selfID != "" && e.VehicleID == selfID {
			continue
		}
		if math.Abs(e.Pos.X-pos.X) > collisionBroadRange ||
			math.Abs(e.Pos.Z-pos.Z) > collisionBroadRange {
			continue
		}
		if query.OverlapsXZ(e.Bounds()) {
			return true
		}
	}
	return false
}
