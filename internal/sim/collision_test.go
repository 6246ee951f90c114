package sim

import (
	"testing"

	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
)

func TestCheckCollisionOverlap(t *testing.T) {
	wall := entity.New("building-1", entity.KindBuilding,
		geom.Vec3{X: 10, Y: 5, Z: 10}, geom.Vec3{X: 4, Y: 10, Z: 4}, 1000)
	entities := []*entity.Entity{wall}
	half := geom.Vec3{X: 0.45, Y: 0.9, Z: 0.45}

	if !CheckCollision(geom.Vec3{X: 11, Y: 0.9, Z: 10}, half, entities, "player-1") {
		t.Fatalf("overlap with building not detected")
	}
	if CheckCollision(geom.Vec3{X: 20, Y: 0.9, Z: 10}, half, entities, "player-1") {
		t.Fatalf("false positive away from building")
	}
}

func TestCheckCollisionIgnoresHeight(t *testing.T) {
	wall := entity.New("building-1", entity.KindBuilding,
		geom.Vec3{X: 10, Y: 30, Z: 10}, geom.Vec3{X: 4, Y: 60, Z: 4}, 1000)
	half := geom.Vec3{X: 0.45, Y: 0.9, Z: 0.45}

	// Vertically far apart but horizontally overlapping still collides.
	if !CheckCollision(geom.Vec3{X: 10, Y: 0.9, Z: 10}, half, []*entity.Entity{wall}, "p") {
		t.Fatalf("horizontal-only test must ignore height separation")
	}
}

func TestCheckCollisionExclusions(t *testing.T) {
	half := geom.Vec3{X: 0.45, Y: 0.9, Z: 0.45}
	pos := geom.Vec3{X: 10, Y: 0.9, Z: 10}

	self := entity.New("player-1", entity.KindPlayer, pos, geom.Vec3{X: 0.9, Y: 1.8, Z: 0.9}, 100)
	if CheckCollision(pos, half, []*entity.Entity{self}, "player-1") {
		t.Fatalf("entity collided with itself")
	}

	proj := entity.New("projectile-1", entity.KindProjectile, pos, geom.Vec3{X: 0.2, Y: 0.2, Z: 0.2}, 1)
	if CheckCollision(pos, half, []*entity.Entity{proj}, "player-1") {
		t.Fatalf("projectile blocked movement")
	}

	corpse := entity.New("civilian-1", entity.KindCivilian, pos, geom.Vec3{X: 0.9, Y: 1.8, Z: 0.9}, 100)
	corpse.State = entity.StateDead
	if CheckCollision(pos, half, []*entity.Entity{corpse}, "player-1") {
		t.Fatalf("dead entity blocked movement")
	}
}

func TestCheckCollisionSkipsOwnDriver(t *testing.T) {
	vehicle := entity.New("vehicle-1", entity.KindVehicle,
		geom.Vec3{X: 10, Y: 0.75, Z: 10}, geom.Vec3{X: 1.9, Y: 1.5, Z: 4.2}, 200)
	driver := entity.New("player-1", entity.KindPlayer,
		vehicle.Pos, geom.Vec3{X: 0.9, Y: 1.8, Z: 0.9}, 100)
	entity.LinkVehicle(driver, vehicle)

	// The vehicle moving must not collide with its occupant riding inside.
	if CheckCollision(vehicle.Pos, vehicle.Half(), []*entity.Entity{driver}, vehicle.ID) {
		t.Fatalf("vehicle collided with its own driver")
	}
	// But it still collides with a bystander at the same spot.
	bystander := entity.New("civilian-1", entity.KindCivilian,
		vehicle.Pos, geom.Vec3{X: 0.9, Y: 1.8, Z: 0.9}, 100)
	if !CheckCollision(vehicle.Pos, vehicle.Half(), []*entity.Entity{bystander}, vehicle.ID) {
		t.Fatalf("bystander overlap not detected")
	}
}

func TestCheckCollisionBroadPhaseCutoff(t *testing.T) {
	far := entity.New("building-1", entity.KindBuilding,
		geom.Vec3{X: collisionBroadRange * 3, Y: 5, Z: 0}, geom.Vec3{X: 4, Y: 10, Z: 4}, 1000)
	if CheckCollision(geom.Vec3{}, geom.Vec3{X: 1, Y: 1, Z: 1}, []*entity.Entity{far}, "p") {
		t.Fatalf("broad phase failed to reject a distant entity")
	}
}
