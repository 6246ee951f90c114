package sim

import (
	"context"
	"math"

	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
	"gridlock/server/internal/worldgen"
	combatlog "gridlock/server/logging/combat"
	"gridlock/server/logging/lifecycle"
)

// updateProjectiles integrates every live projectile and resolves hits with a
// radius test derived from the target's horizontal extents. Projectiles are
// removed on impact or once they travel past the max range from the player.
func (e *Engine) updateProjectiles(ctx context.Context, dt float64) {
	s := e.state
	var spent []string
	for _, p := range s.Entities {
		if p == nil || p.Kind != entity.KindProjectile {
			continue
		}
		p.Pos = p.Pos.Add(p.Vel.Scale(dt))
		if p.Pos.HorizontalDistSq(s.Player.Pos) > projectileMaxRange*projectileMaxRange {
			spent = append(spent, p.ID)
			continue
		}
		for _, t := range s.Entities {
			if t == nil || t == p || t.Kind == entity.KindProjectile || !t.Alive() {
				continue
			}
			radius := math.Max(t.Size.X, t.Size.Z) / 2
			if p.Pos.HorizontalDistSq(t.Pos) > radius*radius {
				continue
			}
			killed := t.ApplyHealthDelta(-projectileDamage)
			combatlog.ProjectileHit(ctx, e.deps.Publisher, e.tick, e.ref(p), e.ref(t), combatlog.ProjectileHitPayload{
				Damage:       projectileDamage,
				TargetHealth: t.Health,
			})
			if killed {
				e.handleDefeat(ctx, t, "projectile")
			}
			spent = append(spent, p.ID)
			break
		}
	}
	for _, id := range spent {
		s.Remove(id)
	}
}

// updatePickups swaps the player's weapon for any pickup within reach. Only
// on foot; the pickup despawns once collected.
func (e *Engine) updatePickups() {
	p := e.state.Player
	if p.VehicleID != "" {
		return
	}
	for _, it := range e.state.Entities {
		if it == nil || it.Kind != entity.KindWeaponItem || !it.Alive() {
			continue
		}
		if p.Pos.HorizontalDistSq(it.Pos) > pickupRadius*pickupRadius {
			continue
		}
		weapon := it.EquippedWeapon()
		p.SetWeapon(weapon)
		e.state.Remove(it.ID)
		e.deps.Metrics.Add("weapons_picked_up", 1)
		e.deps.OnUpdate.push(Update{Kind: UpdatePickup, Weapon: weapon})
		return
	}
}

// updateEnvironment resolves the player's tile: water drowns and drags, dry
// land damps toward ground height, out of bounds kills outright. Returns
// false when the player died, which short-circuits the rest of the frame.
func (e *Engine) updateEnvironment(ctx context.Context, dt float64) bool {
	s := e.state
	p := s.Player
	tx, tz := s.Map.WorldToTile(p.Pos.X, p.Pos.Z)
	tile, ok := s.Map.TileAt(tx, tz)
	if !ok {
		e.killPlayer(ctx, "out_of_bounds")
		return false
	}

	if tile == worldgen.TileWater && p.VehicleID == "" {
		if !e.drowning {
			e.drowning = true
			lifecycle.Drowning(ctx, e.deps.Publisher, e.tick, e.ref(p))
		}
		killed := p.ApplyHealthDelta(-drownDamagePerSecond * dt)
		e.pushHealth()
		p.Vel.X = geom.Damp(p.Vel.X, 0, waterDragLambda, dt)
		p.Vel.Z = geom.Damp(p.Vel.Z, 0, waterDragLambda, dt)
		p.Pos.Y = geom.Damp(p.Pos.Y, waterSurfaceY+submergedOffset, waterSinkLambda, dt)
		if killed {
			e.killPlayer(ctx, "drowned")
			return false
		}
		return true
	}

	e.drowning = false
	if p.VehicleID == "" {
		if elev, ok := s.Map.ElevationAt(tx, tz); ok {
			p.Pos.Y = geom.Damp(p.Pos.Y, elev+p.Size.Y/2, groundLambda, dt)
		}
	}
	return true
}

// updateFreeRoam applies on-foot movement: input rotated into camera space,
// acceleration with a speed clamp, exponential friction when idle, heading
// damped toward the velocity direction.
func (e *Engine) updateFreeRoam(dt float64) {
	p := e.state.Player

	yaw := e.camera.Yaw()
	forward := geom.Vec3{X: math.Sin(yaw), Z: math.Cos(yaw)}
	right := geom.Vec3{X: math.Cos(yaw), Z: -math.Sin(yaw)}
	wish := forward.Scale(e.moveZ).Add(right.Scale(e.moveX))
	if wish.LengthSq() > 1 {
		wish = wish.Normalized()
	}

	if wish.LengthSq() > 0 {
		p.Vel.X += wish.X * walkAccel * dt
		p.Vel.Z += wish.Z * walkAccel * dt
		horizontal := geom.Vec3{X: p.Vel.X, Z: p.Vel.Z}
		if horizontal.Length() > walkMaxSpeed {
			horizontal = horizontal.Normalized().Scale(walkMaxSpeed)
			p.Vel.X, p.Vel.Z = horizontal.X, horizontal.Z
		}
		p.Rotation.Y = geom.DampAngle(p.Rotation.Y, math.Atan2(horizontal.X, horizontal.Z), headingLambda, dt)
	} else {
		decay := math.Exp(-walkFriction * dt)
		p.Vel.X *= decay
		p.Vel.Z *= decay
	}

	e.moveAxes(p, dt)

	speed := geom.Vec3{X: p.Vel.X, Z: p.Vel.Z}.Length()
	if p.State != entity.StatePunching {
		if speed > walkStopSpeed {
			p.State = entity.StateWalking
		} else {
			p.State = entity.StateIdle
			p.Vel.X, p.Vel.Z = 0, 0
		}
	}
}

// updateBystanders integrates residual velocity on NPCs and driverless
// vehicles so knockback and shunts play out instead of freezing mid-air.
func (e *Engine) updateBystanders(dt float64) {
	decay := math.Exp(-walkFriction * dt)
	for _, b := range e.state.Entities {
		if b == nil || !b.Alive() {
			continue
		}
		if !b.IsCharacter() && b.Kind != entity.KindVehicle {
			continue
		}
		if b.Kind == entity.KindVehicle && b.VehicleID != "" {
			continue
		}
		if b.Vel.X == 0 && b.Vel.Z == 0 {
			continue
		}
		b.Vel.X *= decay
		b.Vel.Z *= decay
		if math.Abs(b.Vel.X) < walkStopSpeed && math.Abs(b.Vel.Z) < walkStopSpeed {
			b.Vel.X, b.Vel.Z = 0, 0
			continue
		}
		e.moveAxes(b, dt)
		tx, tz := e.state.Map.WorldToTile(b.Pos.X, b.Pos.Z)
		if elev, ok := e.state.Map.ElevationAt(tx, tz); ok {
			b.Pos.Y = geom.Damp(b.Pos.Y, elev+b.Size.Y/2, groundLambda, dt)
		}
	}
}

// moveAxes advances position one axis at a time so a hit on one axis still
// lets the entity slide along the other. The blocked component reflects with
// damping instead of zeroing, giving a slight bounce off walls.
func (e *Engine) moveAxes(ent *entity.Entity, dt float64) {
	half := ent.Half()
	entities := e.state.Entities

	nextX := ent.Pos.X + ent.Vel.X*dt
	if CheckCollision(geom.Vec3{X: nextX, Y: ent.Pos.Y, Z: ent.Pos.Z}, half, entities, ent.ID) {
		ent.Vel.X *= -reflectDamping
	} else {
		ent.Pos.X = nextX
	}

	nextZ := ent.Pos.Z + ent.Vel.Z*dt
	if CheckCollision(geom.Vec3{X: ent.Pos.X, Y: ent.Pos.Y, Z: nextZ}, half, entities, ent.ID) {
		ent.Vel.Z *= -reflectDamping
	} else {
		ent.Pos.Z = nextZ
	}
}
