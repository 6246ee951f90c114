package sim

import (
	"context"
	"math"

	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
	"gridlock/server/logging/lifecycle"
)

// toggleVehicle starts ingress or egress depending on the player's state.
func (e *Engine) toggleVehicle(ctx context.Context) {
	p := e.state.Player
	if !p.Alive() {
		return
	}

	switch p.State {
	case entity.StateDriving:
		v, ok := e.state.Entity(p.VehicleID)
		// Detach immediately so the vehicle reads as free; the walk-away
		// interpolation finishes the transition.
		entity.UnlinkVehicle(p, v)
		if !ok {
			p.State = entity.StateIdle
			return
		}
		v.State = entity.StateIdle
		v.Vel = geom.Vec3{}
		door := e.doorPoint(v, p.Pos)
		away := door.Sub(v.Pos).Normalized().Scale(walkAwayOffset)
		p.State = entity.StateExitingVehicle
		p.TargetEntityID = v.ID
		p.SetTarget(door.Add(away))

	case entity.StateIdle, entity.StateWalking, entity.StatePunching:
		v := e.nearestFreeVehicle(p.Pos)
		if v == nil {
			return
		}
		p.State = entity.StateEnteringVehicle
		p.TargetEntityID = v.ID
		p.SetTarget(e.doorPoint(v, p.Pos))
	}
}

// nearestFreeVehicle returns the closest live, unoccupied vehicle within
// interaction range, or nil.
func (e *Engine) nearestFreeVehicle(from geom.Vec3) *entity.Entity {
	var best *entity.Entity
	bestDist := interactRange * interactRange
	for _, v := range e.state.Entities {
		if v == nil || v.Kind != entity.KindVehicle || !v.Alive() || v.VehicleID != "" {
			continue
		}
		d := from.HorizontalDistSq(v.Pos)
		if d <= bestDist {
			best = v
			bestDist = d
		}
	}
	return best
}

// doorPoint picks the door position on the vehicle side facing the character.
func (e *Engine) doorPoint(v *entity.Entity, from geom.Vec3) geom.Vec3 {
	right := geom.Vec3{X: math.Cos(v.Rotation.Y), Z: -math.Sin(v.Rotation.Y)}
	side := right.Scale(doorOffset)
	a := v.Pos.Add(side)
	b := v.Pos.Sub(side)
	if from.HorizontalDistSq(a) <= from.HorizontalDistSq(b) {
		return a
	}
	return b
}

// updateVehicleTransition interpolates the player toward the transient door
// or walk-away target. A vehicle that vanished or got taken mid-approach
// cancels the transition back to idle.
func (e *Engine) updateVehicleTransition(ctx context.Context, dt float64) {
	p := e.state.Player
	v, ok := e.state.Entity(p.TargetEntityID)
	if !ok || !p.TargetSet {
		p.ClearTarget()
		p.State = entity.StateIdle
		return
	}
	if p.State == entity.StateEnteringVehicle && (!v.Alive() || v.VehicleID != "") {
		p.ClearTarget()
		p.State = entity.StateIdle
		return
	}

	delta := geom.Vec3{X: p.TargetPos.X - p.Pos.X, Z: p.TargetPos.Z - p.Pos.Z}
	dist := delta.Length()
	if dist <= arriveEpsilon {
		e.finishVehicleTransition(ctx, p, v)
		return
	}

	dir := delta.Scale(1 / dist)
	step := transitionSpeed * dt
	if step > dist {
		step = dist
	}
	p.Pos = p.Pos.Add(dir.Scale(step))
	p.Rotation.Y = geom.DampAngle(p.Rotation.Y, math.Atan2(dir.X, dir.Z), headingLambda, dt)
}

func (e *Engine) finishVehicleTransition(ctx context.Context, p, v *entity.Entity) {
	switch p.State {
	case entity.StateEnteringVehicle:
		entity.LinkVehicle(p, v)
		p.Pos = v.Pos
		p.Vel = geom.Vec3{}
		p.Rotation.Y = v.Rotation.Y
		p.State = entity.StateDriving
		v.State = entity.StateDriving
		p.ClearTarget()
		lifecycle.VehicleEnter(ctx, e.deps.Publisher, e.tick, e.ref(p), e.ref(v))
		e.deps.Metrics.Add("vehicle_entries", 1)
	case entity.StateExitingVehicle:
		p.Vel = geom.Vec3{}
		p.State = entity.StateIdle
		p.ClearTarget()
		lifecycle.VehicleExit(ctx, e.deps.Publisher, e.tick, e.ref(p), e.ref(v))
		e.deps.Metrics.Add("vehicle_exits", 1)
	}
}

// updateDriving runs vehicle physics for the occupied vehicle: accelerate or
// brake along the heading, exponential friction, speed-proportional steering,
// lateral slip decay with a one-shot drift trigger, per-axis collision with
// damped reflection. The driver rides the vehicle's pose.
func (e *Engine) updateDriving(dt float64) {
	p := e.state.Player
	v, ok := e.state.Entity(p.VehicleID)
	if !ok || !v.Alive() {
		// Vehicle vanished under the driver.
		p.VehicleID = ""
		p.State = entity.StateIdle
		return
	}

	throttle := e.moveZ
	steer := e.moveX

	forward := geom.Vec3{X: math.Sin(v.Rotation.Y), Z: math.Cos(v.Rotation.Y)}
	speed := v.Vel.Dot(forward)
	lateral := v.Vel.Sub(forward.Scale(speed))

	switch {
	case throttle > 0:
		speed += vehicleAccel * throttle * dt
	case throttle < 0 && speed > 0:
		speed += vehicleBrakeAccel * throttle * dt
	case throttle < 0:
		speed += vehicleAccel * throttle * dt
	}
	// Throttle alone never reaches the cap; the clamp latches external
	// impulses and reverse speed.
	speed *= math.Exp(-vehicleFriction * dt)
	speed = geom.Clamp(speed, -vehicleReverseMax, vehicleMaxSpeed)

	if math.Abs(speed) > steerMinSpeed {
		gain := geom.Clamp(math.Abs(speed)/vehicleMaxSpeed, 0.3, 1)
		sign := 1.0
		if speed < 0 {
			sign = -1
		}
		v.Rotation.Y = geom.WrapAngle(v.Rotation.Y + steer*steerRate*gain*sign*dt)
		forward = geom.Vec3{X: math.Sin(v.Rotation.Y), Z: math.Cos(v.Rotation.Y)}
	}

	slip := lateral.Length()
	if slip > driftSlipSpeed {
		if !e.drifting {
			e.drifting = true
			e.deps.Metrics.Add("vehicle_drifts", 1)
		}
	} else {
		e.drifting = false
	}
	lateral = lateral.Scale(math.Exp(-driftGripLambda * dt))

	v.Vel = forward.Scale(speed).Add(lateral)
	e.moveAxes(v, dt)

	tx, tz := e.state.Map.WorldToTile(v.Pos.X, v.Pos.Z)
	if elev, ok := e.state.Map.ElevationAt(tx, tz); ok {
		v.Pos.Y = geom.Damp(v.Pos.Y, elev+v.Size.Y/2, groundLambda, dt)
	}

	p.Pos = v.Pos
	p.Vel = v.Vel
	p.Rotation.Y = v.Rotation.Y
}

// honkHorn emits the horn event when driving. Pure presentation; no state.
func (e *Engine) honkHorn(ctx context.Context) {
	p := e.state.Player
	if p.State != entity.StateDriving {
		return
	}
	v, ok := e.state.Entity(p.VehicleID)
	if !ok {
		return
	}
	lifecycle.Horn(ctx, e.deps.Publisher, e.tick, e.ref(p), e.ref(v))
	e.deps.Metrics.Add("horn_honks", 1)
}
