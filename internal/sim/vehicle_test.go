package sim

import (
	"context"
	"math"
	"testing"

	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
)

func newTestVehicle(id string, pos geom.Vec3) *entity.Entity {
	return entity.New(id, entity.KindVehicle, pos, geom.Vec3{X: 1.9, Y: 1.5, Z: 4.2}, 200)
}

// newDrivingEngine seats the engine's player in a vehicle directly, skipping
// the ingress interpolation. The vehicle starts near the low map edge so a
// sustained full-throttle run stays in bounds.
func newDrivingEngine(extra ...*entity.Entity) (*Engine, *State, *entity.Entity) {
	vehicle := newTestVehicle("vehicle-1", geom.Vec3{X: 32, Y: 0.75, Z: 8})
	eng, state := newTestEngine(Deps{}, append([]*entity.Entity{vehicle}, extra...)...)
	entity.LinkVehicle(state.Player, vehicle)
	state.Player.State = entity.StateDriving
	state.Player.Pos = vehicle.Pos
	vehicle.State = entity.StateDriving
	return eng, state, vehicle
}

func toggleVehicle(eng *Engine) {
	eng.Apply(context.Background(), []Command{{Type: CommandToggleVehicle}})
}

func stepUntil(eng *Engine, steps int, dt float64, done func() bool) bool {
	ctx := context.Background()
	for i := 0; i < steps; i++ {
		eng.Step(ctx, dt)
		if done() {
			return true
		}
	}
	return done()
}

func TestVehicleEnterExitRoundTrip(t *testing.T) {
	vehicle := newTestVehicle("vehicle-1", newTestPlayer().Pos.Add(geom.Vec3{X: 3}))
	eng, state := newTestEngine(Deps{}, vehicle)

	toggleVehicle(eng)
	if state.Player.State != entity.StateEnteringVehicle {
		t.Fatalf("state after toggle = %s, want entering_vehicle", state.Player.State)
	}

	if !stepUntil(eng, 60, 0.05, func() bool { return state.Player.State == entity.StateDriving }) {
		t.Fatalf("never reached driving, state=%s", state.Player.State)
	}
	if state.Player.VehicleID != vehicle.ID || vehicle.VehicleID != state.Player.ID {
		t.Fatalf("occupancy link not reciprocal: player=%q vehicle=%q",
			state.Player.VehicleID, vehicle.VehicleID)
	}
	if state.Player.Pos != vehicle.Pos {
		t.Fatalf("driver not riding the vehicle: %+v vs %+v", state.Player.Pos, vehicle.Pos)
	}

	toggleVehicle(eng)
	if state.Player.State != entity.StateExitingVehicle {
		t.Fatalf("state after second toggle = %s, want exiting_vehicle", state.Player.State)
	}
	// The link drops the moment egress starts.
	if state.Player.VehicleID != "" || vehicle.VehicleID != "" {
		t.Fatalf("occupancy link survived egress start")
	}

	if !stepUntil(eng, 60, 0.05, func() bool { return state.Player.State == entity.StateIdle }) {
		t.Fatalf("never finished exiting, state=%s", state.Player.State)
	}
	if state.Player.TargetSet {
		t.Fatalf("transient target not cleared after egress")
	}
}

func TestVehicleToggleOutOfRangeIsIgnored(t *testing.T) {
	vehicle := newTestVehicle("vehicle-1", newTestPlayer().Pos.Add(geom.Vec3{X: interactRange + 5}))
	eng, state := newTestEngine(Deps{}, vehicle)

	toggleVehicle(eng)

	if state.Player.State != entity.StateIdle {
		t.Fatalf("out-of-range toggle changed state to %s", state.Player.State)
	}
}

func TestVehicleTakenMidApproachCancels(t *testing.T) {
	vehicle := newTestVehicle("vehicle-1", newTestPlayer().Pos.Add(geom.Vec3{X: 3}))
	eng, state := newTestEngine(Deps{}, vehicle)

	toggleVehicle(eng)
	vehicle.VehicleID = "someone-else"
	eng.Step(context.Background(), 0.05)

	if state.Player.State != entity.StateIdle {
		t.Fatalf("approach to a taken vehicle should cancel, state=%s", state.Player.State)
	}
	if state.Player.TargetSet {
		t.Fatalf("cancelled approach left a transient target")
	}
}

func TestVehicleVanishingUnderDriverFallsBackToIdle(t *testing.T) {
	eng, state, vehicle := newDrivingEngine()

	state.Remove(vehicle.ID)
	eng.Step(context.Background(), 0.05)

	if state.Player.State != entity.StateIdle {
		t.Fatalf("driver of a vanished vehicle state = %s, want idle", state.Player.State)
	}
	if state.Player.VehicleID != "" {
		t.Fatalf("dangling vehicle link %q", state.Player.VehicleID)
	}
}

func TestVehicleThrottleApproachesTopSpeedFromBelow(t *testing.T) {
	eng, _, vehicle := newDrivingEngine()
	ctx := context.Background()

	eng.Apply(ctx, []Command{{Type: CommandMove, MoveZ: 1}})

	prev := 0.0
	for i := 0; i < 200; i++ {
		eng.Step(ctx, 0.05)
		forward := geom.Vec3{X: math.Sin(vehicle.Rotation.Y), Z: math.Cos(vehicle.Rotation.Y)}
		speed := vehicle.Vel.Dot(forward)
		if speed+1e-9 < prev {
			t.Fatalf("speed dropped under full throttle: %v -> %v at step %d", prev, speed, i)
		}
		if speed >= vehicleMaxSpeed {
			t.Fatalf("speed %v reached the cap %v at step %d", speed, vehicleMaxSpeed, i)
		}
		prev = speed
	}
	if prev < vehicleMaxSpeed*0.9 {
		t.Fatalf("speed %v after 10s at full throttle, want near the %v cap", prev, vehicleMaxSpeed)
	}
}

func TestVehicleFrictionStopsCoasting(t *testing.T) {
	eng, _, vehicle := newDrivingEngine()
	vehicle.Vel = geom.Vec3{Z: 10}
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		eng.Step(ctx, 0.05)
	}

	if speed := vehicle.Vel.Length(); speed > 1 {
		t.Fatalf("coasting vehicle still moving at %v after 10s", speed)
	}
}

func TestDriverRidesVehiclePose(t *testing.T) {
	eng, state, vehicle := newDrivingEngine()
	ctx := context.Background()

	eng.Apply(ctx, []Command{{Type: CommandMove, MoveZ: 1, MoveX: 0.5}})
	for i := 0; i < 40; i++ {
		eng.Step(ctx, 0.05)
	}

	if vehicle.Pos == (geom.Vec3{X: 32, Y: 0.75, Z: 8}) {
		t.Fatalf("vehicle never moved under throttle")
	}
	if state.Player.Pos != vehicle.Pos {
		t.Fatalf("driver desynced from vehicle: %+v vs %+v", state.Player.Pos, vehicle.Pos)
	}
	if state.Player.Rotation.Y != vehicle.Rotation.Y {
		t.Fatalf("driver heading desynced: %v vs %v", state.Player.Rotation.Y, vehicle.Rotation.Y)
	}
}
