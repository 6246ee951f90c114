package entity

import (
	"testing"

	"gridlock/server/internal/geom"
)

func TestApplyHealthDeltaClampsAndKills(t *testing.T) {
	e := New("npc-1", KindCivilian, geom.Vec3{}, geom.Vec3{X: 1, Y: 2, Z: 1}, 100)

	if killed := e.ApplyHealthDelta(-30); killed {
		t.Fatalf("expected entity to survive 30 damage")
	}
	if e.Health != 70 {
		t.Fatalf("expected health 70, got %f", e.Health)
	}

	e.ApplyHealthDelta(500)
	if e.Health != 100 {
		t.Fatalf("expected heal to clamp at max health, got %f", e.Health)
	}

	if killed := e.ApplyHealthDelta(-150); !killed {
		t.Fatalf("expected lethal damage to report a kill")
	}
	if e.Health != 0 {
		t.Fatalf("expected health clamped to 0, got %f", e.Health)
	}
	if e.State != StateDead {
		t.Fatalf("expected dead state, got %s", e.State)
	}

	// Dead entities ignore further mutation.
	if e.ApplyHealthDelta(50); e.Health != 0 {
		t.Fatalf("expected dead entity to ignore healing, got %f", e.Health)
	}
}

func TestEquippedWeaponDefaultsToFist(t *testing.T) {
	e := New("player-1", KindPlayer, geom.Vec3{}, geom.Vec3{X: 1, Y: 2, Z: 1}, 100)
	if weapon := e.EquippedWeapon(); weapon != FistWeapon {
		t.Fatalf("expected fist for empty inventory, got %q", weapon)
	}

	e.SetWeapon("pistol")
	if weapon := e.EquippedWeapon(); weapon != "pistol" {
		t.Fatalf("expected pistol, got %q", weapon)
	}
	if len(e.Inventory) != 1 {
		t.Fatalf("expected pickup to replace the inventory, got %d slots", len(e.Inventory))
	}
}

func TestLinkVehicleMaintainsReciprocalReference(t *testing.T) {
	character := New("player-1", KindPlayer, geom.Vec3{}, geom.Vec3{X: 1, Y: 2, Z: 1}, 100)
	vehicle := New("vehicle-1", KindVehicle, geom.Vec3{}, geom.Vec3{X: 2, Y: 2, Z: 4}, 100)

	LinkVehicle(character, vehicle)
	if character.VehicleID != vehicle.ID {
		t.Fatalf("expected character to reference vehicle, got %q", character.VehicleID)
	}
	if vehicle.VehicleID != character.ID {
		t.Fatalf("expected vehicle to reference driver, got %q", vehicle.VehicleID)
	}

	UnlinkVehicle(character, vehicle)
	if character.VehicleID != "" || vehicle.VehicleID != "" {
		t.Fatalf("expected both links cleared, got %q / %q", character.VehicleID, vehicle.VehicleID)
	}
}

func TestIsGangFaction(t *testing.T) {
	if !FactionVipers.IsGang() || !FactionKings.IsGang() {
		t.Fatalf("expected gang factions to report true")
	}
	if FactionPolice.IsGang() || FactionCivilian.IsGang() {
		t.Fatalf("expected non-gang factions to report false")
	}
}

func TestClearTargetDropsTransientFields(t *testing.T) {
	e := New("npc-1", KindCivilian, geom.Vec3{}, geom.Vec3{X: 1, Y: 2, Z: 1}, 100)
	e.TargetEntityID = "vehicle-9"
	e.SetTarget(geom.Vec3{X: 3, Y: 0, Z: 4})

	e.ClearTarget()
	if e.TargetEntityID != "" || e.TargetSet {
		t.Fatalf("expected transient target fields cleared")
	}
}
