package sim

import (
	"context"
	"math"
	"testing"

	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
)

func attack(eng *Engine) {
	eng.Apply(context.Background(), []Command{{Type: CommandAttack}})
}

func fire(eng *Engine) {
	eng.Apply(context.Background(), []Command{{Type: CommandFire}})
}

func TestMeleeComboCyclesMultipliers(t *testing.T) {
	player := newTestPlayer()
	npc := newTestNPC("civilian-1", entity.KindCivilian, player.Pos.Add(geom.Vec3{Z: 1.5}))
	npc.MaxHealth = 1000
	npc.Health = 1000
	eng, _ := newTestEngine(Deps{}, npc)
	ctx := context.Background()

	home := npc.Pos
	want := []float64{10, 12.5, 15, 17.5, 10}
	for i, expected := range want {
		// Undo knockback so every swing lands.
		npc.Pos = home
		npc.Vel = geom.Vec3{}

		before := npc.Health
		attack(eng)
		if got := before - npc.Health; math.Abs(got-expected) > 1e-9 {
			t.Fatalf("swing %d damage = %v, want %v", i, got, expected)
		}
		// Past the cooldown, inside the combo window.
		eng.Step(ctx, 0.4)
	}
}

func TestMeleeComboResetsAfterIdleGap(t *testing.T) {
	player := newTestPlayer()
	npc := newTestNPC("civilian-1", entity.KindCivilian, player.Pos.Add(geom.Vec3{Z: 1.5}))
	npc.MaxHealth = 1000
	npc.Health = 1000
	eng, _ := newTestEngine(Deps{}, npc)
	ctx := context.Background()

	home := npc.Pos
	attack(eng)
	eng.Step(ctx, 0.4)
	npc.Pos = home
	npc.Vel = geom.Vec3{}
	attack(eng) // combo 1, 12.5 damage

	eng.Step(ctx, comboResetSeconds+0.1)
	npc.Pos = home
	npc.Vel = geom.Vec3{}
	before := npc.Health
	attack(eng)
	if got := before - npc.Health; got != meleeBaseDamage {
		t.Fatalf("damage after combo reset = %v, want base %v", got, meleeBaseDamage)
	}
}

func TestMeleeCooldownBlocksImmediateRepeat(t *testing.T) {
	player := newTestPlayer()
	npc := newTestNPC("civilian-1", entity.KindCivilian, player.Pos.Add(geom.Vec3{Z: 1.5}))
	npc.MaxHealth = 1000
	npc.Health = 1000
	eng, _ := newTestEngine(Deps{}, npc)

	attack(eng)
	first := npc.Health
	attack(eng)
	if npc.Health != first {
		t.Fatalf("second swing inside cooldown dealt damage")
	}
}

func TestMeleeHitsFirstTargetInOrder(t *testing.T) {
	player := newTestPlayer()
	front1 := newTestNPC("civilian-1", entity.KindCivilian, player.Pos.Add(geom.Vec3{Z: 1.2}))
	front2 := newTestNPC("civilian-2", entity.KindCivilian, player.Pos.Add(geom.Vec3{Z: 1.8}))
	behind := newTestNPC("civilian-3", entity.KindCivilian, player.Pos.Add(geom.Vec3{Z: -1.2}))
	eng, _ := newTestEngine(Deps{}, front1, front2, behind)

	attack(eng)

	if front1.Health == front1.MaxHealth {
		t.Fatalf("first target in order took no damage")
	}
	if front2.Health != front2.MaxHealth {
		t.Fatalf("single swing damaged a second target")
	}
	if behind.Health != behind.MaxHealth {
		t.Fatalf("target outside the forward cone took damage")
	}
}

func TestMeleeAppliesKnockback(t *testing.T) {
	player := newTestPlayer()
	npc := newTestNPC("civilian-1", entity.KindCivilian, player.Pos.Add(geom.Vec3{Z: 1.5}))
	eng, _ := newTestEngine(Deps{}, npc)

	attack(eng)

	if npc.Vel.Z <= 0 {
		t.Fatalf("knockback velocity = %+v, want push along +Z", npc.Vel)
	}
}

func TestMeleeOnCivilianRaisesWanted(t *testing.T) {
	player := newTestPlayer()
	npc := newTestNPC("civilian-1", entity.KindCivilian, player.Pos.Add(geom.Vec3{Z: 1.5}))
	eng, state := newTestEngine(Deps{}, npc)

	attack(eng)

	if state.WantedLevel != 1 {
		t.Fatalf("wanted level = %d, want 1 after assaulting a civilian", state.WantedLevel)
	}
}

func TestMeleeOnGangMemberLeavesWantedAlone(t *testing.T) {
	player := newTestPlayer()
	npc := newTestNPC("gang_member-1", entity.KindGangMember, player.Pos.Add(geom.Vec3{Z: 1.5}))
	eng, state := newTestEngine(Deps{}, npc)

	attack(eng)

	if state.WantedLevel != 0 {
		t.Fatalf("gang fight raised wanted level to %d", state.WantedLevel)
	}
}

func TestMeleeRefusedWhileDriving(t *testing.T) {
	npc := newTestNPC("civilian-1", entity.KindCivilian, geom.Vec3{X: 32, Y: 0.9, Z: 9.5})
	eng, state, _ := newDrivingEngine(npc)

	attack(eng)

	if npc.Health != npc.MaxHealth {
		t.Fatalf("swing from the driver seat dealt damage")
	}
	// The punching state must never displace driving.
	if state.Player.State != entity.StateDriving {
		t.Fatalf("driver state = %s after refused swing, want driving", state.Player.State)
	}
}

func TestPunchStateAutoReverts(t *testing.T) {
	eng, state := newTestEngine(Deps{})
	ctx := context.Background()

	attack(eng)
	if state.Player.State != entity.StatePunching {
		t.Fatalf("state after swing = %s, want punching", state.Player.State)
	}

	eng.Step(ctx, punchStateSeconds+0.1)
	if state.Player.State != entity.StateIdle {
		t.Fatalf("punch state did not revert: %s", state.Player.State)
	}
}

func TestFistsCannotFire(t *testing.T) {
	eng, state := newTestEngine(Deps{})

	fire(eng)

	for _, e := range state.Entities {
		if e.Kind == entity.KindProjectile {
			t.Fatalf("unarmed player spawned a projectile")
		}
	}
}

func TestFirstShotRaisesWantedExactlyOnce(t *testing.T) {
	eng, state := newTestEngine(Deps{})
	state.Player.SetWeapon("pistol")
	ctx := context.Background()

	fire(eng)
	if state.WantedLevel != 1 {
		t.Fatalf("wanted after first shot = %d, want 1", state.WantedLevel)
	}

	eng.Step(ctx, rangedCooldownSeconds+0.1)
	fire(eng)
	if state.WantedLevel != 1 {
		t.Fatalf("second shot escalated wanted to %d", state.WantedLevel)
	}
}

func TestRangedCooldown(t *testing.T) {
	eng, state := newTestEngine(Deps{})
	state.Player.SetWeapon("pistol")

	fire(eng)
	fire(eng)

	count := 0
	for _, e := range state.Entities {
		if e.Kind == entity.KindProjectile {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("projectiles spawned = %d, want 1 inside cooldown", count)
	}
}

func TestProjectileDamagesAndDespawns(t *testing.T) {
	player := newTestPlayer()
	npc := newTestNPC("civilian-1", entity.KindCivilian, player.Pos.Add(geom.Vec3{Z: 6}))
	eng, state := newTestEngine(Deps{}, npc)
	state.Player.SetWeapon("pistol")
	ctx := context.Background()

	fire(eng)
	for i := 0; i < 20; i++ {
		eng.Step(ctx, 0.02)
	}

	if npc.Health != npc.MaxHealth-projectileDamage {
		t.Fatalf("target health = %v, want %v", npc.Health, npc.MaxHealth-projectileDamage)
	}
	for _, e := range state.Entities {
		if e.Kind == entity.KindProjectile {
			t.Fatalf("projectile survived its impact")
		}
	}
}

func TestProjectileExpiresAtMaxRange(t *testing.T) {
	eng, state := newTestEngine(Deps{})
	state.Player.SetWeapon("pistol")
	ctx := context.Background()

	fire(eng)
	// 40 u/s needs 4 s to cross the 160 u range cap.
	for i := 0; i < 50; i++ {
		eng.Step(ctx, 0.1)
	}

	for _, e := range state.Entities {
		if e.Kind == entity.KindProjectile {
			t.Fatalf("projectile outlived its range cap at %+v", e.Pos)
		}
	}
}

func TestDefeatMatchesHealthZero(t *testing.T) {
	player := newTestPlayer()
	npc := newTestNPC("civilian-1", entity.KindCivilian, player.Pos.Add(geom.Vec3{Z: 1.5}))
	npc.Health = 5
	eng, _ := newTestEngine(Deps{}, npc)

	attack(eng)

	if npc.Health != 0 {
		t.Fatalf("lethal hit left health at %v", npc.Health)
	}
	if npc.State != entity.StateDead {
		t.Fatalf("entity at zero health is not dead: %s", npc.State)
	}
	if npc.Alive() {
		t.Fatalf("dead entity still reports alive")
	}
}

func TestGangMemberDefeatPaysBounty(t *testing.T) {
	player := newTestPlayer()
	npc := newTestNPC("gang-1", entity.KindGangMember, player.Pos.Add(geom.Vec3{Z: 1.5}))
	npc.Health = 5
	var updates []Update
	eng, state := newTestEngine(Deps{OnUpdate: func(u Update) { updates = append(updates, u) }}, npc)

	attack(eng)

	if state.Money != gangBountyMoney {
		t.Fatalf("money = %d, want %d", state.Money, gangBountyMoney)
	}
	var paid bool
	for _, u := range updates {
		if u.Kind == UpdateMoney && u.Money == gangBountyMoney {
			paid = true
		}
	}
	if !paid {
		t.Fatalf("no money update pushed: %+v", updates)
	}

	// Civilians carry no bounty.
	civ := newTestNPC("civilian-1", entity.KindCivilian, player.Pos.Add(geom.Vec3{Z: 1.5}))
	civ.Health = 5
	eng2, state2 := newTestEngine(Deps{}, civ)
	attack(eng2)
	if state2.Money != 0 {
		t.Fatalf("civilian defeat paid %d", state2.Money)
	}
}
