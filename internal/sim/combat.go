package sim

import (
	"context"
	"math"

	"gridlock/server/internal/dialogue"
	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
	combatlog "gridlock/server/logging/combat"
)

// meleeAttack resolves an unarmed swing: cooldown gate, rolling combo
// multiplier, forward-cone scan, damage plus knockback to the first
// qualifying target in entity order.
func (e *Engine) meleeAttack(ctx context.Context) {
	p := e.state.Player
	if !p.Alive() {
		return
	}
	switch p.State {
	case entity.StateIdle, entity.StateWalking, entity.StatePunching:
	default:
		return
	}
	if e.simTime-e.lastMelee < meleeCooldownSeconds {
		return
	}
	if e.simTime-e.lastMelee > comboResetSeconds {
		e.combo = 0
	}
	combo := e.combo
	multiplier := 1 + comboDamageStep*float64(combo)
	damage := meleeBaseDamage * multiplier
	e.combo = (e.combo + 1) % comboSteps
	e.lastMelee = e.simTime

	p.State = entity.StatePunching
	e.punchGen++
	gen := e.punchGen
	e.schedule(punchStateSeconds, func(context.Context) {
		if gen != e.punchGen {
			return
		}
		if e.state.Player.State == entity.StatePunching {
			e.state.Player.State = entity.StateIdle
		}
	})

	forward := geom.Vec3{X: math.Sin(p.Rotation.Y), Z: math.Cos(p.Rotation.Y)}
	for _, t := range e.state.Entities {
		if t == nil || !t.Alive() {
			continue
		}
		switch t.Kind {
		case entity.KindProjectile, entity.KindBuilding, entity.KindProp, entity.KindWeaponItem:
			continue
		}
		delta := geom.Vec3{X: t.Pos.X - p.Pos.X, Z: t.Pos.Z - p.Pos.Z}
		if delta.LengthSq() > meleeRange*meleeRange {
			continue
		}
		dir := delta.Normalized()
		if dir.LengthSq() == 0 {
			dir = forward
		}
		if dir.Dot(forward) < meleeConeCos {
			continue
		}

		killed := t.ApplyHealthDelta(-damage)
		t.Vel = t.Vel.Add(dir.Scale(meleeKnockback * multiplier))
		combatlog.MeleeHit(ctx, e.deps.Publisher, e.tick, e.ref(p), e.ref(t), combatlog.MeleeHitPayload{
			Weapon:     entity.FistWeapon,
			Damage:     damage,
			Combo:      combo,
			Multiplier: multiplier,
		})
		e.deps.Metrics.Add("melee_hits", 1)
		if t.Kind == entity.KindCivilian || t.Kind == entity.KindPolice {
			e.raiseWanted(ctx, e.state.WantedLevel+1)
		}
		if killed {
			e.handleDefeat(ctx, t, "melee")
		}
		// First qualifying target only.
		return
	}
}

// rangedAttack spawns a projectile along the shooter's heading. Requires a
// real weapon; fists never fire. Works on foot and from the driver seat.
func (e *Engine) rangedAttack(ctx context.Context) {
	p := e.state.Player
	if !p.Alive() || p.State == entity.StateEnteringVehicle || p.State == entity.StateExitingVehicle {
		return
	}
	weapon := p.EquippedWeapon()
	if weapon == entity.FistWeapon {
		return
	}
	if e.simTime-e.lastRanged < rangedCooldownSeconds {
		return
	}
	e.lastRanged = e.simTime

	heading := p.Rotation.Y
	dir := geom.Vec3{X: math.Sin(heading), Z: math.Cos(heading)}
	e.projectileSeq++
	proj := entity.New(
		entity.FormatID(entity.KindProjectile, e.projectileSeq),
		entity.KindProjectile,
		geom.Vec3{
			X: p.Pos.X + dir.X*projectileOffset,
			Y: p.Pos.Y - p.Half().Y + projectileHeight,
			Z: p.Pos.Z + dir.Z*projectileOffset,
		},
		geom.Vec3{X: 0.2, Y: 0.2, Z: 0.2},
		1,
	)
	proj.Vel = dir.Scale(projectileSpeed)
	proj.Rotation.Y = heading
	e.state.Add(proj)

	if e.state.WantedLevel == 0 {
		e.raiseWanted(ctx, 1)
	}
	combatlog.ShotFired(ctx, e.deps.Publisher, e.tick, e.ref(p), combatlog.ShotFiredPayload{
		Weapon:      weapon,
		Heading:     heading,
		WantedLevel: e.state.WantedLevel,
	})
	e.deps.Metrics.Add("shots_fired", 1)
}

// startTalk fires an asynchronous dialogue request for the nearest NPC. The
// placeholder shows immediately; the generated line re-enters the loop as a
// command and is dropped if a newer conversation superseded it.
func (e *Engine) startTalk() {
	p := e.state.Player
	if !p.Alive() || p.State == entity.StateDriving {
		return
	}

	var npc *entity.Entity
	bestDist := talkRange * talkRange
	for _, t := range e.state.Entities {
		if t == nil || !t.IsCharacter() || t.Kind == entity.KindPlayer || !t.Alive() {
			continue
		}
		d := p.Pos.HorizontalDistSq(t.Pos)
		if d <= bestDist {
			npc = t
			bestDist = d
		}
	}
	if npc == nil {
		return
	}

	e.dialogueGen++
	gen := e.dialogueGen
	e.state.Dialogue = dialogue.FallbackLine
	e.deps.OnUpdate.push(Update{Kind: UpdateDialogue, Dialogue: e.state.Dialogue})

	role := npcRole(npc)
	situation := e.situation()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.DialogueTimeout)
		defer cancel()
		line, err := e.deps.Dialogue.NPCDialogue(ctx, role, situation, "approached on the street")
		if err != nil {
			e.deps.Logger.Printf("dialogue generation failed: %v", err)
		}
		e.Submit(Command{Type: CommandSetDialogue, Dialogue: line, Generation: gen})
	}()
}

func npcRole(npc *entity.Entity) string {
	switch npc.Kind {
	case entity.KindPolice:
		return "police officer"
	case entity.KindGangMember:
		return string(npc.Faction) + " gang member"
	default:
		return "civilian"
	}
}

func (e *Engine) situation() string {
	when := "daytime"
	if e.state.IsNight() {
		when = "night"
	}
	if e.state.WantedLevel > 0 {
		return when + ", the player is wanted by the police"
	}
	return when + ", a quiet street"
}

// applyDialogue merges an async dialogue completion, ignoring stale results.
func (e *Engine) applyDialogue(line string, gen uint64) {
	if gen != e.dialogueGen {
		return
	}
	e.state.Dialogue = line
	e.deps.OnUpdate.push(Update{Kind: UpdateDialogue, Dialogue: line})

	e.schedule(dialogueClearSeconds, func(context.Context) {
		if gen != e.dialogueGen || e.state.Dialogue != line {
			return
		}
		e.state.Dialogue = ""
		e.deps.OnUpdate.push(Update{Kind: UpdateDialogue})
	})
}

// requestMission fires an asynchronous mission generation request.
func (e *Engine) requestMission() {
	e.missionGen++
	gen := e.missionGen
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.DialogueTimeout)
		defer cancel()
		m, err := e.deps.Dialogue.Mission(ctx)
		if err != nil {
			e.deps.Logger.Printf("mission generation failed: %v", err)
		}
		e.Submit(Command{Type: CommandSetMission, Mission: m, Generation: gen})
	}()
}

// applyMission merges an async mission completion, ignoring stale results.
func (e *Engine) applyMission(m dialogue.Mission, gen uint64) {
	if gen != e.missionGen {
		return
	}
	e.state.Mission = m
	e.deps.OnUpdate.push(Update{Kind: UpdateMission, Mission: m})
}
