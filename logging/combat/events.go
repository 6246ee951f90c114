package combat

import (
	"context"

	"gridlock/server/logging"
)

const (
	// EventMeleeHit is emitted when a melee swing connects with a target.
	EventMeleeHit logging.EventType = "combat.melee_hit"
	// EventShotFired is emitted when a ranged weapon spawns a projectile.
	EventShotFired logging.EventType = "combat.shot_fired"
	// EventProjectileHit is emitted when a projectile damages a target.
	EventProjectileHit logging.EventType = "combat.projectile_hit"
	// EventDefeat is emitted when an entity's health reaches zero.
	EventDefeat logging.EventType = "combat.defeat"
)

// MeleeHitPayload captures the swing that connected.
type MeleeHitPayload struct {
	Weapon     string  `json:"weapon"`
	Damage     float64 `json:"damage"`
	Combo      int     `json:"combo"`
	Multiplier float64 `json:"multiplier"`
}

// ShotFiredPayload records the projectile launch parameters.
type ShotFiredPayload struct {
	Weapon      string  `json:"weapon"`
	Heading     float64 `json:"heading"`
	WantedLevel int     `json:"wantedLevel"`
}

// ProjectileHitPayload records the damage applied on impact.
type ProjectileHitPayload struct {
	Damage       float64 `json:"damage"`
	TargetHealth float64 `json:"targetHealth"`
}

// MeleeHit publishes a melee connection event.
func MeleeHit(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload MeleeHitPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMeleeHit,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// ShotFired publishes a ranged attack event.
func ShotFired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ShotFiredPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventShotFired,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// ProjectileHit publishes a projectile impact event.
func ProjectileHit(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload ProjectileHitPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventProjectileHit,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// Defeat publishes a defeat event for the eliminated entity.
func Defeat(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, cause string) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDefeat,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
	}
	if cause != "" {
		event = event.WithExtra("cause", cause)
	}
	pub.Publish(ctx, event)
}
