package entity

import (
	"fmt"

	"gridlock/server/internal/geom"
)

// Kind is the closed set of simulated object variants. Every subsystem
// branches on it; a new kind must be handled at each switch site.
type Kind string

const (
	KindPlayer     Kind = "player"
	KindCivilian   Kind = "civilian"
	KindGangMember Kind = "gang_member"
	KindPolice     Kind = "police"
	KindVehicle    Kind = "vehicle"
	KindBuilding   Kind = "building"
	KindWeaponItem Kind = "item_weapon"
	KindProjectile Kind = "projectile"
	KindProp       Kind = "prop"
)

// State is the small per-entity state machine.
type State string

const (
	StateIdle            State = "idle"
	StateWalking         State = "walking"
	StateDriving         State = "driving"
	StateDead            State = "dead"
	StateEnteringVehicle State = "entering_vehicle"
	StateExitingVehicle  State = "exiting_vehicle"
	StatePunching        State = "punching"
)

// Faction tags NPCs for presentation and combat-faction checks.
type Faction string

const (
	FactionNone     Faction = ""
	FactionCivilian Faction = "civilian"
	FactionVipers   Faction = "vipers"
	FactionKings    Faction = "kings"
	FactionPolice   Faction = "police"
)

// IsGang reports whether the faction is one of the street gangs.
func (f Faction) IsGang() bool {
	return f == FactionVipers || f == FactionKings
}

// FistWeapon is the implied weapon when the inventory is empty.
const FistWeapon = "fist"

// Entity is the universal simulated object. Characters, vehicles, buildings,
// props, and projectiles all share this schema; Kind selects the behavior.
type Entity struct {
	ID   string `json:"id"`
	Kind Kind   `json:"type"`

	Pos      geom.Vec3 `json:"pos"`
	Vel      geom.Vec3 `json:"vel"`
	Rotation geom.Vec3 `json:"rotation"` // Euler angles; Y is the yaw heading

	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`

	// Size holds full bounding-box extents (width, height, depth). Half()
	// derives the half-extents used by collision queries.
	Size geom.Vec3 `json:"size"`

	State State `json:"state"`

	// VehicleID is a weak back-reference: on a character it names the
	// occupied vehicle, on a vehicle it names the driver. Maintained only
	// through Link/Unlink so both sides stay consistent.
	VehicleID string `json:"vehicleId,omitempty"`

	// Transient ingress/egress interpolation targets; cleared on completion.
	TargetEntityID string    `json:"targetEntityId,omitempty"`
	TargetPos      geom.Vec3 `json:"targetPos"`
	TargetSet      bool      `json:"targetSet"`

	// Inventory is the ordered weapon list; index 0 is equipped.
	Inventory []string `json:"inventory,omitempty"`

	// Presentation-only classification tags.
	Faction      Faction `json:"faction,omitempty"`
	PropKind     string  `json:"propType,omitempty"`
	BuildingKind string  `json:"buildingType,omitempty"`
	Accessory    string  `json:"accessory,omitempty"`
	Color        string  `json:"color,omitempty"`
}

// New constructs an entity with health clamped into [0, maxHealth] and an
// idle starting state.
func New(id string, kind Kind, pos geom.Vec3, size geom.Vec3, maxHealth float64) *Entity {
	health := geom.Clamp(maxHealth, 0, maxHealth)
	return &Entity{
		ID:        id,
		Kind:      kind,
		Pos:       pos,
		Size:      size,
		Health:    health,
		MaxHealth: maxHealth,
		State:     StateIdle,
	}
}

// FormatID renders the canonical id for a generated entity.
func FormatID(kind Kind, n uint64) string {
	return fmt.Sprintf("%s-%d", kind, n)
}

// Alive reports whether the entity still participates in collision and
// combat targeting.
func (e *Entity) Alive() bool {
	return e != nil && e.State != StateDead
}

// IsCharacter reports whether the entity is a walking actor (player or NPC).
func (e *Entity) IsCharacter() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindPlayer, KindCivilian, KindGangMember, KindPolice:
		return true
	case KindVehicle, KindBuilding, KindWeaponItem, KindProjectile, KindProp:
		return false
	}
	return false
}

// Half returns the collision half-extents.
func (e *Entity) Half() geom.Vec3 {
	return e.Size.Scale(0.5)
}

// Bounds returns the entity's world-space bounding box.
func (e *Entity) Bounds() geom.AABB {
	return geom.AABBAround(e.Pos, e.Half())
}

// ApplyHealthDelta mutates health, clamping into [0, MaxHealth]. Reaching
// zero forces the dead state. Returns true when this call killed the entity.
func (e *Entity) ApplyHealthDelta(delta float64) bool {
	if e == nil || e.State == StateDead {
		return false
	}
	e.Health = geom.Clamp(e.Health+delta, 0, e.MaxHealth)
	if e.Health <= 0 {
		e.State = StateDead
		return true
	}
	return false
}

// EquippedWeapon returns inventory slot 0, or the fist when unarmed.
func (e *Entity) EquippedWeapon() string {
	if e == nil || len(e.Inventory) == 0 {
		return FistWeapon
	}
	return e.Inventory[0]
}

// SetWeapon replaces the whole inventory with a single equipped weapon.
func (e *Entity) SetWeapon(weapon string) {
	if e == nil {
		return
	}
	e.Inventory = []string{weapon}
}

// SetTarget stores a transient interpolation target.
func (e *Entity) SetTarget(pos geom.Vec3) {
	if e == nil {
		return
	}
	e.TargetPos = pos
	e.TargetSet = true
}

// ClearTarget drops the transient ingress/egress fields.
func (e *Entity) ClearTarget() {
	if e == nil {
		return
	}
	e.TargetEntityID = ""
	e.TargetPos = geom.Vec3{}
	e.TargetSet = false
}

// LinkVehicle establishes the reciprocal character/vehicle occupancy link.
// All transition code goes through this helper so the two VehicleID fields
// are always set together.
func LinkVehicle(character, vehicle *Entity) {
	if character == nil || vehicle == nil {
		return
	}
	character.VehicleID = vehicle.ID
	vehicle.VehicleID = character.ID
}

// UnlinkVehicle clears both sides of the occupancy link.
func UnlinkVehicle(character, vehicle *Entity) {
	if character != nil {
		character.VehicleID = ""
	}
	if vehicle != nil {
		vehicle.VehicleID = ""
	}
}
