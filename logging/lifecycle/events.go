package lifecycle

import (
	"context"

	"gridlock/server/logging"
)

const (
	// EventWorldGenerated is emitted once the procedural world is built.
	EventWorldGenerated logging.EventType = "lifecycle.world_generated"
	// EventRespawn is emitted when the player respawns after death.
	EventRespawn logging.EventType = "lifecycle.respawn"
	// EventVehicleEnter is emitted when a character takes a driver seat.
	EventVehicleEnter logging.EventType = "lifecycle.vehicle_enter"
	// EventVehicleExit is emitted when a character leaves a vehicle.
	EventVehicleExit logging.EventType = "lifecycle.vehicle_exit"
	// EventDrowning is emitted when the player starts taking water damage.
	EventDrowning logging.EventType = "lifecycle.drowning"
	// EventWantedChanged is emitted when the wanted level moves.
	EventWantedChanged logging.EventType = "lifecycle.wanted_changed"
	// EventHorn is emitted when the driver sounds the horn.
	EventHorn logging.EventType = "lifecycle.horn"
)

// WorldGeneratedPayload summarises the generated world.
type WorldGeneratedPayload struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Entities int    `json:"entities"`
	Seed     string `json:"seed"`
}

// WorldGenerated publishes the world construction summary.
func WorldGenerated(ctx context.Context, pub logging.Publisher, payload WorldGeneratedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventWorldGenerated,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryWorld,
		Payload:  payload,
	})
}

// Respawn publishes a player respawn event.
func Respawn(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRespawn,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	})
}

// VehicleEnter publishes a seat-taken event.
func VehicleEnter(ctx context.Context, pub logging.Publisher, tick uint64, actor, vehicle logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventVehicleEnter,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{vehicle},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	})
}

// VehicleExit publishes a seat-left event.
func VehicleExit(ctx context.Context, pub logging.Publisher, tick uint64, actor, vehicle logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventVehicleExit,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{vehicle},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	})
}

// Drowning publishes a drowning-start event.
func Drowning(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDrowning,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryGameplay,
	})
}

// Horn publishes a horn honk from the occupied vehicle.
func Horn(ctx context.Context, pub logging.Publisher, tick uint64, actor, vehicle logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventHorn,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{vehicle},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
	})
}

// WantedChanged publishes the new wanted level.
func WantedChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, level int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventWantedChanged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	}.WithExtra("level", level))
}
