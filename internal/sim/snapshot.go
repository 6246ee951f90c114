package sim

import (
	"gridlock/server/internal/dialogue"
	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
)

// CameraPose mirrors the follow camera for the render layer.
type CameraPose struct {
	Pos      geom.Vec3 `json:"pos"`
	LookAt   geom.Vec3 `json:"lookAt"`
	Yaw      float64   `json:"yaw"`
	Distance float64   `json:"distance"`
}

// Snapshot is the full authoritative state exposed to non-simulation callers.
// Entities are copied by value so readers never alias live simulation state.
type Snapshot struct {
	Tick        uint64           `json:"tick"`
	TimeOfDay   float64          `json:"timeOfDay"`
	Night       bool             `json:"night"`
	Money       int              `json:"money"`
	WantedLevel int              `json:"wantedLevel"`
	Dialogue    string           `json:"dialogue,omitempty"`
	Mission     dialogue.Mission `json:"mission"`
	Paused      bool             `json:"paused,omitempty"`
	Player      entity.Entity    `json:"player"`
	Entities    []entity.Entity  `json:"entities"`
	Camera      CameraPose       `json:"camera"`
}

// Snapshot captures the current state under the engine lock.
func (e *Engine) Snapshot() Snapshot {
	if e == nil || e.state == nil {
		return Snapshot{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	snap := Snapshot{
		Tick:        e.tick,
		TimeOfDay:   s.TimeOfDay,
		Night:       s.IsNight(),
		Money:       s.Money,
		WantedLevel: s.WantedLevel,
		Dialogue:    s.Dialogue,
		Mission:     s.Mission,
		Paused:      s.Paused,
		Entities:    make([]entity.Entity, 0, len(s.Entities)),
	}
	if s.Player != nil {
		snap.Player = cloneEntity(s.Player)
	}
	for _, ent := range s.Entities {
		if ent == nil {
			continue
		}
		snap.Entities = append(snap.Entities, cloneEntity(ent))
	}
	pos, lookAt := e.camera.Pose()
	snap.Camera = CameraPose{
		Pos:      pos,
		LookAt:   lookAt,
		Yaw:      e.camera.Yaw(),
		Distance: e.camera.Distance(),
	}
	return snap
}

func cloneEntity(src *entity.Entity) entity.Entity {
	cloned := *src
	if len(src.Inventory) > 0 {
		cloned.Inventory = append([]string(nil), src.Inventory...)
	}
	return cloned
}
