package sim

import (
	"gridlock/server/internal/dialogue"
	"gridlock/server/internal/entity"
	"gridlock/server/internal/worldgen"
)

// State is the aggregate root for one game session. The engine is its only
// mutator during the frame; input handlers reach it through the command
// queue so the single-writer discipline holds even with OS threads.
type State struct {
	Player   *entity.Entity
	Entities []*entity.Entity
	Map      *worldgen.Map

	TimeOfDay   float64 // minutes, wraps at 1440
	Money       int
	WantedLevel int
	Dialogue    string
	Mission     dialogue.Mission
	Paused      bool

	byID map[string]*entity.Entity
}

// NewState indexes the player and the generated population. Entity order is
// insertion order; iteration-order tie breaks (melee target selection) are
// deterministic because of it.
func NewState(player *entity.Entity, entities []*entity.Entity, m *worldgen.Map) *State {
	s := &State{
		Player:   player,
		Entities: make([]*entity.Entity, 0, len(entities)),
		Map:      m,
		byID:     make(map[string]*entity.Entity, len(entities)+1),
	}
	if player != nil {
		s.byID[player.ID] = player
	}
	for _, e := range entities {
		s.Add(e)
	}
	return s
}

// Entity resolves an id to the player or any populated entity.
func (s *State) Entity(id string) (*entity.Entity, bool) {
	if s == nil || id == "" {
		return nil, false
	}
	e, ok := s.byID[id]
	return e, ok
}

// Add appends an entity to the live set.
func (s *State) Add(e *entity.Entity) {
	if s == nil || e == nil {
		return
	}
	s.Entities = append(s.Entities, e)
	s.byID[e.ID] = e
}

// Remove deletes an entity from the live set, preserving order.
func (s *State) Remove(id string) {
	if s == nil {
		return
	}
	delete(s.byID, id)
	for i, e := range s.Entities {
		if e.ID == id {
			s.Entities = append(s.Entities[:i], s.Entities[i+1:]...)
			return
		}
	}
}

// IsNight classifies the current time of day. Night spans [1260,1440) and
// [0,420) minutes.
func (s *State) IsNight() bool {
	if s == nil {
		return false
	}
	return s.TimeOfDay >= nightStart || s.TimeOfDay < nightEnd
}
