package sim

import "gridlock/server/internal/dialogue"

// UpdateKind identifies the discrete UI event carried by an Update.
type UpdateKind string

const (
	UpdateHealth   UpdateKind = "health"
	UpdateMoney    UpdateKind = "money"
	UpdateWanted   UpdateKind = "wanted"
	UpdateDialogue UpdateKind = "dialogue"
	UpdateMission  UpdateKind = "mission"
	UpdateTime     UpdateKind = "time"
	UpdatePickup   UpdateKind = "pickup"
)

// Update is the lossy one-way UI notification pushed on discrete state
// changes. It is not the authoritative state; the snapshot is.
type Update struct {
	Kind        UpdateKind       `json:"kind"`
	Health      float64          `json:"health,omitempty"`
	MaxHealth   float64          `json:"maxHealth,omitempty"`
	Money       int              `json:"money,omitempty"`
	WantedLevel int              `json:"wantedLevel,omitempty"`
	Dialogue    string           `json:"dialogue,omitempty"`
	Mission     dialogue.Mission `json:"mission,omitempty"`
	TimeOfDay   float64          `json:"timeOfDay,omitempty"`
	Night       bool             `json:"night,omitempty"`
	Weapon      string           `json:"weapon,omitempty"`
}

// UpdateFunc receives UI updates. A nil func drops them.
type UpdateFunc func(Update)

func (f UpdateFunc) push(update Update) {
	if f == nil {
		return
	}
	f(update)
}
