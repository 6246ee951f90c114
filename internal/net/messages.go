package net

import (
	"gridlock/server/internal/sim"
	"gridlock/server/internal/worldgen"
)

// ProtocolVersion is bumped on any wire-incompatible change.
const ProtocolVersion = 1

// Client actions carried by actionMessage.Action.
const (
	ActionAttack        = "attack"
	ActionFire          = "fire"
	ActionToggleVehicle = "toggleVehicle"
	ActionTalk          = "talk"
	ActionHorn          = "horn"
	ActionCycleView     = "cycleView"
	ActionPause         = "pause"
	ActionResume        = "resume"
	ActionNewMission    = "newMission"
)

// clientMessage is the single decode target for every inbound message type.
type clientMessage struct {
	Ver    int     `json:"ver,omitempty"`
	Type   string  `json:"type"`
	MoveX  float64 `json:"moveX"`
	MoveZ  float64 `json:"moveZ"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Action string  `json:"action,omitempty"`
	SentAt int64   `json:"sentAt,omitempty"`
}

// mapPayload mirrors the static world grid for the join response. Tiles and
// elevations never change during a session, so they are sent exactly once.
type mapPayload struct {
	Width      int                   `json:"width"`
	Height     int                   `json:"height"`
	TileSize   float64               `json:"tileSize"`
	Tiles      [][]worldgen.TileKind `json:"tiles"`
	Elevations [][]float64           `json:"elevations"`
}

func newMapPayload(m *worldgen.Map) mapPayload {
	if m == nil {
		return mapPayload{}
	}
	return mapPayload{
		Width:      m.Width,
		Height:     m.Height,
		TileSize:   m.TileSize,
		Tiles:      m.Tiles,
		Elevations: m.Elevations,
	}
}

type joinResponse struct {
	Ver      int          `json:"ver"`
	ClientID string       `json:"clientId"`
	PlayerID string       `json:"playerId"`
	Map      mapPayload   `json:"map"`
	Snapshot sim.Snapshot `json:"snapshot"`
}

type stateMessage struct {
	Ver        int          `json:"ver"`
	Type       string       `json:"type"`
	Snapshot   sim.Snapshot `json:"snapshot"`
	ServerTime int64        `json:"serverTime"`
}

type updateMessage struct {
	Ver    int        `json:"ver"`
	Type   string     `json:"type"`
	Update sim.Update `json:"update"`
}

type heartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

type rejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
	Retry  bool   `json:"retry,omitempty"`
}

type diagnosticsClient struct {
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rtt"`
}

type diagnosticsResponse struct {
	Ver     int                 `json:"ver"`
	Tick    uint64              `json:"tick"`
	Clients []diagnosticsClient `json:"clients"`
}
