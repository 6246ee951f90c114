package net

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"gridlock/server/internal/sim"
	"gridlock/server/internal/telemetry"
	"gridlock/server/internal/worldgen"
)

const (
	writeWait         = 5 * time.Second
	heartbeatMaxSkew  = 5 * time.Second
	readLimitBytes    = 4 << 10
	unknownClientCode = websocket.ClosePolicyViolation
)

// Hub bridges websocket clients and the simulation loop. Inputs go in via
// the loop's throttled queue; authoritative snapshots and lossy UI updates
// come back out to every subscriber after each tick.
type Hub struct {
	loop     *sim.Loop
	engine   *sim.Engine
	worldMap *worldgen.Map
	playerID string

	logger  telemetry.Logger
	metrics telemetry.Metrics

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[string]*client
}

// client is one joined session; conn is nil until the websocket attaches.
type client struct {
	id string

	writeMu sync.Mutex
	conn    *websocket.Conn

	lastHeartbeat time.Time
	lastRTT       time.Duration
}

// NewHub wires the transport to an already-running session.
func NewHub(loop *sim.Loop, engine *sim.Engine, worldMap *worldgen.Map, playerID string, logger telemetry.Logger, metrics telemetry.Metrics) *Hub {
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics{}
	}
	return &Hub{
		loop:     loop,
		engine:   engine,
		worldMap: worldMap,
		playerID: playerID,
		logger:   logger,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// HandleJoin registers a client and returns the static map plus the first
// authoritative snapshot.
func (h *Hub) HandleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := fmt.Sprintf("client-%d", h.nextID.Add(1))
	c := &client{id: id, lastHeartbeat: time.Now()}

	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	h.metrics.Add("clients_joined", 1)
	h.logger.Printf("client %s joined", id)

	resp := joinResponse{
		Ver:      ProtocolVersion,
		ClientID: id,
		PlayerID: h.playerID,
		Map:      newMapPayload(h.worldMap),
		Snapshot: h.engine.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Printf("failed to encode join response for %s: %v", id, err)
	}
}

// HandleWS upgrades the connection and runs the session read loop.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	h.mu.Lock()
	c, ok := h.clients[id]
	h.mu.Unlock()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade failed: %v", err)
		return
	}
	if !ok {
		msg := websocket.FormatCloseMessage(unknownClientCode, "unknown client")
		conn.WriteMessage(websocket.CloseMessage, msg)
		conn.Close()
		return
	}

	h.attach(c, conn)
	h.readLoop(c, conn)
}

func (h *Hub) attach(c *client, conn *websocket.Conn) {
	c.writeMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	c.writeMu.Unlock()
	conn.SetReadLimit(readLimitBytes)
}

func (h *Hub) readLoop(c *client, conn *websocket.Conn) {
	defer h.Disconnect(c.id)
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", c.id, err)
			continue
		}
		h.handleMessage(c, msg)
	}
}

func (h *Hub) handleMessage(c *client, msg clientMessage) {
	switch msg.Type {
	case "input":
		h.enqueue(c, sim.Command{
			Type:    sim.CommandMove,
			ActorID: c.id,
			MoveX:   msg.MoveX,
			MoveZ:   msg.MoveZ,
		})
	case "pointer":
		h.enqueue(c, sim.Command{
			Type:      sim.CommandPointer,
			ActorID:   c.id,
			PointerDX: msg.DX,
			PointerDY: msg.DY,
		})
	case "action":
		cmd, ok := actionCommand(msg.Action, c.id)
		if !ok {
			h.logger.Printf("unknown action %q from %s", msg.Action, c.id)
			return
		}
		h.enqueue(c, cmd)
	case "heartbeat":
		h.handleHeartbeat(c, msg.SentAt)
	default:
		h.logger.Printf("unknown message type %q from %s", msg.Type, c.id)
	}
}

func actionCommand(action, actorID string) (sim.Command, bool) {
	cmd := sim.Command{ActorID: actorID}
	switch action {
	case ActionAttack:
		cmd.Type = sim.CommandAttack
	case ActionFire:
		cmd.Type = sim.CommandFire
	case ActionToggleVehicle:
		cmd.Type = sim.CommandToggleVehicle
	case ActionTalk:
		cmd.Type = sim.CommandTalk
	case ActionHorn:
		cmd.Type = sim.CommandHorn
	case ActionCycleView:
		cmd.Type = sim.CommandCycleView
	case ActionPause:
		cmd.Type = sim.CommandSetPaused
		cmd.Paused = true
	case ActionResume:
		cmd.Type = sim.CommandSetPaused
	case ActionNewMission:
		cmd.Type = sim.CommandNewMission
	default:
		return sim.Command{}, false
	}
	return cmd, true
}

func (h *Hub) enqueue(c *client, cmd sim.Command) {
	ok, reason := h.loop.Enqueue(cmd)
	if ok {
		return
	}
	h.metrics.Add("commands_rejected", 1)
	retry := reason == sim.CommandRejectQueueLimit
	h.send(c, rejectMessage{Ver: ProtocolVersion, Type: "commandReject", Reason: reason, Retry: retry})
}

func (h *Hub) handleHeartbeat(c *client, sentAt int64) {
	now := time.Now()
	h.mu.Lock()
	c.lastHeartbeat = now
	if sentAt > 0 {
		clientTime := time.UnixMilli(sentAt)
		if clientTime.Before(now.Add(heartbeatMaxSkew)) {
			rtt := now.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			c.lastRTT = rtt
		}
	}
	rtt := c.lastRTT
	h.mu.Unlock()

	h.send(c, heartbeatMessage{
		Ver:        ProtocolVersion,
		Type:       "heartbeat",
		ServerTime: now.UnixMilli(),
		ClientTime: sentAt,
		RTTMillis:  rtt.Milliseconds(),
	})
}

// Disconnect drops a client and closes its connection if attached.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	c.writeMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.writeMu.Unlock()
	h.metrics.Add("clients_disconnected", 1)
	h.logger.Printf("client %s disconnected", id)
}

// BroadcastSnapshot pushes the post-tick state to every subscriber. Intended
// as the loop's AfterStep hook.
func (h *Hub) BroadcastSnapshot(snap sim.Snapshot) {
	msg := stateMessage{
		Ver:        ProtocolVersion,
		Type:       "state",
		Snapshot:   snap,
		ServerTime: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal state message: %v", err)
		return
	}
	h.broadcast(data)
	h.metrics.Add("snapshots_broadcast", 1)
}

// PushUpdate forwards a lossy UI event to every subscriber. Intended as the
// engine's OnUpdate hook; send failures drop the client, never block.
func (h *Hub) PushUpdate(u sim.Update) {
	data, err := json.Marshal(updateMessage{Ver: ProtocolVersion, Type: "update", Update: u})
	if err != nil {
		h.logger.Printf("failed to marshal update message: %v", err)
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if !h.writeRaw(c, data) {
			h.Disconnect(c.id)
		}
	}
}

func (h *Hub) send(c *client, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Printf("failed to marshal message for %s: %v", c.id, err)
		return
	}
	if !h.writeRaw(c, data) {
		h.Disconnect(c.id)
	}
}

func (h *Hub) writeRaw(c *client, data []byte) bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return true
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Printf("failed to send to %s: %v", c.id, err)
		return false
	}
	return true
}

// HandleHealth is a liveness probe.
func (h *Hub) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// HandleDiagnostics reports per-client heartbeat state and the current tick.
func (h *Hub) HandleDiagnostics(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	clients := make([]diagnosticsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, diagnosticsClient{
			ID:            c.id,
			LastHeartbeat: c.lastHeartbeat.UnixMilli(),
			RTTMillis:     c.lastRTT.Milliseconds(),
		})
	}
	h.mu.Unlock()

	resp := diagnosticsResponse{
		Ver:     ProtocolVersion,
		Tick:    h.engine.Snapshot().Tick,
		Clients: clients,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Printf("failed to encode diagnostics: %v", err)
	}
}

// Routes registers the hub's HTTP surface on the provided mux.
func (h *Hub) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/join", h.HandleJoin)
	mux.HandleFunc("/ws", h.HandleWS)
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc("/diagnostics", h.HandleDiagnostics)
}
