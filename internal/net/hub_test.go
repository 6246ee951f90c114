package net

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
	"gridlock/server/internal/sim"
	"gridlock/server/internal/worldgen"
)

func testWorld() (*sim.Engine, *sim.Loop, *worldgen.Map, *entity.Entity) {
	const size = 16
	tiles := make([][]worldgen.TileKind, size)
	elevs := make([][]float64, size)
	for z := range tiles {
		tiles[z] = make([]worldgen.TileKind, size)
		elevs[z] = make([]float64, size)
		for x := range tiles[z] {
			tiles[z][x] = worldgen.TileGrass
		}
	}
	m := &worldgen.Map{Width: size, Height: size, TileSize: 4, Tiles: tiles, Elevations: elevs}

	player := entity.New("player-1", entity.KindPlayer,
		geom.Vec3{X: 32, Y: 0.9, Z: 32}, geom.Vec3{X: 0.9, Y: 1.8, Z: 0.9}, 100)
	state := sim.NewState(player, nil, m)
	engine := sim.NewEngine(sim.Config{SpawnPos: player.Pos}, state, sim.Deps{})
	loop := sim.NewLoop(engine, sim.LoopConfig{}, sim.LoopHooks{}, sim.LoopDeps{})
	return engine, loop, m, player
}

func newTestHub() (*Hub, *sim.Loop) {
	engine, loop, m, player := testWorld()
	hub := NewHub(loop, engine, m, player.ID, nil, nil)
	return hub, loop
}

func serve(hub *Hub) *httptest.Server {
	mux := http.NewServeMux()
	hub.Routes(mux)
	return httptest.NewServer(mux)
}

func join(t *testing.T, server *httptest.Server) joinResponse {
	t.Helper()
	resp, err := http.Post(server.URL+"/join", "application/json", nil)
	if err != nil {
		t.Fatalf("join request failed: %v", err)
	}
	defer resp.Body.Close()
	var joined joinResponse
	if err := json.NewDecoder(resp.Body).Decode(&joined); err != nil {
		t.Fatalf("decode join response: %v", err)
	}
	return joined
}

func dial(t *testing.T, server *httptest.Server, clientID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?id=" + clientID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	return conn
}

func TestJoinReturnsMapAndSnapshot(t *testing.T) {
	hub, _ := newTestHub()
	server := serve(hub)
	defer server.Close()

	joined := join(t, server)

	if joined.ClientID == "" {
		t.Fatalf("join response missing client id")
	}
	if joined.PlayerID != "player-1" {
		t.Fatalf("player id = %q", joined.PlayerID)
	}
	if joined.Map.Width != 16 || joined.Map.TileSize != 4 {
		t.Fatalf("map payload wrong: %dx%d tile %v", joined.Map.Width, joined.Map.Height, joined.Map.TileSize)
	}
	if joined.Snapshot.Player.ID != "player-1" {
		t.Fatalf("snapshot player = %q", joined.Snapshot.Player.ID)
	}
}

func TestJoinRejectsGet(t *testing.T) {
	hub, _ := newTestHub()
	server := serve(hub)
	defer server.Close()

	resp, err := http.Get(server.URL + "/join")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestInputMessageReachesLoop(t *testing.T) {
	hub, loop := newTestHub()
	server := serve(hub)
	defer server.Close()

	joined := join(t, server)
	conn := dial(t, server, joined.ClientID)
	defer conn.Close()

	msg := `{"type":"input","moveX":0,"moveZ":1}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write input: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for loop.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("input never reached the loop queue")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHeartbeatRoundTrip(t *testing.T) {
	hub, _ := newTestHub()
	server := serve(hub)
	defer server.Close()

	joined := join(t, server)
	conn := dial(t, server, joined.ClientID)
	defer conn.Close()

	sentAt := time.Now().UnixMilli()
	payload, _ := json.Marshal(map[string]any{"type": "heartbeat", "sentAt": sentAt})
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ack heartbeatMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read heartbeat ack: %v", err)
	}
	if ack.Type != "heartbeat" || ack.ClientTime != sentAt {
		t.Fatalf("unexpected ack: %+v", ack)
	}
}

func TestUnknownClientIsRefused(t *testing.T) {
	hub, _ := newTestHub()
	server := serve(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?id=nope"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed before close: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("unknown client was not closed")
	}
}

func TestBroadcastSnapshotReachesSubscriber(t *testing.T) {
	hub, _ := newTestHub()
	server := serve(hub)
	defer server.Close()

	joined := join(t, server)
	conn := dial(t, server, joined.ClientID)
	defer conn.Close()

	hub.BroadcastSnapshot(sim.Snapshot{Tick: 42})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var state stateMessage
	if err := conn.ReadJSON(&state); err != nil {
		t.Fatalf("read state: %v", err)
	}
	if state.Type != "state" || state.Snapshot.Tick != 42 {
		t.Fatalf("unexpected state message: type=%q tick=%d", state.Type, state.Snapshot.Tick)
	}
}

func TestPushUpdateReachesSubscriber(t *testing.T) {
	hub, _ := newTestHub()
	server := serve(hub)
	defer server.Close()

	joined := join(t, server)
	conn := dial(t, server, joined.ClientID)
	defer conn.Close()

	hub.PushUpdate(sim.Update{Kind: sim.UpdateWanted, WantedLevel: 3})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update updateMessage
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if update.Update.Kind != sim.UpdateWanted || update.Update.WantedLevel != 3 {
		t.Fatalf("unexpected update: %+v", update.Update)
	}
}

func TestDiagnosticsListsClients(t *testing.T) {
	hub, _ := newTestHub()
	server := serve(hub)
	defer server.Close()

	joined := join(t, server)

	resp, err := http.Get(server.URL + "/diagnostics")
	if err != nil {
		t.Fatalf("diagnostics request failed: %v", err)
	}
	defer resp.Body.Close()
	var diag diagnosticsResponse
	if err := json.NewDecoder(resp.Body).Decode(&diag); err != nil {
		t.Fatalf("decode diagnostics: %v", err)
	}
	if len(diag.Clients) != 1 || diag.Clients[0].ID != joined.ClientID {
		t.Fatalf("diagnostics clients = %+v", diag.Clients)
	}
}

func TestActionCommandMapping(t *testing.T) {
	cases := []struct {
		action string
		want   sim.CommandType
	}{
		{ActionAttack, sim.CommandAttack},
		{ActionFire, sim.CommandFire},
		{ActionToggleVehicle, sim.CommandToggleVehicle},
		{ActionTalk, sim.CommandTalk},
		{ActionHorn, sim.CommandHorn},
		{ActionCycleView, sim.CommandCycleView},
		{ActionNewMission, sim.CommandNewMission},
	}
	for _, tc := range cases {
		cmd, ok := actionCommand(tc.action, "client-1")
		if !ok || cmd.Type != tc.want {
			t.Fatalf("action %q mapped to %q ok=%v", tc.action, cmd.Type, ok)
		}
	}

	pause, ok := actionCommand(ActionPause, "client-1")
	if !ok || pause.Type != sim.CommandSetPaused || !pause.Paused {
		t.Fatalf("pause mapping wrong: %+v", pause)
	}
	resume, ok := actionCommand(ActionResume, "client-1")
	if !ok || resume.Type != sim.CommandSetPaused || resume.Paused {
		t.Fatalf("resume mapping wrong: %+v", resume)
	}
	if _, ok := actionCommand("teleport", "client-1"); ok {
		t.Fatalf("unknown action accepted")
	}
}
