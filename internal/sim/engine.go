package sim

import (
	"context"
	"sync"
	"time"

	"gridlock/server/internal/camera"
	"gridlock/server/internal/dialogue"
	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
	"gridlock/server/internal/telemetry"
	"gridlock/server/logging"
	combatlog "gridlock/server/logging/combat"
	"gridlock/server/logging/lifecycle"
)

// Deps wires the engine to its collaborators. Zero values are replaced with
// no-op implementations so tests can construct engines with partial wiring.
type Deps struct {
	Publisher logging.Publisher
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Dialogue  dialogue.Generator
	OnUpdate  UpdateFunc
}

func (d Deps) normalized() Deps {
	if d.Publisher == nil {
		d.Publisher = logging.NopPublisher()
	}
	if d.Logger == nil {
		d.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if d.Metrics == nil {
		d.Metrics = telemetry.NopMetrics{}
	}
	if d.Dialogue == nil {
		d.Dialogue = dialogue.Static{}
	}
	return d
}

// Config carries the per-session engine settings.
type Config struct {
	SpawnPos          geom.Vec3
	Camera            camera.Config
	CommandBufferSize int
	DialogueTimeout   time.Duration
}

func (c Config) normalized() Config {
	if c.CommandBufferSize <= 0 {
		c.CommandBufferSize = 256
	}
	if c.DialogueTimeout <= 0 {
		c.DialogueTimeout = 5 * time.Second
	}
	if c.Camera.Sensitivity <= 0 {
		c.Camera.Sensitivity = 50
	}
	return c
}

// deferredEffect is a scheduled callback on the simulation clock. The closure
// carries its own staleness guard; firing a stale one is a no-op.
type deferredEffect struct {
	at  float64
	run func(ctx context.Context)
}

// Engine advances one game session. All mutation happens under mu, on the
// goroutine that calls Advance; concurrent producers reach the state only
// through Submit, which stages commands for the next frame.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	deps   Deps
	state  *State
	camera *camera.Controller
	buffer *CommandBuffer

	tick       uint64
	simTime    float64
	lastMinute int

	moveX float64
	moveZ float64

	combo      int
	lastMelee  float64
	lastRanged float64

	punchGen    uint64
	respawnGen  uint64
	dialogueGen uint64
	missionGen  uint64

	projectileSeq uint64
	drowning      bool
	drifting      bool

	timers []deferredEffect
}

// NewEngine builds an engine over an existing session state.
func NewEngine(cfg Config, state *State, deps Deps) *Engine {
	cfg = cfg.normalized()
	deps = deps.normalized()
	e := &Engine{
		cfg:        cfg,
		deps:       deps,
		state:      state,
		camera:     camera.New(cfg.Camera),
		buffer:     NewCommandBuffer(cfg.CommandBufferSize, deps.Metrics),
		lastMelee:  -comboResetSeconds,
		lastRanged: -rangedCooldownSeconds,
	}
	if state != nil {
		e.lastMinute = int(state.TimeOfDay)
	}
	return e
}

// Submit stages a command for the next frame. Safe for concurrent use.
func (e *Engine) Submit(cmd Command) bool {
	if e == nil {
		return false
	}
	return e.buffer.Push(cmd)
}

// Advance drains staged commands and runs one simulation step. It is the
// frame entry point called by the loop.
func (e *Engine) Advance(ctx context.Context, dt float64) {
	if e == nil {
		return
	}
	start := time.Now()
	e.mu.Lock()
	e.applyLocked(ctx, e.buffer.Drain())
	e.stepLocked(ctx, dt)
	e.mu.Unlock()
	e.deps.Metrics.RecordDuration("sim_step", time.Since(start).Seconds())
}

// Apply processes a command batch without advancing time.
func (e *Engine) Apply(ctx context.Context, cmds []Command) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyLocked(ctx, cmds)
}

// Step advances the simulation by dt seconds.
func (e *Engine) Step(ctx context.Context, dt float64) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepLocked(ctx, dt)
}

func (e *Engine) applyLocked(ctx context.Context, cmds []Command) {
	for _, cmd := range cmds {
		switch cmd.Type {
		case CommandMove:
			e.moveX = geom.Clamp(cmd.MoveX, -1, 1)
			e.moveZ = geom.Clamp(cmd.MoveZ, -1, 1)
		case CommandPointer:
			e.camera.AddPointerDelta(cmd.PointerDX, cmd.PointerDY)
		case CommandCycleView:
			e.camera.CycleView()
		case CommandAttack:
			e.meleeAttack(ctx)
		case CommandFire:
			e.rangedAttack(ctx)
		case CommandToggleVehicle:
			e.toggleVehicle(ctx)
		case CommandTalk:
			e.startTalk()
		case CommandHorn:
			e.honkHorn(ctx)
		case CommandSetPaused:
			e.state.Paused = cmd.Paused
		case CommandNewMission:
			e.requestMission()
		case CommandSetDialogue:
			e.applyDialogue(cmd.Dialogue, cmd.Generation)
		case CommandSetMission:
			e.applyMission(cmd.Mission, cmd.Generation)
		}
	}
}

// stepLocked runs the fixed phase order. Later phases read state mutated by
// earlier ones, so the order is load-bearing.
func (e *Engine) stepLocked(ctx context.Context, dt float64) {
	if e.state == nil || e.state.Player == nil || dt <= 0 || e.state.Paused {
		return
	}
	e.simTime += dt
	e.tick++

	e.advanceTime(dt)
	e.fireTimers(ctx)
	e.updateProjectiles(ctx, dt)

	player := e.state.Player
	if player.Alive() {
		e.updatePickups()
		if e.updateEnvironment(ctx, dt) {
			switch player.State {
			case entity.StateEnteringVehicle, entity.StateExitingVehicle:
				e.updateVehicleTransition(ctx, dt)
			case entity.StateDriving:
				e.updateDriving(dt)
			default:
				e.updateFreeRoam(dt)
			}
		}
	}
	e.updateBystanders(dt)

	subject := player
	inVehicle := false
	if player.State == entity.StateDriving {
		if v, ok := e.state.Entity(player.VehicleID); ok {
			subject = v
			inVehicle = true
		}
	}
	e.camera.Update(dt, subject, inVehicle, e.state.Entities)
	e.deps.Metrics.Store("sim_tick", e.tick)
}

func (e *Engine) advanceTime(dt float64) {
	s := e.state
	s.TimeOfDay += timeScale * dt * 60
	for s.TimeOfDay >= minutesPerDay {
		s.TimeOfDay -= minutesPerDay
	}
	// UI sync at minute boundaries only; every frame would be noise.
	minute := int(s.TimeOfDay)
	if minute != e.lastMinute {
		e.lastMinute = minute
		e.deps.OnUpdate.push(Update{Kind: UpdateTime, TimeOfDay: s.TimeOfDay, Night: s.IsNight()})
	}
}

// schedule queues a deferred effect on the simulation clock.
func (e *Engine) schedule(delay float64, run func(ctx context.Context)) {
	e.timers = append(e.timers, deferredEffect{at: e.simTime + delay, run: run})
}

func (e *Engine) fireTimers(ctx context.Context) {
	if len(e.timers) == 0 {
		return
	}
	var due, rest []deferredEffect
	for _, t := range e.timers {
		if t.at <= e.simTime {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	// Reassign before firing: callbacks may schedule new timers.
	e.timers = rest
	for _, t := range due {
		t.run(ctx)
	}
}

func (e *Engine) raiseWanted(ctx context.Context, level int) {
	if level > maxWantedLevel {
		level = maxWantedLevel
	}
	if level < 0 {
		level = 0
	}
	if level == e.state.WantedLevel {
		return
	}
	e.state.WantedLevel = level
	lifecycle.WantedChanged(ctx, e.deps.Publisher, e.tick, e.ref(e.state.Player), level)
	e.deps.Metrics.Store("wanted_level", uint64(level))
	e.deps.OnUpdate.push(Update{Kind: UpdateWanted, WantedLevel: level})
}

func (e *Engine) pushHealth() {
	p := e.state.Player
	e.deps.OnUpdate.push(Update{Kind: UpdateHealth, Health: p.Health, MaxHealth: p.MaxHealth})
}

// killPlayer runs the death procedure: terminal dead state, detach from any
// vehicle, schedule the guarded respawn.
func (e *Engine) killPlayer(ctx context.Context, cause string) {
	p := e.state.Player
	p.Health = 0
	p.State = entity.StateDead
	p.Vel = geom.Vec3{}
	p.ClearTarget()
	if v, ok := e.state.Entity(p.VehicleID); ok {
		entity.UnlinkVehicle(p, v)
		v.State = entity.StateIdle
	} else {
		p.VehicleID = ""
	}
	combatlog.Defeat(ctx, e.deps.Publisher, e.tick, e.ref(p), e.ref(p), cause)
	e.deps.Metrics.Add("player_deaths", 1)
	e.pushHealth()

	e.respawnGen++
	gen := e.respawnGen
	e.schedule(respawnDelaySeconds, func(ctx context.Context) {
		if gen != e.respawnGen || e.state.Player.State != entity.StateDead {
			return
		}
		e.respawn(ctx)
	})
}

func (e *Engine) respawn(ctx context.Context) {
	p := e.state.Player
	p.Health = p.MaxHealth
	p.State = entity.StateIdle
	p.Pos = e.cfg.SpawnPos
	p.Vel = geom.Vec3{}
	p.ClearTarget()
	p.VehicleID = ""
	e.drowning = false
	e.raiseWanted(ctx, 0)
	lifecycle.Respawn(ctx, e.deps.Publisher, e.tick, e.ref(p))
	e.pushHealth()
}

// handleDefeat finalizes a non-player entity whose health just reached zero.
func (e *Engine) handleDefeat(ctx context.Context, target *entity.Entity, cause string) {
	target.Vel = geom.Vec3{}
	if driver, ok := e.state.Entity(target.VehicleID); ok {
		entity.UnlinkVehicle(driver, target)
		if driver == e.state.Player && driver.State == entity.StateDriving {
			driver.State = entity.StateIdle
		}
	}
	combatlog.Defeat(ctx, e.deps.Publisher, e.tick, e.ref(e.state.Player), e.ref(target), cause)
	e.deps.Metrics.Add("entities_defeated", 1)
	if target.Kind == entity.KindGangMember {
		e.state.Money += gangBountyMoney
		e.deps.OnUpdate.push(Update{Kind: UpdateMoney, Money: e.state.Money})
	}
}

func (e *Engine) ref(ent *entity.Entity) logging.EntityRef {
	if ent == nil {
		return logging.EntityRef{Kind: logging.EntityKindUnknown}
	}
	kind := logging.EntityKindUnknown
	switch ent.Kind {
	case entity.KindPlayer:
		kind = logging.EntityKindPlayer
	case entity.KindCivilian, entity.KindGangMember, entity.KindPolice:
		kind = logging.EntityKindNPC
	case entity.KindVehicle:
		kind = logging.EntityKindVehicle
	case entity.KindProjectile:
		kind = logging.EntityKindProjectile
	}
	return logging.EntityRef{ID: ent.ID, Kind: kind}
}
