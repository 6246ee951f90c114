package sim

import (
	"sync"

	"gridlock/server/internal/dialogue"
	"gridlock/server/internal/telemetry"
)

// CommandType enumerates the input surface routed through the queue.
type CommandType string

const (
	CommandMove          CommandType = "move"
	CommandAttack        CommandType = "attack"
	CommandFire          CommandType = "fire"
	CommandToggleVehicle CommandType = "toggleVehicle"
	CommandTalk          CommandType = "talk"
	CommandHorn          CommandType = "horn"
	CommandCycleView     CommandType = "cycleView"
	CommandPointer       CommandType = "pointer"
	CommandSetPaused     CommandType = "setPaused"
	CommandNewMission    CommandType = "newMission"

	// Async completions re-enter the loop as commands so all state
	// mutation stays on the simulation goroutine.
	CommandSetDialogue CommandType = "setDialogue"
	CommandSetMission  CommandType = "setMission"
)

// Command is a queued input or async completion applied between frames.
type Command struct {
	Type    CommandType
	ActorID string

	// Move intent, already normalized to [-1,1] per axis.
	MoveX float64
	MoveZ float64

	// Pointer deltas for the camera.
	PointerDX float64
	PointerDY float64

	Paused bool

	Dialogue   string
	Mission    dialogue.Mission
	Generation uint64
}

// CommandBuffer stages commands between ticks. Push is safe for concurrent
// producers; Drain hands the batch to the simulation goroutine.
type CommandBuffer struct {
	mu       sync.Mutex
	pending  []Command
	capacity int
	metrics  telemetry.Metrics
}

// NewCommandBuffer allocates a buffer with the provided capacity bound.
func NewCommandBuffer(capacity int, metrics telemetry.Metrics) *CommandBuffer {
	if capacity <= 0 {
		capacity = 256
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics{}
	}
	return &CommandBuffer{
		pending:  make([]Command, 0, capacity),
		capacity: capacity,
		metrics:  metrics,
	}
}

// Push stages a command, reporting false when the buffer is saturated.
func (b *CommandBuffer) Push(cmd Command) bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) >= b.capacity {
		b.metrics.Add("commands_dropped", 1)
		return false
	}
	b.pending = append(b.pending, cmd)
	b.metrics.Add("commands_enqueued", 1)
	return true
}

// Drain returns the staged batch and resets the buffer.
func (b *CommandBuffer) Drain() []Command {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	drained := b.pending
	b.pending = make([]Command, 0, b.capacity)
	return drained
}

// Len reports the number of staged commands.
func (b *CommandBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
