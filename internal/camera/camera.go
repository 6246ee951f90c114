package camera

import (
	"math"

	"gridlock/server/internal/entity"
	"gridlock/server/internal/geom"
)

const (
	baseSensitivity = 0.005
	pitchMin        = -0.3
	pitchMax        = 1.3

	pivotHeight     = 2.0
	vehicleExtra    = 4.0
	minDistance     = 1.5
	obstacleMargin  = 0.5
	cullRadius      = 60.0
	cullRadiusSq    = cullRadius * cullRadius
	snapInLambda    = 20.0 // tighten fast so geometry never clips through
	relaxOutLambda  = 4.0
	positionLambda  = 10.0
	lookAtLambda    = 15.0
	defaultDistance = 10.0
)

// viewDistances are the cycled follow presets: normal, far, close.
var viewDistances = []float64{10.0, 16.0, 5.0}

// Config carries the gameplay settings the camera consumes.
type Config struct {
	Sensitivity float64 // 1..100, 50 is the neutral preset
	InvertY     bool
}

// Controller places the follow camera behind a subject, limiting the
// distance with occlusion raycasts against nearby buildings.
type Controller struct {
	cfg Config

	yaw   float64
	pitch float64

	pendingDX float64
	pendingDY float64

	modeIndex int
	distance  float64

	pos         geom.Vec3
	lookAt      geom.Vec3
	initialized bool
}

func New(cfg Config) *Controller {
	cfg.Sensitivity = geom.Clamp(cfg.Sensitivity, 1, 100)
	return &Controller{
		cfg:      cfg,
		pitch:    0.35,
		distance: defaultDistance,
	}
}

// AddPointerDelta accumulates raw pointer motion; consumed on next Update.
func (c *Controller) AddPointerDelta(dx, dy float64) {
	if c == nil {
		return
	}
	c.pendingDX += dx
	c.pendingDY += dy
}

// CycleView advances to the next view-mode preset.
func (c *Controller) CycleView() {
	if c == nil {
		return
	}
	c.modeIndex = (c.modeIndex + 1) % len(viewDistances)
}

// Yaw returns the current camera heading, used to rotate movement input
// into camera space.
func (c *Controller) Yaw() float64 {
	if c == nil {
		return 0
	}
	return c.yaw
}

// Distance returns the smoothed, collision-limited follow distance.
func (c *Controller) Distance() float64 {
	if c == nil {
		return 0
	}
	return c.distance
}

// Pose returns the smoothed camera position and look-at target.
func (c *Controller) Pose() (geom.Vec3, geom.Vec3) {
	if c == nil {
		return geom.Vec3{}, geom.Vec3{}
	}
	return c.pos, c.lookAt
}

// Update consumes pending pointer input and advances the camera toward its
// desired pose. Obstacles are scanned for buildings only; everything else is
// small enough to clip through without reading as a bug.
func (c *Controller) Update(dt float64, subject *entity.Entity, inVehicle bool, obstacles []*entity.Entity) {
	if c == nil || subject == nil || dt <= 0 {
		return
	}

	c.consumePointer()

	pivot := subject.Pos.Add(geom.Vec3{Y: pivotHeight})
	back := c.viewDirection()

	desired := viewDistances[c.modeIndex]
	if inVehicle {
		desired += vehicleExtra
	}

	limit := c.collisionLimit(pivot, back, desired, obstacles)

	// Asymmetric response: snapping in must outrun the subject's approach
	// toward a wall, relaxing back out can be lazy.
	lambda := relaxOutLambda
	if limit < c.distance {
		lambda = snapInLambda
	}
	c.distance = geom.Damp(c.distance, limit, lambda, dt)

	targetPos := pivot.Add(back.Scale(c.distance))
	if !c.initialized {
		c.pos = targetPos
		c.lookAt = pivot
		c.initialized = true
		return
	}
	c.pos = geom.DampVec3(c.pos, targetPos, positionLambda, dt)
	c.lookAt = geom.DampVec3(c.lookAt, pivot, lookAtLambda, dt)
}

func (c *Controller) consumePointer() {
	if c.pendingDX == 0 && c.pendingDY == 0 {
		return
	}
	sens := baseSensitivity * (c.cfg.Sensitivity / 50.0)
	c.yaw -= c.pendingDX * sens
	c.yaw = geom.WrapAngle(c.yaw)

	dy := c.pendingDY
	if c.cfg.InvertY {
		dy = -dy
	}
	c.pitch = geom.Clamp(c.pitch+dy*sens, pitchMin, pitchMax)

	c.pendingDX = 0
	c.pendingDY = 0
}

// viewDirection is the unit vector from the pivot back toward the camera.
func (c *Controller) viewDirection() geom.Vec3 {
	cosPitch := math.Cos(c.pitch)
	return geom.Vec3{
		X: -math.Sin(c.yaw) * cosPitch,
		Y: math.Sin(c.pitch),
		Z: -math.Cos(c.yaw) * cosPitch,
	}
}

// collisionLimit casts from the pivot along the view direction and returns
// the nearest building hit, clamped to the minimum distance. Buildings are
// inflated by a small margin so the near plane never kisses a wall.
func (c *Controller) collisionLimit(pivot, dir geom.Vec3, desired float64, obstacles []*entity.Entity) float64 {
	limit := desired
	for _, e := range obstacles {
		if e == nil || e.Kind != entity.KindBuilding || !e.Alive() {
			continue
		}
		if pivot.HorizontalDistSq(e.Pos) > cullRadiusSq {
			continue
		}
		bounds := e.Bounds().Inflate(obstacleMargin)
		dist, ok := geom.IntersectRayAABB(pivot, dir, bounds.Min, bounds.Max)
		if !ok {
			continue
		}
		if dist < limit {
			limit = dist
		}
	}
	if limit < minDistance {
		limit = minDistance
	}
	return limit
}
