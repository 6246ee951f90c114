package sim

const (
	// Time of day advances timeScale game-minutes per real second of
	// simulation, wrapping at minutesPerDay.
	timeScale     = 0.5
	minutesPerDay = 1440.0
	nightStart    = 1260.0
	nightEnd      = 420.0

	// On-foot physics.
	walkMaxSpeed    = 6.0
	walkAccel       = 30.0
	walkFriction    = 8.0 // exponential decay rate per second
	headingLambda   = 10.0
	walkStopSpeed   = 0.05
	groundLambda    = 12.0
	transitionSpeed = 7.0 // ingress/egress approach speed
	arriveEpsilon   = 0.35

	// Vehicle physics.
	vehicleMaxSpeed   = 24.0
	vehicleAccel      = 14.0
	vehicleBrakeAccel = 22.0
	// Friction equilibrium sits exactly at the speed cap; discrete
	// integration converges to it from below without ever reaching it.
	vehicleFriction   = vehicleAccel / vehicleMaxSpeed
	steerRate         = 1.6
	driftSlipSpeed    = 7.5
	driftGripLambda   = 3.0
	vehicleReverseMax = 8.0
	steerMinSpeed     = 0.2
	doorOffset        = 1.8
	walkAwayOffset    = 1.2
	interactRange     = 4.0

	// Axis-blocked movement reflects velocity with this damping. Tunable;
	// the exact bounce feel is not a gameplay contract.
	reflectDamping = 0.5

	// Water and bounds.
	drownDamagePerSecond = 25.0
	waterDragLambda      = 4.0
	waterSurfaceY        = 0.0
	submergedOffset      = -0.8
	waterSinkLambda      = 3.0

	// Combat.
	meleeCooldownSeconds  = 0.35
	rangedCooldownSeconds = 0.5
	comboResetSeconds     = 1.2
	comboSteps            = 4
	comboDamageStep       = 0.25
	meleeBaseDamage       = 10.0
	meleeRange            = 2.2
	meleeConeCos          = 0.5 // 60 degree half-angle
	meleeKnockback        = 6.0
	punchStateSeconds     = 0.3

	projectileDamage   = 25.0
	projectileSpeed    = 40.0
	projectileOffset   = 1.0
	projectileHeight   = 1.2
	projectileMaxRange = 160.0

	pickupRadius = 1.5
	talkRange    = 3.0

	maxWantedLevel  = 5
	gangBountyMoney = 50

	respawnDelaySeconds  = 3.0
	dialogueClearSeconds = 5.0

	// Collision broad phase: entities farther than this on either
	// horizontal axis are skipped before the precise AABB test.
	collisionBroadRange = 50.0
)
