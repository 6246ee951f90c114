package geom

import "math"

// Damp moves current toward target with exponential smoothing. The response
// is frame-rate independent: lambda is the decay rate per second.
func Damp(current, target, lambda, dt float64) float64 {
	return current + (target-current)*(1-math.Exp(-lambda*dt))
}

// DampVec3 applies Damp per component.
func DampVec3(current, target Vec3, lambda, dt float64) Vec3 {
	return Vec3{
		X: Damp(current.X, target.X, lambda, dt),
		Y: Damp(current.Y, target.Y, lambda, dt),
		Z: Damp(current.Z, target.Z, lambda, dt),
	}
}

// DampAngle is Damp over the shortest arc between two angles in radians.
func DampAngle(current, target, lambda, dt float64) float64 {
	delta := WrapAngle(target - current)
	return current + delta*(1-math.Exp(-lambda*dt))
}

// WrapAngle normalizes an angle into (-π, π].
func WrapAngle(angle float64) float64 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle <= -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}
