package geom

import "math"

// AABB is an axis-aligned box described by its corner extents.
type AABB struct {
	Min Vec3
	Max Vec3
}

// AABBAround builds a box from a center position and half-extents.
func AABBAround(center, half Vec3) AABB {
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Inflate grows the box by margin on every side.
func (b AABB) Inflate(margin float64) AABB {
	m := Vec3{margin, margin, margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// OverlapsXZ reports whether two boxes overlap in the horizontal plane.
// Height is ignored; the simulation treats collision as a 2D problem.
func (b AABB) OverlapsXZ(o AABB) bool {
	return b.Min.X < o.Max.X && b.Max.X > o.Min.X &&
		b.Min.Z < o.Max.Z && b.Max.Z > o.Min.Z
}

// IntersectRayAABB runs the slab test and returns the nearest non-negative
// hit distance along dir. The second return is false when the ray misses or
// the box lies entirely behind the origin. Axis-parallel rays are handled by
// the IEEE division convention: 1/0 produces ±Inf and the min/max swap keeps
// the slab bounds ordered.
func IntersectRayAABB(origin, dir Vec3, min, max Vec3) (float64, bool) {
	tMin := math.Inf(-1)
	tMax := math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		o := component(origin, axis)
		d := component(dir, axis)
		lo := component(min, axis)
		hi := component(max, axis)

		inv := 1.0 / d
		t1 := (lo - o) * inv
		t2 := (hi - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}

	if tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		return tMax, true
	}
	return tMin, true
}

func component(v Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
