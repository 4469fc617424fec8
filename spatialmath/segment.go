package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
)

const collinearEpsilon = 1e-12

// ClosestPointOnSegment returns the point on segment [a, b] closest to p.
func ClosestPointOnSegment(p, a, b r2.Point) r2.Point {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Mul(t))
}

// DistancePointToSegment returns the distance between p and segment [a, b].
func DistancePointToSegment(p, a, b r2.Point) float64 {
	return p.Sub(ClosestPointOnSegment(p, a, b)).Norm()
}

// orientation returns the sign of the turn a -> b -> c: 1 counter-clockwise, -1 clockwise, 0 collinear.
func orientation(a, b, c r2.Point) int {
	cross := b.Sub(a).Cross(c.Sub(a))
	switch {
	case cross > collinearEpsilon:
		return 1
	case cross < -collinearEpsilon:
		return -1
	default:
		return 0
	}
}

func onSegment(p, a, b r2.Point) bool {
	return p.X <= math.Max(a.X, b.X)+collinearEpsilon && p.X >= math.Min(a.X, b.X)-collinearEpsilon &&
		p.Y <= math.Max(a.Y, b.Y)+collinearEpsilon && p.Y >= math.Min(a.Y, b.Y)-collinearEpsilon
}

// SegmentsIntersect returns true if segments [a1, a2] and [b1, b2] share at least one point.
func SegmentsIntersect(a1, a2, b1, b2 r2.Point) bool {
	o1 := orientation(a1, a2, b1)
	o2 := orientation(a1, a2, b2)
	o3 := orientation(b1, b2, a1)
	o4 := orientation(b1, b2, a2)

	if o1 != o2 && o3 != o4 {
		return true
	}
	// collinear touching cases
	if o1 == 0 && onSegment(b1, a1, a2) {
		return true
	}
	if o2 == 0 && onSegment(b2, a1, a2) {
		return true
	}
	if o3 == 0 && onSegment(a1, b1, b2) {
		return true
	}
	return o4 == 0 && onSegment(a2, b1, b2)
}

// DistanceSegmentToSegment returns the smallest distance between segments [a1, a2] and [b1, b2].
func DistanceSegmentToSegment(a1, a2, b1, b2 r2.Point) float64 {
	if SegmentsIntersect(a1, a2, b1, b2) {
		return 0
	}
	return math.Min(
		math.Min(DistancePointToSegment(a1, b1, b2), DistancePointToSegment(a2, b1, b2)),
		math.Min(DistancePointToSegment(b1, a1, a2), DistancePointToSegment(b2, a1, a2)),
	)
}
