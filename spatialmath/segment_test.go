package spatialmath

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestDistancePointToSegment(t *testing.T) {
	a, b := r2.Point{X: 0, Y: 0}, r2.Point{X: 10, Y: 0}
	test.That(t, DistancePointToSegment(r2.Point{X: 5, Y: 2}, a, b), test.ShouldAlmostEqual, 2.)
	test.That(t, DistancePointToSegment(r2.Point{X: -3, Y: 4}, a, b), test.ShouldAlmostEqual, 5.)
	test.That(t, DistancePointToSegment(r2.Point{X: 13, Y: -4}, a, b), test.ShouldAlmostEqual, 5.)
	// degenerate segment
	test.That(t, DistancePointToSegment(r2.Point{X: 3, Y: 4}, a, a), test.ShouldAlmostEqual, 5.)
}

func TestSegmentsIntersect(t *testing.T) {
	for _, tc := range []struct {
		name           string
		a1, a2, b1, b2 r2.Point
		expected       bool
	}{
		{"crossing", r2.Point{X: 0, Y: 0}, r2.Point{X: 2, Y: 2}, r2.Point{X: 0, Y: 2}, r2.Point{X: 2, Y: 0}, true},
		{"parallel", r2.Point{X: 0, Y: 0}, r2.Point{X: 2, Y: 0}, r2.Point{X: 0, Y: 1}, r2.Point{X: 2, Y: 1}, false},
		{"touching end", r2.Point{X: 0, Y: 0}, r2.Point{X: 1, Y: 1}, r2.Point{X: 1, Y: 1}, r2.Point{X: 2, Y: 0}, true},
		{"collinear overlap", r2.Point{X: 0, Y: 0}, r2.Point{X: 2, Y: 0}, r2.Point{X: 1, Y: 0}, r2.Point{X: 3, Y: 0}, true},
		{"collinear apart", r2.Point{X: 0, Y: 0}, r2.Point{X: 1, Y: 0}, r2.Point{X: 2, Y: 0}, r2.Point{X: 3, Y: 0}, false},
		{"t short", r2.Point{X: 0, Y: 0}, r2.Point{X: 2, Y: 0}, r2.Point{X: 1, Y: 0.5}, r2.Point{X: 1, Y: 2}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			test.That(t, SegmentsIntersect(tc.a1, tc.a2, tc.b1, tc.b2), test.ShouldEqual, tc.expected)
		})
	}
}

func TestDistanceSegmentToSegment(t *testing.T) {
	d := DistanceSegmentToSegment(r2.Point{X: 0, Y: 0}, r2.Point{X: 2, Y: 0}, r2.Point{X: 1, Y: 0.5}, r2.Point{X: 1, Y: 2})
	test.That(t, d, test.ShouldAlmostEqual, 0.5)
	d = DistanceSegmentToSegment(r2.Point{X: 0, Y: 0}, r2.Point{X: 2, Y: 2}, r2.Point{X: 0, Y: 2}, r2.Point{X: 2, Y: 0})
	test.That(t, d, test.ShouldEqual, 0.)
}
