package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestNormalizeAngle(t *testing.T) {
	test.That(t, NormalizeAngle(0), test.ShouldEqual, 0.)
	test.That(t, NormalizeAngle(math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, NormalizeAngle(-math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, NormalizeAngle(3*math.Pi/2), test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, NormalizeAngle(-5*math.Pi/2), test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, NormalizeAngle(9*math.Pi), test.ShouldAlmostEqual, math.Pi)
}

func TestRadToDeg(t *testing.T) {
	test.That(t, RadToDeg(math.Pi), test.ShouldAlmostEqual, 180.)
	test.That(t, RadToDeg(-math.Pi/2), test.ShouldAlmostEqual, -90.)
}
