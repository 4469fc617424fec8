package costmap

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/hcplanner/motionplan"
	"go.viam.com/hcplanner/spatialmath"
)

var _ motionplan.CostmapModel = &ObstacleCostModel{}

var square = []r2.Point{{X: -0.5, Y: -0.25}, {X: 0.5, Y: -0.25}, {X: 0.5, Y: 0.25}, {X: -0.5, Y: 0.25}}

func TestCircularFootprint(t *testing.T) {
	model := NewObstacleCostModel(spatialmath.NewObstacleContainer(spatialmath.NewPointObstacle(1, 0)))

	test.That(t, model.FootprintCost(0, 0, 0, nil, 0.5, 1.5), test.ShouldEqual, InflatedCost)
	test.That(t, model.FootprintCost(0.6, 0, 0, nil, 0.5, 1.5), test.ShouldEqual, LethalCost)
	test.That(t, model.FootprintCost(-2, 0, 0, nil, 0.5, 1.5), test.ShouldEqual, FreeCost)
}

func TestPolygonFootprint(t *testing.T) {
	obstacles := spatialmath.NewObstacleContainer(spatialmath.NewPointObstacle(0, 0.4))
	model := NewObstacleCostModel(obstacles)

	// long side along x misses the obstacle, rotated by 90 degrees it covers it
	test.That(t, model.FootprintCost(0, 0, 0, square, 0.25, 0.56), test.ShouldEqual, InflatedCost)
	test.That(t, model.FootprintCost(0, 0, math.Pi/2, square, 0.25, 0.56), test.ShouldEqual, LethalCost)
	test.That(t, model.FootprintCost(5, 5, 0, square, 0.25, 0.56), test.ShouldEqual, FreeCost)

	// obstacle strictly inside the footprint
	obstacles.Set(spatialmath.NewPointObstacle(0.1, 0))
	test.That(t, model.FootprintCost(0, 0, 0, square, 0.25, 0.56), test.ShouldEqual, LethalCost)
}

func TestContainsPoint(t *testing.T) {
	test.That(t, containsPoint(square, r2.Point{}), test.ShouldBeTrue)
	test.That(t, containsPoint(square, r2.Point{X: 0.6}), test.ShouldBeFalse)

	world := transformFootprint(square, 1, 1, math.Pi/2)
	test.That(t, containsPoint(world, r2.Point{X: 1, Y: 1.4}), test.ShouldBeTrue)
	test.That(t, containsPoint(world, r2.Point{X: 1.4, Y: 1}), test.ShouldBeFalse)
}
