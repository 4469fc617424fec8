package main

import (
	"encoding/json"
	"os"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/hcplanner/motionplan"
	"go.viam.com/hcplanner/motionplan/teb"
	"go.viam.com/hcplanner/spatialmath"
)

const (
	defaultCycles    = 50
	defaultCycleTime = 0.2
)

// obstacle shapes accepted in scenario files.
const (
	shapePoint   = "point"
	shapeCircle  = "circle"
	shapeLine    = "line"
	shapePolygon = "polygon"
)

// obstacleConfig describes one obstacle at time zero. Every point of the shape moves with Velocity.
type obstacleConfig struct {
	Type     string       `json:"type"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Radius   float64      `json:"radius"`
	Points   [][2]float64 `json:"points"`
	Velocity [2]float64   `json:"velocity"`
}

// robotConfig is the footprint used for feasibility checks.
type robotConfig struct {
	Footprint           [][2]float64 `json:"footprint"`
	InscribedRadius     float64      `json:"inscribed_radius"`
	CircumscribedRadius float64      `json:"circumscribed_radius"`
	LookAhead           int          `json:"feasibility_look_ahead"`
}

type scenario struct {
	Start     spatialmath.Pose2D     `json:"start"`
	Goal      spatialmath.Pose2D     `json:"goal"`
	Cycles    int                    `json:"cycles"`
	CycleTime float64                `json:"cycle_time_sec"`
	Seed      int64                  `json:"seed"`
	Robot     robotConfig            `json:"robot"`
	Planner   map[string]interface{} `json:"planner"`
	TEB       map[string]interface{} `json:"teb"`
	Obstacles []obstacleConfig       `json:"obstacles"`

	plannerCfg *motionplan.PlannerConfig
	tebCfg     *teb.Config
}

func loadScenario(path string) (*scenario, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read scenario")
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (*scenario, error) {
	scn := &scenario{Cycles: defaultCycles, CycleTime: defaultCycleTime, Seed: 1}
	if err := json.Unmarshal(data, scn); err != nil {
		return nil, errors.Wrap(err, "cannot parse scenario")
	}
	if err := scn.validate(); err != nil {
		return nil, err
	}

	var err error
	if scn.plannerCfg, err = motionplan.NewPlannerConfigFromAttributes(scn.Planner); err != nil {
		return nil, err
	}
	if scn.tebCfg, err = teb.NewConfigFromAttributes(scn.TEB); err != nil {
		return nil, err
	}
	return scn, nil
}

func (scn *scenario) validate() error {
	var err error
	if scn.Cycles <= 0 {
		err = multierr.Combine(err, errors.Errorf("cycles must be positive, got %d", scn.Cycles))
	}
	if scn.CycleTime <= 0 {
		err = multierr.Combine(err, errors.Errorf("cycle_time_sec must be positive, got %v", scn.CycleTime))
	}
	for i, oc := range scn.Obstacles {
		if _, buildErr := oc.build(0); buildErr != nil {
			err = multierr.Combine(err, errors.Wrapf(buildErr, "obstacle %d", i))
		}
	}
	return err
}

// obstaclesAt returns every obstacle moved to its position at time t.
func (scn *scenario) obstaclesAt(t float64) ([]spatialmath.Obstacle, error) {
	out := make([]spatialmath.Obstacle, 0, len(scn.Obstacles))
	for _, oc := range scn.Obstacles {
		obs, err := oc.build(t)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, nil
}

func (scn *scenario) footprint() []r2.Point {
	return toPoints(scn.Robot.Footprint, r2.Point{})
}

func toPoints(raw [][2]float64, offset r2.Point) []r2.Point {
	pts := make([]r2.Point, len(raw))
	for i, p := range raw {
		pts[i] = r2.Point{X: p[0], Y: p[1]}.Add(offset)
	}
	return pts
}

func (oc obstacleConfig) build(t float64) (spatialmath.Obstacle, error) {
	offset := r2.Point{X: oc.Velocity[0], Y: oc.Velocity[1]}.Mul(t)
	switch oc.Type {
	case shapePoint, "":
		return spatialmath.NewPointObstacle(oc.X+offset.X, oc.Y+offset.Y), nil
	case shapeCircle:
		return spatialmath.NewCircularObstacle(oc.X+offset.X, oc.Y+offset.Y, oc.Radius)
	case shapeLine:
		if len(oc.Points) != 2 {
			return nil, errors.Errorf("line obstacle needs 2 points, got %d", len(oc.Points))
		}
		pts := toPoints(oc.Points, offset)
		return spatialmath.NewLineObstacle(pts[0], pts[1]), nil
	case shapePolygon:
		return spatialmath.NewPolygonObstacle(toPoints(oc.Points, offset))
	default:
		return nil, errors.Errorf("unknown obstacle type %q", oc.Type)
	}
}
