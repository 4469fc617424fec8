package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/hcplanner/utils"
)

// Pose2D is a planar pose: a position and a heading in radians measured counter-clockwise from +X.
type Pose2D struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewPose2D returns a pose with the heading normalized into (-pi, pi].
func NewPose2D(x, y, theta float64) Pose2D {
	return Pose2D{X: x, Y: y, Theta: utils.NormalizeAngle(theta)}
}

// NewPose2DFromPoint returns a pose at p with the given heading.
func NewPose2DFromPoint(p r2.Point, theta float64) Pose2D {
	return NewPose2D(p.X, p.Y, theta)
}

// Point returns the position of the pose.
func (p Pose2D) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// PosesToPoints drops the headings of poses.
func PosesToPoints(poses []Pose2D) []r2.Point {
	pts := make([]r2.Point, len(poses))
	for i, p := range poses {
		pts[i] = p.Point()
	}
	return pts
}

// OrientationUnitVec returns the unit vector pointing along the heading.
func (p Pose2D) OrientationUnitVec() r2.Point {
	return r2.Point{X: math.Cos(p.Theta), Y: math.Sin(p.Theta)}
}

// DistanceTo returns the euclidean distance between the positions of two poses.
func (p Pose2D) DistanceTo(other Pose2D) float64 {
	return p.Point().Sub(other.Point()).Norm()
}

// AlmostEqual returns true if both positions and headings agree within epsilon.
func (p Pose2D) AlmostEqual(other Pose2D, epsilon float64) bool {
	return utils.Float64AlmostEqual(p.X, other.X, epsilon) &&
		utils.Float64AlmostEqual(p.Y, other.Y, epsilon) &&
		math.Abs(utils.NormalizeAngle(p.Theta-other.Theta)) < epsilon
}

func (p Pose2D) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.1fdeg)", p.X, p.Y, utils.RadToDeg(p.Theta))
}

// Velocity2D is a planar velocity command: forward speed in m/s and turn rate in rad/s.
type Velocity2D struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}
