package teb

import (
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/hcplanner/spatialmath"
	"go.viam.com/hcplanner/utils"
)

// number of resize sweeps before autoResize gives up on converging.
const maxResizeSweeps = 100

// TimedElasticBand is a sequence of poses and the time in seconds to travel between consecutive ones. The first
// and last poses are the fixed start and goal.
type TimedElasticBand struct {
	poses     []spatialmath.Pose2D
	timeDiffs []float64
}

// NewTimedElasticBand initializes a band from start to goal through the inner waypoints, interpolating so no
// step is longer than the distance covered in dtRef at full speed. waypoints are expected to run from the start
// position to the goal position; their first and last points are replaced by start and goal.
func NewTimedElasticBand(start, goal spatialmath.Pose2D, waypoints []r2.Point, cfg *Config) *TimedElasticBand {
	pts := []r2.Point{start.Point()}
	if len(waypoints) > 2 {
		pts = append(pts, waypoints[1:len(waypoints)-1]...)
	}
	pts = append(pts, goal.Point())

	maxStep := cfg.MaxVelX * cfg.DtRef
	dense := []r2.Point{pts[0]}
	for i := 1; i < len(pts); i++ {
		seg := pts[i].Sub(pts[i-1])
		n := int(math.Ceil(seg.Norm() / maxStep))
		for k := 1; k < n; k++ {
			dense = append(dense, pts[i-1].Add(seg.Mul(float64(k)/float64(n))))
		}
		dense = append(dense, pts[i])
	}

	band := &TimedElasticBand{}
	band.poses = make([]spatialmath.Pose2D, len(dense))
	band.poses[0] = start
	for i := 1; i < len(dense)-1; i++ {
		band.poses[i] = spatialmath.NewPose2DFromPoint(dense[i], headingTo(dense[i], dense[i+1]))
	}
	band.poses[len(dense)-1] = goal
	for len(band.poses) < cfg.MinSamples {
		band.splitLongestSegment()
	}
	band.recomputeTimeDiffs(cfg, boundaryConditions{})
	return band
}

func headingTo(from, to r2.Point) float64 {
	d := to.Sub(from)
	return math.Atan2(d.Y, d.X)
}

// averagePose returns the midpoint of two poses with the circular mean of their headings.
func averagePose(a, b spatialmath.Pose2D) spatialmath.Pose2D {
	mid := a.Point().Add(b.Point()).Mul(0.5)
	theta := math.Atan2(math.Sin(a.Theta)+math.Sin(b.Theta), math.Cos(a.Theta)+math.Cos(b.Theta))
	return spatialmath.NewPose2DFromPoint(mid, theta)
}

func (band *TimedElasticBand) splitLongestSegment() {
	longest, longestLen := 0, -1.
	for i := 0; i+1 < len(band.poses); i++ {
		if l := band.poses[i].DistanceTo(band.poses[i+1]); l > longestLen {
			longest, longestLen = i, l
		}
	}
	band.insertPose(longest+1, averagePose(band.poses[longest], band.poses[longest+1]))
}

func (band *TimedElasticBand) insertPose(idx int, pose spatialmath.Pose2D) {
	band.poses = append(band.poses, spatialmath.Pose2D{})
	copy(band.poses[idx+1:], band.poses[idx:])
	band.poses[idx] = pose
}

func (band *TimedElasticBand) deletePose(idx int) {
	band.poses = append(band.poses[:idx], band.poses[idx+1:]...)
}

func insertFloat(s []float64, idx int, v float64) []float64 {
	s = append(s, 0)
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

func deleteFloat(s []float64, idx int) []float64 {
	return append(s[:idx], s[idx+1:]...)
}

// boundaryConditions are the velocities the band has to start and end with.
type boundaryConditions struct {
	startSpeed  float64
	goalVelFree bool
}

// stepTime is the time needed for step i of n between two poses at the velocity limits. The first step starts
// at the start speed and accelerates, the last one brakes to a stop unless the goal velocity is free.
func stepTime(i, n int, a, b spatialmath.Pose2D, cfg *Config, bc boundaryConditions) float64 {
	dist := a.DistanceTo(b)
	t := math.Max(dist/cfg.MaxVelX, math.Abs(utils.NormalizeAngle(b.Theta-a.Theta))/cfg.MaxVelTheta)
	if i == 0 {
		v0 := math.Min(math.Abs(bc.startSpeed), cfg.MaxVelX)
		t = math.Max(t, dist/(0.5*(v0+cfg.MaxVelX)))
	}
	if i == n-1 && !bc.goalVelFree {
		t = math.Max(t, 2*dist/cfg.MaxVelX)
	}
	return t
}

func (band *TimedElasticBand) recomputeTimeDiffs(cfg *Config, bc boundaryConditions) {
	n := len(band.poses) - 1
	band.timeDiffs = band.timeDiffs[:0]
	for i := 0; i < n; i++ {
		band.timeDiffs = append(band.timeDiffs, stepTime(i, n, band.poses[i], band.poses[i+1], cfg, bc))
	}
}

// Poses returns a copy of the poses.
func (band *TimedElasticBand) Poses() []spatialmath.Pose2D {
	out := make([]spatialmath.Pose2D, len(band.poses))
	copy(out, band.poses)
	return out
}

// TimeDiffs returns a copy of the time differences.
func (band *TimedElasticBand) TimeDiffs() []float64 {
	out := make([]float64, len(band.timeDiffs))
	copy(out, band.timeDiffs)
	return out
}

// SizePoses returns the number of poses.
func (band *TimedElasticBand) SizePoses() int {
	return len(band.poses)
}

// Duration returns the total travel time.
func (band *TimedElasticBand) Duration() float64 {
	total := 0.
	for _, dt := range band.timeDiffs {
		total += dt
	}
	return total
}

// AutoResize inserts poses where a time difference is too large and merges poses where it is too small, until
// every difference lies within dtRef +/- dtHysteresis or the sample limits are reached.
func (band *TimedElasticBand) AutoResize(dtRef, dtHysteresis float64, minSamples, maxSamples int) {
	modified := true
	for sweep := 0; sweep < maxResizeSweeps && modified; sweep++ {
		modified = false
		for i := 0; i < len(band.timeDiffs); i++ {
			switch {
			case band.timeDiffs[i] > dtRef+dtHysteresis && len(band.timeDiffs) < maxSamples:
				half := 0.5 * band.timeDiffs[i]
				band.timeDiffs[i] = half
				band.insertPose(i+1, averagePose(band.poses[i], band.poses[i+1]))
				band.timeDiffs = insertFloat(band.timeDiffs, i+1, half)
				modified = true
			case band.timeDiffs[i] < dtRef-dtHysteresis && len(band.timeDiffs) > minSamples:
				if i < len(band.timeDiffs)-1 {
					band.timeDiffs[i+1] += band.timeDiffs[i]
					band.timeDiffs = deleteFloat(band.timeDiffs, i)
					band.deletePose(i + 1)
				} else {
					// the goal stays, the pose before it goes
					band.timeDiffs[i-1] += band.timeDiffs[i]
					band.timeDiffs = deleteFloat(band.timeDiffs, i)
					band.deletePose(i)
				}
				modified = true
			}
		}
	}
}

// UpdateAndPrune replaces the start and goal poses. Poses between the old start and the pose nearest to the new
// start, looking at most ten poses ahead, are dropped since the robot has passed them.
func (band *TimedElasticBand) UpdateAndPrune(start, goal *spatialmath.Pose2D, minSamples int) {
	if len(band.poses) == 0 {
		return
	}
	if start != nil {
		distCache := start.DistanceTo(band.poses[0])
		lookahead := utils.MinInt(len(band.poses)-minSamples, 10)
		nearest := 0
		for i := 1; i <= lookahead; i++ {
			d := start.DistanceTo(band.poses[i])
			if d >= distCache {
				break
			}
			distCache = d
			nearest = i
		}
		if nearest > 0 {
			band.poses = append(band.poses[:1], band.poses[nearest+1:]...)
			band.timeDiffs = append(band.timeDiffs[:1], band.timeDiffs[nearest+1:]...)
		}
		band.poses[0] = *start
	}
	if goal != nil {
		band.poses[len(band.poses)-1] = *goal
	}
}

// DetectDetoursBackwards returns true if any pose heading makes a scalar product below threshold with the
// direction from the first to the last pose.
func (band *TimedElasticBand) DetectDetoursBackwards(threshold float64) bool {
	if len(band.poses) < 2 {
		return false
	}
	startToGoal := band.poses[len(band.poses)-1].Point().Sub(band.poses[0].Point()).Normalize()
	for _, pose := range band.poses {
		if pose.OrientationUnitVec().Dot(startToGoal) < threshold {
			return true
		}
	}
	return false
}

// FindClosestPoseIndex returns the index of the pose nearest to p, or -1 for an empty band.
func (band *TimedElasticBand) FindClosestPoseIndex(p r2.Point) int {
	best, bestDist := -1, math.Inf(1)
	for i, pose := range band.poses {
		if d := pose.Point().Sub(p).Norm(); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// VelocityCommand derives the command that moves the robot from the first pose to the second one in the first
// time difference. Driving backwards gives a negative linear velocity.
func (band *TimedElasticBand) VelocityCommand() spatialmath.Velocity2D {
	if len(band.poses) < 2 || len(band.timeDiffs) == 0 || band.timeDiffs[0] <= 0 {
		return spatialmath.Velocity2D{}
	}
	dt := band.timeDiffs[0]
	delta := band.poses[1].Point().Sub(band.poses[0].Point())
	linear := delta.Norm() / dt
	if delta.Dot(band.poses[0].OrientationUnitVec()) < 0 {
		linear = -linear
	}
	angular := utils.NormalizeAngle(band.poses[1].Theta-band.poses[0].Theta) / dt
	return spatialmath.Velocity2D{Linear: linear, Angular: angular}
}
