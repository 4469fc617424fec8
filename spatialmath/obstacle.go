package spatialmath

import (
	"fmt"
	"math"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Obstacle is a planar shape the planner routes around. Implementations must be safe for concurrent reads.
type Obstacle interface {
	// Centroid is the representative point used for topological classification.
	Centroid() r2.Point
	// MinimumDistance returns the distance from p to the shape, 0 when p is inside.
	MinimumDistance(p r2.Point) float64
	// LineIntersects returns true if segment [a, b] passes within clearance of the shape.
	LineIntersects(a, b r2.Point, clearance float64) bool
	// Collides returns true if p is closer than clearance to the shape.
	Collides(p r2.Point, clearance float64) bool
}

// PointObstacle is a dimensionless obstacle.
type PointObstacle struct {
	Position r2.Point
}

// NewPointObstacle returns an obstacle at (x, y).
func NewPointObstacle(x, y float64) *PointObstacle {
	return &PointObstacle{Position: r2.Point{X: x, Y: y}}
}

// Centroid returns the obstacle position.
func (po *PointObstacle) Centroid() r2.Point {
	return po.Position
}

// MinimumDistance returns the distance from p to the obstacle.
func (po *PointObstacle) MinimumDistance(p r2.Point) float64 {
	return p.Sub(po.Position).Norm()
}

// LineIntersects returns true if [a, b] passes within clearance of the obstacle.
func (po *PointObstacle) LineIntersects(a, b r2.Point, clearance float64) bool {
	return DistancePointToSegment(po.Position, a, b) <= clearance
}

// Collides returns true if p is closer than clearance to the obstacle.
func (po *PointObstacle) Collides(p r2.Point, clearance float64) bool {
	return po.MinimumDistance(p) < clearance
}

func (po *PointObstacle) String() string {
	return fmt.Sprintf("point(%.3f, %.3f)", po.Position.X, po.Position.Y)
}

// CircularObstacle is a disc.
type CircularObstacle struct {
	Position r2.Point
	Radius   float64
}

// NewCircularObstacle returns a disc of the given radius centered on (x, y).
func NewCircularObstacle(x, y, radius float64) (*CircularObstacle, error) {
	if radius < 0 {
		return nil, errors.Errorf("circular obstacle radius must be non-negative, got %v", radius)
	}
	return &CircularObstacle{Position: r2.Point{X: x, Y: y}, Radius: radius}, nil
}

// Centroid returns the disc center.
func (co *CircularObstacle) Centroid() r2.Point {
	return co.Position
}

// MinimumDistance returns the distance from p to the disc boundary, 0 inside.
func (co *CircularObstacle) MinimumDistance(p r2.Point) float64 {
	return math.Max(0, p.Sub(co.Position).Norm()-co.Radius)
}

// LineIntersects returns true if [a, b] passes within clearance of the disc.
func (co *CircularObstacle) LineIntersects(a, b r2.Point, clearance float64) bool {
	return DistancePointToSegment(co.Position, a, b) <= co.Radius+clearance
}

// Collides returns true if p is closer than clearance to the disc.
func (co *CircularObstacle) Collides(p r2.Point, clearance float64) bool {
	return co.MinimumDistance(p) < clearance
}

func (co *CircularObstacle) String() string {
	return fmt.Sprintf("circle(%.3f, %.3f, r=%.3f)", co.Position.X, co.Position.Y, co.Radius)
}

// LineObstacle is a wall segment.
type LineObstacle struct {
	Start r2.Point
	End   r2.Point
}

// NewLineObstacle returns a wall from start to end.
func NewLineObstacle(start, end r2.Point) *LineObstacle {
	return &LineObstacle{Start: start, End: end}
}

// Centroid returns the segment midpoint.
func (lo *LineObstacle) Centroid() r2.Point {
	return lo.Start.Add(lo.End).Mul(0.5)
}

// MinimumDistance returns the distance from p to the segment.
func (lo *LineObstacle) MinimumDistance(p r2.Point) float64 {
	return DistancePointToSegment(p, lo.Start, lo.End)
}

// LineIntersects returns true if [a, b] crosses the wall or passes within clearance of it.
func (lo *LineObstacle) LineIntersects(a, b r2.Point, clearance float64) bool {
	return DistanceSegmentToSegment(a, b, lo.Start, lo.End) <= clearance
}

// Collides returns true if p is closer than clearance to the wall.
func (lo *LineObstacle) Collides(p r2.Point, clearance float64) bool {
	return lo.MinimumDistance(p) < clearance
}

func (lo *LineObstacle) String() string {
	return fmt.Sprintf("line(%.3f, %.3f)-(%.3f, %.3f)", lo.Start.X, lo.Start.Y, lo.End.X, lo.End.Y)
}

// PolygonObstacle is a closed convex polygon given by its vertices in order.
type PolygonObstacle struct {
	Vertices []r2.Point
	centroid r2.Point
}

// NewPolygonObstacle returns a convex polygon. At least three vertices are required.
func NewPolygonObstacle(vertices []r2.Point) (*PolygonObstacle, error) {
	if len(vertices) < 3 {
		return nil, errors.Errorf("polygon obstacle needs at least 3 vertices, got %d", len(vertices))
	}
	var sum r2.Point
	for _, v := range vertices {
		sum = sum.Add(v)
	}
	verts := make([]r2.Point, len(vertices))
	copy(verts, vertices)
	return &PolygonObstacle{Vertices: verts, centroid: sum.Mul(1 / float64(len(vertices)))}, nil
}

// Centroid returns the mean of the vertices.
func (po *PolygonObstacle) Centroid() r2.Point {
	return po.centroid
}

func (po *PolygonObstacle) edge(i int) (r2.Point, r2.Point) {
	return po.Vertices[i], po.Vertices[(i+1)%len(po.Vertices)]
}

// contains reports whether p lies inside or on the boundary, assuming convexity.
func (po *PolygonObstacle) contains(p r2.Point) bool {
	sign := 0
	for i := range po.Vertices {
		a, b := po.edge(i)
		o := orientation(a, b, p)
		if o == 0 {
			continue
		}
		if sign == 0 {
			sign = o
		} else if o != sign {
			return false
		}
	}
	return true
}

// MinimumDistance returns the distance from p to the polygon, 0 inside.
func (po *PolygonObstacle) MinimumDistance(p r2.Point) float64 {
	if po.contains(p) {
		return 0
	}
	minDist := math.Inf(1)
	for i := range po.Vertices {
		a, b := po.edge(i)
		minDist = math.Min(minDist, DistancePointToSegment(p, a, b))
	}
	return minDist
}

// LineIntersects returns true if [a, b] enters the polygon or passes within clearance of it.
func (po *PolygonObstacle) LineIntersects(a, b r2.Point, clearance float64) bool {
	if po.contains(a) || po.contains(b) {
		return true
	}
	for i := range po.Vertices {
		e1, e2 := po.edge(i)
		if DistanceSegmentToSegment(a, b, e1, e2) <= clearance {
			return true
		}
	}
	return false
}

// Collides returns true if p is closer than clearance to the polygon.
func (po *PolygonObstacle) Collides(p r2.Point, clearance float64) bool {
	return po.MinimumDistance(p) < clearance
}

// ObstacleContainer holds the obstacle set shared between a caller and a planner. The caller replaces the
// contents between planning cycles; the planner only reads them.
type ObstacleContainer struct {
	mu        sync.RWMutex
	obstacles []Obstacle
}

// NewObstacleContainer returns a container holding the given obstacles.
func NewObstacleContainer(obstacles ...Obstacle) *ObstacleContainer {
	oc := &ObstacleContainer{}
	oc.Set(obstacles...)
	return oc
}

// Set replaces the contents of the container.
func (oc *ObstacleContainer) Set(obstacles ...Obstacle) {
	cp := make([]Obstacle, len(obstacles))
	copy(cp, obstacles)
	oc.mu.Lock()
	oc.obstacles = cp
	oc.mu.Unlock()
}

// Add appends an obstacle.
func (oc *ObstacleContainer) Add(obstacle Obstacle) {
	oc.mu.Lock()
	oc.obstacles = append(oc.obstacles, obstacle)
	oc.mu.Unlock()
}

// All returns a snapshot of the obstacles. The returned slice must not be modified.
func (oc *ObstacleContainer) All() []Obstacle {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	return oc.obstacles[:len(oc.obstacles):len(oc.obstacles)]
}

// Len returns the number of obstacles.
func (oc *ObstacleContainer) Len() int {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	return len(oc.obstacles)
}
