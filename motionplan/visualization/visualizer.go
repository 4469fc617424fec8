// Package visualization renders the state of a homotopy class planner to image files.
package visualization

import (
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"go.viam.com/hcplanner/logging"
	"go.viam.com/hcplanner/motionplan"
	"go.viam.com/hcplanner/spatialmath"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 6 * vg.Inch
)

var (
	graphColor    = color.RGBA{R: 190, G: 190, B: 190, A: 255}
	obstacleColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	bestColor     = color.RGBA{A: 255}
)

// PlotVisualizer keeps the last published planner state and draws it with gonum plot.
type PlotVisualizer struct {
	mu         sync.Mutex
	obstacles  *spatialmath.ObstacleContainer
	edges      [][2]r2.Point
	candidates []motionplan.CandidateInfo
	best       []spatialmath.Pose2D
	logger     logging.Logger
}

var _ motionplan.Visualizer = &PlotVisualizer{}

// NewPlotVisualizer returns a visualizer drawing the obstacles of the container along with the planner state.
// obstacles may be nil, and a nil logger means the global one.
func NewPlotVisualizer(obstacles *spatialmath.ObstacleContainer, logger logging.Logger) *PlotVisualizer {
	if logger == nil {
		logger = logging.Global()
	}
	return &PlotVisualizer{obstacles: obstacles, logger: logger}
}

// PublishGraph stores the edges of the exploration graph.
func (pv *PlotVisualizer) PublishGraph(g *motionplan.Graph) {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	if g == nil {
		pv.edges = nil
		return
	}
	pv.edges = g.Edges()
	pv.logger.Debugw("graph published", "vertices", g.NumVertices(), "edges", len(pv.edges))
}

// PublishCandidates stores the current trajectory candidates.
func (pv *PlotVisualizer) PublishCandidates(candidates []motionplan.CandidateInfo) {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	pv.candidates = append([]motionplan.CandidateInfo(nil), candidates...)
}

// PublishBestTrajectory stores the selected trajectory.
func (pv *PlotVisualizer) PublishBestTrajectory(poses []spatialmath.Pose2D) {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	pv.best = append([]spatialmath.Pose2D(nil), poses...)
}

// Save writes the plot to path; the format follows the file extension.
func (pv *PlotVisualizer) Save(path string) error {
	p, err := pv.build()
	if err != nil {
		return err
	}
	return errors.Wrapf(p.Save(plotWidth, plotHeight, path), "cannot save plot to %q", path)
}

// Render writes the plot in the given format ("png", "svg", "pdf", ...) to w.
func (pv *PlotVisualizer) Render(w io.Writer, format string) error {
	p, err := pv.build()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func (pv *PlotVisualizer) build() (*plot.Plot, error) {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	p := plot.New()
	p.Title.Text = "Homotopy classes"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Legend.Top = true

	for _, e := range pv.edges {
		line, err := plotter.NewLine(plotter.XYs{{X: e[0].X, Y: e[0].Y}, {X: e[1].X, Y: e[1].Y}})
		if err != nil {
			return nil, err
		}
		line.Color = graphColor
		line.Width = vg.Points(0.5)
		p.Add(line)
	}

	for i, c := range pv.candidates {
		if len(c.Poses) < 2 {
			continue
		}
		line, err := plotter.NewLine(poseXYs(c.Poses))
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		line.Dashes = plotutil.Dashes(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s cost %.2f", c.Signature, c.Cost), line)
	}

	if len(pv.best) > 1 {
		line, err := plotter.NewLine(poseXYs(pv.best))
		if err != nil {
			return nil, err
		}
		line.Color = bestColor
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add("best", line)
	}

	if pv.obstacles != nil && pv.obstacles.Len() > 0 {
		obstacles := pv.obstacles.All()
		xys := make(plotter.XYs, len(obstacles))
		for i, obs := range obstacles {
			c := obs.Centroid()
			xys[i] = plotter.XY{X: c.X, Y: c.Y}
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Color = obstacleColor
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(4)
		p.Add(scatter)
		p.Legend.Add("obstacles", scatter)
	}
	return p, nil
}

func poseXYs(poses []spatialmath.Pose2D) plotter.XYs {
	xys := make(plotter.XYs, len(poses))
	for i, pose := range poses {
		xys[i] = plotter.XY{X: pose.X, Y: pose.Y}
	}
	return xys
}
