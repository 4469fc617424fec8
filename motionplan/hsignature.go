package motionplan

import (
	"fmt"
	"math"
	"math/big"
	"math/cmplx"

	"github.com/golang/geo/r2"

	"go.viam.com/hcplanner/spatialmath"
)

const (
	// obstacles closer than this to each other do not contribute to each others weights.
	obstacleMergeDistance = 0.05

	// paths whose end points are closer than this use a fixed map box instead of one derived from them.
	minMapBoxExtent = 3.

	// mantissa bits of the signature accumulators, matching an x87 extended double.
	hSignaturePrecision = 64

	// largest natural log of an obstacle weight magnitude. Weights above it are scaled down together.
	maxLogWeight = 500.
)

// HSignature is a topological invariant of a planar path relative to a set of obstacle centroids. Paths with
// the same start and end whose signatures agree are in the same homotopy class.
type HSignature complex128

// EqualWithin returns true if both the real and the imaginary parts differ by no more than threshold.
func (h HSignature) EqualWithin(other HSignature, threshold float64) bool {
	return math.Abs(real(h)-real(other)) <= threshold && math.Abs(imag(h)-imag(other)) <= threshold
}

func (h HSignature) String() string {
	return fmt.Sprintf("%.4f%+.4fi", real(h), imag(h))
}

func toComplex(p r2.Point) complex128 {
	return complex(p.X, p.Y)
}

// CalculateHSignature evaluates a discretized complex contour integral along path. Each obstacle contributes
// the winding of the path around its centroid weighted by a factor that keeps different obstacles apart in the
// complex plane. Returns 0 for no obstacles or fewer than two points.
func CalculateHSignature(path []r2.Point, obstacles []spatialmath.Obstacle, prescaler float64) HSignature {
	if len(obstacles) == 0 || len(path) < 2 {
		return 0
	}

	start := toComplex(path[0])
	end := toComplex(path[len(path)-1])
	delta := end - start
	normal := complex(-imag(delta), real(delta))

	var mapBottomLeft, mapTopRight complex128
	if cmplx.Abs(delta) < minMapBoxExtent {
		mapBottomLeft = start + complex(0, -minMapBoxExtent)
		mapTopRight = end + complex(minMapBoxExtent, minMapBoxExtent)
	} else {
		mapBottomLeft = start - normal
		mapTopRight = end + normal
	}

	centroids := make([]complex128, len(obstacles))
	for i, obs := range obstacles {
		centroids[i] = toComplex(obs.Centroid())
	}
	weights := obstacleWeights(centroids, mapBottomLeft, mapTopRight, prescaler)

	sumReal := new(big.Float).SetPrec(hSignaturePrecision)
	sumImag := new(big.Float).SetPrec(hSignaturePrecision)
	term := new(big.Float).SetPrec(hSignaturePrecision)

	for l, obstL := range centroids {
		weight := weights[l]
		for i := 0; i+1 < len(path); i++ {
			diff1 := toComplex(path[i]) - obstL
			diff2 := toComplex(path[i+1]) - obstL
			abs1, abs2 := cmplx.Abs(diff1), cmplx.Abs(diff2)
			if abs1 == 0 || abs2 == 0 {
				continue
			}
			logReal := math.Log(abs2) - math.Log(abs1)
			logImag := minimalAngleDiff(cmplx.Phase(diff2) - cmplx.Phase(diff1))
			contribution := weight * complex(logReal, logImag)

			sumReal.Add(sumReal, term.SetFloat64(real(contribution)))
			sumImag.Add(sumImag, term.SetFloat64(imag(contribution)))
		}
	}

	re, _ := sumReal.Float64()
	im, _ := sumImag.Float64()
	return HSignature(complex(re, im))
}

// obstacleWeights returns the factor of each obstacle in the signature:
//
//	prescaler * (o_l - bottomLeft)^a * (o_l - topRight)^b / prod_{j != l} (o_l - o_j)
//
// with a+b = max(N-1, 5), so numerator and denominator grow at the same rate with the number of obstacles.
// Magnitudes are built as logarithms since the powers overflow a float64 with a few hundred obstacles.
func obstacleWeights(centroids []complex128, bottomLeft, topRight complex128, prescaler float64) []complex128 {
	m := len(centroids) - 1
	if m < 5 {
		m = 5
	}
	a := float64((m + 1) / 2)
	b := float64(m) - a

	logMags := make([]float64, len(centroids))
	phases := make([]float64, len(centroids))
	maxLog := math.Inf(-1)
	for l, obstL := range centroids {
		toBottomLeft := obstL - bottomLeft
		toTopRight := obstL - topRight
		logMag := math.Log(prescaler) + a*math.Log(cmplx.Abs(toBottomLeft)) + b*math.Log(cmplx.Abs(toTopRight))
		phase := a*cmplx.Phase(toBottomLeft) + b*cmplx.Phase(toTopRight)
		for j, obstJ := range centroids {
			if j == l {
				continue
			}
			diff := obstL - obstJ
			if cmplx.Abs(diff) < obstacleMergeDistance {
				continue
			}
			logMag -= math.Log(cmplx.Abs(diff))
			phase -= cmplx.Phase(diff)
		}
		logMags[l] = logMag
		phases[l] = phase
		maxLog = math.Max(maxLog, logMag)
	}

	// all weights share one scale so the ratios between obstacles are kept.
	var scale float64
	if maxLog > maxLogWeight {
		scale = maxLog - maxLogWeight
	}
	weights := make([]complex128, len(centroids))
	for l := range centroids {
		weights[l] = cmplx.Rect(math.Exp(logMags[l]-scale), phases[l])
	}
	return weights
}

// minimalAngleDiff returns the representative of diff + 2*pi*k, k in [-2, 2], with the smallest magnitude.
func minimalAngleDiff(diff float64) float64 {
	best := diff
	for k := -2; k <= 2; k++ {
		candidate := diff + 2*math.Pi*float64(k)
		if math.Abs(candidate) < math.Abs(best) {
			best = candidate
		}
	}
	return best
}
