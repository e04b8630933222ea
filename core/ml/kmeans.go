package ml

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KMeansOptions tunes FitKMeans.
type KMeansOptions struct {
	K         int
	MaxIter   int
	NInit     int
	Tolerance float64
	Seed      int64
}

func (o *KMeansOptions) setDefaults() {
	if o.MaxIter <= 0 {
		o.MaxIter = 300
	}
	if o.NInit <= 0 {
		o.NInit = 10
	}
	if o.Tolerance < 0 {
		o.Tolerance = 0
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
}

// KMeans holds fitted cluster centers. Their order is fixed after fitting.
type KMeans struct {
	Centers    [][]float64 `json:"centers"`
	Inertia    float64     `json:"inertia"`
	Iterations int         `json:"iterations"`
}

// FitKMeans clusters points with Lloyd's algorithm and k-means++ seeding.
// The run with the lowest inertia out of NInit restarts is kept. The result
// is fully determined by the points and opts.Seed.
func FitKMeans(points [][]float64, opts KMeansOptions) (*KMeans, error) {
	opts.setDefaults()
	dim, err := checkMatrix(points)
	if err != nil {
		return nil, err
	}
	if opts.K <= 0 {
		return nil, fmt.Errorf("k must be >0, got %d", opts.K)
	}
	if len(points) < opts.K {
		return nil, fmt.Errorf("%w: %d points for %d clusters", ErrTooFewSamples, len(points), opts.K)
	}

	// tolerance is relative to the mean per-dimension variance
	col := make([]float64, len(points))
	var variance float64
	for j := 0; j < dim; j++ {
		for i, p := range points {
			col[i] = p[j]
		}
		variance += stat.PopVariance(col, nil)
	}
	tol := opts.Tolerance * variance / float64(dim)

	rng := rand.New(rand.NewSource(opts.Seed))
	var best *KMeans
	for run := 0; run < opts.NInit; run++ {
		km := lloyd(points, seedPlusPlus(points, opts.K, rng), opts.MaxIter, tol)
		if best == nil || km.Inertia < best.Inertia {
			best = km
		}
	}
	if err := best.Validate(opts.K, dim); err != nil {
		return nil, err
	}
	return best, nil
}

// seedPlusPlus picks initial centers with probability proportional to the
// squared distance to the nearest center already chosen.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(points[rng.Intn(len(points))]))
	dist := make([]float64, len(points))
	for len(centers) < k {
		var total float64
		for i, p := range points {
			_, d := nearest(centers, p)
			dist[i] = d
			total += d
		}
		if total == 0 {
			centers = append(centers, clone(points[rng.Intn(len(points))]))
			continue
		}
		r := rng.Float64() * total
		idx := len(points) - 1
		for i, d := range dist {
			r -= d
			if r <= 0 {
				idx = i
				break
			}
		}
		centers = append(centers, clone(points[idx]))
	}
	return centers
}

func lloyd(points, centers [][]float64, maxIter int, tol float64) *KMeans {
	k, dim := len(centers), len(centers[0])
	labels := make([]int, len(points))
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	counts := make([]int, k)

	iter := 0
	for iter < maxIter {
		iter++
		for i, p := range points {
			labels[i], _ = nearest(centers, p)
		}
		for c := range sums {
			for j := range sums[c] {
				sums[c][j] = 0
			}
			counts[c] = 0
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}

		var shift float64
		for c := range centers {
			next := sums[c]
			if counts[c] == 0 {
				next = clone(points[farthest(points, centers, labels)])
			} else {
				floats.Scale(1/float64(counts[c]), next)
			}
			shift += sqDist(centers[c], next)
			centers[c] = clone(next)
		}
		if shift <= tol {
			break
		}
	}

	var inertia float64
	for _, p := range points {
		_, d := nearest(centers, p)
		inertia += d
	}
	return &KMeans{Centers: centers, Inertia: inertia, Iterations: iter}
}

// farthest returns the index of the point farthest from its assigned center.
func farthest(points, centers [][]float64, labels []int) int {
	idx, maxD := 0, -1.0
	for i, p := range points {
		if d := sqDist(p, centers[labels[i]]); d > maxD {
			idx, maxD = i, d
		}
	}
	return idx
}

func nearest(centers [][]float64, p []float64) (int, float64) {
	idx, minD := 0, math.Inf(1)
	for c, center := range centers {
		if d := sqDist(center, p); d < minD {
			idx, minD = c, d
		}
	}
	return idx, minD
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}

// Predict returns the index of the center nearest to point.
func (m *KMeans) Predict(point []float64) int {
	idx, _ := nearest(m.Centers, point)
	return idx
}

// Validate checks the model has k finite centers of dimension dim.
func (m *KMeans) Validate(k, dim int) error {
	if len(m.Centers) == 0 {
		return fmt.Errorf("%w: no centers", ErrDimension)
	}
	if k > 0 && len(m.Centers) != k {
		return fmt.Errorf("%w: %d centers, expected %d", ErrDimension, len(m.Centers), k)
	}
	for _, c := range m.Centers {
		if len(c) != dim {
			return fmt.Errorf("%w: center of dimension %d, expected %d", ErrDimension, len(c), dim)
		}
		if !finite(c...) {
			return ErrNotFinite
		}
	}
	return nil
}
