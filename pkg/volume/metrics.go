package volume

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"mriregdata/internal/models"
)

// PairMetrics holds the similarity measures between two volumes of the
// same shape. For a fixed/moving pair they give a baseline before warping.
type PairMetrics struct {
	// MI is a Gaussian approximation of the mutual information
	MI float64

	// EntropyDiff is the absolute difference of the 256-bin Shannon entropies
	EntropyDiff float64

	// RMSE is the root mean square intensity difference
	RMSE float64

	// SSIM is the global structural similarity index, assuming a unit
	// dynamic range (normalized intensities)
	SSIM float64
}

// Compare computes PairMetrics for two volumes with identical shapes
func Compare(a, b models.Volume) (PairMetrics, error) {
	if err := sameShape(a, b); err != nil {
		return PairMetrics{}, err
	}
	return PairMetrics{
		MI:          mutualInformation(a.Data, b.Data),
		EntropyDiff: math.Abs(Entropy(a.Data) - Entropy(b.Data)),
		RMSE:        rmse(a.Data, b.Data),
		SSIM:        ssim(a.Data, b.Data),
	}, nil
}

// Dice returns the mean Dice overlap over the non-zero labels found in
// either map. Two empty maps score 1.
func Dice(a, b models.Volume) (float64, error) {
	if err := sameShape(a, b); err != nil {
		return 0, err
	}

	type counts struct{ a, b, both int }
	perLabel := make(map[int]*counts)
	get := func(l int) *counts {
		c, ok := perLabel[l]
		if !ok {
			c = &counts{}
			perLabel[l] = c
		}
		return c
	}

	for i := range a.Data {
		la := int(math.Round(a.Data[i]))
		lb := int(math.Round(b.Data[i]))
		if la != 0 {
			get(la).a++
		}
		if lb != 0 {
			get(lb).b++
		}
		if la != 0 && la == lb {
			get(la).both++
		}
	}

	if len(perLabel) == 0 {
		return 1, nil
	}

	labels := make([]int, 0, len(perLabel))
	for l := range perLabel {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	total := 0.0
	for _, l := range labels {
		c := perLabel[l]
		total += 2 * float64(c.both) / float64(c.a+c.b)
	}
	return total / float64(len(labels)), nil
}

func sameShape(a, b models.Volume) error {
	if len(a.Data) != len(b.Data) || len(a.Shape) != len(b.Shape) {
		return fmt.Errorf("shapes %v and %v: %w", a.Shape, b.Shape, models.ErrShapeMismatch)
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return fmt.Errorf("shapes %v and %v: %w", a.Shape, b.Shape, models.ErrShapeMismatch)
		}
	}
	if len(a.Data) == 0 {
		return fmt.Errorf("empty volumes: %w", models.ErrDegenerateVolume)
	}
	return nil
}

// mutualInformation uses MI ≈ 0.5 * log(var(X)var(Y) / (var(X)var(Y) - cov(X,Y)²))
func mutualInformation(x, y []float64) float64 {
	varX := stat.Variance(x, nil)
	varY := stat.Variance(y, nil)
	covar := stat.Covariance(x, y, nil)

	if varX > 0 && varY > 0 {
		determinant := varX*varY - covar*covar
		if determinant > 0 {
			return 0.5 * math.Log(varX*varY/determinant)
		}
	}
	return 0
}

func rmse(x, y []float64) float64 {
	mse := 0.0
	for i := range x {
		diff := x[i] - y[i]
		mse += diff * diff
	}
	return math.Sqrt(mse / float64(len(x)))
}

func ssim(x, y []float64) float64 {
	const (
		dynamicRange = 1.0
		k1           = 0.01
		k2           = 0.03
	)
	c1 := (k1 * dynamicRange) * (k1 * dynamicRange)
	c2 := (k2 * dynamicRange) * (k2 * dynamicRange)

	muX := stat.Mean(x, nil)
	muY := stat.Mean(y, nil)
	sigmaX := stat.Variance(x, nil)
	sigmaY := stat.Variance(y, nil)
	sigmaXY := stat.Covariance(x, y, nil)

	num := (2*muX*muY + c1) * (2*sigmaXY + c2)
	den := (muX*muX + muY*muY + c1) * (sigmaX + sigmaY + c2)
	if den > 0 {
		return num / den
	}
	return 0
}

// Entropy returns the Shannon entropy in bits of a 256-bin histogram of data
func Entropy(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	lo, hi := data[0], data[0]
	for _, v := range data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi <= lo {
		return 0
	}

	const numBins = 256
	hist := make([]float64, numBins)
	binWidth := (hi - lo) / numBins
	for _, v := range data {
		bin := int((v - lo) / binWidth)
		if bin >= numBins {
			bin = numBins - 1
		}
		hist[bin]++
	}

	entropy := 0.0
	for _, count := range hist {
		if count > 0 {
			p := count / float64(n)
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}
