// Package volume provides intensity operations on loaded volumes: min-max
// normalization, summary statistics and similarity metrics between pairs.
package volume

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"mriregdata/internal/models"
)

// Normalize rescales v to [0, 1] with (x - min) / (max - min) over the whole
// volume. A constant volume yields ErrDegenerateVolume instead of NaNs.
// The input is not modified.
func Normalize(v models.Volume) (models.Volume, error) {
	if len(v.Data) == 0 {
		return models.Volume{}, fmt.Errorf("empty volume: %w", models.ErrDegenerateVolume)
	}

	min, max := MinMax(v)
	span := max - min
	if span == 0 {
		return models.Volume{}, fmt.Errorf("constant volume (value %g): %w", min, models.ErrDegenerateVolume)
	}

	out := v.Clone()
	for i, x := range out.Data {
		out.Data[i] = (x - min) / span
	}
	return out, nil
}

// MinMax returns the smallest and largest intensity, or zeros for an empty volume
func MinMax(v models.Volume) (min, max float64) {
	if len(v.Data) == 0 {
		return 0, 0
	}
	return floats.Min(v.Data), floats.Max(v.Data)
}

// Stats summarizes the intensities of a volume
type Stats struct {
	Min, Max  float64
	Mean, Std float64
	Voxels    int
}

// Describe computes summary statistics
func Describe(v models.Volume) Stats {
	s := Stats{Voxels: len(v.Data)}
	if s.Voxels == 0 {
		return s
	}
	s.Min, s.Max = MinMax(v)
	s.Mean, s.Std = stat.MeanStdDev(v.Data, nil)
	return s
}
