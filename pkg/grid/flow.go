package grid

import (
	"fmt"

	"mriregdata/internal/models"
)

// UnitFlowToFlow rescales a displacement field of shape (X, Y, Z, C) from
// normalized units to voxel units. Channel 0 is multiplied by Z-1,
// channel 1 by Y-1 and channel 2 by X-1. The input is left untouched.
func UnitFlowToFlow(flow models.Field) (models.Field, error) {
	factors, err := unitFactors(flow, 4)
	if err != nil {
		return models.Field{}, err
	}
	return scale(flow, factors, false), nil
}

// UnitFlowToFlowBatched is UnitFlowToFlow for a batched field of shape
// (B, X, Y, Z, C)
func UnitFlowToFlowBatched(flow models.Field) (models.Field, error) {
	factors, err := unitFactors(flow, 5)
	if err != nil {
		return models.Field{}, err
	}
	return scale(flow, factors, false), nil
}

// FlowToUnitFlow converts a voxel-unit field of shape (X, Y, Z, C) back to
// normalized units. A size-1 spatial axis yields ErrDegenerateVolume.
func FlowToUnitFlow(flow models.Field) (models.Field, error) {
	factors, err := unitFactors(flow, 4)
	if err != nil {
		return models.Field{}, err
	}
	if err := checkFactors(flow, factors); err != nil {
		return models.Field{}, err
	}
	return scale(flow, factors, true), nil
}

// FlowToUnitFlowBatched is FlowToUnitFlow for a batched field
func FlowToUnitFlowBatched(flow models.Field) (models.Field, error) {
	factors, err := unitFactors(flow, 5)
	if err != nil {
		return models.Field{}, err
	}
	if err := checkFactors(flow, factors); err != nil {
		return models.Field{}, err
	}
	return scale(flow, factors, true), nil
}

// unitFactors returns the (z, y, x) scale factors for a field of the given rank
func unitFactors(flow models.Field, rank int) ([3]float64, error) {
	var factors [3]float64
	if len(flow.Shape) != rank {
		return factors, fmt.Errorf("flow of shape %v, want rank %d: %w", flow.Shape, rank, models.ErrShapeMismatch)
	}
	if flow.Channels() < 3 {
		return factors, fmt.Errorf("flow of shape %v has fewer than 3 channels: %w", flow.Shape, models.ErrShapeMismatch)
	}
	if len(flow.Data) != product(flow.Shape) {
		return factors, fmt.Errorf("flow of shape %v holds %d values: %w", flow.Shape, len(flow.Data), models.ErrShapeMismatch)
	}

	spatial := flow.Shape[rank-4 : rank-1]
	factors[0] = float64(spatial[2] - 1)
	factors[1] = float64(spatial[1] - 1)
	factors[2] = float64(spatial[0] - 1)
	return factors, nil
}

func checkFactors(flow models.Field, factors [3]float64) error {
	for c, f := range factors {
		if f == 0 {
			return fmt.Errorf("flow of shape %v: channel %d spans a size-1 axis: %w", flow.Shape, c, models.ErrDegenerateVolume)
		}
	}
	return nil
}

func scale(flow models.Field, factors [3]float64, divide bool) models.Field {
	out := flow.Clone()
	channels := flow.Channels()
	for base := 0; base < len(out.Data); base += channels {
		for c := 0; c < 3; c++ {
			if divide {
				out.Data[base+c] /= factors[c]
			} else {
				out.Data[base+c] *= factors[c]
			}
		}
	}
	return out
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
