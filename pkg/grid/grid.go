// Package grid builds the coordinate grids and converts the displacement
// fields consumed by a spatial-transformer warp.
//
// All grids and fields are channel-last with spatial axes in (X, Y, Z)
// order. The vector components are stored as (z, y, x): the grid value at
// voxel (i, j, k) is (k, j, i). The warp operator that consumes these arrays
// expects exactly this layout, so it must not be reordered.
package grid

import (
	"fmt"

	"mriregdata/internal/models"
)

// GenerateGrid returns the index grid for a volume of the given shape.
// The result has shape (X, Y, Z, 3) and holds (k, j, i) at voxel (i, j, k).
func GenerateGrid(shape [3]int) (models.Field, error) {
	if err := checkShape(shape, 1); err != nil {
		return models.Field{}, err
	}

	axes := [3][]float64{
		indexAxis(shape[0]),
		indexAxis(shape[1]),
		indexAxis(shape[2]),
	}
	return mesh(shape, axes), nil
}

// GenerateGridUnit returns the grid for the given shape with every axis
// centered and scaled to span [-1, 1]:
//
//	coord = (idx - (dim-1)/2) / (dim-1) * 2
//
// An axis of size 1 has no extent to scale and yields ErrDegenerateVolume.
func GenerateGridUnit(shape [3]int) (models.Field, error) {
	if err := checkShape(shape, 2); err != nil {
		return models.Field{}, err
	}

	axes := [3][]float64{
		unitAxis(shape[0]),
		unitAxis(shape[1]),
		unitAxis(shape[2]),
	}
	return mesh(shape, axes), nil
}

// mesh lays the per-axis coordinates out as (z, y, x) vectors over an
// (X, Y, Z) volume
func mesh(shape [3]int, axes [3][]float64) models.Field {
	nx, ny, nz := shape[0], shape[1], shape[2]
	g := models.NewField(nx, ny, nz, 3)

	idx := 0
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				g.Data[idx] = axes[2][k]
				g.Data[idx+1] = axes[1][j]
				g.Data[idx+2] = axes[0][i]
				idx += 3
			}
		}
	}
	return g
}

func indexAxis(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func unitAxis(n int) []float64 {
	out := make([]float64, n)
	half := float64(n-1) / 2
	span := float64(n - 1)
	for i := range out {
		out[i] = (float64(i) - half) / span * 2
	}
	return out
}

func checkShape(shape [3]int, min int) error {
	for axis, d := range shape {
		if d <= 0 {
			return fmt.Errorf("grid shape %v: axis %d: %w", shape, axis, models.ErrInvalidShape)
		}
		if d < min {
			return fmt.Errorf("grid shape %v: axis %d has size %d: %w", shape, axis, d, models.ErrDegenerateVolume)
		}
	}
	return nil
}
