// Package nifti reads and writes NIfTI-1 volumes as float64 arrays.
//
// Loaded arrays are channel-first: Load4D prepends one singleton axis to the
// stored dimensions and Load5D prepends two (channel and batch). Voxels of
// any integer or float datatype are converted to float64 with scl_slope and
// scl_inter applied. Saved files carry an identity affine and no metadata
// from any source header.
package nifti

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"

	"mriregdata/internal/models"
)

// Load4D reads the volume at path and returns it with shape (1, X, Y, Z)
func Load4D(path string) (models.Volume, error) {
	return load(path, 1)
}

// Load5D reads the volume at path and returns it with shape (1, 1, X, Y, Z)
func Load5D(path string) (models.Volume, error) {
	return load(path, 2)
}

func load(path string, lead int) (models.Volume, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Volume{}, fmt.Errorf("%s: %w", path, models.ErrFileNotFound)
		}
		return models.Volume{}, fmt.Errorf("%s: %v: %w", path, err, models.ErrDecode)
	}

	r, closeFn, err := openImage(path)
	if err != nil {
		return models.Volume{}, fmt.Errorf("%s: %w", path, err)
	}
	defer closeFn()

	h, order, err := decodeHeader(r)
	if err != nil {
		return models.Volume{}, fmt.Errorf("%s: %w", path, err)
	}
	dims, err := headerShape(h)
	if err != nil {
		return models.Volume{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(dims) > 4 {
		return models.Volume{}, fmt.Errorf("%s: %d-dimensional images are not supported: %w", path, len(dims), models.ErrDecode)
	}
	dt, err := lookupDatatype(h.Datatype)
	if err != nil {
		return models.Volume{}, fmt.Errorf("%s: %w", path, err)
	}

	// skip the extensions between the header and the voxels
	offset := int64(h.VoxOffset)
	if offset < headerSize {
		offset = voxOffset
	}
	if _, err := io.CopyN(io.Discard, r, offset-headerSize); err != nil {
		return models.Volume{}, fmt.Errorf("%s: truncated before voxel data: %v: %w", path, err, models.ErrDecode)
	}

	ext := [4]int{1, 1, 1, 1}
	copy(ext[:], dims)
	nvox := ext[0] * ext[1] * ext[2] * ext[3]

	raw := make([]byte, nvox*dt.size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return models.Volume{}, fmt.Errorf("%s: expected %d bytes of voxel data: %v: %w", path, len(raw), err, models.ErrDecode)
	}

	slope, inter := scaling(h.SclSlope, h.SclInter)

	shape := make([]int, 0, lead+len(dims))
	for i := 0; i < lead; i++ {
		shape = append(shape, 1)
	}
	shape = append(shape, dims...)
	vol := models.NewVolume(shape...)

	// files store x fastest; the volume stores the last axis fastest
	nx, ny, nz, nt := ext[0], ext[1], ext[2], ext[3]
	for t := 0; t < nt; t++ {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					src := ((t*nz+z)*ny+y)*nx + x
					value := dt.decode(order, raw[src*dt.size:(src+1)*dt.size])
					vol.Data[((x*ny+y)*nz+z)*nt+t] = slope*value + inter
				}
			}
		}
	}
	return vol, nil
}

// scaling returns the slope and intercept to apply to raw voxel values.
// A zero or non-finite slope means the data is unscaled.
func scaling(slope, inter float32) (float64, float64) {
	s, i := float64(slope), float64(inter)
	if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return 1, 0
	}
	if math.IsNaN(i) || math.IsInf(i, 0) {
		i = 0
	}
	return s, i
}
