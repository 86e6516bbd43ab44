package nifti

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/pgzip"

	"mriregdata/internal/models"
)

// Save writes data of the given row-major shape as a float32 NIfTI-1 file.
// Leading singleton axes beyond the three spatial ones are dropped, so a
// (1, X, Y, Z) volume is stored as X×Y×Z. A path ending in .gz is compressed.
func Save(path string, data []float64, shape []int) error {
	dims := squeeze(shape)
	if len(dims) == 0 || len(dims) > 4 {
		return fmt.Errorf("cannot store array of shape %v: %w", shape, models.ErrInvalidShape)
	}
	n := 1
	for _, d := range dims {
		if d < 1 || d > math.MaxInt16 {
			return fmt.Errorf("cannot store array of shape %v: %w", shape, models.ErrInvalidShape)
		}
		n *= d
	}
	if n != len(data) {
		return fmt.Errorf("shape %v needs %d values, got %d: %w", shape, n, len(data), models.ErrShapeMismatch)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	var zw *pgzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zw = pgzip.NewWriter(f)
		w = zw
	}
	bw := bufio.NewWriter(w)

	if err := encode(bw, data, dims); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("error compressing %s: %w", path, err)
		}
	}
	return f.Close()
}

// SaveImage writes an intensity volume
func SaveImage(path string, v models.Volume) error {
	return Save(path, v.Data, v.Shape)
}

// SaveLabel writes a label map. Labels are stored as float32 like images.
func SaveLabel(path string, v models.Volume) error {
	return Save(path, v.Data, v.Shape)
}

// SaveFlow writes a displacement field of shape (X, Y, Z, C). The channel
// axis becomes the fourth stored dimension.
func SaveFlow(path string, f models.Field) error {
	return Save(path, f.Data, f.Shape)
}

// encode writes the header, the empty extension flag and the voxels in
// NIfTI order (x fastest)
func encode(w io.Writer, data []float64, dims []int) error {
	h := newHeader(dims)
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	if _, err := w.Write(make([]byte, voxOffset-headerSize)); err != nil {
		return err
	}

	ext := [4]int{1, 1, 1, 1}
	copy(ext[:], dims)
	nx, ny, nz, nt := ext[0], ext[1], ext[2], ext[3]

	buf := make([]float32, nx)
	for t := 0; t < nt; t++ {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					buf[x] = float32(data[((x*ny+y)*nz+z)*nt+t])
				}
				if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func squeeze(shape []int) []int {
	dims := shape
	for len(dims) > 3 && dims[0] == 1 {
		dims = dims[1:]
	}
	return dims
}
