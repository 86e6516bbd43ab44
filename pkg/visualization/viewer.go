package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"mriregdata/internal/models"
	"mriregdata/pkg/volume"
)

// Viewer extracts 2D previews and sub-regions from a loaded volume.
// Intensities are windowed to the volume's own [min, max] range.
type Viewer struct {
	// volumeData holds the voxels in (X, Y, Z) row-major order
	volumeData []float64

	// dimensions of the volume
	nx, ny, nz int

	// intensity window
	lo, hi float64
}

// NewViewer creates a viewer over the trailing three axes of v
func NewViewer(v models.Volume) (*Viewer, error) {
	dims, ok := v.Spatial()
	if !ok {
		return nil, fmt.Errorf("volume of shape %v has no spatial axes: %w", v.Shape, models.ErrInvalidShape)
	}
	if dims[0]*dims[1]*dims[2] != len(v.Data) {
		return nil, fmt.Errorf("volume of shape %v holds %d voxels: %w", v.Shape, len(v.Data), models.ErrShapeMismatch)
	}

	lo, hi := volume.MinMax(v)
	return &Viewer{
		volumeData: v.Data,
		nx:         dims[0],
		ny:         dims[1],
		nz:         dims[2],
		lo:         lo,
		hi:         hi,
	}, nil
}

func (v *Viewer) at(i, j, k int) float64 {
	return v.volumeData[(i*v.ny+j)*v.nz+k]
}

func (v *Viewer) gray(value float64) color.Gray16 {
	if v.hi <= v.lo {
		return color.Gray16{}
	}
	scaled := (value - v.lo) / (v.hi - v.lo)
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, scaled*65535)))}
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis.
// An x slice spans (Y, Z), a y slice (X, Z) and a z slice (X, Y), with the
// first axis running horizontally.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.Gray16

	switch axis {
	case "x", "X":
		if position >= v.nx {
			return nil, fmt.Errorf("position %d exceeds x size %d", position, v.nx)
		}
		img = image.NewGray16(image.Rect(0, 0, v.ny, v.nz))
		for j := 0; j < v.ny; j++ {
			for k := 0; k < v.nz; k++ {
				img.SetGray16(j, k, v.gray(v.at(position, j, k)))
			}
		}

	case "y", "Y":
		if position >= v.ny {
			return nil, fmt.Errorf("position %d exceeds y size %d", position, v.ny)
		}
		img = image.NewGray16(image.Rect(0, 0, v.nx, v.nz))
		for i := 0; i < v.nx; i++ {
			for k := 0; k < v.nz; k++ {
				img.SetGray16(i, k, v.gray(v.at(i, position, k)))
			}
		}

	case "z", "Z":
		if position >= v.nz {
			return nil, fmt.Errorf("position %d exceeds z size %d", position, v.nz)
		}
		img = image.NewGray16(image.Rect(0, 0, v.nx, v.ny))
		for i := 0; i < v.nx; i++ {
			for j := 0; j < v.ny; j++ {
				img.SetGray16(i, j, v.gray(v.at(i, j, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// ExtractRegion crops a box from the volume and returns it with shape
// (1, sizeX, sizeY, sizeZ)
func (v *Viewer) ExtractRegion(startX, startY, startZ, sizeX, sizeY, sizeZ int) (models.Volume, error) {
	if startX < 0 || startY < 0 || startZ < 0 {
		return models.Volume{}, fmt.Errorf("start coordinates must be non-negative")
	}

	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return models.Volume{}, fmt.Errorf("size dimensions must be positive")
	}

	if startX+sizeX > v.nx || startY+sizeY > v.ny || startZ+sizeZ > v.nz {
		return models.Volume{}, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := models.NewVolume(1, sizeX, sizeY, sizeZ)
	idx := 0
	for i := 0; i < sizeX; i++ {
		for j := 0; j < sizeY; j++ {
			for k := 0; k < sizeZ; k++ {
				region.Data[idx] = v.at(startX+i, startY+j, startZ+k)
				idx++
			}
		}
	}

	return region, nil
}

// SaveSlice saves an extracted slice as a PNG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveSliceSequence extracts and saves every slice along the specified axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.nx
	case "y", "Y":
		maxPos = v.ny
	case "z", "Z":
		maxPos = v.nz
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// SaveMiddleSlices writes the central slice along each axis into outputDir
func (v *Viewer) SaveMiddleSlices(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	positions := map[string]int{"x": v.nx / 2, "y": v.ny / 2, "z": v.nz / 2}
	for _, axis := range []string{"x", "y", "z"} {
		img, err := v.ExtractSlice(axis, positions[axis])
		if err != nil {
			return err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("middle_%s.png", axis))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}
	return nil
}
