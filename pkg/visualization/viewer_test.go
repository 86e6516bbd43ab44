package visualization

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"mriregdata/internal/models"
)

// createTestVolume fills a (1, nx, ny, nz) volume with value(i, j, k)
func createTestVolume(nx, ny, nz int, value func(i, j, k int) float64) models.Volume {
	v := models.NewVolume(1, nx, ny, nz)
	idx := 0
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				v.Data[idx] = value(i, j, k)
				idx++
			}
		}
	}
	return v
}

// TestNewViewer verifies that a new viewer picks up the spatial dimensions
func TestNewViewer(t *testing.T) {
	v := createTestVolume(10, 8, 5, func(i, j, k int) float64 { return float64(i + j + k) })

	viewer, err := NewViewer(v)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}

	if viewer.nx != 10 || viewer.ny != 8 || viewer.nz != 5 {
		t.Errorf("Expected dimensions 10x8x5, got %dx%dx%d", viewer.nx, viewer.ny, viewer.nz)
	}
	if viewer.lo != 0 || viewer.hi != 20 {
		t.Errorf("Expected window [0, 20], got [%f, %f]", viewer.lo, viewer.hi)
	}
}

func TestNewViewerRejectsBadVolumes(t *testing.T) {
	if _, err := NewViewer(models.Volume{Data: []float64{1, 2}, Shape: []int{2}}); !errors.Is(err, models.ErrInvalidShape) {
		t.Errorf("Expected ErrInvalidShape, got %v", err)
	}
	bad := models.Volume{Data: make([]float64, 5), Shape: []int{1, 2, 2, 2}}
	if _, err := NewViewer(bad); !errors.Is(err, models.ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

// TestExtractSlice verifies slice dimensions and windowed values
func TestExtractSlice(t *testing.T) {
	nx, ny, nz := 10, 8, 5
	// each z plane holds a single value from 0 to 1
	v := createTestVolume(nx, ny, nz, func(i, j, k int) float64 { return float64(k) / float64(nz-1) })

	viewer, err := NewViewer(v)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}

	for k := 0; k < nz; k++ {
		img, err := viewer.ExtractSlice("z", k)
		if err != nil {
			t.Fatalf("Failed to extract Z slice at position %d: %v", k, err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != nx || bounds.Dy() != ny {
			t.Errorf("Expected Z slice dimensions %dx%d, got %dx%d", nx, ny, bounds.Dx(), bounds.Dy())
		}

		gray, ok := img.(*image.Gray16)
		if !ok {
			t.Fatalf("Expected *image.Gray16, got %T", img)
		}
		want := uint16(float64(k) / float64(nz-1) * 65535)
		got := gray.Gray16At(nx/2, ny/2).Y
		if diff := int(got) - int(want); diff > 1 || diff < -1 {
			t.Errorf("Expected Z slice value ~%d at center, got %d", want, got)
		}
	}

	imgX, err := viewer.ExtractSlice("x", nx/2)
	if err != nil {
		t.Fatalf("Failed to extract X slice: %v", err)
	}
	if b := imgX.Bounds(); b.Dx() != ny || b.Dy() != nz {
		t.Errorf("Expected X slice dimensions %dx%d, got %dx%d", ny, nz, b.Dx(), b.Dy())
	}

	imgY, err := viewer.ExtractSlice("y", ny/2)
	if err != nil {
		t.Fatalf("Failed to extract Y slice: %v", err)
	}
	if b := imgY.Bounds(); b.Dx() != nx || b.Dy() != nz {
		t.Errorf("Expected Y slice dimensions %dx%d, got %dx%d", nx, nz, b.Dx(), b.Dy())
	}

	if _, err := viewer.ExtractSlice("invalid", 0); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
	if _, err := viewer.ExtractSlice("z", nz); err == nil {
		t.Error("Expected error for out of bounds position, got nil")
	}
	if _, err := viewer.ExtractSlice("x", -1); err == nil {
		t.Error("Expected error for negative position, got nil")
	}
}

// TestExtractRegion verifies that 3D regions are correctly cropped
func TestExtractRegion(t *testing.T) {
	nx, ny, nz := 10, 10, 5
	value := func(i, j, k int) float64 { return float64(i*100 + j*10 + k) }
	viewer, err := NewViewer(createTestVolume(nx, ny, nz, value))
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}

	region, err := viewer.ExtractRegion(2, 3, 1, 4, 3, 2)
	if err != nil {
		t.Fatalf("Failed to extract region: %v", err)
	}

	wantShape := []int{1, 4, 3, 2}
	for d := range wantShape {
		if region.Shape[d] != wantShape[d] {
			t.Fatalf("Expected region shape %v, got %v", wantShape, region.Shape)
		}
	}

	idx := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 2; k++ {
				if want := value(2+i, 3+j, 1+k); region.Data[idx] != want {
					t.Errorf("Region value mismatch at (%d,%d,%d): expected %f, got %f", i, j, k, want, region.Data[idx])
				}
				idx++
			}
		}
	}

	if _, err := viewer.ExtractRegion(-1, 0, 0, 1, 1, 1); err == nil {
		t.Error("Expected error for negative start coordinate, got nil")
	}
	if _, err := viewer.ExtractRegion(0, 0, 0, 0, 1, 1); err == nil {
		t.Error("Expected error for zero size, got nil")
	}
	if _, err := viewer.ExtractRegion(nx-1, 0, 0, 2, 1, 1); err == nil {
		t.Error("Expected error for region extending beyond volume, got nil")
	}
}

// TestSaveSliceSequence verifies that a sequence of slices can be saved
func TestSaveSliceSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	nz := 3
	viewer, err := NewViewer(createTestVolume(5, 5, nz, func(i, j, k int) float64 { return float64(i * j) }))
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}

	outputDir := filepath.Join(t.TempDir(), "slices")
	if err := viewer.SaveSliceSequence("z", outputDir); err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}

	for k := 0; k < nz; k++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_z_%03d.png", k))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected slice file does not exist: %s", filename)
		}
	}

	if err := viewer.SaveSliceSequence("invalid", outputDir); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}

func TestSaveMiddleSlices(t *testing.T) {
	viewer, err := NewViewer(createTestVolume(4, 6, 8, func(i, j, k int) float64 { return float64(i + k) }))
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}

	dir := t.TempDir()
	if err := viewer.SaveMiddleSlices(dir); err != nil {
		t.Fatalf("SaveMiddleSlices failed: %v", err)
	}
	for _, axis := range []string{"x", "y", "z"} {
		if _, err := os.Stat(filepath.Join(dir, "middle_"+axis+".png")); err != nil {
			t.Errorf("Expected middle %s slice: %v", axis, err)
		}
	}
}

func TestSaveHistogram(t *testing.T) {
	v := createTestVolume(6, 6, 6, func(i, j, k int) float64 { return float64(i*j + k) })

	path := filepath.Join(t.TempDir(), "hist.png")
	if err := SaveHistogram(v, 16, "test", path); err != nil {
		t.Fatalf("SaveHistogram failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("Expected non-empty histogram file: %v", err)
	}

	flat := createTestVolume(2, 2, 2, func(i, j, k int) float64 { return 1 })
	if err := SaveHistogram(flat, 16, "flat", path); !errors.Is(err, models.ErrDegenerateVolume) {
		t.Errorf("Expected ErrDegenerateVolume, got %v", err)
	}
}
