package volume

import (
	"errors"
	"math"
	"testing"

	"mriregdata/internal/models"
)

func volumeOf(values ...float64) models.Volume {
	return models.Volume{Data: values, Shape: []int{1, len(values), 1, 1}}
}

// TestNormalizeKnownRange maps min=2, max=10 onto [0, 1]
func TestNormalizeKnownRange(t *testing.T) {
	v := volumeOf(2, 6, 10, 4)

	norm, err := Normalize(v)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	want := []float64{0, 0.5, 1, 0.25}
	for i, w := range want {
		if norm.Data[i] != w {
			t.Errorf("value %v normalized to %v, want %v", v.Data[i], norm.Data[i], w)
		}
	}

	if v.Data[1] != 6 {
		t.Errorf("input modified: %v", v.Data)
	}
	if len(norm.Shape) != 4 || norm.Shape[1] != 4 {
		t.Errorf("shape not preserved: %v", norm.Shape)
	}
}

func TestNormalizeConstantVolume(t *testing.T) {
	if _, err := Normalize(volumeOf(3, 3, 3)); !errors.Is(err, models.ErrDegenerateVolume) {
		t.Errorf("expected ErrDegenerateVolume, got %v", err)
	}
	if _, err := Normalize(models.Volume{}); !errors.Is(err, models.ErrDegenerateVolume) {
		t.Errorf("expected ErrDegenerateVolume for empty volume, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	s := Describe(volumeOf(1, 2, 3, 4, 5))
	if s.Min != 1 || s.Max != 5 || s.Voxels != 5 {
		t.Errorf("unexpected stats: %+v", s)
	}
	if math.Abs(s.Mean-3) > 1e-12 {
		t.Errorf("mean = %v, want 3", s.Mean)
	}
	// sample standard deviation
	if math.Abs(s.Std-math.Sqrt(2.5)) > 1e-12 {
		t.Errorf("std = %v, want %v", s.Std, math.Sqrt(2.5))
	}
}

func TestCompareIdentical(t *testing.T) {
	v := volumeOf(0.1, 0.4, 0.2, 0.9, 0.5, 0.3)

	m, err := Compare(v, v)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if m.RMSE != 0 {
		t.Errorf("RMSE = %v, want 0", m.RMSE)
	}
	if m.EntropyDiff != 0 {
		t.Errorf("EntropyDiff = %v, want 0", m.EntropyDiff)
	}
	if math.Abs(m.SSIM-1) > 1e-9 {
		t.Errorf("SSIM = %v, want 1", m.SSIM)
	}
}

func TestCompareDifferent(t *testing.T) {
	a := volumeOf(0, 0, 1, 1)
	b := volumeOf(1, 1, 0, 0)

	m, err := Compare(a, b)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if m.RMSE != 1 {
		t.Errorf("RMSE = %v, want 1", m.RMSE)
	}
	if m.SSIM >= 0 {
		t.Errorf("SSIM of inverted volumes = %v, want negative", m.SSIM)
	}
}

func TestCompareShapeMismatch(t *testing.T) {
	_, err := Compare(volumeOf(1, 2, 3), volumeOf(1, 2))
	if !errors.Is(err, models.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestDice(t *testing.T) {
	a := volumeOf(0, 1, 1, 2, 2, 0)
	b := volumeOf(0, 1, 0, 2, 2, 2)

	got, err := Dice(a, b)
	if err != nil {
		t.Fatalf("Dice failed: %v", err)
	}
	// label 1: 2*1/(2+1), label 2: 2*2/(2+3)
	want := (2.0/3.0 + 4.0/5.0) / 2
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Dice = %v, want %v", got, want)
	}

	empty, err := Dice(volumeOf(0, 0), volumeOf(0, 0))
	if err != nil || empty != 1 {
		t.Errorf("Dice of empty maps = %v, %v; want 1, nil", empty, err)
	}
}

func TestEntropy(t *testing.T) {
	if e := Entropy([]float64{5, 5, 5}); e != 0 {
		t.Errorf("entropy of constant data = %v, want 0", e)
	}
	if e := Entropy([]float64{0, 1}); math.Abs(e-1) > 1e-12 {
		t.Errorf("entropy of two equiprobable values = %v, want 1", e)
	}
}
