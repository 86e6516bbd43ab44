package visualization

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"mriregdata/internal/models"
	"mriregdata/pkg/volume"
)

// SaveHistogram plots the intensity distribution of v with the given number
// of bins. The image format follows the extension of path.
func SaveHistogram(v models.Volume, bins int, title, path string) error {
	if bins < 1 {
		return fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}
	if lo, hi := volume.MinMax(v); hi <= lo {
		return fmt.Errorf("cannot plot histogram of constant volume: %w", models.ErrDegenerateVolume)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Intensity"
	p.Y.Label.Text = "Voxels"

	h, err := plotter.NewHist(plotter.Values(v.Data), bins)
	if err != nil {
		return fmt.Errorf("failed to bin intensities: %w", err)
	}
	p.Add(h)
	p.Add(plotter.NewGrid())

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save histogram: %w", err)
	}
	return nil
}
