// Package preparation runs a dataset end to end: it loads every sample with
// a pool of workers, scores each fixed/moving pair and optionally writes the
// prepared volumes back to disk for inspection.
package preparation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mriregdata/internal/ctxlog"
	"mriregdata/internal/models"
	"mriregdata/pkg/dataset"
	"mriregdata/pkg/nifti"
	"mriregdata/pkg/volume"
)

// Params holds the preparation settings
type Params struct {
	// NumCores is the number of samples loaded concurrently
	NumCores int

	// SaveIntermediaryResults writes every prepared volume as NIfTI
	SaveIntermediaryResults bool

	// IntermediaryDir receives one sub-directory per sample.
	// Only used when SaveIntermediaryResults is true.
	IntermediaryDir string
}

// SampleReport holds the scores of one sample
type SampleReport struct {
	Index        int
	NameA, NameB string
	Metrics      volume.PairMetrics

	// Dice is the label overlap; only set for prediction records
	Dice float64
}

// Summary aggregates a processed dataset
type Summary struct {
	Samples  int
	Mean     volume.PairMetrics
	MeanDice float64
	Reports  []SampleReport
	Elapsed  time.Duration
}

// Preparer processes datasets according to Params
type Preparer struct {
	params *Params
}

// NewPreparer creates a new preparer with the provided parameters
func NewPreparer(params *Params) *Preparer {
	return &Preparer{params: params}
}

// ProcessPairs scores every pair of ds. Writes go to pair_%05d/{a,b}.nii.
func (p *Preparer) ProcessPairs(ctx context.Context, ds dataset.Dataset[models.Pair]) (*Summary, error) {
	return run(ctx, p, ds, func(pair models.Pair, index int) (SampleReport, error) {
		metrics, err := volume.Compare(pair.A, pair.B)
		if err != nil {
			return SampleReport{}, fmt.Errorf("failed to compare %s and %s: %w", pair.NameA, pair.NameB, err)
		}

		if p.params.SaveIntermediaryResults {
			stage := fmt.Sprintf("pair_%05d", index)
			if err := p.saveIntermediaryResult(stage, "a.nii", pair.A); err != nil {
				return SampleReport{}, err
			}
			if err := p.saveIntermediaryResult(stage, "b.nii", pair.B); err != nil {
				return SampleReport{}, err
			}
		}

		return SampleReport{Index: index, NameA: pair.NameA, NameB: pair.NameB, Metrics: metrics}, nil
	})
}

// ProcessPrediction scores every record of ds, including the Dice overlap of
// the fixed and moving labels. Writes go to record_%05d/.
func (p *Preparer) ProcessPrediction(ctx context.Context, ds dataset.Dataset[models.PredictRecord]) (*Summary, error) {
	return run(ctx, p, ds, func(rec models.PredictRecord, index int) (SampleReport, error) {
		metrics, err := volume.Compare(rec.Fixed, rec.Move)
		if err != nil {
			return SampleReport{}, fmt.Errorf("failed to compare record %d: %w", rec.Index, err)
		}
		dice, err := volume.Dice(rec.FixedLabel, rec.MoveLabel)
		if err != nil {
			return SampleReport{}, fmt.Errorf("failed to score labels of record %d: %w", rec.Index, err)
		}

		if p.params.SaveIntermediaryResults {
			stage := fmt.Sprintf("record_%05d", index)
			outputs := []struct {
				name  string
				vol   models.Volume
				label bool
			}{
				{"fixed.nii", rec.Fixed, false},
				{"move.nii", rec.Move, false},
				{"fixed_label.nii", rec.FixedLabel, true},
				{"move_label.nii", rec.MoveLabel, true},
			}
			for _, o := range outputs {
				save := p.saveIntermediaryResult
				if o.label {
					save = p.saveIntermediaryLabel
				}
				if err := save(stage, o.name, o.vol); err != nil {
					return SampleReport{}, err
				}
			}
		}

		return SampleReport{Index: rec.Index, Metrics: metrics, Dice: dice}, nil
	})
}

// run prefetches the samples of ds on NumCores workers and scores them in
// index order. The first error cancels the remaining loads.
func run[T any](ctx context.Context, p *Preparer, ds dataset.Dataset[T], score func(T, int) (SampleReport, error)) (*Summary, error) {
	log := ctxlog.FromContext(ctx)

	if p.params.SaveIntermediaryResults {
		if err := os.MkdirAll(p.params.IntermediaryDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create intermediary directory: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	total := ds.Len()
	summary := &Summary{Reports: make([]SampleReport, 0, total)}

	for res := range dataset.Prefetch(ctx, ds, p.params.NumCores) {
		if res.Err != nil {
			return nil, fmt.Errorf("sample %d: %w", res.Index, res.Err)
		}
		report, err := score(res.Sample, res.Index)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", res.Index, err)
		}
		summary.Reports = append(summary.Reports, report)

		log.Debug("processed sample", "index", res.Index, "of", total, "rmse", report.Metrics.RMSE)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary.Samples = len(summary.Reports)
	summary.Elapsed = time.Since(start)
	summarize(summary)

	log.Info("dataset processed", "samples", summary.Samples, "elapsed", summary.Elapsed)
	return summary, nil
}

// summarize averages the per-sample metrics
func summarize(s *Summary) {
	if s.Samples == 0 {
		return
	}
	n := float64(s.Samples)
	for _, r := range s.Reports {
		s.Mean.MI += r.Metrics.MI / n
		s.Mean.EntropyDiff += r.Metrics.EntropyDiff / n
		s.Mean.RMSE += r.Metrics.RMSE / n
		s.Mean.SSIM += r.Metrics.SSIM / n
		s.MeanDice += r.Dice / n
	}
}

// saveIntermediaryResult writes v under IntermediaryDir/stage/name
func (p *Preparer) saveIntermediaryResult(stage, name string, v models.Volume) error {
	path := filepath.Join(p.params.IntermediaryDir, stage, name)
	if err := nifti.SaveImage(path, v); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// saveIntermediaryLabel writes a label map under IntermediaryDir/stage/name
func (p *Preparer) saveIntermediaryLabel(stage, name string, v models.Volume) error {
	path := filepath.Join(p.params.IntermediaryDir, stage, name)
	if err := nifti.SaveLabel(path, v); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
