package dataset

import (
	"context"
	"fmt"

	"mriregdata/internal/models"
)

// Prediction pairs one fixed image and label with each moving image and
// label. The fixed volumes are reloaded on every access.
type Prediction struct {
	fixed        string
	fixedLabel   string
	moving       []string
	movingLabels []string
	norm         bool
	load         Loader
}

// NewPrediction creates the inference dataset. moving and movingLabels are
// parallel lists and must have the same length.
func NewPrediction(fixed, fixedLabel string, moving, movingLabels []string, norm bool, opts ...Option) (*Prediction, error) {
	if len(moving) != len(movingLabels) {
		return nil, fmt.Errorf("%d moving images but %d moving labels: %w", len(moving), len(movingLabels), models.ErrShapeMismatch)
	}

	o := buildOptions(opts)
	return &Prediction{
		fixed:        fixed,
		fixedLabel:   fixedLabel,
		moving:       append([]string(nil), moving...),
		movingLabels: append([]string(nil), movingLabels...),
		norm:         norm,
		load:         o.load,
	}, nil
}

// Len returns the number of moving entries
func (d *Prediction) Len() int {
	return len(d.moving)
}

// At loads the fixed pair and the moving pair at index. Only the two
// images are normalized.
func (d *Prediction) At(ctx context.Context, index int) (models.PredictRecord, error) {
	if err := checkIndex(index, len(d.moving)); err != nil {
		return models.PredictRecord{}, err
	}

	fixed, err := loadVolume(ctx, d.load, d.fixed, d.norm)
	if err != nil {
		return models.PredictRecord{}, err
	}
	move, err := loadVolume(ctx, d.load, d.moving[index], d.norm)
	if err != nil {
		return models.PredictRecord{}, err
	}
	fixedLabel, err := loadVolume(ctx, d.load, d.fixedLabel, false)
	if err != nil {
		return models.PredictRecord{}, err
	}
	moveLabel, err := loadVolume(ctx, d.load, d.movingLabels[index], false)
	if err != nil {
		return models.PredictRecord{}, err
	}

	return models.PredictRecord{
		Fixed:      fixed,
		Move:       move,
		FixedLabel: fixedLabel,
		MoveLabel:  moveLabel,
		Index:      index,
	}, nil
}

// MovingName returns the moving image identifier at index
func (d *Prediction) MovingName(index int) (string, error) {
	if err := checkIndex(index, len(d.moving)); err != nil {
		return "", err
	}
	return d.moving[index], nil
}
