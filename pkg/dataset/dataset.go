// Package dataset pairs volumes from a collection for registration training
// and inference.
//
// Three variants share the indexed-access Dataset interface:
//
// RandomPairs
//   - Length is a fixed iteration count, unrelated to the collection size
//   - Every access draws a fresh random pair; the index is ignored
//
// EpochPairs
//   - Every ordered pair (A, B) with A != B, fixed at construction
//   - Length is N×(N−1) and access is deterministic
//
// Prediction
//   - One fixed image and label against a list of moving images and labels
//   - Labels are never normalized
//
// Volumes are loaded on every access and never cached. Storage is
// pluggable through a Loader; the default reads NIfTI files.
package dataset

import (
	"context"
	"fmt"

	"mriregdata/internal/ctxlog"
	"mriregdata/internal/models"
	"mriregdata/pkg/nifti"
	"mriregdata/pkg/volume"
)

// Dataset is a finite, indexed collection of samples
type Dataset[T any] interface {
	Len() int
	At(ctx context.Context, i int) (T, error)
}

// Loader loads the volume identified by name
type Loader func(name string) (models.Volume, error)

// Option configures a dataset
type Option func(*options)

type options struct {
	load Loader
}

// WithLoader replaces the default NIfTI loader
func WithLoader(load Loader) Option {
	return func(o *options) {
		o.load = load
	}
}

func buildOptions(opts []Option) options {
	o := options{load: nifti.Load4D}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// loadVolume loads name and, when norm is set, min-max normalizes it
func loadVolume(ctx context.Context, load Loader, name string, norm bool) (models.Volume, error) {
	if err := ctx.Err(); err != nil {
		return models.Volume{}, err
	}

	v, err := load(name)
	if err != nil {
		return models.Volume{}, fmt.Errorf("failed to load %s: %w", name, err)
	}
	if norm {
		v, err = volume.Normalize(v)
		if err != nil {
			return models.Volume{}, fmt.Errorf("failed to normalize %s: %w", name, err)
		}
	}

	ctxlog.FromContext(ctx).Debug("loaded volume", "name", name, "shape", v.Shape, "norm", norm)
	return v, nil
}

func loadPair(ctx context.Context, load Loader, nameA, nameB string, norm bool) (models.Pair, error) {
	a, err := loadVolume(ctx, load, nameA, norm)
	if err != nil {
		return models.Pair{}, err
	}
	b, err := loadVolume(ctx, load, nameB, norm)
	if err != nil {
		return models.Pair{}, err
	}
	return models.Pair{A: a, B: b, NameA: nameA, NameB: nameB}, nil
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("index %d with length %d: %w", i, n, models.ErrIndexOutOfRange)
	}
	return nil
}
