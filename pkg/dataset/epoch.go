package dataset

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"mriregdata/internal/models"
)

// EpochPairs enumerates every ordered pair of distinct volumes, so (A, B)
// and (B, A) are separate samples. Pairs are listed in lexicographic index
// order until Shuffle is called.
type EpochPairs struct {
	names []string
	norm  bool
	load  Loader

	mu    sync.RWMutex
	pairs [][2]int
}

// NewEpochPairs precomputes the N×(N−1) ordered pairs of names
func NewEpochPairs(names []string, norm bool, opts ...Option) (*EpochPairs, error) {
	if len(names) < 2 {
		return nil, fmt.Errorf("epoch pairs need at least 2 volumes, got %d: %w", len(names), models.ErrTooFewVolumes)
	}

	n := len(names)
	pairs := make([][2]int, 0, n*(n-1))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}

	o := buildOptions(opts)
	return &EpochPairs{
		names: append([]string(nil), names...),
		norm:  norm,
		load:  o.load,
		pairs: pairs,
	}, nil
}

// Len returns N×(N−1)
func (d *EpochPairs) Len() int {
	return len(d.pairs)
}

// At loads the pair stored at position i
func (d *EpochPairs) At(ctx context.Context, i int) (models.Pair, error) {
	a, b, err := d.Names(i)
	if err != nil {
		return models.Pair{}, err
	}
	return loadPair(ctx, d.load, a, b, d.norm)
}

// Names returns the identifiers of the pair at position i without loading it
func (d *EpochPairs) Names(i int) (string, string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := checkIndex(i, len(d.pairs)); err != nil {
		return "", "", err
	}
	p := d.pairs[i]
	return d.names[p[0]], d.names[p[1]], nil
}

// Shuffle reorders the pairs deterministically for the given seed
func (d *EpochPairs) Shuffle(seed int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(d.pairs), func(i, j int) {
		d.pairs[i], d.pairs[j] = d.pairs[j], d.pairs[i]
	})
}
