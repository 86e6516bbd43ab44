package dataset

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"mriregdata/internal/models"
)

// RandomPairs draws a random unordered pair of distinct volumes on every
// access. Distinct accesses may return the same pair.
type RandomPairs struct {
	names      []string
	iterations int
	norm       bool
	load       Loader

	// mu guards rng, which is not safe for concurrent use
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPairs creates a sampler over names reporting iterations as its
// length. A nil rng is seeded from the clock; pass a seeded source for
// reproducible draws.
func NewRandomPairs(names []string, iterations int, norm bool, rng *rand.Rand, opts ...Option) (*RandomPairs, error) {
	if len(names) < 2 {
		return nil, fmt.Errorf("random pairs need at least 2 volumes, got %d: %w", len(names), models.ErrTooFewVolumes)
	}
	if iterations < 0 {
		return nil, fmt.Errorf("negative iteration count %d", iterations)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	o := buildOptions(opts)
	return &RandomPairs{
		names:      append([]string(nil), names...),
		iterations: iterations,
		norm:       norm,
		load:       o.load,
		rng:        rng,
	}, nil
}

// Len returns the iteration count
func (d *RandomPairs) Len() int {
	return d.iterations
}

// At ignores its index: it permutes the collection and loads the first two
func (d *RandomPairs) At(ctx context.Context, _ int) (models.Pair, error) {
	a, b := d.draw()
	return loadPair(ctx, d.load, d.names[a], d.names[b], d.norm)
}

func (d *RandomPairs) draw() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	perm := d.rng.Perm(len(d.names))
	return perm[0], perm[1]
}
