package dataset

import (
	"context"
	"io"
	"sync"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"mriregdata/internal/models"
)

// VolumeTensor converts v into a float32 tensor with the same shape
func VolumeTensor(v models.Volume) *tensors.Tensor {
	data := make([]float32, len(v.Data))
	for i, x := range v.Data {
		data[i] = float32(x)
	}
	return tensors.FromFlatDataAndDimensions(data, v.Shape...)
}

// PairTensors converts both volumes of a pair
func PairTensors(p models.Pair) (a, b *tensors.Tensor) {
	return VolumeTensor(p.A), VolumeTensor(p.B)
}

// Feed walks a pair dataset once per epoch for a gomlx training loop. It
// implements gomlx's train.Dataset: Yield returns the two volumes of the
// next pair as inputs and no labels, and io.EOF at the end of the epoch.
type Feed struct {
	name string
	ds   Dataset[models.Pair]

	// ctx is held because Yield has no context parameter
	ctx context.Context

	mu   sync.Mutex
	next int
}

// NewFeed wraps ds; ctx bounds every load made through Yield
func NewFeed(ctx context.Context, name string, ds Dataset[models.Pair]) *Feed {
	return &Feed{name: name, ds: ds, ctx: ctx}
}

// Name identifies the dataset in training logs
func (f *Feed) Name() string {
	return f.name
}

// Reset restarts the epoch
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next = 0
}

// Yield loads the next pair
func (f *Feed) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	f.mu.Lock()
	i := f.next
	if i >= f.ds.Len() {
		f.mu.Unlock()
		return nil, nil, nil, io.EOF
	}
	f.next++
	f.mu.Unlock()

	pair, err := f.ds.At(f.ctx, i)
	if err != nil {
		return nil, nil, nil, err
	}
	a, b := PairTensors(pair)
	return f.name, []*tensors.Tensor{a, b}, []*tensors.Tensor{}, nil
}
