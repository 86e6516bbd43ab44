package models

// Volume is an intensity image held as a flat row-major array.
// Loaded volumes carry leading singleton axes: (1, X, Y, Z) for the
// channel-first form and (1, 1, X, Y, Z) for the batched form.
type Volume struct {
	// Data holds the voxel intensities in row-major order over Shape
	Data []float64

	// Shape lists the array dimensions, slowest-varying first
	Shape []int
}

// NewVolume allocates a zeroed volume with the given shape
func NewVolume(shape ...int) Volume {
	return Volume{
		Data:  make([]float64, product(shape)),
		Shape: append([]int(nil), shape...),
	}
}

// Size returns the number of voxels implied by Shape
func (v Volume) Size() int {
	return product(v.Shape)
}

// Spatial returns the trailing three dimensions (X, Y, Z).
// It returns false when the volume has fewer than three axes.
func (v Volume) Spatial() ([3]int, bool) {
	var dims [3]int
	n := len(v.Shape)
	if n < 3 {
		return dims, false
	}
	copy(dims[:], v.Shape[n-3:])
	return dims, true
}

// Clone returns a deep copy
func (v Volume) Clone() Volume {
	return Volume{
		Data:  append([]float64(nil), v.Data...),
		Shape: append([]int(nil), v.Shape...),
	}
}

// Field is a channel-last array of vectors: a coordinate grid of shape
// (X, Y, Z, 3) or a displacement field of shape (X, Y, Z, C) or
// (B, X, Y, Z, C). Channel 0 holds z, channel 1 y and channel 2 x.
type Field struct {
	// Data holds the vector components in row-major order over Shape
	Data []float64

	// Shape lists the array dimensions, channels last
	Shape []int
}

// NewField allocates a zeroed field with the given shape
func NewField(shape ...int) Field {
	return Field{
		Data:  make([]float64, product(shape)),
		Shape: append([]int(nil), shape...),
	}
}

// Channels returns the size of the last axis
func (f Field) Channels() int {
	if len(f.Shape) == 0 {
		return 0
	}
	return f.Shape[len(f.Shape)-1]
}

// At returns the component c of the vector at voxel (i, j, k) of an
// unbatched (X, Y, Z, C) field
func (f Field) At(i, j, k, c int) float64 {
	return f.Data[f.offset(i, j, k)+c]
}

// Set writes the component c of the vector at voxel (i, j, k)
func (f Field) Set(i, j, k, c int, value float64) {
	f.Data[f.offset(i, j, k)+c] = value
}

func (f Field) offset(i, j, k int) int {
	y, z, c := f.Shape[1], f.Shape[2], f.Shape[3]
	return ((i*y+j)*z + k) * c
}

// Clone returns a deep copy
func (f Field) Clone() Field {
	return Field{
		Data:  append([]float64(nil), f.Data...),
		Shape: append([]int(nil), f.Shape...),
	}
}

// Pair is two volumes drawn from the same collection
type Pair struct {
	A, B Volume

	// NameA and NameB identify where A and B were loaded from
	NameA, NameB string
}

// PredictRecord couples the fixed image and label with one moving entry.
// Index is the position that was requested.
type PredictRecord struct {
	Fixed      Volume
	Move       Volume
	FixedLabel Volume
	MoveLabel  Volume
	Index      int
}

func product(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
