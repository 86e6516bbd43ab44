package nifti

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	niftilib "github.com/KyungWonPark/nifti"
	"github.com/klauspost/pgzip"
	"gonum.org/v1/gonum/mat"

	"mriregdata/internal/models"
)

const (
	headerSize = 348

	// voxOffset is the header plus the four-byte extension flag
	voxOffset = 352

	dtFloat32 = 16

	// xformAligned marks the stored affine as aligned to another volume,
	// the code used when an affine is supplied without a source header
	xformAligned = 2
)

var magicSingleFile = [4]byte{'n', '+', '1', 0}

// header is the on-disk NIfTI-1 header
type header = niftilib.Nifti1Header

// headerShape returns the stored dimensions, fastest-varying axis first
func headerShape(h *header) ([]int, error) {
	n := int(h.Dim[0])
	if n < 1 || n > 7 {
		return nil, fmt.Errorf("invalid dimension count %d: %w", n, models.ErrDecode)
	}
	dims := make([]int, n)
	for i := range dims {
		dims[i] = int(h.Dim[i+1])
		if dims[i] < 1 {
			return nil, fmt.Errorf("invalid size %d on axis %d: %w", dims[i], i, models.ErrDecode)
		}
	}
	return dims, nil
}

// openImage opens a .nii or .nii.gz file for sequential reading
func openImage(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return f, f.Close, nil
	}

	zr, err := pgzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%s: %v: %w", path, err, models.ErrDecode)
	}
	return zr, func() error {
		zr.Close()
		return f.Close()
	}, nil
}

// decodeHeader reads the header from r, detecting the byte order from
// sizeof_hdr
func decodeHeader(r io.Reader) (*header, binary.ByteOrder, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, fmt.Errorf("short header: %v: %w", err, models.ErrDecode)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if int32(binary.LittleEndian.Uint32(raw[:4])) != headerSize {
		if int32(binary.BigEndian.Uint32(raw[:4])) != headerSize {
			return nil, nil, fmt.Errorf("not a NIfTI-1 file: %w", models.ErrDecode)
		}
		order = binary.BigEndian
	}

	h := &header{}
	if err := binary.Read(bytes.NewReader(raw), order, h); err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, models.ErrDecode)
	}
	return h, order, nil
}

// readHeader decodes only the header of the file at path
func readHeader(path string) (*header, error) {
	r, closeFn, err := openImage(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	h, _, err := decodeHeader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// newHeader builds a float32 header for the given dimensions (fastest axis
// first) with an identity affine and no other metadata
func newHeader(dims []int) *header {
	h := &header{
		SizeofHdr: headerSize,
		Regular:   'r',
		Datatype:  dtFloat32,
		Bitpix:    32,
		VoxOffset: voxOffset,
		SclSlope:  1,
		QformCode: xformAligned,
		SformCode: xformAligned,
		Magic:     magicSingleFile,
	}

	h.Dim[0] = int16(len(dims))
	for i := range h.Dim[1:] {
		h.Dim[i+1] = 1
		h.Pixdim[i+1] = 1
	}
	for i, d := range dims {
		h.Dim[i+1] = int16(d)
	}
	// qfac
	h.Pixdim[0] = 1

	affine := identityAffine()
	for c := 0; c < 4; c++ {
		h.SrowX[c] = float32(affine.At(0, c))
		h.SrowY[c] = float32(affine.At(1, c))
		h.SrowZ[c] = float32(affine.At(2, c))
	}
	return h
}

func identityAffine() *mat.DiagDense {
	return mat.NewDiagDense(4, []float64{1, 1, 1, 1})
}
