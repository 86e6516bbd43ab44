package models

import "errors"

// Error kinds shared by the loaders, grid builders and datasets.
// Callers match them with errors.Is.
var (
	ErrFileNotFound     = errors.New("file not found")
	ErrDecode           = errors.New("decode error")
	ErrDegenerateVolume = errors.New("degenerate volume")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrInvalidShape     = errors.New("invalid shape")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrTooFewVolumes    = errors.New("too few volumes")
)
