package sprite

import "errors"

// Error kinds. Every kind except ErrMissingBackend is scoped to one entity.
var (
	ErrUnknownPrefix       = errors.New("unknown or unsupported prefix")
	ErrMissingActionFolder = errors.New("missing action folder")
	ErrMissingDirection    = errors.New("missing direction")
	ErrEmptyFolder         = errors.New("no PNGs in folder")
	ErrFrameCountMismatch  = errors.New("frame count mismatch")
	ErrInsufficientFrames  = errors.New("not enough frames")
	ErrEmptyGrid           = errors.New("no rows generated")
	ErrInvalidOutputName   = errors.New("invalid output name")
	ErrStitchFailed        = errors.New("stitch failed")
	ErrMissingBackend      = errors.New("compositing backend not found")
)
