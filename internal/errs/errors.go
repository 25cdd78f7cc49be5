package errs

import "errors"

// Sentinel errors shared across packages. Wrap with fmt.Errorf("...: %w", err)
// and match with errors.Is.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidDataset        = errors.New("invalid dataset")
	ErrUnknownMethod         = errors.New("unknown normalization method")
	ErrUnsupportedType       = errors.New("unsupported dataset type")
	ErrUnsupportedFormat     = errors.New("unsupported format")
	ErrNotNormalized         = errors.New("dataset not normalized")
	ErrQualityBelowThreshold = errors.New("data quality below threshold")
)
