package ingest

import (
	"errors"
	"fmt"
)

// ErrValidation matches every error raised before a network call.
var ErrValidation = errors.New("invalid upload batch")

// ErrEmptyBatch is returned when no files were selected.
var ErrEmptyBatch = fmt.Errorf("%w: no files selected", ErrValidation)

// FileTooLargeError names a file over the per-file limit.
type FileTooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %q is too large (%.2fMB). Maximum size is %dMB",
		e.Name, mib(e.Size), e.Limit/(1024*1024))
}

// Is reports ErrValidation as a match.
func (e *FileTooLargeError) Is(target error) bool {
	return target == ErrValidation
}

func mib(n int64) float64 {
	return float64(n) / 1024 / 1024
}
