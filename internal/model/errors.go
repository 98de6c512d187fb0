package model

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument reports a bad scalar argument: empty training set,
	// non-positive sizes, prices or visit counts.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidInput reports a feature or target vector of the wrong length.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelMismatch reports a persisted model whose architecture or shapes
	// do not fit the requested network. The engine recovers from it.
	ErrModelMismatch = errors.New("model mismatch")

	// ErrNotFound is returned by repositories holding no persisted model.
	ErrNotFound = errors.New("model not found")
)
