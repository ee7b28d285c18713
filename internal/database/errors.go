package database

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no row matches the requested key
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous is returned when a key that must be unique matches more than one row
	ErrAmbiguous = errors.New("more than one row matches")
	// ErrUnknownSample is returned for a sample name that is not a column of the samples table
	ErrUnknownSample = errors.New("unknown sample")
	// ErrInvalidSampleName is returned when no numeric id can be parsed from a sample name
	ErrInvalidSampleName = errors.New("invalid sample name")
	// ErrClosed is returned for reads on a closed store
	ErrClosed = errors.New("database is closed")
)
