// Package raderr defines the sentinel error taxonomy shared by every
// format reader and writer so callers can classify a failure with
// errors.Is instead of string matching.
package raderr

import "errors"

var (
	// ErrUnknownFormat is returned when no reader's sniffer recognizes a file.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrMalformedHeader is returned when a required block is missing, a
	// read comes up short, or a block identifier doesn't match what the
	// grammar expected at that position.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrUnexpectedBlock is returned when a block identifier isn't valid
	// at the reader's current state.
	ErrUnexpectedBlock = errors.New("unexpected block")

	// ErrTruncatedCompressedRay is returned when a run-length stream ends
	// without a terminator word.
	ErrTruncatedCompressedRay = errors.New("truncated compressed ray")

	// ErrCorruptCompressedRay is returned when a run-length stream would
	// emit more gates than declared.
	ErrCorruptCompressedRay = errors.New("corrupt compressed ray")

	// ErrUnsupportedBinaryFormat is returned for a field format tag
	// outside {1,2,3,4}.
	ErrUnsupportedBinaryFormat = errors.New("unsupported binary format")

	// ErrWriterFieldMissing is returned when a writer is asked to emit a
	// field whose descriptor is absent from the volume.
	ErrWriterFieldMissing = errors.New("writer field missing")

	// ErrIOFailure wraps an underlying I/O error encountered while
	// reading or writing a volume.
	ErrIOFailure = errors.New("i/o failure")
)
