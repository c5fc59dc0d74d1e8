// Package options holds the settings shared by every reader and
// writer. It is a separate leaf package so format subpackages (which
// the top-level formats package imports for dispatch) can depend on
// it without an import cycle. Grounded on
// original_source/src/lib.rs's RadyOptions.
package options

// Options carries every per-run setting a reader or writer may consult.
// A zero value is not valid; use DefaultOptions.
type Options struct {
	// OverrideRadar replaces the output volume's site identifier when
	// non-empty.
	OverrideRadar string

	// Scale, Offset, and Remove parameterize REF post-processing: each
	// REF gate is replaced by g*Scale+Offset, or the sentinel if that
	// value is below Remove.
	Scale, Offset, Remove float64

	// PrintProducts, when true, makes the driver list field names and
	// skip the write. dorade.Read also stops after the field table and
	// returns a volume with no sweeps; the other readers ignore it.
	PrintProducts bool

	// Location, when true, makes the driver print each sweep's
	// latitude/longitude after normalization. Readers ignore it.
	Location bool
}

// DefaultOptions returns the identity thresholding options: no radar
// override, and a REF transform that passes every value through
// unchanged (Scale=1, Offset=0, Remove=-999, matching the sentinel
// itself so nothing is ever thresholded away by default).
func DefaultOptions() Options {
	return Options{Scale: 1.0, Offset: 0.0, Remove: -999.0}
}
