// Package formats dispatches between the on-disk radar container formats
// and holds the options shared by every reader and writer. Grounded on
// original_source/src/lib.rs's RadyOptions/read/write/convert functions.
package formats

import "github.com/jddeal/radarvolume/formats/options"

// Options carries every per-run setting a reader or writer may consult.
// A zero value is not valid; use DefaultOptions. Aliased from
// formats/options so callers outside this package tree can keep
// writing formats.Options while format subpackages import the leaf
// options package directly and avoid an import cycle through formats.
type Options = options.Options

// DefaultOptions returns the identity thresholding options: no radar
// override, and a REF transform that passes every value through
// unchanged (Scale=1, Offset=0, Remove=-999, matching the sentinel
// itself so nothing is ever thresholded away by default).
var DefaultOptions = options.DefaultOptions
