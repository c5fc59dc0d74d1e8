// Package rle decodes the DORADE-family run-length compression scheme
// used for 16-bit FormatA gate data, grounded on the HRD decompression
// routine (original_source/src/formats/dorade.rs, decompress_HRD).
package rle

import (
	"fmt"

	"github.com/jddeal/radarvolume/raderr"
)

const literalFlag = 0x8000
const countMask = 0x7fff

// Decode reads a sequence of big-endian-interpreted 16-bit control/data
// words and expands it into exactly n output words. bad is the
// sentinel emitted for each word of a run. Decode stops when it reads a
// control word equal to 1 (the terminator). A running total of emitted
// gates that would exceed n fails with raderr.ErrCorruptCompressedRay;
// a stream that runs out of words before the terminator fails with
// raderr.ErrTruncatedCompressedRay.
func Decode(words []uint16, n int, bad uint16) ([]uint16, error) {
	out := make([]uint16, n)
	outIdx := 0
	i := 0

	for {
		if i >= len(words) {
			return nil, fmt.Errorf("%w: stream ended before terminator", raderr.ErrTruncatedCompressedRay)
		}

		ctrl := words[i]
		i++

		if ctrl == 1 {
			break
		}

		count := int(ctrl & countMask)
		literal := ctrl&literalFlag != 0

		if literal {
			if outIdx+count > n {
				return nil, fmt.Errorf("%w: literal run of %d gates at offset %d exceeds declared %d gates", raderr.ErrCorruptCompressedRay, count, outIdx, n)
			}
			if i+count > len(words) {
				return nil, fmt.Errorf("%w: literal run truncated", raderr.ErrTruncatedCompressedRay)
			}
			copy(out[outIdx:outIdx+count], words[i:i+count])
			i += count
			outIdx += count
		} else {
			runLen := count - 1
			if outIdx+runLen > n {
				return nil, fmt.Errorf("%w: bad-data run of %d gates at offset %d exceeds declared %d gates", raderr.ErrCorruptCompressedRay, runLen, outIdx, n)
			}
			for j := 0; j < runLen; j++ {
				out[outIdx] = bad
				outIdx++
			}
		}
	}

	return out, nil
}
