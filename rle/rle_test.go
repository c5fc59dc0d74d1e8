package rle

import (
	"errors"
	"testing"

	"github.com/jddeal/radarvolume/raderr"
	"github.com/stretchr/testify/require"
)

// S2 (FormatA RLE): a single ray whose compressed stream is words
// [0x0003, 0x8002, A, B, 0x0001] with bad=0xFFFF, ngates=4 decodes to
// [0xFFFF, 0xFFFF, A, B].
func TestDecodeScenarioS2(t *testing.T) {
	const a, b = 0x1234, 0x5678
	words := []uint16{0x0003, 0x8002, a, b, 0x0001}

	out, err := Decode(words, 4, 0xFFFF)
	require.NoError(t, err)
	require.Equal(t, []uint16{0xFFFF, 0xFFFF, a, b}, out)
}

func TestDecodeExactLength(t *testing.T) {
	// a pure-literal run exactly matching the requested gate count
	words := []uint16{0x8004, 10, 20, 30, 40, 0x0001}
	out, err := Decode(words, 4, 0)
	require.NoError(t, err)
	require.Equal(t, []uint16{10, 20, 30, 40}, out)
}

func TestDecodeOverrunIsCorrupt(t *testing.T) {
	words := []uint16{0x0006, 0x0001} // run of 5 bad words into a 4-gate ray
	_, err := Decode(words, 4, 0xFFFF)
	require.Error(t, err)
	require.True(t, errors.Is(err, raderr.ErrCorruptCompressedRay))
}

func TestDecodeMissingTerminatorIsTruncated(t *testing.T) {
	words := []uint16{0x0002}
	_, err := Decode(words, 4, 0xFFFF)
	require.Error(t, err)
	require.True(t, errors.Is(err, raderr.ErrTruncatedCompressedRay))
}

func TestDecodeLiteralRunTruncatedMidRun(t *testing.T) {
	words := []uint16{0x8003, 1, 2}
	_, err := Decode(words, 4, 0xFFFF)
	require.Error(t, err)
	require.True(t, errors.Is(err, raderr.ErrTruncatedCompressedRay))
}

func TestDecodeStopsEarlyLeavesRemainderZero(t *testing.T) {
	words := []uint16{0x0001}
	out, err := Decode(words, 4, 0xFFFF)
	require.NoError(t, err)
	require.Equal(t, []uint16{0, 0, 0, 0}, out)
}
