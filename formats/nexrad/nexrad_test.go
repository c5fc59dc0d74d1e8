package nexrad

import (
	"testing"

	"github.com/jddeal/radarvolume/volume"
	"github.com/stretchr/testify/require"
)

func TestScaleOffsetKnownFields(t *testing.T) {
	scale, offset, ok := scaleOffset("REF")
	require.True(t, ok)
	require.Equal(t, 2.0, scale)
	require.Equal(t, 66.0, offset)
}

func TestScaleOffsetUnknownField(t *testing.T) {
	_, _, ok := scaleOffset("XYZ")
	require.False(t, ok)
}

func TestDequantizeBelowThresholdIsMissing(t *testing.T) {
	require.Equal(t, volume.MissingGate, dequantize(0, 2.0, 66.0))
	require.Equal(t, volume.MissingGate, dequantize(1, 2.0, 66.0))
}

func TestDequantizeScaledValue(t *testing.T) {
	// REF word 2 -> (2-66)/2 = -32.0
	require.InDelta(t, -32.0, dequantize(2, 2.0, 66.0), 1e-9)
}

func TestDecodeQuantized8Bit(t *testing.T) {
	raw := []byte{0, 1, 2, 4}
	out, err := decodeQuantized(raw, 4, 8, 2.0, 66.0)
	require.NoError(t, err)
	require.Equal(t, volume.MissingGate, out[0])
	require.Equal(t, volume.MissingGate, out[1])
	require.InDelta(t, -32.0, out[2], 1e-9)
	require.InDelta(t, -31.0, out[3], 1e-9)
}

func TestDecodeQuantized16Bit(t *testing.T) {
	raw := []byte{0x00, 0x02, 0x00, 0x04}
	out, err := decodeQuantized(raw, 2, 16, 2.0, 66.0)
	require.NoError(t, err)
	require.InDelta(t, -32.0, out[0], 1e-9)
	require.InDelta(t, -31.0, out[1], 1e-9)
}

func TestDecodeQuantizedUnsupportedWordSize(t *testing.T) {
	_, err := decodeQuantized([]byte{1, 2, 3}, 1, 12, 1.0, 0.0)
	require.Error(t, err)
}

func TestTrimFieldStripsTrailingSpace(t *testing.T) {
	require.Equal(t, "SW", trimField("SW "))
	require.Equal(t, "REF", trimField("REF"))
}

func TestRayAttribsMean(t *testing.T) {
	a := &rayAttribs{elev: 2.0, nyquist: 4.0, lat: 10.0, lon: 20.0, count: 2}
	elev, nyq, lat, lon := a.mean()
	require.InDelta(t, 1.0, elev, 1e-9)
	require.InDelta(t, 2.0, nyq, 1e-9)
	require.InDelta(t, 5.0, lat, 1e-9)
	require.InDelta(t, 10.0, lon, 1e-9)
}

func TestRayAttribsMeanZeroCount(t *testing.T) {
	a := &rayAttribs{}
	elev, nyq, lat, lon := a.mean()
	require.Zero(t, elev)
	require.Zero(t, nyq)
	require.Zero(t, lat)
	require.Zero(t, lon)
}

func TestIsNexradRejectsUnrelatedFile(t *testing.T) {
	require.False(t, IsNexrad("/nonexistent/path/volume.ar2v"))
}
