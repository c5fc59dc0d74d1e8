package dorade

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/jddeal/radarvolume/formats/options"
	"github.com/jddeal/radarvolume/volume"
	"github.com/stretchr/testify/require"
)

func TestDecodeFieldBinaryFormat1Int8(t *testing.T) {
	ps := &paramState{scale: 2.0, bias: 1.0, binaryFmt: 1}
	raw := []byte{0, 2, 254} // 0, 2, -2

	out, err := decodeField(raw, ps)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{1.0, 2.0, 0.0}, out, 1e-9)
}

func TestDecodeFieldBinaryFormat3Int32(t *testing.T) {
	ps := &paramState{scale: 10.0, bias: 0.0, binaryFmt: 3}
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint32(raw[0:4], uint32(int32(100)))
	binary.LittleEndian.PutUint32(raw[4:8], uint32(int32(-100)))

	out, err := decodeField(raw, ps)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{10.0, -10.0}, out, 1e-9)
}

func TestDecodeFieldBinaryFormat4Float32(t *testing.T) {
	ps := &paramState{scale: 1.0, bias: 0.0, binaryFmt: 4}
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, math.Float32bits(3.5))

	out, err := decodeField(raw, ps)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{3.5}, out, 1e-6)
}

func TestDecodeFieldUnsupportedBinaryFormat(t *testing.T) {
	ps := &paramState{binaryFmt: 99}
	_, err := decodeField([]byte{1, 2, 3, 4}, ps)
	require.Error(t, err)
}

func TestDecodeFieldBinaryFormat2UncompressedIsLittleEndian(t *testing.T) {
	ps := &paramState{scale: 1.0, bias: 0.0, binaryFmt: 2, compress: 0}
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint16(raw[0:2], 5)
	binary.LittleEndian.PutUint16(raw[2:4], 10)

	out, err := decodeField(raw, ps)
	require.NoError(t, err)
	require.Equal(t, []float64{5.0, 10.0}, out)
}

// TestDecodeFieldBinaryFormat2UncompressedGateValueOneDoesNotTruncate
// guards against the silent-corruption bug where a literal uncompressed
// gate value of 1 was mistaken for the RLE terminator word.
func TestDecodeFieldBinaryFormat2UncompressedGateValueOneDoesNotTruncate(t *testing.T) {
	ps := &paramState{scale: 1.0, bias: 0.0, binaryFmt: 2, compress: 0}
	raw := make([]byte, 6)
	binary.LittleEndian.PutUint16(raw[0:2], 1)
	binary.LittleEndian.PutUint16(raw[2:4], 2)
	binary.LittleEndian.PutUint16(raw[4:6], 3)

	out, err := decodeField(raw, ps)
	require.NoError(t, err)
	require.Equal(t, []float64{1.0, 2.0, 3.0}, out)
}

func TestDecodeFieldBinaryFormat2CompressedUsesRLE(t *testing.T) {
	ps := &paramState{scale: 1.0, bias: 0.0, binaryFmt: 2, compress: 1, badData: 0xFFFF}
	raw := make([]byte, 10)
	binary.BigEndian.PutUint16(raw[0:2], 0x8002)
	binary.BigEndian.PutUint16(raw[2:4], 7)
	binary.BigEndian.PutUint16(raw[4:6], 9)
	binary.BigEndian.PutUint16(raw[6:8], 0x0002)
	binary.BigEndian.PutUint16(raw[8:10], 1)

	out, err := decodeField(raw, ps)
	require.NoError(t, err)
	require.Equal(t, []float64{7.0, 9.0, -1.0, 0, 0}, out)
}

func TestApplyREFThresholdRemovesBelowThreshold(t *testing.T) {
	data := map[string][]float64{"REF": {1.0, -50.0, 100.0}}
	opts := options.Options{Scale: 1.0, Offset: 0.0, Remove: 0.0}

	applyREFThreshold(data, opts)

	require.Equal(t, volume.MissingGate, data["REF"][1])
	require.Equal(t, 1.0, data["REF"][0])
	require.Equal(t, 100.0, data["REF"][2])
}

func TestApplyREFThresholdIgnoresOtherFields(t *testing.T) {
	data := map[string][]float64{"VEL": {1.0, -50.0}}
	opts := options.Options{Scale: 1.0, Offset: 0.0, Remove: 0.0}

	applyREFThreshold(data, opts)

	require.Equal(t, []float64{1.0, -50.0}, data["VEL"])
}

func TestReconstructRayTimeSameDay(t *testing.T) {
	start := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	ymd := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	jd := julianDayOf(start, ymd)

	ryib := &RYIB{JulianDay: uint32(jd), Hour: 13, Minute: 30, Second: 15, Millisecond: 250}

	got := reconstructRayTime(start, ryib)
	want := time.Date(2024, time.May, 10, 13, 30, 15, 250*int(time.Millisecond), time.UTC)
	require.Equal(t, want, got)
}

func TestReconstructRayTimeClampsOverflowToMidnight(t *testing.T) {
	start := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	ymd := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	jd := julianDayOf(start, ymd)

	ryib := &RYIB{JulianDay: uint32(jd), Hour: 25, Minute: 0, Second: 0, Millisecond: 0}

	got := reconstructRayTime(start, ryib)
	want := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	require.Equal(t, want, got)
}

func TestReconstructRayTimeAdvancesDayFromJulianDelta(t *testing.T) {
	start := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	ymd := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	jd := julianDayOf(start, ymd)

	ryib := &RYIB{JulianDay: uint32(jd + 1), Hour: 0, Minute: 0, Second: 1, Millisecond: 0}

	got := reconstructRayTime(start, ryib)
	want := time.Date(2024, time.May, 11, 0, 0, 1, 0, time.UTC)
	require.Equal(t, want, got)
}

func TestIsDoradeRejectsUnrelatedFile(t *testing.T) {
	require.False(t, IsDorade("/nonexistent/path/radar.dat"))
}
