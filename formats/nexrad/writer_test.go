package nexrad

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jddeal/radarvolume/formats/options"
	"github.com/jddeal/radarvolume/volume"
	"github.com/stretchr/testify/require"
)

func testVolume() *volume.Volume {
	return &volume.Volume{
		SiteID: "KABC",
		Fields: map[string]volume.FieldDescriptor{
			"REF": {MetersToFirstCell: 0, MetersBetweenCells: 250},
			"VEL": {MetersToFirstCell: 0, MetersBetweenCells: 250},
		},
		Sweeps: []volume.Sweep{
			{
				Elevation: 0.5,
				Rays: []volume.Ray{
					{
						Time:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
						Azimuth: 10,
						Data: map[string][]float64{
							"REF": make([]float64, 8),
							"VEL": make([]float64, 8),
						},
					},
				},
			},
		},
	}
}

// TestPackDataPointerConsistency covers testable property 7: each
// nonzero pointer in the Msg31 pointer table references a block whose
// 3-char name matches the expected type for that slot.
func TestPackDataPointerConsistency(t *testing.T) {
	vol := testVolume()
	data, ptrs := packData(vol, 0, 0)

	base := uint32(msg31HeaderSize + pointerSlots*4)
	want := []string{"VOL", "ELV", "RAD", "REF", "VEL"}

	for i, name := range want {
		ptr := ptrs[i]
		require.NotZero(t, ptr, name)
		off := ptr - base
		require.Less(t, int(off)+4, len(data))
		require.Equal(t, name, string(data[off+1:off+4]), "slot %d", i)
	}

	// the remaining logical slots (no ZDR/PHI/RHO/SW/CFP present) stay zero.
	for i := len(want); i < logicalPointerCount; i++ {
		require.Zero(t, ptrs[i])
	}
}

// TestPackDataArrayQuantizationRoundTrip covers testable property 6:
// decode(encode(v)) - v is bounded by 1/scale for in-range values.
func TestPackDataArrayQuantizationRoundTrip(t *testing.T) {
	scale, offset, _ := scaleOffset("REF")
	gates := []float64{-10, 0, 10.5, 20}

	encoded := packDataArray(gates, "REF", 8, 255.0)
	decoded, err := decodeQuantized(encoded, len(gates), 8, scale, offset)
	require.NoError(t, err)

	for i, v := range gates {
		require.InDelta(t, v, decoded[i], 1.0/scale)
	}
}

// TestPackDataArrayDropsTrailingOddGate covers the even-gate-count
// write-side rule: an odd gate count is truncated by one before
// quantization.
func TestPackDataArrayDropsTrailingOddGate(t *testing.T) {
	encoded := packDataArray([]float64{-10, 0, 10}, "REF", 8, 255.0)
	require.Len(t, encoded, 2)
}

func TestRadialStatusForStateMachine(t *testing.T) {
	vol := &volume.Volume{Sweeps: []volume.Sweep{
		{Rays: make([]volume.Ray, 2)},
		{Rays: make([]volume.Ray, 2)},
	}}

	require.Equal(t, uint8(radialStatusStartOfVolume), radialStatusFor(vol, 0, 0))
	require.Equal(t, uint8(radialStatusEndOfElevation), radialStatusFor(vol, 0, 1))
	require.Equal(t, uint8(radialStatusStartOfElevation), radialStatusFor(vol, 1, 0))
	require.Equal(t, uint8(radialStatusEndOfVolume), radialStatusFor(vol, 1, 1))
}

func rayAt(azimuth float64, gates []float64) volume.Ray {
	return volume.Ray{
		Time:    time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC),
		Azimuth: azimuth,
		Data:    map[string][]float64{"REF": gates},
	}
}

// TestWriteReadRoundTrip covers S1/S3: a multi-ray, multi-sweep volume
// written with Write and read back with Read yields the same field
// set, ray counts per sweep, ngates, and azimuths (the sweep-boundary
// transitions this exercises are exactly where msg31HeaderSize being
// wrong previously desynced the reader on every message after the
// first).
func TestWriteReadRoundTrip(t *testing.T) {
	gates := []float64{-10, -5, 0, 5, 10, 15, 20, 25}

	vol := &volume.Volume{
		SiteID: "KTLX",
		Fields: map[string]volume.FieldDescriptor{
			"REF": {MetersToFirstCell: 0, MetersBetweenCells: 250},
		},
		Sweeps: []volume.Sweep{
			{
				Elevation: 0.5,
				Latitude:  35.33,
				Longitude: -97.27,
				Rays: []volume.Ray{
					rayAt(0.0, gates),
					rayAt(90.0, gates),
					rayAt(180.0, gates),
				},
			},
			{
				Elevation: 1.5,
				Latitude:  35.33,
				Longitude: -97.27,
				Rays: []volume.Ray{
					rayAt(0.0, gates),
					rayAt(90.0, gates),
				},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "volume.ar2v")
	require.NoError(t, Write(vol, path, options.DefaultOptions()))

	got, err := Read(path, options.DefaultOptions())
	require.NoError(t, err)

	require.Equal(t, "KTLX", got.SiteID)
	require.Contains(t, got.Fields, "REF")
	require.Len(t, got.Sweeps, 2)

	require.Len(t, got.Sweeps[0].Rays, 3)
	require.Len(t, got.Sweeps[1].Rays, 2)

	for _, sweep := range got.Sweeps {
		require.Equal(t, len(gates), sweep.NGates())
		for _, ray := range sweep.Rays {
			require.Len(t, ray.Data["REF"], len(gates))
		}
	}

	require.InDelta(t, 0.5, got.Sweeps[0].Elevation, 0.01)
	require.InDelta(t, 1.5, got.Sweeps[1].Elevation, 0.01)

	wantAzimuths := []float64{0.0, 90.0, 180.0}
	for i, az := range got.Sweeps[0].Azimuths() {
		require.InDelta(t, wantAzimuths[i], az, 0.01)
	}
}

func TestToDayMsMidnightHasZeroMilliseconds(t *testing.T) {
	t1 := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	day, ms := toDayMs(t1)
	require.Zero(t, ms)
	require.NotZero(t, day)
}
