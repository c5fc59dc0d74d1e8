package main

import (
	"testing"
	"time"

	"github.com/jddeal/radarvolume/volume"
	"github.com/stretchr/testify/require"
)

func sweepsAt(elevations ...float64) []volume.Sweep {
	out := make([]volume.Sweep, len(elevations))
	for i, e := range elevations {
		out[i] = volume.Sweep{Elevation: e}
	}
	return out
}

// TestSplitVolumesMatchesVolumeSplitScenario covers S6: sweeps at
// elevations [0.5, 1.5, 2.5, 0.5, 1.5] with --vols produce two output
// files containing [0.5, 1.5, 2.5] and [0.5, 1.5].
func TestSplitVolumesMatchesVolumeSplitScenario(t *testing.T) {
	sweeps := sweepsAt(0.5, 1.5, 2.5, 0.5, 1.5)
	got := splitVolumes(sweeps)

	require.Len(t, got, 2)
	require.Equal(t, []float64{0.5, 1.5, 2.5}, elevationsOf(got[0]))
	require.Equal(t, []float64{0.5, 1.5}, elevationsOf(got[1]))
}

func TestSplitVolumesSingleSweep(t *testing.T) {
	got := splitVolumes(sweepsAt(0.5))
	require.Len(t, got, 1)
	require.Equal(t, []float64{0.5}, elevationsOf(got[0]))
}

func TestSplitDirectionDefaultsPositiveForFewSweeps(t *testing.T) {
	require.Equal(t, 1.0, splitDirection(nil))
	require.Equal(t, 1.0, splitDirection(sweepsAt(0.5)))
}

func TestSplitDirectionNegative(t *testing.T) {
	require.Equal(t, -1.0, splitDirection(sweepsAt(2.5, 1.5, 0.5)))
}

func TestExpandStrftimeAndRenderName(t *testing.T) {
	vol := &volume.Volume{
		SiteID: "kabc",
		Sweeps: sweepsAt(0.5),
	}
	vol.Sweeps[0].Rays = []volume.Ray{{Time: time.Date(2026, 7, 31, 12, 30, 5, 0, time.UTC)}}

	name := renderName("{FORMAT}.%Y%m%d_%H%M%S_{elev:.1}_[icao]", "nexrad", vol)
	require.Equal(t, "NEXRAD.20260731_123005_0.5_KABC", name)
}

func elevationsOf(sweeps []volume.Sweep) []float64 {
	out := make([]float64, len(sweeps))
	for i, s := range sweeps {
		out[i] = s.Elevation
	}
	return out
}
