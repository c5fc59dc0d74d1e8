package volume

import (
	"math"
	"sort"
)

// direction returns +1 or -1, the dominant azimuth rotation sense of a
// sweep, from the sign of the sum of its first five azimuths. Grounded
// on original_source/src/lib.rs's Sweep::trim_rays/split_overlap_rays
// direction heuristic.
func direction(azimuths []float64) float64 {
	n := 5
	if len(azimuths) < n {
		n = len(azimuths)
	}
	var sum float64
	for _, a := range azimuths[:n] {
		sum += a
	}
	if sum > 0 || sum < -300 {
		return 1
	}
	return -1
}

// CorrectAzimuth replaces every ray's azimuth with its value modulo
// 360, canonicalizing it into [0, 360).
func (s *Sweep) CorrectAzimuth() {
	for i := range s.Rays {
		s.Rays[i].Azimuth = math.Mod(math.Mod(s.Rays[i].Azimuth, 360)+360, 360)
	}
}

// SortRaysByAzimuth canonicalizes azimuths and then stably sorts rays
// ascending by azimuth.
func (s *Sweep) SortRaysByAzimuth() {
	s.CorrectAzimuth()
	sort.SliceStable(s.Rays, func(i, j int) bool {
		return s.Rays[i].Azimuth < s.Rays[j].Azimuth
	})
}

// TrimRays canonicalizes azimuths, then walks the rays accumulating
// signed angular change, discarding every ray at or after the point
// where the accumulated change first reaches 360 degrees.
func (s *Sweep) TrimRays() {
	s.CorrectAzimuth()
	azimuths := s.Azimuths()
	dir := direction(azimuths)

	var change, last float64
	for i := range s.Rays {
		if i == 0 {
			change = 0
		} else {
			step := azimuths[i] - last
			if math.Abs(step) > 300 {
				step = 360 - math.Abs(step)
			}
			change += dir * step
		}
		last = azimuths[i]

		if change >= 360 {
			s.Rays = s.Rays[:i]
			return
		}
	}
}

// SplitOverlapRays walks the same direction/cumulative-angle logic as
// TrimRays, but instead of discarding the overlap it cuts a new sweep
// at every 360-degree threshold, returning the resulting sweeps. The
// trailing partial sweep is kept only if it has more than 20 rays.
func (s *Sweep) SplitOverlapRays() []Sweep {
	s.CorrectAzimuth()
	azimuths := s.Azimuths()
	dir := direction(azimuths)

	var out []Sweep
	var change, last float64
	cutIdx := 0

	for i := range s.Rays {
		if i == 0 {
			change = 0
		} else {
			step := azimuths[i] - last
			if math.Abs(step) > 300 {
				step = 360 - math.Abs(step)
			}
			change += dir * step
		}
		last = azimuths[i]

		if change >= 360 {
			piece := *s
			piece.Rays = append([]Ray(nil), s.Rays[cutIdx:i]...)
			out = append(out, piece)

			cutIdx = i
			change -= 360
		}
	}

	if len(s.Rays)-cutIdx > 20 {
		piece := *s
		piece.Rays = append([]Ray(nil), s.Rays[cutIdx:]...)
		out = append(out, piece)
	}

	return out
}

// SortRaysByAzimuth applies Sweep.SortRaysByAzimuth to every sweep.
func (v *Volume) SortRaysByAzimuth() {
	for i := range v.Sweeps {
		v.Sweeps[i].SortRaysByAzimuth()
	}
}

// TrimRays applies Sweep.TrimRays to every sweep.
func (v *Volume) TrimRays() {
	for i := range v.Sweeps {
		v.Sweeps[i].TrimRays()
	}
}

// SplitOverlapRays replaces the volume's sweeps with the result of
// splitting every sweep's overlapping rays into additional sweeps.
func (v *Volume) SplitOverlapRays() {
	var newSweeps []Sweep
	for i := range v.Sweeps {
		newSweeps = append(newSweeps, v.Sweeps[i].SplitOverlapRays()...)
	}
	v.Sweeps = newSweeps
}

// SortSweepsByTime stably sorts sweeps ascending by their first ray's
// timestamp.
func (v *Volume) SortSweepsByTime() {
	sort.SliceStable(v.Sweeps, func(i, j int) bool {
		return v.Sweeps[i].Time().Before(v.Sweeps[j].Time())
	})
}

// SortSweepsByElevation stably sorts sweeps ascending by elevation.
func (v *Volume) SortSweepsByElevation() {
	sort.SliceStable(v.Sweeps, func(i, j int) bool {
		return v.Sweeps[i].Elevation < v.Sweeps[j].Elevation
	})
}
