// Package volume holds the common in-memory radar model that every
// format reader produces and every format writer consumes, plus the
// normalization operations that repair sweep boundaries between the
// two. Grounded on original_source/src/lib.rs's RadarFile/Sweep/Ray,
// expressed in the teacher's Go idiom (exported structs, explicit
// methods, no interior mutability tricks).
package volume

import (
	"time"

	"github.com/samber/lo"
)

// MissingGate is the sentinel for missing or below-threshold gate
// values.
const MissingGate = -999.0

// ScanMode is the scanning geometry for a sweep.
type ScanMode int

// Scan modes, matching the DORADE RADD.scan_mode enum 0..10.
const (
	ScanCalibration ScanMode = iota
	ScanPPI
	ScanCoplane
	ScanRHI
	ScanVertical
	ScanStationary
	ScanManual
	ScanIdle
	ScanSurveillance
	ScanAirborne
	ScanHorizontal
)

func (m ScanMode) String() string {
	names := [...]string{
		"Calibration", "PPI", "Coplane", "RHI", "Vertical",
		"Stationary", "Manual", "Idle", "Surveillance", "Airborne",
		"Horizontal",
	}
	if int(m) < 0 || int(m) >= len(names) {
		return "PPI"
	}
	return names[m]
}

// ScanModeFromNum maps a producer's numeric scan-mode tag (0..10) to a
// ScanMode, defaulting to PPI for anything out of range.
func ScanModeFromNum(num int) ScanMode {
	if num < 0 || num > int(ScanHorizontal) {
		return ScanPPI
	}
	return ScanMode(num)
}

// FieldDescriptor describes one named data field common to every ray
// in a sweep.
type FieldDescriptor struct {
	Description         string
	Units               string
	MetersToFirstCell   float64
	MetersBetweenCells  float64
}

// Ray is a single beam dwell: a set of per-field gate vectors at one
// azimuth and timestamp.
type Ray struct {
	Time    time.Time
	Azimuth float64
	Data    map[string][]float64
}

// NGates returns the gate count shared by every field in this ray, or
// 0 if the ray carries no fields.
func (r *Ray) NGates() int {
	for _, gates := range r.Data {
		return len(gates)
	}
	return 0
}

// Sweep is an ordered set of rays sharing one elevation.
type Sweep struct {
	Rays            []Ray
	Elevation       float64
	Latitude        float64
	Longitude       float64
	ScanRate        *float64
	NyquistVelocity float64
	ScanMode        ScanMode
}

// Time is the first ray's timestamp, used to order and name sweeps.
func (s *Sweep) Time() time.Time {
	return s.Rays[0].Time
}

// NGates returns the gate count shared by every ray in the sweep.
func (s *Sweep) NGates() int {
	if len(s.Rays) == 0 {
		return 0
	}
	return s.Rays[0].NGates()
}

// Azimuths returns each ray's azimuth in ray order.
func (s *Sweep) Azimuths() []float64 {
	return lo.Map(s.Rays, func(r Ray, _ int) float64 { return r.Azimuth })
}

// FieldNames returns the field names carried by the sweep's first ray.
func (s *Sweep) FieldNames() []string {
	if len(s.Rays) == 0 {
		return nil
	}
	return lo.Keys(s.Rays[0].Data)
}

// Volume is an ordered stack of sweeps acquired over one scan cycle.
type Volume struct {
	SiteID string
	Sweeps []Sweep
	Fields map[string]FieldDescriptor
}

// NSweeps returns the number of sweeps in the volume.
func (v *Volume) NSweeps() int {
	return len(v.Sweeps)
}

// StartTime is the first sweep's first ray's timestamp.
func (v *Volume) StartTime() time.Time {
	return v.Sweeps[0].Time()
}

// canonicalFieldNames maps known producer-specific aliases to the
// canonical field name. Unknown names pass through unchanged.
var canonicalFieldNames = map[string]string{
	"DBZ":      "REF",
	"DBZHC":    "REF",
	"DBZHC_F":  "REF",
	"DCZ":      "REF",
	"DBZHM":    "REF",
	"VEL_F":    "VEL",
	"VC":       "VEL",
	"WIDTH":    "SW",
	"RHOHV":    "RHO",
	"RHOHV_F":  "RHO",
	"ZDR_F":    "ZDR",
	"PHIDP":    "PHI",
}

// CanonicalFieldName folds a producer's field-name alias to its
// canonical form, per spec.md's alias table. Unknown names pass
// through unchanged.
func CanonicalFieldName(name string) string {
	if canonical, ok := canonicalFieldNames[name]; ok {
		return canonical
	}
	return name
}
