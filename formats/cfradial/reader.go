// Package cfradial reads FormatC: CF/Radial, a netCDF classic
// convention for radar volumes. Grounded on
// original_source/src/formats/cfradial.rs's read_cfradial, adapted to
// the netCDF classic parser in this package since no netCDF/HDF5
// binding is available in the example corpus (see DESIGN.md).
package cfradial

import (
	"fmt"
	"time"

	"github.com/jddeal/radarvolume/raderr"
	"github.com/jddeal/radarvolume/volume"
)

// dataVariables lists the raw field-variable names CF/Radial files
// conventionally carry; toGenericName folds each to its canonical alias.
var dataVariables = []string{
	"DBZ", "DBZHC", "DBZHC_F", "VEL", "VEL_F", "WIDTH",
	"KDP", "PHIDP", "RHOHV", "RHOHV_F", "ZDR", "ZDR_F",
}

// IsCFRadial reports whether path is a netCDF classic file carrying
// the CF/Radial "sweep" dimension.
func IsCFRadial(path string) bool {
	if !isNetCDFClassic(path) {
		return false
	}
	ds, err := openDataset(path)
	if err != nil {
		return false
	}
	defer ds.close()

	for _, name := range ds.dimNames {
		if name == "sweep" {
			return true
		}
	}
	return false
}

// Read parses a CF/Radial netCDF classic file into a Volume.
func Read(path string) (*volume.Volume, error) {
	ds, err := openDataset(path)
	if err != nil {
		return nil, err
	}
	defer ds.close()

	siteID, _ := attrString(ds.globalAttrs, "instrument_name")

	fields := map[string]volume.FieldDescriptor{}
	rangeVar, ok := ds.vars["range"]
	if !ok {
		return nil, fmt.Errorf("%w: missing range variable", raderr.ErrMalformedHeader)
	}

	firstGate, _ := attrFloat(rangeVar.attrs, "meters_to_center_of_first_gate")
	gateSpacing, ok := attrFloat(rangeVar.attrs, "meters_between_gates")
	if !ok {
		r0, err0 := ds.readFloat64("range", []int{0})
		r1, err1 := ds.readFloat64("range", []int{1})
		if err0 == nil && err1 == nil {
			gateSpacing = r1 - r0
		}
	}

	present := presentFields(ds)
	for _, field := range present {
		fields[field.canonical] = volume.FieldDescriptor{
			MetersToFirstCell:  firstGate,
			MetersBetweenCells: gateSpacing,
		}
	}

	nsweeps := ds.dimLen(dimIndex(ds, "sweep"))
	ngates := ds.dimLen(dimIndex(ds, "range"))

	vol := &volume.Volume{SiteID: siteID, Fields: fields}

	for s := 0; s < nsweeps; s++ {
		startIdx, err := ds.readFloat64("sweep_start_ray_index", []int{s})
		if err != nil {
			return nil, err
		}
		endIdx, err := ds.readFloat64("sweep_end_ray_index", []int{s})
		if err != nil {
			return nil, err
		}
		start := int(startIdx)
		end := int(endIdx)

		elevation, _ := ds.readFloat64("elevation", []int{start})
		nyquist, _ := ds.readFloat64("nyquist_velocity", []int{start})
		latitude, _ := ds.readFloat64("latitude", nil)
		longitude, _ := ds.readFloat64("longitude", nil)

		sweep := volume.Sweep{
			Elevation:       elevation,
			NyquistVelocity: nyquist,
			Latitude:        latitude,
			Longitude:       longitude,
			ScanMode:        volume.ScanPPI,
		}

		times, err := ds.readFloat64Range("time", start, end-start)
		if err != nil {
			return nil, err
		}
		azimuths, err := ds.readFloat64Range("azimuth", start, end-start)
		if err != nil {
			return nil, err
		}

		for i := 0; i < end-start; i++ {
			data := map[string][]float64{}
			for _, field := range present {
				scale, ok := attrFloat(field.v.attrs, "scale_factor")
				if !ok {
					scale = 1.0
				}
				offset, ok := attrFloat(field.v.attrs, "add_offset")
				if !ok {
					offset = 0.0
				}

				row, err := ds.readGateRow(field.name, start+i, ngates)
				if err != nil {
					return nil, err
				}
				for g := range row {
					row[g] = row[g]*scale + offset
				}
				data[field.canonical] = row
			}

			ray := volume.Ray{
				Time:    time.Unix(0, int64(times[i]*float64(time.Second))).UTC(),
				Azimuth: azimuths[i],
				Data:    data,
			}
			sweep.Rays = append(sweep.Rays, ray)
		}

		vol.Sweeps = append(vol.Sweeps, sweep)
	}

	return vol, nil
}

// fieldVar pairs a raw CF/Radial variable name with its canonical
// field name and parsed descriptor.
type fieldVar struct {
	name      string
	canonical string
	v         *variable
}

// presentFields returns every data variable actually present in ds,
// folded to its canonical field name.
func presentFields(ds *dataset) []fieldVar {
	var out []fieldVar
	for _, name := range dataVariables {
		v, ok := ds.vars[name]
		if !ok {
			continue
		}
		out = append(out, fieldVar{name: name, canonical: volume.CanonicalFieldName(toGenericName(name)), v: v})
	}
	return out
}

// toGenericName folds a CF/Radial raw variable name to the name
// volume.CanonicalFieldName expects, matching
// original_source/src/formats/cfradial.rs's to_generic_name table
// (a CF/Radial-specific subset of the shared alias table).
func toGenericName(name string) string {
	switch name {
	case "DBZ", "DBZHC", "DBZHC_F":
		return "REF"
	case "VEL", "VEL_F":
		return "VEL"
	case "WIDTH":
		return "SW"
	case "RHOHV", "RHOHV_F":
		return "RHO"
	case "PHIDP":
		return "PHI"
	case "ZDR", "ZDR_F":
		return "ZDR"
	default:
		return name
	}
}

// dimIndex returns the dimension id for name, or -1 if absent.
func dimIndex(ds *dataset, name string) int {
	for i, n := range ds.dimNames {
		if n == name {
			return i
		}
	}
	return -1
}
