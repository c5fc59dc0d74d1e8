package dorade

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/jddeal/radarvolume/bytesio"
	"github.com/jddeal/radarvolume/formats/options"
	"github.com/jddeal/radarvolume/raderr"
	"github.com/jddeal/radarvolume/rle"
	"github.com/jddeal/radarvolume/volume"
)

// IsDorade reports whether path begins with a DORADE "COMM" or "SSWB"
// block identifier, the only two blocks legal at the start of a
// FormatA stream.
func IsDorade(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 4)
	if _, err := f.Read(buf); err != nil {
		return false
	}
	id := string(buf)
	return id == "COMM" || id == "SSWB"
}

// paramState is the running per-field metadata accumulated while
// walking PARM/CELV/CSFD blocks, used to build the Volume's Fields
// table and to interpret each field's gate data.
type paramState struct {
	scale, bias float64
	badData     uint32
	binaryFmt   uint16
	compress    uint16
	offset      uint32
	descriptor  volume.FieldDescriptor
}

// Read parses a DORADE sweep-file stream into a Volume. Grounded on
// original_source/src/formats/dorade.rs's read_sweepfile / block walk.
func Read(path string, opts options.Options) (*volume.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}
	defer f.Close()

	r := bytesio.NewReader(f, binary.LittleEndian)

	vol := &volume.Volume{Fields: map[string]volume.FieldDescriptor{}}
	params := map[string]*paramState{}
	var fieldOrder []string
	var radarName string
	var startTime time.Time
	var cellDistances []float64

	// Optional COMM, then SSWB, VOLD, optional leading CFAC.
	id, err := r.PeekIdentifier()
	if err != nil {
		return nil, err
	}
	if id == "COMM" {
		var b COMM
		if err := readBlock(r, &b); err != nil {
			return nil, err
		}
	}

	id, err = r.PeekIdentifier()
	if err != nil {
		return nil, err
	}
	if id != "SSWB" {
		return nil, fmt.Errorf("%w: expected SSWB, got %q", raderr.ErrUnexpectedBlock, id)
	}
	var sswb SSWB
	if err := readBlock(r, &sswb); err != nil {
		return nil, err
	}
	radarName = bytesio.TrimFixedString(sswb.RadarName[:])
	startTime = time.Unix(int64(sswb.StartTime), 0).UTC()

	id, err = r.PeekIdentifier()
	if err != nil {
		return nil, err
	}
	if id != "VOLD" {
		return nil, fmt.Errorf("%w: expected VOLD, got %q", raderr.ErrUnexpectedBlock, id)
	}
	var vold VOLD
	if err := readBlock(r, &vold); err != nil {
		return nil, err
	}

	id, err = r.PeekIdentifier()
	if err != nil {
		return nil, err
	}
	if id == "CFAC" {
		var b CFAC
		if err := readBlock(r, &b); err != nil {
			return nil, err
		}
	}

	id, err = r.PeekIdentifier()
	if err != nil {
		return nil, err
	}
	if id != "RADD" {
		return nil, fmt.Errorf("%w: expected RADD, got %q", raderr.ErrUnexpectedBlock, id)
	}
	var radd RADD
	if err := readBlock(r, &radd); err != nil {
		return nil, err
	}
	if opts.OverrideRadar != "" {
		radarName = opts.OverrideRadar
	}
	scanMode := volume.ScanModeFromNum(int(radd.ScanMode))
	nyquist := float64(radd.EffUnambVel)

	id, err = r.PeekIdentifier()
	if err != nil {
		return nil, err
	}
	if id == "LIDR" {
		var b LIDR
		if err := readBlock(r, &b); err != nil {
			return nil, err
		}
	}

	// PARM* : one per field, in registration order.
	for {
		id, err = r.PeekIdentifier()
		if err != nil {
			return nil, err
		}
		if id != "PARM" {
			break
		}
		var p PARM
		if err := readBlock(r, &p); err != nil {
			return nil, err
		}
		name := volume.CanonicalFieldName(bytesio.TrimFixedString(p.ParameterName[:]))
		ps := &paramState{
			scale:     float64(p.ParameterScale),
			bias:      float64(p.ParameterBias),
			badData:   p.BadData,
			binaryFmt: p.BinaryFormat,
			compress:  radd.DataCompress,
			descriptor: volume.FieldDescriptor{
				Description:        bytesio.TrimFixedString(p.ParamDescr[:]),
				Units:              bytesio.TrimFixedString(p.ParamUnits[:]),
				MetersToFirstCell:  50.0,
				MetersBetweenCells: 50.0,
			},
		}
		if _, exists := params[name]; !exists {
			fieldOrder = append(fieldOrder, name)
		}
		params[name] = ps
	}

	// CELV or CSFD: the per-gate range table.
	id, err = r.PeekIdentifier()
	if err != nil {
		return nil, err
	}
	switch id {
	case "CELV":
		var c CELV
		if err := readBlock(r, &c); err != nil {
			return nil, err
		}
		cellDistances = make([]float64, c.NumberCells)
		for i := uint32(0); i < c.NumberCells; i++ {
			cellDistances[i] = float64(c.DistCells[i])
		}
	case "CSFD":
		var c CSFD
		if err := readBlock(r, &c); err != nil {
			return nil, err
		}
		dist := float64(c.DistToFirst)
		for seg := uint32(0); seg < c.NumSegments; seg++ {
			spacing := float64(c.Spacing[seg])
			for n := uint16(0); n < c.NumCells[seg]; n++ {
				cellDistances = append(cellDistances, dist)
				dist += spacing
			}
		}
	default:
		return nil, fmt.Errorf("%w: expected CELV or CSFD, got %q", raderr.ErrUnexpectedBlock, id)
	}
	if len(cellDistances) >= 2 {
		toFirst := cellDistances[0]
		between := cellDistances[1] - cellDistances[0]
		for _, name := range fieldOrder {
			d := params[name].descriptor
			d.MetersToFirstCell = toFirst
			d.MetersBetweenCells = between
			params[name].descriptor = d
		}
	}

	// Optional trailing CFAC.
	id, err = r.PeekIdentifier()
	if err != nil {
		return nil, err
	}
	if id == "CFAC" {
		var b CFAC
		if err := readBlock(r, &b); err != nil {
			return nil, err
		}
	}

	if opts.PrintProducts {
		for _, name := range fieldOrder {
			vol.Fields[name] = params[name].descriptor
		}
		vol.SiteID = radarName
		return vol, nil
	}

	for _, name := range fieldOrder {
		vol.Fields[name] = params[name].descriptor
	}
	vol.SiteID = radarName

	// Sweeps: SWIB, then rays until NULL.
	for {
		id, err := peekOrEOF(r)
		if err != nil {
			return nil, err
		}
		if id == "" {
			break
		}
		if id != "SWIB" {
			return nil, fmt.Errorf("%w: expected SWIB, got %q", raderr.ErrUnexpectedBlock, id)
		}
		var swib SWIB
		if err := readBlock(r, &swib); err != nil {
			return nil, err
		}

		sweep := volume.Sweep{
			NyquistVelocity: nyquist,
			ScanMode:        scanMode,
		}

		firstRay := true
		for {
			id, err := r.PeekIdentifier()
			if err != nil {
				return nil, err
			}
			if id != "RYIB" {
				if id == "NULL" {
					var nb NullBlock
					if err := readBlock(r, &nb); err != nil {
						return nil, err
					}
				}
				break
			}

			var ryib RYIB
			if err := readBlock(r, &ryib); err != nil {
				return nil, err
			}

			idA, err := r.PeekIdentifier()
			if err != nil {
				return nil, err
			}
			var asib ASIB
			if idA == "ASIB" {
				if err := readBlock(r, &asib); err != nil {
					return nil, err
				}
			}

			if firstRay {
				sweep.Latitude = float64(asib.Latitude)
				sweep.Longitude = float64(asib.Longitude)
				sweep.Elevation = normalizeDoradeElevation(float64(ryib.Elevation))
				firstRay = false
			}

			ray := volume.Ray{
				Time:    reconstructRayTime(startTime, &ryib),
				Azimuth: float64(ryib.Azimuth),
				Data:    map[string][]float64{},
			}

			// RDAT/QDAT/XSTF field blocks until next RYIB or NULL.
			for {
				fid, err := r.PeekIdentifier()
				if err != nil {
					return nil, err
				}
				if fid == "RYIB" || fid == "NULL" {
					break
				}

				switch fid {
				case "RDAT":
					name, gates, err := readRDAT(r, params)
					if err != nil {
						return nil, err
					}
					ray.Data[name] = gates
				case "QDAT":
					name, gates, err := readQDAT(r, params)
					if err != nil {
						return nil, err
					}
					ray.Data[name] = gates
				case "XSTF":
					var x XSTF
					if err := readBlock(r, &x); err != nil {
						return nil, err
					}
				default:
					return nil, fmt.Errorf("%w: unexpected field block %q", raderr.ErrUnexpectedBlock, fid)
				}
			}

			applyREFThreshold(ray.Data, opts)
			sweep.Rays = append(sweep.Rays, ray)
		}

		if len(sweep.Rays) > 0 {
			vol.Sweeps = append(vol.Sweeps, sweep)
		}
	}

	return vol, nil
}

// peekOrEOF peeks a 4-byte identifier, returning "" (no error) at a
// clean end of stream.
func peekOrEOF(r *bytesio.Reader) (string, error) {
	buf, err := r.Peek(4)
	if err != nil {
		return "", nil
	}
	return string(buf), nil
}

// readBlock reads the 4-byte identifier and 4-byte length already
// embedded in b's first two fields, then the remainder of the block.
func readBlock(r *bytesio.Reader, b interface{}) error {
	return r.Read(b)
}

// rdatStructSize is RDAT's structural prefix: identifier(4) +
// length(4) + field name(8).
const rdatStructSize = 16

// qdatStructSize is QDAT's structural prefix: RDAT's 16 bytes plus
// extension_num(4), config_num(4), first_cell(8), num_cells(8), and
// criteria_value(16).
const qdatStructSize = rdatStructSize + 4 + 4 + 8 + 8 + 16

// dataOffset picks the byte offset within a field block where gate
// data begins: the per-PARM offset, when it is nonzero and strictly
// less than the block's structural size; otherwise the structural
// size itself. Every known producer leaves the per-PARM offset at
// its zero default, so this always resolves to structSize in
// practice, but the general rule is implemented for
// producers that set it explicitly.
func dataOffset(parmOffset uint32, structSize int) int {
	d := int(parmOffset)
	if d > structSize || d == 0 {
		return structSize
	}
	return d
}

// readRDAT reads one RDAT field block: an 8-byte field name followed
// by the field's raw gate bytes, starting at dataOffset(rdatStructSize).
func readRDAT(r *bytesio.Reader, params map[string]*paramState) (string, []float64, error) {
	var id [4]byte
	var nbytes uint32
	if err := r.Read(&id); err != nil {
		return "", nil, err
	}
	if err := r.Read(&nbytes); err != nil {
		return "", nil, err
	}
	var nameBuf [8]byte
	if err := r.Read(&nameBuf); err != nil {
		return "", nil, err
	}
	name := volume.CanonicalFieldName(bytesio.TrimFixedString(nameBuf[:]))

	ps, ok := params[name]
	if !ok {
		return "", nil, fmt.Errorf("%w: RDAT for unregistered field %q", raderr.ErrMalformedHeader, name)
	}

	off := dataOffset(ps.offset, rdatStructSize)
	if err := r.Seek(int64(off - rdatStructSize)); err != nil {
		return "", nil, err
	}
	dataLen := int(nbytes) - off
	if dataLen < 0 {
		return "", nil, fmt.Errorf("%w: RDAT block shorter than header", raderr.ErrMalformedHeader)
	}
	raw := make([]byte, dataLen)
	if err := r.ReadFull(raw); err != nil {
		return "", nil, err
	}

	gates, err := decodeField(raw, ps)
	if err != nil {
		return "", nil, err
	}
	return name, gates, nil
}

// readQDAT reads one QDAT field block: the extended header followed
// by gate data starting at dataOffset(qdatStructSize).
func readQDAT(r *bytesio.Reader, params map[string]*paramState) (string, []float64, error) {
	var id [4]byte
	var nbytes uint32
	if err := r.Read(&id); err != nil {
		return "", nil, err
	}
	if err := r.Read(&nbytes); err != nil {
		return "", nil, err
	}
	var nameBuf [8]byte
	if err := r.Read(&nameBuf); err != nil {
		return "", nil, err
	}
	name := volume.CanonicalFieldName(bytesio.TrimFixedString(nameBuf[:]))

	var rest struct {
		ExtensionNum  uint32
		ConfigNum     uint32
		FirstCell     [4]uint16
		NumCells      [4]uint16
		CriteriaValue [4]float32
	}
	if err := r.Read(&rest); err != nil {
		return "", nil, err
	}

	ps, ok := params[name]
	if !ok {
		return "", nil, fmt.Errorf("%w: QDAT for unregistered field %q", raderr.ErrMalformedHeader, name)
	}

	off := dataOffset(ps.offset, qdatStructSize)
	if err := r.Seek(int64(off - qdatStructSize)); err != nil {
		return "", nil, err
	}
	dataLen := int(nbytes) - off
	if dataLen < 0 {
		return "", nil, fmt.Errorf("%w: QDAT block shorter than header", raderr.ErrMalformedHeader)
	}
	raw := make([]byte, dataLen)
	if err := r.ReadFull(raw); err != nil {
		return "", nil, err
	}

	gates, err := decodeField(raw, ps)
	if err != nil {
		return "", nil, err
	}
	return name, gates, nil
}

// decodeField interprets raw gate bytes per the field's binary_format
// tag: 1=int8, 2=int16 (literal or HRD run-length compressed), 3=int32,
// 4=float32. Every decoded integer is converted with value/scale+bias
// -- division, the opposite convention from FormatB's encode/decode.
func decodeField(raw []byte, ps *paramState) ([]float64, error) {
	switch ps.binaryFmt {
	case 1:
		out := make([]float64, len(raw))
		for i, b := range raw {
			out[i] = float64(int8(b))/ps.scale + ps.bias
		}
		return out, nil

	case 2:
		if ps.compress == 0 {
			out := make([]float64, len(raw)/2)
			for i := range out {
				v := int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
				out[i] = float64(v)/ps.scale + ps.bias
			}
			return out, nil
		}

		words := make([]uint16, len(raw)/2)
		for i := range words {
			words[i] = binary.BigEndian.Uint16(raw[i*2 : i*2+2])
		}
		// Grounded directly on decompress_HRD's signature: the caller
		// always knows n (the descriptor's expected gate count) and
		// bad (param.bad_data).
		decoded, err := rle.Decode(words, len(words), uint16(ps.badData))
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(decoded))
		for i, w := range decoded {
			out[i] = float64(int16(w))/ps.scale + ps.bias
		}
		return out, nil

	case 3:
		out := make([]float64, len(raw)/4)
		for i := range out {
			v := int32(binary.LittleEndian.Uint32(raw[i*4 : i*4+4]))
			out[i] = float64(v)/ps.scale + ps.bias
		}
		return out, nil

	case 4:
		out := make([]float64, len(raw)/4)
		for i := range out {
			bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
			out[i] = float64(math.Float32frombits(bits))/ps.scale + ps.bias
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: binary_format %d", raderr.ErrUnsupportedBinaryFormat, ps.binaryFmt)
	}
}

// applyREFThreshold rewrites the REF field in place: each decoded gate
// is replaced by gate*opts.Scale+opts.Offset, or the missing-gate
// sentinel if that value falls below opts.Remove.
func applyREFThreshold(data map[string][]float64, opts options.Options) {
	ref, ok := data["REF"]
	if !ok {
		return
	}
	for i, g := range ref {
		tmp := g*opts.Scale + opts.Offset
		if tmp < opts.Remove {
			ref[i] = volume.MissingGate
		} else {
			ref[i] = tmp
		}
	}
}

// reconstructRayTime derives a ray's absolute timestamp from the
// sweep's start time and the ray's julian day / time-of-day fields.
// Grounded on original_source/src/formats/dorade.rs's time
// reconstruction: the year/month/day come from start_time, the
// h/m/s/ms are clamped to zero if their sum would exceed 24 hours, and
// the julian-day delta from start_time's own julian day is added as a
// day offset. See DESIGN.md for the UTC-midnight rollover open
// question this leaves unresolved upstream.
func reconstructRayTime(startTime time.Time, ryib *RYIB) time.Time {
	ymd := time.Date(startTime.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	h, m, s, ms := int(ryib.Hour), int(ryib.Minute), int(ryib.Second), int(ryib.Millisecond)
	totalMs := ((h*60+m)*60+s)*1000 + ms
	if totalMs > 24*60*60*1000 {
		h, m, s, ms = 0, 0, 0, 0
	}

	newTime := time.Date(startTime.Year(), startTime.Month(), startTime.Day(),
		h, m, s, ms*int(time.Millisecond), time.UTC)
	dayDelta := int(ryib.JulianDay) - julianDayOf(startTime, ymd)
	return newTime.AddDate(0, 0, dayDelta)
}

// julianDayOf returns start_time's day-of-year, 1-based, matching the
// original's floor((start_time - ymd) in days) + 1.
func julianDayOf(startTime, ymd time.Time) int {
	return int(startTime.Sub(ymd).Hours()/24) + 1
}

// normalizeDoradeElevation folds an elevation angle into [-180, 180]
// by subtracting 360 when it exceeds 180.
func normalizeDoradeElevation(elev float64) float64 {
	if elev > 180 {
		return elev - 360
	}
	return elev
}
