package cfradial

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jddeal/radarvolume/raderr"
)

// NetCDF classic-format (CDF-1/CDF-2) tag values, per the format's
// public specification. There is no netCDF/HDF5 binding in the
// example corpus (see DESIGN.md), so CFRadial's container is parsed
// directly against this documented binary layout rather than through
// a library.
const (
	ncDimension = 0x0A
	ncVariable  = 0x0B
	ncAttribute = 0x0C
)

// NetCDF external data types.
const (
	ncByte   = 1
	ncChar   = 2
	ncShort  = 3
	ncInt    = 4
	ncFloat  = 5
	ncDouble = 6
)

// variable describes one netCDF variable's shape, type, and data
// location.
type variable struct {
	name     string
	dimIDs   []int
	attrs    map[string]interface{}
	dataType int
	vsize    uint32
	begin    int64
	isRecord bool
}

// dataset is a parsed netCDF classic file: dimensions, global
// attributes, and variable descriptors, backed by the open file for
// lazy data reads.
type dataset struct {
	f           *os.File
	version     byte
	numRecs     uint32
	dimNames    []string
	dimLengths  []int
	recDimIndex int // -1 if no unlimited dimension
	globalAttrs map[string]interface{}
	vars        map[string]*variable
	recSize     int64
	dataStart   int64
}

// isNetCDFClassic reports whether path begins with the "CDF" magic
// that identifies netCDF classic format 1 or 2 (not HDF5-based
// netCDF4, which this reader does not support).
func isNetCDFClassic(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 4)
	if _, err := f.Read(buf); err != nil {
		return false
	}
	return string(buf[:3]) == "CDF" && (buf[3] == 1 || buf[3] == 2)
}

// openDataset parses a netCDF classic file's header.
func openDataset(path string) (*dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
	}
	if string(magic[:3]) != "CDF" {
		f.Close()
		return nil, fmt.Errorf("%w: not a netCDF classic file", raderr.ErrMalformedHeader)
	}

	ds := &dataset{f: f, version: magic[3], recDimIndex: -1, vars: map[string]*variable{}}

	r := &ncReader{f: f}
	ds.numRecs, err = r.u32()
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := ds.readDimList(r); err != nil {
		f.Close()
		return nil, err
	}
	ds.globalAttrs, err = r.attrList()
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := ds.readVarList(r); err != nil {
		f.Close()
		return nil, err
	}

	ds.computeRecordLayout()
	return ds, nil
}

func (ds *dataset) close() error {
	return ds.f.Close()
}

func (ds *dataset) readDimList(r *ncReader) error {
	tag, n, err := r.tagAndCount()
	if err != nil {
		return err
	}
	if tag == 0 {
		return nil
	}
	if tag != ncDimension {
		return fmt.Errorf("%w: expected dim_list tag", raderr.ErrMalformedHeader)
	}
	for i := 0; i < n; i++ {
		name, err := r.str()
		if err != nil {
			return err
		}
		length, err := r.u32()
		if err != nil {
			return err
		}
		ds.dimNames = append(ds.dimNames, name)
		if length == 0 {
			ds.recDimIndex = i
			ds.dimLengths = append(ds.dimLengths, -1)
		} else {
			ds.dimLengths = append(ds.dimLengths, int(length))
		}
	}
	return nil
}

func (ds *dataset) readVarList(r *ncReader) error {
	tag, n, err := r.tagAndCount()
	if err != nil {
		return err
	}
	if tag == 0 {
		return nil
	}
	if tag != ncVariable {
		return fmt.Errorf("%w: expected var_list tag", raderr.ErrMalformedHeader)
	}
	for i := 0; i < n; i++ {
		v := &variable{}
		v.name, err = r.str()
		if err != nil {
			return err
		}
		ndims, err := r.u32()
		if err != nil {
			return err
		}
		for d := 0; d < int(ndims); d++ {
			id, err := r.u32()
			if err != nil {
				return err
			}
			v.dimIDs = append(v.dimIDs, int(id))
		}
		if len(v.dimIDs) > 0 && v.dimIDs[0] == ds.recDimIndex {
			v.isRecord = true
		}
		v.attrs, err = r.attrList()
		if err != nil {
			return err
		}
		dataType, err := r.u32()
		if err != nil {
			return err
		}
		v.dataType = int(dataType)
		v.vsize, err = r.u32()
		if err != nil {
			return err
		}
		if ds.version == 2 {
			v.begin, err = r.i64()
		} else {
			var begin32 uint32
			begin32, err = r.u32()
			v.begin = int64(begin32)
		}
		if err != nil {
			return err
		}
		ds.vars[v.name] = v
	}
	return nil
}

// computeRecordLayout sums every record variable's padded vsize to
// find the per-record stride and the offset where the record data
// region begins.
func (ds *dataset) computeRecordLayout() {
	var recSize int64
	dataStart := int64(-1)
	for _, v := range ds.vars {
		if !v.isRecord {
			continue
		}
		recSize += int64(v.vsize)
		if dataStart == -1 || v.begin < dataStart {
			dataStart = v.begin
		}
	}
	ds.recSize = recSize
	ds.dataStart = dataStart
}

// typeSize returns the on-disk byte width of a netCDF external type.
func typeSize(t int) int {
	switch t {
	case ncByte, ncChar:
		return 1
	case ncShort:
		return 2
	case ncInt, ncFloat:
		return 4
	case ncDouble:
		return 8
	default:
		return 0
	}
}

// dimLen returns the length of dimension id, substituting the
// observed record count for the unlimited dimension.
func (ds *dataset) dimLen(id int) int {
	if id == ds.recDimIndex {
		return ds.numRecords()
	}
	return ds.dimLengths[id]
}

// numRecords returns the dataset's record count, inferring it from
// file size when the header reports the streaming sentinel.
func (ds *dataset) numRecords() int {
	if ds.numRecs != 0xFFFFFFFF {
		return int(ds.numRecs)
	}
	if ds.recSize == 0 {
		return 0
	}
	info, err := ds.f.Stat()
	if err != nil {
		return 0
	}
	return int((info.Size() - ds.dataStart) / ds.recSize)
}

// attrFloat returns a variable or global attribute's value as a float64,
// trying every numeric representation the format allows, and a string
// fallback for ones that parse as ASCII-encoded numbers.
func attrFloat(attrs map[string]interface{}, name string) (float64, bool) {
	v, ok := attrs[name]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case int16:
		return float64(t), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(t, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func attrString(attrs map[string]interface{}, name string) (string, bool) {
	v, ok := attrs[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// readFloat64 reads one scalar value at the given dimension indices
// (one index per dimension, in declared order) as a float64.
func (ds *dataset) readFloat64(name string, indices []int) (float64, error) {
	v, ok := ds.vars[name]
	if !ok {
		return 0, fmt.Errorf("%w: variable %q not present", raderr.ErrMalformedHeader, name)
	}
	off, err := ds.elementOffset(v, indices)
	if err != nil {
		return 0, err
	}
	return ds.readScalarAt(v, off)
}

// readFloat64Range reads count contiguous values of a 1-D variable
// starting at index start along its only (or outermost, for a 2-D
// field sliced one record at a time) dimension.
func (ds *dataset) readFloat64Range(name string, start, count int) ([]float64, error) {
	v, ok := ds.vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: variable %q not present", raderr.ErrMalformedHeader, name)
	}
	out := make([]float64, count)
	for i := 0; i < count; i++ {
		idx := make([]int, len(v.dimIDs))
		idx[0] = start + i
		val, err := ds.readFloat64(name, idx)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

// readGateRow reads ngates contiguous values for variable name's
// record rayIndex, the [ray, gate] layout CFRadial field arrays use.
func (ds *dataset) readGateRow(name string, rayIndex, ngates int) ([]float64, error) {
	v, ok := ds.vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: variable %q not present", raderr.ErrMalformedHeader, name)
	}
	base, err := ds.elementOffset(v, []int{rayIndex, 0})
	if err != nil {
		return nil, err
	}
	width := typeSize(v.dataType)
	out := make([]float64, ngates)
	for g := 0; g < ngates; g++ {
		val, err := ds.readScalarAt(v, base+int64(g*width))
		if err != nil {
			return nil, err
		}
		out[g] = val
	}
	return out, nil
}

// elementOffset computes the absolute file offset of the element at
// indices within variable v, honoring netCDF's record-variable
// interleaving when v varies along the unlimited dimension.
func (ds *dataset) elementOffset(v *variable, indices []int) (int64, error) {
	if len(indices) == 0 {
		return v.begin, nil
	}

	width := typeSize(v.dataType)
	if width == 0 {
		return 0, fmt.Errorf("%w: unsupported netCDF type %d", raderr.ErrUnsupportedBinaryFormat, v.dataType)
	}

	if v.isRecord {
		record := indices[0]
		within := int64(0)
		stride := int64(width)
		for d := 1; d < len(v.dimIDs); d++ {
			within += int64(indices[d]) * stride
			stride *= int64(ds.dimLen(v.dimIDs[d]))
		}
		return ds.dataStart + int64(record)*ds.recSize + v.begin - ds.dataStart + within, nil
	}

	within := int64(0)
	stride := int64(width)
	for d := len(v.dimIDs) - 1; d >= 0; d-- {
		within += int64(indices[d]) * stride
		stride *= int64(ds.dimLen(v.dimIDs[d]))
	}
	return v.begin + within, nil
}

func (ds *dataset) readScalarAt(v *variable, offset int64) (float64, error) {
	width := typeSize(v.dataType)
	buf := make([]byte, width)
	if _, err := ds.f.ReadAt(buf, offset); err != nil {
		return 0, fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}
	switch v.dataType {
	case ncByte:
		return float64(int8(buf[0])), nil
	case ncShort:
		return float64(int16(binary.BigEndian.Uint16(buf))), nil
	case ncInt:
		return float64(int32(binary.BigEndian.Uint32(buf))), nil
	case ncFloat:
		bits := binary.BigEndian.Uint32(buf)
		return float64(math.Float32frombits(bits)), nil
	case ncDouble:
		bits := binary.BigEndian.Uint64(buf)
		return math.Float64frombits(bits), nil
	default:
		return 0, fmt.Errorf("%w: unsupported netCDF type %d", raderr.ErrUnsupportedBinaryFormat, v.dataType)
	}
}

// ncReader sequentially decodes the big-endian, 4-byte-aligned
// primitives that make up a netCDF classic header.
type ncReader struct {
	f *os.File
}

func (r *ncReader) u32() (uint32, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r.f, buf); err != nil {
		return 0, fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
	}
	return binary.BigEndian.Uint32(buf), nil
}

func (r *ncReader) i64() (int64, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(r.f, buf); err != nil {
		return 0, fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
	}
	return int64(binary.BigEndian.Uint64(buf)), nil
}

func (r *ncReader) tagAndCount() (int, int, error) {
	tag, err := r.u32()
	if err != nil {
		return 0, 0, err
	}
	n, err := r.u32()
	if err != nil {
		return 0, 0, err
	}
	return int(tag), int(n), nil
}

// str reads a netCDF "name" or char-array string: a length prefix
// followed by that many bytes, padded to a 4-byte boundary.
func (r *ncReader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	padded := (int(n) + 3) / 4 * 4
	buf := make([]byte, padded)
	if _, err := io.ReadFull(r.f, buf); err != nil {
		return "", fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
	}
	return string(buf[:n]), nil
}

// attrList reads a NC_ATTRIBUTE list into a name -> value map. Scalar
// numeric attributes decode to their native Go numeric type; NC_CHAR
// attributes decode to string.
func (r *ncReader) attrList() (map[string]interface{}, error) {
	tag, n, err := r.tagAndCount()
	if err != nil {
		return nil, err
	}
	attrs := map[string]interface{}{}
	if tag == 0 {
		return attrs, nil
	}
	if tag != ncAttribute {
		return nil, fmt.Errorf("%w: expected attr_list tag", raderr.ErrMalformedHeader)
	}
	for i := 0; i < n; i++ {
		name, err := r.str()
		if err != nil {
			return nil, err
		}
		dataType, err := r.u32()
		if err != nil {
			return nil, err
		}
		count, err := r.u32()
		if err != nil {
			return nil, err
		}
		width := typeSize(int(dataType))
		raw := int(count) * width
		padded := (raw + 3) / 4 * 4
		buf := make([]byte, padded)
		if _, err := io.ReadFull(r.f, buf); err != nil {
			return nil, fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
		}

		switch dataType {
		case ncChar:
			attrs[name] = string(buf[:count])
		case ncFloat:
			if count > 0 {
				attrs[name] = float64(math.Float32frombits(binary.BigEndian.Uint32(buf[:4])))
			}
		case ncDouble:
			if count > 0 {
				attrs[name] = math.Float64frombits(binary.BigEndian.Uint64(buf[:8]))
			}
		case ncInt:
			if count > 0 {
				attrs[name] = int32(binary.BigEndian.Uint32(buf[:4]))
			}
		case ncShort:
			if count > 0 {
				attrs[name] = int16(binary.BigEndian.Uint16(buf[:2]))
			}
		}
	}
	return attrs, nil
}
