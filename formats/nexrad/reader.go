package nexrad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/jddeal/radarvolume/bytesio"
	"github.com/jddeal/radarvolume/formats/options"
	"github.com/jddeal/radarvolume/raderr"
	"github.com/jddeal/radarvolume/volume"
)

// IsNexrad reports whether path begins with the "AR2V" tape magic.
func IsNexrad(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 4)
	if _, err := f.Read(buf); err != nil {
		return false
	}
	return string(buf) == "AR2V"
}

// rayAttribs accumulates the per-ray geo-reference and calibration
// fields a sweep reports as an average, grounded on
// original_source/src/formats/nexrad.rs's RayAttribs.
type rayAttribs struct {
	elev, nyquist, lat, lon float64
	count                   int
}

func (a *rayAttribs) mean() (elev, nyquist, lat, lon float64) {
	if a.count == 0 {
		return 0, 0, 0, 0
	}
	n := float64(a.count)
	return a.elev / n, a.nyquist / n, a.lat / n, a.lon / n
}

// Read parses a NEXRAD Archive II stream into a Volume.
func Read(path string, opts options.Options) (*volume.Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}
	defer f.Close()

	hdrReader := bytesio.NewReader(f, binary.BigEndian)
	var vh volumeHeader
	if err := hdrReader.Read(&vh); err != nil {
		return nil, err
	}

	compressionRecord := make([]byte, 12)
	if err := hdrReader.ReadFull(compressionRecord); err != nil {
		return nil, err
	}

	var body []byte
	switch {
	case bytes.Equal(compressionRecord[4:6], []byte("BZ")):
		body, err = decompressBody(f)
		if err != nil {
			return nil, err
		}
	case bytes.Equal(compressionRecord[4:6], []byte{0x00, 0x00}), bytes.Equal(compressionRecord[4:6], []byte{0x09, 0x80}):
		body, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
		}
	default:
		return nil, fmt.Errorf("%w: unrecognized compression record", raderr.ErrMalformedHeader)
	}

	siteID := string(vh.ICAO[:])
	if opts.OverrideRadar != "" {
		siteID = opts.OverrideRadar
	}

	vol := &volume.Volume{SiteID: siteID, Fields: map[string]volume.FieldDescriptor{}}

	var sweep volume.Sweep
	var atts rayAttribs

	for len(body) > 0 {
		ray, end, consumed, err := readMessageSlot(body, vol.Fields, &atts)
		if err != nil {
			return nil, err
		}
		body = body[consumed:]

		if ray == nil {
			continue
		}
		sweep.Rays = append(sweep.Rays, *ray)

		if end {
			elev, nyq, lat, lon := atts.mean()
			sweep.Elevation = elev
			sweep.NyquistVelocity = nyq
			sweep.Latitude = lat
			sweep.Longitude = lon
			vol.Sweeps = append(vol.Sweeps, sweep)

			sweep = volume.Sweep{}
			atts = rayAttribs{}
		}
	}

	return vol, nil
}

// decompressBody reassembles the whole-file bzip2 compressed body:
// repeated (4-byte length prefix, bzip2 stream) segments, concatenated,
// with the first 12 bytes of the result discarded (a second,
// redundant compression record).
func decompressBody(f *os.File) ([]byte, error) {
	rest, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}

	var out []byte
	for len(rest) > 0 {
		if len(rest) < 4 {
			return nil, fmt.Errorf("%w: truncated compressed segment prefix", raderr.ErrMalformedHeader)
		}
		rest = rest[4:]

		br := bytes.NewReader(rest)
		zr, err := bzip2.NewReader(br, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
		}
		decoded, err := io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
		}
		out = append(out, decoded...)

		consumed := len(rest) - br.Len()
		rest = rest[consumed:]
	}

	if len(out) < 12 {
		return nil, fmt.Errorf("%w: decompressed body shorter than compression record", raderr.ErrMalformedHeader)
	}
	return out[12:], nil
}

// readMessageSlot reads one message's MsgHeader and, for type 31,
// decodes a ray. Non-31 messages are skipped by advancing a fixed
// messageSlotSize bytes; type 31 messages instead consume exactly
// the MsgHeader plus header.Size halfwords -- the Msg31Header, its
// pointer table, and the data blocks -- clamped to the remaining
// buffer, since Archive II does not actually pad Msg31 payloads to
// the nominal slot size. It returns the ray (nil for non-31
// messages), whether that ray ends its sweep, and the number of
// bytes consumed.
func readMessageSlot(body []byte, fields map[string]volume.FieldDescriptor, atts *rayAttribs) (*volume.Ray, bool, int, error) {
	var hdr msgHeader
	headerSize := binary.Size(hdr)
	if len(body) < headerSize {
		return nil, false, len(body), fmt.Errorf("%w: short message header", raderr.ErrMalformedHeader)
	}
	if err := binary.Read(bytes.NewReader(body), binary.BigEndian, &hdr); err != nil {
		return nil, false, 0, fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
	}

	if hdr.MessageType != 31 {
		if len(body) < messageSlotSize {
			return nil, false, len(body), fmt.Errorf("%w: short message slot", raderr.ErrMalformedHeader)
		}
		return nil, false, messageSlotSize, nil
	}

	cursor := body[headerSize:]
	ray, end, err := decodeMsg31(cursor, fields, atts)
	if err != nil {
		return nil, false, 0, err
	}

	consumed := headerSize + int(hdr.Size)*2
	if consumed > len(body) {
		consumed = len(body)
	}
	return ray, end, consumed, nil
}

// decodeMsg31 decodes a Msg31Header, its pointer table, and the data
// blocks those pointers reference.
func decodeMsg31(data []byte, fields map[string]volume.FieldDescriptor, atts *rayAttribs) (*volume.Ray, bool, error) {
	var hdr msg31Header
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, &hdr); err != nil {
		return nil, false, fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
	}
	headerSize := binary.Size(hdr)

	ptrBase := headerSize + int(hdr.DataBlockCount)*4
	if ptrBase > len(data) {
		return nil, false, fmt.Errorf("%w: pointer table exceeds message", raderr.ErrMalformedHeader)
	}

	ptrs := make([]uint32, hdr.DataBlockCount)
	ptrReader := bytes.NewReader(data[headerSize:ptrBase])
	for i := range ptrs {
		if err := binary.Read(ptrReader, binary.BigEndian, &ptrs[i]); err != nil {
			return nil, false, fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
		}
	}

	ray := &volume.Ray{Azimuth: float64(hdr.AzimuthAngle), Data: map[string][]float64{}}
	atts.elev += float64(hdr.ElevationAngle)
	atts.count++

	for _, ptr := range ptrs {
		if ptr == 0 {
			continue
		}
		// ptr is already an offset from the start of data (the
		// Msg31Header payload region), the same origin data is
		// sliced from -- no further adjustment needed.
		off := int(ptr)
		if off < 0 || off+4 > len(data) {
			return nil, false, fmt.Errorf("%w: data block pointer out of range", raderr.ErrMalformedHeader)
		}
		if err := decodeDataBlock(data[off:], ray, fields, atts); err != nil {
			return nil, false, err
		}
	}

	end := hdr.RadialStatus == radialStatusEndOfElevation || hdr.RadialStatus == radialStatusEndOfVolume
	return ray, end, nil
}

// decodeDataBlock dispatches on a data block's 3-character name and
// decodes VOL/ELV/RAD metadata blocks into atts, or a field block
// (REF/VEL/SW/ZDR/PHI/RHO/CFP) into ray.Data.
func decodeDataBlock(data []byte, ray *volume.Ray, fields map[string]volume.FieldDescriptor, atts *rayAttribs) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: truncated data block tag", raderr.ErrMalformedHeader)
	}
	name := string(data[1:4])

	switch name {
	case "VOL":
		var b volumeDataBlock
		if err := binary.Read(bytes.NewReader(data[4:]), binary.BigEndian, &b); err != nil {
			return fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
		}
		atts.lat += float64(b.Latitude)
		atts.lon += float64(b.Longitude)
		return nil

	case "ELV":
		var b elevationDataBlock
		if err := binary.Read(bytes.NewReader(data[4:]), binary.BigEndian, &b); err != nil {
			return fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
		}
		return nil

	case "RAD":
		var b radialDataBlock
		if err := binary.Read(bytes.NewReader(data[4:]), binary.BigEndian, &b); err != nil {
			return fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
		}
		atts.nyquist += float64(b.NyquistVelocity) / 100.0
		return nil

	case "REF", "VEL", "SW ", "ZDR", "PHI", "RHO", "CFP":
		fieldName := trimField(name)
		var m genericDataMoment
		if err := binary.Read(bytes.NewReader(data[4:]), binary.BigEndian, &m); err != nil {
			return fmt.Errorf("%w: %v", raderr.ErrMalformedHeader, err)
		}
		headerLen := 4 + binary.Size(m)
		if headerLen > len(data) {
			return fmt.Errorf("%w: field block shorter than header", raderr.ErrMalformedHeader)
		}
		payload := data[headerLen:]

		if _, exists := fields[fieldName]; !exists {
			fields[fieldName] = volume.FieldDescriptor{
				MetersToFirstCell:  float64(m.FirstGate),
				MetersBetweenCells: float64(m.GateSpacing),
			}
		}

		scale, offset, ok := scaleOffset(fieldName)
		if !ok {
			return fmt.Errorf("%w: no scale/offset for field %q", raderr.ErrUnsupportedBinaryFormat, fieldName)
		}

		gates, err := decodeQuantized(payload, int(m.NumberGates), int(m.DataWordSize), scale, offset)
		if err != nil {
			return err
		}
		ray.Data[fieldName] = gates
		return nil

	default:
		return fmt.Errorf("%w: unknown data block %q", raderr.ErrUnexpectedBlock, name)
	}
}

// trimField strips the trailing space NEXRAD pads the 3-character
// "SW " tag with.
func trimField(name string) string {
	if name == "SW " {
		return "SW"
	}
	return name
}

// decodeQuantized decodes n gates of wordSize-bit quantized values:
// q<2 maps to the missing-gate sentinel, else (q-offset)/scale.
func decodeQuantized(raw []byte, n, wordSize int, scale, offset float64) ([]float64, error) {
	out := make([]float64, n)
	switch wordSize {
	case 8:
		if len(raw) < n {
			return nil, fmt.Errorf("%w: truncated 8-bit gate data", raderr.ErrMalformedHeader)
		}
		for i := 0; i < n; i++ {
			out[i] = dequantize(float64(raw[i]), scale, offset)
		}
	case 16:
		if len(raw) < n*2 {
			return nil, fmt.Errorf("%w: truncated 16-bit gate data", raderr.ErrMalformedHeader)
		}
		for i := 0; i < n; i++ {
			q := binary.BigEndian.Uint16(raw[i*2 : i*2+2])
			out[i] = dequantize(float64(q), scale, offset)
		}
	default:
		return nil, fmt.Errorf("%w: word size %d", raderr.ErrUnsupportedBinaryFormat, wordSize)
	}
	return out, nil
}

func dequantize(q, scale, offset float64) float64 {
	if q < 2 {
		return volume.MissingGate
	}
	return (q - offset) / scale
}
