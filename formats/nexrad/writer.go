package nexrad

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jddeal/radarvolume/bytesio"
	"github.com/jddeal/radarvolume/formats/options"
	"github.com/jddeal/radarvolume/raderr"
	"github.com/jddeal/radarvolume/volume"
)

// msg31HeaderSize is sizeof(msg31Header) on the wire: 4+4+2+2+4+1+1+2+1+1+1+1+4+1+1+2 = 32.
const msg31HeaderSize = 32

// pointerSlots is the number of 4-byte pointer entries the on-disk
// header always reserves, even though at most 8 are ever filled (3
// metadata blocks + up to 5 fields) -- see DESIGN.md.
const pointerSlots = 10

// Write serializes vol to path as an uncompressed FormatB archive:
// a 24-byte VolumeHeader, a 12-byte zeroed compression record, then
// every sweep's rays as type-31 messages in order. Grounded on
// original_source/src/formats/nexrad.rs's write_nexrad/write_sweep.
func Write(vol *volume.Volume, path string, opts options.Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}
	defer f.Close()

	w := bytesio.NewWriter(f, binary.BigEndian)

	siteID := vol.SiteID
	if opts.OverrideRadar != "" {
		siteID = opts.OverrideRadar
	}

	date, ms := toDayMs(vol.StartTime())
	vh := volumeHeader{
		Tape:      [9]byte{'A', 'R', '2', 'V', '0', '0', '0', '6', '.'},
		Extension: [3]byte{'0', '0', '1'},
		Date:      date,
		Time:      ms,
	}
	copy(vh.ICAO[:], bytesio.PadFixedString(siteID, 4))
	if err := w.Write(&vh); err != nil {
		return err
	}
	if _, err := f.Write(make([]byte, 12)); err != nil {
		return fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
	}

	for sweepIndex := range vol.Sweeps {
		if err := writeSweep(w, vol, sweepIndex); err != nil {
			return err
		}
	}
	return nil
}

// toDayMs splits t into a FormatB julian-day-since-epoch (plus one)
// and milliseconds-of-day pair.
func toDayMs(t time.Time) (uint32, uint32) {
	epoch := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	day := uint32(t.Sub(epoch).Hours()/24) + 1
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	ms := uint32(t.Sub(midnight).Milliseconds())
	return day, ms
}

// writeSweep emits every ray in sweeps[sweepIndex] as one type-31
// message, assigning radial_status per the volume-wide state machine.
func writeSweep(w *bytesio.Writer, vol *volume.Volume, sweepIndex int) error {
	sweep := &vol.Sweeps[sweepIndex]

	for rayIndex := range sweep.Rays {
		data, ptrs := packData(vol, sweepIndex, rayIndex)

		msgHdr := packMsgHeader(sweep, len(data))
		if err := w.Write(&msgHdr); err != nil {
			return err
		}

		status := radialStatusFor(vol, sweepIndex, rayIndex)
		msg31Hdr := packMsg31Header(vol, sweep, sweepIndex, rayIndex, status, ptrs)
		if err := w.Write(&msg31Hdr); err != nil {
			return err
		}

		onDisk := make([]uint32, pointerSlots)
		copy(onDisk, ptrs)
		if err := w.Write(onDisk); err != nil {
			return err
		}

		if _, err := w.W.Write(data); err != nil {
			return fmt.Errorf("%w: %v", raderr.ErrIOFailure, err)
		}
	}
	return nil
}

// radialStatusFor implements the volume-wide radial_status state
// machine: 3 opens the volume, 4 closes it, 0/2 bracket every other
// sweep, 1 otherwise.
func radialStatusFor(vol *volume.Volume, sweepIndex, rayIndex int) uint8 {
	sweep := &vol.Sweeps[sweepIndex]
	firstSweep := sweepIndex == 0
	lastSweep := sweepIndex == len(vol.Sweeps)-1
	firstRay := rayIndex == 0
	lastRay := rayIndex == len(sweep.Rays)-1

	switch {
	case firstRay && firstSweep:
		return radialStatusStartOfVolume
	case lastRay && lastSweep:
		return radialStatusEndOfVolume
	case firstRay:
		return radialStatusStartOfElevation
	case lastRay:
		return radialStatusEndOfElevation
	default:
		return radialStatusIntermediateRadial
	}
}

func packMsgHeader(sweep *volume.Sweep, dataLen int) msgHeader {
	date, ms := toDayMs(sweep.Time())
	return msgHeader{
		// Size is the halfword count of everything after this
		// header: the Msg31Header, the fixed pointerSlots-entry
		// pointer table, and the data blocks. readMessageSlot uses
		// this as the exact inverse to advance past the message.
		Size:         uint16((msg31HeaderSize + pointerSlots*4 + dataLen) / 2),
		Channels:     0,
		MessageType:  31,
		SequenceID:   0,
		Date:         uint16(date),
		Milliseconds: ms,
		Segments:     1,
		SegmentNum:   1,
	}
}

func packMsg31Header(vol *volume.Volume, sweep *volume.Sweep, sweepIndex, rayIndex int, status uint8, ptrs []uint32) msg31Header {
	date, ms := toDayMs(sweep.Time())
	ray := sweep.Rays[rayIndex]

	var hdr msg31Header
	copy(hdr.RadarIdentifier[:], bytesio.PadFixedString(vol.SiteID, 4))
	hdr.CollectionTime = ms
	hdr.CollectionDate = uint16(date)
	hdr.AzimuthNumber = uint16(rayIndex + 1)
	hdr.AzimuthAngle = float32(ray.Azimuth)
	hdr.CompressionIndicator = 0
	hdr.RadialLength = 0
	hdr.AzimuthResolutionCode = 1
	hdr.RadialStatus = status
	hdr.ElevationNumber = uint8(sweepIndex + 1)
	hdr.CutSectorNumber = 1
	hdr.ElevationAngle = float32(sweep.Elevation)
	hdr.RadialBlankingStatus = 0
	hdr.AzimuthIndexingMode = 0
	hdr.DataBlockCount = uint16(len(ptrs))
	return hdr
}

// logicalPointerCount is the number of pointer entries block_count
// always reports, regardless of how many fields the ray actually
// carries: 3 metadata blocks (VOL/ELV/RAD) plus 5 reserved field
// slots. The reader only consumes this many pointer words; the final
// two of the 10 on-disk slots are always zero and never read back.
const logicalPointerCount = 8

// packData packs the VOL/ELV/RAD metadata blocks followed by the
// quantized field blocks for one ray, returning the concatenated data
// and a pointer table (always padded to logicalPointerCount entries)
// addressing each block relative to the start of the Msg31Header.
func packData(vol *volume.Volume, sweepIndex, rayIndex int) ([]byte, []uint32) {
	sweep := &vol.Sweeps[sweepIndex]
	ray := sweep.Rays[rayIndex]

	var ptrs []uint32
	var data []byte
	nextPtr := uint32(msg31HeaderSize + pointerSlots*4)

	ptrs = append(ptrs, nextPtr)
	volBlock := packVolumeBlock(sweep)
	nextPtr += uint32(len(volBlock))
	data = append(data, volBlock...)

	ptrs = append(ptrs, nextPtr)
	elvBlock := packElevationBlock()
	nextPtr += uint32(len(elvBlock))
	data = append(data, elvBlock...)

	ptrs = append(ptrs, nextPtr)
	radBlock := packRadialBlock(sweep)
	nextPtr += uint32(len(radBlock))
	data = append(data, radBlock...)

	for _, field := range fieldWriteOrder {
		gates, ok := ray.Data[field]
		if !ok {
			continue
		}
		if len(ptrs) == logicalPointerCount {
			break
		}

		ngates := len(gates)
		if ngates%2 != 0 {
			ngates--
		}

		descriptor := vol.Fields[field]
		headerBlock := packDataBlock(field, descriptor, ngates)

		wordSize := 8
		maxVal := 255.0
		if field == "PHI" {
			wordSize = 16
			maxVal = 65535.0
		}
		arrayBlock := packDataArray(gates, field, wordSize, maxVal)

		ptrs = append(ptrs, nextPtr)
		nextPtr += uint32(len(headerBlock) + len(arrayBlock) + 12)

		data = append(data, headerBlock...)
		data = append(data, arrayBlock...)
		data = append(data, make([]byte, 12)...)
	}

	padded := make([]uint32, logicalPointerCount)
	copy(padded, ptrs)
	return data, padded
}

func packVolumeBlock(sweep *volume.Sweep) []byte {
	b := volumeDataBlock{
		LRTUP:     uint16(binary.Size(volumeDataBlock{})),
		Latitude:  float32(sweep.Latitude),
		Longitude: float32(sweep.Longitude),
	}
	return encodeTaggedBlock("R", "VOL", &b)
}

func packElevationBlock() []byte {
	b := elevationDataBlock{LRTUP: uint16(binary.Size(elevationDataBlock{}))}
	return encodeTaggedBlock("R", "ELV", &b)
}

func packRadialBlock(sweep *volume.Sweep) []byte {
	b := radialDataBlock{
		LRTUP:           uint16(binary.Size(radialDataBlock{})),
		NyquistVelocity: uint16(sweep.NyquistVelocity * 100.0),
	}
	return encodeTaggedBlock("R", "RAD", &b)
}

func packDataBlock(field string, descriptor volume.FieldDescriptor, ngates int) []byte {
	scale, offset, _ := scaleOffset(field)
	wordSize := uint8(8)
	if field == "PHI" {
		wordSize = 16
	}
	m := genericDataMoment{
		NumberGates:  uint16(ngates),
		FirstGate:    uint16(descriptor.MetersToFirstCell),
		GateSpacing:  uint16(descriptor.MetersBetweenCells),
		DataWordSize: wordSize,
		Scale:        float32(scale),
		Offset:       float32(offset),
	}
	return encodeTaggedBlock("D", field, &m)
}

// packDataArray quantizes gates to fixed-point big-endian words,
// discarding a trailing gate if the count is odd.
func packDataArray(gates []float64, field string, wordSize int, maxVal float64) []byte {
	scale, offset, _ := scaleOffset(field)

	n := len(gates)
	if n%2 != 0 {
		n--
	}

	out := make([]byte, 0, n*(wordSize/8))
	for i := 0; i < n; i++ {
		val := gates[i]*scale + offset
		var q uint64
		if val > maxVal || val < 2.0 {
			q = 0
		} else {
			q = uint64(val)
		}
		if wordSize == 16 {
			buf := make([]byte, 2)
			binary.BigEndian.PutUint16(buf, uint16(q))
			out = append(out, buf...)
		} else {
			out = append(out, byte(q))
		}
	}
	return out
}

// encodeTaggedBlock prepends the 4-byte (block type + 3-char data
// name) tag to a struct's big-endian encoding. The data name is
// space-padded, not zero-padded, so "SW" round-trips as "SW " --
// the same tag decodeDataBlock matches on.
func encodeTaggedBlock(blockType, name string, v interface{}) []byte {
	tag := []byte{blockType[0], ' ', ' ', ' '}
	copy(tag[1:4], name)

	buf := &byteSink{}
	w := bytesio.NewWriter(buf, binary.BigEndian)
	_ = w.Write(v)
	return append(tag, buf.bytes...)
}

// byteSink is a minimal io.Writer backed by a growable slice, used to
// serialize a struct before its length is known.
type byteSink struct{ bytes []byte }

func (b *byteSink) Write(p []byte) (int, error) {
	b.bytes = append(b.bytes, p...)
	return len(p), nil
}

var _ io.Writer = (*byteSink)(nil)
