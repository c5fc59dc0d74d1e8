// Package nexrad reads and writes FormatB: a NEXRAD Archive II stream
// of big-endian, fixed-size message slots, optionally whole-file
// bzip2 compressed. Grounded on archive2/types.go, archive2/message31.go,
// and archive2/archive2.go (the teacher's NEXRAD decoder), adapted to
// produce and consume volume.Volume instead of a standalone message
// tree, and extended with the running-sum sweep averaging and
// uncompressed-body handling that original_source/src/formats/nexrad.rs
// requires but the teacher's decoder does not perform.
package nexrad

import "time"

// messageSlotSize is the fixed size of every message in the body,
// type 31 or otherwise.
const messageSlotSize = 2432

// volumeHeader is FormatB's 24-byte fixed leading record.
type volumeHeader struct {
	Tape      [9]byte
	Extension [3]byte
	Date      uint32
	Time      uint32
	ICAO      [4]byte
}

// Filename reconstructs the tape filename this volume was recorded
// under.
func (h volumeHeader) Filename() string {
	return string(h.Tape[:]) + string(h.Extension[:])
}

// RecordedAt returns the timestamp this volume was recorded at. The
// Date field counts days since the epoch plus one (see toDayMs).
func (h volumeHeader) RecordedAt() time.Time {
	return time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(int64(h.Date)-1) * 24 * time.Hour).
		Add(time.Duration(h.Time) * time.Millisecond)
}

// msgHeader precedes every message slot in the body.
type msgHeader struct {
	Size         uint16
	Channels     uint8
	MessageType  uint8
	SequenceID   uint16
	Date         uint16
	Milliseconds uint32
	Segments     uint16
	SegmentNum   uint16
}

// radial_status values, per ICD 3.2.4.17.1.
const (
	radialStatusStartOfElevation   = 0
	radialStatusIntermediateRadial = 1
	radialStatusEndOfElevation     = 2
	radialStatusStartOfVolume      = 3
	radialStatusEndOfVolume        = 4
	radialStatusStartNewElevation  = 5
)
