package bytesio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/jddeal/radarvolume/raderr"
	"github.com/stretchr/testify/require"
)

func TestTrimFixedString(t *testing.T) {
	require.Equal(t, "KMPX", TrimFixedString([]byte("KMPX\x00\x00\x00\x00")))
	require.Equal(t, "", TrimFixedString([]byte("\x00\x00\x00\x00")))
}

func TestPadFixedStringUppercasesTruncatesAndPads(t *testing.T) {
	require.Equal(t, []byte("KMPX\x00\x00\x00\x00"), PadFixedString("kmpx", 8))
	require.Equal(t, []byte("LONGNA"), PadFixedString("longnamehere", 6))
	require.Equal(t, []byte("AB"), PadFixedString("ab", 2))
}

func TestReaderReadStructAndPeek(t *testing.T) {
	type header struct {
		A uint32
		B uint16
	}
	buf := &bytes.Buffer{}
	require.NoError(t, binary.Write(buf, binary.BigEndian, header{A: 7, B: 9}))

	r := NewReader(bytes.NewReader(buf.Bytes()), binary.BigEndian)

	peeked, err := r.Peek(4)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 7}, peeked)

	var h header
	require.NoError(t, r.Read(&h))
	require.Equal(t, header{A: 7, B: 9}, h)
}

func TestReaderReadPastEOFIsMalformedHeader(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0, 1}), binary.BigEndian)
	var v uint32
	err := r.Read(&v)
	require.ErrorIs(t, err, raderr.ErrMalformedHeader)
}

func TestWriterWriteFixedString(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf, binary.BigEndian)
	require.NoError(t, w.WriteFixedString("kmpx", 8))
	require.Equal(t, []byte("KMPX\x00\x00\x00\x00"), buf.Bytes())
}
