package cfradial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToGenericNameFoldsKnownAliases(t *testing.T) {
	require.Equal(t, "REF", toGenericName("DBZHC_F"))
	require.Equal(t, "VEL", toGenericName("VEL_F"))
	require.Equal(t, "SW", toGenericName("WIDTH"))
	require.Equal(t, "RHO", toGenericName("RHOHV"))
	require.Equal(t, "PHI", toGenericName("PHIDP"))
	require.Equal(t, "ZDR", toGenericName("ZDR_F"))
}

func TestToGenericNamePassesThroughUnknown(t *testing.T) {
	require.Equal(t, "KDP", toGenericName("KDP"))
}

func TestAttrFloatHandlesEveryNumericRepresentation(t *testing.T) {
	attrs := map[string]interface{}{
		"a": float64(1.5),
		"b": float32(2.5),
		"c": int32(3),
		"d": "4.5",
	}
	for name, want := range map[string]float64{"a": 1.5, "b": 2.5, "c": 3.0, "d": 4.5} {
		got, ok := attrFloat(attrs, name)
		require.True(t, ok, name)
		require.InDelta(t, want, got, 1e-9, name)
	}
}

func TestAttrFloatMissingKeyReturnsFalse(t *testing.T) {
	_, ok := attrFloat(map[string]interface{}{}, "missing")
	require.False(t, ok)
}

func TestAttrStringReturnsStoredString(t *testing.T) {
	s, ok := attrString(map[string]interface{}{"name": "KABC"}, "name")
	require.True(t, ok)
	require.Equal(t, "KABC", s)
}

func TestTypeSizeKnownTypes(t *testing.T) {
	require.Equal(t, 1, typeSize(ncByte))
	require.Equal(t, 2, typeSize(ncShort))
	require.Equal(t, 4, typeSize(ncInt))
	require.Equal(t, 4, typeSize(ncFloat))
	require.Equal(t, 8, typeSize(ncDouble))
}

func TestDimLenSubstitutesRecordCount(t *testing.T) {
	ds := &dataset{
		dimLengths:  []int{10, -1},
		recDimIndex: 1,
		numRecs:     7,
	}
	require.Equal(t, 10, ds.dimLen(0))
	require.Equal(t, 7, ds.dimLen(1))
}

func TestIsNetCDFClassicRejectsUnrelatedFile(t *testing.T) {
	require.False(t, isNetCDFClassic("/nonexistent/path/volume.nc"))
}
