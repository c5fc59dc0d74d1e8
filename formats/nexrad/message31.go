package nexrad

// msg31Header is the fixed portion of a Digital Radar Data Generic
// Format message (type 31), grounded on archive2/message31.go's
// Message31Header.
type msg31Header struct {
	RadarIdentifier       [4]byte
	CollectionTime        uint32
	CollectionDate        uint16
	AzimuthNumber         uint16
	AzimuthAngle          float32
	CompressionIndicator  uint8
	Spare                 uint8
	RadialLength          uint16
	AzimuthResolutionCode uint8
	RadialStatus          uint8
	ElevationNumber       uint8
	CutSectorNumber       uint8
	ElevationAngle        float32
	RadialBlankingStatus  uint8
	AzimuthIndexingMode   uint8
	DataBlockCount        uint16
}

// dataBlockTag is the 4-byte prefix ("D" + 3-char name) at the start
// of every Msg31 data block.
type dataBlockTag struct {
	BlockType [1]byte
	DataName  [3]byte
}

// genericDataMoment is the header shared by every field data block
// (REF, VEL, SW, ZDR, PHI, RHO, CFP).
type genericDataMoment struct {
	Reserved          uint32
	NumberGates       uint16
	FirstGate         uint16
	GateSpacing       uint16
	TOVER             uint16
	SNRThreshold      uint16
	ControlFlags      uint8
	DataWordSize      uint8
	Scale             float32
	Offset            float32
}

// volumeDataBlock carries site coordinates and volume-wide
// calibration, tagged "VOL".
type volumeDataBlock struct {
	LRTUP              uint16
	VersionMajor       uint8
	VersionMinor       uint8
	Latitude           float32
	Longitude          float32
	SiteHeight         uint16
	FeedhornHeight     uint16
	ReflCalibConst     float32
	PowerHoriz         float32
	PowerVert          float32
	DiffReflCalib      float32
	InitialPhase       float32
	VCP                uint16
	ProcessingStatus   uint16
}

// elevationDataBlock carries per-elevation calibration, tagged "ELV".
type elevationDataBlock struct {
	LRTUP          uint16
	AtmosAttenFac  int16
	ReflCalibConst float32
}

// radialDataBlock carries per-radial noise and Nyquist, tagged "RAD".
type radialDataBlock struct {
	LRTUP              uint16
	UnambiguousRange   uint16
	NoiseLevelHoriz    float32
	NoiseLevelVert     float32
	NyquistVelocity    uint16
	Spare              uint16
	CalibConstHoriz    float32
	CalibConstVert     float32
}

// scaleOffset is the canonical quantization table shared by the
// reader and writer, grounded on original_source/src/formats/nexrad.rs's
// scale_offset.
func scaleOffset(field string) (scale, offset float64, ok bool) {
	switch field {
	case "REF":
		return 2.0, 66.0, true
	case "VEL":
		return 2.0, 129.0, true
	case "SW":
		return 2.0, 129.9, true
	case "ZDR":
		return 16.0, 128.0, true
	case "PHI":
		return 2.8261, 2.0, true
	case "RHO":
		return 300.0, -60.5, true
	case "CFP":
		return 1.0, 8.0, true
	default:
		return 0, 0, false
	}
}

// fieldWriteOrder is the writer's fixed field-pointer priority order,
// which differs from scaleOffset's REF,VEL,SW,ZDR,PHI,RHO ordering --
// see original_source/src/formats/nexrad.rs's write_sweep.
var fieldWriteOrder = []string{"REF", "VEL", "SW", "RHO", "PHI", "ZDR"}
