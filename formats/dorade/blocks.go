// Package dorade reads FormatA: a little-endian stream of length-tagged
// blocks carrying run-length-compressed gate data. Grounded on
// original_source/src/formats/dorade.rs.
package dorade

// Every block begins with a 4-byte ASCII identifier and a 4-byte
// length in bytes, inclusive of the header itself.

// COMM is an optional free-text comment block.
type COMM struct {
	ID      [4]byte
	NBytes  uint32
	Comment [500]byte
}

// SSWB anchors the volume's start time and carries the radar name.
type SSWB struct {
	ID                [4]byte
	NBytes            uint32
	LastUsed          uint32
	StartTime         uint32
	StopTime          uint32
	SizeofFile        uint32
	CompressionFlag   uint32
	VolumeTimeStamp   uint32
	NumParams         uint32
	RadarName         [8]byte
	StartTimeF        float64
	StopTimeF         float64
	VersionNum        uint32
	NumKeyTables      uint32
	Status            uint32
	PlaceHolder       [7]uint32
	KeyTables         [24]uint32 // 8 tables * (offset, size, type)
}

// VOLD is the volume descriptor: format version and generation date.
type VOLD struct {
	ID              [4]byte
	NBytes          uint32
	FormatVersion   uint16
	VolumeNum       uint16
	MaximumBytes    uint32
	ProjName        [20]byte
	Year            uint16
	Month           uint16
	Day             uint16
	DataSetHour     uint16
	DataSetMinute   uint16
	DataSetSecond   uint16
	FlightNumber    [8]byte
	GenFacility     [8]byte
	GenYear         uint16
	GenMonth        uint16
	GenDay          uint16
	NumberSecondDes uint16
}

// CFAC holds correction factors for azimuth/elevation. The reader
// consumes the block but does not apply the factors to the model.
type CFAC struct {
	ID              [4]byte
	NBytes          uint32
	AzimuthCorr     float32
	ElevationCorr   float32
	RangeDelayCorr  float32
	LongitudeCorr   float32
	LatitudeCorr    float32
	PressureAltCorr float32
	RadarAltCorr    float32
	EWGndspdCorr    float32
	NSGndspdCorr    float32
	VertVelCorr     float32
	HeadingCorr     float32
	RollCorr        float32
	PitchCorr       float32
	DriftCorr       float32
	RotAngleCorr    float32
	TiltCorr        float32
}

// RADD is the radar descriptor: scan mode, compression flag, and
// effective unambiguous velocity (Nyquist).
type RADD struct {
	ID              [4]byte
	NBytes          uint32
	RadarName       [8]byte
	RadarConst      float32
	PeakPower       float32
	NoisePower      float32
	ReceiverGain    float32
	AntennaGain     float32
	SystemGain      float32
	HorzBeamWidth   float32
	VertBeamWidth   float32
	RadarType       uint16
	ScanMode        uint16
	ReqRotateVel    float32
	ScanModeParam0  float32
	ScanMoveParam1  float32
	NumParameterDes uint16
	TotalNumDes     uint16
	DataCompress    uint16
	DataReduction   uint16
	DataRedParam0   float32
	DataRedParam1   float32
	RadarLongitude  float32
	RadarLatitude   float32
	RadarAltitude   float32
	EffUnambVel     float32
	EffUnambRange   float32
	NumFreqTrans    uint16
	NumIppsTrans    uint16
	Freq            [5]float32
	InterpulsePer   [5]float32
}

// LIDR is an optional lidar descriptor, consumed and ignored.
type LIDR struct {
	ID              [4]byte
	NBytes          uint32
	LidarName       [8]byte
	LidarConst      float32
	PulseEnergy     float32
	PeakPower       float32
	Pulsewidth      float32
	ApertureSize    float32
	FieldOfView     float32
	ApertureEff     float32
	BeamDivergence  float32
	LidarType       uint16
	ScanMode        uint16
	ReqRotatVel     float32
	ScanModeParam0  float32
	ScanModeParam1  float32
	NumParameterDes uint16
	TotalNumberDes  uint16
	DataCompress    uint16
	DataReduction   uint16
	DataRedParam0   float32
	DataRedParam1   float32
	LidarLongitude  float32
	LidarLatitude   float32
	LidarAltitude   float32
	EffUnambVel     float32
	EffUnambRange   float32
	NumWvlenTrans   uint32
	PRF             uint32
	Wavelength      [10]float32
}

// PARM describes one data field: name, description, units, binary
// format tag, scale/bias, and a bad-data sentinel.
type PARM struct {
	ID              [4]byte
	NBytes          uint32
	ParameterName   [8]byte
	ParamDescr      [40]byte
	ParamUnits      [8]byte
	InterpulseTime  uint16
	XmittedFreq     uint16
	RecvrBandwidth  float32
	PulseWidth      uint16
	Polarization    uint16
	NumSamples      uint16
	BinaryFormat    uint16
	ThresholdField  [8]byte
	ThresholdValue  float32
	ParameterScale  float32
	ParameterBias   float32
	BadData         uint32
}

// CELV is an explicit per-gate distance table, up to 1500 gates.
type CELV struct {
	ID          [4]byte
	NBytes      uint32
	NumberCells uint32
	DistCells   [1500]float32
}

// CSFD is a segmented cell-spacing table: up to 8 segments, each with
// a cell count and a spacing.
type CSFD struct {
	ID          [4]byte
	NBytes      uint32
	NumSegments uint32
	DistToFirst float32
	Spacing     [8]float32
	NumCells    [8]uint16
}

// SWIB is the sweep information block: fixed angle and ray-count
// upper bound.
type SWIB struct {
	ID          [4]byte
	NBytes      uint32
	RadarName   [8]byte
	SweepNum    uint32
	NumRays     uint32
	StartAngle  float32
	StopAngle   float32
	FixedAngle  float32
	FilterFlag  uint16
}

// ASIB is the platform geo-reference block for one ray.
type ASIB struct {
	ID            [4]byte
	NBytes        uint32
	Longitude     float32
	Latitude      float32
	AltitudeMSL   float32
	AltitudeAGL   float32
	EWVelocity    float32
	NSVelocity    float32
	VertVelocity  float32
	Heading       float32
	Roll          float32
	Pitch         float32
	DriftAngle    float32
	RotationAngle float32
	Tilt          float32
	EWHorizWind   float32
	NSHorizWind   float32
	VertWind      float32
	HeadingChange float32
	PitchChange   float32
}

// RYIB is the ray information block: julian day, time-of-day, azimuth,
// elevation, and scan rate.
type RYIB struct {
	ID           [4]byte
	NBytes       uint32
	SweepNum     uint32
	JulianDay    uint32
	Hour         uint16
	Minute       uint16
	Second       uint16
	Millisecond  uint16
	Azimuth      float32
	Elevation    float32
	PeakPower    float32
	TrueScanRate float32
	RayStatus    uint32
}

// RDAT is a field data block: a name followed by raw gate bytes.
type RDAT struct {
	ID         [4]byte
	NBytes     uint32
	PDataName  [8]byte
}

// QDAT is an extended field data block with a configurable data
// offset.
type QDAT struct {
	ID             [4]byte
	NBytes         uint32
	PDataName      [8]byte
	ExtensionNum   uint32
	ConfigNum      uint32
	FirstCell      [4]uint16
	NumCells       [4]uint16
	CriteriaValue  [4]float32
}

// XSTF is an extra-stuff block, skipped whole.
type XSTF struct {
	ID                [4]byte
	NBytes            uint32
	One               uint32
	SourceFormat      uint32
	OffsetToFirstItem uint32
	TransitionFlag    uint32
}

// NullBlock marks the end of a sweep.
type NullBlock struct {
	ID     [4]byte
	NBytes uint32
}
