package formats

import (
	"fmt"

	"github.com/jddeal/radarvolume/formats/cfradial"
	"github.com/jddeal/radarvolume/formats/dorade"
	"github.com/jddeal/radarvolume/formats/nexrad"
	"github.com/jddeal/radarvolume/raderr"
	"github.com/jddeal/radarvolume/volume"
)

// Format names a supported on-disk container.
type Format string

// Supported output formats. Only FormatNexrad can be written.
const (
	FormatDorade   Format = "dorade"
	FormatNexrad   Format = "nexrad"
	FormatCFRadial Format = "cfradial"
)

// Sniff identifies a file's format by probing its magic bytes, trying
// each reader's sniffer in turn.
func Sniff(path string) (Format, error) {
	switch {
	case dorade.IsDorade(path):
		return FormatDorade, nil
	case nexrad.IsNexrad(path):
		return FormatNexrad, nil
	case cfradial.IsCFRadial(path):
		return FormatCFRadial, nil
	default:
		return "", fmt.Errorf("%w: %s", raderr.ErrUnknownFormat, path)
	}
}

// Read dispatches to the reader matching path's sniffed format.
func Read(path string, opts Options) (*volume.Volume, error) {
	format, err := Sniff(path)
	if err != nil {
		return nil, err
	}
	return ReadAs(path, format, opts)
}

// ReadAs reads path using the reader for an already-known format.
func ReadAs(path string, format Format, opts Options) (*volume.Volume, error) {
	switch format {
	case FormatDorade:
		return dorade.Read(path, opts)
	case FormatNexrad:
		return nexrad.Read(path, opts)
	case FormatCFRadial:
		return cfradial.Read(path)
	default:
		return nil, fmt.Errorf("%w: %s", raderr.ErrUnknownFormat, format)
	}
}

// Write dispatches to the writer for format. Only FormatNexrad
// supports writing.
func Write(vol *volume.Volume, path string, format Format, opts Options) error {
	switch format {
	case FormatNexrad:
		return nexrad.Write(vol, path, opts)
	default:
		return fmt.Errorf("%w: writing %s is not supported", raderr.ErrUnknownFormat, format)
	}
}
