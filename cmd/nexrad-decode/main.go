// nexrad-decode dumps the volume header and product list a reader
// produces for a single radar file, for quick manual inspection of any
// supported format.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/jddeal/radarvolume/formats"
)

var cli struct {
	Args struct {
		Filename string
	} `positional-args:"yes" required:"yes"`
	LogLevel string `short:"l" long:"log-level" description:"logging level" choice:"error" choice:"info" choice:"debug" choice:"trace" default:"info"`
}

func main() {
	_, err := flags.Parse(&cli)
	if err != nil {
		os.Exit(1)
	}

	levels := map[string]logrus.Level{
		"error": logrus.ErrorLevel,
		"info":  logrus.InfoLevel,
		"debug": logrus.DebugLevel,
		"trace": logrus.TraceLevel,
	}
	logrus.SetLevel(levels[cli.LogLevel])

	logrus.Info(color.CyanString("decoding %s", cli.Args.Filename))

	format, err := formats.Sniff(cli.Args.Filename)
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}

	vol, err := formats.ReadAs(cli.Args.Filename, format, formats.DefaultOptions())
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}

	fmt.Printf("format:    %s\n", format)
	fmt.Printf("site:      %s\n", vol.SiteID)
	fmt.Printf("sweeps:    %d\n", vol.NSweeps())
	if vol.NSweeps() > 0 {
		fmt.Printf("start:     %s\n", vol.StartTime())
	}
	for i, sweep := range vol.Sweeps {
		fmt.Printf("  sweep %d: elevation=%.2f rays=%d ngates=%d fields=%v\n",
			i, sweep.Elevation, len(sweep.Rays), sweep.NGates(), sweep.FieldNames())
	}
}
