// radarconvert reads radar volumes in any supported on-disk format and
// writes them back out in FormatB (NEXRAD Archive II), optionally
// splitting a multi-sweep input into one file per volume. Grounded on
// original_source/src/lib.rs's arg_parse/convert/write driver, adapted
// to the Go flag and worker-pool idioms the teacher uses in
// cmd/nexrad-decode and (for the pool/progress bar) the rest of the
// example pack.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alitto/pond"
	"github.com/cheggaaa/pb/v3"
	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/jddeal/radarvolume/formats"
	"github.com/jddeal/radarvolume/volume"
)

var cli struct {
	Format        string  `short:"F" long:"format" default:"nexrad" choice:"nexrad" description:"output format"`
	Radar         string  `short:"R" long:"radar" description:"override the site identifier in the output"`
	Vols          bool    `long:"vols" description:"split writes so each emitted file contains one volume"`
	PrintProducts bool    `short:"P" long:"print_p" description:"list field names and exit (no write)"`
	File          string  `short:"f" long:"file" required:"yes" description:"input path or wildcard"`
	Scale         float64 `long:"scale" default:"1.0" description:"REF post-processing scale"`
	Offset        float64 `long:"offset" default:"0.0" description:"REF post-processing offset"`
	Remove        float64 `long:"remove" default:"-999.0" description:"REF post-processing removal threshold"`
	Location      bool    `short:"l" long:"location" description:"print site lat/lon per sweep"`
	Outdir        string  `short:"o" long:"outdir" description:"output directory; default is <input_parent>/output"`
	Name          string  `long:"name" default:"{FORMAT}.%Y%m%d_%H%M%S_{elev:.1}" description:"output filename template"`
	LogLevel      string  `short:"L" long:"log-level" description:"logging level" choice:"error" choice:"info" choice:"debug" choice:"trace" default:"info"`
}

func main() {
	if _, err := flags.Parse(&cli); err != nil {
		os.Exit(1)
	}

	levels := map[string]logrus.Level{
		"error": logrus.ErrorLevel,
		"info":  logrus.InfoLevel,
		"debug": logrus.DebugLevel,
		"trace": logrus.TraceLevel,
	}
	logrus.SetLevel(levels[cli.LogLevel])

	files, err := expandInput(cli.File)
	if err != nil || len(files) == 0 {
		logrus.Fatalf("path %q does not exist or have any files", cli.File)
	}

	outdir := cli.Outdir
	if outdir == "" {
		outdir = filepath.Join(filepath.Dir(files[0]), "output")
	}
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		logrus.Fatalf("creating output directory: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := formats.DefaultOptions()
	opts.OverrideRadar = cli.Radar
	opts.Scale = cli.Scale
	opts.Offset = cli.Offset
	opts.Remove = cli.Remove
	opts.PrintProducts = cli.PrintProducts
	opts.Location = cli.Location

	n := runtime.NumCPU()
	pool := pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx))

	bar := pb.StartNew(len(files))
	var failed int32

	for _, f := range files {
		path := f
		pool.Submit(func() {
			defer bar.Increment()
			if err := convertOne(ctx, path, outdir, opts); err != nil {
				logrus.WithField("file", path).Error(err)
				atomic.AddInt32(&failed, 1)
			}
		})
	}
	pool.StopAndWait()
	bar.Finish()

	if failed > 0 {
		logrus.Errorf("%d of %d files failed", failed, len(files))
		os.Exit(1)
	}
}

// expandInput resolves the -f argument to a file list: a bare path is
// returned as-is, anything else is treated as a glob.
func expandInput(pattern string) ([]string, error) {
	if info, err := os.Stat(pattern); err == nil && !info.IsDir() {
		return []string{pattern}, nil
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	return files, nil
}

// convertOne runs the read -> normalize -> write pipeline for a single
// input file. print_p lists the field names and returns before the
// write; location prints each sweep's lat/lon and the write goes on.
func convertOne(ctx context.Context, path, outdir string, opts formats.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	format, err := formats.Sniff(path)
	if err != nil {
		return err
	}

	vol, err := formats.ReadAs(path, format, opts)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if opts.PrintProducts {
		names := make([]string, 0, len(vol.Fields))
		for name := range vol.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("%s: %s\n", path, strings.Join(names, ", "))
		return nil
	}

	vol.SortSweepsByTime()
	vol.SplitOverlapRays()
	vol.TrimRays()
	vol.SortRaysByAzimuth()

	if opts.Location {
		for _, sweep := range vol.Sweeps {
			fmt.Printf("%s: %.4f, %.4f\n", vol.SiteID, sweep.Latitude, sweep.Longitude)
		}
	}

	outFormat := formats.Format(strings.ToLower(cli.Format))

	volumes := [][]volume.Sweep{vol.Sweeps}
	if cli.Vols {
		volumes = splitVolumes(vol.Sweeps)
	}

	for _, sweeps := range volumes {
		if len(sweeps) == 0 {
			continue
		}
		out := &volume.Volume{SiteID: vol.SiteID, Fields: vol.Fields, Sweeps: sweeps}
		name := renderName(cli.Name, outFormat, out)
		outPath := filepath.Join(outdir, name)
		if err := formats.Write(out, outPath, outFormat, opts); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
	}

	return nil
}

// sign returns the sign of x, treating 0 as positive.
func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// splitDirection computes the sweep-direction sign from the first
// three sweep elevations' successive differences, defaulting to +1
// for 0 or 1 sweeps, per the volume split rule.
func splitDirection(sweeps []volume.Sweep) float64 {
	switch {
	case len(sweeps) < 2:
		return 1
	case len(sweeps) == 2:
		return sign(sweeps[1].Elevation - sweeps[0].Elevation)
	default:
		return sign(sweeps[2].Elevation - sweeps[0].Elevation)
	}
}

// splitVolumes partitions sweeps into consecutive runs, starting a new
// run whenever the directed elevation change drops to 0.1 degrees or
// less.
func splitVolumes(sweeps []volume.Sweep) [][]volume.Sweep {
	if len(sweeps) == 0 {
		return nil
	}

	direction := splitDirection(sweeps)
	var out [][]volume.Sweep
	cur := []volume.Sweep{sweeps[0]}
	last := sweeps[0].Elevation

	for _, sweep := range sweeps[1:] {
		change := sweep.Elevation - last
		if direction < 0 {
			change = last - sweep.Elevation
		}
		if change <= 0.1 {
			out = append(out, cur)
			cur = []volume.Sweep{sweep}
		} else {
			cur = append(cur, sweep)
		}
		last = sweep.Elevation
	}
	out = append(out, cur)
	return out
}

// renderName expands template against format and vol's first sweep,
// expanding strftime directives first and then substituting {FORMAT},
// [icao], and {elev:.1}, in that order. strftime directives are
// expanded by hand rather than via
// time.Format, since the reference layout substrings time.Format
// matches on (e.g. "01", "15") can otherwise collide with digits
// coming from {elev:.1} or the site id.
func renderName(template string, format formats.Format, vol *volume.Volume) string {
	t := vol.StartTime()
	name := expandStrftime(template, t)

	elev := 0.0
	if len(vol.Sweeps) > 0 {
		elev = vol.Sweeps[0].Elevation
	}

	name = strings.ReplaceAll(name, "{FORMAT}", strings.ToUpper(string(format)))
	name = strings.ReplaceAll(name, "[icao]", strings.ToUpper(vol.SiteID))
	name = strings.ReplaceAll(name, "{elev:.1}", fmt.Sprintf("%.1f", elev))
	return name
}

// expandStrftime substitutes the handful of strftime directives
// radarconvert's templates use; any other "%x" sequence passes
// through unchanged.
func expandStrftime(template string, t time.Time) string {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		if template[i] != '%' || i+1 >= len(template) {
			b.WriteByte(template[i])
			continue
		}
		switch template[i+1] {
		case 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
		case 'm':
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&b, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(&b, "%02d", t.Hour())
		case 'M':
			fmt.Fprintf(&b, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(&b, "%02d", t.Second())
		default:
			b.WriteByte(template[i])
			b.WriteByte(template[i+1])
		}
		i++
	}
	return b.String()
}
