package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/profile"
	converter "github.com/zdc-run4/converter_go/pkg"
	"github.com/zdc-run4/converter_go/pkg/h5"
	"github.com/zdc-run4/converter_go/pkg/logging"
)

var logger = logging.NewDefault()

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options] [<first shard> <number of shards>]

Converts run4_100GeV_0.root ... run4_100GeV_<n-1>.root into run4_100GeV_0_Out.root.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	if err := run(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	configFilename := flag.String("config", "", "Configuration file path (.json, .yaml)")
	fileIn := flag.String("i", "", "first input shard")
	numFiles := flag.Int("n", 0, "number of consecutive input shards")
	fileOut := flag.String("o", "", "output file (default <first shard>_Out.root)")
	maxEvents := flag.Int("max", 0, "maximum number of events to convert")
	skip := flag.Int("skip", 0, "number of events to skip")
	workers := flag.Int("workers", 0, "number of aggregation workers")
	schema := flag.String("schema", "", "output schema: run4, segments, rows, histograms")
	format := flag.String("format", "", "output format: root, hdf5")
	preset := flag.String("geometry", "", "geometry preset: run4, testbeam21")
	verbosity := flag.Int("v", -1, "verbosity level")
	cpuProfile := flag.String("cpuprofile", "", "write a CPU profile into this directory")
	var emBounds converter.IntArrayFlags
	flag.Var(&emBounds, "em-bound", "EM segment bound in gaps, repeat for every bound")
	flag.Usage = printUsage
	flag.Parse()

	configuration, err := LoadConfiguration(*configFilename)
	if err != nil {
		return fmt.Errorf("Error reading configuration file: %w", err)
	}

	if flag.NArg() > 0 {
		configuration.FileIn = flag.Arg(0)
	}
	if flag.NArg() > 1 {
		n, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid number of shards %q: %w", flag.Arg(1), err)
		}
		configuration.NumFiles = n
	}
	overrideString(&configuration.FileIn, *fileIn)
	overrideInt(&configuration.NumFiles, *numFiles)
	overrideString(&configuration.FileOut, *fileOut)
	overrideInt(&configuration.MaxEvents, *maxEvents)
	overrideInt(&configuration.Skip, *skip)
	overrideInt(&configuration.NumWorkers, *workers)
	overrideString((*string)(&configuration.Schema), *schema)
	overrideString((*string)(&configuration.OutputFormat), *format)
	overrideString(&configuration.GeometryPreset, *preset)
	overrideString(&configuration.CPUProfile, *cpuProfile)
	if *verbosity >= 0 {
		configuration.Verbosity = *verbosity
	}

	if configuration.FileIn == "" {
		printUsage()
		return errors.New("no input file")
	}
	if configuration.FileOut == "" {
		configuration.FileOut = defaultOutput(configuration)
	}

	converter.SetLogger(logger)
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading configuration file: %s", *configFilename), "main")
		printConfiguration(configuration, logger)
	}

	if configuration.CPUProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(configuration.CPUProfile), profile.Quiet, profile.NoShutdownHook).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	geoConfig, err := converter.GeometryForRun(configuration)
	if err != nil {
		return err
	}
	if emBounds.IsSet() {
		geoConfig.EMSegmentBounds = emBounds.Array
	}
	geo, err := converter.NewGeometry(geoConfig)
	if err != nil {
		return err
	}

	specs := converter.DefaultHistSpecs(geo)
	if err := specs.Override(configuration.Histograms); err != nil {
		return err
	}

	files := converter.ShardFilenames(configuration.FileIn, configuration.NumFiles)
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Input files: %v", files), "main")
	}
	reader, err := converter.OpenInput(files)
	if err != nil {
		return err
	}

	emitter, err := newEmitter(configuration, geo, specs)
	if err != nil {
		return err
	}

	start := time.Now()
	conv := converter.NewConverter(geo, emitter, configuration)
	summary, runErr := conv.Run(ctx, reader)
	if err := errors.Join(runErr, emitter.Close()); err != nil {
		return err
	}

	duration := time.Since(start)
	logger.Info(fmt.Sprintf("Converted %d events into %s in %d ms", summary.Processed, configuration.FileOut, duration.Milliseconds()), "main")
	if summary.Rejected > 0 {
		logger.Error(fmt.Sprintf("%d hits outside their module were skipped", summary.Rejected))
	}
	if summary.Interrupted {
		logger.Info("Conversion interrupted, output holds the events converted so far", "main")
	}
	return nil
}

func overrideString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func overrideInt(dst *int, value int) {
	if value > 0 {
		*dst = value
	}
}

func defaultOutput(config converter.Configuration) string {
	if config.OutputFormat == converter.FormatHDF5 {
		return converter.OutputFilename(config.FileIn, "_Out.h5")
	}
	return converter.OutputFilename(config.FileIn, "_Out.root")
}

func newEmitter(config converter.Configuration, geo *converter.Geometry, specs converter.HistSpecs) (converter.Emitter, error) {
	switch config.OutputFormat {
	case converter.FormatHDF5:
		w, err := h5.NewWriter(config.FileOut, geo, config.CompressionLevel)
		if err != nil {
			return nil, err
		}
		return w, nil
	case converter.FormatROOT, "":
		opts := config.Compression.WriteOptions(config.CompressionLevel)
		w, err := converter.NewROOTWriter(config.FileOut, config.Schema, geo, specs, opts...)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, &converter.ErrConfig{Field: "output_format", Reason: fmt.Sprintf("unknown format %q", config.OutputFormat)}
}
