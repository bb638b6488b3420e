package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/profile"
	converter "github.com/zdc-run4/converter_go/pkg"
	"github.com/zdc-run4/converter_go/pkg/logging"
)

var (
	preset     = flag.String("geometry", "run4", "geometry preset used to bin rows and columns")
	configFile = flag.String("config", "", "converter configuration (.json, .yaml); its geometry and histograms replace -geometry")
	ext        = flag.String("ext", "pdf", "plot file format: pdf, png, svg, eps")
	output     = flag.String("o", "", "ROOT file for the light fraction histograms (light mode)")
	prefix     = flag.String("prefix", "", "plot file prefix (light mode, default input stem)")
	width      = flag.Float64("width", 6, "plot width in inches")
	height     = flag.Float64("height", 4, "plot height in inches")
	verbosity  = flag.Int("v", 0, "verbosity level")
	cpuProfile = flag.String("cpuprofile", "", "write a CPU profile into this directory")
)

var logger = logging.NewDefault()

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options] <mode> <converted-files>...

modes:
  export   plot the row and column distributions and cones, one file per histogram
  light    longitudinal light fractions of segments trees

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() < 2 {
		printUsage()
		logger.Error("Invalid arguments")
		os.Exit(1)
	}
	converter.SetLogger(logger)

	if *cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuProfile), profile.Quiet).Stop()
	}

	if err := run(flag.Arg(0), flag.Args()[1:]); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// loadHistSpecs bins the plots like the converter run described by
// configFile, or like the named preset when there is no file.
func loadHistSpecs(configFile, preset string) (converter.HistSpecs, error) {
	config := converter.Configuration{GeometryPreset: preset, NoDB: true}
	if configFile != "" {
		if err := converter.DecodeConfiguration(configFile, &config); err != nil {
			return nil, err
		}
	}
	geoConfig, err := converter.GeometryForRun(config)
	if err != nil {
		return nil, err
	}
	geo, err := converter.NewGeometry(geoConfig)
	if err != nil {
		return nil, err
	}
	specs := converter.DefaultHistSpecs(geo)
	if err := specs.Override(config.Histograms); err != nil {
		return nil, err
	}
	return specs, nil
}

func run(mode string, files []string) error {
	specs, err := loadHistSpecs(*configFile, *preset)
	if err != nil {
		return err
	}

	switch mode {
	case "export":
		var errs []error
		for _, file := range files {
			if err := exportBranches(file, specs); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	case "light":
		return lightFractions(files, specs)
	}
	return fmt.Errorf("unknown mode %q", mode)
}
