package main

import (
	"fmt"

	converter "github.com/zdc-run4/converter_go/pkg"
)

// LoadConfiguration returns the defaults overridden by filename. An empty
// filename gives the defaults. Files ending in .yaml or .yml are read as
// YAML, anything else as JSON.
func LoadConfiguration(filename string) (converter.Configuration, error) {
	var config converter.Configuration

	// Set default values
	config.MaxEvents = 1000000000
	config.Skip = 0
	config.Verbosity = 0
	config.ProgressEvery = 1000
	config.NumFiles = 1
	config.OutputFormat = converter.FormatROOT
	config.Schema = converter.SchemaRun4
	config.NumWorkers = 1
	config.GeometryPreset = "run4"
	config.NoDB = true
	config.Host = "localhost"
	config.User = "zdcreader"
	config.Passwd = "readonly"
	config.DBName = "ZDC"
	config.CompressionLevel = 1
	config.Compression = converter.CompressionAlgorithm{Name: "zlib", Code: converter.COMPRESS_ZLIB}

	if filename == "" {
		return config, nil
	}
	err := converter.DecodeConfiguration(filename, &config)
	return config, err
}

func printConfiguration(config converter.Configuration, logger converter.Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("Number of files: %d", config.NumFiles), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Output format: %s", config.OutputFormat), "config")
	logger.Info(fmt.Sprintf("Schema: %s", config.Schema), "config")
	logger.Info(fmt.Sprintf("Geometry preset: %s", config.GeometryPreset), "config")
	logger.Info(fmt.Sprintf("Explicit geometry: %t", config.Geometry != nil), "config")
	logger.Info(fmt.Sprintf("Histogram overrides: %d", len(config.Histograms)), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Progress every: %d", config.ProgressEvery), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Compression: %v level %d", config.Compression, config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("CPU profile: %s", config.CPUProfile), "config")
}
