package main

import (
	"os"
	"path/filepath"
	"testing"

	converter "github.com/zdc-run4/converter_go/pkg"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestLoadConfigurationDefaults(t *testing.T) {
	config, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	if config.Schema != converter.SchemaRun4 || config.OutputFormat != converter.FormatROOT {
		t.Errorf("schema %q, format %q", config.Schema, config.OutputFormat)
	}
	if !config.NoDB || config.NumWorkers != 1 || config.GeometryPreset != "run4" {
		t.Errorf("defaults = %+v", config)
	}
	if config.Compression.Code != converter.COMPRESS_ZLIB || config.CompressionLevel != 1 {
		t.Errorf("compression = %v level %d", config.Compression, config.CompressionLevel)
	}
}

func TestLoadConfigurationJSON(t *testing.T) {
	filename := writeConfig(t, "config.json", `{
		"file_in": "run4_100GeV_0.root",
		"num_files": 4,
		"schema": "segments",
		"num_workers": 8,
		"compression_algorithm": "lz4",
		"histograms": {"HAD_Cone": {"bins": 47}}
	}`)
	config, err := LoadConfiguration(filename)
	if err != nil {
		t.Fatal(err)
	}
	if config.FileIn != "run4_100GeV_0.root" || config.NumFiles != 4 || config.NumWorkers != 8 {
		t.Errorf("config = %+v", config)
	}
	if config.Schema != converter.SchemaSegments || config.Compression.Code != converter.COMPRESS_LZ4 {
		t.Errorf("schema %q compression %v", config.Schema, config.Compression)
	}
	if config.Histograms["HAD_Cone"].Bins != 47 {
		t.Errorf("histograms = %+v", config.Histograms)
	}
	// Fields absent from the file keep their defaults.
	if config.ProgressEvery != 1000 || config.DBName != "ZDC" {
		t.Errorf("defaults lost: %+v", config)
	}
}

func TestLoadConfigurationYAML(t *testing.T) {
	filename := writeConfig(t, "config.yaml", `
file_in: tb21_0.root
output_format: hdf5
geometry_preset: testbeam21
geometry:
  rods_per_gap: 28
  em_segment_bounds: [4, 8]
  had_rows_per_segment: 6
  had_segments_per_module: 2
  modules:
    - {name: EM, rods_per_row: 29, rows: 11, total_column_offset: 15}
    - {name: HAD1, rods_per_row: 59, rows: 12, rods_per_gap: 59, total_row_offset: 11}
    - {name: HAD2, rods_per_row: 59, rows: 12, rods_per_gap: 59, row_offset: 12, total_row_offset: 11}
    - {name: HAD3, rods_per_row: 59, rows: 12, rods_per_gap: 59, row_offset: 24, total_row_offset: 11}
no_db: false
run_number: 4021
`)
	config, err := LoadConfiguration(filename)
	if err != nil {
		t.Fatal(err)
	}
	if config.OutputFormat != converter.FormatHDF5 || config.NoDB || config.RunNumber != 4021 {
		t.Errorf("config = %+v", config)
	}
	geo, err := config.ResolveGeometry()
	if err != nil {
		t.Fatal(err)
	}
	if err := geo.Validate(); err != nil {
		t.Errorf("geometry from yaml does not validate: %v", err)
	}
	if geo.RodsPerGap != 28 || geo.Modules[converter.HAD2].RowOffset != 12 {
		t.Errorf("geometry = %+v", geo)
	}
	if got := defaultOutput(config); got != "tb21_0_Out.h5" {
		t.Errorf("default output %q", got)
	}
}

func TestLoadConfigurationErrors(t *testing.T) {
	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("missing file accepted")
	}
	filename := writeConfig(t, "bad.json", `{"compression_algorithm": "blosc"}`)
	if _, err := LoadConfiguration(filename); err == nil {
		t.Errorf("unknown compression accepted")
	}
}
