package converter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	NumEMSegments  = 3
	NumHADSegments = 6
)

type OutputFormat string

const (
	FormatROOT OutputFormat = "root"
	FormatHDF5 OutputFormat = "hdf5"
)

// Schema selects the layout of the derived records.
type Schema string

const (
	SchemaRun4       Schema = "run4"
	SchemaSegments   Schema = "segments"
	SchemaRows       Schema = "rows"
	SchemaHistograms Schema = "histograms"
)

type Configuration struct {
	MaxEvents        int                  `json:"max_events" yaml:"max_events"`
	Skip             int                  `json:"skip" yaml:"skip"`
	Verbosity        int                  `json:"verbosity" yaml:"verbosity"`
	ProgressEvery    int                  `json:"progress_every" yaml:"progress_every"`
	FileIn           string               `json:"file_in" yaml:"file_in"`
	NumFiles         int                  `json:"num_files" yaml:"num_files"`
	FileOut          string               `json:"file_out" yaml:"file_out"`
	OutputFormat     OutputFormat         `json:"output_format" yaml:"output_format"`
	Schema           Schema               `json:"schema" yaml:"schema"`
	NumWorkers       int                  `json:"num_workers" yaml:"num_workers"`
	GeometryPreset   string               `json:"geometry_preset" yaml:"geometry_preset"`
	Geometry         *GeometryConfig      `json:"geometry" yaml:"geometry"`
	Histograms       map[string]HistSpec  `json:"histograms" yaml:"histograms"`
	NoDB             bool                 `json:"no_db" yaml:"no_db"`
	Host             string               `json:"host" yaml:"host"`
	User             string               `json:"user" yaml:"user"`
	Passwd           string               `json:"pass" yaml:"pass"`
	DBName           string               `json:"dbname" yaml:"dbname"`
	RunNumber        int                  `json:"run_number" yaml:"run_number"`
	CompressionLevel int                  `json:"compression_level" yaml:"compression_level"`
	Compression      CompressionAlgorithm `json:"compression_algorithm" yaml:"compression_algorithm"`
	CPUProfile       string               `json:"cpu_profile" yaml:"cpu_profile"`
}

// ModuleConfig describes how the channels of one module are laid out.
type ModuleConfig struct {
	Name       string `json:"name" yaml:"name"`
	RodsPerRow int    `json:"rods_per_row" yaml:"rods_per_row"`
	Rows       int    `json:"rows" yaml:"rows"`
	// RodsPerGap overrides GeometryConfig.RodsPerGap for this module when > 0.
	RodsPerGap        int `json:"rods_per_gap" yaml:"rods_per_gap"`
	RowOffset         int `json:"row_offset" yaml:"row_offset"`
	TotalRowOffset    int `json:"total_row_offset" yaml:"total_row_offset"`
	TotalColumnOffset int `json:"total_column_offset" yaml:"total_column_offset"`
}

func (mc ModuleConfig) Channels() int {
	return mc.RodsPerRow * mc.Rows
}

// GeometryConfig holds every constant used to bucket channels. Modules is
// ordered EM, HAD1, HAD2, HAD3.
type GeometryConfig struct {
	RodsPerGap           int            `json:"rods_per_gap" yaml:"rods_per_gap"`
	EMSegmentBounds      []int          `json:"em_segment_bounds" yaml:"em_segment_bounds"`
	HADRowsPerSegment    int            `json:"had_rows_per_segment" yaml:"had_rows_per_segment"`
	HADSegmentsPerModule int            `json:"had_segments_per_module" yaml:"had_segments_per_module"`
	Modules              []ModuleConfig `json:"modules" yaml:"modules"`
}

func (gc GeometryConfig) rodsPerGap(m Module) int {
	if gap := gc.Modules[m].RodsPerGap; gap > 0 {
		return gap
	}
	return gc.RodsPerGap
}

// Run4Geometry is the Run 4 converter layout: 29 rods per row and per gap,
// 26 EM rows, 12 rows per hadronic module, hadronic rows placed after the EM
// rows in the combined row space.
func Run4Geometry() GeometryConfig {
	return GeometryConfig{
		RodsPerGap:           29,
		EMSegmentBounds:      []int{8, 17},
		HADRowsPerSegment:    6,
		HADSegmentsPerModule: 2,
		Modules: []ModuleConfig{
			{Name: "EM", RodsPerRow: 29, Rows: 26},
			{Name: "HAD1", RodsPerRow: 29, Rows: 12, RowOffset: 0, TotalRowOffset: 26},
			{Name: "HAD2", RodsPerRow: 29, Rows: 12, RowOffset: 12, TotalRowOffset: 26},
			{Name: "HAD3", RodsPerRow: 29, Rows: 12, RowOffset: 24, TotalRowOffset: 26},
		},
	}
}

// TestBeam21Geometry is the 2021 test beam histogram layout: 59 rods per
// hadronic row, 11 EM rows and the EM columns centred on the hadronic ones.
func TestBeam21Geometry() GeometryConfig {
	return GeometryConfig{
		RodsPerGap:           29,
		EMSegmentBounds:      []int{4, 8},
		HADRowsPerSegment:    6,
		HADSegmentsPerModule: 2,
		Modules: []ModuleConfig{
			{Name: "EM", RodsPerRow: 29, Rows: 11, TotalColumnOffset: 15},
			{Name: "HAD1", RodsPerRow: 59, Rows: 12, RodsPerGap: 59, RowOffset: 0, TotalRowOffset: 11},
			{Name: "HAD2", RodsPerRow: 59, Rows: 12, RodsPerGap: 59, RowOffset: 12, TotalRowOffset: 11},
			{Name: "HAD3", RodsPerRow: 59, Rows: 12, RodsPerGap: 59, RowOffset: 24, TotalRowOffset: 11},
		},
	}
}

var geometryPresets = map[string]func() GeometryConfig{
	"run4":       Run4Geometry,
	"testbeam21": TestBeam21Geometry,
}

// GeometryPreset returns a copy of the named layout.
func GeometryPreset(name string) (GeometryConfig, error) {
	if name == "" {
		name = "run4"
	}
	preset, ok := geometryPresets[name]
	if !ok {
		names := make([]string, 0, len(geometryPresets))
		for n := range geometryPresets {
			names = append(names, n)
		}
		sort.Strings(names)
		return GeometryConfig{}, &ErrConfig{Field: "geometry_preset", Reason: fmt.Sprintf("unknown preset %q (known: %v)", name, names)}
	}
	return preset(), nil
}

// ResolveGeometry returns the geometry the configuration asks for: the explicit
// geometry block when present, the named preset otherwise.
func (c Configuration) ResolveGeometry() (GeometryConfig, error) {
	if c.Geometry != nil {
		return *c.Geometry, nil
	}
	return GeometryPreset(c.GeometryPreset)
}

// Validate rejects geometries whose constants are zero, negative or
// inconsistent with the declared module bounds.
func (gc GeometryConfig) Validate() error {
	if gc.RodsPerGap <= 0 {
		return &ErrConfig{Field: "rods_per_gap", Reason: "must be positive"}
	}
	if len(gc.Modules) != NumModules {
		return &ErrConfig{Field: "modules", Reason: fmt.Sprintf("expected %d modules, got %d", NumModules, len(gc.Modules))}
	}
	if len(gc.EMSegmentBounds) != NumEMSegments-1 {
		return &ErrConfig{Field: "em_segment_bounds", Reason: fmt.Sprintf("expected %d bounds, got %d", NumEMSegments-1, len(gc.EMSegmentBounds))}
	}
	prev := 0
	for _, b := range gc.EMSegmentBounds {
		if b <= prev {
			return &ErrConfig{Field: "em_segment_bounds", Reason: fmt.Sprintf("bounds must be positive and strictly increasing: %v", gc.EMSegmentBounds)}
		}
		prev = b
	}
	if gc.HADRowsPerSegment <= 0 {
		return &ErrConfig{Field: "had_rows_per_segment", Reason: "must be positive"}
	}
	if gc.HADSegmentsPerModule*(NumModules-1) != NumHADSegments {
		return &ErrConfig{Field: "had_segments_per_module", Reason: fmt.Sprintf("%d segments per module do not add up to %d", gc.HADSegmentsPerModule, NumHADSegments)}
	}

	for _, m := range Modules {
		mc := gc.Modules[m]
		field := fmt.Sprintf("modules[%d]", m)
		if mc.Name != "" && mc.Name != m.String() {
			return &ErrConfig{Field: field, Reason: fmt.Sprintf("module %q found where %v was expected", mc.Name, m)}
		}
		if mc.RodsPerRow <= 0 {
			return &ErrConfig{Field: field + ".rods_per_row", Reason: "must be positive"}
		}
		if mc.Rows <= 0 {
			return &ErrConfig{Field: field + ".rows", Reason: "must be positive"}
		}
		if mc.RodsPerGap < 0 || mc.RowOffset < 0 || mc.TotalRowOffset < 0 || mc.TotalColumnOffset < 0 {
			return &ErrConfig{Field: field, Reason: "offsets and gap widths cannot be negative"}
		}
		if !m.IsHadronic() {
			// Every EM segment must be reachable by some channel.
			gaps := (mc.Channels() + gc.rodsPerGap(m) - 1) / gc.rodsPerGap(m)
			if last := gc.EMSegmentBounds[len(gc.EMSegmentBounds)-1]; last >= gaps {
				return &ErrConfig{Field: "em_segment_bounds", Reason: fmt.Sprintf("bound %d leaves the last segment empty, the EM module has %d gaps", last, gaps)}
			}
			continue
		}
		last := mc.Channels() - 1
		local := (last / gc.rodsPerGap(m)) / gc.HADRowsPerSegment
		if local >= gc.HADSegmentsPerModule {
			return &ErrConfig{Field: field, Reason: fmt.Sprintf("channel %d falls in local segment %d, module only has %d", last, local, gc.HADSegmentsPerModule)}
		}
	}
	return nil
}

// DecodeConfiguration overrides config with the fields set in filename.
// Files ending in .yaml or .yml are read as YAML, anything else as JSON.
func DecodeConfiguration(filename string, config *Configuration) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return fmt.Errorf("error parsing %s: %w", filename, err)
	}
	return nil
}
