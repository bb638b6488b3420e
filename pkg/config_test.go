package converter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPresetsAreValid(t *testing.T) {
	for name := range geometryPresets {
		cfg, err := GeometryPreset(name)
		if err != nil {
			t.Fatalf("GeometryPreset(%q): %v", name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %q does not validate: %v", name, err)
		}
	}
}

func TestGeometryPreset(t *testing.T) {
	cfg, err := GeometryPreset("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RodsPerGap != 29 || cfg.Modules[HAD1].TotalRowOffset != 26 {
		t.Errorf("empty preset is not run4: %+v", cfg)
	}

	_, err = GeometryPreset("run3")
	var cfgErr *ErrConfig
	if !errors.As(err, &cfgErr) {
		t.Fatalf("unknown preset: got %v, want ErrConfig", err)
	}
	if cfgErr.Field != "geometry_preset" {
		t.Errorf("field = %q", cfgErr.Field)
	}
}

func TestGeometryPresetReturnsCopy(t *testing.T) {
	a, _ := GeometryPreset("run4")
	a.Modules[EM].Rows = 1
	b, _ := GeometryPreset("run4")
	if b.Modules[EM].Rows != 26 {
		t.Errorf("preset modified through a previous copy")
	}
}

func TestResolveGeometry(t *testing.T) {
	explicit := TestBeam21Geometry()
	config := Configuration{GeometryPreset: "run4", Geometry: &explicit}
	cfg, err := config.ResolveGeometry()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Modules[HAD1].RodsPerRow != 59 {
		t.Errorf("explicit geometry ignored")
	}

	config.Geometry = nil
	cfg, err = config.ResolveGeometry()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Modules[HAD1].RodsPerRow != 29 {
		t.Errorf("preset ignored")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GeometryConfig)
		field  string
	}{
		{"zero gap", func(c *GeometryConfig) { c.RodsPerGap = 0 }, "rods_per_gap"},
		{"negative gap", func(c *GeometryConfig) { c.RodsPerGap = -29 }, "rods_per_gap"},
		{"missing module", func(c *GeometryConfig) { c.Modules = c.Modules[:3] }, "modules"},
		{"one bound", func(c *GeometryConfig) { c.EMSegmentBounds = []int{8} }, "em_segment_bounds"},
		{"decreasing bounds", func(c *GeometryConfig) { c.EMSegmentBounds = []int{17, 8} }, "em_segment_bounds"},
		{"equal bounds", func(c *GeometryConfig) { c.EMSegmentBounds = []int{8, 8} }, "em_segment_bounds"},
		{"zero rows per segment", func(c *GeometryConfig) { c.HADRowsPerSegment = 0 }, "had_rows_per_segment"},
		{"segments per module", func(c *GeometryConfig) { c.HADSegmentsPerModule = 3 }, "had_segments_per_module"},
		{"swapped modules", func(c *GeometryConfig) { c.Modules[HAD1].Name = "HAD2" }, "modules[1]"},
		{"zero rods per row", func(c *GeometryConfig) { c.Modules[EM].RodsPerRow = 0 }, "modules[0].rods_per_row"},
		{"zero rows", func(c *GeometryConfig) { c.Modules[HAD3].Rows = 0 }, "modules[3].rows"},
		{"negative offset", func(c *GeometryConfig) { c.Modules[HAD2].RowOffset = -12 }, "modules[2]"},
		{"hadronic module too deep", func(c *GeometryConfig) { c.Modules[HAD2].Rows = 13 }, "modules[2]"},
		{"gap too small for the module", func(c *GeometryConfig) { c.RodsPerGap = 28 }, "modules[1]"},
		{"EM bound beyond the module", func(c *GeometryConfig) { c.EMSegmentBounds = []int{30, 40} }, "em_segment_bounds"},
		{"empty last EM segment", func(c *GeometryConfig) { c.EMSegmentBounds = []int{8, 26} }, "em_segment_bounds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Run4Geometry()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var cfgErr *ErrConfig
			if !errors.As(err, &cfgErr) {
				t.Fatalf("got %v, want ErrConfig", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("field = %q, want %q", cfgErr.Field, tt.field)
			}
			if _, err := NewGeometry(cfg); err == nil {
				t.Errorf("NewGeometry accepted an invalid geometry")
			}
		})
	}
}

func TestValidateModuleGapOverride(t *testing.T) {
	cfg := Run4Geometry()
	cfg.RodsPerGap = 28
	for _, m := range Modules[1:] {
		cfg.Modules[m].RodsPerGap = 29
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("per-module gap not used: %v", err)
	}
}

func TestValidateLastEMBound(t *testing.T) {
	cfg := Run4Geometry()
	cfg.EMSegmentBounds = []int{8, 25}
	if err := cfg.Validate(); err != nil {
		t.Errorf("bound on the last gap rejected: %v", err)
	}
	if err := TestBeam21Geometry().Validate(); err != nil {
		t.Errorf("testbeam21 preset: %v", err)
	}
}

func TestEMRowOffset(t *testing.T) {
	cfg := Run4Geometry()
	cfg.Modules[EM].RowOffset = 1
	geo := mustGeometry(t, cfg)
	if got := geo.NumEMRows(); got != 27 {
		t.Fatalf("NumEMRows = %d, want 27", got)
	}

	var ev InputEvent
	ev.Rods[EM] = []int32{753}
	agg := NewAggregate(geo)
	NewAggregator(geo, 0).Process(&ev, agg)
	if agg.Rejected != 0 {
		t.Fatalf("rod 753 rejected")
	}
	if len(agg.EMRows) != 27 {
		t.Fatalf("EM rows = %d, want 27", len(agg.EMRows))
	}
	if agg.EMRows[26] != 1 {
		t.Errorf("EMRows[26] = %v, want 1", agg.EMRows[26])
	}
}

func TestDecodeConfiguration(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "run.yml")
	content := "geometry_preset: testbeam21\nhistograms:\n  EM_Total: {bins: 10}\n"
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	config := Configuration{GeometryPreset: "run4", NoDB: true, NumWorkers: 3}
	if err := DecodeConfiguration(filename, &config); err != nil {
		t.Fatal(err)
	}
	if config.GeometryPreset != "testbeam21" || config.NumWorkers != 3 || !config.NoDB {
		t.Errorf("config = %+v", config)
	}
	if config.Histograms["EM_Total"].Bins != 10 {
		t.Errorf("histograms = %+v", config.Histograms)
	}

	geoConfig, err := GeometryForRun(config)
	if err != nil {
		t.Fatal(err)
	}
	if geoConfig.Modules[HAD1].RodsPerRow != 59 {
		t.Errorf("geometry = %+v", geoConfig)
	}

	bad := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(bad, []byte(`{"num_workers": "four"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := DecodeConfiguration(bad, &config); err == nil {
		t.Errorf("accepted a malformed file")
	}
}
