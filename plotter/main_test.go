package main

import (
	"os"
	"path/filepath"
	"testing"

	converter "github.com/zdc-run4/converter_go/pkg"
)

func TestLoadHistSpecsPreset(t *testing.T) {
	specs, err := loadHistSpecs("", "run4")
	if err != nil {
		t.Fatal(err)
	}
	if s := specs[converter.HistHADRow]; s.Bins != 36 {
		t.Errorf("HAD_Row bins = %d, want 36", s.Bins)
	}
}

func TestLoadHistSpecsFromConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "tb21.yaml")
	content := `
geometry_preset: testbeam21
no_db: true
histograms:
  HAD_Total: {bins: 40, low: 0, high: 0.05}
  EM_Row: {title: EM rows}
`
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	specs, err := loadHistSpecs(filename, "run4")
	if err != nil {
		t.Fatal(err)
	}
	if s := specs[converter.HistHADColumn]; s.Bins != 59 {
		t.Errorf("HAD_Column bins = %d, want the testbeam21 59", s.Bins)
	}
	if s := specs[converter.HistTotalRow]; s.Bins != 47 {
		t.Errorf("Total_Row bins = %d, want 47", s.Bins)
	}
	if s := specs[converter.HistHADTotal]; s.Bins != 40 || s.High != 0.05 {
		t.Errorf("HAD_Total = %+v", s)
	}
	if s := specs[converter.HistEMRow]; s.Title != "EM rows" || s.Bins != 11 {
		t.Errorf("EM_Row = %+v", s)
	}
}

func TestLoadHistSpecsBadConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(filename, []byte(`{"histograms": {"Nope": {"bins": 3}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadHistSpecs(filename, "run4"); err == nil {
		t.Errorf("accepted an unknown histogram")
	}
	if _, err := loadHistSpecs(filepath.Join(t.TempDir(), "missing.yaml"), "run4"); err == nil {
		t.Errorf("accepted a missing file")
	}
}
