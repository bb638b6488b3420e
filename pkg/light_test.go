package converter

import "testing"

func TestLightFractionsFill(t *testing.T) {
	geo := mustGeometry(t, Run4Geometry())
	lf := NewLightFractions(DefaultHistSpecs(geo))

	lf.Fill([]float64{1, 0, 0}, []float64{1, 0, 0, 0, 0, 0}, []int32{2, 4})

	// 1 / (6 + 1 + 1) lands in [0.10, 0.15).
	if got := lf.EM[0].Value(2); got != 1 {
		t.Errorf("EM_seg_1 bin 2 = %g, want 1", got)
	}
	if got := lf.EM[1].Value(0); got != 1 {
		t.Errorf("EM_seg_2 bin 0 = %g, want 1", got)
	}
	if got := lf.EMTotal.Value(10); got != 1 {
		t.Errorf("EM_total bin 10 = %g, want 1", got)
	}
	if got := lf.HADTotal.Value(10); got != 1 {
		t.Errorf("HAD_total bin 10 = %g, want 1", got)
	}
	if lf.Skipped != 0 {
		t.Errorf("Skipped = %d", lf.Skipped)
	}
}

func TestLightFractionsSkipsDarkEvents(t *testing.T) {
	geo := mustGeometry(t, Run4Geometry())
	lf := NewLightFractions(DefaultHistSpecs(geo))

	lf.Fill(make([]float64, NumEMSegments), make([]float64, NumHADSegments), []int32{12})
	lf.Fill(make([]float64, NumEMSegments), make([]float64, NumHADSegments), nil)

	if lf.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", lf.Skipped)
	}
	if n := lf.EMTotal.Entries(); n != 0 {
		t.Errorf("EM_total has %d entries", n)
	}
}

func TestLightFractionsNames(t *testing.T) {
	geo := mustGeometry(t, Run4Geometry())
	lf := NewLightFractions(DefaultHistSpecs(geo))
	if got := lf.HAD[5].Name(); got != "HAD_seg_6" {
		t.Errorf("name = %q", got)
	}
	if got := lf.EMTotal.Name(); got != "EM_total" {
		t.Errorf("name = %q", got)
	}
}

func TestLightFractionsTotalSpecs(t *testing.T) {
	geo := mustGeometry(t, Run4Geometry())
	specs := DefaultHistSpecs(geo)
	err := specs.Override(map[string]HistSpec{
		"HAD_Total": {Bins: 40, High: 0.05},
	})
	if err != nil {
		t.Fatal(err)
	}
	lf := NewLightFractions(specs)
	if got := lf.HADTotal.Len(); got != 40 {
		t.Errorf("HAD_total has %d bins, want 40", got)
	}
	if got := lf.HADTotal.XMax(); got != 0.05 {
		t.Errorf("HAD_total upper edge = %g, want 0.05", got)
	}
	if got := lf.EMTotal.Len(); got != 20 {
		t.Errorf("EM_total has %d bins, want 20", got)
	}
	if got := lf.HADTotal.Annotation()["title"]; got != "HAD Total" {
		t.Errorf("HAD_total title = %v", got)
	}
}
