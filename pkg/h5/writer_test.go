package h5

import (
	"path/filepath"
	"testing"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	converter "github.com/zdc-run4/converter_go/pkg"
)

func readTable[T any](t *testing.T, f *hdf5.File, path string) []T {
	t.Helper()
	dset, err := f.OpenDataset(path)
	if err != nil {
		t.Fatalf("could not open %s: %v", path, err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		t.Fatal(err)
	}
	data := make([]T, dims[0])
	if len(data) == 0 {
		return data
	}
	if err := dset.Read(&data); err != nil {
		t.Fatalf("could not read %s: %v", path, err)
	}
	return data
}

func TestWriter(t *testing.T) {
	geo, err := converter.NewGeometry(converter.Run4Geometry())
	if err != nil {
		t.Fatal(err)
	}
	filename := filepath.Join(t.TempDir(), "run4_Out.h5")
	w, err := NewWriter(filename, geo, 4)
	if err != nil {
		t.Fatal(err)
	}

	events := make([]converter.InputEvent, 3)
	events[0].Rods[converter.EM] = []int32{0, 500}
	events[0].Rods[converter.HAD3] = []int32{347}
	events[0].Energy = 100
	events[2].Rods[converter.HAD1] = []int32{5, 9999}

	agg := converter.NewAggregate(geo)
	ag := converter.NewAggregator(geo, 0)
	for i := range events {
		events[i].Index = i
		ag.Process(&events[i], agg)
		if err := w.Emit(&events[i], agg); err != nil {
			t.Fatal(err)
		}
	}
	if w.EvtCounter != 3 || w.HitCounter != 4 {
		t.Errorf("counters: %d events, %d hits", w.EvtCounter, w.HitCounter)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	modules := readTable[ModuleHDF5](t, f, "/Run/geometry")
	if len(modules) != converter.NumModules {
		t.Fatalf("%d geometry rows", len(modules))
	}
	if modules[converter.HAD3].name != convertToHdf5String("HAD3") || modules[converter.HAD3].total_row_offset != 26 || modules[converter.HAD3].row_offset != 24 {
		t.Errorf("HAD3 geometry row = %+v", modules[converter.HAD3])
	}

	evts := readTable[EventHDF5](t, f, "/Run/events")
	if len(evts) != 3 {
		t.Fatalf("%d event rows, want 3", len(evts))
	}
	if evts[0].energy != 100 || evts[0].n_hits != 3 || evts[0].em_seg != [converter.NumEMSegments]float64{1, 0, 1} {
		t.Errorf("event 0 = %+v", evts[0])
	}
	if evts[1].n_hits != 0 || evts[1].track_id != 1 {
		t.Errorf("event 1 = %+v", evts[1])
	}
	if evts[2].rejected != 1 || evts[2].n_hits != 1 {
		t.Errorf("event 2 = %+v", evts[2])
	}

	hits := readTable[HitHDF5](t, f, "/Hits/hits")
	if len(hits) != 4 {
		t.Fatalf("%d hit rows, want 4", len(hits))
	}
	want := HitHDF5{track_id: 0, module: 3, channel: 347, row: 35, column: 28, total_row: 61, total_column: 28, segment: 5}
	if hits[2] != want {
		t.Errorf("hit 2 = %+v, want %+v", hits[2], want)
	}
	if hits[3].track_id != 2 || hits[3].module != 1 || hits[3].segment != 0 {
		t.Errorf("hit 3 = %+v", hits[3])
	}
}
