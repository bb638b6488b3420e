package converter

import (
	"errors"
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

// Emitter consumes one aggregate per event. Implementations must not keep
// references to ev or agg after Emit returns: both are reused.
type Emitter interface {
	Emit(ev *InputEvent, agg *Aggregate) error
	Close() error
}

// MultiEmitter sends every event to all its emitters.
type MultiEmitter []Emitter

func (me MultiEmitter) Emit(ev *InputEvent, agg *Aggregate) error {
	for _, e := range me {
		if err := e.Emit(ev, agg); err != nil {
			return err
		}
	}
	return nil
}

func (me MultiEmitter) Close() error {
	var errs []error
	for _, e := range me {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func TreeName(schema Schema) string {
	switch schema {
	case SchemaSegments:
		return "TestBeam_Tree"
	case SchemaHistograms:
		return "TestBeamTree"
	default:
		return "Run4Tree"
	}
}

// treeRecord holds the branch values of one output entry. Slices need an
// int32 count branch in the ROOT layout.
type treeRecord struct {
	NLastStepZ  int32
	LastStepZ   []float64
	NRPD        int32
	RPD         []int32
	NEMCher     int32
	EMCher      []int32
	NHADCher    int32
	HADCher     []int32
	NEMRow      int32
	EMRow       []int32
	NHADRow     int32
	HADRow      []int32
	NEMColumn   int32
	EMColumn    []int32
	NHADColumn  int32
	HADColumn   []int32
	NTotalRow   int32
	TotalRow    []int32
	NTotalCol   int32
	TotalColumn []int32
	Energy      float64
	TrackID     int32
	EMSeg       [NumEMSegments]float64
	HADSeg      [NumHADSegments]float64
	NEMRows     int32
	EMRows      []int32
	NHADRows    int32
	HADRows     []int32
}

func (rec *treeRecord) fill(ev *InputEvent, agg *Aggregate) {
	rec.LastStepZ = ev.LastStepZ
	rec.NLastStepZ = int32(len(rec.LastStepZ))
	rec.RPD = ev.RPDCherenkovs
	rec.NRPD = int32(len(rec.RPD))
	rec.EMCher = ev.Cherenkovs[EM]
	rec.NEMCher = int32(len(rec.EMCher))
	rec.HADCher = ev.HADCherenkovs()
	rec.NHADCher = int32(len(rec.HADCher))

	rec.EMRow, rec.NEMRow = agg.EMRow, int32(len(agg.EMRow))
	rec.HADRow, rec.NHADRow = agg.HADRow, int32(len(agg.HADRow))
	rec.EMColumn, rec.NEMColumn = agg.EMColumn, int32(len(agg.EMColumn))
	rec.HADColumn, rec.NHADColumn = agg.HADColumn, int32(len(agg.HADColumn))
	rec.TotalRow, rec.NTotalRow = agg.TotalRow, int32(len(agg.TotalRow))
	rec.TotalColumn, rec.NTotalCol = agg.TotalColumn, int32(len(agg.TotalColumn))
	rec.EMRows, rec.NEMRows = agg.EMRows, int32(len(agg.EMRows))
	rec.HADRows, rec.NHADRows = agg.HADRows, int32(len(agg.HADRows))

	rec.Energy = ev.Energy
	rec.TrackID = agg.TrackID
	rec.EMSeg = agg.EMSeg
	rec.HADSeg = agg.HADSeg
}

func (rec *treeRecord) writeVars(schema Schema) []rtree.WriteVar {
	switch schema {
	case SchemaRun4:
		return []rtree.WriteVar{
			{Name: "N_LastStepZ", Value: &rec.NLastStepZ},
			{Name: "LastStepZ", Value: &rec.LastStepZ, Count: "N_LastStepZ"},
			{Name: "N_RPD_nCherenkovs", Value: &rec.NRPD},
			{Name: "RPD_nCherenkovs", Value: &rec.RPD, Count: "N_RPD_nCherenkovs"},
			{Name: "N_EM_nCherenkovs", Value: &rec.NEMCher},
			{Name: "EM_nCherenkovs", Value: &rec.EMCher, Count: "N_EM_nCherenkovs"},
			{Name: "N_HAD_nCherenkovs", Value: &rec.NHADCher},
			{Name: "HAD_nCherenkovs", Value: &rec.HADCher, Count: "N_HAD_nCherenkovs"},
			{Name: "N_EM_Row", Value: &rec.NEMRow},
			{Name: "EM_Row", Value: &rec.EMRow, Count: "N_EM_Row"},
			{Name: "N_HAD_Row", Value: &rec.NHADRow},
			{Name: "HAD_Row", Value: &rec.HADRow, Count: "N_HAD_Row"},
			{Name: "N_EM_Column", Value: &rec.NEMColumn},
			{Name: "EM_Column", Value: &rec.EMColumn, Count: "N_EM_Column"},
			{Name: "N_HAD_Column", Value: &rec.NHADColumn},
			{Name: "HAD_Column", Value: &rec.HADColumn, Count: "N_HAD_Column"},
			{Name: "N_Total_Row", Value: &rec.NTotalRow},
			{Name: "Total_Row", Value: &rec.TotalRow, Count: "N_Total_Row"},
			{Name: "N_Total_Column", Value: &rec.NTotalCol},
			{Name: "Total_Column", Value: &rec.TotalColumn, Count: "N_Total_Column"},
			{Name: "Energy", Value: &rec.Energy},
			{Name: "TrackID", Value: &rec.TrackID},
			{Name: "EM_Seg", Value: &rec.EMSeg},
			{Name: "HAD_Seg", Value: &rec.HADSeg},
		}
	case SchemaSegments, SchemaRows:
		wvars := []rtree.WriteVar{
			{Name: "nLastStepZ", Value: &rec.NLastStepZ},
			{Name: "lastStepZ", Value: &rec.LastStepZ, Count: "nLastStepZ"},
			{Name: "nRpdNcherenkov", Value: &rec.NRPD},
			{Name: "rpdNcherenkov", Value: &rec.RPD, Count: "nRpdNcherenkov"},
			{Name: "energy", Value: &rec.Energy},
			{Name: "trackID", Value: &rec.TrackID},
			{Name: "EM_seg", Value: &rec.EMSeg},
			{Name: "HAD_seg", Value: &rec.HADSeg},
		}
		if schema == SchemaRows {
			wvars = append(wvars,
				rtree.WriteVar{Name: "nEM_rows", Value: &rec.NEMRows},
				rtree.WriteVar{Name: "EM_rows", Value: &rec.EMRows, Count: "nEM_rows"},
				rtree.WriteVar{Name: "nHAD_rows", Value: &rec.NHADRows},
				rtree.WriteVar{Name: "HAD_rows", Value: &rec.HADRows, Count: "nHAD_rows"},
			)
		}
		return wvars
	case SchemaHistograms:
		return []rtree.WriteVar{
			{Name: "N_LastStepZ", Value: &rec.NLastStepZ},
			{Name: "LastStepZ", Value: &rec.LastStepZ, Count: "N_LastStepZ"},
			{Name: "N_RPD_nCherenkovs", Value: &rec.NRPD},
			{Name: "RPD_nCherenkovs", Value: &rec.RPD, Count: "N_RPD_nCherenkovs"},
			{Name: "N_EM_nCherenkovs", Value: &rec.NEMCher},
			{Name: "EM_nCherenkovs", Value: &rec.EMCher, Count: "N_EM_nCherenkovs"},
			{Name: "N_HAD_nCherenkovs", Value: &rec.NHADCher},
			{Name: "HAD_nCherenkovs", Value: &rec.HADCher, Count: "N_HAD_nCherenkovs"},
			{Name: "TrackID", Value: &rec.TrackID},
		}
	}
	return nil
}

// TreeWriter writes one tree entry per event into a ROOT directory.
type TreeWriter struct {
	Schema     Schema
	tree       rtree.Writer
	rec        treeRecord
	EvtCounter int
}

func NewTreeWriter(dir riofs.Directory, schema Schema, opts ...rtree.WriteOption) (*TreeWriter, error) {
	w := &TreeWriter{Schema: schema}
	wvars := w.rec.writeVars(schema)
	if wvars == nil {
		return nil, &ErrConfig{Field: "schema", Reason: fmt.Sprintf("unknown schema %q", schema)}
	}
	name := TreeName(schema)
	opts = append([]rtree.WriteOption{rtree.WithTitle(name)}, opts...)
	tree, err := rtree.NewWriter(dir, name, wvars, opts...)
	if err != nil {
		return nil, &ErrCreateTree{TreeName: name, Err: err}
	}
	w.tree = tree
	return w, nil
}

func (w *TreeWriter) Emit(ev *InputEvent, agg *Aggregate) error {
	w.rec.fill(ev, agg)
	if _, err := w.tree.Write(); err != nil {
		return &ErrWriteEntry{TrackID: agg.TrackID, Err: err}
	}
	w.EvtCounter++
	return nil
}

func (w *TreeWriter) Close() error {
	if err := w.tree.Close(); err != nil {
		return fmt.Errorf("error closing tree %q: %w", TreeName(w.Schema), err)
	}
	return nil
}

// ROOTWriter owns the output ROOT file and the emitters writing into it.
type ROOTWriter struct {
	File     *groot.File
	Filename string
	emitters MultiEmitter
}

// NewROOTWriter creates filename and the emitters the schema needs: a tree for
// record schemas, a tree plus run-level histograms for SchemaHistograms.
func NewROOTWriter(filename string, schema Schema, geo *Geometry, specs HistSpecs, opts ...rtree.WriteOption) (*ROOTWriter, error) {
	f, err := groot.Create(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	logger.Info(fmt.Sprintf("Creating file: %s", filename), "writer")

	w := &ROOTWriter{File: f, Filename: filename}
	tree, err := NewTreeWriter(f, schema, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.emitters = append(w.emitters, tree)

	if schema == SchemaHistograms {
		w.emitters = append(w.emitters, NewHistogramEmitter(f, geo, specs))
	}
	return w, nil
}

func (w *ROOTWriter) Emit(ev *InputEvent, agg *Aggregate) error {
	return w.emitters.Emit(ev, agg)
}

func (w *ROOTWriter) Close() error {
	logger.Info(fmt.Sprintf("Closing file %s", w.Filename), "writer")
	var errs []error
	if err := w.emitters.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	return errors.Join(errs...)
}
