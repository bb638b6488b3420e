// Package h5 writes the converted events as HDF5 tables:
//
//	/Run/geometry  one row per module with the layout used for the run
//	/Run/events    one row per event with its segment sums
//	/Hits/hits     one row per accepted hit
package h5

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	converter "github.com/zdc-run4/converter_go/pkg"
)

type Writer struct {
	File          *hdf5.File
	Filename      string
	RunGroup      *hdf5.Group
	HitsGroup     *hdf5.Group
	GeometryTable *hdf5.Dataset
	EventTable    *hdf5.Dataset
	HitsTable     *hdf5.Dataset
	EvtCounter    int
	HitCounter    int

	geo  *converter.Geometry
	hits []HitHDF5
}

func NewWriter(filename string, geo *converter.Geometry, compression int) (*Writer, error) {
	f, err := hdf5.CreateFile(filename, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &converter.ErrOpenFile{Filename: filename, Err: err}
	}

	w := &Writer{File: f, Filename: filename, geo: geo}
	if err := w.createTables(compression); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.writeGeometry(); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) createTables(compression int) error {
	var err error
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return err
	}
	if w.HitsGroup, err = createGroup(w.File, "Hits"); err != nil {
		return err
	}
	if w.GeometryTable, err = createTable(w.RunGroup, "geometry", ModuleHDF5{}, compression); err != nil {
		return err
	}
	if w.EventTable, err = createTable(w.RunGroup, "events", EventHDF5{}, compression); err != nil {
		return err
	}
	if w.HitsTable, err = createTable(w.HitsGroup, "hits", HitHDF5{}, compression); err != nil {
		return err
	}
	return nil
}

func (w *Writer) writeGeometry() error {
	cfg := w.geo.Config()
	// The array MUST be allocated at creation, appends are not seen by HDF5
	modules := make([]ModuleHDF5, converter.NumModules)
	for _, m := range converter.Modules {
		mc := w.geo.Module(m)
		gap := mc.RodsPerGap
		if gap == 0 {
			gap = cfg.RodsPerGap
		}
		modules[m] = ModuleHDF5{
			name:                convertToHdf5String(m.String()),
			rods_per_row:        int32(mc.RodsPerRow),
			rows:                int32(mc.Rows),
			rods_per_gap:        int32(gap),
			row_offset:          int32(mc.RowOffset),
			total_row_offset:    int32(mc.TotalRowOffset),
			total_column_offset: int32(mc.TotalColumnOffset),
		}
	}
	if err := writeArrayToTable(w.GeometryTable, &modules, 0); err != nil {
		return fmt.Errorf("error writing geometry table: %w", err)
	}
	return nil
}

// Emit appends one event row and one row per accepted hit. Hits are located
// again from the raw channels so the module of every hit is known.
func (w *Writer) Emit(ev *converter.InputEvent, agg *converter.Aggregate) error {
	w.hits = w.hits[:0]
	for _, m := range converter.Modules {
		for _, ch := range ev.Rods[m] {
			if !w.geo.InRange(m, ch) {
				continue
			}
			c := w.geo.Locate(m, ch)
			w.hits = append(w.hits, HitHDF5{
				track_id:     agg.TrackID,
				module:       int32(m),
				channel:      ch,
				row:          int32(c.ModuleRow),
				column:       int32(c.Column),
				total_row:    int32(c.TotalRow),
				total_column: int32(c.TotalColumn),
				segment:      int32(c.Segment),
			})
		}
	}

	entry := EventHDF5{
		track_id: agg.TrackID,
		energy:   ev.Energy,
		n_hits:   int32(len(w.hits)),
		rejected: int32(agg.Rejected),
		em_seg:   agg.EMSeg,
		had_seg:  agg.HADSeg,
	}
	if err := writeEntryToTable(w.EventTable, entry, w.EvtCounter); err != nil {
		return &converter.ErrWriteEntry{TrackID: agg.TrackID, Err: err}
	}
	w.EvtCounter++

	if err := writeArrayToTable(w.HitsTable, &w.hits, w.HitCounter); err != nil {
		return &converter.ErrWriteEntry{TrackID: agg.TrackID, Err: err}
	}
	w.HitCounter += len(w.hits)
	return nil
}

func (w *Writer) Close() error {
	var errs []error
	for _, d := range []*hdf5.Dataset{w.GeometryTable, w.EventTable, w.HitsTable} {
		if d != nil {
			errs = append(errs, d.Close())
		}
	}
	for _, g := range []*hdf5.Group{w.RunGroup, w.HitsGroup} {
		if g != nil {
			errs = append(errs, g.Close())
		}
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file %s: %w", w.Filename, err))
	}
	return errors.Join(errs...)
}
