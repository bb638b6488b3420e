package converter

import (
	"errors"
	"fmt"
	"slices"

	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/hbook"
	"golang.org/x/exp/maps"
)

// HistRole names one of the histograms the tools know how to fill.
type HistRole int

const (
	HistEMRow HistRole = iota
	HistEMColumn
	HistHADRow
	HistHADColumn
	HistTotalRow
	HistTotalColumn
	HistEMCone
	HistHADCone
	HistEMLight
	HistHADLight
	HistEMTotal
	HistHADTotal
)

var histRoleNames = map[HistRole]string{
	HistEMRow:       "EM_Row",
	HistEMColumn:    "EM_Column",
	HistHADRow:      "HAD_Row",
	HistHADColumn:   "HAD_Column",
	HistTotalRow:    "Total_Row",
	HistTotalColumn: "Total_Column",
	HistEMCone:      "EM_Cone",
	HistHADCone:     "HAD_Cone",
	HistEMLight:     "EM_Light",
	HistHADLight:    "HAD_Light",
	HistEMTotal:     "EM_Total",
	HistHADTotal:    "HAD_Total",
}

func (r HistRole) String() string {
	if name, ok := histRoleNames[r]; ok {
		return name
	}
	return "Unknown"
}

func ParseHistRole(name string) (HistRole, bool) {
	for role, n := range histRoleNames {
		if n == name {
			return role, true
		}
	}
	return 0, false
}

// RowColumnRoles are the 1D occupancy histograms, in output order.
var RowColumnRoles = []HistRole{HistEMRow, HistEMColumn, HistHADRow, HistHADColumn, HistTotalRow, HistTotalColumn}

// HistSpec describes the axes of a histogram. YBins is only used by 2D roles.
type HistSpec struct {
	Title  string  `json:"title" yaml:"title"`
	XTitle string  `json:"x_title" yaml:"x_title"`
	YTitle string  `json:"y_title" yaml:"y_title"`
	Bins   int     `json:"bins" yaml:"bins"`
	Low    float64 `json:"low" yaml:"low"`
	High   float64 `json:"high" yaml:"high"`
	YBins  int     `json:"y_bins" yaml:"y_bins"`
	YLow   float64 `json:"y_low" yaml:"y_low"`
	YHigh  float64 `json:"y_high" yaml:"y_high"`
}

type HistSpecs map[HistRole]HistSpec

func countAxis(title string, n int) HistSpec {
	return HistSpec{Title: title, XTitle: title, YTitle: "Hits", Bins: n, Low: 0, High: float64(n)}
}

// DefaultHistSpecs gives one bin per row or column of geo.
func DefaultHistSpecs(geo *Geometry) HistSpecs {
	emRows, emCols := geo.NumEMRows(), geo.NumEMColumns()
	hadRows, hadCols := geo.NumHADRows(), geo.NumHADColumns()
	specs := HistSpecs{
		HistEMRow:       countAxis("EM_Row", emRows),
		HistEMColumn:    countAxis("EM_Column", emCols),
		HistHADRow:      countAxis("HAD_Row", hadRows),
		HistHADColumn:   countAxis("HAD_Column", hadCols),
		HistTotalRow:    countAxis("Total_Row", geo.NumTotalRows()),
		HistTotalColumn: countAxis("Total_Column", geo.NumTotalColumns()),
		HistEMCone: {
			Title: "EM_Cone", XTitle: "EM_Row", YTitle: "EM_Column",
			Bins: emRows, High: float64(emRows), YBins: emCols, YHigh: float64(emCols),
		},
		HistHADCone: {
			Title: "HAD_Cone", XTitle: "HAD_Row", YTitle: "HAD_Column",
			Bins: hadRows, High: float64(hadRows), YBins: hadCols, YHigh: float64(hadCols),
		},
		HistEMLight:  {Title: "EM Longitudinal", XTitle: "Light fraction", YTitle: "Events", Bins: 20, Low: 0, High: 1},
		HistHADLight: {Title: "HAD Longitudinal", XTitle: "Light fraction", YTitle: "Events", Bins: 40, Low: 0, High: 0.05},
		HistEMTotal:  {Title: "EM Total", XTitle: "Calorimeter light fraction", YTitle: "Events", Bins: 20, Low: 0, High: 1},
		HistHADTotal: {Title: "HAD Total", XTitle: "Calorimeter light fraction", YTitle: "Events", Bins: 20, Low: 0, High: 1},
	}
	return specs
}

// Override replaces the non-zero fields of the named specs. Unknown names
// and empty ranges are configuration errors, and leave hs unchanged.
func (hs HistSpecs) Override(overrides map[string]HistSpec) error {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	slices.Sort(names)

	updated := maps.Clone(hs)
	for _, name := range names {
		role, ok := ParseHistRole(name)
		if !ok {
			return &ErrConfig{Field: "histograms." + name, Reason: "unknown histogram"}
		}
		o := overrides[name]
		s := updated[role]
		if o.Title != "" {
			s.Title = o.Title
		}
		if o.XTitle != "" {
			s.XTitle = o.XTitle
		}
		if o.YTitle != "" {
			s.YTitle = o.YTitle
		}
		if o.Bins != 0 {
			s.Bins = o.Bins
		}
		if o.Low != 0 || o.High != 0 {
			s.Low, s.High = o.Low, o.High
		}
		if o.YBins != 0 {
			s.YBins = o.YBins
		}
		if o.YLow != 0 || o.YHigh != 0 {
			s.YLow, s.YHigh = o.YLow, o.YHigh
		}
		if s.Bins <= 0 || s.High <= s.Low {
			return &ErrConfig{Field: "histograms." + name, Reason: fmt.Sprintf("empty axis: %d bins in [%g, %g)", s.Bins, s.Low, s.High)}
		}
		updated[role] = s
	}
	maps.Copy(hs, updated)
	return nil
}

func (s HistSpec) NewH1D(name string) *hbook.H1D {
	h := hbook.NewH1D(s.Bins, s.Low, s.High)
	h.Annotation()["name"] = name
	h.Annotation()["title"] = s.Title
	return h
}

func (s HistSpec) NewH2D(name string) *hbook.H2D {
	h := hbook.NewH2D(s.Bins, s.Low, s.High, s.YBins, s.YLow, s.YHigh)
	h.Annotation()["name"] = name
	h.Annotation()["title"] = s.Title
	return h
}

// HistogramEmitter accumulates the hit positions of all events into run-level
// occupancy histograms and writes them to dir on Close.
type HistogramEmitter struct {
	dir     riofs.Directory
	H1      map[HistRole]*hbook.H1D
	EMCone  *hbook.H2D
	HADCone *hbook.H2D
}

func NewHistogramEmitter(dir riofs.Directory, geo *Geometry, specs HistSpecs) *HistogramEmitter {
	if specs == nil {
		specs = DefaultHistSpecs(geo)
	}
	he := &HistogramEmitter{
		dir:     dir,
		H1:      make(map[HistRole]*hbook.H1D, len(RowColumnRoles)),
		EMCone:  specs[HistEMCone].NewH2D(HistEMCone.String()),
		HADCone: specs[HistHADCone].NewH2D(HistHADCone.String()),
	}
	for _, role := range RowColumnRoles {
		he.H1[role] = specs[role].NewH1D(role.String())
	}
	return he
}

func fillAll(h *hbook.H1D, values []int32) {
	for _, v := range values {
		h.Fill(float64(v), 1)
	}
}

func (he *HistogramEmitter) Emit(ev *InputEvent, agg *Aggregate) error {
	fillAll(he.H1[HistEMRow], agg.EMRow)
	fillAll(he.H1[HistEMColumn], agg.EMColumn)
	fillAll(he.H1[HistHADRow], agg.HADRow)
	fillAll(he.H1[HistHADColumn], agg.HADColumn)
	fillAll(he.H1[HistTotalRow], agg.TotalRow)
	fillAll(he.H1[HistTotalColumn], agg.TotalColumn)
	for i := range agg.EMRow {
		he.EMCone.Fill(float64(agg.EMRow[i]), float64(agg.EMColumn[i]), 1)
	}
	for i := range agg.HADRow {
		he.HADCone.Fill(float64(agg.HADRow[i]), float64(agg.HADColumn[i]), 1)
	}
	return nil
}

func (he *HistogramEmitter) Close() error {
	if he.dir == nil {
		return nil
	}
	var errs []error
	for _, role := range RowColumnRoles {
		if err := he.dir.Put(role.String(), rhist.NewH1DFrom(he.H1[role])); err != nil {
			errs = append(errs, fmt.Errorf("error writing histogram %v: %w", role, err))
		}
	}
	if err := he.dir.Put(HistEMCone.String(), rhist.NewH2DFrom(he.EMCone)); err != nil {
		errs = append(errs, fmt.Errorf("error writing histogram %v: %w", HistEMCone, err))
	}
	if err := he.dir.Put(HistHADCone.String(), rhist.NewH2DFrom(he.HADCone)); err != nil {
		errs = append(errs, fmt.Errorf("error writing histogram %v: %w", HistHADCone, err))
	}
	return errors.Join(errs...)
}
