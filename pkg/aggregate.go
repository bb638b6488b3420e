package converter

import "fmt"

// Aggregate is the derived summary of one event. Segment arrays count hits per
// longitudinal segment; row/column sequences keep one entry per accepted hit in
// arrival order.
type Aggregate struct {
	TrackID int32
	EMSeg   [NumEMSegments]float64
	HADSeg  [NumHADSegments]float64

	EMRow       []int32
	EMColumn    []int32
	HADRow      []int32
	HADColumn   []int32
	TotalRow    []int32
	TotalColumn []int32

	// Per-row occupancy, EMRows indexed by EM row, HADRows by shared HAD row.
	EMRows  []int32
	HADRows []int32

	Rejected int
}

// NewAggregate allocates an aggregate sized for g.
func NewAggregate(g *Geometry) *Aggregate {
	return &Aggregate{
		EMRows:  make([]int32, g.NumEMRows()),
		HADRows: make([]int32, g.NumHADRows()),
	}
}

// Reset zeroes every field so the buffer can be reused for the next event.
func (a *Aggregate) Reset() {
	a.TrackID = 0
	a.EMSeg = [NumEMSegments]float64{}
	a.HADSeg = [NumHADSegments]float64{}
	a.EMRow = a.EMRow[:0]
	a.EMColumn = a.EMColumn[:0]
	a.HADRow = a.HADRow[:0]
	a.HADColumn = a.HADColumn[:0]
	a.TotalRow = a.TotalRow[:0]
	a.TotalColumn = a.TotalColumn[:0]
	clear(a.EMRows)
	clear(a.HADRows)
	a.Rejected = 0
}

// Clone returns a deep copy that does not share memory with a.
func (a *Aggregate) Clone() *Aggregate {
	c := *a
	c.EMRow = append([]int32(nil), a.EMRow...)
	c.EMColumn = append([]int32(nil), a.EMColumn...)
	c.HADRow = append([]int32(nil), a.HADRow...)
	c.HADColumn = append([]int32(nil), a.HADColumn...)
	c.TotalRow = append([]int32(nil), a.TotalRow...)
	c.TotalColumn = append([]int32(nil), a.TotalColumn...)
	c.EMRows = append([]int32(nil), a.EMRows...)
	c.HADRows = append([]int32(nil), a.HADRows...)
	return &c
}

func (a *Aggregate) EMTotal() float64 {
	sum := 0.0
	for _, v := range a.EMSeg {
		sum += v
	}
	return sum
}

func (a *Aggregate) HADTotal() float64 {
	sum := 0.0
	for _, v := range a.HADSeg {
		sum += v
	}
	return sum
}

type Aggregator struct {
	geo       *Geometry
	verbosity int
}

func NewAggregator(g *Geometry, verbosity int) *Aggregator {
	return &Aggregator{geo: g, verbosity: verbosity}
}

// Process fills agg from ev. agg is reset first, whatever it held before.
// Hits with a channel outside their module are logged, counted in
// agg.Rejected and otherwise ignored.
func (ag *Aggregator) Process(ev *InputEvent, agg *Aggregate) {
	agg.Reset()
	if len(agg.EMRows) != ag.geo.NumEMRows() {
		agg.EMRows = make([]int32, ag.geo.NumEMRows())
	}
	if len(agg.HADRows) != ag.geo.NumHADRows() {
		agg.HADRows = make([]int32, ag.geo.NumHADRows())
	}

	for _, m := range Modules {
		for _, ch := range ev.Rods[m] {
			if !ag.geo.InRange(m, ch) {
				err := &ErrChannelRange{Module: m, Channel: ch, Limit: ag.geo.Channels(m)}
				logger.Error(fmt.Sprintf("event %d: skipping hit: %v", ev.Index, err))
				agg.Rejected++
				continue
			}
			ag.addHit(m, ch, agg)
		}
	}
	agg.TrackID = int32(ev.Index)
}

func (ag *Aggregator) addHit(m Module, ch int32, agg *Aggregate) {
	c := ag.geo.Locate(m, ch)
	if ag.verbosity > 2 {
		logger.Info(fmt.Sprintf("%v rod %d -> row %d column %d segment %d", m, ch, c.Row, c.Column, c.Segment), "aggregator")
	}

	if m == EM {
		agg.EMSeg[c.Segment]++
		agg.EMRow = append(agg.EMRow, int32(c.ModuleRow))
		agg.EMColumn = append(agg.EMColumn, int32(c.Column))
		agg.EMRows[c.ModuleRow]++
	} else {
		agg.HADSeg[c.Segment]++
		agg.HADRow = append(agg.HADRow, int32(c.ModuleRow))
		agg.HADColumn = append(agg.HADColumn, int32(c.Column))
		agg.HADRows[c.ModuleRow]++
	}
	agg.TotalRow = append(agg.TotalRow, int32(c.TotalRow))
	agg.TotalColumn = append(agg.TotalColumn, int32(c.TotalColumn))
}
