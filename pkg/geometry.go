package converter

// The mapping functions below expect 0 <= ch < module channels. Callers must
// check the range first (see Geometry.InRange); out-of-range channels give
// meaningless rows and segments.

// LongitudinalSegmentEM returns the EM depth segment of a rod: the index of
// the first bound greater than the rod's gap, or len(bounds) past the last one.
func LongitudinalSegmentEM(ch, rodsPerGap int, bounds []int) int {
	row := ch / rodsPerGap
	for seg, b := range bounds {
		if row < b {
			return seg
		}
	}
	return len(bounds)
}

// LongitudinalSegmentHAD returns the global hadronic segment of a rod.
// moduleNumber is 1-indexed (HAD1=1).
func LongitudinalSegmentHAD(ch, moduleNumber, rodsPerGap, rowsPerSegment, segmentsPerModule int) int {
	row := ch / rodsPerGap
	return row/rowsPerSegment + (moduleNumber-1)*segmentsPerModule
}

func RowIndex(ch, rodsPerRow int) int {
	return ch / rodsPerRow
}

func ColumnIndex(ch, rodsPerRow int) int {
	return ch % rodsPerRow
}

// Coordinate is the position of one hit in the different row/column spaces.
//
//	Row, Column    local to the module
//	ModuleRow      EM rows for EM, shared HAD row space for HAD1..HAD3
//	TotalRow       EM and HAD rows combined
//	TotalColumn    column in the combined space
//	Segment        EM segment (0..2) or HAD segment (0..5)
type Coordinate struct {
	Row         int
	Column      int
	ModuleRow   int
	TotalRow    int
	TotalColumn int
	Segment     int
}

type Geometry struct {
	cfg GeometryConfig
}

// NewGeometry validates cfg and returns the corresponding mapper.
func NewGeometry(cfg GeometryConfig) (*Geometry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.EMSegmentBounds = append([]int(nil), cfg.EMSegmentBounds...)
	cfg.Modules = append([]ModuleConfig(nil), cfg.Modules...)
	return &Geometry{cfg: cfg}, nil
}

func (g *Geometry) Config() GeometryConfig {
	return g.cfg
}

func (g *Geometry) Module(m Module) ModuleConfig {
	return g.cfg.Modules[m]
}

func (g *Geometry) Channels(m Module) int {
	return g.cfg.Modules[m].Channels()
}

func (g *Geometry) InRange(m Module, ch int32) bool {
	return ch >= 0 && int(ch) < g.Channels(m)
}

// Segment returns the EM segment for EM hits and the HAD segment otherwise.
func (g *Geometry) Segment(m Module, ch int32) int {
	if m == EM {
		return LongitudinalSegmentEM(int(ch), g.cfg.rodsPerGap(EM), g.cfg.EMSegmentBounds)
	}
	return LongitudinalSegmentHAD(int(ch), m.Number(), g.cfg.rodsPerGap(m), g.cfg.HADRowsPerSegment, g.cfg.HADSegmentsPerModule)
}

func (g *Geometry) Locate(m Module, ch int32) Coordinate {
	mc := g.cfg.Modules[m]
	row := RowIndex(int(ch), mc.RodsPerRow)
	col := ColumnIndex(int(ch), mc.RodsPerRow)
	return Coordinate{
		Row:         row,
		Column:      col,
		ModuleRow:   row + mc.RowOffset,
		TotalRow:    row + mc.RowOffset + mc.TotalRowOffset,
		TotalColumn: col + mc.TotalColumnOffset,
		Segment:     g.Segment(m, ch),
	}
}

// NumEMRows is the size of the EM row space, RowOffset included.
func (g *Geometry) NumEMRows() int {
	mc := g.cfg.Modules[EM]
	return mc.RowOffset + mc.Rows
}

func (g *Geometry) NumEMColumns() int {
	return g.cfg.Modules[EM].RodsPerRow
}

// NumHADRows is the size of the shared hadronic row space.
func (g *Geometry) NumHADRows() int {
	n := 0
	for _, m := range Modules[1:] {
		mc := g.cfg.Modules[m]
		n = max(n, mc.RowOffset+mc.Rows)
	}
	return n
}

func (g *Geometry) NumHADColumns() int {
	n := 0
	for _, m := range Modules[1:] {
		n = max(n, g.cfg.Modules[m].RodsPerRow)
	}
	return n
}

func (g *Geometry) NumTotalRows() int {
	n := 0
	for _, mc := range g.cfg.Modules {
		n = max(n, mc.TotalRowOffset+mc.RowOffset+mc.Rows)
	}
	return n
}

func (g *Geometry) NumTotalColumns() int {
	n := 0
	for _, mc := range g.cfg.Modules {
		n = max(n, mc.TotalColumnOffset+mc.RodsPerRow)
	}
	return n
}
