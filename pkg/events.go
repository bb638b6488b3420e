package converter

// Module identifies one calorimeter module. The order of the constants is the
// order in which hits are processed and the order of the ZDC input trees.
type Module int

const (
	EM Module = iota
	HAD1
	HAD2
	HAD3
)

const NumModules = 4

var Modules = [NumModules]Module{EM, HAD1, HAD2, HAD3}

func (m Module) String() string {
	switch m {
	case EM:
		return "EM"
	case HAD1:
		return "HAD1"
	case HAD2:
		return "HAD2"
	case HAD3:
		return "HAD3"
	default:
		return "Unknown"
	}
}

// Number is the physical module number: 0 for EM, 1..3 for the hadronic modules.
func (m Module) Number() int {
	return int(m)
}

func (m Module) IsHadronic() bool {
	return m >= HAD1 && m <= HAD3
}

// ParseModule returns the module with the given name (EM, HAD1, HAD2, HAD3).
func ParseModule(name string) (Module, bool) {
	for _, m := range Modules {
		if m.String() == name {
			return m, true
		}
	}
	return 0, false
}

// InputEvent holds one entry of every input tree for the same event index.
type InputEvent struct {
	Index         int
	LastStepZ     []float64
	Energy        float64
	RPDCherenkovs []int32
	// Rods and Cherenkovs are indexed by Module (ZDC1tree..ZDC4tree).
	Rods       [NumModules][]int32
	Cherenkovs [NumModules][]int32
}

// Reset empties the event keeping the allocated slices.
func (ev *InputEvent) Reset() {
	ev.Index = 0
	ev.LastStepZ = ev.LastStepZ[:0]
	ev.Energy = 0
	ev.RPDCherenkovs = ev.RPDCherenkovs[:0]
	for i := range ev.Rods {
		ev.Rods[i] = ev.Rods[i][:0]
		ev.Cherenkovs[i] = ev.Cherenkovs[i][:0]
	}
}

func (ev *InputEvent) Clone() *InputEvent {
	c := &InputEvent{
		Index:         ev.Index,
		Energy:        ev.Energy,
		LastStepZ:     append([]float64(nil), ev.LastStepZ...),
		RPDCherenkovs: append([]int32(nil), ev.RPDCherenkovs...),
	}
	for i := range ev.Rods {
		c.Rods[i] = append([]int32(nil), ev.Rods[i]...)
		c.Cherenkovs[i] = append([]int32(nil), ev.Cherenkovs[i]...)
	}
	return c
}

// HADCherenkovs concatenates the photon counts of the three hadronic modules.
func (ev *InputEvent) HADCherenkovs() []int32 {
	n := 0
	for _, m := range Modules[1:] {
		n += len(ev.Cherenkovs[m])
	}
	out := make([]int32, 0, n)
	for _, m := range Modules[1:] {
		out = append(out, ev.Cherenkovs[m]...)
	}
	return out
}
