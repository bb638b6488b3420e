package converter

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// ChannelTicks marks integer positions on row and column axes, labelling
// every Step-th one. Step 0 picks a step giving about NSuggestedTicks labels.
type ChannelTicks struct {
	NSuggestedTicks int
	Step            int
}

func (t ChannelTicks) Ticks(min, max float64) []plot.Tick {
	if t.NSuggestedTicks <= 0 {
		t.NSuggestedTicks = 6
	}
	lo, hi := int(math.Ceil(min)), int(math.Floor(max))
	if hi < lo {
		return nil
	}
	step := t.Step
	if step <= 0 {
		step = niceStep(float64(hi-lo) / float64(t.NSuggestedTicks))
	}

	ticks := make([]plot.Tick, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		tick := plot.Tick{Value: float64(v)}
		if v%step == 0 {
			tick.Label = strconv.Itoa(v)
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

// niceStep rounds x up to 1, 2 or 5 times a power of ten.
func niceStep(x float64) int {
	if x <= 1 {
		return 1
	}
	tens := math.Pow10(int(math.Floor(math.Log10(x))))
	for _, m := range []float64{1, 2, 5, 10} {
		if m*tens >= x {
			return int(m * tens)
		}
	}
	return int(10 * tens)
}

// FractionTicks labels light fraction axes with the precision the range needs.
type FractionTicks struct {
	NSuggestedTicks int
}

func (t FractionTicks) Ticks(lo, hi float64) []plot.Tick {
	if t.NSuggestedTicks <= 1 {
		t.NSuggestedTicks = 5
	}
	if hi <= lo {
		return nil
	}

	major := niceStepFloat((hi - lo) / float64(t.NSuggestedTicks-1))
	prec := max(0, -int(math.Floor(math.Log10(major))))
	minor := major / 2

	var ticks []plot.Tick
	for val := math.Ceil(lo/minor) * minor; val <= hi+minor/1e6; val += minor {
		v := round(val, prec+1)
		tick := plot.Tick{Value: v}
		if isMultiple(v, major) {
			tick.Label = strconv.FormatFloat(v, 'f', prec, 64)
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

func niceStepFloat(x float64) float64 {
	tens := math.Pow10(int(math.Floor(math.Log10(x))))
	for _, m := range []float64{1, 2, 5, 10} {
		if m*tens >= x*(1-1e-9) {
			return m * tens
		}
	}
	return 10 * tens
}

func isMultiple(v, step float64) bool {
	r := math.Abs(v/step - math.Round(v/step))
	return r < 1e-6
}

func round(x float64, prec int) float64 {
	if x == 0 {
		// Make sure zero is returned
		// without the negative bit set.
		return 0
	}
	pow := math.Pow10(prec)
	intermed := x * pow
	if math.IsInf(intermed, 0) {
		return x
	}
	return math.Round(intermed) / pow
}
