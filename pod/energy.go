package pod

import (
	"fmt"
	"io"
	"math"
)

// Thresholds are the captured energy fractions reported by Energy.
var Thresholds = []float64{0.99, 0.999, 0.9999}

// EnergyLevel is one line of an energy report.
type EnergyLevel struct {
	Fraction float64
	// Modes is the smallest mode count capturing Fraction of the energy.
	// It is only meaningful when Reached is true.
	Modes   int
	Reached bool
}

// EnergyReport lists how many modes are needed to capture each threshold.
type EnergyReport struct {
	Levels []EnergyLevel
}

// Residual returns 1 - cumsum(s²)[k]/sum(s²) for k = 0..len(s)-1, i.e. the
// energy not captured by the first k+1 modes.
func Residual(singular []float64) []float64 {
	var total float64
	for _, s := range singular {
		total += s * s
	}
	res := make([]float64, len(singular))
	var cum float64
	for k, s := range singular {
		cum += s * s
		res[k] = 1 - cum/total
	}
	return res
}

// Energy builds the energy report for a set of singular values. Thresholds
// that no mode count reaches are marked as not reached.
func Energy(singular []float64) EnergyReport {
	res := Residual(singular)
	levels := make([]EnergyLevel, len(Thresholds))
	for i, frac := range Thresholds {
		levels[i].Fraction = frac
		limit := 1 - frac
		for k, r := range res {
			if r < limit && !math.IsNaN(r) {
				levels[i].Modes = k + 1
				levels[i].Reached = true
				break
			}
		}
	}
	return EnergyReport{Levels: levels}
}

func (l EnergyLevel) String() string {
	if !l.Reached {
		return fmt.Sprintf("%.2f%%: not reached", l.Fraction*100)
	}
	return fmt.Sprintf("%.2f%%: %d", l.Fraction*100, l.Modes)
}

// WriteTo writes one line per level, e.g. "99.00%: 12".
func (r EnergyReport) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, l := range r.Levels {
		m, err := fmt.Fprintln(w, l.String())
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
