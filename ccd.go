package arctic

import (
	"fmt"
	"math"
)

// CCDPhase describes how electrons fill the volume of one phase of a pixel.
//
// The fractional volume reached by a cloud of n electrons is
//
//	((n - WellNotchDepth) / (FullWellDepth - WellNotchDepth)) ^ WellFillPower
//
// clamped to [0, 1]. Charge below the notch occupies no trap-bearing volume.
type CCDPhase struct {
	FullWellDepth  float64
	WellNotchDepth float64
	WellFillPower  float64
}

// Validate checks the well parameters.
func (p CCDPhase) Validate() error {
	switch {
	case p.WellNotchDepth < 0:
		return fmt.Errorf("%w: well notch depth %g is negative", ErrInvalidCCD, p.WellNotchDepth)
	case !(p.FullWellDepth > p.WellNotchDepth):
		return fmt.Errorf("%w: full well depth %g not above notch depth %g",
			ErrInvalidCCD, p.FullWellDepth, p.WellNotchDepth)
	case !(p.WellFillPower > 0):
		return fmt.Errorf("%w: well fill power %g must be positive", ErrInvalidCCD, p.WellFillPower)
	}
	return nil
}

// CloudFractionalVolume returns the fraction of the pixel (phase) volume
// reached by a cloud of nElectrons.
func (p CCDPhase) CloudFractionalVolume(nElectrons float64) float64 {
	if nElectrons <= p.WellNotchDepth || nElectrons <= 0 {
		return 0
	}
	v := (nElectrons - p.WellNotchDepth) / (p.FullWellDepth - p.WellNotchDepth)
	if v >= 1 {
		return 1
	}
	if p.WellFillPower != 1 {
		v = math.Pow(v, p.WellFillPower)
	}
	return clamp(v, 0, 1)
}

// CCD is an ordered set of pixel phases plus the share of traps in each.
type CCD struct {
	Phases                  []CCDPhase
	FractionOfTrapsPerPhase []float64
}

// NewCCD returns a single-phase CCD holding all traps in that phase.
func NewCCD(phase CCDPhase) CCD {
	return CCD{
		Phases:                  []CCDPhase{phase},
		FractionOfTrapsPerPhase: []float64{1},
	}
}

// NPhases returns the number of phases per pixel.
func (c CCD) NPhases() int { return len(c.Phases) }

// TrapFraction returns the share of traps in phase i. A single-phase CCD
// with no fractions given holds every trap.
func (c CCD) TrapFraction(i int) float64 {
	if len(c.FractionOfTrapsPerPhase) == 0 && len(c.Phases) == 1 {
		return 1
	}
	return c.FractionOfTrapsPerPhase[i]
}

// Validate checks every phase and the trap fractions.
func (c CCD) Validate() error {
	if len(c.Phases) == 0 {
		return fmt.Errorf("%w: no phases", ErrInvalidCCD)
	}
	for i, p := range c.Phases {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("phase %d: %w", i, err)
		}
	}
	if len(c.FractionOfTrapsPerPhase) == 0 && len(c.Phases) == 1 {
		return nil
	}
	if len(c.FractionOfTrapsPerPhase) != len(c.Phases) {
		return fmt.Errorf("%w: %d trap fractions for %d phases",
			ErrInvalidCCD, len(c.FractionOfTrapsPerPhase), len(c.Phases))
	}
	total := 0.0
	for i, f := range c.FractionOfTrapsPerPhase {
		if f < 0 {
			return fmt.Errorf("%w: phase %d trap fraction %g is negative", ErrInvalidCCD, i, f)
		}
		total += f
	}
	if math.Abs(total-1) > 1e-9 {
		return fmt.Errorf("%w: trap fractions sum to %g, want 1", ErrInvalidCCD, total)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
