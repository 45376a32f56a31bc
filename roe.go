package arctic

import (
	"fmt"
	"math"
)

// ROEMode selects how charge is clocked.
type ROEMode int

const (
	// ModeStandard reads pixels out toward the register; pixel i undergoes
	// i+1 transfers (plus any offset).
	ModeStandard ROEMode = iota
	// ModeChargeInjection clocks every pixel through the full length of the
	// device, so all pixels undergo the same number of transfers.
	ModeChargeInjection
	// ModeTrapPumping shuffles charge back and forth in place; every pixel
	// sees only its own traps, NPumps times.
	ModeTrapPumping
)

var roeModeNames = [...]string{
	ModeStandard:        "standard",
	ModeChargeInjection: "charge_injection",
	ModeTrapPumping:     "trap_pumping",
}

// String returns the snake_case mode name.
func (m ROEMode) String() string {
	if m < 0 || int(m) >= len(roeModeNames) {
		return fmt.Sprintf("ROEMode(%d)", int(m))
	}
	return roeModeNames[m]
}

// ParseROEMode is the inverse of ROEMode.String.
func ParseROEMode(s string) (ROEMode, error) {
	for m, name := range roeModeNames {
		if name == s {
			return ROEMode(m), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidROE, s)
}

// ROE describes the readout electronics: the dwell time of every step of
// one pixel-to-pixel transfer and how trap state is carried between passes.
type ROE struct {
	// DwellTimes holds one dwell per clock step. Standard and
	// charge-injection clocking use one step per phase; trap pumping uses
	// two steps per phase (forward then back).
	DwellTimes []float64
	Mode       ROEMode

	// EmptyTrapsBetweenColumns resets the traps before every column.
	// When false, columns inherit trap state and are clocked sequentially.
	EmptyTrapsBetweenColumns bool
	// EmptyTrapsForFirstTransfers models each pixel's first transfer on its
	// own, with empty traps, instead of replicating it through the express
	// multiplier.
	EmptyTrapsForFirstTransfers bool
	// ForceReleaseAwayFromReadout forbids electrons released by a low phase
	// from joining the pixel ahead of the one they were captured from.
	ForceReleaseAwayFromReadout bool
	// UseIntegerExpressMatrix rounds express multipliers up to integers.
	UseIntegerExpressMatrix bool

	// NPumps is the number of pump cycles for ModeTrapPumping.
	NPumps int
}

// NewROE returns standard readout electronics with arctic's defaults.
func NewROE(dwellTimes ...float64) ROE {
	return ROE{
		DwellTimes:                  dwellTimes,
		Mode:                        ModeStandard,
		EmptyTrapsBetweenColumns:    true,
		EmptyTrapsForFirstTransfers: true,
		ForceReleaseAwayFromReadout: true,
	}
}

// NewChargeInjectionROE returns charge-injection readout electronics.
func NewChargeInjectionROE(dwellTimes ...float64) ROE {
	r := NewROE(dwellTimes...)
	r.Mode = ModeChargeInjection
	return r
}

// NewTrapPumpingROE returns trap-pumping readout electronics. dwellTimes
// must hold two steps per phase.
func NewTrapPumpingROE(nPumps int, dwellTimes ...float64) ROE {
	return ROE{
		DwellTimes:               dwellTimes,
		Mode:                     ModeTrapPumping,
		EmptyTrapsBetweenColumns: true,
		NPumps:                   nPumps,
	}
}

// NSteps returns the number of clock steps per transfer.
func (r ROE) NSteps() int { return len(r.DwellTimes) }

// NPhases returns the number of pixel phases the clock sequence drives.
func (r ROE) NPhases() int {
	if r.Mode == ModeTrapPumping {
		return len(r.DwellTimes) / 2
	}
	return len(r.DwellTimes)
}

// Validate checks the dwell times and mode-specific settings.
func (r ROE) Validate() error {
	if r.Mode < 0 || int(r.Mode) >= len(roeModeNames) {
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidROE, int(r.Mode))
	}
	if len(r.DwellTimes) == 0 {
		return fmt.Errorf("%w: no dwell times", ErrInvalidROE)
	}
	for i, d := range r.DwellTimes {
		if !(d > 0) || math.IsInf(d, 0) {
			return fmt.Errorf("%w: dwell time %d is %g", ErrInvalidROE, i, d)
		}
	}
	if r.Mode == ModeTrapPumping {
		if len(r.DwellTimes)%2 != 0 {
			return fmt.Errorf("%w: trap pumping needs two steps per phase, got %d steps",
				ErrInvalidROE, len(r.DwellTimes))
		}
		if r.NPumps < 1 {
			return fmt.Errorf("%w: trap pumping needs at least one pump, got %d", ErrInvalidROE, r.NPumps)
		}
	}
	return nil
}

// phaseStep says what one phase does during one clock step.
type phaseStep struct {
	// high phases hold a charge cloud and capture from it.
	high bool
	// captureFrom is the offset, in pixels, of the cloud under a high phase.
	captureFrom int
	// nRelease targets receive releaseFraction of a low phase's release.
	nRelease        int
	releaseTo       [2]int
	releaseFraction [2]float64
}

// clockStep is one step of the clock sequence.
type clockStep struct {
	dwell  float64
	phases []phaseStep
}

// highPosition returns where the charge clouds sit during step s, in phase
// units from phase 0 of their own pixel toward the readout. Trap pumping
// walks forward into the next pixel's phase 0 and back again.
func (r ROE) highPosition(s int) int {
	if r.Mode != ModeTrapPumping {
		return s
	}
	n := r.NPhases()
	if s <= n {
		return s
	}
	return 2*n - s
}

// clockSequence builds the per-step, per-phase roles.
//
// Phase i of pixel p sits at position i - p*n along the column, measured
// toward the readout; the cloud of pixel p+d sits at h - (p+d)*n during a
// step with high position h. A phase holding a cloud captures from it; any
// other phase releases into the nearest cloud, split evenly on a tie.
func (r ROE) clockSequence() []clockStep {
	n := r.NPhases()
	steps := make([]clockStep, r.NSteps())
	for s := range steps {
		h := r.highPosition(s)
		steps[s].dwell = r.DwellTimes[s]
		steps[s].phases = make([]phaseStep, n)
		for i := range n {
			ps := &steps[s].phases[i]
			if (h-i)%n == 0 {
				ps.high = true
				ps.captureFrom = (h - i) / n
				continue
			}

			best := math.MaxInt
			for _, d := range [...]int{0, 1, -1} {
				if d < 0 && r.ForceReleaseAwayFromReadout {
					continue
				}
				dist := h - d*n - i
				if dist < 0 {
					dist = -dist
				}
				switch {
				case dist < best:
					best = dist
					ps.nRelease = 1
					ps.releaseTo[0] = d
				case dist == best && ps.nRelease == 1:
					ps.nRelease = 2
					ps.releaseTo[1] = d
				}
			}
			for k := range ps.nRelease {
				ps.releaseFraction[k] = 1 / float64(ps.nRelease)
			}
		}
	}
	return steps
}
