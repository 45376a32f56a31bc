package arctic

import (
	"errors"
	"testing"
)

func TestROE_Phases(t *testing.T) {
	tests := []struct {
		name       string
		roe        ROE
		wantPhases int
		wantSteps  int
	}{
		{"single phase", NewROE(1), 1, 1},
		{"three phase", NewROE(0.5, 0.25, 0.25), 3, 3},
		{"charge injection", NewChargeInjectionROE(1, 1), 2, 2},
		{"trap pumping", NewTrapPumpingROE(10, 1, 1, 1, 1, 1, 1), 3, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.roe.NPhases(); got != tt.wantPhases {
				t.Errorf("NPhases() = %d, want %d", got, tt.wantPhases)
			}
			if got := tt.roe.NSteps(); got != tt.wantSteps {
				t.Errorf("NSteps() = %d, want %d", got, tt.wantSteps)
			}
			if err := tt.roe.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestNewROE_Defaults(t *testing.T) {
	for name, roe := range map[string]ROE{
		"standard":         NewROE(1),
		"charge injection": NewChargeInjectionROE(1),
	} {
		if !roe.EmptyTrapsForFirstTransfers {
			t.Errorf("%s: EmptyTrapsForFirstTransfers = false, want true", name)
		}
		if !roe.EmptyTrapsBetweenColumns || !roe.ForceReleaseAwayFromReadout {
			t.Errorf("%s: unexpected defaults %+v", name, roe)
		}
	}
}

func TestROE_ValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		roe  ROE
	}{
		{"no dwell times", NewROE()},
		{"zero dwell", NewROE(1, 0)},
		{"negative dwell", NewROE(-1)},
		{"odd pumping steps", NewTrapPumpingROE(5, 1, 1, 1)},
		{"no pumps", NewTrapPumpingROE(0, 1, 1)},
		{"unknown mode", ROE{DwellTimes: []float64{1}, Mode: ROEMode(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.roe.Validate(); !errors.Is(err, ErrInvalidROE) {
				t.Errorf("Validate() = %v, want ErrInvalidROE", err)
			}
		})
	}
}

func TestParseROEMode(t *testing.T) {
	for _, m := range []ROEMode{ModeStandard, ModeChargeInjection, ModeTrapPumping} {
		got, err := ParseROEMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseROEMode(%q) = %v, %v; want %v", m.String(), got, err, m)
		}
	}
	if _, err := ParseROEMode("sideways"); !errors.Is(err, ErrInvalidROE) {
		t.Errorf("ParseROEMode(sideways) error = %v, want ErrInvalidROE", err)
	}
}

// =============================================================================
// Clock sequence
// =============================================================================

func TestClockSequence_SinglePhase(t *testing.T) {
	seq := NewROE(2).clockSequence()
	if len(seq) != 1 {
		t.Fatalf("len(seq) = %d, want 1", len(seq))
	}
	ph := seq[0].phases[0]
	if !ph.high || ph.captureFrom != 0 {
		t.Errorf("phase 0 = %+v, want high capturing from its own pixel", ph)
	}
	if seq[0].dwell != 2 {
		t.Errorf("dwell = %v, want 2", seq[0].dwell)
	}
}

func TestClockSequence_ThreePhase(t *testing.T) {
	type want struct {
		high     bool
		targets  []int
		fraction float64
	}
	tests := []struct {
		name  string
		force bool
		// want[step][phase]
		want [3][3]want
	}{
		{
			name:  "release away from readout",
			force: true,
			want: [3][3]want{
				{{high: true}, {targets: []int{0}, fraction: 1}, {targets: []int{0}, fraction: 1}},
				{{targets: []int{0}, fraction: 1}, {high: true}, {targets: []int{0}, fraction: 1}},
				{{targets: []int{1}, fraction: 1}, {targets: []int{0}, fraction: 1}, {high: true}},
			},
		},
		{
			name:  "nearest cloud",
			force: false,
			want: [3][3]want{
				{{high: true}, {targets: []int{0}, fraction: 1}, {targets: []int{-1}, fraction: 1}},
				{{targets: []int{0}, fraction: 1}, {high: true}, {targets: []int{0}, fraction: 1}},
				{{targets: []int{1}, fraction: 1}, {targets: []int{0}, fraction: 1}, {high: true}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roe := NewROE(1, 1, 1)
			roe.ForceReleaseAwayFromReadout = tt.force
			seq := roe.clockSequence()

			for s := range 3 {
				for p := range 3 {
					got := seq[s].phases[p]
					w := tt.want[s][p]
					if got.high != w.high {
						t.Errorf("step %d phase %d: high = %v, want %v", s, p, got.high, w.high)
						continue
					}
					if w.high {
						if got.captureFrom != 0 {
							t.Errorf("step %d phase %d: captureFrom = %d, want 0", s, p, got.captureFrom)
						}
						continue
					}
					if got.nRelease != len(w.targets) {
						t.Errorf("step %d phase %d: %d targets, want %v", s, p, got.nRelease, w.targets)
						continue
					}
					for k, d := range w.targets {
						if got.releaseTo[k] != d || got.releaseFraction[k] != w.fraction {
							t.Errorf("step %d phase %d target %d: (%d, %v), want (%d, %v)",
								s, p, k, got.releaseTo[k], got.releaseFraction[k], d, w.fraction)
						}
					}
				}
			}
		})
	}
}

func TestClockSequence_TwoPhaseTie(t *testing.T) {
	roe := NewROE(1, 1)
	roe.ForceReleaseAwayFromReadout = false
	ph := roe.clockSequence()[0].phases[1]

	// Phase 1 sits midway between its own cloud and the next pixel's.
	if ph.nRelease != 2 {
		t.Fatalf("nRelease = %d, want 2", ph.nRelease)
	}
	if ph.releaseTo != [2]int{0, -1} || ph.releaseFraction != [2]float64{0.5, 0.5} {
		t.Errorf("release = %v %v, want [0 -1] [0.5 0.5]", ph.releaseTo, ph.releaseFraction)
	}

	roe.ForceReleaseAwayFromReadout = true
	ph = roe.clockSequence()[0].phases[1]
	if ph.nRelease != 1 || ph.releaseTo[0] != 0 || ph.releaseFraction[0] != 1 {
		t.Errorf("forced release = %+v, want all to own pixel", ph)
	}
}

func TestClockSequence_TrapPumping(t *testing.T) {
	roe := NewTrapPumpingROE(1, 1, 1, 1, 1, 1, 1)
	seq := roe.clockSequence()

	wantHigh := []struct {
		phase, from int
	}{
		{0, 0}, {1, 0}, {2, 0}, {0, 1}, {2, 0}, {1, 0},
	}
	if len(seq) != len(wantHigh) {
		t.Fatalf("len(seq) = %d, want %d", len(seq), len(wantHigh))
	}
	for s, w := range wantHigh {
		for p, ph := range seq[s].phases {
			if ph.high != (p == w.phase) {
				t.Errorf("step %d phase %d: high = %v", s, p, ph.high)
			}
			if ph.high && ph.captureFrom != w.from {
				t.Errorf("step %d phase %d: captureFrom = %d, want %d", s, p, ph.captureFrom, w.from)
			}
		}
	}
}
