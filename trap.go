package arctic

import (
	"fmt"
	"math"
)

// TrapKind tags the trap-species variant. The kind decides both how fill
// probabilities are computed and which species may share a watermark set.
type TrapKind int

const (
	// InstantCapture traps capture every electron they are exposed to within
	// a single dwell; only release is time dependent.
	InstantCapture TrapKind = iota
	// SlowCapture traps capture and release at finite rates.
	SlowCapture
	// InstantCaptureContinuum traps capture instantly and release with a
	// log-normal distribution of timescales.
	InstantCaptureContinuum
	// SlowCaptureContinuum traps capture at a finite rate and release with a
	// log-normal distribution of timescales.
	SlowCaptureContinuum
)

var trapKindNames = [...]string{
	InstantCapture:          "instant_capture",
	SlowCapture:             "slow_capture",
	InstantCaptureContinuum: "instant_capture_continuum",
	SlowCaptureContinuum:    "slow_capture_continuum",
}

// String returns the snake_case kind name used in configuration files.
func (k TrapKind) String() string {
	if k < 0 || int(k) >= len(trapKindNames) {
		return fmt.Sprintf("TrapKind(%d)", int(k))
	}
	return trapKindNames[k]
}

// ParseTrapKind is the inverse of TrapKind.String.
func ParseTrapKind(s string) (TrapKind, error) {
	for k, name := range trapKindNames {
		if name == s {
			return TrapKind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidTrap, s)
}

// watermarkGroup is the static compatibility table: species with the same
// group share one watermark set. Occupancy-based and time-based storage can
// never mix, and instant and slow capture update watermarks differently.
var watermarkGroup = [...]int{
	InstantCapture:          0,
	SlowCapture:             1,
	InstantCaptureContinuum: 2,
	SlowCaptureContinuum:    3,
}

const nWatermarkGroups = 4

// Compatible reports whether traps of kinds a and b may share watermarks.
func Compatible(a, b TrapKind) bool {
	return watermarkGroup[a] == watermarkGroup[b]
}

// Trap is one trap species. Traps are immutable once constructed and may be
// shared between goroutines.
type Trap struct {
	Kind TrapKind
	// Density is the number of traps per pixel.
	Density float64
	// ReleaseTimescale is the e-folding release time, in the same units as
	// the ROE dwell times. For continuum traps it is the median timescale.
	ReleaseTimescale float64
	// CaptureTimescale is the e-folding capture time of slow-capture traps.
	CaptureTimescale float64
	// ReleaseTimescaleSigma is the width of the log-normal distribution of
	// release timescales, in natural-log units.
	ReleaseTimescaleSigma float64

	table *continuumTable
}

// NewInstantCaptureTrap returns an instant-capture trap species.
func NewInstantCaptureTrap(density, releaseTimescale float64) Trap {
	return Trap{Kind: InstantCapture, Density: density, ReleaseTimescale: releaseTimescale}
}

// NewSlowCaptureTrap returns a slow-capture trap species.
func NewSlowCaptureTrap(density, releaseTimescale, captureTimescale float64) Trap {
	return Trap{
		Kind:             SlowCapture,
		Density:          density,
		ReleaseTimescale: releaseTimescale,
		CaptureTimescale: captureTimescale,
	}
}

// NewInstantCaptureContinuumTrap returns an instant-capture species with a
// log-normal distribution of release timescales and builds its lookup table.
func NewInstantCaptureContinuumTrap(density, releaseTimescale, sigma float64) (Trap, error) {
	t := Trap{
		Kind:                  InstantCaptureContinuum,
		Density:               density,
		ReleaseTimescale:      releaseTimescale,
		ReleaseTimescaleSigma: sigma,
	}
	return t.Prepare()
}

// NewSlowCaptureContinuumTrap returns a slow-capture species with a
// log-normal distribution of release timescales and builds its lookup table.
func NewSlowCaptureContinuumTrap(density, releaseTimescale, sigma, captureTimescale float64) (Trap, error) {
	t := Trap{
		Kind:                  SlowCaptureContinuum,
		Density:               density,
		ReleaseTimescale:      releaseTimescale,
		CaptureTimescale:      captureTimescale,
		ReleaseTimescaleSigma: sigma,
	}
	return t.Prepare()
}

// Prepare validates t and, for continuum kinds, builds the time/fill table.
// Traps built from literals must be prepared before use; the driver does
// this for every species it is given.
func (t Trap) Prepare() (Trap, error) {
	if err := t.Validate(); err != nil {
		return Trap{}, err
	}
	if t.IsContinuum() && t.table == nil {
		t.table = continuumTableFor(t.ReleaseTimescale, t.ReleaseTimescaleSigma)
	}
	return t, nil
}

// Validate checks the species parameters for its kind.
func (t Trap) Validate() error {
	if t.Kind < 0 || int(t.Kind) >= len(trapKindNames) {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidTrap, int(t.Kind))
	}
	switch {
	case !(t.Density >= 0) || math.IsInf(t.Density, 0):
		return fmt.Errorf("%w: %s density %g", ErrInvalidTrap, t.Kind, t.Density)
	case !(t.ReleaseTimescale > 0) || math.IsInf(t.ReleaseTimescale, 0):
		return fmt.Errorf("%w: %s release timescale %g", ErrInvalidTrap, t.Kind, t.ReleaseTimescale)
	}
	if t.IsSlowCapture() && (!(t.CaptureTimescale > 0) || math.IsInf(t.CaptureTimescale, 0)) {
		return fmt.Errorf("%w: %s capture timescale %g", ErrInvalidTrap, t.Kind, t.CaptureTimescale)
	}
	if t.IsContinuum() && (!(t.ReleaseTimescaleSigma > 0) || math.IsInf(t.ReleaseTimescaleSigma, 0)) {
		return fmt.Errorf("%w: %s release timescale sigma %g", ErrInvalidTrap, t.Kind, t.ReleaseTimescaleSigma)
	}
	return nil
}

// IsContinuum reports whether t has a distribution of release timescales.
func (t Trap) IsContinuum() bool {
	return t.Kind == InstantCaptureContinuum || t.Kind == SlowCaptureContinuum
}

// IsSlowCapture reports whether t captures at a finite rate.
func (t Trap) IsSlowCapture() bool {
	return t.Kind == SlowCapture || t.Kind == SlowCaptureContinuum
}

// EmissionRate is the inverse of the (median) release timescale.
func (t Trap) EmissionRate() float64 {
	return 1 / t.ReleaseTimescale
}

// CaptureRate is the inverse of the capture timescale, or zero for
// instant capture, which stands for an infinite rate.
func (t Trap) CaptureRate() float64 {
	if !t.IsSlowCapture() {
		return 0
	}
	return 1 / t.CaptureTimescale
}

// FillProbabilities holds the outcome probabilities for one dwell.
type FillProbabilities struct {
	// FromEmpty is the fraction of empty traps that end the dwell full.
	FromEmpty float64
	// FromFull is the fraction of full traps that end the dwell full.
	FromFull float64
	// FromRelease is the fraction of full traps still full when only
	// release can happen (no charge cloud present).
	FromRelease float64
	// EmptyFromRelease is 1 - FromRelease.
	EmptyFromRelease float64
}

// FillProbabilities returns the fill probabilities after a dwell, following
// Lindegren (1998) eqs. 20-21. Continuum kinds use the median emission rate;
// their managers advance elapsed time through the lookup table instead.
func (t Trap) FillProbabilities(dwell float64) FillProbabilities {
	emission := t.EmissionRate()
	capture := t.CaptureRate()

	var p FillProbabilities
	p.FromRelease = math.Exp(-emission * dwell)
	p.EmptyFromRelease = 1 - p.FromRelease

	// Instant capture is the infinite capture-rate limit.
	if !t.IsSlowCapture() {
		p.FromEmpty = 1
		p.FromFull = 1
		return p
	}

	total := capture + emission
	factor := -math.Expm1(-total*dwell) / total
	p.FromEmpty = capture * factor
	p.FromFull = 1 - emission*factor
	return p
}

// FillFractionFromTime returns the fraction of initially full traps still
// full after time t with no charge present.
func (t Trap) FillFractionFromTime(elapsed float64) float64 {
	if t.table != nil {
		return t.table.fill(elapsed)
	}
	if math.IsInf(elapsed, 1) {
		return 0
	}
	return math.Exp(-elapsed * t.EmissionRate())
}

// TimeFromFillFraction inverts FillFractionFromTime: the release time after
// which a full set of these traps would have decayed to fill f.
func (t Trap) TimeFromFillFraction(f float64) float64 {
	if t.table != nil {
		return t.table.time(f)
	}
	switch {
	case f >= 1:
		return 0
	case f <= 0:
		return math.Inf(1)
	}
	return -math.Log(f) * t.ReleaseTimescale
}
