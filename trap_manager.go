package arctic

import (
	"fmt"
	"math"
)

// trapManager tracks the occupancy of one watermark group of trap species
// in one phase of a pixel.
type trapManager interface {
	// release empties traps for one dwell without a charge cloud present
	// and returns the number of electrons freed.
	release(step int) float64
	// releaseAndCapture runs one dwell with nFree electrons in the pixel and
	// returns the net number of electrons returned to it (negative when
	// more are captured than released).
	releaseAndCapture(step int, nFree float64) float64

	reset()
	store()
	restore()

	// trappedElectrons returns the number of electrons currently held.
	trappedElectrons() float64
}

// fillModel converts between the value stored in a watermark and the
// fraction of traps that are full.
type fillModel interface {
	fill(j int, v float64) float64
	value(j int, f float64) float64
	// empty is the stored value of an empty level.
	empty() float64
	// decay advances v through a dwell with no cloud present and returns
	// the new value and the fraction of traps that released.
	decay(j int, v, dwell float64, p *FillProbabilities) (next, released float64)
	// evolve returns the fill after a dwell spent under a slow-capture
	// cloud.
	evolve(j int, v, dwell float64, p *FillProbabilities) float64
}

// occupancy stores the fill fraction directly.
type occupancy struct{}

func (occupancy) fill(_ int, v float64) float64  { return v }
func (occupancy) value(_ int, f float64) float64 { return f }
func (occupancy) empty() float64                 { return 0 }

func (occupancy) decay(_ int, v, _ float64, p *FillProbabilities) (float64, float64) {
	released := v * p.EmptyFromRelease
	return v - released, released
}

func (occupancy) evolve(_ int, v, _ float64, p *FillProbabilities) float64 {
	return v*p.FromFull + (1-v)*p.FromEmpty
}

// elapsedTime stores the time since the traps were last full, which lets
// a continuum of release timescales decay correctly.
type elapsedTime struct {
	traps []Trap
}

func (m elapsedTime) fill(j int, v float64) float64  { return m.traps[j].FillFractionFromTime(v) }
func (m elapsedTime) value(j int, f float64) float64 { return m.traps[j].TimeFromFillFraction(f) }
func (elapsedTime) empty() float64                   { return math.Inf(1) }

func (m elapsedTime) decay(j int, v, dwell float64, _ *FillProbabilities) (float64, float64) {
	next := v + dwell
	return next, m.fill(j, v) - m.fill(j, next)
}

func (m elapsedTime) evolve(j int, v, dwell float64, p *FillProbabilities) float64 {
	surviving := m.fill(j, v+dwell)
	return surviving + (1-surviving)*p.FromEmpty
}

// managerBase holds the state shared by every manager kind.
type managerBase struct {
	phase     CCDPhase
	densities []float64
	dwells    []float64
	probs     [][]FillProbabilities // [step][species]
	model     fillModel
	wm        *watermarks
}

// newTrapManager builds the manager for traps, which must all belong to
// the same watermark group. fraction scales the densities to the share of
// traps in this phase; transfers bounds how many clock sequences run
// between resets and sizes the watermark arena.
func newTrapManager(traps []Trap, fraction float64, phase CCDPhase, dwells []float64, transfers int) (trapManager, error) {
	if len(traps) == 0 {
		return nil, fmt.Errorf("arctic: trap manager: no traps: %w", ErrIncompatibleTraps)
	}
	kind := traps[0].Kind
	for _, t := range traps[1:] {
		if !Compatible(kind, t.Kind) {
			return nil, fmt.Errorf("arctic: trap manager: %s with %s: %w", kind, t.Kind, ErrIncompatibleTraps)
		}
	}

	b := managerBase{
		phase:     phase,
		densities: make([]float64, len(traps)),
		dwells:    dwells,
		probs:     make([][]FillProbabilities, len(dwells)),
	}
	for j, t := range traps {
		b.densities[j] = t.Density * fraction
	}
	for s, d := range dwells {
		b.probs[s] = make([]FillProbabilities, len(traps))
		for j, t := range traps {
			b.probs[s][j] = t.FillProbabilities(d)
		}
	}
	if traps[0].IsContinuum() {
		b.model = elapsedTime{traps: traps}
	} else {
		b.model = occupancy{}
	}

	perStep := 1
	if traps[0].IsSlowCapture() {
		perStep = 2
	}
	b.wm = newWatermarks(transfers*len(dwells)*perStep+1, len(traps), b.model.empty())

	if traps[0].IsSlowCapture() {
		return &slowCaptureManager{managerBase: b}, nil
	}
	return &instantCaptureManager{managerBase: b}, nil
}

func (b *managerBase) reset()   { b.wm.reset() }
func (b *managerBase) store()   { b.wm.store() }
func (b *managerBase) restore() { b.wm.restore() }

func (b *managerBase) trappedElectrons() float64 {
	w := b.wm
	var total float64
	for i := w.first; i < w.top(); i++ {
		var perVolume float64
		for j, v := range w.level(i) {
			perVolume += b.model.fill(j, v) * b.densities[j]
		}
		total += w.volumes[i] * perVolume
	}
	return total
}

// releaseLevels decays levels [from, top) and returns the electrons freed.
func (b *managerBase) releaseLevels(step, from int) float64 {
	w := b.wm
	dwell := b.dwells[step]
	probs := b.probs[step]
	var released float64
	for i := from; i < w.top(); i++ {
		var perVolume float64
		row := w.level(i)
		for j, v := range row {
			next, frac := b.model.decay(j, v, dwell, &probs[j])
			row[j] = next
			perVolume += frac * b.densities[j]
		}
		released += w.volumes[i] * perVolume
	}
	return released
}

func (b *managerBase) release(step int) float64 {
	return b.releaseLevels(step, b.wm.first)
}
