package arctic

import "fmt"

// trapManagerSet holds the managers of every phase, phase-major, each
// phase listing its watermark groups in a fixed order.
type trapManagerSet struct {
	phases [][]trapManager
}

// newTrapManagerSet groups traps by watermark group and builds one manager
// per group per phase. transfers bounds the clock sequences run between
// resets.
func newTrapManagerSet(traps []Trap, ccd CCD, roe ROE, transfers int) (*trapManagerSet, error) {
	var groups [nWatermarkGroups][]Trap
	for _, t := range traps {
		g := watermarkGroup[t.Kind]
		groups[g] = append(groups[g], t)
	}

	s := &trapManagerSet{phases: make([][]trapManager, ccd.NPhases())}
	for p := range s.phases {
		fraction := ccd.TrapFraction(p)
		if fraction == 0 {
			continue
		}
		for _, group := range groups {
			if len(group) == 0 {
				continue
			}
			m, err := newTrapManager(group, fraction, ccd.Phases[p], roe.DwellTimes, transfers)
			if err != nil {
				return nil, fmt.Errorf("arctic: phase %d: %w", p, err)
			}
			s.phases[p] = append(s.phases[p], m)
		}
	}
	return s, nil
}

// releaseAndCapture runs one dwell of phase p with nFree electrons present.
// Each group sees the electrons left after the groups before it, rather
// than every group seeing the same nFree, so species sharing a pixel
// cannot together capture more electrons than the pixel holds.
func (s *trapManagerSet) releaseAndCapture(p, step int, nFree float64) float64 {
	var net float64
	for _, m := range s.phases[p] {
		net += m.releaseAndCapture(step, max(nFree+net, 0))
	}
	return net
}

// release runs one dwell of phase p with no charge present.
func (s *trapManagerSet) release(p, step int) float64 {
	var released float64
	for _, m := range s.phases[p] {
		released += m.release(step)
	}
	return released
}

func (s *trapManagerSet) reset() {
	s.each(trapManager.reset)
}

func (s *trapManagerSet) store() {
	s.each(trapManager.store)
}

func (s *trapManagerSet) restore() {
	s.each(trapManager.restore)
}

func (s *trapManagerSet) trappedElectrons() float64 {
	var total float64
	for _, ms := range s.phases {
		for _, m := range ms {
			total += m.trappedElectrons()
		}
	}
	return total
}

func (s *trapManagerSet) each(fn func(trapManager)) {
	for _, ms := range s.phases {
		for _, m := range ms {
			fn(m)
		}
	}
}
