package arctic

// instantCaptureManager handles species that capture every electron they
// are exposed to within a single dwell.
//
// Capture overwrites the watermarks below the cloud with full traps, or
// blends them toward full when there are too few electrons to fill them.
type instantCaptureManager struct {
	managerBase
}

func (m *instantCaptureManager) releaseAndCapture(step int, nFree float64) float64 {
	released := m.release(step)
	captured := m.capture(nFree + released)
	return released - captured
}

// capture fills the traps exposed to a cloud of n electrons and returns
// the number captured, never more than n.
func (m *instantCaptureManager) capture(n float64) float64 {
	cloud := m.phase.CloudFractionalVolume(n)
	if cloud == 0 {
		return 0
	}

	w := m.wm
	w.ensureRoom(2)
	above := w.indexAbove(cloud)
	if above == w.top() {
		w.clearLevel(above)
	}

	// Electrons needed to fill every trap the cloud reaches.
	var needed, cum float64
	for i := w.first; i <= above; i++ {
		var free float64
		for j, v := range w.level(i) {
			free += (1 - m.model.fill(j, v)) * m.densities[j]
		}
		if i == above {
			needed += free * (cloud - cum)
		} else {
			needed += free * w.volumes[i]
			cum += w.volumes[i]
		}
	}
	if needed <= 0 {
		return 0
	}

	enough := n / needed
	if enough >= 1 {
		m.fullCapture(cloud, above)
		return needed
	}
	m.partialCapture(cloud, above, enough)
	return needed * enough
}

func (m *instantCaptureManager) setFull(i int) {
	row := m.wm.level(i)
	for j := range row {
		row[j] = m.model.value(j, 1)
	}
}

// blend moves level i a fraction enough of the way to full.
func (m *instantCaptureManager) blend(i int, enough float64) {
	row := m.wm.level(i)
	for j, v := range row {
		f := m.model.fill(j, v)
		row[j] = m.model.value(j, f*(1-enough)+enough)
	}
}

// fullCapture replaces every level below the cloud with one full level.
func (m *instantCaptureManager) fullCapture(cloud float64, above int) {
	w := m.wm
	switch top := w.top(); {
	case w.count == 0:
		w.volumes[w.first] = cloud
		w.count = 1

	case above == w.first:
		// Below every existing level: split the lowest.
		if w.first > 0 {
			w.first--
		} else {
			w.shiftUp(w.first)
		}
		w.count++
		w.volumes[w.first] = cloud
		w.volumes[w.first+1] -= cloud

	case above == top:
		// Above every existing level: one level replaces them all.
		w.first = top - 1
		w.count = 1
		w.volumes[w.first] = cloud

	default:
		// Between levels: merge those below into one, shrink the one cut.
		w.volumes[above] = w.volumeBelow(above+1) - cloud
		w.count = top - above + 1
		w.first = above - 1
		w.volumes[w.first] = cloud
	}
	m.setFull(w.first)
}

// partialCapture moves every level below the cloud a fraction enough of the
// way to full, splitting the level the cloud top falls in.
func (m *instantCaptureManager) partialCapture(cloud float64, above int, enough float64) {
	w := m.wm
	top := w.top()
	switch {
	case w.count == 0:
		w.clearLevel(w.first)
		w.volumes[w.first] = cloud
		w.count = 1
		m.blend(w.first, enough)

	case above == w.first:
		if w.first > 0 {
			w.first--
			copy(w.level(w.first), w.level(w.first+1))
		} else {
			w.shiftUp(w.first)
		}
		w.count++
		w.volumes[w.first] = cloud
		w.volumes[w.first+1] -= cloud
		m.blend(w.first, enough)

	case above == top:
		w.volumes[top] = cloud - w.volumeBelow(top)
		w.count++
		for i := w.first; i <= top; i++ {
			m.blend(i, enough)
		}

	default:
		below := w.volumeBelow(above)
		w.shiftUp(above)
		w.count++
		w.volumes[above] = cloud - below
		w.volumes[above+1] -= w.volumes[above]
		for i := w.first; i <= above; i++ {
			m.blend(i, enough)
		}
	}
}
