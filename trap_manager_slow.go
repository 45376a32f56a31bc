package arctic

// slowCaptureManager handles species that capture at a finite rate. Every
// dwell adds a watermark at the cloud volume; levels below it capture and
// release together while levels above it only release.
type slowCaptureManager struct {
	managerBase
	target []float64
}

func (m *slowCaptureManager) releaseAndCapture(step int, nFree float64) float64 {
	w := m.wm
	cloud := m.phase.CloudFractionalVolume(nFree)
	split := w.first + w.splitAt(cloud)

	released := m.releaseLevels(step, split)

	dwell := m.dwells[step]
	probs := m.probs[step]
	ns := w.nSpecies
	if need := (split - w.first) * ns; cap(m.target) < need {
		m.target = make([]float64, need)
	}
	target := m.target[:(split-w.first)*ns]

	var gained float64
	for i := w.first; i < split; i++ {
		var perVolume float64
		for j, v := range w.level(i) {
			f := m.model.fill(j, v)
			next := m.model.evolve(j, v, dwell, &probs[j])
			target[(i-w.first)*ns+j] = next
			perVolume += (next - f) * m.densities[j]
		}
		gained += w.volumes[i] * perVolume
	}

	enough := 1.0
	if available := nFree + released; gained > available {
		enough = available / gained
	}
	for i := w.first; i < split; i++ {
		row := w.level(i)
		for j, v := range row {
			f := m.model.fill(j, v)
			next := target[(i-w.first)*ns+j]
			row[j] = m.model.value(j, f+enough*(next-f))
		}
	}
	return released - enough*gained
}
