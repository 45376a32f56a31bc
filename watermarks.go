package arctic

// watermarks is the arena behind one trap manager: a stack of volume
// levels, lowest first, each holding one fill value per species.
//
// The active levels are [first, first+count). Volumes are fractions of the
// pixel and their sum never exceeds 1. Slots outside the active window hold
// stale data and are initialised before use.
type watermarks struct {
	nSpecies int
	// empty is the fill value of a level that holds no electrons.
	empty float64

	first   int
	count   int
	volumes []float64
	fills   []float64 // fills[i*nSpecies+j]

	saved struct {
		first   int
		count   int
		volumes []float64
		fills   []float64
	}
}

func newWatermarks(capacity, nSpecies int, empty float64) *watermarks {
	capacity = max(capacity, 2)
	w := &watermarks{
		nSpecies: nSpecies,
		empty:    empty,
		volumes:  make([]float64, capacity),
		fills:    make([]float64, capacity*nSpecies),
	}
	w.saved.volumes = make([]float64, capacity)
	w.saved.fills = make([]float64, capacity*nSpecies)
	return w
}

func (w *watermarks) capacity() int { return len(w.volumes) }

func (w *watermarks) top() int { return w.first + w.count }

// level returns the fills of level i.
func (w *watermarks) level(i int) []float64 {
	return w.fills[i*w.nSpecies : (i+1)*w.nSpecies]
}

// clearLevel makes slot i an empty level of zero volume.
func (w *watermarks) clearLevel(i int) {
	w.volumes[i] = 0
	for j := range w.level(i) {
		w.fills[i*w.nSpecies+j] = w.empty
	}
}

// reset empties every trap.
func (w *watermarks) reset() {
	w.first = 0
	w.count = 0
	w.clearLevel(0)
}

// store snapshots the active levels.
func (w *watermarks) store() {
	if len(w.saved.volumes) < len(w.volumes) {
		w.saved.volumes = make([]float64, len(w.volumes))
		w.saved.fills = make([]float64, len(w.fills))
	}
	w.saved.first = 0
	w.saved.count = w.count
	copy(w.saved.volumes, w.volumes[w.first:w.top()])
	copy(w.saved.fills, w.fills[w.first*w.nSpecies:w.top()*w.nSpecies])
}

// restore rewinds to the last snapshot.
func (w *watermarks) restore() {
	w.first = 0
	w.count = w.saved.count
	copy(w.volumes, w.saved.volumes[:w.count])
	copy(w.fills, w.saved.fills[:w.count*w.nSpecies])
}

// ensureRoom guarantees that extra more slots fit above the active window,
// moving the window down to slot 0 first and growing the arena only if that
// is not enough. Indices into the arena are invalidated.
func (w *watermarks) ensureRoom(extra int) {
	if w.top()+extra <= w.capacity() {
		return
	}
	if w.first > 0 {
		copy(w.volumes, w.volumes[w.first:w.top()])
		copy(w.fills, w.fills[w.first*w.nSpecies:w.top()*w.nSpecies])
		w.first = 0
		if w.count+extra <= w.capacity() {
			return
		}
	}
	capacity := max(2*w.capacity(), w.count+extra)
	volumes := make([]float64, capacity)
	fills := make([]float64, capacity*w.nSpecies)
	copy(volumes, w.volumes[:w.count])
	copy(fills, w.fills[:w.count*w.nSpecies])
	w.volumes = volumes
	w.fills = fills
}

// shiftUp moves levels [from, top) up by one slot. Slot from keeps a copy
// of its old contents.
func (w *watermarks) shiftUp(from int) {
	top := w.top()
	copy(w.volumes[from+1:top+1], w.volumes[from:top])
	copy(w.fills[(from+1)*w.nSpecies:(top+1)*w.nSpecies], w.fills[from*w.nSpecies:top*w.nSpecies])
}

// indexAbove returns the first level whose upper edge lies strictly above
// volume, or top() if volume reaches past every level.
func (w *watermarks) indexAbove(volume float64) int {
	var cum float64
	for i := w.first; i < w.top(); i++ {
		cum += w.volumes[i]
		if cum > volume {
			return i
		}
	}
	return w.top()
}

// volumeBelow returns the summed volume of levels [first, i).
func (w *watermarks) volumeBelow(i int) float64 {
	var sum float64
	for k := w.first; k < i; k++ {
		sum += w.volumes[k]
	}
	return sum
}

// splitAt makes volume a level boundary and returns the number of active
// levels at or below it. New space above the old top is an empty level.
func (w *watermarks) splitAt(volume float64) int {
	if volume <= 0 {
		return 0
	}
	w.ensureRoom(2)
	above := w.indexAbove(volume)
	below := w.volumeBelow(above)
	gap := volume - below
	if above == w.top() {
		if gap > 0 {
			w.clearLevel(above)
			w.volumes[above] = gap
			w.count++
		}
		return w.count
	}
	if gap > 0 {
		w.shiftUp(above)
		w.volumes[above] = gap
		w.volumes[above+1] -= gap
		w.count++
		return above + 1 - w.first
	}
	return above - w.first
}

// totalVolume returns the summed volume of the active levels.
func (w *watermarks) totalVolume() float64 {
	return w.volumeBelow(w.top())
}
