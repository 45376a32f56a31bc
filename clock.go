package arctic

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ctitools/arctic/internal/parallel"
)

// ClockConfig describes how charge is clocked along one direction.
//
// Rows run along the clocking direction, with row 0 nearest the readout.
// For serial clocking the image is transposed first, so "rows" are the
// image's columns.
type ClockConfig struct {
	CCD   CCD
	ROE   ROE
	Traps []Trap

	// Express is the number of passes used to approximate the transfers.
	// Zero, or more than the number of transfers, runs every transfer.
	Express int
	// Offset adds transfers between row 0 and the readout, for images that
	// are cut-outs of a larger device.
	Offset int

	// WindowStart and WindowStop limit which rows are written back.
	// Rows below WindowStart are still clocked because their trails reach
	// into the window. A WindowStop of zero means the last row.
	WindowStart int
	WindowStop  int
	// ColumnStart and ColumnStop limit which columns are clocked.
	// A ColumnStop of zero means the last column.
	ColumnStart int
	ColumnStop  int

	// Overscan is the number of trailing rows that lie beyond the physical
	// device. They undergo no more transfers than the last physical row.
	Overscan int
}

// clocker is a ClockConfig validated against an image shape.
type clocker struct {
	roe     ROE
	ccd     CCD
	traps   []Trap
	seq     []clockStep
	express *ExpressMatrix

	rows, cols        int
	rowStart, rowStop int
	colStart, colStop int
	// transfers bounds the clock sequences between trap restores.
	transfers int
}

// prepare validates c for an image of rows by cols and builds everything
// the clocking loop needs.
func (c *ClockConfig) prepare(rows, cols int) (*clocker, error) {
	if err := c.CCD.Validate(); err != nil {
		return nil, err
	}
	if err := c.ROE.Validate(); err != nil {
		return nil, err
	}
	if c.CCD.NPhases() != c.ROE.NPhases() {
		return nil, fmt.Errorf("arctic: %d CCD phases, %d ROE phases: %w",
			c.CCD.NPhases(), c.ROE.NPhases(), ErrPhaseMismatch)
	}

	k := &clocker{
		roe:   c.ROE,
		ccd:   c.CCD,
		seq:   c.ROE.clockSequence(),
		rows:  rows,
		cols:  cols,
		traps: make([]Trap, len(c.Traps)),
	}
	for i, t := range c.Traps {
		p, err := t.Prepare()
		if err != nil {
			return nil, fmt.Errorf("arctic: trap %d: %w", i, err)
		}
		k.traps[i] = p
	}

	var err error
	if k.rowStart, k.rowStop, err = window("rows", c.WindowStart, c.WindowStop, rows); err != nil {
		return nil, err
	}
	if k.colStart, k.colStop, err = window("columns", c.ColumnStart, c.ColumnStop, cols); err != nil {
		return nil, err
	}
	if c.Offset < 0 {
		return nil, fmt.Errorf("arctic: offset %d: %w", c.Offset, ErrInvalidWindow)
	}
	if c.Overscan < 0 || c.Overscan >= rows {
		return nil, fmt.Errorf("arctic: overscan %d of %d rows: %w", c.Overscan, rows, ErrInvalidWindow)
	}

	k.express, err = expressMatrixFor(c.ROE, rows, c.Express, c.Offset, c.Overscan)
	if err != nil {
		return nil, err
	}
	k.transfers = rows
	if c.ROE.Mode == ModeTrapPumping {
		k.transfers = k.express.Passes()
	}

	// Surface grouping errors now rather than inside a worker.
	if _, err := k.newWorker(); err != nil {
		return nil, err
	}
	return k, nil
}

// window resolves a [start, stop) range against n, where stop <= 0 means n.
func window(name string, start, stop, n int) (int, int, error) {
	if stop <= 0 {
		stop = n
	}
	if start < 0 || start >= stop || stop > n {
		return 0, 0, fmt.Errorf("arctic: %s window [%d, %d) of %d: %w", name, start, stop, n, ErrInvalidWindow)
	}
	return start, stop, nil
}

// run clocks every selected column of img in place and returns the number
// of trap-manager updates made.
func (k *clocker) run(img *Image, pool *parallel.Pool) (int64, error) {
	nCols := k.colStop - k.colStart
	if !k.roe.EmptyTrapsBetweenColumns || pool == nil || pool.Workers() == 1 || nCols == 1 {
		w, err := k.newWorker()
		if err != nil {
			return 0, err
		}
		for col := k.colStart; col < k.colStop; col++ {
			w.clockColumn(img, col)
		}
		return w.transfers, nil
	}

	var (
		total    atomic.Int64
		mu       sync.Mutex
		firstErr error
	)
	pool.ForEachRange(nCols, func(lo, hi int) {
		w, err := k.newWorker()
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			return
		}
		for col := k.colStart + lo; col < k.colStart+hi; col++ {
			w.clockColumn(img, col)
		}
		total.Add(w.transfers)
	})
	return total.Load(), firstErr
}

// columnWorker clocks columns one at a time with its own trap state.
type columnWorker struct {
	k         *clocker
	set       *trapManagerSet
	buf       []float64
	transfers int64
}

func (k *clocker) newWorker() (*columnWorker, error) {
	set, err := newTrapManagerSet(k.traps, k.ccd, k.roe, k.transfers)
	if err != nil {
		return nil, err
	}
	return &columnWorker{k: k, set: set, buf: make([]float64, k.rows)}, nil
}

func (w *columnWorker) clockColumn(img *Image, col int) {
	k := w.k
	for r := range w.buf {
		w.buf[r] = img.data[r*img.cols+col]
	}

	if k.roe.Mode == ModeTrapPumping {
		w.pump()
	} else {
		w.readout()
	}

	if k.roe.EmptyTrapsBetweenColumns {
		w.set.reset()
	}
	w.set.store()

	for r := k.rowStart; r < k.rowStop; r++ {
		img.data[r*img.cols+col] = w.buf[r]
	}
}

// readout runs every express pass over the column. Each pass starts from
// the trap states stored by the previous one, or at the column start.
//
// Without forced release away from readout, clocking the row just past the
// window can release electrons into its last row, so that row is clocked
// too and only discarded at write-back.
func (w *columnWorker) readout() {
	em := w.k.express
	stop := w.k.rowStop
	if !w.k.roe.ForceReleaseAwayFromReadout {
		stop = min(stop+1, w.k.rows)
	}
	for pass := range em.Passes() {
		w.set.restore()
		lo, hi := em.rowRange(pass)
		hi = min(hi, stop)
		for row := lo; row < hi; row++ {
			if m := em.Multiplier(pass, row); m > 0 {
				w.transfer(row, m)
			}
			if em.StoreTrapStates(pass, row) {
				w.set.store()
			}
		}
	}
}

// pump clocks each pixel back and forth over its own traps, which start
// every pixel in the state stored at the column start.
func (w *columnWorker) pump() {
	em := w.k.express
	for row := w.k.rowStart; row < w.k.rowStop; row++ {
		w.set.restore()
		for pass := range em.Passes() {
			if m := em.Multiplier(pass, row); m > 0 {
				w.transfer(row, m)
			}
		}
	}
}

// transfer runs one clock sequence over the traps under row, scaling the
// resulting charge movements by mult.
func (w *columnWorker) transfer(row int, mult float64) {
	buf := w.buf
	last := len(buf) - 1
	for s := range w.k.seq {
		step := &w.k.seq[s]
		for p := range step.phases {
			ph := &step.phases[p]
			if ph.high {
				src := row + ph.captureFrom
				var free float64
				if src >= 0 && src <= last {
					free = max(buf[src], 0)
				}
				net := w.set.releaseAndCapture(p, s, free)
				buf[clampIndex(src, last)] += net * mult
				continue
			}

			released := w.set.release(p, s)
			if released == 0 {
				continue
			}
			for t := range ph.nRelease {
				buf[clampIndex(row+ph.releaseTo[t], last)] += released * ph.releaseFraction[t] * mult
			}
		}
		w.transfers += int64(len(step.phases))
	}
}

func clampIndex(i, last int) int {
	return min(max(i, 0), last)
}

// clockImage clocks img in place along one direction and reports it.
func clockImage(img *Image, k *clocker, dir Direction, pool *parallel.Pool, o *options, log *slog.Logger) error {
	log.Debug("arctic: express matrix",
		"direction", dir,
		"passes", k.express.Passes(),
		"rows", k.express.Rows(),
		"mode", k.roe.Mode,
		"cached_matrices", expressCache.Stats().Len,
	)

	start := time.Now()
	transfers, err := k.run(img, pool)
	if err != nil {
		return fmt.Errorf("arctic: %s clocking: %w", dir, err)
	}
	stats := ClockingStats{
		Direction:     dir,
		Rows:          k.rowStop - k.rowStart,
		Columns:       k.colStop - k.colStart,
		ExpressPasses: k.express.Passes(),
		Transfers:     transfers,
		Duration:      time.Since(start),
	}

	log.Info("arctic: clocked",
		"direction", dir,
		"rows", stats.Rows,
		"columns", stats.Columns,
		"express_passes", stats.ExpressPasses,
		"transfers", stats.Transfers,
		"duration", stats.Duration,
	)
	if o.recorder != nil {
		o.recorder.RecordClocking(stats)
	}
	return nil
}
