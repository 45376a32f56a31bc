package arctic

import (
	"fmt"
	"math"

	"github.com/ctitools/arctic/internal/cache"
)

// multiplierTolerance absorbs rounding residue in x - e*m so that passes
// which should be empty are dropped.
const multiplierTolerance = 1e-10

// ExpressMatrix holds, for every express pass and row, the number of
// transfers a single simulated transfer stands for. Column sums equal the
// number of transfers each row really undergoes.
//
// An ExpressMatrix is immutable and may be shared between goroutines.
type ExpressMatrix struct {
	passes int
	rows   int

	multipliers []float64
	// store marks the row after which trap states are saved so the next
	// pass can resume from them.
	store []bool

	rowStart []int
	rowStop  []int
}

// NewExpressMatrix builds the express matrix for an image of nRows rows.
//
// express is the number of passes used to approximate the transfers (0 or
// more than the number of transfers means one pass per transfer). offset
// adds transfers between the image and the readout. The last overscan
// rows lie beyond the physical device and get no more transfers than the
// last physical row.
func NewExpressMatrix(roe ROE, nRows, express, offset, overscan int) (*ExpressMatrix, error) {
	if err := roe.Validate(); err != nil {
		return nil, err
	}
	switch {
	case nRows < 1:
		return nil, fmt.Errorf("arctic: express matrix: %d rows: %w", nRows, ErrInvalidWindow)
	case offset < 0:
		return nil, fmt.Errorf("arctic: express matrix: offset %d: %w", offset, ErrInvalidWindow)
	case overscan < 0 || overscan >= nRows:
		return nil, fmt.Errorf("arctic: express matrix: overscan %d of %d rows: %w",
			overscan, nRows, ErrInvalidWindow)
	}

	transfers := make([]float64, nRows)
	var maxTransfers int
	switch roe.Mode {
	case ModeTrapPumping:
		maxTransfers = roe.NPumps
		for j := range transfers {
			transfers[j] = float64(roe.NPumps)
		}
	case ModeChargeInjection:
		maxTransfers = nRows - overscan + offset
		for j := range transfers {
			transfers[j] = float64(maxTransfers)
		}
	default:
		maxTransfers = nRows - overscan + offset
		for j := range transfers {
			transfers[j] = float64(min(j+1+offset, maxTransfers))
		}
	}

	if express <= 0 || express > maxTransfers {
		express = maxTransfers
	}
	firstTransfers := roe.EmptyTrapsForFirstTransfers &&
		roe.Mode != ModeTrapPumping && express < maxTransfers
	if firstTransfers {
		maxTransfers--
		for j := range transfers {
			transfers[j]--
		}
	}

	step := float64(maxTransfers) / float64(express)
	if roe.UseIntegerExpressMatrix {
		step = math.Ceil(step)
	}

	m := &ExpressMatrix{rows: nRows}
	if firstTransfers {
		for j := range nRows {
			pass := make([]float64, nRows)
			pass[j] = 1
			m.appendPass(pass)
		}
	}
	for e := range express {
		pass := make([]float64, nRows)
		for j, x := range transfers {
			v := clamp(x-float64(e)*step, 0, step)
			if v < multiplierTolerance {
				v = 0
			}
			pass[j] = v
		}
		m.appendPass(pass)
	}

	m.store = make([]bool, len(m.multipliers))
	// Stored states only matter when passes stand in for several transfers.
	if !roe.EmptyTrapsForFirstTransfers && roe.Mode == ModeStandard && express < maxTransfers {
		for e := 0; e+1 < m.passes; e++ {
			if k := m.rowStart[e+1] - 1; k >= 0 {
				m.store[e*nRows+k] = true
				m.rowStart[e] = min(m.rowStart[e], k)
				m.rowStop[e] = max(m.rowStop[e], k+1)
			}
		}
	}
	return m, nil
}

// appendPass adds a pass unless every multiplier in it is zero.
func (m *ExpressMatrix) appendPass(pass []float64) {
	start, stop := -1, -1
	for j, v := range pass {
		if v > 0 {
			if start < 0 {
				start = j
			}
			stop = j + 1
		}
	}
	if start < 0 {
		return
	}
	m.multipliers = append(m.multipliers, pass...)
	m.rowStart = append(m.rowStart, start)
	m.rowStop = append(m.rowStop, stop)
	m.passes++
}

// Passes returns the number of express passes.
func (m *ExpressMatrix) Passes() int { return m.passes }

// Rows returns the number of image rows the matrix covers.
func (m *ExpressMatrix) Rows() int { return m.rows }

// Multiplier returns the multiplier for one pass and row.
func (m *ExpressMatrix) Multiplier(pass, row int) float64 {
	return m.multipliers[pass*m.rows+row]
}

// StoreTrapStates reports whether trap states are saved after row in pass.
func (m *ExpressMatrix) StoreTrapStates(pass, row int) bool {
	return m.store[pass*m.rows+row]
}

// Transfers returns the total number of transfers modelled for row.
func (m *ExpressMatrix) Transfers(row int) float64 {
	var sum float64
	for e := range m.passes {
		sum += m.multipliers[e*m.rows+row]
	}
	return sum
}

// rowRange returns the rows a pass needs to visit.
func (m *ExpressMatrix) rowRange(pass int) (start, stop int) {
	return m.rowStart[pass], m.rowStop[pass]
}

// ToRows returns a copy of the multipliers as one slice per pass.
func (m *ExpressMatrix) ToRows() [][]float64 {
	out := make([][]float64, m.passes)
	for e := range out {
		out[e] = append([]float64(nil), m.multipliers[e*m.rows:(e+1)*m.rows]...)
	}
	return out
}

type expressKey struct {
	mode           ROEMode
	firstTransfers bool
	integer        bool
	nPumps         int
	rows           int
	express        int
	offset         int
	overscan       int
}

var expressCache = cache.New[expressKey, *ExpressMatrix](64)

// expressMatrixFor returns a memoised express matrix for the geometry.
func expressMatrixFor(roe ROE, nRows, express, offset, overscan int) (*ExpressMatrix, error) {
	key := expressKey{
		mode:           roe.Mode,
		firstTransfers: roe.EmptyTrapsForFirstTransfers,
		integer:        roe.UseIntegerExpressMatrix,
		nPumps:         roe.NPumps,
		rows:           nRows,
		express:        express,
		offset:         offset,
		overscan:       overscan,
	}
	return expressCache.GetOrCreate(key, func() (*ExpressMatrix, error) {
		return NewExpressMatrix(roe, nRows, express, offset, overscan)
	})
}
