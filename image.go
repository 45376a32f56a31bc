package arctic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Image is a row-major grid of charge values, in electrons.
//
// Row 0 is the row nearest the serial register, so it is read out first in
// parallel clocking; column 0 is read out first in serial clocking.
//
// Image is not safe for concurrent writes to the same column.
type Image struct {
	data []float64
	rows int
	cols int
}

// NewImage creates a zero-filled image.
func NewImage(rows, cols int) (*Image, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("arctic: new image %dx%d: %w", rows, cols, ErrEmptyImage)
	}
	return &Image{
		data: make([]float64, rows*cols),
		rows: rows,
		cols: cols,
	}, nil
}

// NewImageFromRows copies a slice of equal-length rows into a new image.
func NewImageFromRows(rows [][]float64) (*Image, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyImage
	}
	img, err := NewImage(len(rows), len(rows[0]))
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != img.cols {
			return nil, fmt.Errorf("arctic: row %d has %d columns, want %d: %w",
				i, len(row), img.cols, ErrEmptyImage)
		}
		copy(img.data[i*img.cols:], row)
	}
	return img, nil
}

// MustImage is like NewImageFromRows but panics on malformed input.
// Intended for literals in tests and examples.
func MustImage(rows [][]float64) *Image {
	img, err := NewImageFromRows(rows)
	if err != nil {
		panic(err)
	}
	return img
}

// Rows returns the number of rows.
func (m *Image) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Image) Cols() int { return m.cols }

// At returns the value at (row, col).
func (m *Image) At(row, col int) float64 {
	return m.data[row*m.cols+col]
}

// Set stores v at (row, col).
func (m *Image) Set(row, col int, v float64) {
	m.data[row*m.cols+col] = v
}

// Row returns row i as a slice sharing the image storage.
func (m *Image) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// Data returns the underlying row-major storage.
func (m *Image) Data() []float64 { return m.data }

// ToRows copies the image into a fresh slice of rows.
func (m *Image) ToRows() [][]float64 {
	out := make([][]float64, m.rows)
	for i := range out {
		out[i] = append([]float64(nil), m.Row(i)...)
	}
	return out
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	return &Image{
		data: append([]float64(nil), m.data...),
		rows: m.rows,
		cols: m.cols,
	}
}

// Transpose returns a new image with rows and columns swapped.
func (m *Image) Transpose() *Image {
	t := &Image{
		data: make([]float64, len(m.data)),
		rows: m.cols,
		cols: m.rows,
	}
	for i := range m.rows {
		row := m.Row(i)
		for j, v := range row {
			t.data[j*t.cols+i] = v
		}
	}
	return t
}

// Sum returns the total charge in the image.
func (m *Image) Sum() float64 {
	return floats.Sum(m.data)
}

// SameShape reports whether o has the same dimensions as m.
func (m *Image) SameShape(o *Image) bool {
	return o != nil && m.rows == o.rows && m.cols == o.cols
}

// MaxAbsDiff returns the largest absolute element difference between two
// images of the same shape.
func (m *Image) MaxAbsDiff(o *Image) float64 {
	return floats.Distance(m.data, o.data, math.Inf(1))
}
