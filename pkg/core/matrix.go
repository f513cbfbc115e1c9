package core

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major matrix used to carry feature matrices between
// the loader and the fitting routines.
type Matrix struct {
	R, C int
	Data []float64
}

// NewMatrix allocates a zero matrix.
func NewMatrix(r, c int) *Matrix {
	return &Matrix{R: r, C: c, Data: make([]float64, r*c)}
}

// FromRows copies a nested slice into a Matrix. Every row must have the same
// length and there must be at least one row and one column.
func FromRows(a [][]float64) (*Matrix, error) {
	r := len(a)
	if r == 0 {
		return nil, errors.New("core: no rows")
	}
	c := len(a[0])
	if c == 0 {
		return nil, errors.New("core: no columns")
	}
	m := NewMatrix(r, c)
	for i, row := range a {
		if len(row) != c {
			return nil, fmt.Errorf("core: row %d has %d columns, want %d", i, len(row), c)
		}
		copy(m.Data[i*c:(i+1)*c], row)
	}
	return m, nil
}

// At returns element (i, j).
func (m *Matrix) At(i, j int) float64 { return m.Data[i*m.C+j] }

// Set sets element (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.Data[i*m.C+j] = v }

// Clone deep copies the matrix.
func (m *Matrix) Clone() *Matrix {
	n := &Matrix{R: m.R, C: m.C, Data: make([]float64, len(m.Data))}
	copy(n.Data, m.Data)
	return n
}

func (m *Matrix) Transpose() *Matrix {
	t := NewMatrix(m.C, m.R)
	for i := 0; i < m.R; i++ {
		for j := 0; j < m.C; j++ {
			t.Data[j*t.C+i] = m.Data[i*m.C+j]
		}
	}
	return t
}

// Row returns row i. The slice aliases the matrix storage.
func (m *Matrix) Row(i int) []float64 { return m.Data[i*m.C : (i+1)*m.C] }

// Col returns a copy of column j.
func (m *Matrix) Col(j int) []float64 {
	v := make([]float64, m.R)
	for i := 0; i < m.R; i++ {
		v[i] = m.Data[i*m.C+j]
	}
	return v
}

// AddConstant returns a copy with a leading column of ones, the intercept
// column of a linear design matrix.
func (m *Matrix) AddConstant() *Matrix {
	out := NewMatrix(m.R, m.C+1)
	for i := 0; i < m.R; i++ {
		out.Data[i*out.C] = 1
		copy(out.Data[i*out.C+1:(i+1)*out.C], m.Row(i))
	}
	return out
}

// SliceRows returns a copy of rows [lo, hi).
func (m *Matrix) SliceRows(lo, hi int) *Matrix {
	out := NewMatrix(hi-lo, m.C)
	copy(out.Data, m.Data[lo*m.C:hi*m.C])
	return out
}

// Dense converts to a gonum matrix sharing no storage with m.
func (m *Matrix) Dense() *mat.Dense {
	data := make([]float64, len(m.Data))
	copy(data, m.Data)
	return mat.NewDense(m.R, m.C, data)
}

// ToRows converts back to a nested slice.
func (m *Matrix) ToRows() [][]float64 {
	out := make([][]float64, m.R)
	for i := range out {
		row := make([]float64, m.C)
		copy(row, m.Row(i))
		out[i] = row
	}
	return out
}
