package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	m, err := FromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 3, m.R)
	assert.Equal(t, 2, m.C)
	assert.Equal(t, 4.0, m.At(1, 1))
	assert.Equal(t, []float64{2, 4, 6}, m.Col(1))

	m.Set(0, 0, 9)
	assert.Equal(t, []float64{9, 2}, m.Row(0))

	_, err = FromRows(nil)
	assert.Error(t, err)
	_, err = FromRows([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestAddConstantAndDense(t *testing.T) {
	m, err := FromRows([][]float64{{2}, {4}})
	require.NoError(t, err)

	d := m.AddConstant()
	assert.Equal(t, [][]float64{{1, 2}, {1, 4}}, d.ToRows())

	g := d.Dense()
	r, c := g.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 4.0, g.At(1, 1))

	g.Set(0, 0, 7)
	assert.Equal(t, 1.0, d.At(0, 0), "Dense copies storage")
}

func TestTransposeAndSlice(t *testing.T) {
	m, err := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	tr := m.Transpose()
	assert.Equal(t, [][]float64{{1, 4}, {2, 5}, {3, 6}}, tr.ToRows())

	s := tr.SliceRows(1, 3)
	assert.Equal(t, [][]float64{{2, 5}, {3, 6}}, s.ToRows())

	c := m.Clone()
	c.Set(0, 0, 0)
	assert.Equal(t, 1.0, m.At(0, 0))
}
