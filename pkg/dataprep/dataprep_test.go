package dataprep

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
)

const csv = `a,b,c
1,10.0,x
2,,y
,30.0,x
4,40.0,
4,40.0,
`

func load(t *testing.T) *data.Dataset {
	t.Helper()
	ds, err := data.Read(strings.NewReader(csv), "", data.DefaultOptions())
	require.NoError(t, err)
	return ds
}

func TestLabelEncoder(t *testing.T) {
	codes, enc := LabelEncode([]string{"b", "a", "c", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, enc.Classes)
	assert.Equal(t, []int{1, 0, 2, 0}, codes)
	assert.Equal(t, []string{"b", "a"}, enc.Decode([]int{1, 0}))

	_, err := enc.Encode([]string{"z"})
	assert.Error(t, err)
}

func TestHandleMissing_Mean(t *testing.T) {
	ds := load(t)
	out, err := HandleMissing(ds, Mean)
	require.NoError(t, err)

	a, err := out.Float("a")
	require.NoError(t, err)
	assert.InDelta(t, 11.0/4, a[2], 1e-12)
	k, _ := out.Kind("a")
	assert.Equal(t, data.KindFloat, k)

	b, _ := out.Float("b")
	assert.InDelta(t, 30.0, b[1], 1e-12)

	c, _ := out.Column("c")
	assert.True(t, c.IsNaN()[3], "mean leaves string columns alone")

	orig, _ := ds.Float("a")
	assert.True(t, math.IsNaN(orig[2]), "source dataset is unchanged")
}

func TestHandleMissing_MedianAndMode(t *testing.T) {
	ds := load(t)
	med, err := HandleMissing(ds, Median)
	require.NoError(t, err)
	b, _ := med.Float("b")
	assert.InDelta(t, 35.0, b[1], 1e-12)

	mode, err := HandleMissing(ds, Mode)
	require.NoError(t, err)
	a, _ := mode.Float("a")
	assert.Equal(t, 4.0, a[2])
	k, _ := mode.Kind("a")
	assert.Equal(t, data.KindInt, k)
	c, _ := mode.Strings("c")
	assert.Equal(t, "x", c[3])

	_, err = HandleMissing(ds, Strategy("nope"))
	assert.ErrorIs(t, err, data.ErrInput)
}

func TestNormalize(t *testing.T) {
	ds, err := data.Read(strings.NewReader("x,y\n1,5\n2,5\n3,5\n"), "", data.DefaultOptions())
	require.NoError(t, err)
	out, sc, err := Normalize(ds, nil)
	require.NoError(t, err)
	x, _ := out.Float("x")
	assert.InDelta(t, 0, x[1], 1e-12)
	assert.InDelta(t, -x[0], x[2], 1e-12)
	y, _ := out.Float("y")
	assert.Equal(t, []float64{0, 0, 0}, y)
	assert.InDelta(t, 2.0, sc.Mean[0], 1e-12)

	_, _, err = Normalize(ds, []string{"missing"})
	assert.ErrorIs(t, err, data.ErrInput)
}

func TestClip(t *testing.T) {
	ds, err := data.Read(strings.NewReader("x\n1\n2\n3\n4\n100\n"), "", data.DefaultOptions())
	require.NoError(t, err)
	out, err := Clip(ds, []string{"x"}, 0, 75)
	require.NoError(t, err)
	x, _ := out.Float("x")
	assert.Equal(t, []float64{1, 2, 3, 4, 4}, x)

	_, err = Clip(ds, nil, 90, 10)
	assert.ErrorIs(t, err, data.ErrInput)
}

func TestDropMissingAndDuplicates(t *testing.T) {
	ds := load(t)
	out, err := DropMissing(ds, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rows())

	all, err := DropMissing(ds, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, all.Rows())

	dedup, err := DropDuplicates(ds)
	require.NoError(t, err)
	assert.Equal(t, 4, dedup.Rows())
}

func TestEncodeColumnAndOneHot(t *testing.T) {
	ds, err := data.Read(strings.NewReader("x,c\n1,red\n2,blue\n3,red\n"), "", data.DefaultOptions())
	require.NoError(t, err)

	enc, le, err := EncodeColumn(ds, "c")
	require.NoError(t, err)
	c, err := enc.Float("c")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 1}, c)
	assert.Equal(t, []string{"blue", "red"}, le.Classes)

	oh, err := OneHot(ds, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "c=blue", "c=red"}, oh.Columns())
	red, _ := oh.Float("c=red")
	assert.Equal(t, []float64{1, 0, 1}, red)
}
