package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
)

func TestParseAllAndRun(t *testing.T) {
	ds, err := data.Read(strings.NewReader("a,b,c\n1,2,x\n,4,y\n3,6,x\n3,6,x\n"), "", data.DefaultOptions())
	require.NoError(t, err)

	p, err := ParseAll([]string{"dedupe", "impute=mean", "normalize=b", "encode=c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dedupe", "impute=mean", "normalize=b", "encode=c"}, p.Steps())

	out, err := p.Run(ds)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rows())
	a, _ := out.Float("a")
	assert.Equal(t, []float64{1, 2, 3}, a)
	b, _ := out.Float("b")
	assert.InDelta(t, 0, b[0]+b[1]+b[2], 1e-12)
	c, err := out.Float("c")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, c)
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{"impute=avg", "clip=5", "clip=a:b", "encode", "shuffle"} {
		_, err := Parse(text)
		assert.ErrorIs(t, err, data.ErrInput, text)
	}
}

func TestRunStopsAtFailingStep(t *testing.T) {
	ds, err := data.Read(strings.NewReader("a\n1\n2\n"), "", data.DefaultOptions())
	require.NoError(t, err)
	p, err := ParseAll([]string{"normalize=zzz"})
	require.NoError(t, err)
	_, err = p.Run(ds)
	require.Error(t, err)
	assert.ErrorIs(t, err, data.ErrInput)
	assert.Contains(t, err.Error(), "normalize=zzz")
}
