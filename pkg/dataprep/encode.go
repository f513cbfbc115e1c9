package dataprep

import (
	"fmt"
	"sort"

	"github.com/go-gota/gota/series"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
)

// LabelEncoder maps categorical labels to dense integer codes. Classes are
// kept in sorted order so the same label set always gets the same codes.
type LabelEncoder struct {
	Classes []string
	index   map[string]int
}

// FitLabels learns the distinct labels of data.
func FitLabels(labels []string) *LabelEncoder {
	seen := map[string]struct{}{}
	for _, v := range labels {
		seen[v] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Strings(classes)
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return &LabelEncoder{Classes: classes, index: idx}
}

// Encode converts labels to codes. Unknown labels are an error.
func (e *LabelEncoder) Encode(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, v := range labels {
		c, ok := e.index[v]
		if !ok {
			return nil, fmt.Errorf("dataprep: unknown label %q", v)
		}
		out[i] = c
	}
	return out, nil
}

// Decode converts codes back to labels.
func (e *LabelEncoder) Decode(codes []int) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = e.Classes[c]
	}
	return out
}

// LabelEncode encodes categories as integers.
func LabelEncode(labels []string) ([]int, *LabelEncoder) {
	enc := FitLabels(labels)
	codes, _ := enc.Encode(labels)
	return codes, enc
}

// EncodeColumn replaces a String or Bool column with integer codes so it can
// be used as a feature.
func EncodeColumn(ds *data.Dataset, name string) (*data.Dataset, *LabelEncoder, error) {
	k, err := ds.Kind(name)
	if err != nil {
		return nil, nil, err
	}
	if k.Numeric() {
		return ds, nil, nil
	}
	labels, err := ds.Strings(name)
	if err != nil {
		return nil, nil, err
	}
	codes, enc := LabelEncode(labels)
	next, err := ds.WithFrame(ds.Frame().Mutate(series.New(codes, series.Int, name)))
	if err != nil {
		return nil, nil, err
	}
	return next, enc, nil
}

// OneHot expands a categorical column into one 0/1 Int column per class,
// named "<column>=<class>". The source column is dropped.
func OneHot(ds *data.Dataset, name string) (*data.Dataset, error) {
	labels, err := ds.Strings(name)
	if err != nil {
		return nil, err
	}
	enc := FitLabels(labels)
	df := ds.Frame()
	for _, class := range enc.Classes {
		col := make([]int, len(labels))
		for i, v := range labels {
			if v == class {
				col[i] = 1
			}
		}
		df = df.Mutate(series.New(col, series.Int, name+"="+class))
	}
	return ds.WithFrame(df.Drop(name))
}
