package dataprep

import (
	"fmt"
	"strings"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
)

// DropMissing removes rows that have a missing cell in any of cols. An empty
// cols list checks every column.
func DropMissing(ds *data.Dataset, cols []string) (*data.Dataset, error) {
	if len(cols) == 0 {
		cols = ds.Columns()
	}
	df := ds.Frame()
	keep := make([]bool, ds.Rows())
	for i := range keep {
		keep[i] = true
	}
	for _, name := range cols {
		if _, err := ds.Kind(name); err != nil {
			return nil, err
		}
		for i, m := range df.Col(name).IsNaN() {
			if m {
				keep[i] = false
			}
		}
	}
	idx := indexes(keep)
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: every row has a missing value", data.ErrInput)
	}
	if len(idx) == ds.Rows() {
		return ds, nil
	}
	return ds.WithFrame(df.Subset(idx))
}

// DropDuplicates removes repeated rows, keeping the first occurrence.
func DropDuplicates(ds *data.Dataset) (*data.Dataset, error) {
	records := ds.Frame().Records()[1:]
	seen := make(map[string]struct{}, len(records))
	keep := make([]bool, len(records))
	for i, row := range records {
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			keep[i] = true
		}
	}
	idx := indexes(keep)
	if len(idx) == ds.Rows() {
		return ds, nil
	}
	return ds.WithFrame(ds.Frame().Subset(idx))
}

func indexes(keep []bool) []int {
	out := make([]int, 0, len(keep))
	for i, k := range keep {
		if k {
			out = append(out, i)
		}
	}
	return out
}
