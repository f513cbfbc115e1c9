package data

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ErrInput marks malformed or missing input: unreadable files, unknown or
// non-numeric columns, misaligned rows.
var ErrInput = errors.New("input error")

// Kind is the value kind of a column, detected when the file is loaded.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Numeric reports whether the column can feed a feature matrix.
func (k Kind) Numeric() bool { return k == KindFloat || k == KindInt }

func kindOf(t series.Type) Kind {
	switch t {
	case series.Float:
		return KindFloat
	case series.Int:
		return KindInt
	case series.Bool:
		return KindBool
	default:
		return KindString
	}
}

// Schema describes the structure of a dataset.
type Schema struct {
	Names []string
	Kinds []Kind
}

// Dataset is an in-memory table of equally long named columns. It is never
// mutated in place; transforms return a new Dataset.
type Dataset struct {
	// Path is the file the data came from, empty for in-memory tables.
	Path string
	// Fingerprint is the xxhash of the raw file bytes.
	Fingerprint uint64

	df     dataframe.DataFrame
	schema Schema
}

// FromFrame wraps a gota frame. The frame must carry no error and at least one row.
func FromFrame(path string, df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInput, df.Err)
	}
	if df.Ncol() == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrInput)
	}
	if df.Nrow() == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInput)
	}
	names := df.Names()
	types := df.Types()
	s := Schema{Names: names, Kinds: make([]Kind, len(types))}
	for i, t := range types {
		s.Kinds[i] = kindOf(t)
	}
	return &Dataset{Path: path, df: df, schema: s}, nil
}

// FromRecords builds a dataset from string records whose first row is the header.
func FromRecords(records [][]string, opts Options) (*Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header", ErrInput)
	}
	df := dataframe.LoadRecords(records, opts.loadOptions()...)
	return FromFrame("", df)
}

// Columns returns the column names in file order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.schema.Names))
	copy(out, d.schema.Names)
	return out
}

// Rows returns the number of data rows.
func (d *Dataset) Rows() int { return d.df.Nrow() }

func (d *Dataset) Schema() Schema { return d.schema }

// Frame exposes the underlying gota frame for transforms.
func (d *Dataset) Frame() dataframe.DataFrame { return d.df }

// WithFrame returns a new dataset with the same origin backed by df.
func (d *Dataset) WithFrame(df dataframe.DataFrame) (*Dataset, error) {
	next, err := FromFrame(d.Path, df)
	if err != nil {
		return nil, err
	}
	next.Fingerprint = d.Fingerprint
	return next, nil
}

// Kind returns the kind of the named column.
func (d *Dataset) Kind(name string) (Kind, error) {
	for i, n := range d.schema.Names {
		if n == name {
			return d.schema.Kinds[i], nil
		}
	}
	return 0, fmt.Errorf("%w: unknown column %q", ErrInput, name)
}

func (d *Dataset) col(name string) (series.Series, error) {
	if _, err := d.Kind(name); err != nil {
		return series.Series{}, err
	}
	s := d.df.Col(name)
	if s.Err != nil {
		return series.Series{}, fmt.Errorf("%w: column %q: %v", ErrInput, name, s.Err)
	}
	return s, nil
}

// Column returns a copy of the named column.
func (d *Dataset) Column(name string) (series.Series, error) {
	s, err := d.col(name)
	if err != nil {
		return series.Series{}, err
	}
	return s.Copy(), nil
}

// Float returns a numeric column as float64, missing cells as NaN.
func (d *Dataset) Float(name string) ([]float64, error) {
	k, err := d.Kind(name)
	if err != nil {
		return nil, err
	}
	if !k.Numeric() {
		return nil, fmt.Errorf("%w: column %q is %s, not numeric", ErrInput, name, k)
	}
	s, err := d.col(name)
	if err != nil {
		return nil, err
	}
	return s.Float(), nil
}

// Strings returns any column rendered as strings.
func (d *Dataset) Strings(name string) ([]string, error) {
	s, err := d.col(name)
	if err != nil {
		return nil, err
	}
	return s.Records(), nil
}

// Features assembles a row-major feature matrix from numeric columns.
func (d *Dataset) Features(names []string) ([][]float64, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no feature columns", ErrInput)
	}
	cols := make([][]float64, len(names))
	for j, n := range names {
		c, err := d.Float(n)
		if err != nil {
			return nil, err
		}
		cols[j] = c
	}
	X := make([][]float64, d.Rows())
	for i := range X {
		row := make([]float64, len(names))
		for j := range cols {
			row[j] = cols[j][i]
		}
		X[i] = row
	}
	return X, nil
}

// Target extracts a target vector. Float and Int columns become continuous
// targets; String and Bool columns become categorical ones.
func (d *Dataset) Target(name string) (Target, error) {
	k, err := d.Kind(name)
	if err != nil {
		return Target{}, err
	}
	if k.Numeric() {
		v, err := d.Float(name)
		if err != nil {
			return Target{}, err
		}
		t := ContinuousTarget(v)
		t.Name = name
		return t, nil
	}
	l, err := d.Strings(name)
	if err != nil {
		return Target{}, err
	}
	t := CategoricalTarget(l)
	t.Name = name
	return t, nil
}

// Head returns the header plus the first n rows as strings.
func (d *Dataset) Head(n int) [][]string {
	if n > d.Rows() {
		n = d.Rows()
	}
	out := [][]string{d.Columns()}
	if n <= 0 {
		return out
	}
	return append(out, d.df.Subset(seq(n)).Records()[1:]...)
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
