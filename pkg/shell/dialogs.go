package shell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/manager"
)

// FieldKind is the input type of a dialog field.
type FieldKind int

const (
	IntField FieldKind = iota
	FloatField
	// ColumnField names a dataset column.
	ColumnField
	// ChoiceField takes one of Options.
	ChoiceField
)

// Field keys.
const (
	KeyEstimators   = "n_estimators"
	KeyMaxDepth     = "max_depth"
	KeyLearningRate = "learning_rate"
	KeyClusters     = "n_clusters"
	KeyWindow       = "window"
	KeyVariant      = "variant"
	KeyWeights      = "weights"
	KeyRho          = "rho"
)

// Field is one parameter input.
type Field struct {
	Key     string
	Label   string
	Kind    FieldKind
	Default string
	// Min and Max bound numeric fields; Max 0 leaves the top open.
	Min, Max float64
	// Optional fields accept a blank value.
	Optional bool
	Options  []string
	Help     string
}

// Dialog is the parameter form of one procedure. Procedures without
// tunables have no fields.
type Dialog struct {
	Procedure manager.Procedure
	Title     string
	Fields    []Field
}

// Input is the parsed content of a dialog.
type Input struct {
	Params manager.Params
	// WeightColumn holds the WLS weights.
	WeightColumn string
	// Rho is the AR(1) correlation of the GLS errors.
	Rho float64
}

var (
	estimatorsField = Field{Key: KeyEstimators, Label: "Number of estimators", Kind: IntField, Default: "100", Min: 1, Max: 1000}
	variantField    = Field{
		Key: KeyVariant, Label: "Variant", Kind: ChoiceField, Default: "auto",
		Options: []string{"auto", "regression", "classification"},
		Help:    "auto picks classification for text targets",
	}
)

// DialogFor returns the parameter form of p.
func DialogFor(p manager.Procedure) Dialog {
	d := Dialog{Procedure: p, Title: p.Title() + " Parameters"}
	switch p {
	case manager.RandomForest:
		d.Fields = []Field{
			estimatorsField,
			{Key: KeyMaxDepth, Label: "Max depth", Kind: IntField, Default: "10", Min: 1, Max: 100, Optional: true, Help: "blank for unlimited"},
			variantField,
		}
	case manager.GradientBoosting:
		d.Fields = []Field{
			estimatorsField,
			{Key: KeyLearningRate, Label: "Learning rate", Kind: FloatField, Default: "0.1", Min: 0.001, Max: 1},
			{Key: KeyMaxDepth, Label: "Max depth", Kind: IntField, Default: "3", Min: 1, Max: 100, Optional: true, Help: "blank for unlimited"},
			variantField,
		}
	case manager.KMeans:
		d.Fields = []Field{{Key: KeyClusters, Label: "Number of clusters", Kind: IntField, Default: "3", Min: 1, Max: 100}}
	case manager.RollingLS:
		d.Fields = []Field{{Key: KeyWindow, Label: "Window size", Kind: IntField, Default: "5", Min: 2}}
	case manager.WLS:
		d.Fields = []Field{{Key: KeyWeights, Label: "Weight column", Kind: ColumnField}}
	case manager.GLS:
		d.Fields = []Field{{
			Key: KeyRho, Label: "AR(1) error correlation", Kind: FloatField, Default: "0", Min: -0.99, Max: 0.99,
			Help: "0 gives ordinary least squares",
		}}
	}
	return d
}

// Defaults returns the default value of every field.
func (d Dialog) Defaults() map[string]string {
	out := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		out[f.Key] = f.Default
	}
	return out
}

// Check validates one raw value.
func (f Field) Check(raw string) error {
	_, err := f.parse(raw)
	return err
}

func (f Field) parse(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if f.Optional {
			return 0, nil
		}
		return 0, fmt.Errorf("%s is required", f.Label)
	}
	switch f.Kind {
	case ColumnField:
		return 0, nil
	case ChoiceField:
		for _, o := range f.Options {
			if strings.EqualFold(o, raw) {
				return 0, nil
			}
		}
		return 0, fmt.Errorf("%s must be one of %s", f.Label, strings.Join(f.Options, ", "))
	}
	var v float64
	if f.Kind == IntField {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number", f.Label)
		}
		v = float64(n)
	} else {
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", f.Label)
		}
		v = x
	}
	if v < f.Min || (f.Max != 0 && v > f.Max) {
		if f.Max != 0 {
			return 0, fmt.Errorf("%s must be between %g and %g", f.Label, f.Min, f.Max)
		}
		return 0, fmt.Errorf("%s must be at least %g", f.Label, f.Min)
	}
	return v, nil
}

// Parse converts field values into an Input. Missing keys take their
// defaults.
func (d Dialog) Parse(values map[string]string) (Input, error) {
	var in Input
	for _, f := range d.Fields {
		raw, ok := values[f.Key]
		if !ok {
			raw = f.Default
		}
		v, err := f.parse(raw)
		if err != nil {
			return Input{}, &manager.Error{Kind: manager.ErrInput, Procedure: d.Procedure, Err: err}
		}
		switch f.Key {
		case KeyEstimators:
			in.Params.NEstimators = int(v)
		case KeyMaxDepth:
			in.Params.MaxDepth = int(v)
		case KeyLearningRate:
			in.Params.LearningRate = v
		case KeyClusters:
			in.Params.Clusters = int(v)
		case KeyWindow:
			in.Params.Window = int(v)
		case KeyVariant:
			in.Params.Variant, _ = manager.ParseVariant(raw)
		case KeyWeights:
			in.WeightColumn = strings.TrimSpace(raw)
		case KeyRho:
			in.Rho = v
		}
	}
	return in, nil
}
