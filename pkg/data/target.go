package data

import "strconv"

// TargetKind separates continuous targets from categorical ones. It decides
// whether ensemble procedures fit a regressor or a classifier.
type TargetKind int

const (
	Continuous TargetKind = iota
	Categorical
)

func (k TargetKind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "continuous"
}

// Target is the dependent-variable column. Exactly one of Values or Labels is
// populated, depending on Kind.
type Target struct {
	Name   string
	Kind   TargetKind
	Values []float64
	Labels []string
}

func ContinuousTarget(v []float64) Target { return Target{Kind: Continuous, Values: v} }

func CategoricalTarget(l []string) Target { return Target{Kind: Categorical, Labels: l} }

// Len returns the number of rows in the target.
func (t Target) Len() int {
	if t.Kind == Categorical {
		return len(t.Labels)
	}
	return len(t.Values)
}

// ClassLabels returns the target as class labels. Continuous values are
// formatted with the shortest exact representation.
func (t Target) ClassLabels() []string {
	if t.Kind == Categorical {
		return t.Labels
	}
	out := make([]string, len(t.Values))
	for i, v := range t.Values {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}
