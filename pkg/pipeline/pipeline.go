package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/dataprep"
)

// Step is one preprocessing transform. Steps never modify their input.
type Step interface {
	Name() string
	Apply(ds *data.Dataset) (*data.Dataset, error)
}

// Pipeline chains multiple steps.
type Pipeline struct {
	steps []Step
}

func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Steps returns the step names in order.
func (p *Pipeline) Steps() []string {
	out := make([]string, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.Name()
	}
	return out
}

// Run applies every step in order. The first failing step stops the run.
func (p *Pipeline) Run(ds *data.Dataset) (*data.Dataset, error) {
	for _, step := range p.steps {
		next, err := step.Apply(ds)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %s: %w", step.Name(), err)
		}
		ds = next
	}
	return ds, nil
}

// StepFunc adapts a function to a Step.
type StepFunc struct {
	Label string
	Fn    func(*data.Dataset) (*data.Dataset, error)
}

func (s StepFunc) Name() string { return s.Label }

func (s StepFunc) Apply(ds *data.Dataset) (*data.Dataset, error) { return s.Fn(ds) }

// Parse builds a step from its textual form:
//
//	impute=mean|median|mode
//	dropna[=col,...]
//	dedupe
//	normalize[=col,...]
//	clip=lower:upper[:col,...]
//	encode=col
//	onehot=col
func Parse(text string) (Step, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(text), "=")
	cols := splitList(arg)
	switch name {
	case "impute":
		s, err := dataprep.ParseStrategy(arg)
		if err != nil {
			return nil, err
		}
		return StepFunc{text, func(ds *data.Dataset) (*data.Dataset, error) {
			return dataprep.HandleMissing(ds, s)
		}}, nil
	case "dropna":
		return StepFunc{text, func(ds *data.Dataset) (*data.Dataset, error) {
			return dataprep.DropMissing(ds, cols)
		}}, nil
	case "dedupe":
		return StepFunc{text, dataprep.DropDuplicates}, nil
	case "normalize":
		return StepFunc{text, func(ds *data.Dataset) (*data.Dataset, error) {
			out, _, err := dataprep.Normalize(ds, cols)
			return out, err
		}}, nil
	case "clip":
		parts := strings.SplitN(arg, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: clip wants lower:upper[:cols]", data.ErrInput)
		}
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: clip bounds %q", data.ErrInput, arg)
		}
		var ccols []string
		if len(parts) == 3 {
			ccols = splitList(parts[2])
		}
		return StepFunc{text, func(ds *data.Dataset) (*data.Dataset, error) {
			return dataprep.Clip(ds, ccols, lo, hi)
		}}, nil
	case "encode", "onehot":
		if arg == "" {
			return nil, fmt.Errorf("%w: %s needs a column", data.ErrInput, name)
		}
		if name == "onehot" {
			return StepFunc{text, func(ds *data.Dataset) (*data.Dataset, error) {
				return dataprep.OneHot(ds, arg)
			}}, nil
		}
		return StepFunc{text, func(ds *data.Dataset) (*data.Dataset, error) {
			out, _, err := dataprep.EncodeColumn(ds, arg)
			return out, err
		}}, nil
	}
	return nil, fmt.Errorf("%w: unknown preprocessing step %q", data.ErrInput, text)
}

// ParseAll parses each step and returns the pipeline.
func ParseAll(texts []string) (*Pipeline, error) {
	steps := make([]Step, 0, len(texts))
	for _, t := range texts {
		s, err := Parse(t)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return NewPipeline(steps...), nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
