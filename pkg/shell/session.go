// Package shell is the interactive front end: a UI-agnostic Session that
// owns the data, selection and model slot, plus the huh-based terminal
// menus that drive it.
package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/plot"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/history"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/manager"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/model"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/pipeline"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/viz"
)

// Column is one entry of the column listing.
type Column struct {
	Name string
	Kind data.Kind
}

// Report is what a run shows the user.
type Report struct {
	Procedure manager.Procedure
	Variant   manager.Variant
	Text      string
	// PlotPath is empty when no plot could be rendered.
	PlotPath string
	Duration time.Duration
}

// Session holds the loaded dataset, the column selection and the manager.
// It is safe for use by one UI loop plus one fit worker.
type Session struct {
	mu      sync.Mutex
	loader  *data.Loader
	manager *manager.Manager
	history *history.Store
	log     *zap.Logger

	plotDir    string
	plotFormat string
	plotSize   viz.Size

	ds       *data.Dataset
	features []string
	target   string
	steps    []string
	last     *manager.Outcome
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithHistory journals every run into store.
func WithHistory(store *history.Store) SessionOption {
	return func(s *Session) { s.history = store }
}

// WithPlots sets where plots go and in which format (png, svg or pdf).
func WithPlots(dir, format string, size viz.Size) SessionOption {
	return func(s *Session) {
		if dir != "" {
			s.plotDir = dir
		}
		if format != "" {
			s.plotFormat = strings.TrimPrefix(format, ".")
		}
		s.plotSize = size
	}
}

func WithSessionLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSession wires a session around a manager and a dataset loader.
func NewSession(m *manager.Manager, loader *data.Loader, opts ...SessionOption) *Session {
	s := &Session{
		loader:     loader,
		manager:    m,
		log:        zap.NewNop(),
		plotDir:    "plots",
		plotFormat: "png",
		plotSize:   viz.DefaultSize,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load reads a delimited file and clears the selection.
func (s *Session) Load(path string) (*data.Dataset, error) {
	ds, err := s.loader.Load(path)
	if err != nil {
		return nil, &manager.Error{Kind: manager.ErrInput, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = ds
	s.features, s.target, s.steps = nil, "", nil
	s.log.Info("dataset loaded",
		zap.String("path", ds.Path),
		zap.Int("rows", ds.Rows()),
		zap.Int("columns", len(ds.Columns())),
	)
	return ds, nil
}

// Dataset returns the current dataset, nil before Load.
func (s *Session) Dataset() *data.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ds
}

// Columns lists the dataset columns with their detected kinds.
func (s *Session) Columns() []Column {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ds == nil {
		return nil
	}
	sc := s.ds.Schema()
	out := make([]Column, len(sc.Names))
	for i := range sc.Names {
		out[i] = Column{Name: sc.Names[i], Kind: sc.Kinds[i]}
	}
	return out
}

// Select sets the feature columns and the optional target column.
func (s *Session) Select(features []string, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ds == nil {
		return manager.SelectionError("", "no dataset loaded")
	}
	cols := s.ds.Columns()
	for _, f := range features {
		if !slices.Contains(cols, f) {
			return manager.SelectionError("", "unknown feature column %q", f)
		}
	}
	if target != "" && !slices.Contains(cols, target) {
		return manager.SelectionError("", "unknown target column %q", target)
	}
	s.features = slices.Clone(features)
	s.target = target
	return nil
}

// Selection returns the selected features and target.
func (s *Session) Selection() ([]string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.features), s.target
}

// Preprocess applies pipeline steps such as "impute=mean" or
// "normalize=a,b" to the dataset. Selected columns that no longer exist
// are dropped from the selection.
func (s *Session) Preprocess(steps []string) error {
	p, err := pipeline.ParseAll(steps)
	if err != nil {
		return &manager.Error{Kind: manager.ErrInput, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ds == nil {
		return manager.SelectionError("", "no dataset loaded")
	}
	next, err := p.Run(s.ds)
	if err != nil {
		return &manager.Error{Kind: manager.ErrInput, Err: err}
	}
	s.ds = next
	cols := next.Columns()
	s.features = slices.DeleteFunc(s.features, func(f string) bool { return !slices.Contains(cols, f) })
	if !slices.Contains(cols, s.target) {
		s.target = ""
	}
	s.steps = append(s.steps, p.Steps()...)
	s.log.Info("dataset preprocessed", zap.Strings("steps", p.Steps()), zap.Int("rows", next.Rows()))
	return nil
}

// Steps returns the preprocessing applied since Load.
func (s *Session) Steps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.steps)
}

// Resolve turns dialog input into manager parameters, reading the WLS
// weight column and building the GLS AR(1) covariance for the dataset.
func (s *Session) Resolve(proc manager.Procedure, in Input) (manager.Params, error) {
	p := in.Params
	s.mu.Lock()
	ds := s.ds
	s.mu.Unlock()
	switch proc {
	case manager.WLS:
		if in.WeightColumn == "" {
			return p, manager.SelectionError(proc, "no weight column selected")
		}
		if ds == nil {
			return p, manager.SelectionError(proc, "no dataset loaded")
		}
		w, err := ds.Float(in.WeightColumn)
		if err != nil {
			return p, &manager.Error{Kind: manager.ErrInput, Procedure: proc, Err: err}
		}
		p.Weights = w
	case manager.GLS:
		if ds == nil {
			return p, manager.SelectionError(proc, "no dataset loaded")
		}
		p.Sigma = AR1(in.Rho, ds.Rows())
	}
	return p, nil
}

// AR1 returns the n×n covariance with entries rho^|i-j|.
func AR1(rho float64, n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		v := 1.0
		for d := 0; i+d < n; d++ {
			out[i][i+d] = v
			v *= rho
		}
		for j := range i {
			out[i][j] = out[j][i]
		}
	}
	return out
}

// RunDialog resolves dialog input and runs the procedure.
func (s *Session) RunDialog(ctx context.Context, proc manager.Procedure, in Input) (*Report, error) {
	p, err := s.Resolve(proc, in)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, proc, p)
}

// Run fits proc on the current selection, renders its plot and journals
// the run. A missing selection fails before anything is fitted.
func (s *Session) Run(ctx context.Context, proc manager.Procedure, p manager.Params) (*Report, error) {
	s.mu.Lock()
	ds, features, target := s.ds, slices.Clone(s.features), s.target
	s.mu.Unlock()

	if ds == nil {
		return nil, manager.SelectionError(proc, "no dataset loaded")
	}
	if len(features) == 0 {
		return nil, manager.SelectionError(proc, "no feature columns selected")
	}
	if proc.NeedsTarget() && target == "" {
		return nil, manager.SelectionError(proc, "no target column selected")
	}

	start := time.Now()
	req, err := request(ds, proc, features, target, p)
	var out *manager.Outcome
	if err == nil {
		out, err = s.manager.Run(req)
	}
	s.journal(ctx, ds, req, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.last = out
	s.mu.Unlock()

	rep := &Report{Procedure: proc, Variant: out.Variant, Duration: out.Duration}
	rep.Text = reportText(out, req)
	path, perr := s.render(out, req)
	if perr != nil {
		s.log.Warn("plot failed", zap.String("procedure", string(proc)), zap.Error(perr))
	}
	rep.PlotPath = path
	return rep, nil
}

func request(ds *data.Dataset, proc manager.Procedure, features []string, target string, p manager.Params) (manager.Request, error) {
	req := manager.Request{Procedure: proc, Features: features, Params: p}
	X, err := ds.Features(features)
	if err != nil {
		return req, &manager.Error{Kind: manager.ErrInput, Procedure: proc, Err: err}
	}
	req.X = X
	if proc.NeedsTarget() {
		y, err := ds.Target(target)
		if err != nil {
			return req, &manager.Error{Kind: manager.ErrInput, Procedure: proc, Err: err}
		}
		req.Y = y
	}
	return req, nil
}

func (s *Session) journal(ctx context.Context, ds *data.Dataset, req manager.Request, runErr error, d time.Duration) {
	if s.history == nil {
		return
	}
	params, err := json.Marshal(req.Params)
	if err != nil {
		params = []byte("{}")
	}
	rec := history.Record{
		Procedure:   string(req.Procedure),
		Dataset:     ds.Path,
		Fingerprint: ds.Fingerprint,
		Features:    req.Features,
		Target:      req.Y.Name,
		Params:      string(params),
		Status:      history.StatusOK,
		Duration:    d,
	}
	if runErr != nil {
		rec.Status, rec.Error = history.StatusError, runErr.Error()
	}
	if _, err := s.history.Record(ctx, rec); err != nil {
		s.log.Warn("history record failed", zap.Error(err))
	}
}

// reportText is the summary when the model has one, otherwise a short
// training report.
func reportText(out *manager.Outcome, req manager.Request) string {
	if out.Summary != "" {
		return out.Summary
	}
	var b strings.Builder
	title := out.Procedure.Title()
	if out.Variant != manager.Auto {
		title += " " + cases.Title(language.English).String(out.Variant.String())
	}
	fmt.Fprintf(&b, "%s Results\n", title)
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 40))
	fmt.Fprintf(&b, "%-22s %s\n", "Model:", out.Model.Name())
	fmt.Fprintf(&b, "%-22s %d\n", "No. Observations:", len(req.X))
	fmt.Fprintf(&b, "%-22s %s\n", "Features:", strings.Join(req.Features, ", "))
	switch h := out.Model.(type) {
	case model.LabelClassifier:
		if pred, err := h.PredictLabels(req.X); err == nil {
			fmt.Fprintf(&b, "%-22s %.4f\n", "Training accuracy:", model.Accuracy(req.Y.ClassLabels(), pred))
			fmt.Fprintf(&b, "%-22s %s\n", "Classes:", strings.Join(h.Classes(), ", "))
		}
	case model.ClusterAssigner:
		sizes := make([]int, len(h.Centroids()))
		for _, l := range h.Labels() {
			sizes[l]++
		}
		fmt.Fprintf(&b, "%-22s %d\n", "Clusters:", len(sizes))
		for k, c := range h.Centroids() {
			fmt.Fprintf(&b, "  cluster %d: %d rows, centroid %s\n", k, sizes[k], formatRow(c))
		}
		if km, ok := h.(*model.KMeans); ok {
			fmt.Fprintf(&b, "%-22s %.6g\n", "Inertia:", km.Inertia)
		}
	case model.Regressor:
		if pred, err := h.Predict(req.X); err == nil {
			fmt.Fprintf(&b, "%-22s %.4f\n", "Training R-squared:", model.R2(req.Y.Values, pred))
			fmt.Fprintf(&b, "%-22s %.6g\n", "Training RMSE:", model.RMSE(req.Y.Values, pred))
		}
	}
	fmt.Fprintf(&b, "%-22s %s\n", "Fit time:", out.Duration.Round(time.Millisecond))
	return b.String()
}

func formatRow(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.4g", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// render draws the figure that belongs to the procedure and returns its
// path.
func (s *Session) render(out *manager.Outcome, req manager.Request) (string, error) {
	var (
		p   *plot.Plot
		err error
	)
	xName := req.Features[0]
	switch h := out.Model.(type) {
	case *model.RollingFit:
		p, err = viz.Rolling(h)
	case *model.CurveFit:
		x := make([]float64, len(req.X))
		for i, row := range req.X {
			x[i] = row[0]
		}
		p, err = viz.Curve(x, req.Y.Values, h)
	case *model.KMeans:
		p, err = viz.Clusters(req.X, h.Labels(), h.Centroids(), req.Features)
	default:
		p, err = s.ensemblePlot(out, req)
		if p == nil && err == nil {
			r, ok := out.Model.(model.Regressor)
			if !ok {
				return "", errors.New("no plot for this model")
			}
			p, err = viz.Regression(req.X, req.Y.Values, r, xName, req.Y.Name)
		}
	}
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.plotDir, string(out.Procedure)+"."+s.plotFormat)
	if err := viz.Save(p, path, s.plotSize); err != nil {
		return "", err
	}
	return path, nil
}

// ensemblePlot draws the first tree of a random forest and the training
// confusion matrix of a boosting classifier. It returns nil for the rest.
func (s *Session) ensemblePlot(out *manager.Outcome, req manager.Request) (*plot.Plot, error) {
	switch out.Procedure {
	case manager.RandomForest:
		ins, ok := out.Model.(model.EnsembleInspector)
		if !ok {
			return nil, errors.New("forest exposes no estimators")
		}
		root, err := viz.Estimator(ins)
		if err != nil {
			return nil, err
		}
		var classes []string
		if c, ok := out.Model.(model.LabelClassifier); ok {
			classes = c.Classes()
		}
		return viz.TreeDiagram(root, "Random Forest: first tree", req.Features, classes)
	case manager.GradientBoosting:
		c, ok := out.Model.(model.LabelClassifier)
		if !ok {
			return nil, nil
		}
		pred, err := c.PredictLabels(req.X)
		if err != nil {
			return nil, err
		}
		return viz.ConfusionMatrix(model.NewConfusionMatrix(req.Y.ClassLabels(), pred))
	}
	return nil, nil
}

// Summary returns the current model's text summary.
func (s *Session) Summary() (string, error) { return s.manager.Summary() }

// Predict runs the current model on rows with the selected feature layout.
func (s *Session) Predict(rows [][]float64) (manager.Prediction, error) {
	return s.manager.Predict(rows)
}

// Last returns the most recent successful outcome.
func (s *Session) Last() *manager.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// History lists journaled runs, newest first.
func (s *Session) History(ctx context.Context, limit int) ([]history.Record, error) {
	if s.history == nil {
		return nil, errors.New("history is disabled")
	}
	return s.history.List(ctx, limit)
}
