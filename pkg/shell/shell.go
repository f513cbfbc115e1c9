package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/manager"
)

const (
	actionLoad       = "load"
	actionPreprocess = "preprocess"
	actionColumns    = "columns"
	actionSelect     = "select"
	actionProcedure  = "procedure"
	actionRun        = "run"
	actionSummary    = "summary"
	actionPredict    = "predict"
	actionHistory    = "history"
	actionQuit       = "quit"
)

// Shell is the menu-driven terminal front end.
type Shell struct {
	session    *Session
	out        io.Writer
	accessible bool
	procedure  manager.Procedure
}

// New creates a shell writing its panes to out. Accessible mode replaces
// the full-screen forms with plain prompts.
func New(s *Session, out io.Writer, accessible bool) *Shell {
	return &Shell{session: s, out: out, accessible: accessible, procedure: manager.OLS}
}

func (sh *Shell) form(fields ...huh.Field) error {
	return huh.NewForm(huh.NewGroup(fields...)).WithAccessible(sh.accessible).Run()
}

// Run loops over the main menu until the user quits. Errors end only the
// action that raised them.
func (sh *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		action, err := sh.menu()
		if errors.Is(err, huh.ErrUserAborted) || action == actionQuit {
			return nil
		}
		if err != nil {
			return err
		}
		if err := sh.dispatch(ctx, action); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				continue
			}
			fmt.Fprintln(sh.out, RenderError(err))
		}
	}
}

func (sh *Shell) menu() (string, error) {
	var action string
	title := "Modeling workbench"
	if ds := sh.session.Dataset(); ds != nil {
		title = fmt.Sprintf("%s · %s (%d rows) · %s", title, ds.Path, ds.Rows(), sh.procedure.Title())
	}
	err := sh.form(huh.NewSelect[string]().
		Title(title).
		Options(
			huh.NewOption("Load data", actionLoad),
			huh.NewOption("Preprocess", actionPreprocess),
			huh.NewOption("Show columns", actionColumns),
			huh.NewOption("Select X / Y", actionSelect),
			huh.NewOption("Choose procedure", actionProcedure),
			huh.NewOption("Run", actionRun),
			huh.NewOption("Summary", actionSummary),
			huh.NewOption("Predict", actionPredict),
			huh.NewOption("History", actionHistory),
			huh.NewOption("Quit", actionQuit),
		).
		Value(&action))
	return action, err
}

func (sh *Shell) dispatch(ctx context.Context, action string) error {
	switch action {
	case actionLoad:
		return sh.load()
	case actionPreprocess:
		return sh.preprocess()
	case actionColumns:
		fmt.Fprintln(sh.out, RenderColumns(sh.session.Columns()))
	case actionSelect:
		return sh.selectColumns()
	case actionProcedure:
		return sh.chooseProcedure()
	case actionRun:
		return sh.run(ctx)
	case actionSummary:
		text, err := sh.session.Summary()
		if err != nil {
			return err
		}
		fmt.Fprintln(sh.out, styles.ResultBox.Render(strings.TrimRight(text, "\n")))
	case actionPredict:
		return sh.predict()
	case actionHistory:
		recs, err := sh.session.History(ctx, 20)
		if err != nil {
			return err
		}
		fmt.Fprintln(sh.out, RenderHistory(recs))
	}
	return nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("a value is required")
	}
	return nil
}

func (sh *Shell) load() error {
	var path string
	if err := sh.form(huh.NewInput().Title("Data file").Placeholder("data.csv").Value(&path).Validate(required)); err != nil {
		return err
	}
	ds, err := sh.session.Load(strings.TrimSpace(path))
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, styles.Success.Render(fmt.Sprintf("loaded %s: %d rows, %d columns", ds.Path, ds.Rows(), len(ds.Columns()))))
	return nil
}

func (sh *Shell) preprocess() error {
	var text string
	err := sh.form(huh.NewInput().
		Title("Preprocessing steps").
		Description("separate steps with ';', e.g. impute=mean; normalize=a,b; dropna").
		Value(&text).
		Validate(required))
	if err != nil {
		return err
	}
	var steps []string
	for _, s := range strings.Split(text, ";") {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	if err := sh.session.Preprocess(steps); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, styles.Success.Render("applied "+strings.Join(steps, ", ")))
	return nil
}

func (sh *Shell) selectColumns() error {
	cols := sh.session.Columns()
	if len(cols) == 0 {
		return manager.SelectionError("", "no dataset loaded")
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	features, target := sh.session.Selection()
	targets := append([]huh.Option[string]{huh.NewOption("(none)", "")}, huh.NewOptions(names...)...)
	err := sh.form(
		huh.NewMultiSelect[string]().Title("Feature columns (X)").Options(huh.NewOptions(names...)...).Value(&features),
		huh.NewSelect[string]().Title("Target column (Y)").Options(targets...).Value(&target),
	)
	if err != nil {
		return err
	}
	return sh.session.Select(features, target)
}

func (sh *Shell) chooseProcedure() error {
	procs := manager.Procedures()
	opts := make([]huh.Option[manager.Procedure], len(procs))
	for i, p := range procs {
		opts[i] = huh.NewOption(p.Title(), p)
	}
	return sh.form(huh.NewSelect[manager.Procedure]().Title("Procedure").Options(opts...).Value(&sh.procedure))
}

// dialog asks for the procedure's parameters.
func (sh *Shell) dialog(d Dialog) (map[string]string, error) {
	values := d.Defaults()
	if len(d.Fields) == 0 {
		return values, nil
	}
	raw := make([]string, len(d.Fields))
	fields := make([]huh.Field, len(d.Fields))
	for i, f := range d.Fields {
		raw[i] = f.Default
		switch f.Kind {
		case ChoiceField:
			fields[i] = huh.NewSelect[string]().Title(f.Label).Description(f.Help).
				Options(huh.NewOptions(f.Options...)...).Value(&raw[i])
		case ColumnField:
			var names []string
			for _, c := range sh.session.Columns() {
				if c.Kind.Numeric() {
					names = append(names, c.Name)
				}
			}
			if len(names) == 0 {
				return nil, manager.SelectionError(d.Procedure, "no numeric column for %s", strings.ToLower(f.Label))
			}
			fields[i] = huh.NewSelect[string]().Title(f.Label).Options(huh.NewOptions(names...)...).Value(&raw[i])
		default:
			fields[i] = huh.NewInput().Title(f.Label).Description(f.Help).Value(&raw[i]).Validate(f.Check)
		}
	}
	if err := huh.NewForm(huh.NewGroup(fields...).Title(d.Title)).WithAccessible(sh.accessible).Run(); err != nil {
		return nil, err
	}
	for i, f := range d.Fields {
		values[f.Key] = raw[i]
	}
	return values, nil
}

func (sh *Shell) run(ctx context.Context) error {
	proc := sh.procedure
	d := DialogFor(proc)
	values, err := sh.dialog(d)
	if err != nil {
		return err
	}
	in, err := d.Parse(values)
	if err != nil {
		return err
	}
	rep, err := sh.fit(ctx, proc, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, RenderReport(rep))
	return nil
}

type fitResult struct {
	rep *Report
	err error
}

// fit runs the procedure on a worker goroutine while a spinner shows. The
// result is handed back over a channel once the worker finishes.
func (sh *Shell) fit(ctx context.Context, proc manager.Procedure, in Input) (*Report, error) {
	done := make(chan fitResult, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		rep, err := sh.session.RunDialog(ctx, proc, in)
		done <- fitResult{rep, err}
	}()
	err := spinner.New().
		Title("Fitting " + proc.Title() + "...").
		Accessible(sh.accessible).
		Action(func() { <-finished }).
		Run()
	res := <-done
	if res.err == nil && err != nil {
		return nil, err
	}
	return res.rep, res.err
}

func (sh *Shell) predict() error {
	features, _ := sh.session.Selection()
	var text string
	err := sh.form(huh.NewInput().
		Title("Values for "+strings.Join(features, ", ")).
		Description("comma separated, one value per feature").
		Value(&text).
		Validate(required))
	if err != nil {
		return err
	}
	var row []float64
	for _, f := range strings.Split(text, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return &manager.Error{Kind: manager.ErrInput, Err: fmt.Errorf("%q is not a number", strings.TrimSpace(f))}
		}
		row = append(row, v)
	}
	pred, err := sh.session.Predict([][]float64{row})
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, styles.ResultBox.Render("Prediction: "+pred.Strings()[0]))
	return nil
}
