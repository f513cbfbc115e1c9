// Package commands holds the cobra command tree of modelgui.
package commands

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/config"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/history"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/logging"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/manager"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/shell"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/viz"
)

// app is the wiring shared by every command.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	loader  *data.Loader
	store   *history.Store
	session *shell.Session
	closers []func() error
}

func newApp(cfg config.Config, logOut io.Writer) (*app, error) {
	log, closeLog, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, closeLog)

	a.loader, err = data.NewLoader(cfg.Data.LoaderOptions(), cfg.Data.CacheSize, cfg.Data.Watch, log.Named("data"))
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, a.loader.Close)

	opts := []shell.SessionOption{
		shell.WithSessionLogger(log.Named("session")),
		shell.WithPlots(cfg.Plot.Dir, cfg.Plot.Format, viz.Size{
			Width:  vg.Length(cfg.Plot.Width) * vg.Inch,
			Height: vg.Length(cfg.Plot.Height) * vg.Inch,
		}),
	}
	if !cfg.History.Disabled {
		a.store, err = history.Open(cfg.History.Path)
		if err != nil {
			// the journal is optional; runs still work without it
			log.Warn("history unavailable", zap.String("path", cfg.History.Path), zap.Error(err))
		} else {
			a.closers = append(a.closers, a.store.Close)
			opts = append(opts, shell.WithHistory(a.store))
		}
	}

	m := manager.New(
		manager.WithLogger(log.Named("manager")),
		manager.WithRandomState(cfg.RandomState),
		manager.WithKMeans(cfg.KMeans.Restarts, cfg.KMeans.MaxIter),
		manager.WithCurveMethod(cfg.CurveFit.Method),
	)
	a.session = shell.NewSession(m, a.loader, opts...)
	return a, nil
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// cli holds the flags of the root command and the app built from them.
type cli struct {
	cfgPath  string
	logLevel string
	app      *app
}

func (c *cli) get() *app { return c.app }

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	return c.app.close()
}

func newRootCmd(c *cli, out, logOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "modelgui",
		Short:         "Interactive statistical modeling workbench",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.cfgPath)
			if err != nil {
				return err
			}
			if c.logLevel != "" {
				cfg.Log.Level = c.logLevel
			}
			c.app, err = newApp(cfg, logOut)
			return err
		},
	}
	root.SetOut(out)
	root.SetErr(logOut)
	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "config file (default ~/.modelgui/config.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")

	sh := shellCmd(c.get)
	root.RunE = sh.RunE
	root.Flags().AddFlagSet(sh.Flags())
	root.AddCommand(sh, runCmd(c.get), inspectCmd(c.get), historyCmd(c.get), configCmd())
	return root
}

// Run executes the command line in args, closes everything it opened and
// prints any error to logOut.
func Run(ctx context.Context, args []string, out, logOut io.Writer) error {
	c := &cli{}
	root := newRootCmd(c, out, logOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := c.close(); err == nil {
		err = cerr
	}
	if err != nil {
		root.PrintErrln(shell.RenderError(err))
	}
	return err
}

// Execute runs modelgui with the process arguments.
func Execute(ctx context.Context) error {
	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
