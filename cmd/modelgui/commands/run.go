package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/manager"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/shell"
)

// runFlags maps flag names onto dialog field keys.
var runFlags = map[string]string{
	"estimators":    shell.KeyEstimators,
	"max-depth":     shell.KeyMaxDepth,
	"learning-rate": shell.KeyLearningRate,
	"clusters":      shell.KeyClusters,
	"window":        shell.KeyWindow,
	"variant":       shell.KeyVariant,
	"weights":       shell.KeyWeights,
	"rho":           shell.KeyRho,
}

func runCmd(get func() *app) *cobra.Command {
	var (
		file      string
		features  []string
		target    string
		procedure string
		steps     []string
		plain     bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fit one procedure and print its report",
		Example: `  modelgui run -f sales.csv --x price,ads --y sales -p ols
  modelgui run -f iris.csv --x petal_len,petal_wid --y species -p rf --estimators 50
  modelgui run -f peaks.csv --x t --y signal -p gaussian`,
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, err := manager.ParseProcedure(procedure)
			if err != nil {
				return &manager.Error{Kind: manager.ErrUnsupported, Err: err}
			}
			d := shell.DialogFor(proc)
			values := d.Defaults()
			for flag, key := range runFlags {
				if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
					values[key] = f.Value.String()
				}
			}
			in, err := d.Parse(values)
			if err != nil {
				return err
			}

			s := get().session
			if _, err := s.Load(file); err != nil {
				return err
			}
			if len(steps) > 0 {
				if err := s.Preprocess(steps); err != nil {
					return err
				}
			}
			if err := s.Select(features, target); err != nil {
				return err
			}
			rep, err := s.RunDialog(cmd.Context(), proc, in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if plain {
				fmt.Fprint(out, rep.Text)
				if rep.PlotPath != "" {
					fmt.Fprintf(out, "plot: %s\n", rep.PlotPath)
				}
				return nil
			}
			fmt.Fprintln(out, shell.RenderReport(rep))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "delimited data file")
	f.StringSliceVar(&features, "x", nil, "feature columns")
	f.StringVar(&target, "y", "", "target column")
	f.StringVarP(&procedure, "procedure", "p", "ols", "procedure name (ols, wls, gls, recursive_ls, rlm, rolling_ls, rf, gb, kmeans, gaussian, exponential)")
	f.StringArrayVar(&steps, "prep", nil, "preprocessing step, repeatable (impute=mean, normalize=a,b, dropna, ...)")
	f.BoolVar(&plain, "plain", false, "print the bare report without styling")
	f.Int("estimators", manager.DefaultEstimators, "number of trees")
	f.Int("max-depth", 0, "maximum tree depth")
	f.Float64("learning-rate", manager.DefaultLearningRate, "boosting learning rate")
	f.Int("clusters", manager.DefaultClusters, "number of clusters")
	f.Int("window", manager.DefaultWindow, "rolling window size")
	f.String("variant", "auto", "ensemble variant: auto, regression or classification")
	f.String("weights", "", "WLS weight column")
	f.Float64("rho", 0, "GLS AR(1) error correlation")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("x")
	return cmd
}
