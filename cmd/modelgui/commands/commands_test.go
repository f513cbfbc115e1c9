package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/config"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/manager"
)

type env struct {
	cfg, csv, plots string
}

func setup(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	e := env{
		cfg:   filepath.Join(dir, "config.yaml"),
		csv:   filepath.Join(dir, "line.csv"),
		plots: filepath.Join(dir, "plots"),
	}
	cfg := config.Default()
	cfg.Plot.Dir = e.plots
	cfg.Plot.Format = "svg"
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfg.Log.Level = "error"
	require.NoError(t, cfg.Write(e.cfg))

	var b strings.Builder
	b.WriteString("x,z,y,group\n")
	for i := range 30 {
		x := float64(i)
		group := "low"
		if i >= 15 {
			group = "high"
		}
		fmt.Fprintf(&b, "%g,%g,%g,%s\n", x, float64(i%4), 3+0.5*x+0.01*float64(i%3), group)
	}
	require.NoError(t, os.WriteFile(e.csv, []byte(b.String()), 0o644))
	return e
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	err := Run(context.Background(), args, &out, &logs)
	return out.String(), logs.String(), err
}

func TestRunCommand_OLS(t *testing.T) {
	e := setup(t)
	out, _, err := run(t, "run", "--config", e.cfg, "-f", e.csv, "--x", "x,z", "--y", "y", "-p", "ols", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "OLS Regression Results")
	assert.Contains(t, out, "plot: "+filepath.Join(e.plots, "ols.svg"))
	assert.FileExists(t, filepath.Join(e.plots, "ols.svg"))

	out, _, err = run(t, "history", "--config", e.cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "ols")
	assert.Contains(t, out, "line.csv")
}

func TestRunCommand_EnsembleFlags(t *testing.T) {
	e := setup(t)
	out, _, err := run(t, "run", "--config", e.cfg, "-f", e.csv, "--x", "x", "--y", "group",
		"-p", "rf", "--estimators", "5", "--max-depth", "3", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Random Forest Classification Results")

	_, logs, err := run(t, "run", "--config", e.cfg, "-f", e.csv, "--x", "x", "--y", "y", "-p", "rf", "--estimators", "2000")
	require.Error(t, err)
	assert.ErrorIs(t, err, manager.ErrInput)
	assert.Contains(t, logs, "between 1 and 1000")
}

func TestRunCommand_Errors(t *testing.T) {
	e := setup(t)
	_, _, err := run(t, "run", "--config", e.cfg, "-f", e.csv, "--x", "x", "--y", "y", "-p", "lasso")
	assert.ErrorIs(t, err, manager.ErrUnsupported)

	_, _, err = run(t, "run", "--config", e.cfg, "-f", e.csv, "--x", "x", "-p", "ols")
	assert.ErrorIs(t, err, manager.ErrSelection)

	_, _, err = run(t, "run", "--config", e.cfg, "-f", filepath.Join(t.TempDir(), "missing.csv"), "--x", "x", "--y", "y")
	assert.ErrorIs(t, err, manager.ErrInput)

	_, _, err = run(t, "run", "--config", e.cfg, "-f", e.csv, "--x", "x", "--y", "y", "--prep", "explode")
	assert.ErrorIs(t, err, manager.ErrInput)
}

func TestInspectCommand(t *testing.T) {
	e := setup(t)
	out, _, err := run(t, "inspect", "--config", e.cfg, "-f", e.csv, "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "30 rows")
	assert.Contains(t, out, "group")
	assert.Contains(t, out, "low")
}

func TestConfigCommand(t *testing.T) {
	out, _, err := run(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "random_state: 42")

	path := filepath.Join(t.TempDir(), "conf", "modelgui.yaml")
	out, _, err = run(t, "config", "--write", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o644))
	_, logs, err := run(t, "inspect", "--config", path, "-f", "x.csv")
	require.Error(t, err)
	assert.Contains(t, logs, "invalid config")
}
