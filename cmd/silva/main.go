// Command silva generates synthetic datasets, trains gradient-boosted trees
// on them and writes XGBoost-compatible models with their inputs and raw
// predictions for cross-implementation testing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alexflint/go-arg"

	"github.com/lucidfrontier45/silva/export"
	"github.com/lucidfrontier45/silva/pkg/log"
	"github.com/lucidfrontier45/silva/visualize"
)

type genCmd struct {
	Variant  string `arg:"--variant" default:"sample" help:"preset to run: sample or test"`
	Config   string `arg:"--config" help:"YAML run configuration; overrides --variant"`
	Root     string `arg:"--root" help:"output root directory"`
	Verify   bool   `arg:"--verify" help:"reload every model after writing and check its predictions"`
	Progress bool   `arg:"--progress" help:"show a boosting progress bar per task"`
}

type verifyCmd struct {
	Variant string  `arg:"--variant" default:"sample" help:"preset whose artifacts to check: sample or test"`
	Config  string  `arg:"--config" help:"YAML run configuration; overrides --variant"`
	Root    string  `arg:"--root" help:"artifact root directory"`
	Tol     float64 `arg:"--tol" default:"1e-5" help:"largest accepted absolute difference"`
}

type plotCmd struct {
	Dir string `arg:"positional,required" help:"exported task directory"`
	Out string `arg:"--out" help:"image file; defaults to <task>.png in the working directory"`
}

type args struct {
	Gen      *genCmd    `arg:"subcommand:gen" help:"generate datasets, train and write artifacts"`
	Verify   *verifyCmd `arg:"subcommand:verify" help:"check written artifacts against their models"`
	Plot     *plotCmd   `arg:"subcommand:plot" help:"plot a task's raw predictions"`
	LogLevel string     `arg:"--log-level,env:SILVA_LOG_LEVEL" help:"debug, info, warn or error"`
}

func (args) Description() string {
	return "Export XGBoost reference models, features and raw predictions."
}

func (args) Version() string {
	return "silva 0.1.0"
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand: gen, verify or plot")
	}
	if err := run(a); err != nil {
		log.GetLogger().Error("silva failed", err)
		os.Exit(1)
	}
}

func run(a args) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case a.Gen != nil:
		cfg, err := resolveConfig(a.Gen.Variant, a.Gen.Config, a.Gen.Root)
		if err != nil {
			return err
		}
		closer, err := setupLogging(cfg.Log, a.LogLevel)
		if err != nil {
			return err
		}
		defer closer()
		if a.Gen.Progress {
			cfg.ShowProgress = true
		}
		return generate(ctx, cfg, a.Gen.Verify)

	case a.Verify != nil:
		cfg, err := resolveConfig(a.Verify.Variant, a.Verify.Config, a.Verify.Root)
		if err != nil {
			return err
		}
		closer, err := setupLogging(cfg.Log, a.LogLevel)
		if err != nil {
			return err
		}
		defer closer()
		return verify(cfg, a.Verify.Tol)

	case a.Plot != nil:
		closer, err := setupLogging(export.LogConfig{Level: "info"}, a.LogLevel)
		if err != nil {
			return err
		}
		defer closer()
		out := a.Plot.Out
		if out == "" {
			out = plotPath(a.Plot.Dir)
		}
		if err := visualize.PlotDir(a.Plot.Dir, out); err != nil {
			return err
		}
		log.GetLogger().Info("Plot written", log.PathKey, out)
	}
	return nil
}

// resolveConfig loads path when set, else the named preset, then applies
// the root override.
func resolveConfig(variant, path, root string) (export.Config, error) {
	var (
		cfg export.Config
		err error
	)
	if path != "" {
		cfg, err = export.LoadConfig(path)
	} else {
		cfg, err = export.Preset(variant)
	}
	if err != nil {
		return export.Config{}, err
	}
	if root != "" {
		cfg.Root = root
	}
	return cfg, cfg.Validate()
}

// setupLogging installs the global logger. A non-empty override wins over
// the configured level.
func setupLogging(lc export.LogConfig, override string) (func(), error) {
	if override != "" {
		lc.Level = override
	}
	w, c := lc.Writer()
	if err := log.SetupLogger(lc.Level, w); err != nil {
		c.Close()
		return nil, err
	}
	return func() { c.Close() }, nil
}

func generate(ctx context.Context, cfg export.Config, check bool) error {
	e, err := export.NewExporter(cfg)
	if err != nil {
		return err
	}
	artifacts, err := e.Run(ctx)
	if err != nil {
		return err
	}
	for _, a := range artifacts {
		fmt.Printf("%s: %s %s %s\n", a.Task.Name, a.ModelPath, a.XPath, a.YPath)
	}
	if check {
		return verify(cfg, export.DefaultTolerance)
	}
	return nil
}

func verify(cfg export.Config, tol float64) error {
	reports, err := export.VerifyConfig(cfg, tol)
	if err != nil {
		return err
	}
	for _, r := range reports {
		fmt.Printf("%s: %s rows=%d outputs=%d max_abs_diff=%g\n", r.Dir, r.Objective, r.Rows, r.Outputs, r.MaxAbsDiff)
	}
	return nil
}

func plotPath(dir string) string {
	return filepath.Base(filepath.Clean(dir)) + ".png"
}
