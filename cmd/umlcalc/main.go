// Command umlcalc is the terminal front end of the calculator: expression
// evaluation, RIS, equation solving, text plots, DOT diagrams, history and
// batch processing.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/njchilds90/umlcalc/internal/config"
	"github.com/njchilds90/umlcalc/internal/history"
	"github.com/njchilds90/umlcalc/internal/logging"
	"github.com/njchilds90/umlcalc/internal/ui"
)

func main() {
	a := &app{out: os.Stdout, errOut: os.Stderr}
	if err := execute(a, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// execute runs one command line and releases the app's resources whether or
// not the command succeeded.
func execute(a *app, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		a.report(err)
	}
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

// app carries what every command needs. It is populated by the root
// command's PersistentPreRunE and released by execute.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	plain      bool
	verbose    bool

	cfg     config.Config
	printer *ui.Printer
	logger  *logging.Logger
	history *history.Store
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "umlcalc",
		Short:         "A calculator with RIS, equation solving, plots and diagrams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.umlcalc/config.yaml)")
	root.PersistentFlags().BoolVar(&a.plain, "plain", false, "disable colours and boxes")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newCalcCmd(a),
		newRISCmd(a),
		newSolveCmd(a),
		newPlotCmd(a),
		newUMLCmd(a),
		newThemeCmd(a),
		newHistoryCmd(a),
		newBatchCmd(a),
		newAboutCmd(a),
	)
	return root
}

// setup loads configuration, builds the logger and printer, and opens the
// history store when history is enabled.
func (a *app) setup() error {
	path := a.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	a.configPath = path

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.printer = ui.NewPrinter(a.out, cfg.Theme, a.plain)

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Log.Dir,
		Service: "umlcalc",
		Quiet:   !a.verbose,
		Output:  a.errOut,
	})

	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(history.Options{
		Dir:    config.ExpandPath(a.cfg.History.Dir),
		Logger: a.logger.Slog(),
	})
	if err != nil {
		return err
	}
	a.history = store
	return nil
}

func (a *app) close() error {
	var err error
	if a.history != nil {
		err = a.history.Close()
		a.history = nil
	}
	if a.logger != nil {
		a.logger.Close()
		a.logger = nil
	}
	return err
}

// record stores one history entry. Failures are logged, never returned.
func (a *app) record(ctx context.Context, operation string, inputs map[string]string, result string) {
	if a.history == nil {
		return
	}
	if _, err := a.history.Add(ctx, operation, inputs, result); err != nil {
		a.logger.Warn("failed to record history", "operation", operation, "error", err)
	}
}

// report prints err in the danger style.
func (a *app) report(err error) {
	if a.printer != nil {
		a.printer.Error(err)
	} else {
		fmt.Fprintln(a.errOut, "Error:", err)
	}
	if a.logger != nil {
		a.logger.Debug("command failed", "error", err)
	}
}
