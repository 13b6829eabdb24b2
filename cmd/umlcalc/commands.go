package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/njchilds90/umlcalc"
	"github.com/njchilds90/umlcalc/internal/batch"
	"github.com/njchilds90/umlcalc/internal/config"
	"github.com/njchilds90/umlcalc/internal/diagram"
	"github.com/njchilds90/umlcalc/internal/history"
	"github.com/njchilds90/umlcalc/internal/render"
	"github.com/njchilds90/umlcalc/internal/ui"
	"github.com/njchilds90/umlcalc/ris"
)

var errHistoryDisabled = errors.New("history is disabled in the config file")

func newCalcCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "calc EXPRESSION",
		Short: "Evaluate an expression, or solve it for x when it contains '='",
		Example: `  umlcalc calc "2 + 3*5"
  umlcalc calc "x^2 = 4"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := strings.Join(args, " ")
			ans, err := umlcalc.Calc(expr)
			if err != nil {
				return err
			}
			a.printer.KeyValue("Result", ans.String(), ui.KeyValue)
			a.record(cmd.Context(), "calc", map[string]string{"expression": expr}, ans.String())
			return nil
		},
	}
}

func newRISCmd(a *app) *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:     "ris A B",
		Aliases: []string{"ris_calc"},
		Short:   "Apply the RIS operator to two numbers",
		Long: `Apply the RIS operator. The first matching rule decides the operation:

  1. either operand is zero                 -> a + b
  2. a equals b                             -> a * b
  3. b divides a and a > b                  -> a / b
  4. a > b and a or b is a multiple of 3    -> a * b
  5. otherwise                              -> a + b`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, y, err := parseOperands(args[0], args[1])
			if err != nil {
				return err
			}
			out := ris.Evaluate(x, y)
			result := umlcalc.FormatFloat(out.Value)

			a.printer.KeyValue("Operation", string(out.Rule), ui.KeyRISOp)
			a.printer.KeyValue("Result", result, ui.KeyRISResult)
			if explain {
				a.printer.Panel("Explanation", out.Explanation)
			}
			a.record(cmd.Context(), "ris", map[string]string{"a": args[0], "b": args[1]}, result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "show which rule fired and why")
	return cmd
}

func parseOperands(as, bs string) (float64, float64, error) {
	x, err := strconv.ParseFloat(as, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid operand %q: not a number", as)
	}
	y, err := strconv.ParseFloat(bs, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid operand %q: not a number", bs)
	}
	return x, y, nil
}

func newSolveCmd(a *app) *cobra.Command {
	var variable string
	cmd := &cobra.Command{
		Use:   "solve EQUATION",
		Short: "Solve an equation; an expression without '=' is set equal to zero",
		Example: `  umlcalc solve "x^2 - 5x + 6 = 0"
  umlcalc solve "sin(x) = 0.5"
  umlcalc solve --var y "2y + 1 = 7"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eq := strings.Join(args, " ")
			in, err := umlcalc.ParseInput(eq)
			if err != nil {
				return err
			}
			sol, err := umlcalc.Solve(in.Expr, variable,
				umlcalc.WithSearchRange(a.cfg.Solve.SearchMin, a.cfg.Solve.SearchMax))
			if err != nil {
				return err
			}
			a.printer.KeyValue("Solution", sol.String(), ui.KeyValue)
			a.record(cmd.Context(), "solve", map[string]string{"equation": eq}, sol.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&variable, "var", "x", "variable to solve for")
	return cmd
}

func newPlotCmd(a *app) *cobra.Command {
	var (
		xRange string
		points int
		output string
	)
	cmd := &cobra.Command{
		Use:   "plot EXPRESSION",
		Short: "Sample a function of x, save the samples as JSON and draw a text preview",
		Example: `  umlcalc plot "sin(x)"
  umlcalc plot "1/x" --range -5,5 --points 200`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := strings.Join(args, " ")
			f, err := umlcalc.Parse(expr)
			if err != nil {
				return err
			}
			xMin, xMax := a.cfg.Plot.XMin, a.cfg.Plot.XMax
			if xRange != "" {
				if xMin, xMax, err = parseRange(xRange); err != nil {
					return err
				}
			}
			if points == 0 {
				points = a.cfg.Plot.Points
			}
			set, err := umlcalc.Sample(f, xMin, xMax, points)
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("plot_%s.json", time.Now().Format("20060102150405"))
			}
			if err := writeJSONFile(output, set); err != nil {
				return err
			}

			a.printer.Println(ui.KeyHeading, fmt.Sprintf("f(x) = %s", f))
			preview, err := render.ASCII(set, a.cfg.Plot.Width, a.cfg.Plot.Height)
			if err != nil {
				a.printer.Println(ui.KeyWarning, err.Error())
			} else {
				a.printer.Panel("", preview)
			}
			a.printer.KeyValue("Samples saved to", output, ui.KeyValue)

			a.record(cmd.Context(), "plot", map[string]string{
				"expression": expr,
				"x_range":    fmt.Sprintf("%s,%s", umlcalc.FormatFloat(xMin), umlcalc.FormatFloat(xMax)),
			}, output)
			return nil
		},
	}
	cmd.Flags().StringVar(&xRange, "range", "", "x range as min,max (default from config)")
	cmd.Flags().IntVar(&points, "points", 0, "number of samples (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "sample file (default plot_<timestamp>.json)")
	return cmd
}

// parseRange parses "min,max".
func parseRange(s string) (float64, float64, error) {
	lo, hi, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid range %q: expected min,max", s)
	}
	xMin, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q: expected min,max", s)
	}
	xMax, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q: expected min,max", s)
	}
	return xMin, xMax, nil
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func newUMLCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "uml",
		Short: "Write Graphviz DOT diagrams",
		Long: `Write Graphviz DOT diagrams. Render them with, for example:

  dot -Tpng ris_rules.dot -o ris_rules.png`,
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "", "DOT file to write")

	write := func(cmd *cobra.Command, defaultName, dot string, inputs map[string]string) error {
		path := output
		if path == "" {
			path = defaultName
		}
		if err := os.WriteFile(path, []byte(dot), 0644); err != nil {
			return err
		}
		a.printer.Println(ui.KeySuccess, "Diagram written to "+path)
		a.record(cmd.Context(), "uml", inputs, path)
		return nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "rules",
			Short: "Diagram the RIS rule order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return write(cmd, "ris_rules.dot", diagram.Rules(ris.DefaultRules()),
					map[string]string{"command": "rules"})
			},
		},
		&cobra.Command{
			Use:   "ris A B",
			Short: "Diagram one RIS evaluation",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				x, y, err := parseOperands(args[0], args[1])
				if err != nil {
					return err
				}
				return write(cmd, "ris.dot", diagram.RIS(x, y, ris.Evaluate(x, y)),
					map[string]string{"command": "ris", "a": args[0], "b": args[1]})
			},
		},
		&cobra.Command{
			Use:   "equation EQUATION",
			Short: "Diagram an equation and its roots in x",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				eq := strings.Join(args, " ")
				in, err := umlcalc.ParseInput(eq)
				if err != nil {
					return err
				}
				var sol *umlcalc.Solution
				if s, err := umlcalc.Solve(in.Expr, "x"); err == nil {
					sol = &s
				} else {
					a.logger.Debug("equation diagram without roots", "equation", eq, "error", err)
				}
				return write(cmd, "equation.dot", diagram.Equation(in, sol),
					map[string]string{"command": "equation", "equation": eq})
			},
		},
		&cobra.Command{
			Use:   "function EXPRESSION",
			Short: "Diagram a function of x and its derivative",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				expr := strings.Join(args, " ")
				f, err := umlcalc.Parse(expr)
				if err != nil {
					return err
				}
				return write(cmd, "function.dot", diagram.Function(f),
					map[string]string{"command": "function", "expression": expr})
			},
		},
	)
	return cmd
}

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [NAME]",
		Short: "Show or change the colour theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range ui.ThemeNames() {
					marker := "  "
					if name == a.printer.Theme().Name {
						marker = "* "
					}
					a.printer.Println(ui.KeyInfo, marker+name)
				}
				return nil
			}

			th, ok := ui.LookupTheme(args[0])
			if !ok {
				return fmt.Errorf("theme '%s' not found (available: %s)", args[0], strings.Join(ui.ThemeNames(), ", "))
			}
			a.cfg.Theme = th.Name
			if err := config.Save(a.configPath, a.cfg); err != nil {
				return err
			}
			a.printer = ui.NewPrinter(a.out, th.Name, a.plain)
			a.printer.Println(ui.KeySuccess, "Theme changed to: "+th.Name)
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		format   string
		file     string
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "history [json|csv] [FILE]",
		Short: "Show, export or clear the calculation history",
		Example: `  umlcalc history
  umlcalc history json history.json
  umlcalc history --export csv --file history.csv
  umlcalc history --clear`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.history == nil {
				return errHistoryDisabled
			}
			ctx := cmd.Context()

			if clearAll {
				if err := a.history.Clear(ctx); err != nil {
					return err
				}
				a.printer.Println(ui.KeySuccess, "History cleared")
				return nil
			}

			if len(args) > 0 {
				format = args[0]
			}
			if len(args) > 1 {
				file = args[1]
			}

			entries, err := a.history.List(ctx)
			if err != nil {
				return err
			}
			if format == "" {
				printHistory(a.printer, entries)
				return nil
			}
			return exportHistory(a, entries, format, file)
		},
	}
	cmd.Flags().StringVar(&format, "export", "", "export format: json or csv")
	cmd.Flags().StringVar(&file, "file", "", "export file (default uml_calc_history_<timestamp>.<format>)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete every entry")
	return cmd
}

func printHistory(p *ui.Printer, entries []history.Entry) {
	if len(entries) == 0 {
		p.Println(ui.KeyInfo, "No calculations in history")
		return
	}
	p.Println(ui.KeyTitle, fmt.Sprintf("Calculation History (%d items)", len(entries)))
	for i, e := range entries {
		inputs, _ := json.Marshal(e.Inputs)
		p.Println(ui.KeyValue, fmt.Sprintf("%d. %s %s %s -> %s",
			i+1, e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Operation, inputs, e.Result))
	}
}

func exportHistory(a *app, entries []history.Entry, format, file string) error {
	var export func(io.Writer, []history.Entry) error
	switch strings.ToLower(format) {
	case "json":
		export = history.ExportJSON
	case "csv":
		export = history.ExportCSV
	default:
		return fmt.Errorf("unsupported export format %q (use json or csv)", format)
	}
	if file == "" {
		file = fmt.Sprintf("uml_calc_history_%s.%s", time.Now().Format("20060102_150405"), strings.ToLower(format))
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := export(f, entries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.printer.Println(ui.KeySuccess, fmt.Sprintf("History exported to %s", file))
	return nil
}

func newBatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "batch INPUT.csv [OUTPUT.json]",
		Short: "Run the calc and ris operations listed in a CSV file",
		Long: `Run the operations listed in a CSV file. The file needs a header row with an
"operation" column. "calc" rows read "expression"; "ris" rows read "a" and "b".

Results are written as JSON (default batch_results.json).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			p := &batch.Processor{Workers: a.cfg.Batch.Workers, Logger: a.logger}
			rows, err := p.Process(cmd.Context(), in)
			if err != nil {
				return err
			}

			outPath := "batch_results.json"
			if len(args) > 1 {
				outPath = args[1]
			}
			out, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := batch.WriteJSON(out, rows); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}

			sum := batch.Summarize(rows)
			a.printer.Println(ui.KeySuccess, fmt.Sprintf("Processed %d rows: %d succeeded, %d failed", sum.Total, sum.Success, sum.Errors))
			a.printer.KeyValue("Results saved to", outPath, ui.KeyValue)
			a.record(cmd.Context(), "batch", map[string]string{"input": args[0]}, outPath)
			return nil
		},
	}
}

const aboutText = `A calculator that combines standard mathematics with diagram generation.

Features:
- Exact rational arithmetic and symbolic simplification
- The RIS operator (Recursive Integration System)
- Polynomial, rational and numeric equation solving
- Function sampling with a text preview
- Graphviz diagrams of rules, equations and functions
- Persistent history and CSV batch processing`

func newAboutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "about",
		Short: "Describe the calculator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.printer.Panel("About UML Calculator", aboutText)
			return nil
		},
	}
}
