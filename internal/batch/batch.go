// Package batch runs calculator operations listed in a CSV file.
//
// The CSV has a header row and an "operation" column. "calc" rows read the
// "expression" column and "ris" rows read "a" and "b". Every other column is
// carried through as an input. Output rows keep the input order.
package batch

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/umlcalc"
	"github.com/njchilds90/umlcalc/internal/logging"
	"github.com/njchilds90/umlcalc/ris"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Row is the outcome of one CSV record.
type Row struct {
	Operation string            `json:"operation"`
	Inputs    map[string]string `json:"inputs"`
	Result    interface{}       `json:"result"`
	Status    string            `json:"status"`
}

// Summary counts rows by status.
type Summary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Errors  int `json:"errors"`
}

// Processor evaluates batch files. The zero value is usable: it runs one
// worker, uses the default rule set and does not log.
type Processor struct {
	Workers int
	Engine  *ris.Engine
	Logger  *logging.Logger
}

// Process reads every record from r and evaluates them concurrently. A row
// that fails is reported with StatusError; only malformed CSV or a cancelled
// context fail the whole batch.
func (p *Processor) Process(ctx context.Context, r io.Reader) ([]Row, error) {
	records, header, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	engine := p.Engine
	if engine == nil {
		engine = ris.New()
	}
	logger := p.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	start := time.Now()
	rows := make([]Row, len(records))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			rows[i] = evaluate(engine, header, rec)
			if rows[i].Status == StatusError {
				logger.Debug("batch row failed", "row", i+1, "operation", rows[i].Operation, "error", rows[i].Result)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	s := Summarize(rows)
	logger.Info("batch processed", "rows", s.Total, "success", s.Success, "errors", s.Errors, "duration", time.Since(start))
	return rows, nil
}

func readRecords(r io.Reader) ([][]string, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("batch: empty input, expected a header row")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("batch: read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("batch: read records: %w", err)
	}
	return records, header, nil
}

func evaluate(engine *ris.Engine, header, rec []string) Row {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(rec) {
			fields[name] = rec[i]
		} else {
			fields[name] = ""
		}
	}
	op := strings.ToLower(strings.TrimSpace(fields["operation"]))
	inputs := make(map[string]string, len(fields))
	for k, v := range fields {
		if k != "operation" {
			inputs[k] = v
		}
	}
	row := Row{Operation: op, Inputs: inputs}

	fail := func(err error) Row {
		row.Result = err.Error()
		row.Status = StatusError
		return row
	}

	switch op {
	case "calc":
		ans, err := umlcalc.Calc(fields["expression"])
		if err != nil {
			return fail(err)
		}
		row.Result = ans.Value()
	case "ris":
		a, err := parseOperand(fields, "a")
		if err != nil {
			return fail(err)
		}
		b, err := parseOperand(fields, "b")
		if err != nil {
			return fail(err)
		}
		row.Result = engine.Evaluate(a, b).Value
	default:
		return fail(fmt.Errorf("Unknown operation: %s", op))
	}
	row.Status = StatusSuccess
	return row
}

// parseOperand treats a missing or blank operand as 0.
func parseOperand(fields map[string]string, name string) (float64, error) {
	s := strings.TrimSpace(fields[name])
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", name, s)
	}
	return v, nil
}

// Summarize counts successes and errors.
func Summarize(rows []Row) Summary {
	s := Summary{Total: len(rows)}
	for _, r := range rows {
		if r.Status == StatusSuccess {
			s.Success++
		} else {
			s.Errors++
		}
	}
	return s
}

// WriteJSON writes rows as a JSON array with two-space indentation.
func WriteJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
