package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"agenteval/internal/display"
	"agenteval/internal/evaluate"
	"agenteval/internal/format"
	"agenteval/internal/loader"
	"agenteval/internal/logging"
	"agenteval/internal/retailer"
	"agenteval/internal/store"
)

var evaluateFlags struct {
	catalog  string
	format   string
	parallel int
	db       string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file-or-dir>",
	Short: "Evaluate case studies and print scorecards",
	Long: `Evaluate loads one case-study JSON document or every .json document
under a directory, scores each against the captured evidence, and prints
a per-case scorecard plus a summary table. Documents that fail to load
are reported and skipped; they never abort the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.catalog, "catalog", "", "Path to a retailer catalog YAML (default: built-in catalog)")
	f.StringVar(&evaluateFlags.format, "format", "text", "Output format (text, json, table, markdown)")
	f.IntVar(&evaluateFlags.parallel, "parallel", 1, "Number of parallel evaluation workers (1 = serial)")
	f.StringVar(&evaluateFlags.db, "db", "", "SQLite file to record evaluation runs in (optional)")
}

// jsonReport is the machine-readable shape of a batch evaluation.
type jsonReport struct {
	Cases    []jsonCase    `json:"cases"`
	Failures []jsonFailure `json:"failures,omitempty"`
}

type jsonCase struct {
	Source string          `json:"source"`
	CaseID string          `json:"case_id"`
	Result evaluate.Result `json:"result"`
}

type jsonFailure struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	logger := logging.New("evaluate")

	catalog, err := resolveCatalog(evaluateFlags.catalog)
	if err != nil {
		return err
	}
	switch evaluateFlags.format {
	case "text", "json", "table", "markdown":
	default:
		return fmt.Errorf("unknown format %q (want text, json, table, or markdown)", evaluateFlags.format)
	}

	batch, err := loadTarget(args[0])
	if err != nil {
		return err
	}
	logger.Info("loaded case studies",
		"target", args[0], "loaded", len(batch.Studies), "failures", len(batch.Failures))

	ev := evaluate.New(catalog)
	rows := make([]display.Row, len(batch.Studies))

	workers := evaluateFlags.parallel
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, ld := range batch.Studies {
		g.Go(func() error {
			rows[i] = display.Row{
				Source: ld.Source,
				Study:  ld.Study,
				Result: ev.Evaluate(ld.Study),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if evaluateFlags.db != "" {
		st, err := store.Open(evaluateFlags.db)
		if err != nil {
			return err
		}
		defer st.Close()
		for _, r := range rows {
			if _, err := st.SaveRun(r.Study.ID, r.Source, r.Study.Title, r.Result); err != nil {
				return fmt.Errorf("record run for %s: %w", r.Study.ID, err)
			}
		}
		logger.Info("recorded evaluation runs", "db", evaluateFlags.db, "count", len(rows))
	}

	switch evaluateFlags.format {
	case "json":
		report := jsonReport{Cases: make([]jsonCase, len(rows))}
		for i, r := range rows {
			report.Cases[i] = jsonCase{Source: r.Source, CaseID: r.Study.ID, Result: r.Result}
		}
		for _, f := range batch.Failures {
			report.Failures = append(report.Failures, jsonFailure{
				Source: f.Source,
				Kind:   string(f.Kind),
				Error:  f.Err.Error(),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "table", "markdown":
		mode := format.ASCII
		if evaluateFlags.format == "markdown" {
			mode = format.Markdown
		}
		tb := format.NewTable(mode)
		tb.Header("ID", "Title", "Best", "Chosen", "Qualified", "Best?", "Budget", "Left")
		tb.Columns(
			format.ColumnConfig{Number: 2, MaxWidth: 40},
			format.ColumnConfig{Number: 3, Align: format.AlignRight},
			format.ColumnConfig{Number: 4, Align: format.AlignRight},
			format.ColumnConfig{Number: 8, Align: format.AlignRight},
		)
		for _, r := range rows {
			res := r.Result
			tb.Row(r.Study.ID, r.Study.Title,
				format.Money(res.BestPriceUSD), format.Money(res.ChosenPriceUSD),
				format.Mark(res.ChoiceQualified), format.Mark(res.FoundBestPrice),
				format.Mark(res.WithinBudget), format.Money(res.MoneyLeftUSD))
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, tb.String())
		if len(batch.Failures) > 0 {
			for _, f := range batch.Failures {
				fmt.Fprintf(out, "(unloadable) %s\n", f.Error())
			}
		}
	default:
		out := cmd.OutOrStdout()
		for _, r := range rows {
			fmt.Fprintln(out, display.Scorecard(r.Study, r.Result))
		}
		if len(rows) > 1 {
			fmt.Fprintln(out, display.Summary(rows))
		}
		if len(batch.Failures) > 0 {
			msgs := make([]string, len(batch.Failures))
			for i, f := range batch.Failures {
				msgs[i] = f.Error()
			}
			fmt.Fprintln(out, display.Failures(msgs))
		}
	}

	if len(batch.Studies) == 0 && len(batch.Failures) > 0 {
		return fmt.Errorf("no case study loaded from %s", args[0])
	}
	return nil
}

// loadTarget loads a single .json file or a whole directory into a batch.
func loadTarget(path string) (loader.Batch, error) {
	info, err := os.Stat(path)
	if err != nil {
		return loader.Batch{}, err
	}
	if info.IsDir() {
		return loader.LoadDir(path)
	}
	if !strings.HasSuffix(path, ".json") {
		return loader.Batch{}, fmt.Errorf("%s: not a .json document", path)
	}
	var batch loader.Batch
	cs, lerr := loader.LoadFile(path)
	if lerr != nil {
		batch.Failures = append(batch.Failures, *lerr)
		return batch, nil
	}
	batch.Studies = append(batch.Studies, loader.Loaded{Source: path, Study: cs})
	return batch, nil
}

func resolveCatalog(path string) (*retailer.Catalog, error) {
	if path == "" {
		return retailer.Default(), nil
	}
	return retailer.LoadFile(path)
}
