package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"agenteval/internal/format"
	"agenteval/internal/store"
)

var historyFlags struct {
	db       string
	markdown bool
}

var historyCmd = &cobra.Command{
	Use:   "history [case-id]",
	Short: "Show recorded evaluation runs from a results database",
	Long: `History reads runs recorded by 'evaluate --db'. With a case id it
prints every run for that case, oldest first. Without arguments it
lists the case ids present in the database.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.db, "db", "", "SQLite file written by 'evaluate --db'")
	f.BoolVar(&historyFlags.markdown, "markdown", false, "Render as a Markdown table")
	_ = historyCmd.MarkFlagRequired("db")
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := store.Open(historyFlags.db)
	if err != nil {
		return err
	}
	defer st.Close()

	mode := format.ASCII
	if historyFlags.markdown {
		mode = format.Markdown
	}
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		ids, err := st.CaseIDs()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(out, "no recorded runs")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	caseID := args[0]
	runs, err := st.History(caseID)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no recorded runs for %s", caseID)
	}

	tb := format.NewTable(mode)
	tb.Header("Run", "Recorded", "Best", "Chosen", "Qualified", "Best?", "Budget", "Left")
	tb.Columns(
		format.ColumnConfig{Number: 3, Align: format.AlignRight},
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
		format.ColumnConfig{Number: 8, Align: format.AlignRight},
	)
	for _, r := range runs {
		res := r.Result
		tb.Row(r.ID, r.CreatedAt,
			format.Money(res.BestPriceUSD), format.Money(res.ChosenPriceUSD),
			format.Mark(res.ChoiceQualified), format.Mark(res.FoundBestPrice),
			format.Mark(res.WithinBudget), format.Money(res.MoneyLeftUSD))
	}
	fmt.Fprintf(out, "%s  %s\n%s\n", caseID, runs[0].Title, tb.String())
	return nil
}
