package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"agenteval/internal/format"
	"agenteval/internal/loader"
)

var listCmd = &cobra.Command{
	Use:   "list <dir>",
	Short: "List the case studies in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	batch, err := loader.LoadDir(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(batch.Studies) == 0 && len(batch.Failures) == 0 {
		fmt.Fprintf(out, "no case studies in %s\n", args[0])
		return nil
	}

	tb := format.NewTable(format.ASCII)
	tb.Header("ID", "Title", "Source")
	tb.Columns(format.ColumnConfig{Number: 2, MaxWidth: 48})
	for _, ld := range batch.Studies {
		tb.Row(ld.Study.ID, ld.Study.Title, ld.Source)
	}
	fmt.Fprintln(out, tb.String())

	for _, f := range batch.Failures {
		fmt.Fprintf(out, "(unloadable) %s\n", f.Error())
	}
	return nil
}
