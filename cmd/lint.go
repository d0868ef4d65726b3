package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mjcusd/internal/linter"
)

func init() {
	rootCmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint [model.xml]",
	Short: "Translate a model and report dangling references and invalid physics layout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		res, err := readModel(cmd, path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		for _, e := range res.Unresolved {
			fmt.Fprintf(out, "error: %s\n", e)
		}
		diags := linter.Lint(res.Store)
		for _, d := range diags {
			fmt.Fprintf(out, "lint: %s\n", d)
		}
		if n := len(res.Unresolved) + len(diags); n > 0 {
			return fmt.Errorf("%d problem(s) found", n)
		}
		return nil
	},
}
