package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mjcusd/internal/config"
	"github.com/agentic-research/mjcusd/internal/scene"
	"github.com/agentic-research/mjcusd/internal/translate"
)

func init() {
	convertCmd.Flags().StringP("format", "f", config.FormatUSDA, "Output format: usda, json or sqlite")
	convertCmd.Flags().StringP("output", "o", "-", "Output file (- for stdout)")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert [model.xml]",
	Short: "Translate an MJCF model and write the scene",
	Long: `Translate an MJCF model and write the scene as a USDA text layer, a JSON
document or a SQLite database. The model is read from stdin when no file is
given or the file is "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		res, err := readModel(cmd, path)
		if err != nil {
			return err
		}
		if err := writeScene(cmd.OutOrStdout(), res, cfg.Format, cfg.Output); err != nil {
			return err
		}
		config.Logger(cmd.Context()).Debug("converted",
			"model", path,
			"format", cfg.Format,
			"prims", res.Store.Len(),
			"warnings", len(res.Warnings))
		for _, e := range res.Unresolved {
			config.Logger(cmd.Context()).Error("actuator dropped", "error", e)
		}
		return checkStrict(cmd, res)
	},
}

// writeScene serializes res in format to output, or to stdout for "-".
func writeScene(stdout io.Writer, res *translate.Result, format, output string) error {
	if format == config.FormatSQLite {
		_ = os.Remove(output)
		return scene.WriteSQLite(output, res.Store)
	}

	w := stdout
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	switch format {
	case config.FormatUSDA:
		return scene.WriteUSDA(w, res.Store)
	case config.FormatJSON:
		_, err := fmt.Fprintln(w, scene.ToJSON(res.Store))
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}
