package cmd

import (
	"fmt"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/mjcusd/internal/scene"
)

func init() {
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query <model.xml> <jsonpath>",
	Short: "Evaluate a JSONPath expression over the translated scene",
	Example: `  mjcusd query robot.xml "$.prims[?(@.type == 'PhysicsRevoluteJoint')].path"
  mjcusd query robot.xml "$.prims[?(@.path == '/robot/base')].apiSchemas"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := readModel(cmd, args[0])
		if err != nil {
			return err
		}
		matches, err := scene.Query(res.Store, args[1])
		if err != nil {
			return err
		}
		if matches == nil {
			matches = []any{}
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), oj.JSON(matches, &oj.Options{Indent: 2, Sort: true}))
		return err
	},
}
