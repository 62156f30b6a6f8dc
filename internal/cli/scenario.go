package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyzhao/duck-game/internal/harness"
)

// NewScenarioCommand creates the "scenario" command: run one or more YAML
// scenario files and report pass/fail.
func NewScenarioCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario <file>...",
		Short: "Run YAML scenario files",
		Long: `Run each scenario file against a fresh deterministic engine and check
its expectations and final-state assertions. Exits nonzero if any
scenario fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				scenario, err := harness.LoadScenario(path)
				if err != nil {
					return err
				}
				result, err := harness.Run(scenario)
				if err != nil {
					return fmt.Errorf("scenario %s: %w", scenario.Name, err)
				}

				if opts.Format == "json" {
					if err := printJSON(out, result); err != nil {
						return err
					}
				} else if result.Passed {
					fmt.Fprintf(out, "PASS  %s (%d steps)\n", scenario.Name, len(result.Trace))
				} else {
					fmt.Fprintf(out, "FAIL  %s\n", scenario.Name)
					for _, f := range result.Failures {
						fmt.Fprintf(out, "      %s\n", f)
					}
				}
				if !result.Passed {
					failed++
				}
			}

			if failed > 0 {
				cmd.SilenceErrors = true
				cmd.SilenceUsage = true
				return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
			}
			return nil
		},
	}
	return cmd
}
