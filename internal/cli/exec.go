package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyzhao/duck-game/internal/config"
	"github.com/wesleyzhao/duck-game/internal/engine"
)

// NewExecCommand creates the "exec" command: run one script against a
// fresh world and print the result.
func NewExecCommand(opts *RootOptions) *cobra.Command {
	var inline string

	cmd := &cobra.Command{
		Use:   "exec [script-file]",
		Short: "Execute a script against a fresh world",
		Long: `Execute a script from a file (or -e) against a fresh world built from
the configuration. The process exits nonzero if the script fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readScript(inline, args)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(opts.Config)
			if err != nil {
				return err
			}

			eng := engine.New(cfg.NewWorld(),
				engine.WithStepLimit(cfg.Engine.StepLimit),
				engine.WithMaxHistory(cfg.Engine.MaxHistory),
			)
			res := eng.Execute(source)
			if err := printResult(cmd.OutOrStdout(), opts.Format, res); err != nil {
				return err
			}
			if !res.Success {
				// The result was already printed; signal failure without
				// repeating it.
				cmd.SilenceErrors = true
				cmd.SilenceUsage = true
				return fmt.Errorf("script failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inline, "eval", "e", "", "inline script source")
	return cmd
}

func readScript(inline string, args []string) (string, error) {
	switch {
	case inline != "" && len(args) > 0:
		return "", fmt.Errorf("pass either a script file or -e, not both")
	case inline != "":
		return inline, nil
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read script: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("a script file or -e is required")
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
