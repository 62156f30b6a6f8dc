package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyzhao/duck-game/internal/engine"
	"github.com/wesleyzhao/duck-game/internal/journal"
)

// NewReplCommand creates the "repl" command: an interactive session where
// each line is one script execution committed to the history stack, plus
// the undo/redo meta-commands the chat panel exposes.
func NewReplCommand(opts *RootOptions) *cobra.Command {
	var journalPath string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive session with undo/redo",
		Long: `Read commands from stdin, one script per line. Meta-commands:
  undo      reverse the last committed command
  redo      re-apply the last undone command
  history   list committed commands
  clear     discard all history
  quit      exit the session`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.Config)
			if err != nil {
				return err
			}

			var j *journal.Journal
			if journalPath != "" {
				j, err = journal.Open(journalPath)
				if err != nil {
					return err
				}
				defer j.Close()
			}

			eng := engine.New(cfg.NewWorld(),
				engine.WithStepLimit(cfg.Engine.StepLimit),
				engine.WithMaxHistory(cfg.Engine.MaxHistory),
			)
			return runRepl(cmd, opts, eng, j)
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "", "persist committed entries to this SQLite file")
	return cmd
}

func runRepl(cmd *cobra.Command, opts *RootOptions, eng *engine.Engine, j *journal.Journal) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	// Scripts pasted into the repl can be long.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "quit", "exit":
			return nil
		case "undo":
			if eng.History().Undo() {
				fmt.Fprintln(out, "undone")
			} else {
				fmt.Fprintln(out, "nothing to undo")
			}
		case "redo":
			if eng.History().Redo() {
				fmt.Fprintln(out, "redone")
			} else {
				fmt.Fprintln(out, "nothing to redo")
			}
		case "history":
			if err := printEntries(out, opts.Format, eng.History().Entries()); err != nil {
				return err
			}
		case "clear":
			eng.History().Clear()
			fmt.Fprintln(out, "history cleared")
		default:
			if err := replExecute(cmd.Context(), out, opts, eng, j, line); err != nil {
				return err
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func replExecute(ctx context.Context, out io.Writer, opts *RootOptions, eng *engine.Engine, j *journal.Journal, line string) error {
	res := eng.Execute(line)
	if res.Success {
		eng.History().AddEntry(line, res)
		if j != nil {
			entries := eng.History().Entries()
			if err := j.Append(ctx, entries[len(entries)-1]); err != nil {
				return fmt.Errorf("journal: %w", err)
			}
		}
	}
	return printResult(out, opts.Format, res)
}
