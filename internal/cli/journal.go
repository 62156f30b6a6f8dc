package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyzhao/duck-game/internal/journal"
)

// NewJournalCommand creates the "journal" command: list entries persisted
// by a repl session run with --journal.
func NewJournalCommand(opts *RootOptions) *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List persisted session entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return fmt.Errorf("--db is required")
			}
			j, err := journal.Open(dbPath)
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), opts.Format, entries)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the journal SQLite file")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to list (0 = all)")
	return cmd
}
