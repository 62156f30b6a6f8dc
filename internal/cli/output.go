package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wesleyzhao/duck-game/internal/engine"
)

var titleCaser = cases.Title(language.English)

// printResult renders an execution result in the requested format.
func printResult(w io.Writer, format string, res *engine.Result) error {
	if format == "json" {
		return printJSON(w, res)
	}

	if !res.Success {
		fmt.Fprintf(w, "error: %s\n", res.Error)
		return nil
	}
	fmt.Fprintln(w, res.Message)
	for _, c := range res.Changes {
		fmt.Fprintf(w, "  %s: %s\n", titleCaser.String(c.Kind), c.Description)
	}
	return nil
}

// printEntries renders journal or history entries in the requested format.
func printEntries(w io.Writer, format string, entries []engine.Entry) error {
	if format == "json" {
		return printJSON(w, entries)
	}

	for _, e := range entries {
		status := "ok"
		if !e.Result.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "%s  %s  [%s, %d changes]  %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.ID,
			status,
			len(e.Result.Changes),
			firstLine(e.UserInput),
		)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i] + " ..."
		}
	}
	return s
}
