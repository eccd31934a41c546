package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/livesync/internal/errors"
)

func errorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "errors [code]",
		Short: "Explain error codes",
		Long: `List every error code the CLI can report, or explain one of them.

Examples:
  livesync errors
  livesync errors E301`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, code := range errors.Codes() {
					t, _ := errors.Lookup(code)
					fmt.Fprintf(out, "  %s  %-10s %s\n", code, t.Category, t.Message)
				}
				return nil
			}

			code := strings.ToUpper(args[0])
			t, ok := errors.Lookup(code)
			if !ok {
				return errors.Newf(errors.CategoryCLI, "Unknown error code %q", args[0]).
					WithSuggestion("Run 'livesync errors' to list all codes.")
			}
			fmt.Fprintf(out, "%s: %s (%s)\n\n  %s\n", code, t.Message, t.Category, t.Detail)
			return nil
		},
	}
}
