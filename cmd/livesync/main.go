package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/livesync/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦  ┬┬  ┬┌─┐┌─┐┬ ┬┌┐┌┌─┐
  ║  │└┐┌┘├┤ └─┐└┬┘││││
  ╩═╝┴ └┘ └─┘└─┘ ┴ ┘└┘└─┘
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and reports a failure in the requested
// error format. Returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	format, _ := cmd.PersistentFlags().GetString("error-format")
	printError(stderr, err, format)
	return 1
}

// printError writes err as text or, for the json format, as a single JSON
// object. Errors without a code are reported as E205.
func printError(w io.Writer, err error, format string) {
	if format == "json" {
		fmt.Fprintln(w, errors.FromError(err, "E205").FormatJSON())
		return
	}
	errors.Print(w, err)
}

func newRootCmd() *cobra.Command {
	var (
		noColor     bool
		errorFormat string
	)

	rootCmd := &cobra.Command{
		Use:   "livesync",
		Short: "Follow a live thread from the command line",
		Long: `livesync keeps a local copy of a live discussion thread in sync
with the server and reports every change as it happens.

  • Posts are streamed character by character while being written
  • Missed updates are reconciled after every reconnect
  • Connection status and metrics are exposed for monitoring`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				errors.DisableColors()
			} else {
				errors.EnableColors()
			}
			switch errorFormat {
			case "text", "json":
				return nil
			default:
				return errors.New("E204").WithDetailf("Unknown error format %q; use text or json.", errorFormat)
			}
		},
	}

	f := rootCmd.PersistentFlags()
	f.BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "Disable colored error output")
	f.StringVar(&errorFormat, "error-format", "text", "Error output format: text or json")

	rootCmd.AddCommand(
		watchCmd(),
		errorsCmd(),
		versionCmd(),
	)
	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
