package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"mojifix/internal/version"
)

// errUsage marks a command line that could not be understood at all.
var errUsage = errors.New("missing <directory_or_file> argument")

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mojifix [flags] <directory_or_file>",
		Short: "Repair mojibake in markdown files",
		Long: `mojifix scans a directory tree (or a single file) for markdown files whose
text was mangled by a lossy decode and rewrites the known corrupted fragments
back to their intended characters.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			return nil
		},
		RunE:          runRepair,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.Flags().String("ext", "", "markdown file extension (default \".md\")")
	rootCmd.Flags().StringSlice("encodings", nil, "candidate encodings in priority order")
	rootCmd.Flags().Bool("dry-run", false, "report files that would change without writing them")
	rootCmd.Flags().String("format", "pretty", "summary format (pretty|json)")

	// Глобальные флаги
	rootCmd.PersistentFlags().String("config", "", "path to mojifix.toml (default: search upward from the target)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress per-file progress lines")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("ui", "off", "progress view for directory scans (auto|on|off)")
	rootCmd.PersistentFlags().String("trace", "", "write trace events to a file (\"-\" for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace verbosity (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to the given file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to the given file")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to the given file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return setupColor(cmd)
	}
	return rootCmd
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(disambiguateTarget(rootCmd, args))
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}
	if errors.Is(err, errUsage) {
		fmt.Fprintf(stderr, "Usage: %s\n", cmd.UseLine())
		return 1
	}
	fmt.Fprintf(stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), err)
	return 1
}

// disambiguateTarget rewrites a first positional argument that names both an
// existing path and a subcommand to "./name", so the path is repaired.
func disambiguateTarget(rootCmd *cobra.Command, args []string) []string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return args
		}
		if strings.HasPrefix(arg, "-") {
			if !strings.Contains(arg, "=") && takesValue(rootCmd, arg) {
				i++
			}
			continue
		}
		if !isSubcommand(rootCmd, arg) {
			return args
		}
		if _, err := os.Stat(arg); err != nil {
			return args
		}
		out := append([]string(nil), args...)
		out[i] = "." + string(filepath.Separator) + arg
		return out
	}
	return args
}

func takesValue(rootCmd *cobra.Command, arg string) bool {
	var f *pflag.Flag
	if name, ok := strings.CutPrefix(arg, "--"); ok {
		f = rootCmd.Flags().Lookup(name)
		if f == nil {
			f = rootCmd.PersistentFlags().Lookup(name)
		}
	} else if len(arg) == 2 {
		f = rootCmd.Flags().ShorthandLookup(arg[1:])
		if f == nil {
			f = rootCmd.PersistentFlags().ShorthandLookup(arg[1:])
		}
	}
	return f != nil && f.NoOptDefVal == ""
}

func isSubcommand(rootCmd *cobra.Command, name string) bool {
	if name == "help" {
		return true
	}
	for _, c := range rootCmd.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto", "":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
