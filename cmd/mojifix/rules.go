package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mojifix/internal/repair"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules [path]",
		Short: "List the active replacement rules in application order",
		Long: `rules prints the structure and text tables that a run against path would
apply, including rules added by the nearest mojifix.toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			if _, err := os.Stat(target); err != nil {
				return err
			}
			file, err := loadConfigFor(cmd, target)
			if err != nil {
				return err
			}
			rules := repair.DefaultRules()
			if file != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "config: %s\n", file.Path)
				rules = file.Config.RuleSet()
			}
			printRules(cmd.OutOrStdout(), rules)
			return nil
		},
	}
}

func printRules(out io.Writer, rules repair.RuleSet) {
	heading := color.New(color.Bold)
	n := 0
	section := func(title string, table []repair.Rule) {
		fmt.Fprintln(out, heading.Sprint(title))
		for _, r := range table {
			n++
			fmt.Fprintf(out, "  %3d  %s -> %s\n", n, strconv.Quote(r.From), strconv.Quote(r.To))
		}
	}
	section("structure:", rules.Structure)
	section("text:", rules.Text)
	fmt.Fprintln(out, heading.Sprint("fenced blocks:"))
	fmt.Fprintf(out, "       %s -> %s inside ``` blocks\n", strconv.Quote(repair.MarkerPair), strconv.Quote("│"))
	fmt.Fprintln(out, heading.Sprint("cleanup:"))
	fmt.Fprintf(out, "       remove remaining %s\n", strconv.Quote(repair.MarkerPair))
}
