package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cdmgtri/niem-model-qa-sub000/results"
)

func reportCmd(opts *globalOptions) *cobra.Command {
	var (
		prefixes   []string
		severities []string
		issues     bool
	)

	cmd := &cobra.Command{
		Use:   "report <results.json>",
		Short: "Summarize a saved results file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(prefixes, severities)
			if err != nil {
				return err
			}

			catalog, err := results.NewCatalog()
			if err != nil {
				return err
			}
			if err := catalog.Reload(args[0], true); err != nil {
				return err
			}
			opts.logger.Debug("Reloaded results", "path", args[0], "tests", catalog.Len())

			writeReport(cmd.OutOrStdout(), catalog, filter, issues)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&prefixes, "prefix", "p", nil, "Only count issues in these namespace prefixes")
	cmd.Flags().StringSliceVarP(&severities, "severity", "s", nil, "Only include tests of these severities")
	cmd.Flags().BoolVar(&issues, "issues", true, "List the issues of failed tests")

	return cmd
}

func parseFilter(prefixes, severities []string) (results.Filter, error) {
	filter := results.Filter{Prefixes: prefixes}
	for _, s := range severities {
		sev, err := results.ParseSeverity(s)
		if err != nil {
			return results.Filter{}, err
		}
		filter.Severities = append(filter.Severities, sev)
	}
	return filter, nil
}

// writeReport prints one status line per test and, when issues is set, the
// issues of the failed tests.
func writeReport(out io.Writer, catalog *results.Catalog, filter results.Filter, issues bool) {
	counts := catalog.Count(filter)

	fmt.Fprintf(out, "%-32s %-8s %-8s %s\n", "TEST", "SEVERITY", "STATUS", "ISSUES")
	for _, t := range catalog.Tests() {
		if len(filter.Severities) > 0 && !slices.Contains(filter.Severities, t.Severity) {
			continue
		}
		fmt.Fprintf(out, "%-32s %-8s %-8s %d\n", t.ID, t.Severity, t.Status(filter.Prefixes...), len(t.IssuesFor(filter.Prefixes...)))
	}
	fmt.Fprintf(out, "\npass %d  fail %d  not run %d  issues %d\n", counts.Pass, counts.Fail, counts.NotRan, counts.Total())

	if prefixes := catalog.IssuePrefixes(); len(prefixes) > 0 {
		fmt.Fprintf(out, "prefixes with issues: %s\n", strings.Join(prefixes, ", "))
	}

	if !issues {
		return
	}
	list := catalog.Issues(filter)
	if len(list) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, issue := range list {
		line := fmt.Sprintf("%s\t%s", issue.TestID, issue.Label)
		if issue.ProblemValue != "" {
			line += fmt.Sprintf("\t%q", issue.ProblemValue)
		}
		if issue.Comments != "" {
			line += "\t" + issue.Comments
		}
		if issue.Location != "" {
			line += fmt.Sprintf("\t(%s)", location(issue))
		}
		fmt.Fprintln(out, line)
	}
}

func location(issue *results.Issue) string {
	parts := []string{issue.Location}
	if issue.Line != "" {
		parts = append(parts, issue.Line)
	}
	if issue.Position != "" {
		parts = append(parts, issue.Position)
	}
	return strings.Join(parts, ":")
}
