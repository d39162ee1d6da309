package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/powlang/powlang/pkg/help"
)

func newKeywordsCmd(c *cli) *cobra.Command {
	var ref bool
	cmd := &cobra.Command{
		Use:   "keywords [keyword|topic]",
		Short: "Show the keyword dictionary or a reference topic",
		Example: `  powlang keywords
  powlang keywords when
  powlang keywords diag
  powlang keywords --ref`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ref {
				fmt.Fprint(c.stdout, help.QUICKREF)
				return nil
			}
			if len(args) == 0 {
				for _, e := range help.Keywords {
					fmt.Fprintf(c.stdout, "%-8s %s\n         %s\n", e.Name, e.Description, e.Usage)
				}
				return nil
			}

			if e, ok := help.LookupKeyword(args[0]); ok {
				fmt.Fprintf(c.stdout, "%s: %s\n\nusage:\n  %s\n\nexample:\n%s\n",
					e.Name, e.Description, e.Usage, indent(e.Example, "  "))
				return nil
			}
			_, content, err := help.MatchTopic(args[0])
			if err != nil {
				return &exitError{code: exitUsage, err: fmt.Errorf("%w\navailable topics: %s", err, strings.Join(help.TopicList, ", "))}
			}
			fmt.Fprint(c.stdout, content)
			return nil
		},
	}
	cmd.Flags().BoolVar(&ref, "ref", false, "print the quick reference card")
	return cmd
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
