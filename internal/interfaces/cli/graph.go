package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/turtacn/OntoGround/internal/application/normalization"
)

// NewLoadGraphCmd creates the load-graph command.
func NewLoadGraphCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "load-graph",
		Short: "Merge a normalized batch into the Neo4j knowledge graph",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			facts, err := normalization.ReadNormalizedFile(input)
			if err != nil {
				return err
			}

			ctx, cancel := cliCtx.runContext(cmd.Context())
			defer cancel()

			engine, err := NewEngine(cliCtx.Config, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer engine.Close()

			sink, err := engine.GraphSink(ctx)
			if err != nil {
				return err
			}
			stats, err := sink.WriteFacts(ctx, facts)
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loaded %d fact(s)\n", stats.Facts)
			fmt.Fprint(out, FormatTable([]string{"KIND", "NAME", "COUNT"}, statRows(stats.Nodes, stats.Relationships)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "normalized-fact JSON file [REQUIRED]")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func statRows(nodes, rels map[string]int) [][]string {
	var rows [][]string
	add := func(kind string, m map[string]int) {
		names := make([]string, 0, len(m))
		for n := range m {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			rows = append(rows, []string{kind, n, fmt.Sprint(m[n])})
		}
	}
	add("node", nodes)
	add("relationship", rels)
	return rows
}

//Personal.AI order the ending
