package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/OntoGround/internal/application/normalization"
	"github.com/turtacn/OntoGround/internal/intelligence/normalizer"
)

// NewAugmentCmd creates the augment command.
func NewAugmentCmd() *cobra.Command {
	var (
		input  string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "augment",
		Short: "Add unmatched surface forms from a normalized batch to the dictionary",
		Long: "Augment harvests every unmatched surface form from a normalized-fact file,\n" +
			"resolves it against the enabled reference vocabularies and adds it to the\n" +
			"dictionary, minting a CUSTOM id when no vocabulary knows it. A backup and\n" +
			"checksum manifest are written before the dictionary is replaced.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
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

			aug, err := engine.Augmenter()
			if err != nil {
				return err
			}
			summary, err := aug.AugmentFromFile(ctx, input, dryRun)
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd, summary)
			}
			printAugmentation(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "normalized-fact JSON file [REQUIRED]")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview the changes without touching the dictionary")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// NewUnmatchedCmd creates the unmatched command.
func NewUnmatchedCmd() *cobra.Command {
	var (
		input string
		top   int
	)

	cmd := &cobra.Command{
		Use:   "unmatched",
		Short: "Report unmatched surface forms of a normalized batch by frequency",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			facts, err := normalization.ReadNormalizedFile(input)
			if err != nil {
				return err
			}
			h := normalizer.Harvest(facts)
			rep := buildUnmatchedReport(h, top)

			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd, rep)
			}
			printUnmatched(cmd, h, rep)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "normalized-fact JSON file [REQUIRED]")
	cmd.Flags().IntVar(&top, "top", 0, "show at most N entries per category (0 shows all)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

//Personal.AI order the ending
