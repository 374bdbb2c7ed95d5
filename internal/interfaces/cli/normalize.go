package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OntoGround/internal/intelligence/normalizer"
)

// NewNormalizeCmd creates the normalize command.
func NewNormalizeCmd() *cobra.Command {
	var (
		input         string
		output        string
		minFuzzyScore float64
		autoAugment   bool
		augmentDryRun bool
	)

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Ground a validated fact batch against the concept dictionary",
		Long: "Normalize reads a fact batch (a bare list or an object keyed by triples,\n" +
			"validated_facts or extracted_facts), grounds every surface form and writes\n" +
			"{\"normalized_facts\": [...]} next to the input unless --out-file is given.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("min-fuzzy-score") {
				cliCtx.Config.Matching.MinFuzzyScore = minFuzzyScore
			}

			ctx, cancel := cliCtx.runContext(cmd.Context())
			defer cancel()

			engine, err := NewEngine(cliCtx.Config, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer engine.Close()

			if _, err := engine.Holder.Reload(ctx); err != nil {
				return err
			}
			res, err := engine.Normalization.NormalizeFile(ctx, input, output)
			if err != nil {
				return err
			}

			result := batchOutput{BatchReport: res.Report, OutputPath: res.OutputPath}
			if autoAugment || augmentDryRun {
				aug, err := engine.Augmenter()
				if err != nil {
					return err
				}
				harvest := normalizer.Harvest(res.Facts)
				cliCtx.Logger.Info("harvested unmatched surface forms", logging.Int("total", harvest.Total()))
				result.Augmentation, err = aug.Augment(ctx, harvest, augmentDryRun)
				if err != nil {
					return err
				}
			}

			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd, result)
			}
			printBatchReport(cmd, result.BatchReport, result.OutputPath)
			if result.Augmentation != nil {
				cmd.Println()
				printAugmentation(cmd, result.Augmentation)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "fact batch JSON file [REQUIRED]")
	f.StringVar(&output, "out-file", "", "normalized output path (default: <input stem>_normalized.json)")
	f.Float64Var(&minFuzzyScore, "min-fuzzy-score", normalizer.DefaultMinFuzzyScore, "minimum similarity for a fuzzy match, in (0, 1]")
	f.BoolVar(&autoAugment, "auto-augment", false, "add unmatched surface forms to the dictionary after normalizing")
	f.BoolVar(&augmentDryRun, "auto-augment-dry-run", false, "preview augmentation without saving (implies --auto-augment)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

//Personal.AI order the ending
