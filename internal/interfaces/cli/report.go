package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	otypes "github.com/turtacn/OntoGround/pkg/types/ontology"
)

// batchOutput is the JSON shape of the normalize command.
type batchOutput struct {
	otypes.BatchReport
	OutputPath   string                      `json:"output_path"`
	Augmentation *otypes.AugmentationSummary `json:"augmentation,omitempty"`
}

func printBatchReport(cmd *cobra.Command, report otypes.BatchReport, outputPath string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Normalization summary:")
	fmt.Fprintf(out, "  Total facts: %d\n", report.Summary.Total)

	rows := make([][]string, 0, 5)
	for _, r := range report.Summary.Rows() {
		rows = append(rows, []string{r.Field, strconv.Itoa(r.Tally.Matched), strconv.Itoa(r.Tally.Unmatched)})
	}
	fmt.Fprint(out, FormatTable([]string{"FIELD", "MATCHED", "UNMATCHED"}, rows))

	if len(report.Skipped) > 0 {
		fmt.Fprintf(out, "\nSkipped %d fact(s):\n", len(report.Skipped))
		for _, s := range report.Skipped {
			field := s.Field
			if field == "" {
				field = "-"
			}
			fmt.Fprintf(out, "  #%d  %s  %s\n", s.Index, field, s.Reason)
		}
	}
	if outputPath != "" {
		fmt.Fprintf(out, "\nNormalized facts saved to: %s\n", outputPath)
	}
}

func printAugmentation(cmd *cobra.Command, s *otypes.AugmentationSummary) {
	out := cmd.OutOrStdout()
	mode := "applied"
	if s.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(out, "Augmentation %s (run %s)\n", mode, s.RunID)

	var rows [][]string
	for _, cat := range otypes.Categories() {
		c := s.PerCategory[cat]
		if c.Count() == 0 {
			continue
		}
		for _, a := range c.AddedViaExternalMatch {
			rows = append(rows, []string{string(cat), "external", a.SurfaceForm, a.ConceptID, a.Label})
		}
		for _, a := range c.AddedAsSynonym {
			rows = append(rows, []string{string(cat), "synonym", a.SurfaceForm, a.ConceptID, a.Label})
		}
		for _, a := range c.AddedAsNewConcept {
			rows = append(rows, []string{string(cat), "minted", a.SurfaceForm, a.ConceptID, a.Label})
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "  Nothing to add; every surface form is already grounded.")
		return
	}
	fmt.Fprint(out, FormatTable([]string{"CATEGORY", "SOURCE", "SURFACE FORM", "CONCEPT ID", "LABEL"}, rows))
	fmt.Fprintf(out, "  Total: %d\n", s.TotalAdded())

	switch {
	case s.DryRun:
		fmt.Fprintln(out, "Run again without the dry-run flag to apply these changes.")
	default:
		if s.BackupPath != "" {
			fmt.Fprintf(out, "Backup written to: %s\n", s.BackupPath)
		}
		fmt.Fprintln(out, "Re-run normalization to ground the new concepts.")
	}
}

// unmatchedReport is the JSON shape of the unmatched command.
type unmatchedReport struct {
	Total      int                                      `json:"total"`
	Categories map[otypes.Category][]otypes.SurfaceCount `json:"categories"`
}

func buildUnmatchedReport(h otypes.Harvest, top int) unmatchedReport {
	rep := unmatchedReport{Total: h.Total(), Categories: h.Frequencies()}
	if top > 0 {
		for cat, rows := range rep.Categories {
			if len(rows) > top {
				rep.Categories[cat] = rows[:top]
			}
		}
	}
	return rep
}

func printUnmatched(cmd *cobra.Command, h otypes.Harvest, rep unmatchedReport) {
	out := cmd.OutOrStdout()
	if rep.Total == 0 {
		fmt.Fprintln(out, "All surface forms matched.")
		return
	}

	cats := make([]otypes.Category, 0, len(rep.Categories))
	for cat := range rep.Categories {
		cats = append(cats, cat)
	}
	order := make(map[otypes.Category]int)
	for i, c := range otypes.Categories() {
		order[c] = i
	}
	sort.Slice(cats, func(i, j int) bool { return order[cats[i]] < order[cats[j]] })

	full := h.Frequencies()
	for _, cat := range cats {
		rows := rep.Categories[cat]
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(out, "Unmatched %s (%d unique, %d total):\n", cat, len(full[cat]), len(h[cat]))
		for _, r := range rows {
			fmt.Fprintf(out, "  [%3dx] %s\n", r.Count, r.Text)
		}
	}
}

//Personal.AI order the ending
