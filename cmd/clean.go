package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/petroloom-cli/internal/store"
)

var (
	cleanProject  string
	cleanDedupe   bool
	cleanDryRun   bool
	cleanDatasets []string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Fill missing numeric values with column medians and optionally drop duplicates",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(cleanProject, false)
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		all, err := projectDatasets(ctx, st, p)
		if err != nil {
			return err
		}
		targets := selectDatasets(all, cleanDatasets)
		if len(targets) == 0 {
			fmt.Println("(no datasets)")
			return nil
		}
		results, err := newRunner().Clean(ctx, targets, cleanDedupe)
		if err != nil {
			return err
		}
		for _, res := range results {
			ds := res.Dataset
			fmt.Printf("- %s: %d values imputed", ds.Name, len(res.Report.Imputations))
			if cleanDedupe {
				fmt.Printf(", %d duplicates removed", res.Removed)
			}
			fmt.Println()
			cols := make([]string, 0, len(res.Report.Fills))
			for c := range res.Report.Fills {
				cols = append(cols, c)
			}
			sort.Strings(cols)
			for _, c := range cols {
				fill := res.Report.Fills[c]
				fmt.Printf("    %s: median %g (mean %g)\n", c, fill.Median, fill.Mean)
			}
			if cleanDryRun || (len(res.Report.Imputations) == 0 && res.Removed == 0) {
				continue
			}
			if err := st.Update(ctx, ds.ID, store.DataPatch(ds.Data)); err != nil {
				return fmt.Errorf("save %s: %w", ds.Name, err)
			}
		}
		if cleanDryRun {
			fmt.Println("(dry run: nothing saved)")
		} else {
			okColor.Println("✓ Cleanup saved")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanProject, "project", "p", "", "project name")
	cleanCmd.Flags().BoolVar(&cleanDedupe, "dedupe", false, "drop rows identical to an earlier row (ignoring id)")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "report what would change without saving")
	cleanCmd.Flags().StringSliceVar(&cleanDatasets, "dataset", nil, "limit to these dataset ids or names (repeatable)")
}
