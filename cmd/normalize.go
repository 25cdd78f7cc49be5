package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/normalize"
	"github.com/KaramelBytes/petroloom-cli/internal/pipeline"
	"github.com/KaramelBytes/petroloom-cli/internal/store"
)

var (
	normProject  string
	normMethod   string
	normForce    bool
	normWorkers  int
	normDatasets []string
	normRedo     bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize the numeric columns of a project's datasets",
	Long: `Normalize rescales every numeric column (as typed in the first record) of
each dataset. Methods: zscore, minmax, robust (median/IQR) and quantile
(empirical CDF). Results replace the stored rows; the originals are not kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		method := normMethod
		if method == "" && cfg != nil {
			method = cfg.DefaultMethod
		}
		m, err := dataset.ParseMethod(method)
		if err != nil {
			return err
		}
		p, err := loadProject(normProject, false)
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
		targets := selectDatasets(all, normDatasets)
		var todo []dataset.Dataset
		for _, ds := range targets {
			if ds.Normalized && !normRedo {
				fmt.Printf("  skipping %s: already normalized with %s (use --renormalize)\n", ds.Name, ds.NormalizationMethod)
				continue
			}
			todo = append(todo, ds)
		}
		if len(todo) == 0 {
			fmt.Println("(nothing to normalize)")
			return nil
		}
		info := normalize.Describe(m)
		fmt.Printf("Method: %s (%s)\n", info.Label, info.Formula)

		runner := newRunner(pipeline.WithForce(normForce), pipeline.WithWorkers(normWorkers))
		out, err := runner.Normalize(ctx, todo, m)
		if err != nil {
			return err
		}
		saved := 0
		for _, ds := range out {
			if !ds.Normalized || ds.NormalizationMethod != m {
				continue
			}
			if err := st.Update(ctx, ds.ID, store.NormalizedPatch(ds)); err != nil {
				return fmt.Errorf("save %s: %w", ds.Name, err)
			}
			saved++
		}
		if saved < len(todo) {
			warnf("%d of %d datasets left unchanged", len(todo)-saved, len(todo))
		}
		return nil
	},
}

// selectDatasets keeps the datasets whose id or name is in ids; an empty
// selection keeps everything.
func selectDatasets(all []dataset.Dataset, ids []string) []dataset.Dataset {
	if len(ids) == 0 {
		return all
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []dataset.Dataset
	for _, ds := range all {
		if want[ds.ID] || want[ds.Name] {
			out = append(out, ds)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().StringVarP(&normProject, "project", "p", "", "project name")
	normalizeCmd.Flags().StringVarP(&normMethod, "method", "m", "", "zscore|minmax|robust|quantile (default from config)")
	normalizeCmd.Flags().BoolVar(&normForce, "force", false, "normalize even when quality is below min_quality_score")
	normalizeCmd.Flags().IntVar(&normWorkers, "workers", 0, "datasets processed in parallel (default from config)")
	normalizeCmd.Flags().StringSliceVar(&normDatasets, "dataset", nil, "limit to these dataset ids or names (repeatable)")
	normalizeCmd.Flags().BoolVar(&normRedo, "renormalize", false, "normalize datasets that are already normalized")
}
