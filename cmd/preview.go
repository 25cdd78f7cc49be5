package cmd

import (
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/petroloom-cli/internal/analysis"
	"github.com/KaramelBytes/petroloom-cli/internal/quality"
	"github.com/KaramelBytes/petroloom-cli/internal/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	pvOutputPath string
	pvSampleRows int
	pvMaxRows    int
	pvOutliers   bool
	pvOutlierThr float64
	pvJSON       bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <dataset-id>",
	Short: "Profile a dataset: schema, statistics, quality and sample rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		ds, err := getDataset(cmd.Context(), st, args[0])
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = pvSampleRows
		} else if cfg != nil && cfg.SampleRows > 0 {
			opt.SampleRows = cfg.SampleRows
		}
		if pvMaxRows >= 0 {
			opt.MaxRows = pvMaxRows
		}
		opt.Outliers = pvOutliers
		if pvOutlierThr > 0 {
			opt.OutlierThreshold = pvOutlierThr
		}
		rep := analysis.Preview(*ds, opt)

		var out []byte
		if pvJSON {
			b, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			out = append(b, '\n')
		} else {
			out = []byte(rep.Markdown())
		}
		if pvOutputPath != "" {
			if err := utils.SafeWriteFile(pvOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote preview to %s\n", pvOutputPath)
			return nil
		}
		fmt.Print(string(out))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <dataset-id>",
	Short: "Score a dataset's quality and list validation findings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		ds, err := getDataset(cmd.Context(), st, args[0])
		if err != nil {
			return err
		}
		rep := quality.Assess(ds.Data)
		recorder.QualityScore(ds.Name, rep.Score)
		v := quality.ValidateDataset(*ds)

		fmt.Printf("Dataset: %s (%s, %d records)\n", ds.Name, ds.Type, len(ds.Data))
		fmt.Printf("Quality score: %.1f/100\n", rep.Score)
		for _, is := range rep.Issues {
			warnf("%s", is)
		}
		outliers := quality.DetectOutliers(ds.Data)
		cols := make([]string, 0, len(outliers))
		for col := range outliers {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			if n := outliers[col]; n > 0 {
				fmt.Printf("  outliers in %s: %d\n", col, n)
			}
		}
		for _, m := range v.Messages {
			warnf("%s", m)
		}
		if v.Valid {
			okColor.Println("✓ Dataset is valid")
		} else {
			errColor.Println("✗ Dataset has validation findings")
		}
		if cfg != nil {
			if err := quality.Gate(rep, cfg.MinQualityScore); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(validateCmd)
	previewCmd.Flags().StringVarP(&pvOutputPath, "output", "o", "", "optional path to write the preview")
	previewCmd.Flags().IntVar(&pvSampleRows, "sample-rows", 5, "number of sample rows to include")
	previewCmd.Flags().IntVar(&pvMaxRows, "max-rows", 100000, "maximum rows to profile (0 = unlimited)")
	previewCmd.Flags().BoolVar(&pvOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	previewCmd.Flags().Float64Var(&pvOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	previewCmd.Flags().BoolVar(&pvJSON, "json", false, "emit the report as JSON instead of Markdown")
}
