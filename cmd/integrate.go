package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/petroloom-cli/internal/export"
	"github.com/KaramelBytes/petroloom-cli/internal/quality"
)

var (
	intProject string
	intOutput  string
	intFormat  string
)

var integrateCmd = &cobra.Command{
	Use:   "integrate",
	Short: "Build the unified reservoir model from a project's normalized datasets",
	Long: `Integrate maps every normalized dataset of the project onto the unified
schema (id, timestamp, depth, pressure, temperature, porosity, permeability,
saturation, source, dataType) and exports the result. Datasets that are not
normalized are skipped. Use -o - to write to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := intFormat
		if format == "" && cfg != nil {
			format = cfg.ExportFormat
		}
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		p, err := loadProject(intProject, false)
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

		runner := newRunner()
		res, err := runner.Integrate(ctx, all)
		if err != nil {
			return err
		}
		for _, id := range res.Skipped {
			logger.WithField("dataset_id", id).Debug("skipped: not normalized")
		}
		if n := len(res.Skipped); n > 0 {
			warnf("%d datasets skipped because they are not normalized", n)
		}
		if v := quality.ValidateUnified(res.Records); !v.Valid {
			for _, m := range v.Messages {
				warnf("%s", m)
			}
		}

		if intOutput == "-" {
			return runner.Export(ctx, os.Stdout, "stdout", res.Records, f)
		}
		out := intOutput
		if out == "" {
			out = filepath.Join(p.RootDir(), f.DefaultFileName())
		}
		if err := runner.ExportFile(ctx, out, res.Records, f); err != nil {
			return err
		}
		sum := res.Summary()
		p.RecordIntegration(sum, out)
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Printf("Datasets: %d normalized  Records: %d  Data types: %d\n", sum.NormalizedDatasets, sum.Records, sum.DataTypes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(integrateCmd)
	integrateCmd.Flags().StringVarP(&intProject, "project", "p", "", "project name")
	integrateCmd.Flags().StringVarP(&intOutput, "output", "o", "", "output file (default: <project>/unified_reservoir_model.<format>)")
	integrateCmd.Flags().StringVar(&intFormat, "format", "", "json|csv (default from config)")
}
