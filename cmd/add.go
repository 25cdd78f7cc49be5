package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/ingest"
	"github.com/KaramelBytes/petroloom-cli/internal/notify"
	"github.com/KaramelBytes/petroloom-cli/internal/quality"
)

var (
	addProject   string
	addType      string
	addName      string
	addDelimiter string
	addDecimal   string
	addThousands string
	addSheetName string
	addSheetIdx  int
)

var addCmd = &cobra.Command{
	Use:   "add <file...>",
	Short: "Upload CSV, TSV, JSON or XLSX datasets into a project",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addName != "" && len(args) > 1 {
			return fmt.Errorf("--name can only be used with a single file")
		}
		p, err := loadProject(addProject, false)
		if err != nil {
			return err
		}
		opt := ingest.Options{Name: addName, SheetName: addSheetName, SheetIndex: addSheetIdx}
		if addType != "" {
			t, err := dataset.ParseType(addType)
			if err != nil {
				return err
			}
			opt.Type = t
		}
		if opt.Delimiter, err = parseSeparator("delimiter", addDelimiter, delimiterNames); err != nil {
			return err
		}
		if opt.DecimalSeparator, err = parseSeparator("decimal", addDecimal, decimalNames); err != nil {
			return err
		}
		if opt.ThousandsSeparator, err = parseSeparator("thousands", addThousands, thousandsNames); err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		n := notifier()
		for _, path := range args {
			start := time.Now()
			ds, err := ingest.LoadFile(path, opt)
			if err != nil {
				n.Notify(notify.Error("Upload", err, path))
				return fmt.Errorf("load %s: %w", path, err)
			}
			n.Notify(notify.UploadStarted(ds.Name))
			ds.UserID = currentUser()
			ds.ProjectID = p.ID
			id, err := st.Save(cmd.Context(), ds)
			if err != nil {
				n.Notify(notify.Error("Upload", err, ds.Name))
				return fmt.Errorf("save %s: %w", ds.Name, err)
			}
			recorder.ObserveStage("upload", start)
			rep := quality.Assess(ds.Data)
			recorder.QualityScore(ds.Name, rep.Score)
			logger.WithField("dataset_id", id).WithField("records", len(ds.Data)).Debug("dataset stored")
			n.Notify(notify.UploadComplete(ds.Name))
			fmt.Printf("  id: %s  type: %s  records: %d  quality: %.1f\n", id, ds.Type, len(ds.Data), rep.Score)
			for _, is := range rep.Issues {
				warnf("%s: %s", ds.Name, is)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addProject, "project", "p", "", "project name")
	addCmd.Flags().StringVar(&addType, "type", "", "dataset type: logs|seismic|production|core (default: guessed from file name)")
	addCmd.Flags().StringVar(&addName, "name", "", "dataset name (default: file name)")
	addCmd.Flags().StringVar(&addDelimiter, "delimiter", "", "CSV delimiter: ','|';'|'tab'|'|' (default: auto)")
	addCmd.Flags().StringVar(&addDecimal, "decimal", "", "decimal separator: '.'|'comma' (default: auto)")
	addCmd.Flags().StringVar(&addThousands, "thousands", "", "thousands separator: ','|'.'|'space' (default: auto)")
	addCmd.Flags().StringVar(&addSheetName, "sheet-name", "", "XLSX sheet name")
	addCmd.Flags().IntVar(&addSheetIdx, "sheet-index", 0, "XLSX sheet index, 1-based")
}
