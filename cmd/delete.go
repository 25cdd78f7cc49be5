package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <dataset-id>",
	Short: "Delete a dataset",
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
		if err := st.Delete(cmd.Context(), ds.ID); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted dataset %s (%s)\n", ds.Name, ds.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
