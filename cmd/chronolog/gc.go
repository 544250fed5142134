package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var gcDryRun bool

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete blobs under objects/ that no revision references",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		result, err := repo.GC(gcDryRun)
		if err != nil {
			return err
		}

		if gcDryRun {
			fmt.Printf("%d orphaned blob(s) found (dry run, nothing deleted)\n", result.Orphaned)
			return nil
		}
		fmt.Printf("%d orphaned blob(s) found, %d deleted\n", result.Orphaned, len(result.Removed))
		return nil
	},
}

func init() {
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "report orphaned blobs without deleting them")
	rootCmd.AddCommand(gcCmd)
}
