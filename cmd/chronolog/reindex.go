package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var reindexShowProgress bool

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from every recorded blob",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		var bar *progressbar.ProgressBar
		err := repo.Reindex(func(done, total int) {
			if !reindexShowProgress {
				return
			}
			if bar == nil {
				bar = progressbar.Default(int64(total), "reindexing")
			}
			bar.Set(done)
		})
		if err != nil {
			return err
		}
		fmt.Println("Reindex complete.")
		return nil
	},
}

func init() {
	reindexCmd.Flags().BoolVar(&reindexShowProgress, "progress", false, "show a progress bar")
	rootCmd.AddCommand(reindexCmd)
}
