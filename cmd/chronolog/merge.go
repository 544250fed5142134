package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <base> <ours> <theirs>",
	Short: "Three-way merge of three recorded revisions",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		result, err := repo.Merge(args[0], args[1], args[2])
		if err != nil {
			return err
		}

		fmt.Print(result.Content)
		if !result.Success {
			color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "\n%d conflict(s)\n", len(result.Conflicts))
			return fmt.Errorf("merge produced conflicts")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
