package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <digest> <file>",
	Short: "Restore file to the content of a recorded revision",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		if err := repo.Checkout(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Checked out %s to %s\n", args[1], args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkoutCmd)
}
