package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chronolog/chronolog"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new repository in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := chronolog.Init(repoPath)
		if err != nil {
			return err
		}
		defer repo.Close()
		fmt.Printf("Initialized empty ChronoLog repository in %s\n", repo.MetaDir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
