package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chronolog/chronolog/internal/ignore"
)

var ignoreCmd = &cobra.Command{
	Use:   "ignore",
	Short: "Inspect or create the .chronologignore file",
}

var ignoreShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the repository's ignore file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		root := repo.Root()
		repo.Close()

		data, err := os.ReadFile(filepath.Join(root, ignore.IgnoreFileName))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var ignoreInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default ignore file, without overwriting an existing one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		root := repo.Root()
		repo.Close()

		path := filepath.Join(root, ignore.IgnoreFileName)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", ignore.IgnoreFileName)
		}
		return ignore.WriteDefault(path)
	},
}

func init() {
	ignoreCmd.AddCommand(ignoreShowCmd, ignoreInitCmd)
	rootCmd.AddCommand(ignoreCmd)
}
