package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read or write repository-local settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a repository-local config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		value, ok, err := repo.GetConfig(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("config key %q is not set", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a repository-local config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()
		return repo.SetConfig(args[0], args[1])
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every repository-local config value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		all, err := repo.AllConfig()
		if err != nil {
			return err
		}
		for k, v := range all {
			fmt.Printf("%s=%s\n", k, v)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}
