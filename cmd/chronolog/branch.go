package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var branchFrom string

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "List branches, or manage them via subcommands",
	Args:  cobra.NoArgs,
	RunE:  printBranches,
}

var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List branches",
	Args:  cobra.NoArgs,
	RunE:  printBranches,
}

func printBranches(cmd *cobra.Command, args []string) error {
	repo := openRepo()
	defer repo.Close()

	info, err := repo.Branch()
	if err != nil {
		return err
	}
	for _, b := range info.Branches {
		marker := "  "
		if b.Name == info.Current {
			marker = "* "
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", marker, b.Name)
	}
	return nil
}

var branchCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new branch, defaulting to the current branch's head",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		b, err := repo.CreateBranch(args[0], branchFrom)
		if err != nil {
			return err
		}
		fmt.Printf("Created branch %s from %s\n", b.Name, b.ParentBranch)
		return nil
	},
}

var branchSwitchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Switch the active branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()
		return repo.SwitchBranch(args[0])
	},
}

var branchDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()
		return repo.DeleteBranch(args[0])
	},
}

func init() {
	branchCreateCmd.Flags().StringVar(&branchFrom, "from", "", "branch to copy the head from (default: current branch)")
	branchCmd.AddCommand(branchListCmd, branchCreateCmd, branchSwitchCmd, branchDeleteCmd)
	rootCmd.AddCommand(branchCmd)
}
