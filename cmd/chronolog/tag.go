package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage named pointers to revisions",
}

var tagDescription string

var tagCreateCmd = &cobra.Command{
	Use:   "create <name> [digest]",
	Short: "Create a tag, defaulting to the latest revision if digest is omitted",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		var digest string
		if len(args) == 2 {
			digest = args[1]
		}
		tag, err := repo.Tag(args[0], digest, tagDescription)
		if err != nil {
			return err
		}
		fmt.Printf("Created tag %s -> %s\n", tag.Name, tag.BlobDigest)
		return nil
	},
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		tags, err := repo.ListTags()
		if err != nil {
			return err
		}
		for _, t := range tags {
			fmt.Printf("%-20s %s  %s\n", t.Name, t.BlobDigest, t.Description)
		}
		return nil
	},
}

var tagDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()
		return repo.DeleteTag(args[0])
	},
}

func init() {
	tagCreateCmd.Flags().StringVar(&tagDescription, "description", "", "optional tag description")
	tagCmd.AddCommand(tagCreateCmd, tagListCmd, tagDeleteCmd)
	rootCmd.AddCommand(tagCmd)
}
