package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log <file>",
	Short: "Show the revision history of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		history, err := repo.Log(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(history) == 0 {
			fmt.Fprintln(out, "No revisions recorded for this file.")
			return nil
		}
		for _, v := range history {
			color.New(color.FgYellow).Fprintf(out, "revision %s\n", v.BlobDigest)
			if v.ParentDigest != "" {
				fmt.Fprintf(out, "parent:     %s\n", v.ParentDigest)
			}
			fmt.Fprintf(out, "date:       %s\n", v.Timestamp.Format("2006-01-02 15:04:05"))
			if v.Annotation != "" {
				fmt.Fprintf(out, "annotation: %s\n", wrapToTerminalWidth(v.Annotation))
			}
			fmt.Fprintf(out, "size:       %d bytes\n\n", v.ByteSize)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <digest>",
	Short: "Print the content of a recorded revision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		data, err := repo.Show(args[0])
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(showCmd)
}
