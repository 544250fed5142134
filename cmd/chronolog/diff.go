package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chronolog/chronolog/internal/diff"
)

var (
	diffCurrent bool
	diffKind    string
)

var diffCmd = &cobra.Command{
	Use:   "diff <digest-a> [digest-b]",
	Short: "Compare two revisions, or one revision against the working copy",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		var b string
		if len(args) == 2 {
			b = args[1]
		} else {
			diffCurrent = true
		}

		result, err := repo.Diff(args[0], b, diffCurrent, diff.ParseKind(diffKind))
		if err != nil {
			return err
		}
		printDiff(result)
		return nil
	},
}

func printDiff(result *diff.Result) {
	switch result.Kind {
	case diff.Line:
		printLineDiff(result.Line)
	case diff.Word:
		printWordDiff(result.Word)
	case diff.Semantic:
		printSemanticDiff(result.Semantic)
	case diff.Binary:
		printBinaryDiff(result.Binary)
	}
}

func printLineDiff(d *diff.LineDiff) {
	fmt.Printf("--- %s\n+++ %s\n", d.OldHeader, d.NewHeader)
	for _, hunk := range d.Hunks {
		for _, line := range hunk.Lines {
			switch line.Kind {
			case diff.Addition:
				color.New(color.FgGreen).Printf("+%s\n", line.Text)
			case diff.Deletion:
				color.New(color.FgRed).Printf("-%s\n", line.Text)
			case diff.HunkHeader:
				color.New(color.FgCyan).Printf("%s\n", line.Text)
			default:
				fmt.Printf(" %s\n", line.Text)
			}
		}
	}
}

func printWordDiff(d *diff.WordDiff) {
	for _, op := range d.Ops {
		switch op.Kind {
		case diff.Insert:
			color.New(color.FgGreen).Print(op.Text)
		case diff.DeleteOp:
			color.New(color.FgRed).Print(op.Text)
		default:
			fmt.Print(op.Text)
		}
	}
	fmt.Println()
}

func printSemanticDiff(d *diff.SemanticDiff) {
	fmt.Printf("language: %s\n", d.Language)
	for _, c := range d.Changes {
		name := c.Element.Name
		if c.Kind == diff.Removed && c.Old != nil {
			name = c.Old.Name
		}
		fmt.Printf("  %s %s\n", c.Kind, name)
	}
}

func printBinaryDiff(d *diff.BinaryDiff) {
	if d.Identical {
		fmt.Println("binary files identical")
		return
	}
	fmt.Printf("binary files %s and %s differ (%d -> %d bytes, %.1f%% similar)\n",
		d.Old.Path, d.New.Path, d.OldSize, d.NewSize, d.Similarity*100)
}

func init() {
	diffCmd.Flags().BoolVar(&diffCurrent, "current", false, "compare against the working copy instead of a second revision")
	diffCmd.Flags().StringVar(&diffKind, "type", "line", "diff type: line, word, semantic, or binary")
	rootCmd.AddCommand(diffCmd)
}
