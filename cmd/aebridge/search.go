package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/aebridge/internal/project"
	"github.com/dshills/aebridge/internal/search"
	"github.com/dshills/aebridge/internal/storage"
	"github.com/dshills/aebridge/pkg/types"
)

func newSearchCommand(a *app) *cobra.Command {
	var (
		opts    types.SearchOptions
		ropts   types.ReplaceOptions
		scope   string
		replace string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search expressions across the open project, optionally replacing matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts.Query = args[0]
			opts.Scope = types.SearchScope(scope)
			replacing := cmd.Flags().Changed("replace")

			client, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			store, err := a.openJournal()
			if err != nil {
				return err
			}
			var journal storage.Storage
			if store != nil {
				defer store.Close()
				journal = store
			}

			fetcher := project.NewFetcher(client,
				project.WithRetryPolicy(a.retryPolicy()),
				project.WithConcurrency(a.cfg.FetchConcurrency),
				project.WithFetcherLogger(a.logger),
			)
			engine := search.New(search.WithLogger(a.logger))

			start := time.Now()
			results, err := engine.SearchInProject(ctx, fetcher.Snapshots, opts)
			if err != nil {
				return err
			}
			stats := engine.Statistics()
			printResults(cmd.OutOrStdout(), results, stats)

			if journal != nil {
				if err := journal.RecordSearch(ctx, &storage.SearchRecord{
					Query:       opts.Query,
					IsRegex:     opts.IsRegex,
					MatchCase:   opts.MatchCase,
					WholeWord:   opts.MatchWholeWord,
					Scope:       string(opts.Scope),
					ResultCount: stats.TotalResults,
					MatchCount:  stats.TotalMatches,
					Duration:    time.Since(start),
				}); err != nil {
					return err
				}
			}
			if !replacing || stats.TotalResults == 0 {
				return nil
			}

			ropts.ReplaceText = replace
			ropts.ReplaceAll = true
			updater := project.NewUpdater(client, journal, a.logger)
			var confirm search.ConfirmFunc
			if ropts.ConfirmEach {
				confirm = promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			outcomes := engine.ReplaceAllInProject(ctx, ropts, func(r *types.SearchResult) search.UpdateFunc {
				return updater.For(r, opts.Query)
			}, confirm)
			return printReplacements(cmd.OutOrStdout(), outcomes)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.IsRegex, "regex", "r", false, "treat the query as a regular expression")
	f.BoolVarP(&opts.MatchCase, "match-case", "m", false, "case-sensitive matching")
	f.BoolVarP(&opts.MatchWholeWord, "whole-word", "w", false, "match whole words only")
	f.BoolVar(&opts.IncludeComments, "comments", false, "also search layer comments")
	f.StringVar(&scope, "scope", string(types.ScopeProject), "project or selected")
	f.StringVar(&replace, "replace", "", "replace every match with this text ($1..$n expand in regex mode)")
	f.BoolVar(&ropts.PreserveCase, "preserve-case", false, "keep the case of each literal match")
	f.BoolVar(&ropts.ConfirmEach, "confirm", false, "ask before replacing each match")
	return cmd
}

func printResults(w io.Writer, results []types.SearchResult, stats types.Statistics) {
	for _, r := range results {
		fmt.Fprintf(w, "%s › %s [%s]\n", r.LayerName, r.PropertyName, r.ID)
		for _, m := range r.Matches {
			fmt.Fprintf(w, "  %d:%d  %s\n", m.StartLine, m.StartColumn, m.LineText)
		}
	}
	fmt.Fprintf(w, "%d matches in %d results for %q\n", stats.TotalMatches, stats.TotalResults, stats.Query)
}

// promptConfirm asks on out and reads a y/N answer per match from in. EOF
// declines everything that is left.
func promptConfirm(in io.Reader, out io.Writer) search.ConfirmFunc {
	scanner := bufio.NewScanner(in)
	return func(r *types.SearchResult, m types.SearchMatch) bool {
		fmt.Fprintf(out, "%s › %s %d:%d  %s  replace? [y/N] ", r.LayerName, r.PropertyName, m.StartLine, m.StartColumn, m.LineText)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return true
		}
		return false
	}
}

// printReplacements reports each failed write and a summary. It returns an
// error when any replacement failed.
func printReplacements(w io.Writer, outcomes []types.ReplaceResult) error {
	failed := 0
	for _, o := range outcomes {
		if !o.Success {
			failed++
			fmt.Fprintf(w, "failed %s[%d]: %s\n", o.SearchResultID, o.MatchIndex, o.Error)
		}
	}
	fmt.Fprintf(w, "%d replaced, %d failed\n", len(outcomes)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d replacements failed", failed)
	}
	return nil
}
