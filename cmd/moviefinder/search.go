package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/moviefinder/moviefinder/internal/movie"
	"github.com/moviefinder/moviefinder/internal/search"
	"github.com/moviefinder/moviefinder/internal/trending"
)

func newSearchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Fetch movies once; an empty query lists popular movies",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			pipeline := a.newPipeline()
			state := pipeline.FetchMovies(cmd.Context(), strings.Join(args, " "))
			pipeline.Wait()

			if state.Failed() {
				return fmt.Errorf("%s", state.Error)
			}
			printMovies(cmd.OutOrStdout(), state)
			return nil
		},
	}
}

func newTrendingCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "trending",
		Short: "Print the trending panel from the configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			return runTrending(cmd.Context(), cmd.OutOrStdout(), a.newTrendingSource(), a.log.Logger)
		},
	}
}

// runTrending loads the panel once so failures read the same as in the API.
func runTrending(ctx context.Context, w io.Writer, source trending.Source, logger zerolog.Logger) error {
	state := trending.NewPanel(source, logger).Load(ctx)
	if state.Failed() {
		return errors.New(state.Error)
	}
	printTrending(w, state.Entries)
	return nil
}

func printMovies(w io.Writer, state search.FetchState) {
	if len(state.Results) == 0 {
		fmt.Fprintln(w, "No movies found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tRELEASED\tRATING")
	for _, m := range state.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\n", m.ID, m.Title, m.ReleaseDate, m.VoteAverage)
	}
	tw.Flush()
}

func printTrending(w io.Writer, entries []movie.TrendingEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No trending movies.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTITLE\tSEARCHES")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\n", i+1, e.MovieID, e.Title, e.Count)
	}
	tw.Flush()
}
