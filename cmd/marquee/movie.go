package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// newMovieCmd returns the "movie" subcommand that prints movie details.
func newMovieCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "movie <id>",
		Short:   "Show details, cast and trailer for a movie",
		Example: "  marquee movie 438631",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, sess *session) error {
				return runMovie(ctx, sess, id)
			})
		},
	}
}

// parseMovieID validates a positive TMDb movie id.
func parseMovieID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", raw)
	}
	return id, nil
}

func runMovie(ctx context.Context, sess *session, id int) error {
	err := runLoad(ctx, "Loading movie", func(ctx context.Context) {
		sess.repo.FetchMovieDetails(ctx, id)
	})
	if err != nil {
		return err
	}

	st := sess.repo.State()
	if st.SelectedMovie == nil {
		if st.HasError() {
			return errors.New(st.Error)
		}
		return fmt.Errorf("movie %d not loaded", id)
	}
	fmt.Print(renderDetails(st))
	return nil
}
