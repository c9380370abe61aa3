package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/marquee/internal/config"
	"github.com/vadimtrunov/marquee/internal/genres"
)

// errNoGenres is returned when the genre catalog could not be loaded.
var errNoGenres = errors.New("genre list unavailable, check the log for details")

// newListCmd returns the "list" subcommand that prints one page of movies.
func newListCmd() *cobra.Command {
	var (
		query     string
		genreRefs []string
		page      int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of movies",
		Long: "Print now playing movies, search results or a genre discovery page.\n" +
			"Genres may be given by name or TMDb id and are matched leniently.",
		Example: "  marquee list\n" +
			"  marquee list --query dune\n" +
			"  marquee list --genre comedy --genre 'sci fi' --page 2",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be at least 1, got %d", page)
			}
			return withSession(cmd, func(ctx context.Context, sess *session) error {
				return runList(ctx, sess, query, genreRefs, page)
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "search by title")
	cmd.Flags().StringSliceVarP(&genreRefs, "genre", "g", nil, "filter by genre name or id (repeatable)")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

// runList loads the genre catalog and the requested page, then prints it.
func runList(ctx context.Context, sess *session, query string, genreRefs []string, page int) error {
	repo := sess.repo
	if err := runLoad(ctx, "Loading genres", repo.FetchGenres); err != nil {
		return err
	}

	var ids []int
	if len(genreRefs) > 0 {
		catalog := repo.State().Genres
		if len(catalog) == 0 {
			return errNoGenres
		}
		var err error
		if ids, err = genres.Resolve(catalog, genreRefs); err != nil {
			return err
		}
	}

	err := runLoad(ctx, "Loading movies", func(ctx context.Context) {
		repo.LoadMovies(ctx, page, query, ids)
	})
	if err != nil {
		return err
	}

	st := repo.State()
	if st.HasError() {
		return errors.New(st.Error)
	}
	fmt.Print(renderMovieList(st))
	return nil
}

// withSession loads the config, opens a session and runs fn with a
// signal-aware context.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, sess *session) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg.App.LogLevel)
	sess, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	ctx, cancel := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return fn(ctx, sess)
}
