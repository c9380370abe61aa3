package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newGenresCmd returns the "genres" subcommand that prints the genre catalog.
func newGenresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List movie genres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session) error {
				if err := runLoad(ctx, "Loading genres", sess.repo.FetchGenres); err != nil {
					return err
				}
				catalog := sess.repo.State().Genres
				if len(catalog) == 0 {
					return errNoGenres
				}
				fmt.Println(styleHeader.Render("Genres"))
				fmt.Print(renderGenres(catalog, nil))
				return nil
			})
		},
	}
}
