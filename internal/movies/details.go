package movies

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
)

// FetchMovieDetails loads a movie into SelectedMovie and then its cast.
// Switching to another movie clears the previous detail view right away.
// On failure SelectedMovie is cleared and the error set. A list error is
// left in place by a successful load.
func (r *Repository) FetchMovieDetails(ctx context.Context, movieID int) {
	var seq uint64
	r.update(func(s *State) bool {
		s.detailSeq++
		seq = s.detailSeq
		if s.SelectedMovie != nil && s.SelectedMovie.ID != movieID {
			s.SelectedMovie = nil
			s.Cast = nil
			s.creditsSeq++
		}
		return true
	})

	movie, err := r.api.GetMovie(ctx, movieID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		kind := Classify(err)
		r.logger.Warn("movie details fetch failed",
			slog.Int("movie_id", movieID),
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
		r.update(func(s *State) bool {
			if s.detailSeq != seq {
				return false
			}
			s.SelectedMovie = nil
			s.Cast = nil
			s.creditsSeq++
			s.setError(kind, errFromDetails)
			return true
		})
		return
	}

	if movie.Videos == nil {
		r.attachVideos(ctx, movie)
	}

	if _, ok := r.update(func(s *State) bool {
		if s.detailSeq != seq {
			return false
		}
		s.SelectedMovie = movie
		s.clearErrorFrom(errFromDetails)
		return true
	}); !ok {
		r.logger.Debug("dropping stale movie details", slog.Int("movie_id", movieID))
		return
	}

	r.FetchMovieCredits(ctx, movieID)
}

// attachVideos fills in the videos of a details response that came back
// without them. Failures leave the movie without a trailer.
func (r *Repository) attachVideos(ctx context.Context, movie *tmdb.Movie) {
	videos, err := r.api.GetVideos(ctx, movie.ID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Warn("movie videos fetch failed",
				slog.Int("movie_id", movie.ID),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	movie.Videos = &tmdb.VideoList{Results: videos}
}

// FetchMovieCredits loads the cast of a movie. Failures are not surfaced:
// the cast becomes empty and the error field is left alone. The cast is
// only committed while movieID is the selected movie.
func (r *Repository) FetchMovieCredits(ctx context.Context, movieID int) {
	var seq uint64
	r.update(func(s *State) bool {
		s.creditsSeq++
		seq = s.creditsSeq
		return true
	})

	cast, err := r.api.GetCredits(ctx, movieID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		r.logger.Warn("movie credits fetch failed",
			slog.Int("movie_id", movieID),
			slog.String("error", err.Error()),
		)
		cast = []tmdb.Actor{}
	}

	if _, ok := r.update(func(s *State) bool {
		if s.creditsSeq != seq || s.SelectedMovie == nil || s.SelectedMovie.ID != movieID {
			return false
		}
		s.Cast = cast
		return true
	}); !ok {
		r.logger.Debug("dropping stale movie credits", slog.Int("movie_id", movieID))
	}
}

// FetchGenres loads the genre catalog, from the cache when it holds one.
// Concurrent calls share a single request. Failures are logged and leave
// the list state untouched.
func (r *Repository) FetchGenres(ctx context.Context) {
	if r.genreCache != nil {
		if genres, ok := r.genreCache.Genres(); ok {
			r.logger.Debug("genres served from cache", slog.Int("count", len(genres)))
			r.setGenres(genres)
			return
		}
	}

	v, err, _ := r.genreFlight.Do("genres", func() (any, error) {
		genres, err := r.api.GetGenres(ctx)
		if err != nil {
			return nil, err
		}
		if r.genreCache != nil {
			if err := r.genreCache.SaveGenres(genres); err != nil {
				r.logger.Warn("genre cache write failed", slog.String("error", err.Error()))
			}
		}
		return genres, nil
	})
	if err != nil {
		r.logger.Warn("genre fetch failed", slog.String("error", err.Error()))
		return
	}
	genres, _ := v.([]tmdb.Genre)
	r.setGenres(genres)
}

func (r *Repository) setGenres(genres []tmdb.Genre) {
	r.update(func(s *State) bool {
		s.Genres = genres
		return true
	})
}
