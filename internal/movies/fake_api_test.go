package movies

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// apiCall records one request made against fakeAPI.
type apiCall struct {
	Endpoint string
	Page     int
	Query    string
	GenreIDs []int
	MovieID  int
}

// fakeAPI implements API with overridable per-endpoint behavior.
type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall

	nowPlaying func(page int) (*tmdb.MoviePage, error)
	search     func(query string, page int) (*tmdb.MoviePage, error)
	discover   func(ids []int, page int) (*tmdb.MoviePage, error)
	movie      func(id int) (*tmdb.Movie, error)
	credits    func(id int) ([]tmdb.Actor, error)
	videos     func(id int) ([]tmdb.Video, error)
	genres     func() ([]tmdb.Genre, error)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nowPlaying: func(page int) (*tmdb.MoviePage, error) {
			return &tmdb.MoviePage{Page: page, Results: []tmdb.Movie{{ID: 100 + page, Title: "Now Playing"}}, TotalPages: 5}, nil
		},
		search: func(query string, page int) (*tmdb.MoviePage, error) {
			return &tmdb.MoviePage{Page: page, Results: []tmdb.Movie{{ID: 200 + page, Title: query}}, TotalPages: 3}, nil
		},
		discover: func(_ []int, page int) (*tmdb.MoviePage, error) {
			return &tmdb.MoviePage{Page: page, Results: []tmdb.Movie{{ID: 300 + page, Title: "Discovered"}}, TotalPages: 4}, nil
		},
		movie: func(id int) (*tmdb.Movie, error) {
			return &tmdb.Movie{ID: id, Title: "Details", Videos: &tmdb.VideoList{}}, nil
		},
		credits: func(_ int) ([]tmdb.Actor, error) {
			return []tmdb.Actor{{ID: 1, Name: "Lead Actor", Character: "Hero"}}, nil
		},
		videos: func(_ int) ([]tmdb.Video, error) {
			return []tmdb.Video{{Key: "abc", Site: "YouTube", Type: "Trailer"}}, nil
		},
		genres: func() ([]tmdb.Genre, error) {
			return []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 35, Name: "Comedy"}}, nil
		},
	}
}

func (f *fakeAPI) record(c apiCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeAPI) Calls() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeAPI) LastCall() apiCall {
	calls := f.Calls()
	if len(calls) == 0 {
		return apiCall{}
	}
	return calls[len(calls)-1]
}

func (f *fakeAPI) NowPlaying(_ context.Context, page int) (*tmdb.MoviePage, error) {
	f.record(apiCall{Endpoint: "now_playing", Page: page})
	return f.nowPlaying(page)
}

func (f *fakeAPI) SearchMovies(_ context.Context, query string, page int) (*tmdb.MoviePage, error) {
	f.record(apiCall{Endpoint: "search", Page: page, Query: query})
	return f.search(query, page)
}

func (f *fakeAPI) DiscoverByGenres(_ context.Context, ids []int, page int) (*tmdb.MoviePage, error) {
	f.record(apiCall{Endpoint: "discover", Page: page, GenreIDs: slices.Clone(ids)})
	return f.discover(ids, page)
}

func (f *fakeAPI) GetMovie(_ context.Context, id int) (*tmdb.Movie, error) {
	f.record(apiCall{Endpoint: "movie", MovieID: id})
	return f.movie(id)
}

func (f *fakeAPI) GetCredits(_ context.Context, id int) ([]tmdb.Actor, error) {
	f.record(apiCall{Endpoint: "credits", MovieID: id})
	return f.credits(id)
}

func (f *fakeAPI) GetVideos(_ context.Context, id int) ([]tmdb.Video, error) {
	f.record(apiCall{Endpoint: "videos", MovieID: id})
	return f.videos(id)
}

func (f *fakeAPI) GetGenres(_ context.Context) ([]tmdb.Genre, error) {
	f.record(apiCall{Endpoint: "genres"})
	return f.genres()
}

// fakeGenreCache implements GenreCache in memory.
type fakeGenreCache struct {
	mu     sync.Mutex
	genres []tmdb.Genre
	saves  int
}

func (c *fakeGenreCache) Genres() ([]tmdb.Genre, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.genres, c.genres != nil
}

func (c *fakeGenreCache) SaveGenres(genres []tmdb.Genre) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.genres = genres
	c.saves++
	return nil
}
