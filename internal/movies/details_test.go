package movies

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
)

func TestFetchMovieDetails_LoadsMovieAndCast(t *testing.T) {
	api := newFakeAPI()
	r := newTestRepository(api)

	r.FetchMovieDetails(context.Background(), 42)

	s := r.State()
	require.NotNil(t, s.SelectedMovie)
	assert.Equal(t, 42, s.SelectedMovie.ID)
	require.Len(t, s.Cast, 1)
	assert.Equal(t, "Hero", s.Cast[0].Character)

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "movie", calls[0].Endpoint)
	assert.Equal(t, apiCall{Endpoint: "credits", MovieID: 42}, calls[1])
}

func TestFetchMovieDetails_CreditsFailureIsSilent(t *testing.T) {
	api := newFakeAPI()
	api.credits = func(int) ([]tmdb.Actor, error) { return nil, errors.New("credits unavailable") }
	r := newTestRepository(api)

	r.FetchMovieDetails(context.Background(), 42)

	s := r.State()
	require.NotNil(t, s.SelectedMovie)
	assert.Equal(t, 42, s.SelectedMovie.ID)
	assert.NotNil(t, s.Cast)
	assert.Empty(t, s.Cast)
	assert.Empty(t, s.Error)
	assert.Equal(t, KindNone, s.ErrorKind)
}

func TestFetchMovieDetails_FailureClearsSelection(t *testing.T) {
	api := newFakeAPI()
	r := newTestRepository(api)
	ctx := context.Background()

	r.FetchMovieDetails(ctx, 42)
	require.NotNil(t, r.State().SelectedMovie)

	api.movie = func(int) (*tmdb.Movie, error) {
		return nil, &tmdb.APIError{StatusCode: 404, Message: "not found"}
	}
	r.FetchMovieDetails(ctx, 42)

	s := r.State()
	assert.Nil(t, s.SelectedMovie)
	assert.Empty(t, s.Cast)
	assert.Equal(t, "Content not found.", s.Error)
	assert.Equal(t, KindNotFound, s.ErrorKind)
}

func TestFetchMovieDetails_SwitchingMovieClearsOldView(t *testing.T) {
	api := newFakeAPI()
	r := newTestRepository(api)
	ctx := context.Background()
	r.FetchMovieDetails(ctx, 1)

	seen := make(chan *tmdb.Movie, 1)
	api.movie = func(id int) (*tmdb.Movie, error) {
		seen <- r.State().SelectedMovie
		return &tmdb.Movie{ID: id}, nil
	}
	r.FetchMovieDetails(ctx, 2)

	assert.Nil(t, <-seen, "previous movie should be cleared while loading another")
	assert.Equal(t, 2, r.State().SelectedMovie.ID)
}

func TestFetchMovieDetails_DoesNotTouchList(t *testing.T) {
	api := newFakeAPI()
	r := newTestRepository(api)
	ctx := context.Background()
	r.FetchMovies(ctx)
	movies := r.State().Movies

	r.FetchMovieDetails(ctx, 7)

	assert.Equal(t, movies, r.State().Movies)
	assert.Equal(t, ModeDefault, r.State().Mode)
}

func TestFetchGenres_FromAPI(t *testing.T) {
	api := newFakeAPI()
	cache := &fakeGenreCache{}
	r := NewRepository(api, cache, discardLogger)

	r.FetchGenres(context.Background())

	assert.Len(t, r.State().Genres, 2)
	assert.Equal(t, 1, cache.saves)
	assert.Equal(t, []string{"Comedy", "Action"}, r.State().GenreNames([]int{35, 28, 999}))
}

func TestFetchGenres_FromCache(t *testing.T) {
	api := newFakeAPI()
	cache := &fakeGenreCache{genres: []tmdb.Genre{{ID: 18, Name: "Drama"}}}
	r := NewRepository(api, cache, discardLogger)

	r.FetchGenres(context.Background())

	assert.Equal(t, []tmdb.Genre{{ID: 18, Name: "Drama"}}, r.State().Genres)
	assert.Empty(t, api.Calls())
}

func TestFetchGenres_FailureLeavesStateAlone(t *testing.T) {
	api := newFakeAPI()
	api.genres = func() ([]tmdb.Genre, error) { return nil, errors.New("no such host") }
	r := newTestRepository(api)

	r.FetchGenres(context.Background())

	s := r.State()
	assert.Empty(t, s.Genres)
	assert.False(t, s.HasError())
}

func TestFetchGenres_ConcurrentCallsShareRequest(t *testing.T) {
	api := newFakeAPI()
	gate := make(chan struct{})
	api.genres = func() ([]tmdb.Genre, error) {
		<-gate
		return []tmdb.Genre{{ID: 28, Name: "Action"}}, nil
	}
	r := newTestRepository(api)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.FetchGenres(context.Background())
		}()
	}
	// Every goroutine either joins the in-flight call or finds it finished.
	close(gate)
	wg.Wait()

	assert.Len(t, r.State().Genres, 1)
	assert.LessOrEqual(t, len(api.Calls()), 5)
}

func TestFetchMovieCredits_StaleCastDroppedAfterSwitch(t *testing.T) {
	api := newFakeAPI()
	started := make(chan struct{})
	release := make(chan struct{})
	api.credits = func(id int) ([]tmdb.Actor, error) {
		if id == 1 {
			close(started)
			<-release
			return []tmdb.Actor{{ID: 11, Name: "Actor of A"}}, nil
		}
		return []tmdb.Actor{{ID: 22, Name: "Actor of B"}}, nil
	}
	r := newTestRepository(api)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.FetchMovieDetails(ctx, 1)
	}()
	<-started

	r.FetchMovieDetails(ctx, 2)
	close(release)
	<-done

	s := r.State()
	require.NotNil(t, s.SelectedMovie)
	assert.Equal(t, 2, s.SelectedMovie.ID)
	assert.Equal(t, []tmdb.Actor{{ID: 22, Name: "Actor of B"}}, s.Cast)
}

func TestFetchMovieCredits_StaleCastDroppedAfterFailedSwitch(t *testing.T) {
	api := newFakeAPI()
	started := make(chan struct{})
	release := make(chan struct{})
	api.credits = func(int) ([]tmdb.Actor, error) {
		close(started)
		<-release
		return []tmdb.Actor{{ID: 11, Name: "Actor of A"}}, nil
	}
	api.movie = func(id int) (*tmdb.Movie, error) {
		if id == 2 {
			return nil, errors.New("boom")
		}
		return &tmdb.Movie{ID: id, Videos: &tmdb.VideoList{}}, nil
	}
	r := newTestRepository(api)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.FetchMovieDetails(ctx, 1)
	}()
	<-started

	r.FetchMovieDetails(ctx, 2)
	close(release)
	<-done

	s := r.State()
	assert.Nil(t, s.SelectedMovie)
	assert.Empty(t, s.Cast)
	assert.Equal(t, KindOther, s.ErrorKind)
}

func TestFetchMovieDetails_FetchesVideosWhenMissing(t *testing.T) {
	api := newFakeAPI()
	api.movie = func(id int) (*tmdb.Movie, error) { return &tmdb.Movie{ID: id}, nil }
	r := newTestRepository(api)

	r.FetchMovieDetails(context.Background(), 42)

	s := r.State()
	require.NotNil(t, s.SelectedMovie)
	trailer, ok := s.SelectedMovie.Trailer()
	require.True(t, ok)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", trailer.WatchURL())

	var endpoints []string
	for _, c := range api.Calls() {
		endpoints = append(endpoints, c.Endpoint)
	}
	assert.Equal(t, []string{"movie", "videos", "credits"}, endpoints)
}

func TestFetchMovieDetails_VideosFailureIsSilent(t *testing.T) {
	api := newFakeAPI()
	api.movie = func(id int) (*tmdb.Movie, error) { return &tmdb.Movie{ID: id}, nil }
	api.videos = func(int) ([]tmdb.Video, error) { return nil, errors.New("videos unavailable") }
	r := newTestRepository(api)

	r.FetchMovieDetails(context.Background(), 42)

	s := r.State()
	require.NotNil(t, s.SelectedMovie)
	_, ok := s.SelectedMovie.Trailer()
	assert.False(t, ok)
	assert.False(t, s.HasError())
	assert.Len(t, s.Cast, 1)
}

func TestFetchMovieDetails_KeepsListError(t *testing.T) {
	api := newFakeAPI()
	api.nowPlaying = func(int) (*tmdb.MoviePage, error) { return nil, errors.New("no such host") }
	r := newTestRepository(api)
	ctx := context.Background()

	r.FetchMovies(ctx)
	require.Equal(t, KindConnectivity, r.State().ErrorKind)

	r.FetchMovieDetails(ctx, 42)

	s := r.State()
	require.NotNil(t, s.SelectedMovie)
	assert.Equal(t, "No internet connection.", s.Error)
	assert.Equal(t, KindConnectivity, s.ErrorKind)
}

func TestFetchMovieDetails_SuccessClearsDetailsError(t *testing.T) {
	api := newFakeAPI()
	api.movie = func(int) (*tmdb.Movie, error) {
		return nil, &tmdb.APIError{StatusCode: 404, Message: "not found"}
	}
	r := newTestRepository(api)
	ctx := context.Background()

	r.FetchMovieDetails(ctx, 1)
	require.Equal(t, KindNotFound, r.State().ErrorKind)

	api.movie = func(id int) (*tmdb.Movie, error) { return &tmdb.Movie{ID: id, Videos: &tmdb.VideoList{}}, nil }
	r.FetchMovieDetails(ctx, 2)

	s := r.State()
	require.NotNil(t, s.SelectedMovie)
	assert.False(t, s.HasError())
	assert.Equal(t, KindNone, s.ErrorKind)
}

func TestFetchMovies_SuccessClearsDetailsError(t *testing.T) {
	api := newFakeAPI()
	api.movie = func(int) (*tmdb.Movie, error) { return nil, errors.New("boom") }
	r := newTestRepository(api)
	ctx := context.Background()

	r.FetchMovieDetails(ctx, 1)
	require.True(t, r.State().HasError())

	r.FetchMovies(ctx)
	assert.False(t, r.State().HasError())
}
