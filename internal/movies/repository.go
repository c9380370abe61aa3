// Package movies owns the browsing session: the current movie page, the
// search and genre filters, the detail view and the last user-facing error.
package movies

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
)

// API is the subset of the TMDb client the repository drives.
type API interface {
	NowPlaying(ctx context.Context, page int) (*tmdb.MoviePage, error)
	SearchMovies(ctx context.Context, query string, page int) (*tmdb.MoviePage, error)
	DiscoverByGenres(ctx context.Context, genreIDs []int, page int) (*tmdb.MoviePage, error)
	GetMovie(ctx context.Context, id int) (*tmdb.Movie, error)
	GetCredits(ctx context.Context, id int) ([]tmdb.Actor, error)
	GetVideos(ctx context.Context, id int) ([]tmdb.Video, error)
	GetGenres(ctx context.Context) ([]tmdb.Genre, error)
}

// GenreCache stores the genre catalog between sessions.
type GenreCache interface {
	Genres() ([]tmdb.Genre, bool)
	SaveGenres(genres []tmdb.Genre) error
}

// Compile-time interface check.
var _ API = (*tmdb.Client)(nil)

// Repository is the single source of truth for session state. All methods
// are safe for concurrent use; fetch failures are recorded in State and
// never returned.
type Repository struct {
	api        API
	genreCache GenreCache
	logger     *slog.Logger

	state       atomic.Pointer[State]
	genreFlight singleflight.Group

	subMu     sync.Mutex
	subs      map[uint64]chan State
	nextSubID uint64
	published uint64
}

// NewRepository creates a repository in Default mode on page 1.
// genreCache may be nil.
func NewRepository(api API, genreCache GenreCache, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repository{
		api:        api,
		genreCache: genreCache,
		logger:     logger,
		subs:       make(map[uint64]chan State),
	}
	r.state.Store(initialState())
	return r
}

// State returns the current snapshot.
func (r *Repository) State() State {
	return *r.state.Load()
}

// Subscribe returns a channel that always holds the latest snapshot, primed
// with the current one. Intermediate snapshots may be skipped. The returned
// func unsubscribes and closes the channel.
func (r *Repository) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	r.subMu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subs[id] = ch
	ch <- *r.state.Load()
	r.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.subMu.Lock()
			delete(r.subs, id)
			close(ch)
			r.subMu.Unlock()
		})
	}
}

// update applies fn to a copy of the current snapshot and swaps it in.
// fn may run more than once under contention, so it must only touch s.
// Returning false abandons the update.
func (r *Repository) update(fn func(s *State) bool) (State, bool) {
	for {
		cur := r.state.Load()
		next := *cur
		if !fn(&next) {
			return *cur, false
		}
		next.Version = cur.Version + 1
		if r.state.CompareAndSwap(cur, &next) {
			r.publish()
			return next, true
		}
	}
}

// publish pushes the newest snapshot to subscribers, replacing any value
// they have not consumed yet.
func (r *Repository) publish() {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	s := *r.state.Load()
	if s.Version <= r.published {
		return
	}
	r.published = s.Version

	for _, ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// listRequest captures the parameters of one dispatched list fetch.
type listRequest struct {
	seq      uint64
	page     int
	query    string
	genreIDs []int
}

// dispatchList applies mutate (which may veto by returning false) and
// reserves a list sequence number in the same swap. The request reflects
// the filters of the resulting snapshot.
func (r *Repository) dispatchList(mutate func(s *State) bool) (listRequest, bool) {
	var req listRequest
	_, ok := r.update(func(s *State) bool {
		if mutate != nil && !mutate(s) {
			return false
		}
		s.listSeq++
		req = listRequest{
			seq:      s.listSeq,
			page:     s.CurrentPage,
			query:    s.LastQuery,
			genreIDs: s.SelectedGenreIDs,
		}
		return true
	})
	return req, ok
}

// LoadMovies fetches one page for the given filters. On success the page,
// the pagination cursor, the mode and the filters of the request are
// committed and the error cleared; on failure the previous movies stay in
// place and the error is set. Responses to superseded requests are dropped.
func (r *Repository) LoadMovies(ctx context.Context, page int, query string, genreIDs []int) {
	req, _ := r.dispatchList(nil)
	req.page = page
	req.query = strings.TrimSpace(query)
	req.genreIDs = normalizeIDs(genreIDs)
	r.runList(ctx, req)
}

func (r *Repository) runList(ctx context.Context, req listRequest) {
	mode := ModeFor(req.query, req.genreIDs)
	if req.page < 1 {
		req.page = 1
	}

	result, err := r.fetchPage(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			r.logger.Debug("movie list fetch canceled", slog.Uint64("seq", req.seq))
			return
		}
		kind := Classify(err)
		r.logger.Warn("movie list fetch failed",
			slog.String("mode", mode.String()),
			slog.Int("page", req.page),
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
		if _, ok := r.update(func(s *State) bool {
			if s.listSeq != req.seq {
				return false
			}
			s.setError(kind, errFromList)
			return true
		}); !ok {
			r.logger.Debug("dropping stale list error", slog.Uint64("seq", req.seq))
		}
		return
	}

	current := result.Page
	if current < 1 {
		current = req.page
	}
	total := max(result.TotalPages, 1)

	if _, ok := r.update(func(s *State) bool {
		if s.listSeq != req.seq {
			return false
		}
		s.Movies = result.Results
		s.CurrentPage = current
		s.TotalPages = total
		s.LastQuery = req.query
		s.SelectedGenreIDs = req.genreIDs
		s.Mode = mode
		s.clearError()
		return true
	}); !ok {
		r.logger.Debug("dropping stale movie page",
			slog.Uint64("seq", req.seq),
			slog.Int("page", req.page),
		)
		return
	}

	r.logger.Debug("movie page loaded",
		slog.String("mode", mode.String()),
		slog.Int("page", current),
		slog.Int("total_pages", total),
		slog.Int("results", len(result.Results)),
	)
}

// fetchPage picks the endpoint for the request's filters. With both a query
// and genres, TMDb search cannot filter by genre, so the fetched page is
// filtered locally; the page may then hold fewer movies than TotalPages
// implies.
func (r *Repository) fetchPage(ctx context.Context, req listRequest) (*tmdb.MoviePage, error) {
	switch {
	case req.query != "" && len(req.genreIDs) > 0:
		page, err := r.api.SearchMovies(ctx, req.query, req.page)
		if err != nil {
			return nil, err
		}
		filtered := *page
		filtered.Results = filterByGenres(page.Results, req.genreIDs)
		return &filtered, nil
	case req.query != "":
		return r.api.SearchMovies(ctx, req.query, req.page)
	case len(req.genreIDs) > 0:
		return r.api.DiscoverByGenres(ctx, req.genreIDs, req.page)
	default:
		return r.api.NowPlaying(ctx, req.page)
	}
}

func filterByGenres(movies []tmdb.Movie, genreIDs []int) []tmdb.Movie {
	out := make([]tmdb.Movie, 0, len(movies))
	for _, m := range movies {
		if m.HasAnyGenre(genreIDs) {
			out = append(out, m)
		}
	}
	return out
}

// SearchMovies starts a search from page 1, keeping the genre filter.
// A blank query leaves search mode.
func (r *Repository) SearchMovies(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	req, _ := r.dispatchList(func(s *State) bool {
		s.LastQuery = query
		s.CurrentPage = 1
		s.Mode = ModeFor(s.LastQuery, s.SelectedGenreIDs)
		return true
	})
	r.runList(ctx, req)
}

// FetchMoviesByGenres reloads page 1 with the current query and genres.
func (r *Repository) FetchMoviesByGenres(ctx context.Context) {
	req, _ := r.dispatchList(func(s *State) bool {
		s.CurrentPage = 1
		s.Mode = ModeFor(s.LastQuery, s.SelectedGenreIDs)
		return true
	})
	r.runList(ctx, req)
}

// FetchMovies drops all filters and loads the first now-playing page.
func (r *Repository) FetchMovies(ctx context.Context) {
	req, _ := r.dispatchList(func(s *State) bool {
		s.LastQuery = ""
		s.SelectedGenreIDs = nil
		s.CurrentPage = 1
		s.Mode = ModeDefault
		return true
	})
	r.runList(ctx, req)
}

// LoadNextPage loads the page after the current one. It reports false and
// does nothing on the last page.
func (r *Repository) LoadNextPage(ctx context.Context) bool {
	return r.loadAdjacent(ctx, 1)
}

// LoadPreviousPage loads the page before the current one. It reports false
// and does nothing on the first page.
func (r *Repository) LoadPreviousPage(ctx context.Context) bool {
	return r.loadAdjacent(ctx, -1)
}

func (r *Repository) loadAdjacent(ctx context.Context, delta int) bool {
	req, ok := r.dispatchList(func(s *State) bool {
		if delta > 0 {
			return s.CanLoadNext()
		}
		return s.CanLoadPrevious()
	})
	if !ok {
		return false
	}
	req.page += delta
	r.runList(ctx, req)
	return true
}

// RefreshMovies reloads the current page with the current filters.
// IsRefreshing stays true while any refresh is in flight.
func (r *Repository) RefreshMovies(ctx context.Context) {
	req, _ := r.dispatchList(func(s *State) bool {
		s.refreshes++
		s.IsRefreshing = true
		return true
	})
	defer r.update(func(s *State) bool {
		s.refreshes--
		s.IsRefreshing = s.refreshes > 0
		return true
	})
	r.runList(ctx, req)
}

// ToggleGenreSelection adds id to the genre filter, or removes it if
// present, and reloads from page 1.
func (r *Repository) ToggleGenreSelection(ctx context.Context, id int) {
	req, _ := r.dispatchList(func(s *State) bool {
		s.SelectedGenreIDs = toggleID(s.SelectedGenreIDs, id)
		s.CurrentPage = 1
		s.Mode = ModeFor(s.LastQuery, s.SelectedGenreIDs)
		return true
	})
	r.runList(ctx, req)
}

// ClearSelectedGenres empties the genre filter and reloads from page 1.
func (r *Repository) ClearSelectedGenres(ctx context.Context) {
	req, _ := r.dispatchList(func(s *State) bool {
		s.SelectedGenreIDs = nil
		s.CurrentPage = 1
		s.Mode = ModeFor(s.LastQuery, nil)
		return true
	})
	r.runList(ctx, req)
}
