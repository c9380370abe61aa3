// Package viewstate connects a presentation layer to the movie repository.
// Every intent runs on its own goroutine so the caller never blocks.
package viewstate

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vadimtrunov/marquee/internal/movies"
)

// DefaultDebounce is the inactivity window applied to SearchInput.
const DefaultDebounce = 500 * time.Millisecond

// Repository is the set of repository operations the coordinator forwards to.
type Repository interface {
	State() movies.State
	Subscribe() (<-chan movies.State, func())

	FetchMovies(ctx context.Context)
	FetchMoviesByGenres(ctx context.Context)
	SearchMovies(ctx context.Context, query string)
	LoadNextPage(ctx context.Context) bool
	LoadPreviousPage(ctx context.Context) bool
	RefreshMovies(ctx context.Context)
	ToggleGenreSelection(ctx context.Context, id int)
	ClearSelectedGenres(ctx context.Context)
	FetchGenres(ctx context.Context)
	FetchMovieDetails(ctx context.Context, movieID int)
}

// Compile-time interface check.
var _ Repository = (*movies.Repository)(nil)

// Coordinator forwards user intents to a Repository on background goroutines.
// It keeps no session state; State and Subscribe read straight through.
type Coordinator struct {
	repo     Repository
	debounce time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	timer     *time.Timer
	pending   string
	searchGen uint64
}

// New creates a coordinator over repo. A non-positive debounce selects
// DefaultDebounce.
func New(repo Repository, debounce time.Duration, logger *slog.Logger) *Coordinator {
	if repo == nil {
		panic("viewstate.New: repo must not be nil")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		repo:     repo,
		debounce: debounce,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// State returns the repository's current snapshot.
func (c *Coordinator) State() movies.State {
	return c.repo.State()
}

// Subscribe returns the repository's latest-wins snapshot channel.
func (c *Coordinator) Subscribe() (<-chan movies.State, func()) {
	return c.repo.Subscribe()
}

// Start loads the genre catalog and the first now-playing page.
func (c *Coordinator) Start() {
	c.LoadGenres()
	c.Reset()
}

// Reset drops the query and genre filters and loads now playing.
func (c *Coordinator) Reset() {
	c.cancelPendingSearch()
	c.run("reset", c.repo.FetchMovies)
}

// Reload reloads page 1 with the current filters.
func (c *Coordinator) Reload() {
	c.run("reload", c.repo.FetchMoviesByGenres)
}

// Search runs a search immediately, discarding any debounced input.
func (c *Coordinator) Search(query string) {
	c.cancelPendingSearch()
	c.run("search", func(ctx context.Context) {
		c.repo.SearchMovies(ctx, query)
	})
}

// SearchInput records typed text and searches once no further input has
// arrived for the debounce window. Only the last text of a burst is sent.
func (c *Coordinator) SearchInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.stopTimerLocked()
	c.searchGen++
	gen := c.searchGen
	c.pending = strings.TrimSpace(text)

	c.wg.Add(1)
	c.timer = time.AfterFunc(c.debounce, func() {
		defer c.wg.Done()
		c.fireSearch(gen)
	})
}

func (c *Coordinator) fireSearch(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.searchGen {
		c.mu.Unlock()
		return
	}
	query := c.pending
	c.timer = nil
	c.mu.Unlock()

	c.logger.Debug("debounced search", slog.String("query", query))
	c.repo.SearchMovies(c.ctx, query)
}

func (c *Coordinator) cancelPendingSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.searchGen++
}

// stopTimerLocked stops a scheduled search. A timer that already fired
// accounts for itself in wg.
func (c *Coordinator) stopTimerLocked() {
	if c.timer == nil {
		return
	}
	if c.timer.Stop() {
		c.wg.Done()
	}
	c.timer = nil
}

// ToggleGenre adds or removes a genre from the filter.
func (c *Coordinator) ToggleGenre(id int) {
	c.run("toggle_genre", func(ctx context.Context) {
		c.repo.ToggleGenreSelection(ctx, id)
	})
}

// ClearGenres empties the genre filter.
func (c *Coordinator) ClearGenres() {
	c.run("clear_genres", c.repo.ClearSelectedGenres)
}

// NextPage loads the next page if there is one.
func (c *Coordinator) NextPage() {
	c.run("next_page", func(ctx context.Context) {
		if !c.repo.LoadNextPage(ctx) {
			c.logger.Debug("already on last page")
		}
	})
}

// PreviousPage loads the previous page if there is one.
func (c *Coordinator) PreviousPage() {
	c.run("previous_page", func(ctx context.Context) {
		if !c.repo.LoadPreviousPage(ctx) {
			c.logger.Debug("already on first page")
		}
	})
}

// Refresh reloads the current page.
func (c *Coordinator) Refresh() {
	c.run("refresh", c.repo.RefreshMovies)
}

// SelectMovie opens the detail view for a movie.
func (c *Coordinator) SelectMovie(id int) {
	c.run("select_movie", func(ctx context.Context) {
		c.repo.FetchMovieDetails(ctx, id)
	})
}

// LoadGenres loads the genre catalog.
func (c *Coordinator) LoadGenres() {
	c.run("load_genres", c.repo.FetchGenres)
}

// Wait blocks until every dispatched intent, including a scheduled
// debounced search, has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close drops any pending search, cancels in-flight fetches and waits for
// them to return. Intents issued after Close are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.searchGen++
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Coordinator) run(intent string, fn func(ctx context.Context)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("intent ignored after close", slog.String("intent", intent))
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.logger.Debug("dispatching intent", slog.String("intent", intent))
		fn(c.ctx)
	}()
}
