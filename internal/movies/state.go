package movies

import (
	"slices"
	"strings"

	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
)

// Mode is the listing mode the movie list is currently in.
type Mode int

// Listing modes. A query always wins over a genre filter; the genre filter
// is then applied locally to the search results.
const (
	ModeDefault Mode = iota
	ModeGenre
	ModeSearch
)

func (m Mode) String() string {
	switch m {
	case ModeGenre:
		return "genre"
	case ModeSearch:
		return "search"
	default:
		return "default"
	}
}

// ModeFor derives the listing mode from the active filters.
func ModeFor(query string, genreIDs []int) Mode {
	switch {
	case strings.TrimSpace(query) != "":
		return ModeSearch
	case len(genreIDs) > 0:
		return ModeGenre
	default:
		return ModeDefault
	}
}

// State is an immutable snapshot of the browsing session. Slices and the
// SelectedMovie pointer are shared between snapshots and must be treated
// as read-only.
type State struct {
	Movies      []tmdb.Movie
	CurrentPage int
	TotalPages  int

	LastQuery        string
	SelectedGenreIDs []int // sorted, no duplicates
	Mode             Mode

	Genres []tmdb.Genre

	Error     string // user-facing message, "" when there is none
	ErrorKind ErrorKind

	IsRefreshing bool

	SelectedMovie *tmdb.Movie
	Cast          []tmdb.Actor

	// Version increases by one with every committed change.
	Version uint64

	listSeq    uint64
	detailSeq  uint64
	creditsSeq uint64
	refreshes  int
	errSource  errorSource
}

// errorSource records which fetch set State.Error.
type errorSource int

const (
	errFromNone errorSource = iota
	errFromList
	errFromDetails
)

// setError records a failure from src.
func (s *State) setError(kind ErrorKind, src errorSource) {
	s.Error = kind.Message()
	s.ErrorKind = kind
	s.errSource = src
}

func (s *State) clearError() {
	s.Error = ""
	s.ErrorKind = KindNone
	s.errSource = errFromNone
}

// clearErrorFrom removes the error only if src set it.
func (s *State) clearErrorFrom(src errorSource) {
	if s.errSource == src {
		s.clearError()
	}
}

func initialState() *State {
	return &State{
		CurrentPage: 1,
		TotalPages:  1,
		Mode:        ModeDefault,
	}
}

// HasError reports whether a user-facing error is set.
func (s State) HasError() bool { return s.Error != "" }

// CanLoadNext reports whether a next page exists.
func (s State) CanLoadNext() bool { return s.CurrentPage < s.TotalPages }

// CanLoadPrevious reports whether a previous page exists.
func (s State) CanLoadPrevious() bool { return s.CurrentPage > 1 }

// GenreSelected reports whether id is part of the active genre filter.
func (s State) GenreSelected(id int) bool {
	_, found := slices.BinarySearch(s.SelectedGenreIDs, id)
	return found
}

// GenreNames maps ids to names using the loaded catalog, skipping unknown ids.
func (s State) GenreNames(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		for _, g := range s.Genres {
			if g.ID == id {
				names = append(names, g.Name)
				break
			}
		}
	}
	return names
}

// normalizeIDs returns a sorted, de-duplicated copy of ids, or nil when empty.
func normalizeIDs(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// toggleID returns the symmetric difference of the sorted set ids and {id}.
func toggleID(ids []int, id int) []int {
	i, found := slices.BinarySearch(ids, id)
	if found {
		out := slices.Delete(slices.Clone(ids), i, i+1)
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return slices.Insert(slices.Clone(ids), i, id)
}
