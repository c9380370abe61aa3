package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/marquee/internal/genres"
	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
	"github.com/vadimtrunov/marquee/internal/movies"
)

// Session is the browsing session the tools operate on. Every call blocks
// until the repository has committed its result.
type Session interface {
	State() movies.State
	LoadMovies(ctx context.Context, page int, query string, genreIDs []int)
	FetchMovies(ctx context.Context)
	SearchMovies(ctx context.Context, query string)
	ToggleGenreSelection(ctx context.Context, id int)
	ClearSelectedGenres(ctx context.Context)
	LoadNextPage(ctx context.Context) bool
	LoadPreviousPage(ctx context.Context) bool
	RefreshMovies(ctx context.Context)
	FetchGenres(ctx context.Context)
	FetchMovieDetails(ctx context.Context, movieID int)
}

// Compile-time interface check.
var _ Session = (*movies.Repository)(nil)

// Server wraps an MCP SDK server with Marquee tool handlers.
type Server struct {
	server  *mcpsdk.Server
	session Session
	logger  *slog.Logger
}

// NewServer creates an MCP server with all Marquee tools registered.
func NewServer(session Session, version string, logger *slog.Logger) *Server {
	if session == nil {
		panic("mcp.NewServer: session must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "marquee",
			Version: version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, session: session, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

// registerTools registers all Marquee tools on the MCP server.
func (s *Server) registerTools() {
	s.server.AddTool(listMoviesTool(), s.handleListMovies)
	s.server.AddTool(searchMoviesTool(), s.handleSearchMovies)
	s.server.AddTool(filterByGenreTool(), s.handleFilterByGenre)
	s.server.AddTool(noArgsTool("clear_genres",
		"Remove every genre filter and reload the first page."), s.handleClearGenres)
	s.server.AddTool(noArgsTool("next_page",
		"Load the next page of the current listing. Does nothing on the last page."), s.handleNextPage)
	s.server.AddTool(noArgsTool("previous_page",
		"Load the previous page of the current listing. Does nothing on the first page."), s.handlePreviousPage)
	s.server.AddTool(noArgsTool("refresh_movies",
		"Reload the current page with the current search and genre filters."), s.handleRefresh)
	s.server.AddTool(getMovieDetailsTool(), s.handleGetMovieDetails)
	s.server.AddTool(noArgsTool("list_genres",
		"List the TMDb movie genres with their ids."), s.handleListGenres)
}

// Tool definitions.

func listMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name: "list_movies",
		Description: "Load a page of movies. Without arguments this is the first page of movies now playing in theaters. " +
			"A query searches by title; genres restrict the listing to those genres.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"page": map[string]any{
					"type":        "integer",
					"description": "Page number, starting at 1",
				},
				"query": map[string]any{
					"type":        "string",
					"description": "Optional title search",
				},
				"genres": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Optional genre names or ids",
				},
			},
		},
	}
}

func searchMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "search_movies",
		Description: "Search movies by title, keeping the active genre filter. An empty query returns to the unfiltered listing.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The movie title to search for",
				},
			},
			"required": []any{"query"},
		},
	}
}

func filterByGenreTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "filter_by_genre",
		Description: "Toggle a genre in the genre filter: adds it when absent, removes it when present. Accepts a genre name or id.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"genre": map[string]any{
					"type":        "string",
					"description": "Genre name (e.g. \"Action\") or TMDb genre id",
				},
			},
			"required": []any{"genre"},
		},
	}
}

func getMovieDetailsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_movie_details",
		Description: "Get details about a movie by its TMDb ID: overview, genres, runtime, cast and trailer link.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"movie_id": map[string]any{
					"type":        "integer",
					"description": "The TMDb ID of the movie",
				},
			},
			"required": []any{"movie_id"},
		},
	}
}

func noArgsTool(name, desc string) *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        name,
		Description: desc,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

// Tool handlers. Each runs one repository operation and returns the
// resulting state as JSON text content.

func (s *Server) handleListMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		Page   int             `json:"page"`
		Query  string          `json:"query"`
		Genres json.RawMessage `json:"genres"`
	}
	if err := unmarshalArgs(req.Params.Arguments, &args); err != nil {
		return toolError(err.Error()), nil
	}

	refs, err := parseStringList(args.Genres)
	if err != nil {
		return toolError(fmt.Sprintf("genres: %v", err)), nil
	}

	if args.Page == 0 && args.Query == "" && len(refs) == 0 {
		s.session.FetchMovies(ctx)
		return listResult(s.session.State())
	}

	ids, err := genres.Resolve(s.catalog(ctx), refs)
	if err != nil {
		return toolError(err.Error()), nil
	}
	s.session.LoadMovies(ctx, max(args.Page, 1), args.Query, ids)
	return listResult(s.session.State())
}

func (s *Server) handleSearchMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args struct {
		Query *string `json:"query"`
	}
	if err := unmarshalArgs(req.Params.Arguments, &args); err != nil {
		return toolError(err.Error()), nil
	}
	if args.Query == nil {
		return toolError("search_movies requires a 'query' string argument"), nil
	}

	s.session.SearchMovies(ctx, *args.Query)
	return listResult(s.session.State())
}

func (s *Server) handleFilterByGenre(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	ref, err := extractStringFromArgs(req.Params.Arguments, "genre")
	if err != nil {
		return toolError(err.Error()), nil
	}

	g, ok := genres.Match(s.catalog(ctx), ref)
	if !ok {
		return toolError(fmt.Sprintf("%v: %s", genres.ErrUnknownGenre, ref)), nil
	}
	s.logger.Debug("toggling genre", slog.Int("genre_id", g.ID), slog.String("genre", g.Name))

	s.session.ToggleGenreSelection(ctx, g.ID)
	return listResult(s.session.State())
}

func (s *Server) handleClearGenres(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	s.session.ClearSelectedGenres(ctx)
	return listResult(s.session.State())
}

func (s *Server) handleNextPage(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if !s.session.LoadNextPage(ctx) {
		return toolError("already on the last page"), nil
	}
	return listResult(s.session.State())
}

func (s *Server) handlePreviousPage(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if !s.session.LoadPreviousPage(ctx) {
		return toolError("already on the first page"), nil
	}
	return listResult(s.session.State())
}

func (s *Server) handleRefresh(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	s.session.RefreshMovies(ctx)
	return listResult(s.session.State())
}

func (s *Server) handleGetMovieDetails(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	movieID, err := extractIntFromArgs(req.Params.Arguments, "movie_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	s.session.FetchMovieDetails(ctx, movieID)
	st := s.session.State()
	if st.SelectedMovie == nil || st.SelectedMovie.ID != movieID {
		msg := st.Error
		if msg == "" {
			msg = movies.KindOther.Message()
		}
		return toolError(msg), nil
	}
	return toolJSON(newDetailsView(st))
}

func (s *Server) handleListGenres(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	catalog := s.catalog(ctx)
	if len(catalog) == 0 {
		return toolError("genre list unavailable"), nil
	}
	return toolJSON(catalog)
}

// catalog returns the genre catalog, loading it on first use.
func (s *Server) catalog(ctx context.Context) []tmdb.Genre {
	if g := s.session.State().Genres; len(g) > 0 {
		return g
	}
	s.session.FetchGenres(ctx)
	return s.session.State().Genres
}

// Result views.

type movieView struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	Year      string   `json:"year,omitempty"`
	Rating    float64  `json:"rating,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	PosterURL string   `json:"poster_url,omitempty"`
}

type listView struct {
	Mode       string      `json:"mode"`
	Query      string      `json:"query,omitempty"`
	Genres     []string    `json:"genres,omitempty"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	Movies     []movieView `json:"movies"`
	Error      string      `json:"error,omitempty"`
}

func newListView(st movies.State) listView {
	v := listView{
		Mode:       st.Mode.String(),
		Query:      st.LastQuery,
		Genres:     st.GenreNames(st.SelectedGenreIDs),
		Page:       st.CurrentPage,
		TotalPages: st.TotalPages,
		Movies:     make([]movieView, 0, len(st.Movies)),
		Error:      st.Error,
	}
	for i := range st.Movies {
		m := &st.Movies[i]
		v.Movies = append(v.Movies, movieView{
			ID:        m.ID,
			Title:     m.Title,
			Year:      m.Year(),
			Rating:    m.VoteAverage,
			Genres:    st.GenreNames(m.GenreIDs),
			PosterURL: tmdb.PosterURL(m.PosterPath),
		})
	}
	return v
}

// listResult reports the list state. A failed fetch is flagged as a tool
// error but still carries the movies that stayed visible.
func listResult(st movies.State) (*mcpsdk.CallToolResult, error) {
	res, err := toolJSON(newListView(st))
	if err == nil && st.HasError() {
		res.IsError = true
	}
	return res, err
}

type castView struct {
	Name       string `json:"name"`
	Character  string `json:"character,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
}

type detailsView struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Tagline     string     `json:"tagline,omitempty"`
	Overview    string     `json:"overview,omitempty"`
	ReleaseDate string     `json:"release_date,omitempty"`
	Runtime     int        `json:"runtime,omitempty"`
	Rating      float64    `json:"rating,omitempty"`
	Genres      []string   `json:"genres,omitempty"`
	PosterURL   string     `json:"poster_url,omitempty"`
	BackdropURL string     `json:"backdrop_url,omitempty"`
	TrailerURL  string     `json:"trailer_url,omitempty"`
	Cast        []castView `json:"cast"`
}

func newDetailsView(st movies.State) detailsView {
	m := st.SelectedMovie
	v := detailsView{
		ID:          m.ID,
		Title:       m.Title,
		Tagline:     m.Tagline,
		Overview:    m.Overview,
		ReleaseDate: m.ReleaseDate,
		Runtime:     m.Runtime,
		Rating:      m.VoteAverage,
		PosterURL:   tmdb.PosterURL(m.PosterPath),
		BackdropURL: tmdb.BackdropURL(m.BackdropPath),
		Cast:        make([]castView, 0, len(st.Cast)),
	}
	for _, g := range m.Genres {
		v.Genres = append(v.Genres, g.Name)
	}
	if t, ok := m.Trailer(); ok {
		v.TrailerURL = t.WatchURL()
	}
	for _, a := range st.Cast {
		v.Cast = append(v.Cast, castView{
			Name:       a.Name,
			Character:  a.Character,
			ProfileURL: tmdb.ThumbnailURL(a.ProfilePath),
		})
	}
	return v
}

// Helper functions.

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

// unmarshalArgs decodes raw JSON arguments; absent arguments decode to zero values.
func unmarshalArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// parseStringList accepts a JSON array of strings/numbers or a single
// comma-separated string.
func parseStringList(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}

	var many []any
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("must be a string or an array of strings")
	}
	out := make([]string, 0, len(many))
	for _, v := range many {
		switch v := v.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.Itoa(int(v)))
		default:
			return nil, fmt.Errorf("unsupported element %T", v)
		}
	}
	return out, nil
}

// extractIntFromArgs extracts an integer argument from raw JSON arguments.
func extractIntFromArgs(raw json.RawMessage, key string) (int, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return 0, fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	switch v := val.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, val)
	}
}

// extractStringFromArgs extracts a string argument from raw JSON arguments.
func extractStringFromArgs(raw json.RawMessage, key string) (string, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}

	switch v := val.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("%s must be a non-empty string", key)
		}
		return v, nil
	case float64:
		return strconv.Itoa(int(v)), nil
	default:
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
}
