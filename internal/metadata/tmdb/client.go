package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vadimtrunov/marquee/internal/httpclient"
)

const (
	// DefaultBaseURL is the TMDb API v3 root.
	DefaultBaseURL = "https://api.themoviedb.org/3"
	imageBaseURL   = "https://image.tmdb.org/t/p/"
)

// Image width buckets served by the TMDb CDN.
const (
	SizeThumbnail = "w200"
	SizePoster    = "w500"
	SizeBackdrop  = "w780"
)

// APIError is returned for non-200 responses from TMDb.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tmdb API error %d", e.StatusCode)
	}
	return fmt.Sprintf("tmdb API error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err carries a TMDb 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is a stateless TMDb API v3 client.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	logger  *slog.Logger
}

// New creates a new TMDb client. An empty baseURL selects DefaultBaseURL.
func New(apiKey, baseURL string, cfg httpclient.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpclient.New(cfg, logger),
		logger:  logger,
	}
}

// NowPlaying returns a page of movies currently in theatres.
func (c *Client) NowPlaying(ctx context.Context, page int) (*MoviePage, error) {
	var resp MoviePage
	if err := c.get(ctx, "/movie/now_playing", pageParams(page), &resp); err != nil {
		return nil, fmt.Errorf("now playing page %d: %w", page, err)
	}
	return &resp, nil
}

// SearchMovies searches movies by title.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*MoviePage, error) {
	params := pageParams(page)
	params.Set("query", query)

	var resp MoviePage
	if err := c.get(ctx, "/search/movie", params, &resp); err != nil {
		return nil, fmt.Errorf("search movies %q: %w", query, err)
	}
	return &resp, nil
}

// DiscoverByGenres lists movies matching the given genres. TMDb treats the
// comma-joined list as an AND filter.
func (c *Client) DiscoverByGenres(ctx context.Context, genreIDs []int, page int) (*MoviePage, error) {
	params := pageParams(page)
	params.Set("with_genres", JoinIDs(genreIDs))

	var resp MoviePage
	if err := c.get(ctx, "/discover/movie", params, &resp); err != nil {
		return nil, fmt.Errorf("discover genres %s: %w", JoinIDs(genreIDs), err)
	}
	return &resp, nil
}

// GetMovie retrieves full details for a movie, with its videos appended.
func (c *Client) GetMovie(ctx context.Context, id int) (*Movie, error) {
	params := url.Values{"append_to_response": {"videos"}}

	var movie Movie
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), params, &movie); err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	return &movie, nil
}

// GetCredits returns the cast of a movie.
func (c *Client) GetCredits(ctx context.Context, id int) ([]Actor, error) {
	var resp creditsResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/credits", id), nil, &resp); err != nil {
		return nil, fmt.Errorf("get credits for %d: %w", id, err)
	}
	return resp.Cast, nil
}

// GetVideos returns the videos attached to a movie.
func (c *Client) GetVideos(ctx context.Context, id int) ([]Video, error) {
	var resp VideoList
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/videos", id), nil, &resp); err != nil {
		return nil, fmt.Errorf("get videos for %d: %w", id, err)
	}
	return resp.Results, nil
}

// GetGenres returns the full movie genre catalog.
func (c *Client) GetGenres(ctx context.Context) ([]Genre, error) {
	var resp genresResponse
	if err := c.get(ctx, "/genre/movie/list", nil, &resp); err != nil {
		return nil, fmt.Errorf("get genres: %w", err)
	}
	return resp.Genres, nil
}

// JoinIDs renders genre ids the way TMDb expects them in with_genres.
func JoinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// ImageURL returns the CDN URL for an image path at the given width bucket.
func ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return imageBaseURL + size + path
}

// PosterURL returns the list-size poster URL.
func PosterURL(path string) string { return ImageURL(path, SizePoster) }

// ThumbnailURL returns the small image URL used for cast portraits.
func ThumbnailURL(path string) string { return ImageURL(path, SizeThumbnail) }

// BackdropURL returns the wide backdrop URL for detail pages.
func BackdropURL(path string) string { return ImageURL(path, SizeBackdrop) }

func pageParams(page int) url.Values {
	if page <= 0 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

// get performs an authenticated GET request to the TMDb API and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("tmdb request", slog.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var er errorResponse
	if json.Unmarshal(body, &er) == nil && er.StatusMessage != "" {
		apiErr.Message = er.StatusMessage
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
