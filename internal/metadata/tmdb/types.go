package tmdb

import "slices"

// siteYouTube is the TMDb site name for YouTube-hosted videos.
const siteYouTube = "YouTube"

// Movie represents a movie from TMDb listings and the details endpoint.
// Optional fields are zero-valued when TMDb omits them.
type Movie struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	Overview     string     `json:"overview"`
	PosterPath   string     `json:"poster_path,omitempty"`
	BackdropPath string     `json:"backdrop_path,omitempty"`
	ReleaseDate  string     `json:"release_date,omitempty"`
	VoteAverage  float64    `json:"vote_average,omitempty"`
	GenreIDs     []int      `json:"genre_ids,omitempty"`
	Genres       []Genre    `json:"genres,omitempty"`
	Runtime      int        `json:"runtime,omitempty"`
	Tagline      string     `json:"tagline,omitempty"`
	Videos       *VideoList `json:"videos,omitempty"`
}

// HasAnyGenre reports whether the movie carries at least one of ids.
// The details endpoint returns Genres instead of GenreIDs; both are checked.
func (m Movie) HasAnyGenre(ids []int) bool {
	for _, id := range m.GenreIDs {
		if slices.Contains(ids, id) {
			return true
		}
	}
	for _, g := range m.Genres {
		if slices.Contains(ids, g.ID) {
			return true
		}
	}
	return false
}

// Trailer picks the video to play for the movie: the first YouTube video
// typed "Trailer", otherwise the first YouTube video of any type.
func (m Movie) Trailer() (Video, bool) {
	if m.Videos == nil {
		return Video{}, false
	}
	var fallback *Video
	for i := range m.Videos.Results {
		v := m.Videos.Results[i]
		if v.Site != siteYouTube || v.Key == "" {
			continue
		}
		if v.Type == "Trailer" {
			return v, true
		}
		if fallback == nil {
			fallback = &m.Videos.Results[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Video{}, false
}

// Year returns the four-digit release year, or "" when unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	return m.ReleaseDate[:4]
}

// Genre represents a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Actor is a cast entry for a movie.
type Actor struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	ProfilePath string `json:"profile_path,omitempty"`
	Character   string `json:"character"`
}

// Video is a trailer, teaser or clip attached to a movie.
type Video struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// WatchURL returns a browser URL for the video, or "" for unsupported sites.
func (v Video) WatchURL() string {
	if v.Site != siteYouTube || v.Key == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + v.Key
}

// VideoList wraps the videos appended to a movie details response.
type VideoList struct {
	Results []Video `json:"results"`
}

// MoviePage is the TMDb paginated listing envelope.
type MoviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// creditsResponse wraps the credits endpoint response.
type creditsResponse struct {
	ID   int     `json:"id"`
	Cast []Actor `json:"cast"`
}

// genresResponse wraps the genre list endpoint response.
type genresResponse struct {
	Genres []Genre `json:"genres"`
}

// errorResponse is the body TMDb sends with non-2xx statuses.
type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}
