package tmdb

import "testing"

func TestMovie_Trailer(t *testing.T) {
	tests := []struct {
		name    string
		videos  *VideoList
		wantKey string
		wantOK  bool
	}{
		{"no videos", nil, "", false},
		{"empty list", &VideoList{}, "", false},
		{"prefers trailer type", &VideoList{Results: []Video{
			{Key: "clip", Site: "YouTube", Type: "Clip"},
			{Key: "trl", Site: "YouTube", Type: "Trailer"},
		}}, "trl", true},
		{"falls back to first youtube", &VideoList{Results: []Video{
			{Key: "vim", Site: "Vimeo", Type: "Trailer"},
			{Key: "teaser", Site: "YouTube", Type: "Teaser"},
			{Key: "clip", Site: "YouTube", Type: "Clip"},
		}}, "teaser", true},
		{"ignores other sites", &VideoList{Results: []Video{
			{Key: "vim", Site: "Vimeo", Type: "Trailer"},
		}}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Movie{Videos: tt.videos}.Trailer()
			if ok != tt.wantOK || v.Key != tt.wantKey {
				t.Errorf("Trailer() = (%q, %v), want (%q, %v)", v.Key, ok, tt.wantKey, tt.wantOK)
			}
		})
	}
}

func TestMovie_HasAnyGenre(t *testing.T) {
	listing := Movie{GenreIDs: []int{28, 12}}
	if !listing.HasAnyGenre([]int{12}) {
		t.Error("expected match on genre_ids")
	}
	if listing.HasAnyGenre([]int{35}) {
		t.Error("unexpected match")
	}
	if listing.HasAnyGenre(nil) {
		t.Error("empty filter matches nothing")
	}

	details := Movie{Genres: []Genre{{ID: 18, Name: "Drama"}}}
	if !details.HasAnyGenre([]int{18}) {
		t.Error("expected match on genres")
	}
}

func TestMovie_Year(t *testing.T) {
	if y := (Movie{ReleaseDate: "2021-09-15"}).Year(); y != "2021" {
		t.Errorf("Year() = %q", y)
	}
	if y := (Movie{}).Year(); y != "" {
		t.Errorf("Year() = %q, want empty", y)
	}
}

func TestVideo_WatchURL(t *testing.T) {
	if u := (Video{Key: "abc", Site: "YouTube"}).WatchURL(); u != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("WatchURL() = %q", u)
	}
	if u := (Video{Key: "abc", Site: "Vimeo"}).WatchURL(); u != "" {
		t.Errorf("WatchURL() = %q, want empty", u)
	}
}
