package main

import (
	"fmt"
	"strings"

	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
	"github.com/vadimtrunov/marquee/internal/movies"
)

// maxCastLines caps the cast shown on the detail view.
const maxCastLines = 10

// filterSummary describes what the list currently shows.
func filterSummary(st movies.State) string {
	var parts []string
	switch st.Mode {
	case movies.ModeSearch:
		parts = append(parts, fmt.Sprintf("Search: %q", st.LastQuery))
	case movies.ModeGenre:
		parts = append(parts, "Discover")
	default:
		parts = append(parts, "Now playing")
	}
	if names := st.GenreNames(st.SelectedGenreIDs); len(names) > 0 {
		parts = append(parts, "Genres: "+strings.Join(names, ", "))
	} else if len(st.SelectedGenreIDs) > 0 {
		parts = append(parts, fmt.Sprintf("Genres: %d selected", len(st.SelectedGenreIDs)))
	}
	return strings.Join(parts, "  ·  ")
}

// pageLabel renders the pagination cursor.
func pageLabel(st movies.State) string {
	return fmt.Sprintf("Page %d/%d", st.CurrentPage, st.TotalPages)
}

// movieLine renders one list row: title, year, rating and genres.
func movieLine(m tmdb.Movie, genreNames []string) string {
	var sb strings.Builder
	sb.WriteString(m.Title)
	if y := m.Year(); y != "" {
		sb.WriteString(styleDim.Render(" (" + y + ")"))
	}
	if m.VoteAverage > 0 {
		sb.WriteString(styleRating.Render(fmt.Sprintf("  ★ %.1f", m.VoteAverage)))
	}
	if len(genreNames) > 0 {
		sb.WriteString(styleDim.Render("  " + strings.Join(genreNames, ", ")))
	}
	return sb.String()
}

// renderMovieList renders a full page for one-shot output.
func renderMovieList(st movies.State) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render(filterSummary(st)))
	sb.WriteString("\n")

	if len(st.Movies) == 0 && !st.HasError() {
		sb.WriteString(styleDim.Render("No movies found."))
		sb.WriteString("\n")
	}
	for _, m := range st.Movies {
		fmt.Fprintf(&sb, "%s %s\n", styleDim.Render(fmt.Sprintf("%7d", m.ID)), movieLine(m, st.GenreNames(m.GenreIDs)))
	}

	sb.WriteString("\n")
	sb.WriteString(styleDim.Render(pageLabel(st)))
	sb.WriteString("\n")
	if st.HasError() {
		sb.WriteString(styleError.Render(st.Error))
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderDetails renders the selected movie with cast and trailer link.
func renderDetails(st movies.State) string {
	m := st.SelectedMovie
	if m == nil {
		if st.HasError() {
			return styleError.Render(st.Error) + "\n"
		}
		return styleDim.Render("No movie selected.") + "\n"
	}

	var sb strings.Builder
	title := m.Title
	if y := m.Year(); y != "" {
		title += " (" + y + ")"
	}
	sb.WriteString(styleTitle.Render(title))
	sb.WriteString("\n")
	if m.Tagline != "" {
		sb.WriteString(styleDim.Render(m.Tagline))
		sb.WriteString("\n")
	}

	var facts []string
	if m.VoteAverage > 0 {
		facts = append(facts, styleRating.Render(fmt.Sprintf("★ %.1f", m.VoteAverage)))
	}
	if m.Runtime > 0 {
		facts = append(facts, fmt.Sprintf("%dh %02dm", m.Runtime/60, m.Runtime%60))
	}
	if len(m.Genres) > 0 {
		names := make([]string, len(m.Genres))
		for i, g := range m.Genres {
			names[i] = g.Name
		}
		facts = append(facts, strings.Join(names, ", "))
	}
	if len(facts) > 0 {
		sb.WriteString(strings.Join(facts, "  ·  "))
		sb.WriteString("\n")
	}

	if m.Overview != "" {
		sb.WriteString("\n")
		sb.WriteString(m.Overview)
		sb.WriteString("\n")
	}

	if len(st.Cast) > 0 {
		sb.WriteString("\n")
		sb.WriteString(styleInfo.Render("Cast"))
		sb.WriteString("\n")
		for i, a := range st.Cast {
			if i == maxCastLines {
				sb.WriteString(styleDim.Render(fmt.Sprintf("  …and %d more", len(st.Cast)-maxCastLines)))
				sb.WriteString("\n")
				break
			}
			line := "  " + a.Name
			if a.Character != "" {
				line += styleDim.Render(" as " + a.Character)
			}
			if p := tmdb.ThumbnailURL(a.ProfilePath); p != "" {
				line += styleDim.Render("  " + p)
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	if t, ok := m.Trailer(); ok {
		sb.WriteString("\n")
		sb.WriteString(styleInfo.Render("Trailer: "))
		sb.WriteString(t.WatchURL())
		sb.WriteString("\n")
	}
	if p := tmdb.PosterURL(m.PosterPath); p != "" {
		sb.WriteString(styleDim.Render("Poster: " + p))
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderGenres renders the genre catalog, marking selected ids.
func renderGenres(catalog []tmdb.Genre, selected func(int) bool) string {
	var sb strings.Builder
	for _, g := range catalog {
		mark := "  "
		if selected != nil && selected(g.ID) {
			mark = styleSuccess.Render("✓ ")
		}
		fmt.Fprintf(&sb, "%s%s %s\n", mark, styleDim.Render(fmt.Sprintf("%6d", g.ID)), g.Name)
	}
	return sb.String()
}
