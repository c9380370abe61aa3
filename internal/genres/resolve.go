// Package genres resolves user-typed genre references against the TMDb
// genre catalog.
package genres

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sfuzzy "github.com/sahilm/fuzzy"

	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
)

// ErrUnknownGenre is returned when a reference matches nothing in the catalog.
var ErrUnknownGenre = errors.New("unknown genre")

// maxTypoDistance bounds the edit distance accepted when no subsequence
// match exists.
const maxTypoDistance = 2

// Resolve maps genre references to catalog ids. Each reference may be a
// numeric id, a name in any case, or an abbreviation/typo of a name.
// Comma-separated references are split. The result is sorted and free of
// duplicates.
func Resolve(catalog []tmdb.Genre, refs []string) ([]int, error) {
	var (
		ids     []int
		unknown []string
	)
	for _, ref := range splitRefs(refs) {
		g, ok := Match(catalog, ref)
		if !ok {
			unknown = append(unknown, ref)
			continue
		}
		ids = append(ids, g.ID)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGenre, strings.Join(unknown, ", "))
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// Match finds the genre a single reference points to.
func Match(catalog []tmdb.Genre, ref string) (tmdb.Genre, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || len(catalog) == 0 {
		return tmdb.Genre{}, false
	}

	if id, err := strconv.Atoi(ref); err == nil {
		for _, g := range catalog {
			if g.ID == id {
				return g, true
			}
		}
		return tmdb.Genre{}, false
	}

	for _, g := range catalog {
		if strings.EqualFold(g.Name, ref) {
			return g, true
		}
	}

	names := make([]string, len(catalog))
	for i, g := range catalog {
		names[i] = g.Name
	}

	// Subsequence match first ("sci fi" -> "Science Fiction"), closest wins.
	if ranks := fuzzy.RankFindFold(ref, names); len(ranks) > 0 {
		sort.Sort(ranks)
		return catalog[ranks[0].OriginalIndex], true
	}

	best, bestDist := -1, maxTypoDistance+1
	lower := strings.ToLower(ref)
	for i, name := range names {
		if d := fuzzy.LevenshteinDistance(lower, strings.ToLower(name)); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return tmdb.Genre{}, false
	}
	return catalog[best], true
}

func splitRefs(refs []string) []string {
	var out []string
	for _, ref := range refs {
		for part := range strings.SplitSeq(ref, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Hit is a genre matched by Filter, with the rune positions that matched.
type Hit struct {
	Genre          tmdb.Genre
	MatchedIndexes []int
}

// catalogSource adapts a genre slice to sfuzzy.Source.
type catalogSource []tmdb.Genre

func (c catalogSource) String(i int) string { return c[i].Name }
func (c catalogSource) Len() int            { return len(c) }

// Filter narrows the catalog to genres matching a typed pattern, best match
// first. An empty pattern returns every genre in catalog order.
func Filter(catalog []tmdb.Genre, pattern string) []Hit {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		hits := make([]Hit, len(catalog))
		for i, g := range catalog {
			hits[i] = Hit{Genre: g}
		}
		return hits
	}

	matches := sfuzzy.FindFrom(pattern, catalogSource(catalog))
	hits := make([]Hit, len(matches))
	for i, m := range matches {
		hits[i] = Hit{Genre: catalog[m.Index], MatchedIndexes: m.MatchedIndexes}
	}
	return hits
}
