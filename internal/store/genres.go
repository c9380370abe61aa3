// Package store persists reference data that rarely changes between
// sessions, so a cold start does not have to refetch it.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
)

// DefaultGenreTTL bounds how long a stored genre catalog is trusted.
const DefaultGenreTTL = 7 * 24 * time.Hour

const movieGenresKey = "movie"

var bucketGenres = []byte("genres")

type genreRecord struct {
	SavedAt time.Time    `json:"saved_at"`
	Genres  []tmdb.Genre `json:"genres"`
}

// GenreStore keeps the genre catalog in memory and, when a directory is
// configured, in a bolt file under it.
type GenreStore struct {
	db     *bolt.DB
	mem    *memCache[[]tmdb.Genre]
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// OpenGenreStore opens (or creates) the store in dir. An empty dir gives a
// memory-only store.
func OpenGenreStore(dir string, ttl time.Duration, logger *slog.Logger) (*GenreStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultGenreTTL
	}
	s := &GenreStore{
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
	s.mem = newMemCache[[]tmdb.Genre](ttl, func() time.Time { return s.now() })

	if dir == "" {
		return s, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, "marquee.db"), 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketGenres)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create genres bucket: %w", err)
	}

	s.db = db
	return s, nil
}

// Genres returns the stored catalog if it is younger than the TTL.
func (s *GenreStore) Genres() ([]tmdb.Genre, bool) {
	if genres, ok := s.mem.Get(movieGenresKey); ok {
		return genres, true
	}
	if s.db == nil {
		return nil, false
	}

	var rec genreRecord
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketGenres).Get([]byte(movieGenresKey))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		s.logger.Warn("genre store read failed", slog.String("error", err.Error()))
		return nil, false
	}
	if !found || s.now().Sub(rec.SavedAt) > s.ttl {
		return nil, false
	}

	s.mem.SetAt(movieGenresKey, rec.Genres, rec.SavedAt)
	return rec.Genres, true
}

// SaveGenres replaces the stored catalog.
func (s *GenreStore) SaveGenres(genres []tmdb.Genre) error {
	now := s.now()
	s.mem.SetAt(movieGenresKey, genres, now)
	if s.db == nil {
		return nil
	}

	data, err := json.Marshal(genreRecord{SavedAt: now, Genres: genres})
	if err != nil {
		return fmt.Errorf("marshal genres: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGenres).Put([]byte(movieGenresKey), data)
	})
}

// Close releases the bolt file, if any.
func (s *GenreStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
