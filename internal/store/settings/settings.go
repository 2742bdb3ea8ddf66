// Package settings implements the Settings Store (C2): the same
// persistence mechanism as the attribute cache, with typed helpers and
// the local favourites key convention.
package settings

import (
	"strconv"
	"strings"

	"github.com/larsgrootkarzijn/audiocontrold/internal/store/kvstore"
)

// Store wraps a kvstore.Store with typed accessors for settings values.
type Store struct {
	kv *kvstore.Store
}

// New wraps an already-open kvstore.Store.
func New(kv *kvstore.Store) *Store {
	return &Store{kv: kv}
}

// GetString returns the string at key, or ok=false on miss.
func (s *Store) GetString(key string) (string, bool) {
	v, ok := s.kv.Get(key)
	if !ok {
		return "", false
	}
	return string(v), true
}

// GetStringWithDefault returns the string at key, or def on miss.
func (s *Store) GetStringWithDefault(key, def string) string {
	if v, ok := s.GetString(key); ok {
		return v
	}
	return def
}

// SetString stores a raw string value.
func (s *Store) SetString(key, value string) error {
	return s.kv.Set(key, []byte(value))
}

// GetInt parses the stored string as an int.
func (s *Store) GetInt(key string) (int, bool) {
	v, ok := s.GetString(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetIntWithDefault returns the int at key, or def on miss/parse error.
func (s *Store) GetIntWithDefault(key string, def int) int {
	if n, ok := s.GetInt(key); ok {
		return n
	}
	return def
}

// SetInt stores an int as its decimal string form.
func (s *Store) SetInt(key string, value int) error {
	return s.SetString(key, strconv.Itoa(value))
}

// GetBool parses the stored string as a bool ("true"/"false").
func (s *Store) GetBool(key string) (bool, bool) {
	v, ok := s.GetString(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// GetBoolWithDefault returns the bool at key, or def on miss/parse error.
func (s *Store) GetBoolWithDefault(key string, def bool) bool {
	if b, ok := s.GetBool(key); ok {
		return b
	}
	return def
}

// SetBool stores a bool as "true"/"false".
func (s *Store) SetBool(key string, value bool) error {
	return s.SetString(key, strconv.FormatBool(value))
}

// Remove deletes key.
func (s *Store) Remove(key string) (bool, error) {
	return s.kv.Remove(key)
}

const favouriteKeyPrefix = "favourite_song:"

// sanitise replaces ':', '/', '\\', and whitespace with '_' and
// lowercases, matching the attribute cache's convention exactly — the
// favourites provider stores keys through the same scheme so that an
// attribute-cache dump and a settings dump read consistently.
func sanitise(s string) string {
	s = strings.ToLower(s)
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_")
	s = replacer.Replace(s)
	return strings.Join(strings.Fields(s), "_")
}

// FavouriteKey derives "favourite_song:<sanitised_artist>:<sanitised_title>".
func FavouriteKey(artist, title string) string {
	return favouriteKeyPrefix + sanitise(artist) + ":" + sanitise(title)
}

// SetFavourite marks (artist, title) as a favourite.
func (s *Store) SetFavourite(artist, title string) error {
	return s.SetBool(FavouriteKey(artist, title), true)
}

// RemoveFavourite unmarks (artist, title) as a favourite.
func (s *Store) RemoveFavourite(artist, title string) (bool, error) {
	return s.Remove(FavouriteKey(artist, title))
}

// IsFavourite reports whether (artist, title) is marked as a favourite.
func (s *Store) IsFavourite(artist, title string) bool {
	v, ok := s.GetBool(FavouriteKey(artist, title))
	return ok && v
}

// FavouriteEntry is one row of the lossy "list all favourites" view.
// The authoritative record is the key's presence, not this decoding —
// see DESIGN.md and §9 of SPEC_FULL.md.
type FavouriteEntry struct {
	Artist string
	Title  string
}

// ListFavourites enumerates every favourite key and best-effort decodes
// it back into (artist, title). Decoding is lossy: sanitisation is not
// invertible, so the returned strings are informational only.
func (s *Store) ListFavourites() ([]FavouriteEntry, error) {
	keys, err := s.kv.ListKeys(favouriteKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]FavouriteEntry, 0, len(keys))
	for _, k := range keys {
		rest := strings.TrimPrefix(k, favouriteKeyPrefix)
		parts := strings.SplitN(rest, ":", 2)
		entry := FavouriteEntry{Artist: parts[0]}
		if len(parts) > 1 {
			entry.Title = parts[1]
		}
		// Reverse the underscore-for-space substitution; everything
		// else (original casing, punctuation) is unrecoverable.
		entry.Artist = strings.ReplaceAll(entry.Artist, "_", " ")
		entry.Title = strings.ReplaceAll(entry.Title, "_", " ")
		out = append(out, entry)
	}
	return out, nil
}
