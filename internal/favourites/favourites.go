// Package favourites implements the Favourites Manager (C9): a
// fan-out across heterogeneous "is this song liked" providers (the
// settings store, the streaming-service APIs once wired), with
// partial-success semantics on write.
package favourites

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Song is the minimal identity a favourites provider operates on.
type Song struct {
	Artist string
	Title  string
}

// ErrInvalidSong is returned when artist or title is empty after
// trimming.
var ErrInvalidSong = errors.New("favourites: invalid song")

func (s Song) validate() error {
	if strings.TrimSpace(s.Artist) == "" || strings.TrimSpace(s.Title) == "" {
		return ErrInvalidSong
	}
	return nil
}

// Provider is one backend capable of tracking favourites (the local
// settings store, or a streaming service's liked-songs API).
type Provider interface {
	DisplayName() string
	Enabled() bool
	Active() bool
	IsFavourite(s Song) (bool, error)
	AddFavourite(s Song) error
	RemoveFavourite(s Song) error
}

// Manager fans requests out across every registered provider.
type Manager struct {
	providers []Provider
}

// NewManager returns an empty manager; providers are added with
// Register.
func NewManager() *Manager {
	return &Manager{}
}

// Register appends a favourites provider.
func (m *Manager) Register(p Provider) {
	m.providers = append(m.providers, p)
}

// Providers returns every registered provider, enabled or not.
func (m *Manager) Providers() []Provider {
	return m.providers
}

// IsFavourite returns true if any enabled provider reports the song as
// a favourite. A provider error is logged and treated as false rather
// than propagated.
func (m *Manager) IsFavourite(s Song) (bool, error) {
	if err := s.validate(); err != nil {
		return false, err
	}
	for _, p := range m.providers {
		if !p.Enabled() {
			continue
		}
		fav, err := p.IsFavourite(s)
		if err != nil {
			log.Warn().Err(err).Str("provider", p.DisplayName()).Msg("favourites: is_favourite failed")
			continue
		}
		if fav {
			return true, nil
		}
	}
	return false, nil
}

// Result is the outcome of a fan-out add/remove, naming which
// providers actually changed state.
type Result struct {
	UpdatedProviders []string
}

// Other wraps every per-provider error when all enabled providers
// failed.
type Other struct {
	Errors []error
}

func (o *Other) Error() string {
	msgs := make([]string, len(o.Errors))
	for i, e := range o.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("favourites: all providers failed: %s", strings.Join(msgs, "; "))
}

func (o *Other) Unwrap() []error { return o.Errors }

// AddFavourite fans out to every enabled provider. If every enabled
// provider fails, the call fails with *Other; otherwise it is a
// partial success and Result lists which providers succeeded.
func (m *Manager) AddFavourite(s Song) (Result, error) {
	if err := s.validate(); err != nil {
		return Result{}, err
	}
	return m.fanOut(s, Provider.AddFavourite)
}

// RemoveFavourite is the AddFavourite mirror for removal.
func (m *Manager) RemoveFavourite(s Song) (Result, error) {
	if err := s.validate(); err != nil {
		return Result{}, err
	}
	return m.fanOut(s, Provider.RemoveFavourite)
}

func (m *Manager) fanOut(s Song, op func(Provider, Song) error) (Result, error) {
	var result Result
	var errs []error

	enabledCount := 0
	for _, p := range m.providers {
		if !p.Enabled() {
			continue
		}
		enabledCount++
		if err := op(p, s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.DisplayName(), err))
			continue
		}
		result.UpdatedProviders = append(result.UpdatedProviders, p.DisplayName())
	}

	if enabledCount > 0 && len(errs) == enabledCount {
		return Result{}, &Other{Errors: errs}
	}
	return result, nil
}
