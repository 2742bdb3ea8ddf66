package favourites

import "github.com/larsgrootkarzijn/audiocontrold/internal/store/settings"

// LocalProvider is the always-available Provider backed by the local
// settings store (C2). It is the first provider registered with any
// Manager and is always enabled and active.
type LocalProvider struct {
	settings *settings.Store
}

// NewLocalProvider wraps an already-open settings store.
func NewLocalProvider(s *settings.Store) *LocalProvider {
	return &LocalProvider{settings: s}
}

func (p *LocalProvider) DisplayName() string { return "local" }
func (p *LocalProvider) Enabled() bool       { return true }
func (p *LocalProvider) Active() bool        { return true }

func (p *LocalProvider) IsFavourite(s Song) (bool, error) {
	return p.settings.IsFavourite(s.Artist, s.Title), nil
}

func (p *LocalProvider) AddFavourite(s Song) error {
	return p.settings.SetFavourite(s.Artist, s.Title)
}

func (p *LocalProvider) RemoveFavourite(s Song) error {
	_, err := p.settings.RemoveFavourite(s.Artist, s.Title)
	return err
}
