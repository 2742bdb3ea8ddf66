package favourites

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/larsgrootkarzijn/audiocontrold/internal/store/kvstore"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/settings"
)

func newTestLocalProvider(t *testing.T) *LocalProvider {
	t.Helper()
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "settings.db"), "settings")
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return NewLocalProvider(settings.New(kv))
}

type stubProvider struct {
	name     string
	enabled  bool
	fav      bool
	addErr   error
	removeErr error
}

func (p *stubProvider) DisplayName() string { return p.name }
func (p *stubProvider) Enabled() bool       { return p.enabled }
func (p *stubProvider) Active() bool        { return p.enabled }
func (p *stubProvider) IsFavourite(s Song) (bool, error) {
	return p.fav, nil
}
func (p *stubProvider) AddFavourite(s Song) error    { return p.addErr }
func (p *stubProvider) RemoveFavourite(s Song) error { return p.removeErr }

func TestInvalidSongRejected(t *testing.T) {
	m := NewManager()
	m.Register(newTestLocalProvider(t))

	if _, err := m.IsFavourite(Song{Artist: "", Title: "x"}); !errors.Is(err, ErrInvalidSong) {
		t.Errorf("IsFavourite err = %v, want ErrInvalidSong", err)
	}
	if _, err := m.AddFavourite(Song{Artist: "x", Title: "  "}); !errors.Is(err, ErrInvalidSong) {
		t.Errorf("AddFavourite err = %v, want ErrInvalidSong", err)
	}
}

func TestAddThenIsFavouriteRoundTrip(t *testing.T) {
	m := NewManager()
	m.Register(newTestLocalProvider(t))

	song := Song{Artist: "Daft Punk", Title: "One More Time"}

	result, err := m.AddFavourite(song)
	if err != nil {
		t.Fatalf("AddFavourite: %v", err)
	}
	if len(result.UpdatedProviders) != 1 || result.UpdatedProviders[0] != "local" {
		t.Errorf("UpdatedProviders = %v", result.UpdatedProviders)
	}

	fav, err := m.IsFavourite(song)
	if err != nil || !fav {
		t.Errorf("IsFavourite = %v, %v, want true, nil", fav, err)
	}

	if _, err := m.RemoveFavourite(song); err != nil {
		t.Fatalf("RemoveFavourite: %v", err)
	}
	fav, _ = m.IsFavourite(song)
	if fav {
		t.Errorf("expected favourite removed")
	}
}

func TestIsFavouriteTrueIfAnyEnabledProviderTrue(t *testing.T) {
	m := NewManager()
	m.Register(&stubProvider{name: "a", enabled: true, fav: false})
	m.Register(&stubProvider{name: "b", enabled: true, fav: true})

	fav, err := m.IsFavourite(Song{Artist: "x", Title: "y"})
	if err != nil || !fav {
		t.Errorf("IsFavourite = %v, %v, want true, nil", fav, err)
	}
}

func TestIsFavouriteIgnoresDisabledProviders(t *testing.T) {
	m := NewManager()
	m.Register(&stubProvider{name: "a", enabled: false, fav: true})

	fav, err := m.IsFavourite(Song{Artist: "x", Title: "y"})
	if err != nil || fav {
		t.Errorf("IsFavourite = %v, %v, want false, nil", fav, err)
	}
}

func TestAddFavouritePartialSuccess(t *testing.T) {
	m := NewManager()
	m.Register(&stubProvider{name: "ok", enabled: true})
	m.Register(&stubProvider{name: "bad", enabled: true, addErr: errors.New("network down")})

	result, err := m.AddFavourite(Song{Artist: "x", Title: "y"})
	if err != nil {
		t.Fatalf("expected partial success, got error: %v", err)
	}
	if len(result.UpdatedProviders) != 1 || result.UpdatedProviders[0] != "ok" {
		t.Errorf("UpdatedProviders = %v", result.UpdatedProviders)
	}
}

func TestAddFavouriteAllFailReturnsOther(t *testing.T) {
	m := NewManager()
	m.Register(&stubProvider{name: "a", enabled: true, addErr: errors.New("a failed")})
	m.Register(&stubProvider{name: "b", enabled: true, addErr: errors.New("b failed")})

	_, err := m.AddFavourite(Song{Artist: "x", Title: "y"})
	var other *Other
	if !errors.As(err, &other) {
		t.Fatalf("expected *Other, got %v", err)
	}
	if len(other.Errors) != 2 {
		t.Errorf("Errors = %v", other.Errors)
	}
}

func TestAddFavouriteNoEnabledProvidersSucceedsEmpty(t *testing.T) {
	m := NewManager()
	m.Register(&stubProvider{name: "a", enabled: false})

	result, err := m.AddFavourite(Song{Artist: "x", Title: "y"})
	if err != nil {
		t.Fatalf("AddFavourite: %v", err)
	}
	if len(result.UpdatedProviders) != 0 {
		t.Errorf("UpdatedProviders = %v, want empty", result.UpdatedProviders)
	}
}
