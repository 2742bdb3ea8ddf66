package coverart

import (
	"context"
	"errors"
	"testing"

	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/providers"
)

type fakeFetcher struct {
	name string
	refs []providers.ImageRef
	err  error
}

func (f *fakeFetcher) Name() string { return f.name }
func (f *fakeFetcher) FetchCover(ctx context.Context, hint providers.CoverHint) ([]providers.ImageRef, error) {
	return f.refs, f.err
}

type fakeIdentifier struct {
	name    string
	ids     []string
	partial bool
	err     error
}

func (f *fakeIdentifier) Name() string { return f.name }
func (f *fakeIdentifier) IdentifyArtist(ctx context.Context, name string) ([]string, bool, error) {
	return f.ids, f.partial, f.err
}

func TestFetchCoverConcatenatesInRegistrationOrder(t *testing.T) {
	m := NewManager()
	m.RegisterFetcher(&fakeFetcher{name: "a", refs: []providers.ImageRef{{URL: "a1"}}})
	m.RegisterFetcher(&fakeFetcher{name: "b", refs: []providers.ImageRef{{URL: "b1"}, {URL: "b2"}}})

	got := m.FetchCover(context.Background(), providers.CoverHint{})
	if len(got) != 3 || got[0].URL != "a1" || got[1].URL != "b1" || got[2].URL != "b2" {
		t.Fatalf("FetchCover = %+v", got)
	}
}

func TestFetchCoverSkipsErroringProvider(t *testing.T) {
	m := NewManager()
	m.RegisterFetcher(&fakeFetcher{name: "broken", err: errors.New("boom")})
	m.RegisterFetcher(&fakeFetcher{name: "ok", refs: []providers.ImageRef{{URL: "ok1"}}})

	got := m.FetchCover(context.Background(), providers.CoverHint{})
	if len(got) != 1 || got[0].URL != "ok1" {
		t.Fatalf("FetchCover = %+v", got)
	}
}

func TestIdentifyArtistPartialFlag(t *testing.T) {
	m := NewManager()
	m.RegisterIdentifier(&fakeIdentifier{name: "a", ids: []string{"id1"}})
	m.RegisterIdentifier(&fakeIdentifier{name: "b", ids: nil})

	ids, partial := m.IdentifyArtist(context.Background(), "x")
	if len(ids) != 1 || ids[0] != "id1" {
		t.Fatalf("IdentifyArtist ids = %v", ids)
	}
	if !partial {
		t.Errorf("expected partial=true when one provider found nothing")
	}
}

func TestIdentifyArtistPartialFromProviderSplitLookup(t *testing.T) {
	m := NewManager()
	m.RegisterIdentifier(&fakeIdentifier{name: "a", ids: []string{"id1"}, partial: true})

	ids, partial := m.IdentifyArtist(context.Background(), "x")
	if len(ids) != 1 || ids[0] != "id1" {
		t.Fatalf("IdentifyArtist ids = %v", ids)
	}
	if !partial {
		t.Errorf("expected partial=true to propagate from a provider's own split-lookup partial")
	}
}

func TestIdentifyArtistNoPartialWhenAllAgree(t *testing.T) {
	m := NewManager()
	m.RegisterIdentifier(&fakeIdentifier{name: "a", ids: []string{"id1"}})
	m.RegisterIdentifier(&fakeIdentifier{name: "b", ids: []string{"id1"}})

	_, partial := m.IdentifyArtist(context.Background(), "x")
	if partial {
		t.Errorf("expected partial=false when every provider agrees")
	}
}

func TestBestPicksHighestGrade(t *testing.T) {
	refs := []providers.ImageRef{{URL: "low", Grade: 1}, {URL: "high", Grade: 9}, {URL: "mid", Grade: 5}}
	best, ok := Best(refs)
	if !ok || best.URL != "high" {
		t.Fatalf("Best = %+v, %v", best, ok)
	}
}

func TestBestEmpty(t *testing.T) {
	_, ok := Best(nil)
	if ok {
		t.Errorf("expected ok=false for empty refs")
	}
}
