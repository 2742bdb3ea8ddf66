package attributecache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/larsgrootkarzijn/audiocontrold/internal/store/kvstore"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	disk, err := kvstore.Open(filepath.Join(t.TempDir(), "attrs.db"), "attrs")
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	t.Cleanup(func() { disk.Close() })

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return New(disk, rdb, time.Minute)
}

func TestSetGetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	if err := c.Set("k", "hello"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got string
	if !c.Get("k", &got) || got != "hello" {
		t.Fatalf("Get = %q, want hello", got)
	}
}

func TestNegativeMarkerPreventsNetworkOnCacheOnlyLookup(t *testing.T) {
	c := newTestCache(t)
	key := "mbid::Nonexistent Artist"

	if err := c.SetNotFound(key); err != nil {
		t.Fatalf("SetNotFound: %v", err)
	}

	var ids []string
	if got := c.GetWithNegative(key, &ids); got != LookupNotFound {
		t.Fatalf("GetWithNegative = %v, want LookupNotFound", got)
	}
}

func TestPositiveAndNegativeMutuallyExclusive(t *testing.T) {
	c := newTestCache(t)
	key := "mbid::Artist"

	if err := c.SetFound(key, []string{"mbid-1"}); err != nil {
		t.Fatalf("SetFound: %v", err)
	}
	var notFound bool
	if c.Get(NegativeKey(key), &notFound) {
		t.Fatalf("expected no negative marker after SetFound")
	}

	if err := c.SetNotFound(key); err != nil {
		t.Fatalf("SetNotFound: %v", err)
	}
	var ids []string
	if c.Get(key, &ids) {
		t.Fatalf("expected no positive entry after SetNotFound")
	}
}

func TestDisabledCacheIsAlwaysMiss(t *testing.T) {
	c := Disabled()
	if err := c.Set("k", "v"); err == nil {
		t.Fatalf("expected error from disabled cache")
	}
	var v string
	if c.Get("k", &v) {
		t.Fatalf("expected miss from disabled cache")
	}
}

func TestSanitiseKeyPart(t *testing.T) {
	cases := map[string]string{
		"Daft Punk":     "daft_punk",
		"AC/DC":         "ac_dc",
		"Foo:Bar\\Baz":  "foo_bar_baz",
		"  multi  word": "multi_word",
	}
	for in, want := range cases {
		if got := SanitiseKeyPart(in); got != want {
			t.Errorf("SanitiseKeyPart(%q) = %q, want %q", in, got, want)
		}
	}
}
