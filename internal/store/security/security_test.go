package security

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/larsgrootkarzijn/audiocontrold/internal/store/kvstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "security.db"), "security")
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return New(kv, []byte("test-machine-secret"))
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set("spotify:refresh_token", "super-secret"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok := s.Get("spotify:refresh_token")
	if !ok || v != "super-secret" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
}

func TestValueIsEncryptedAtRest(t *testing.T) {
	s := newTestStore(t)
	s.Set("k", "plaintext-value")

	raw, ok := s.kv.Get("k")
	if !ok {
		t.Fatalf("expected raw entry present")
	}
	if string(raw) == "plaintext-value" {
		t.Fatalf("value stored in plaintext")
	}
}

func TestWrongSecretFailsToDecrypt(t *testing.T) {
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "security.db"), "security")
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	defer kv.Close()

	s1 := New(kv, []byte("secret-a"))
	s1.Set("k", "value")

	s2 := New(kv, []byte("secret-b"))
	if _, ok := s2.Get("k"); ok {
		t.Fatalf("expected decrypt failure under wrong secret to read as miss")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestStore(t)
	tok := Token{AccessToken: "at", RefreshToken: "rt", ExpiresAt: "2026-08-01T00:00:00Z"}
	if err := s.SetToken("spotify", tok); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	got, ok := s.GetToken("spotify")
	if !ok || got != tok {
		t.Fatalf("GetToken = %+v, %v", got, ok)
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	s.Set("k", "v")
	ok, err := s.Remove("k")
	if err != nil || !ok {
		t.Fatalf("Remove = %v, %v", ok, err)
	}
	if _, ok := s.Get("k"); ok {
		t.Fatalf("expected miss after Remove")
	}
}

func TestStateSignerIssueVerify(t *testing.T) {
	signer := NewStateSigner([]byte("secret"))
	tok, err := signer.Issue(time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !signer.Verify(tok) {
		t.Fatalf("expected freshly issued token to verify")
	}
}

func TestStateSignerRejectsExpired(t *testing.T) {
	signer := NewStateSigner([]byte("secret"))
	tok, _ := signer.Issue(-time.Minute)
	if signer.Verify(tok) {
		t.Fatalf("expected expired token to fail verification")
	}
}

func TestStateSignerRejectsTamperedToken(t *testing.T) {
	signer := NewStateSigner([]byte("secret"))
	tok, _ := signer.Issue(time.Minute)
	tampered := tok[:len(tok)-1] + "x"
	if signer.Verify(tampered) {
		t.Fatalf("expected tampered token to fail verification")
	}
}

func TestStateSignerRejectsDifferentSecret(t *testing.T) {
	s1 := NewStateSigner([]byte("secret-a"))
	s2 := NewStateSigner([]byte("secret-b"))
	tok, _ := s1.Issue(time.Minute)
	if s2.Verify(tok) {
		t.Fatalf("expected token signed under a different secret to fail")
	}
}
