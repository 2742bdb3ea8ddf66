package identify

import "testing"

func TestNormaliseStripsDiacriticsAndStopwords(t *testing.T) {
	cases := map[string]string{
		"Beyoncé":         "beyonce",
		"The Beatles":     "beatles",
		"Simon and Garfunkel": "simongarfunkel",
		"AC/DC":           "acdc",
		"  Multiple   Spaces  ": "multiplespaces",
	}
	for in, want := range cases {
		if got := Normalise(in); got != want {
			t.Errorf("Normalise(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchesExactAfterNormalisation(t *testing.T) {
	if !Matches("The Beatles", "beatles") {
		t.Errorf("expected match after stopword removal")
	}
}

func TestMatchesFuzzy(t *testing.T) {
	if !Matches("Daft Punk", "Daft Punkk") {
		t.Errorf("expected fuzzy match above threshold")
	}
}

func TestMatchesRejectsUnrelated(t *testing.T) {
	if Matches("Daft Punk", "Radiohead") {
		t.Errorf("expected no match between unrelated names")
	}
}

func TestMatchesAnyChecksAliases(t *testing.T) {
	if !MatchesAny("Diddy", "Sean Combs", []string{"Puff Daddy", "Diddy"}) {
		t.Errorf("expected alias match")
	}
}

func TestJaroWinklerIdentical(t *testing.T) {
	if got := JaroWinkler("abc", "abc"); got != 1 {
		t.Errorf("JaroWinkler identical = %v, want 1", got)
	}
}

func TestJaroWinklerEmpty(t *testing.T) {
	if got := JaroWinkler("", "abc"); got != 0 {
		t.Errorf("JaroWinkler empty = %v, want 0", got)
	}
}

func TestSplitCanonicalSeparators(t *testing.T) {
	got := Split("Daft Punk, Pharrell Williams & Nile Rodgers feat. Stevie Wonder")
	want := []string{"Daft Punk", "Pharrell Williams", "Nile Rodgers", "Stevie Wonder"}
	if len(got) != len(want) {
		t.Fatalf("Split = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Split[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitFeaturingVariants(t *testing.T) {
	got := Split("Robin Schulz featuring Jasmine Thompson")
	want := []string{"Robin Schulz", "Jasmine Thompson"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Split = %v, want %v", got, want)
	}
}

func TestSplitSingleArtistUnaffected(t *testing.T) {
	got := Split("Radiohead")
	if len(got) != 1 || got[0] != "Radiohead" {
		t.Errorf("Split = %v, want [Radiohead]", got)
	}
}

func TestSplitDropsTrailingFeatFragment(t *testing.T) {
	got := Split("Main, feat. Other")
	if len(got) != 1 || got[0] != "Main" {
		t.Errorf("Split = %v, want [Main]", got)
	}
}

func TestSplitMultiTokenCredit(t *testing.T) {
	got := Split("Adam X, Maedon, Alessandro Adriani, 3.14, Chloe Lula, E-Bony")
	want := []string{"Adam X", "Maedon", "Alessandro Adriani", "3.14", "Chloe Lula", "E-Bony"}
	if len(got) != len(want) {
		t.Fatalf("Split = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Split[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitEmptyReturnsEmpty(t *testing.T) {
	if got := Split(""); len(got) != 0 {
		t.Errorf("Split(\"\") = %v, want empty", got)
	}
}
