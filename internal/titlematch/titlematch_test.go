package titlematch

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Office (US)", "theofficeus"},
		{"Spider-Man: No Way Home", "spidermannowayhome"},
		{"  WALL·E  ", "walle"},
		{"1917", "1917"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSimilarity_Identical(t *testing.T) {
	if got := Similarity("Dune", "DUNE!"); got != 1 {
		t.Errorf("Similarity() = %v, want 1 for identical normalized strings", got)
	}
}

func TestSimilarity_ShortStrings(t *testing.T) {
	// A single normalized character has no bigrams.
	if got := Similarity("X", "X-Men"); got != 0 {
		t.Errorf("Similarity() = %v, want 0 when one side has no bigrams", got)
	}
	if got := Similarity("", "anything"); got != 0 {
		t.Errorf("Similarity() = %v, want 0 for empty input", got)
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"Blade Runner", "Blade Runner 2049"},
		{"Alien", "Aliens"},
		{"The Thing", "Thor"},
		{"completely different", "nothing alike here"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab < 0 || ab > 1 {
			t.Errorf("Similarity(%q, %q) = %v, out of [0,1]", p[0], p[1], ab)
		}
		if ab != ba {
			t.Errorf("Similarity not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarity_MultisetIntersection(t *testing.T) {
	// "aaaa" has bigrams {aa, aa, aa}; "aa" has {aa}. The intersection must
	// count the shared bigram once, not three times.
	got := Similarity("aaaa", "aa")
	want := 2 * 1.0 / (3 + 1)
	if got != want {
		t.Errorf("Similarity(aaaa, aa) = %v, want %v", got, want)
	}
}

func TestBestMatch(t *testing.T) {
	candidates := []string{"Breaking Bad", "Better Call Saul", "Barry"}

	idx, score := BestMatch("breaking bad", candidates, DefaultThreshold)
	if idx != 0 {
		t.Fatalf("BestMatch() idx = %d, want 0", idx)
	}
	if score != 1 {
		t.Errorf("BestMatch() score = %v, want 1", score)
	}

	idx, _ = BestMatch("unrelated title", candidates, DefaultThreshold)
	if idx != -1 {
		t.Errorf("BestMatch() idx = %d, want -1 when nothing clears the threshold", idx)
	}
}

func TestBestMatch_PicksHighestScore(t *testing.T) {
	candidates := []string{"The Office (UK)", "The Office (US)"}
	idx, _ := BestMatch("The Office US", candidates, DefaultThreshold)
	if idx != 1 {
		t.Errorf("BestMatch() idx = %d, want 1 (highest score wins)", idx)
	}
}
