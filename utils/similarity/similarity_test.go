package similarity

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		minScore float64
		maxScore float64
	}{
		{name: "identical", a: "True Detective", b: "True Detective", minScore: 1.0, maxScore: 1.0},
		{name: "case insensitive", a: "True Detective", b: "true detective", minScore: 1.0, maxScore: 1.0},
		{name: "separator noise", a: "true.detective", b: "True Detective", minScore: 1.0, maxScore: 1.0},
		{name: "ampersand equivalence", a: "Mike & Molly", b: "Mike and Molly", minScore: 1.0, maxScore: 1.0},
		{name: "diacritics folded", a: "Amélie", b: "Amelie", minScore: 1.0, maxScore: 1.0},
		{name: "close variant", a: "The Leftovers", b: "Leftovers", minScore: 0.6, maxScore: 0.99},
		{name: "unrelated shows", a: "True Detective", b: "Bojack Horseman", minScore: 0.0, maxScore: 0.4},
		{name: "empty query", a: "", b: "True Detective", minScore: 0.0, maxScore: 0.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.a, tc.b)
			if got < tc.minScore || got > tc.maxScore {
				t.Errorf("Score(%q, %q) = %.3f, want within [%.2f, %.2f]", tc.a, tc.b, got, tc.minScore, tc.maxScore)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  Orphan:   Black_-2013 "); got != "orphan black 2013" {
		t.Errorf("Normalize = %q", got)
	}
}
