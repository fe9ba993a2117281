package textutil

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: []string{}},
		{name: "short tokens dropped", input: "Is it a go?", want: []string{}},
		{name: "punctuation split", input: "Will BTC hit $100k by 2026?", want: []string{"will", "btc", "hit", "100k", "2026"}},
		{name: "accents folded", input: "Pokémon Café", want: []string{"pokemon", "cafe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalCategory(t *testing.T) {
	tests := map[string]string{
		"":              "Uncategorized",
		"   ":           "Uncategorized",
		"sports":        "Sports",
		" SPORTS ":      "Sports",
		"pop_culture":   "Pop Culture",
		"world  events": "World Events",
	}
	for input, want := range tests {
		if got := CanonicalCategory(input); got != want {
			t.Errorf("CanonicalCategory(%q) = %q, want %q", input, got, want)
		}
	}
	for _, spelling := range []string{"Pop Culture", "pop_culture", "POP-CULTURE", " pop  culture "} {
		if got := CategoryKey(spelling); got != "pop-culture" {
			t.Fatalf("CategoryKey(%q) = %q, want pop-culture", spelling, got)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"":               "unknown",
		"Sports":         "sports",
		"Pop Culture":    "pop-culture",
		"a_b":            "a-b",
		"--x--":          "x",
		"Économie/2026!": "economie-2026",
	}
	for input, want := range tests {
		if got := SanitizeToken(input); got != want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", input, got, want)
		}
	}
}
