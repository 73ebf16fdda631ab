package knowledge

import (
	"math"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and splits",
			input: "Tea Exports Rose",
			want:  []string{"tea", "exports", "rose"},
		},
		{
			name:  "strips punctuation",
			input: "Sri Lanka's largest export.",
			want:  []string{"sri", "lanka", "largest", "export"},
		},
		{
			name:  "drops short tokens",
			input: "a an the GDP is up 5%",
			want:  []string{"the", "gdp"},
		},
		{
			name:  "digits survive",
			input: "growth was 5300 million",
			want:  []string{"growth", "was", "5300", "million"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
		{
			name:  "only punctuation",
			input: "!!! ... ???",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLexicalScorer(t *testing.T) {
	scorer := NewLexicalScorer()

	tests := []struct {
		name  string
		query string
		doc   string
		want  float64
	}{
		{
			name:  "full containment",
			query: "export tea",
			doc:   "Tea is Sri Lanka's largest export.",
			want:  1.0,
		},
		{
			name:  "no overlap",
			query: "export tea",
			doc:   "Colombo is the commercial capital.",
			want:  0.0,
		},
		{
			name:  "partial overlap",
			query: "tea rubber coconut textiles",
			doc:   "Tea and rubber dominate shipments.",
			want:  0.5,
		},
		{
			name:  "empty query",
			query: "",
			doc:   "Anything at all.",
			want:  0.0,
		},
		{
			name:  "asymmetry: long doc does not dilute",
			query: "inflation",
			doc:   "Inflation and many many other words besides fill this long document about the economy.",
			want:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.query, tt.doc)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.query, tt.doc, got, tt.want)
			}
		})
	}
}

func TestLexicalScorerRebuildIsNoop(t *testing.T) {
	scorer := NewLexicalScorer()
	before := scorer.Score("tea export", "tea export values")
	scorer.Rebuild([]string{"completely", "unrelated", "corpus"})
	after := scorer.Score("tea export", "tea export values")

	if before != after {
		t.Errorf("Rebuild changed lexical score: %v -> %v", before, after)
	}
}

func TestTFIDFScorerRanksRareTermsHigher(t *testing.T) {
	docs := []string{
		"tea exports tea estates tea auctions",
		"tea exports and cinnamon shipments",
		"tea exports overview",
	}

	scorer := NewTFIDFScorer()
	scorer.Rebuild(docs)

	// "cinnamon" appears in one document, "tea" in all three; the
	// cinnamon document must outrank the others for a cinnamon query.
	cinnamon := scorer.Score("cinnamon shipments", docs[1])
	other := scorer.Score("cinnamon shipments", docs[0])
	if cinnamon <= other {
		t.Errorf("expected cinnamon doc to outrank: got %v <= %v", cinnamon, other)
	}
}

func TestTFIDFScorerBounds(t *testing.T) {
	docs := []string{"colombo stock exchange", "central bank policy rates"}
	scorer := NewTFIDFScorer()
	scorer.Rebuild(docs)

	for _, doc := range docs {
		// Identical text is a perfect cosine match.
		if got := scorer.Score(doc, doc); math.Abs(got-1.0) > 1e-9 {
			t.Errorf("Score(doc, doc) = %v, want 1.0", got)
		}
	}

	if got := scorer.Score("tourism arrivals", docs[0]); got != 0 {
		t.Errorf("disjoint score = %v, want 0", got)
	}
	if got := scorer.Score("", docs[0]); got != 0 {
		t.Errorf("empty query score = %v, want 0", got)
	}
}

func TestTFIDFScorerUnseenTerms(t *testing.T) {
	scorer := NewTFIDFScorer()
	// Never rebuilt: scoring must not panic and must stay sane.
	if got := scorer.Score("tea", "tea"); got <= 0 {
		t.Errorf("Score on unbuilt scorer = %v, want > 0", got)
	}
}
