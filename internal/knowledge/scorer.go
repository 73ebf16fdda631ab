package knowledge

import (
	"math"
	"strings"
	"unicode"
)

// Scorer ranks stored documents against a query. Implementations are
// interchangeable behind this interface; the Store owns ranking and
// tie-break rules, so a Scorer only has to produce a similarity value.
//
// Rebuild is called with the entire collection after every mutation so
// the scorer can recompute whatever corpus statistics it needs. A full
// rebuild is O(collection size), which is fine at the target scale of
// hundreds to low thousands of documents.
type Scorer interface {
	// Name identifies the scoring strategy.
	Name() string

	// Rebuild recomputes internal state over the whole collection.
	Rebuild(docs []string)

	// Score returns the similarity between a query and a document.
	// Higher is more similar.
	Score(query, doc string) float64
}

// tokenize lowercases s, replaces non-alphanumeric runes with spaces,
// splits on whitespace, and discards tokens of length <= 2.
func tokenize(s string) []string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)

	fields := strings.Fields(mapped)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// tokenSet returns the distinct tokens of s.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenize(s) {
		set[tok] = struct{}{}
	}
	return set
}

// LexicalScorer is the default strategy: the fraction of the query's
// distinct tokens that appear in the document.
//
// The score is |query tokens ∩ doc tokens| / max(|query tokens|, 1), a
// directional containment coefficient rather than symmetric Jaccard. A
// short query fully contained in a long document scores 1.0 regardless
// of how much else the document says.
type LexicalScorer struct{}

// NewLexicalScorer creates the default lexical-overlap scorer.
func NewLexicalScorer() *LexicalScorer {
	return &LexicalScorer{}
}

// Name returns the strategy identifier.
func (*LexicalScorer) Name() string { return "lexical" }

// Rebuild is a no-op: lexical overlap needs no corpus statistics.
func (*LexicalScorer) Rebuild([]string) {}

// Score returns the containment of the query's token set in the document's.
func (*LexicalScorer) Score(query, doc string) float64 {
	queryTokens := tokenSet(query)
	docTokens := tokenSet(doc)

	overlap := 0
	for tok := range queryTokens {
		if _, ok := docTokens[tok]; ok {
			overlap++
		}
	}

	denom := len(queryTokens)
	if denom < 1 {
		denom = 1
	}
	return float64(overlap) / float64(denom)
}

// TFIDFScorer weights term overlap by inverse document frequency and
// scores by cosine similarity of the weighted term-frequency vectors.
// Rare terms count for more than ubiquitous ones.
type TFIDFScorer struct {
	idf  map[string]float64
	docs int
}

// NewTFIDFScorer creates a weighted-term-frequency scorer. It must see
// the collection via Rebuild before scoring; until then every term
// falls back to the unseen-term IDF.
func NewTFIDFScorer() *TFIDFScorer {
	return &TFIDFScorer{idf: make(map[string]float64)}
}

// Name returns the strategy identifier.
func (*TFIDFScorer) Name() string { return "tfidf" }

// Rebuild recomputes inverse document frequencies over the collection.
// Smoothed: idf = ln((1+N)/(1+df)) + 1, so no term gets weight zero.
func (s *TFIDFScorer) Rebuild(docs []string) {
	df := make(map[string]int)
	for _, doc := range docs {
		for tok := range tokenSet(doc) {
			df[tok]++
		}
	}

	s.docs = len(docs)
	s.idf = make(map[string]float64, len(df))
	for tok, n := range df {
		s.idf[tok] = math.Log(float64(1+s.docs)/float64(1+n)) + 1
	}
}

// termIDF returns the IDF for tok, falling back to the weight of a term
// seen in no document.
func (s *TFIDFScorer) termIDF(tok string) float64 {
	if w, ok := s.idf[tok]; ok {
		return w
	}
	return math.Log(float64(1+s.docs)) + 1
}

// Score returns the cosine similarity of the IDF-weighted term vectors.
func (s *TFIDFScorer) Score(query, doc string) float64 {
	queryVec := s.weights(query)
	docVec := s.weights(doc)
	if len(queryVec) == 0 || len(docVec) == 0 {
		return 0
	}

	var dot, normQ, normD float64
	for tok, qw := range queryVec {
		if dw, ok := docVec[tok]; ok {
			dot += qw * dw
		}
		normQ += qw * qw
	}
	for _, dw := range docVec {
		normD += dw * dw
	}
	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(normQ) * math.Sqrt(normD))
}

// weights returns the IDF-weighted term-frequency vector of s.
func (s *TFIDFScorer) weights(text string) map[string]float64 {
	tf := make(map[string]float64)
	for _, tok := range tokenize(text) {
		tf[tok]++
	}
	for tok, n := range tf {
		tf[tok] = n * s.termIDF(tok)
	}
	return tf
}
