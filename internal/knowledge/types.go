package knowledge

// Document is a stored knowledge entry. Documents are immutable once
// indexed; Position is the insertion order and serves as both the
// stable identity for persistence and the ranking tie-break.
type Document struct {
	Text     string
	Position int
}

// Result is a single query match with its similarity score. Results are
// produced fresh per query and never persisted.
type Result struct {
	Document Document
	Score    float64
}
