// Package knowledge maintains the durable document retrieval index.
//
// A Store owns an append-only collection of text documents and answers
// similarity queries against it. Scoring is pluggable behind the Scorer
// interface; the Store itself owns tokenization-independent concerns:
// ranking order, deterministic tie-breaks, limit clamping, and the
// on-disk snapshot.
//
// Persistence is a full JSON snapshot of the ordered document list,
// rewritten on every successful Index call. A missing or corrupt
// snapshot at construction is recovered as an empty collection with a
// logged warning, never a fatal error.
package knowledge

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Store is a durable, queryable document collection.
//
// Store is safe for concurrent use: mutations (Index, Clear) take the
// write lock, queries take the read lock.
type Store struct {
	mu sync.RWMutex

	collection string
	scorer     Scorer
	snap       *snapshot // nil = in-memory only
	logger     *slog.Logger

	docs []string
}

// New creates a Store for the named collection.
//
// dir is the snapshot directory; an empty dir disables persistence and
// keeps the collection in memory only. A nil scorer selects the default
// LexicalScorer. If an existing snapshot is found it is loaded and the
// scorer rebuilt over it.
func New(dir, collection string, scorer Scorer, logger *slog.Logger) (*Store, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if scorer == nil {
		scorer = NewLexicalScorer()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		collection: collection,
		scorer:     scorer,
		logger:     logger,
	}

	if dir != "" {
		s.snap = newSnapshot(dir, collection)
		docs, err := s.snap.load(collection)
		if err != nil {
			// Start empty rather than refuse to start.
			logger.Warn("could not load knowledge snapshot, starting empty",
				"collection", collection, "error", err)
			docs = nil
		}
		s.docs = docs
		s.scorer.Rebuild(s.docs)
		logger.Debug("knowledge store loaded",
			"collection", collection, "documents", len(s.docs), "scorer", scorer.Name())
	}

	return s, nil
}

// Index appends documents to the collection, rebuilds the scorer over
// the entire collection, and rewrites the snapshot. An empty input is a
// no-op. Snapshot write failures are logged and swallowed; the
// in-memory collection stays authoritative for the session.
func (s *Store) Index(docs []string) {
	if len(docs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = append(s.docs, docs...)
	s.scorer.Rebuild(s.docs)
	s.persistLocked()

	s.logger.Debug("indexed documents", "added", len(docs), "total", len(s.docs))
}

// persistLocked writes the snapshot. Caller holds the write lock.
func (s *Store) persistLocked() {
	if s.snap == nil {
		return
	}
	if err := s.snap.write(s.collection, s.docs); err != nil {
		s.logger.Warn("could not persist knowledge snapshot",
			"collection", s.collection, "error", err)
	}
}

// Query scores every stored document against text and returns the top
// limit matches ordered by descending score; equal scores rank by
// ascending insertion position so results are deterministic. The limit
// is clamped to the collection size. An empty collection or a limit
// below 1 yields no results.
func (s *Store) Query(text string, limit int) []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.docs) == 0 || limit < 1 {
		return nil
	}

	results := make([]Result, len(s.docs))
	for i, doc := range s.docs {
		results[i] = Result{
			Document: Document{Text: doc, Position: i},
			Score:    s.scorer.Score(text, doc),
		}
	}

	// Stable sort preserves insertion order among equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > len(results) {
		limit = len(results)
	}
	return results[:limit]
}

// FormatContext renders query results for inclusion in a model prompt:
// numbered entries in result order, each with its raw text. Returns the
// empty string for no results.
func (s *Store) FormatContext(results []Result) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Relevant information from knowledge base:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, r.Document.Text)
	}
	return b.String()
}

// Clear empties the collection and deletes the snapshot. Deletion
// failures are logged and swallowed (best-effort).
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = nil
	s.scorer.Rebuild(s.docs)

	if s.snap != nil {
		if err := s.snap.remove(); err != nil {
			s.logger.Warn("could not remove knowledge snapshot",
				"collection", s.collection, "error", err)
		}
	}
	s.logger.Debug("knowledge store cleared", "collection", s.collection)
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
