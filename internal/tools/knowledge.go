package tools

import (
	"context"
	"strings"

	"github.com/perera-dev/serendib/internal/knowledge"
)

// KnowledgeSearch looks up the most relevant stored documents for a
// query.
type KnowledgeSearch struct {
	store *knowledge.Store
	topK  int
}

// NewKnowledgeSearch creates a KnowledgeSearch returning at most topK
// results (non-positive topK defaults to 2).
func NewKnowledgeSearch(store *knowledge.Store, topK int) *KnowledgeSearch {
	if topK <= 0 {
		topK = 2
	}
	return &KnowledgeSearch{store: store, topK: topK}
}

func (k *KnowledgeSearch) Name() string { return "SearchKnowledge" }

func (k *KnowledgeSearch) Description() string {
	return "Searches the local knowledge base for stored information. Input: a search query."
}

// Call returns the formatted top results for the query, or a fixed
// notice when nothing matches.
func (k *KnowledgeSearch) Call(_ context.Context, input string) string {
	query := strings.TrimSpace(input)
	if query == "" {
		return "Error: empty search query"
	}

	results := k.store.Query(query, k.topK)
	if len(results) == 0 {
		return "No relevant information found in knowledge base."
	}
	return k.store.FormatContext(results)
}
