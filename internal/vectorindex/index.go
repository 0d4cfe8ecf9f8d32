// Package vectorindex wraps the embedding+vector-search backend behind the
// indexDocuments/similaritySearch contract. Each file gets its own namespace
// (collection), so indexes never mix across files and re-indexing a file is
// an idempotent overwrite of its namespace.
package vectorindex

import (
	"context"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"docuchat/internal/loader"
)

// Passage is one similarity-search hit.
type Passage struct {
	PageContent string            `json:"page_content"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Index is the embedding/index service contract.
type Index interface {
	IndexDocuments(ctx context.Context, namespace string, docs []loader.Document) error
	SimilaritySearch(ctx context.Context, namespace, query string, k int) ([]Passage, error)
	DropNamespace(ctx context.Context, namespace string) error
}

// Store implements Index on chromem.
type Store struct {
	db    *chromem.DB
	embed chromem.EmbeddingFunc
}

// NewStore opens a chromem-backed index. An empty path keeps the index in
// memory (tests); otherwise the index persists under path.
func NewStore(path string, embed chromem.EmbeddingFunc) (*Store, error) {
	if path == "" {
		return &Store{db: chromem.NewDB(), embed: embed}, nil
	}
	db, err := chromem.NewPersistentDB(path, true)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	return &Store{db: db, embed: embed}, nil
}

// IndexDocuments replaces the namespace's collection with the given
// documents. Dropping first keeps duplicate ingestions idempotent.
func (s *Store) IndexDocuments(ctx context.Context, namespace string, docs []loader.Document) error {
	if namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents to index")
	}
	if err := s.db.DeleteCollection(namespace); err != nil {
		return fmt.Errorf("reset namespace %s: %w", namespace, err)
	}
	col, err := s.db.GetOrCreateCollection(namespace, nil, s.embed)
	if err != nil {
		return fmt.Errorf("create namespace %s: %w", namespace, err)
	}
	records := make([]chromem.Document, 0, len(docs))
	for i, d := range docs {
		records = append(records, chromem.Document{
			ID:       namespace + ":" + strconv.Itoa(i),
			Content:  d.Text,
			Metadata: d.Metadata,
		})
	}
	if err := col.AddDocuments(ctx, records, 2); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}
	return nil
}

// SimilaritySearch returns up to k passages most similar to query. A
// missing namespace yields no passages rather than an error.
func (s *Store) SimilaritySearch(ctx context.Context, namespace, query string, k int) ([]Passage, error) {
	if k <= 0 {
		k = 4
	}
	col := s.db.GetCollection(namespace, s.embed)
	if col == nil {
		return nil, nil
	}
	if n := col.Count(); n < k {
		k = n
	}
	if k == 0 {
		return nil, nil
	}
	results, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	passages := make([]Passage, 0, len(results))
	for _, r := range results {
		passages = append(passages, Passage{PageContent: r.Content, Metadata: r.Metadata})
	}
	return passages, nil
}

// DropNamespace removes a file's collection entirely.
func (s *Store) DropNamespace(ctx context.Context, namespace string) error {
	if err := s.db.DeleteCollection(namespace); err != nil {
		return fmt.Errorf("drop namespace %s: %w", namespace, err)
	}
	return nil
}
