package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/bna-dev/prospector/internal/db"
	"github.com/bna-dev/prospector/internal/domain"
)

// store is the consumer interface for documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo persists analyzed documents and their embeddings.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a document repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Save creates or updates a document with its embedding. Returns true if created.
func (r *Repo) Save(ctx context.Context, doc *domain.Document, embedding []float32) (bool, error) {
	key := r.docKey(doc.ID)
	data, err := json.Marshal(toStored(doc, embedding))
	if err != nil {
		return false, fmt.Errorf("marshal document: %w", err)
	}

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return false, fmt.Errorf("json.set %s: %w", key, err)
	}

	return !exists, nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, id string) (domain.Document, error) {
	stored, err := r.get(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}
	return stored.toDomain(), nil
}

// List returns all documents sorted newest-first.
func (r *Repo) List(ctx context.Context) ([]domain.Document, error) {
	keys, err := r.store.Scan(ctx, r.docKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(keys))
	for _, key := range keys {
		stored, err := r.getByKey(ctx, key)
		if err != nil {
			if errors.Is(err, domain.ErrDocumentNotFound) {
				continue
			}
			return nil, err
		}
		docs = append(docs, stored.toDomain())
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// Embeddings returns the stored embedding of every document that has one.
func (r *Repo) Embeddings(ctx context.Context) ([]domain.DocumentVector, error) {
	keys, err := r.store.Scan(ctx, r.docKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	vectors := make([]domain.DocumentVector, 0, len(keys))
	for _, key := range keys {
		stored, err := r.getByKey(ctx, key)
		if err != nil {
			if errors.Is(err, domain.ErrDocumentNotFound) {
				continue
			}
			return nil, err
		}
		if len(stored.Embedding) == 0 {
			continue
		}
		vectors = append(vectors, domain.DocumentVector{
			DocumentID: stored.ID,
			Embedding:  stored.Embedding,
		})
	}
	return vectors, nil
}

// UpdateEntities merges enrichment entities into a stored document.
func (r *Repo) UpdateEntities(ctx context.Context, id string, entities map[string]string) error {
	stored, err := r.get(ctx, id)
	if err != nil {
		return err
	}

	doc := stored.toDomain()
	doc.MergeEntities(entities)
	stored.Entities = doc.Entities

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := r.store.JSONSet(ctx, r.docKey(id), "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", r.docKey(id), err)
	}
	return nil
}

// Delete removes a document.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.docKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) get(ctx context.Context, id string) (storedDocument, error) {
	return r.getByKey(ctx, r.docKey(id))
}

func (r *Repo) getByKey(ctx context.Context, key string) (storedDocument, error) {
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return storedDocument{}, domain.ErrDocumentNotFound
		}
		return storedDocument{}, fmt.Errorf("json.get %s: %w", key, err)
	}

	// JSON.GET with the $ path returns an array with one element.
	var docs []storedDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		var single storedDocument
		if err := json.Unmarshal(raw, &single); err != nil {
			return storedDocument{}, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		return single, nil
	}
	if len(docs) == 0 {
		return storedDocument{}, domain.ErrDocumentNotFound
	}
	return docs[0], nil
}

func (r *Repo) docKey(id string) string {
	return r.keyPrefix + "doc:" + id
}
