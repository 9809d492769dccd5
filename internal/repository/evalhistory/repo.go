// Package evalhistory persists quality evaluation records in a capped list.
package evalhistory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bna-dev/prospector/internal/domain"
)

// maxStoredRecords caps the evaluation log length.
const maxStoredRecords = 50

// store is the consumer interface for evaluation history (ISP).
type store interface {
	LPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LTrim(ctx context.Context, key string, start, stop int64) error
}

// Repo stores evaluation records newest-first.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates an evaluation history repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Append stores one evaluation record and trims the log.
func (r *Repo) Append(ctx context.Context, rec domain.EvaluationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal evaluation record: %w", err)
	}
	key := r.key()
	if err := r.store.LPush(ctx, key, string(data)); err != nil {
		return fmt.Errorf("lpush %s: %w", key, err)
	}
	if err := r.store.LTrim(ctx, key, 0, maxStoredRecords-1); err != nil {
		return fmt.Errorf("ltrim %s: %w", key, err)
	}
	return nil
}

// Recent returns up to n evaluation records, newest first.
func (r *Repo) Recent(ctx context.Context, n int) ([]domain.EvaluationRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	key := r.key()
	raw, err := r.store.LRange(ctx, key, 0, int64(n-1))
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	records := make([]domain.EvaluationRecord, 0, len(raw))
	for _, item := range raw {
		var rec domain.EvaluationRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *Repo) key() string {
	return r.keyPrefix + "eval_history"
}
