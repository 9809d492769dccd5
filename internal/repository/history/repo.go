// Package history persists conversation turns in a capped list.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bna-dev/prospector/internal/domain"
)

// maxStoredTurns caps the conversation log length.
const maxStoredTurns = 200

// store is the consumer interface for conversation history (ISP).
type store interface {
	LPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LTrim(ctx context.Context, key string, start, stop int64) error
	Del(ctx context.Context, key string) error
}

// Repo stores conversation turns. Append prepends, so reads come back
// newest-first; callers needing chronological order must reverse.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a history repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Append stores one turn at the head of the log and trims the tail.
func (r *Repo) Append(ctx context.Context, turn domain.ConversationTurn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := r.key()
	if err := r.store.LPush(ctx, key, string(data)); err != nil {
		return fmt.Errorf("lpush %s: %w", key, err)
	}
	if err := r.store.LTrim(ctx, key, 0, maxStoredTurns-1); err != nil {
		return fmt.Errorf("ltrim %s: %w", key, err)
	}
	return nil
}

// Recent returns up to n turns, newest first.
func (r *Repo) Recent(ctx context.Context, n int) ([]domain.ConversationTurn, error) {
	if n <= 0 {
		return nil, nil
	}
	key := r.key()
	raw, err := r.store.LRange(ctx, key, 0, int64(n-1))
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	turns := make([]domain.ConversationTurn, 0, len(raw))
	for _, item := range raw {
		var turn domain.ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			// corrupt entries are skipped, not fatal
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear wipes the conversation log.
func (r *Repo) Clear(ctx context.Context) error {
	if err := r.store.Del(ctx, r.key()); err != nil {
		return fmt.Errorf("del %s: %w", r.key(), err)
	}
	return nil
}

func (r *Repo) key() string {
	return r.keyPrefix + "chat_history"
}
