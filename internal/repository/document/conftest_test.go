package document

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/bna-dev/prospector/internal/db"
	"github.com/bna-dev/prospector/internal/domain"
)

// mockStore implements the consumer interface for tests with an in-memory map.
type mockStore struct {
	data map[string][]byte

	jsonSetErr error
	jsonGetErr error
	scanErr    error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) JSONSet(_ context.Context, key, _ string, data []byte) error {
	if m.jsonSetErr != nil {
		return m.jsonSetErr
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *mockStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	if m.jsonGetErr != nil {
		return nil, m.jsonGetErr
	}
	raw, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	// JSON.GET $ wraps the value in an array.
	wrapped, _ := json.Marshal([]json.RawMessage{raw})
	return wrapped, nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	repo := New(ms, "prospector:")
	return repo, ms
}

func testDocument(t *testing.T, id string) domain.Document {
	t.Helper()
	doc, err := domain.NewDocument(id, "https://example.com/"+id, "Example "+id,
		"raw page text", "A short summary.",
		[]string{"Point one."}, map[string]string{"sector": "saas"})
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	return doc
}

func testVector(dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = float32(i) * 0.001
	}
	return vec
}
