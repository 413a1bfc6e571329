package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
)

// InMemorySearchRepository is the store used by tests and the
// single-process transports. Behavior mirrors the gorm repository.
type InMemorySearchRepository struct {
	mu   sync.RWMutex
	data map[string]domain.SearchRecord
}

func NewInMemorySearchRepository() *InMemorySearchRepository {
	return &InMemorySearchRepository{
		data: make(map[string]domain.SearchRecord),
	}
}

func (r *InMemorySearchRepository) Save(ctx context.Context, record domain.SearchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[record.ID]; exists {
		return fmt.Errorf("search record %s already exists", record.ID)
	}
	r.data[record.ID] = record
	return nil
}

func (r *InMemorySearchRepository) Update(ctx context.Context, record domain.SearchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[record.ID]; !exists {
		return fmt.Errorf("search record %s: %w", record.ID, domain.ErrNotFound)
	}
	r.data[record.ID] = record
	return nil
}

// Delete is idempotent, matching DELETE semantics of the SQL store.
func (r *InMemorySearchRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}

func (r *InMemorySearchRepository) FindAll(ctx context.Context) ([]domain.SearchRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]domain.SearchRecord, 0, len(r.data))
	for _, record := range r.data {
		records = append(records, record)
	}
	return records, nil
}

func (r *InMemorySearchRepository) FindByUserID(ctx context.Context, userID int64) ([]domain.SearchRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []domain.SearchRecord
	for _, record := range r.data {
		if record.UserID == userID {
			records = append(records, record)
		}
	}
	return records, nil
}

// Get returns a snapshot of one record, for tests.
func (r *InMemorySearchRepository) Get(id string) (domain.SearchRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.data[id]
	return record, ok
}

// Len reports how many records are stored, for tests.
func (r *InMemorySearchRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
