// Package memory provides an in-process vector index.
// Collections live for the lifetime of the process; it backs dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

type collection struct {
	spec    domain.CollectionSpec
	records map[uint64]domain.IndexRecord
}

// VectorIndex is an in-memory implementation of driven.VectorIndex.
type VectorIndex struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewVectorIndex creates an empty in-memory index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		collections: make(map[string]*collection),
	}
}

// DeleteCollection removes a collection. Missing collections are ignored.
func (v *VectorIndex) DeleteCollection(_ context.Context, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.collections, name)
	return nil
}

// CreateCollection creates an empty collection.
func (v *VectorIndex) CreateCollection(_ context.Context, spec domain.CollectionSpec) error {
	if spec.Name == "" || spec.Dimensions <= 0 {
		return fmt.Errorf("create collection %q: %w", spec.Name, domain.ErrInvalidInput)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.collections[spec.Name]; ok {
		return fmt.Errorf("create collection %q: %w", spec.Name, domain.ErrAlreadyExists)
	}
	v.collections[spec.Name] = &collection{
		spec:    spec,
		records: make(map[uint64]domain.IndexRecord),
	}
	return nil
}

// Upsert stores a copy of the record, replacing any record with the same ID.
func (v *VectorIndex) Upsert(_ context.Context, name string, record domain.IndexRecord) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	c, ok := v.collections[name]
	if !ok {
		return fmt.Errorf("upsert into %q: %w", name, domain.ErrNotFound)
	}
	if len(record.Vector) != c.spec.Dimensions {
		return fmt.Errorf("upsert into %q: vector has %d dimensions, collection has %d: %w",
			name, len(record.Vector), c.spec.Dimensions, domain.ErrInvalidInput)
	}

	c.records[record.ID] = copyRecord(record)
	return nil
}

// Ping always succeeds.
func (v *VectorIndex) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}

// Collections returns the names of all collections, sorted.
func (v *VectorIndex) Collections() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	names := make([]string, 0, len(v.collections))
	for name := range v.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spec returns the spec a collection was created with.
func (v *VectorIndex) Spec(name string) (domain.CollectionSpec, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	c, ok := v.collections[name]
	if !ok {
		return domain.CollectionSpec{}, false
	}
	return c.spec, true
}

// Records returns the records of a collection ordered by ID.
// Returns nil if the collection does not exist.
func (v *VectorIndex) Records(name string) []domain.IndexRecord {
	v.mu.RLock()
	defer v.mu.RUnlock()

	c, ok := v.collections[name]
	if !ok {
		return nil
	}

	records := make([]domain.IndexRecord, 0, len(c.records))
	for _, r := range c.records {
		records = append(records, copyRecord(r))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records
}

func copyRecord(r domain.IndexRecord) domain.IndexRecord {
	out := domain.IndexRecord{
		ID:     r.ID,
		Vector: append([]float32(nil), r.Vector...),
	}
	if r.Payload != nil {
		out.Payload = make(map[string]any, len(r.Payload))
		for k, val := range r.Payload {
			out.Payload[k] = val
		}
	}
	return out
}
