package highlights

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	records []Record
	// FailInsert, when set, is returned by Insert.
	FailInsert error
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Insert stores rec.
func (r *MemoryRepo) Insert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailInsert != nil {
		return r.FailInsert
	}
	r.records = append(r.records, rec)
	return nil
}

// DeleteAllByType removes every record of kind.
func (r *MemoryRepo) DeleteAllByType(ctx context.Context, kind Kind) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	var removed int64
	for _, rec := range r.records {
		if rec.Kind == kind {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return removed, nil
}

// Records returns a copy of the stored records of kind in insertion order.
func (r *MemoryRepo) Records(kind Kind) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Record
	for _, rec := range r.records {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}
