package seniority

import (
	"context"
	"sync"
)

type profileKey struct {
	memberID  int64
	dimension string
}

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu       sync.RWMutex
	order    []profileKey
	profiles map[profileKey]Profile
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{profiles: make(map[profileKey]Profile)}
}

// Upsert stores p, replacing any profile for the same member and dimension.
func (r *MemoryRepo) Upsert(ctx context.Context, p Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := profileKey{memberID: p.TeamMemberID, dimension: p.DimensionName}
	if _, ok := r.profiles[k]; !ok {
		r.order = append(r.order, k)
	}
	r.profiles[k] = p
	return nil
}

// DeleteAll removes every profile.
func (r *MemoryRepo) DeleteAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.profiles))
	r.order = nil
	r.profiles = make(map[profileKey]Profile)
	return n, nil
}

// Profiles returns the member's profiles in first-write order.
func (r *MemoryRepo) Profiles(memberID int64) []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Profile
	for _, k := range r.order {
		if k.memberID == memberID {
			out = append(out, r.profiles[k])
		}
	}
	return out
}
