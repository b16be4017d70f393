package reviews

import (
	"encoding/json"
	"math"

	"review-insights/internal/llm"
)

// Ref identifies a comment by type and id. Ids are only unique per type.
type Ref struct {
	Type CommentType
	ID   int64
}

// RefSet is the set of comment identities shown to the model in one prompt.
type RefSet map[Ref]struct{}

// NewRefSet collects the identities of candidates.
func NewRefSet(candidates []CandidateComment) RefSet {
	set := make(RefSet, len(candidates))
	for _, c := range candidates {
		set[c.Ref()] = struct{}{}
	}
	return set
}

// Contains reports whether r was part of the prompt.
func (s RefSet) Contains(r Ref) bool {
	_, ok := s[r]
	return ok
}

// FilterKnown splits items into those whose ref is in known and those that
// reference a comment the model was never shown. Order is preserved.
func FilterKnown[T any](items []T, known RefSet, ref func(T) Ref) (kept, dropped []T) {
	for _, item := range items {
		if known.Contains(ref(item)) {
			kept = append(kept, item)
		} else {
			dropped = append(dropped, item)
		}
	}
	return kept, dropped
}

// UniqueRefs keeps the first item for each ref and drops later repeats.
func UniqueRefs[T any](items []T, ref func(T) Ref) []T {
	seen := make(map[Ref]bool, len(items))
	out := items[:0:0]
	for _, item := range items {
		r := ref(item)
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, item)
	}
	return out
}

// ParseCommentID converts a decoded commentId to int64. Integral values
// written with a fraction or exponent are accepted; anything outside the int64
// range is a *llm.ParseError naming field.
func ParseCommentID(content, field string, n json.Number) (int64, error) {
	if id, err := n.Int64(); err == nil {
		return id, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, &llm.ParseError{Message: field + ": not a valid comment id", RawContent: content}
	}
	return int64(f), nil
}
