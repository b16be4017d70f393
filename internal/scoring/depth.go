// Package scoring computes the review depth score from a category distribution.
package scoring

import "math"

// CategoryCount is one row of a category distribution.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

var categoryWeights = map[string]int{
	"architecture_design":         100,
	"security":                    90,
	"bug_correctness":             85,
	"performance":                 75,
	"missing_test_coverage":       65,
	"readability_maintainability": 45,
	"question_clarification":      30,
	"nitpick_style":               10,
}

var highValueCategories = map[string]bool{
	"bug_correctness":     true,
	"security":            true,
	"architecture_design": true,
}

// Weight returns the depth weight of category, 0 for unknown categories.
func Weight(category string) int {
	return categoryWeights[category]
}

// Weights returns a copy of the weight table.
func Weights() map[string]int {
	out := make(map[string]int, len(categoryWeights))
	for k, v := range categoryWeights {
		out[k] = v
	}
	return out
}

// IsHighValue reports whether category is bug_correctness, security or
// architecture_design.
func IsHighValue(category string) bool {
	return highValueCategories[category]
}

// ComputeDepthScore returns round(Σ count×weight / Σ count), in [0,100].
// Unknown categories weigh 0 but still count toward the denominator, and
// negative counts are ignored. An empty distribution scores 0.
func ComputeDepthScore(distribution []CategoryCount) int {
	total := 0
	weighted := 0
	for _, row := range distribution {
		if row.Count <= 0 {
			continue
		}
		total += row.Count
		weighted += row.Count * Weight(row.Category)
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(weighted) / float64(total)))
}

// HighValueRatio returns the fraction of comments in high-value categories.
func HighValueRatio(distribution []CategoryCount) float64 {
	total := 0
	high := 0
	for _, row := range distribution {
		if row.Count <= 0 {
			continue
		}
		total += row.Count
		if IsHighValue(row.Category) {
			high += row.Count
		}
	}
	if total == 0 {
		return 0
	}
	return float64(high) / float64(total)
}

// TotalCount sums the non-negative counts of distribution.
func TotalCount(distribution []CategoryCount) int {
	total := 0
	for _, row := range distribution {
		if row.Count > 0 {
			total += row.Count
		}
	}
	return total
}
