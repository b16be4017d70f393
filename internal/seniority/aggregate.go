package seniority

import (
	"sort"
	"time"

	"review-insights/internal/reviews"
	"review-insights/internal/scoring"
)

// CategoryDimension ties a technical dimension to its source category.
type CategoryDimension struct {
	Name     string
	Category string
}

// CategoryDimensions are emitted for every member with at least one comment.
var CategoryDimensions = []CategoryDimension{
	{Name: "security", Category: "security"},
	{Name: "architecture", Category: "architecture_design"},
	{Name: "performance", Category: "performance"},
	{Name: "testing", Category: "missing_test_coverage"},
}

// MemberInput is everything Aggregate needs for one member.
type MemberInput struct {
	MemberID     int64
	Comments     []reviews.ClassifiedComment
	Distribution []scoring.CategoryCount
	SoftSkills   []SoftSkillScore
	Now          time.Time
}

// Aggregate builds the member's profiles: language dimensions sorted by name,
// then the category dimensions, then one profile per soft-skill score. A member
// without comments gets no profiles.
func Aggregate(in MemberInput) []Profile {
	if len(in.Comments) == 0 {
		return nil
	}
	now := in.Now.UTC()
	var out []Profile

	byLanguage := make(map[string]map[string]int)
	for _, c := range in.Comments {
		lang := LanguageForPath(c.FilePath)
		if lang == "" {
			continue
		}
		if byLanguage[lang] == nil {
			byLanguage[lang] = make(map[string]int)
		}
		byLanguage[lang][c.Category]++
	}
	languages := make([]string, 0, len(byLanguage))
	for lang := range byLanguage {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	for _, lang := range languages {
		dist := toDistribution(byLanguage[lang])
		m := TechnicalMetrics{
			DepthScore:     scoring.ComputeDepthScore(dist),
			Volume:         scoring.TotalCount(dist),
			HighValueRatio: scoring.HighValueRatio(dist),
		}
		out = append(out, technicalProfile(in.MemberID, lang, m, now))
	}

	distribution := in.Distribution
	if scoring.TotalCount(distribution) == 0 {
		distribution = distributionOf(in.Comments)
	}
	overallDepth := scoring.ComputeDepthScore(distribution)
	overallRatio := scoring.HighValueRatio(distribution)
	for _, dim := range CategoryDimensions {
		m := TechnicalMetrics{
			DepthScore:     overallDepth,
			Volume:         countOf(distribution, dim.Category),
			HighValueRatio: overallRatio,
		}
		out = append(out, technicalProfile(in.MemberID, dim.Name, m, now))
	}

	for _, s := range in.SoftSkills {
		out = append(out, Profile{
			TeamMemberID:    in.MemberID,
			DimensionName:   s.Name,
			DimensionFamily: FamilySoftSkill,
			MaturityLevel:   DeriveSoftSkillMaturityLevel(s.Score),
			SupportingMetrics: SupportingMetrics{
				SoftSkill: &SoftSkillMetrics{Score: s.Score, Reasoning: s.Reasoning},
			},
			UpdatedAt: now,
		})
	}
	return out
}

func technicalProfile(memberID int64, name string, m TechnicalMetrics, now time.Time) Profile {
	metrics := m
	return Profile{
		TeamMemberID:      memberID,
		DimensionName:     name,
		DimensionFamily:   FamilyTechnical,
		MaturityLevel:     DeriveTechnicalMaturityLevel(m),
		SupportingMetrics: SupportingMetrics{Technical: &metrics},
		UpdatedAt:         now,
	}
}

func toDistribution(counts map[string]int) []scoring.CategoryCount {
	out := make([]scoring.CategoryCount, 0, len(counts))
	for category, n := range counts {
		out = append(out, scoring.CategoryCount{Category: category, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func distributionOf(comments []reviews.ClassifiedComment) []scoring.CategoryCount {
	counts := make(map[string]int)
	for _, c := range comments {
		counts[c.Category]++
	}
	return toDistribution(counts)
}

func countOf(dist []scoring.CategoryCount, category string) int {
	n := 0
	for _, row := range dist {
		if row.Category == category && row.Count > 0 {
			n += row.Count
		}
	}
	return n
}
