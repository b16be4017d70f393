// Package seniority derives per-dimension maturity levels for each reviewer
// from classified comments and one soft-skill assessment.
package seniority

import (
	"context"
	"time"
)

// Family groups dimensions.
type Family string

const (
	FamilyTechnical Family = "technical"
	FamilySoftSkill Family = "soft_skill"
)

// Level is a maturity level.
type Level string

const (
	LevelJunior      Level = "junior"
	LevelExperienced Level = "experienced"
	LevelSenior      Level = "senior"
)

// TechnicalMetrics are the inputs of technical maturity derivation.
type TechnicalMetrics struct {
	DepthScore     int     `json:"depthScore"`
	Volume         int     `json:"volume"`
	HighValueRatio float64 `json:"highValueRatio"`
}

// SoftSkillMetrics hold the model's assessment of one soft skill.
type SoftSkillMetrics struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning,omitempty"`
}

// SupportingMetrics explains a maturity level. Exactly one field is set,
// matching the profile's family.
type SupportingMetrics struct {
	Technical *TechnicalMetrics `json:"technical,omitempty"`
	SoftSkill *SoftSkillMetrics `json:"softSkill,omitempty"`
}

// Profile is one dimension of a member's seniority profile.
type Profile struct {
	TeamMemberID      int64             `json:"teamMemberId"`
	DimensionName     string            `json:"dimensionName"`
	DimensionFamily   Family            `json:"dimensionFamily"`
	MaturityLevel     Level             `json:"maturityLevel"`
	SupportingMetrics SupportingMetrics `json:"supportingMetrics"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Repo persists seniority profiles.
type Repo interface {
	Upsert(ctx context.Context, p Profile) error
	DeleteAll(ctx context.Context) (int64, error)
}
