package seniority

const (
	seniorDepth          = 70
	seniorVolume         = 10
	seniorHighValueRatio = 0.4
	experiencedDepth     = 40
	experiencedVolume    = 5

	seniorSoftSkillScore      = 70
	experiencedSoftSkillScore = 40
)

// DeriveTechnicalMaturityLevel checks senior first, then experienced.
func DeriveTechnicalMaturityLevel(m TechnicalMetrics) Level {
	if m.DepthScore >= seniorDepth && m.Volume >= seniorVolume && m.HighValueRatio >= seniorHighValueRatio {
		return LevelSenior
	}
	if m.DepthScore >= experiencedDepth && m.Volume >= experiencedVolume {
		return LevelExperienced
	}
	return LevelJunior
}

// DeriveSoftSkillMaturityLevel maps a 0-100 score to a level.
func DeriveSoftSkillMaturityLevel(score int) Level {
	switch {
	case score >= seniorSoftSkillScore:
		return LevelSenior
	case score >= experiencedSoftSkillScore:
		return LevelExperienced
	default:
		return LevelJunior
	}
}
