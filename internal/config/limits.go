package config

import "diaryshare/internal/domain/model"

// Model converts the configured limits into the domain's entitlement table.
func (l LimitsConfig) Model() model.Limits {
	return model.Limits{
		FreeWeeklyAnswers:    l.FreeWeeklyAnswers,
		PremiumWeeklyAnswers: l.PremiumWeeklyAnswers,
		FreeSets:             l.FreeSets,
		PremiumSets:          l.PremiumSets,
		ResetPeriod:          l.ResetPeriod,
	}
}
