package funnel

// Traffic-quality tiers for source aggregates.
const (
	QualityPremium = "Premium"
	QualityHigh    = "High"
	QualityMedium  = "Medium"
	QualityLow     = "Low"
	QualityPoor    = "Poor"
)

// Content-effectiveness tiers for content aggregates.
const (
	EffectivenessExcellent    = "Excellent"
	EffectivenessGood         = "Good"
	EffectivenessAverage      = "Average"
	EffectivenessBelowAverage = "Below Average"
	EffectivenessPoor         = "Poor"
)

// assessTrafficQuality assigns a quality tier from conversion rate and user
// count. Tiers are checked top down and the first match wins, so a 25% rate
// on 30 users is High, not Premium.
func assessTrafficQuality(conversionRate float64, users int) string {
	switch {
	case conversionRate >= 20 && users >= 50:
		return QualityPremium
	case conversionRate >= 10 && users >= 100:
		return QualityHigh
	case conversionRate >= 5 && users >= 200:
		return QualityMedium
	case conversionRate >= 2:
		return QualityLow
	default:
		return QualityPoor
	}
}

// assessContentEffectiveness assigns an effectiveness tier from conversion
// rate and visitor count, first match wins.
func assessContentEffectiveness(conversionRate float64, users int) string {
	switch {
	case conversionRate >= 30 && users >= 20:
		return EffectivenessExcellent
	case conversionRate >= 15 && users >= 50:
		return EffectivenessGood
	case conversionRate >= 8 && users >= 100:
		return EffectivenessAverage
	case conversionRate >= 3:
		return EffectivenessBelowAverage
	default:
		return EffectivenessPoor
	}
}
