package domain

import "math"

// Neutral defaults used when an indicator is missing for an area that still
// has at least one usable signal.
const (
	defaultCrimeScore  = 5
	defaultBuildingAge = 50
)

// PovertyRate derives the poverty percentage from a numerator/denominator
// pair, or nil when the denominator is absent or zero.
func PovertyRate(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil || *denominator <= 0 {
		return nil
	}
	rate := 100 * *numerator / *denominator
	return &rate
}

// BuildAreaRisk computes the risk classification for one area from its
// demographic indicators. The second return is false when neither indicator
// is usable; such areas receive no row this cycle and keep any previous one.
func BuildAreaRisk(areaKey string, povertyRate *float64, medianBuildYear *int) (AreaRisk, bool) {
	if medianBuildYear != nil && *medianBuildYear <= 0 {
		medianBuildYear = nil
	}
	if povertyRate == nil && medianBuildYear == nil {
		return AreaRisk{}, false
	}

	crime := crimeScore(povertyRate)
	fire := fireScore(medianBuildYear)

	return AreaRisk{
		AreaKey:         areaKey,
		PovertyRate:     povertyRate,
		MedianBuildYear: medianBuildYear,
		CrimeScore:      crime,
		FireScore:       fire,
		RiskLevel:       classify(crime, fire),
		UpdatedAt:       clock.Now(),
	}, true
}

// crimeScore maps a poverty rate onto a 1-10 scale. A rate of 25% or higher
// saturates the scale.
func crimeScore(povertyRate *float64) int {
	if povertyRate == nil {
		return defaultCrimeScore
	}
	return clampScore(int(math.Round(*povertyRate/25*9)) + 1)
}

// fireScore maps the age of an area's median structure onto a 1-10 scale;
// century-old housing stock saturates the scale.
func fireScore(medianBuildYear *int) int {
	age := defaultBuildingAge
	if medianBuildYear != nil {
		age = clock.Now().Year() - *medianBuildYear
	}
	return clampScore(int(math.Round(float64(age)/100*9)) + 1)
}

// classify buckets the average of the two scores: >= 7 HIGH, >= 4.5 MEDIUM.
func classify(crime, fire int) RiskLevel {
	combined := float64(crime+fire) / 2
	switch {
	case combined >= 7:
		return RiskHigh
	case combined >= 4.5:
		return RiskMedium
	default:
		return RiskLow
	}
}

func clampScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
