package variance

import "math"

// Type classifies the difference between collector-reported and
// office-confirmed milk volume for a single collection.
type Type string

const (
	TypeShortage Type = "SHORTAGE" // received less than collected
	TypeExcess   Type = "EXCESS"   // received more than collected
	TypeNone     Type = "NONE"     // volumes match
)

// Result holds the computed variance and penalty for one collection.
type Result struct {
	VarianceLiters     float64 `json:"variance_liters"`
	VariancePercentage float64 `json:"variance_percentage"` // signed, e.g. -10.0 for a 10% shortage
	Type               Type    `json:"variance_type"`
	PenaltyAmount      float64 `json:"penalty_amount"`
}

// Compute calculates variance and shortage penalty for a collection.
//
// tolerancePercent is the allowed shortage as a percentage of the collected
// volume (e.g. 5.0 for 5%). penaltyRate is the deduction per liter of
// shortage beyond tolerance. Only shortage beyond tolerance is penalized;
// the tolerated portion (collected * tolerance) is free.
//
// Pure function: identical inputs always produce identical results.
func Compute(collectedLiters, receivedLiters, tolerancePercent, penaltyRate float64) Result {
	varianceLiters := receivedLiters - collectedLiters

	var variancePct float64
	if collectedLiters != 0 {
		variancePct = varianceLiters / collectedLiters * 100
	}
	// collectedLiters == 0: treated as zero variance, nothing to penalize

	varianceType := TypeNone
	switch {
	case varianceLiters > 0:
		varianceType = TypeExcess
	case varianceLiters < 0:
		varianceType = TypeShortage
	}

	var penalty float64
	if varianceType == TypeShortage && math.Abs(variancePct) > tolerancePercent {
		toleratedLiters := collectedLiters * tolerancePercent / 100
		penalty = (math.Abs(varianceLiters) - toleratedLiters) * penaltyRate
		if penalty < 0 {
			penalty = 0
		}
	}

	return Result{
		VarianceLiters:     Round2(varianceLiters),
		VariancePercentage: Round2(variancePct),
		Type:               varianceType,
		PenaltyAmount:      Round2(penalty),
	}
}

// Round2 rounds to currency precision (2 decimals).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
