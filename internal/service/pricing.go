package service

import (
	"fmt"
	"math"
	"strings"
)

const (
	filamentRateCents = 10
	resinRateCents    = 20
	minimumCostCents  = 300
	// MaxWeightG caps billable weight so every price fits in int64 cents.
	MaxWeightG = 1000000
)

// CalculateCost returns the job cost in cents for the material and estimates.
// Resin is billed at the resin rate, every other material at the filament
// rate, and the result never falls below the minimum charge.
func CalculateCost(material string, weightG, timeHours float64) (int64, error) {
	if !positiveFinite(weightG) {
		return 0, validationError("weight_g", "must be a positive number")
	}
	if !positiveFinite(timeHours) {
		return 0, validationError("time_hours", "must be a positive number")
	}
	return priceCents(material, weightG, "weight_g")
}

// PriceCentsForGrams applies the rate table and minimum to grams without validating time.
func PriceCentsForGrams(material string, grams float64) (int64, error) {
	return priceCents(material, grams, "grams")
}

func priceCents(material string, grams float64, field string) (int64, error) {
	if !positiveFinite(grams) {
		return 0, validationError(field, "must be a positive number")
	}
	if grams > MaxWeightG {
		return 0, validationError(field, fmt.Sprintf("must not exceed %d", MaxWeightG))
	}
	rate := float64(filamentRateCents)
	if IsResin(material) {
		rate = resinRateCents
	}
	// Round half up on the cent; the epsilon absorbs float drift such as 2.675.
	cents := int64(math.Floor(grams*rate + 0.5 + 1e-9))
	if cents < minimumCostCents {
		return minimumCostCents, nil
	}
	return cents, nil
}

// IsResin reports whether the material is billed at the resin rate.
func IsResin(material string) bool {
	return strings.EqualFold(strings.TrimSpace(material), "resin")
}

// MinimumCostCents exposes the minimum charge for messaging.
func MinimumCostCents() int64 {
	return minimumCostCents
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
