package billing

import "coachhub_backend/internal/models"

// Prices are denominated in Malawian Kwacha. Yearly prices are ten
// monthly payments, per the published price list.
var priceTable = map[models.SubscriptionTier]map[models.BillingCycle]float64{
	models.TierBasic: {
		models.BillingCycleMonthly: 10000,
		models.BillingCycleYearly:  100000,
	},
	models.TierPremium: {
		models.BillingCycleMonthly: 25000,
		models.BillingCycleYearly:  250000,
	},
	models.TierEnterprise: {
		models.BillingCycleMonthly: 100000,
		models.BillingCycleYearly:  1000000,
	},
}

const Currency = "MWK"

// Price returns the amount in MWK for a tier and billing cycle.
// The second return is false when either value is unknown.
func Price(tier models.SubscriptionTier, cycle models.BillingCycle) (float64, bool) {
	cycles, ok := priceTable[tier]
	if !ok {
		return 0, false
	}
	amount, ok := cycles[cycle]
	return amount, ok
}

func ValidTier(s string) bool {
	_, ok := priceTable[models.SubscriptionTier(s)]
	return ok
}

func ValidCycle(s string) bool {
	c := models.BillingCycle(s)
	return c == models.BillingCycleMonthly || c == models.BillingCycleYearly
}
