package services

import (
	"github.com/mestermind/backend/internal/types"
)

// Pure pricing math. Kept free of I/O so the clamp law and the metric
// formulas are testable in isolation.

const (
	urgencyMultFlexible = 0.9
	urgencyMultNormal   = 1.0
	urgencyMultUrgent   = 1.15

	maxWinRate = 0.85
)

// clampWithAudit clamps base into [floor, cap] and records which bound was
// binding. The constraint is "floor" only when the floor actually raised the
// price, "cap" only when the cap actually lowered it, empty otherwise.
func clampWithAudit(base, floor, cap float64) (float64, string) {
	if base < floor {
		return floor, "floor"
	}
	if base > cap {
		return cap, "cap"
	}
	return base, ""
}

func urgencyMultiplier(urgency string) float64 {
	switch urgency {
	case types.UrgencyFlexible:
		return urgencyMultFlexible
	case types.UrgencyUrgent:
		return urgencyMultUrgent
	default:
		return urgencyMultNormal
	}
}

// competitionMultiplier discounts the per-lead price as more seats are sold
// on the same request.
func competitionMultiplier(seats int) float64 {
	if seats < 1 {
		seats = 1
	}
	mult := 1.25 - 0.05*float64(seats)
	if mult < 0.8 {
		mult = 0.8
	}
	if mult > 1.2 {
		mult = 1.2
	}
	return mult
}

// expectedJobValue estimates the job's value from the service category's
// range, pulled toward the customer's declared budget when present.
func expectedJobValue(svc *types.Service, budget *float64) float64 {
	mid := (svc.ExpectedJobMin + svc.ExpectedJobMax) / 2
	if mid <= 0 {
		mid = svc.ExpectedJobMax
	}
	if budget == nil || *budget <= 0 {
		return mid
	}
	return (mid + *budget) / 2
}

// winRateRange estimates how likely a purchasing pro is to win the job given
// how many pros can buy the same lead. min <= avg <= max always holds.
func winRateRange(seats int) (min, max, avg float64) {
	if seats < 1 {
		seats = 1
	}
	max = 1.6 / float64(seats)
	if max > maxWinRate {
		max = maxWinRate
	}
	min = 0.6 / float64(seats)
	if min > max {
		min = max
	}
	avg = (min + max) / 2
	return min, max, avg
}

func computeLeadPrice(job *types.Job, svc *types.Service, band *bandConfig, currency string) *types.LeadPrice {
	value := expectedJobValue(svc, job.Budget)
	base := value * band.TakeRate * urgencyMultiplier(job.Urgency) * competitionMultiplier(job.SeatsAvailable)
	final, constraint := clampWithAudit(base, band.PriceFloor, band.PriceCap)

	winMin, winMax, winAvg := winRateRange(job.SeatsAvailable)

	return &types.LeadPrice{
		FinalPrice:         final,
		Currency:           currency,
		Band:               band.PricingBand,
		SeatsAvailable:     job.SeatsAvailable,
		EstimatedCloseRate: winAvg,
		Breakdown: types.PriceBreakdown{
			ExpectedJobValue:           value,
			TargetTakeRate:             band.TakeRate,
			PriceFloor:                 band.PriceFloor,
			PriceCap:                   band.PriceCap,
			BasePriceBeforeConstraints: base,
			AppliedConstraint:          constraint,
		},
		JobMetrics: types.JobMetrics{
			WinRateMin:        winMin,
			WinRateMax:        winMax,
			WinRateAvg:        winAvg,
			ExpectedValue:     winAvg * value,
			ExpectedProfitMin: winMin*value - final,
			ExpectedProfitMax: winMax*value - final,
		},
	}
}
