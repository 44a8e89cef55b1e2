package types

// Lead pricing output types. These are computed on demand and never
// persisted; the breakdown snapshot stored on a LeadPurchase is a JSON copy
// of PriceBreakdown at purchase time.

type PricingBand struct {
	Code        string `json:"code" yaml:"code"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// PriceBreakdown is the clamp audit trail: final price is the base price
// clamped into [floor, cap], and AppliedConstraint records which bound was
// binding ("floor", "cap", or empty when neither).
type PriceBreakdown struct {
	ExpectedJobValue           float64 `json:"expected_job_value"`
	TargetTakeRate             float64 `json:"target_take_rate"`
	PriceFloor                 float64 `json:"price_floor"`
	PriceCap                   float64 `json:"price_cap"`
	BasePriceBeforeConstraints float64 `json:"base_price_before_constraints"`
	AppliedConstraint          string  `json:"applied_constraint,omitempty"`
}

type JobMetrics struct {
	WinRateMin        float64 `json:"win_rate_min"`
	WinRateMax        float64 `json:"win_rate_max"`
	WinRateAvg        float64 `json:"win_rate_avg"`
	ExpectedValue     float64 `json:"expected_value"`
	ExpectedProfitMin float64 `json:"expected_profit_min"`
	ExpectedProfitMax float64 `json:"expected_profit_max"`
}

type LeadPrice struct {
	FinalPrice         float64        `json:"final_price"`
	Currency           string         `json:"currency"`
	Band               PricingBand    `json:"band"`
	SeatsAvailable     int            `json:"seats_available"`
	EstimatedCloseRate float64        `json:"estimated_close_rate"`
	Breakdown          PriceBreakdown `json:"breakdown"`
	JobMetrics         JobMetrics     `json:"job_metrics"`
}
