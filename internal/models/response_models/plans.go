package response_models

// PlanView is the static, display-oriented description of a tier.
type PlanView struct {
	Name            string                 `json:"name"`
	Plan            string                 `json:"plan"`
	PriceMinor      int64                  `json:"price_minor"`
	Currency        string                 `json:"currency"`
	BillingInterval string                 `json:"billing_interval"`
	Features        map[string]TierFeature `json:"features"`
}
