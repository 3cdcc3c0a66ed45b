package response_models

import "time"

type AccountLoginResponse struct {
	Token             string `json:"token"`
	SubscriptionPlan  string `json:"subscription_plan"`
	IsUserHavePremium bool   `json:"is_user_have_premium"`
}

type AccountResponse struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	Role                  string     `json:"role"`
	IsActive              bool       `json:"is_active"`
	SubscriptionPlan      string     `json:"subscription_plan"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
}
