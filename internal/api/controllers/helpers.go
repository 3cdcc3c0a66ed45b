package controllers

import "stockly/internal/models/db_models"

func dbPlan(plan string) db_models.SubscriptionPlan {
	if plan == string(db_models.SubscriptionPlanPremium) {
		return db_models.SubscriptionPlanPremium
	}
	return db_models.SubscriptionPlanFree
}
