package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stockly/internal/models/db_models"
	"stockly/internal/services"
	"stockly/pkg/utils"
)

// RequireFeature gates a route on the caller's tier entitlement. The check
// here is advisory; routes that consume a hard-capped slot additionally
// enforce the limit inside the service transaction.
func RequireFeature(tierService services.TierServiceInterface, featureName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetString("user_id"))
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Unauthorized access")
			c.Abort()
			return
		}

		status, err := tierService.GetTierStatus(c.Request.Context(), userID)
		if err != nil {
			utils.HandleServiceError(c, err)
			c.Abort()
			return
		}

		plan := services.EffectivePlan(
			db_models.SubscriptionPlan(status.SubscriptionPlan),
			status.SubscriptionExpiresAt,
			time.Now().UTC(),
		)

		result, err := tierService.ValidateFeatureAccess(c.Request.Context(), userID, featureName, plan)
		if err != nil {
			utils.HandleServiceError(c, err)
			c.Abort()
			return
		}
		if !result.AccessGranted {
			utils.RespondError(c, http.StatusForbidden, "Upgrade required: "+result.Reason)
			c.Abort()
			return
		}

		c.Next()
	}
}
