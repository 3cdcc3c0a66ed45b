package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stockly/internal/models/request_models"
	"stockly/internal/services"
	"stockly/pkg/utils"
)

type TierController struct {
	tierService        services.TierServiceInterface
	maintenanceService services.MaintenanceServiceInterface
}

func NewTierController(
	tierService services.TierServiceInterface,
	maintenanceService services.MaintenanceServiceInterface,
) *TierController {
	return &TierController{
		tierService:        tierService,
		maintenanceService: maintenanceService,
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Unauthorized access")
		return uuid.Nil, false
	}
	return userID, true
}

// GetPlans godoc
// @Summary List subscription plans
// @Description Returns the available plans with their feature rules
// @Tags Tiers
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /tiers/plans [get]
func (t *TierController) GetPlans(c *gin.Context) {
	plans, err := t.tierService.GetPlans(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, plans, "Plans fetched successfully")
}

// GetStatus godoc
// @Summary Get the caller's tier status
// @Description Full tier view: plan, expiry, grace period, features and usage
// @Tags Tiers
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tiers/status [get]
func (t *TierController) GetStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, err := t.tierService.GetTierStatus(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, status, "Tier status fetched successfully")
}

// CheckFeatureAccess godoc
// @Summary Check access to a feature
// @Description Advisory entitlement check for one feature; denial is a normal response
// @Tags Tiers
// @Produce json
// @Param feature path string true "Feature name"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tiers/features/{feature}/access [get]
func (t *TierController) CheckFeatureAccess(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, err := t.tierService.GetTierStatus(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	result, err := t.tierService.ValidateFeatureAccess(
		c.Request.Context(), userID, c.Param("feature"),
		dbPlan(status.SubscriptionPlan))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "Feature access evaluated")
}

// CheckUsageThreshold godoc
// @Summary Check usage against a warning threshold
// @Description Returns whether usage crossed the given fraction of the limit (default 0.8)
// @Tags Tiers
// @Produce json
// @Param feature path string true "Feature name"
// @Param threshold query number false "Threshold fraction"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tiers/features/{feature}/threshold [get]
func (t *TierController) CheckUsageThreshold(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	threshold := services.DefaultUsageThreshold
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			utils.RespondError(c, http.StatusBadRequest, "threshold must be a fraction between 0 and 1")
			return
		}
		threshold = parsed
	}

	result, err := t.tierService.CheckUsageThreshold(c.Request.Context(), userID, c.Param("feature"), threshold)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "Usage threshold evaluated")
}

// Upgrade godoc
// @Summary Upgrade the caller to premium
// @Tags Tiers
// @Accept json
// @Produce json
// @Param request body request_models.UpgradeRequest true "Upgrade payload"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tiers/upgrade [post]
func (t *TierController) Upgrade(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req request_models.UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := t.tierService.UpgradeToPremium(c.Request.Context(), userID, req.ExpiresAt, &userID, req.Notes); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Upgraded to premium")
}

// Downgrade godoc
// @Summary Downgrade the caller to the free plan
// @Tags Tiers
// @Accept json
// @Produce json
// @Param request body request_models.DowngradeRequest true "Downgrade payload"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tiers/downgrade [post]
func (t *TierController) Downgrade(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req request_models.DowngradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := t.tierService.DowngradeToFree(c.Request.Context(), userID, &userID, req.Notes); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Downgraded to free plan")
}

// GetHistory godoc
// @Summary List the caller's tier transitions
// @Tags Tiers
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tiers/history [get]
func (t *TierController) GetHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	history, err := t.tierService.GetTierHistory(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, history, "Tier history fetched successfully")
}

// TrackUsage godoc
// @Summary Adjust a usage counter
// @Description Called after a metered action completed outside the engine
// @Tags Tiers
// @Accept json
// @Produce json
// @Param request body request_models.TrackUsageRequest true "Usage payload"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tiers/usage/track [post]
func (t *TierController) TrackUsage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req request_models.TrackUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	resp, err := t.tierService.TrackUsage(c.Request.Context(), userID, req.FeatureName, req.Delta, req.Atomic)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, resp, "Usage tracked")
}

// RunExpirySweep godoc
// @Summary Downgrade all premium accounts past their grace period
// @Tags Admin
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/tiers/sweep [post]
func (t *TierController) RunExpirySweep(c *gin.Context) {
	downgraded, err := t.maintenanceService.RunExpirySweep(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"downgraded": downgraded}, "Expiry sweep completed")
}

// ResetCounters godoc
// @Summary Reset all usage counters
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body request_models.ResetCountersRequest true "Reset payload"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/tiers/reset-counters [post]
func (t *TierController) ResetCounters(c *gin.Context) {
	var req request_models.ResetCountersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	affected, err := t.maintenanceService.RunUsageReset(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"reset_type": req.ResetType, "affected": affected}, "Usage counters reset")
}
