package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"stockly/internal/models/db_models"
	"stockly/internal/models/response_models"
	"stockly/internal/services"
)

// stubTierService only cares about the two methods the gate calls.
type stubTierService struct {
	services.TierServiceInterface

	status response_models.TierStatusResponse
	access response_models.FeatureAccessResult
}

func (s *stubTierService) GetTierStatus(context.Context, uuid.UUID) (response_models.TierStatusResponse, error) {
	return s.status, nil
}

func (s *stubTierService) ValidateFeatureAccess(context.Context, uuid.UUID, string, db_models.SubscriptionPlan) (response_models.FeatureAccessResult, error) {
	return s.access, nil
}

func gateRequest(t *testing.T, tierService services.TierServiceInterface, userID string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/export",
		func(c *gin.Context) { c.Set("user_id", userID) },
		RequireFeature(tierService, db_models.FeatureCSVExport),
		func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/export", nil)
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestRequireFeature(t *testing.T) {
	t.Run("granted feature passes through", func(t *testing.T) {
		stub := &stubTierService{
			status: response_models.TierStatusResponse{SubscriptionPlan: "premium"},
			access: response_models.FeatureAccessResult{AccessGranted: true, FeatureAvailable: true},
		}

		recorder := gateRequest(t, stub, uuid.NewString())
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "ok", recorder.Body.String())
	})

	t.Run("denied feature is rejected with 403", func(t *testing.T) {
		stub := &stubTierService{
			status: response_models.TierStatusResponse{SubscriptionPlan: "free"},
			access: response_models.FeatureAccessResult{Reason: response_models.ReasonFeatureNotAvailable},
		}

		recorder := gateRequest(t, stub, uuid.NewString())
		assert.Equal(t, http.StatusForbidden, recorder.Code)
		assert.Contains(t, recorder.Body.String(), response_models.ReasonFeatureNotAvailable)
	})

	t.Run("missing user id is unauthorized", func(t *testing.T) {
		stub := &stubTierService{}

		recorder := gateRequest(t, stub, "not-a-uuid")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("expired premium past grace is gated as free", func(t *testing.T) {
		expiry := time.Now().UTC().AddDate(0, 0, -30)
		stub := &stubTierService{
			status: response_models.TierStatusResponse{
				SubscriptionPlan:      "premium",
				SubscriptionExpiresAt: &expiry,
			},
			access: response_models.FeatureAccessResult{Reason: response_models.ReasonFeatureNotAvailable},
		}

		recorder := gateRequest(t, stub, uuid.NewString())
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}
