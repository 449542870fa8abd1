package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BijayX/iapguard/internal/app/service/records"
	"github.com/BijayX/iapguard/pkg/response"
)

// @Summary      Get Subscription
// @Description  Returns the stored subscription record for a purchase lineage.
// @Tags         Subscription
// @Produce      json
// @Param        original_transaction_id path string true "Original transaction id"
// @Success      200  {object}  handlers.RespSubscription
// @Router       /api/v1/subscriptions/{original_transaction_id} [get]
func ApiGetSubscription(svc *records.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		lineage := c.Param("original_transaction_id")
		if lineage == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing original_transaction_id"))
			return
		}

		rec, err := svc.GetByLineage(c.Request.Context(), lineage)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeBadRequest, "subscription not found"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(rec))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, svc *records.Service) {
	r.GET("/:original_transaction_id", ApiGetSubscription(svc))
}
