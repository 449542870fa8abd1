package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BijayX/iapguard/internal/app/service/records"
	"github.com/BijayX/iapguard/internal/app/service/statistics"
	"github.com/BijayX/iapguard/pkg/response"
	"github.com/BijayX/iapguard/pkg/types"
)

type ListSubscriptionsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// @Summary      List Subscriptions (Admin)
// @Description  Retrieves a paginated and filterable list of subscription records.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        filters query string false "JSON-encoded filters"
// @Success      200  {object}  handlers.RespListSubscriptions
// @Router       /api/v1/admin/subscriptions [get]
func ApiListSubscriptions(svc *records.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &records.ScanRequest{
			SortBy:    c.DefaultQuery("sort_by", "created_at"),
			SortOrder: c.DefaultQuery("sort_order", "desc"),
		}
		if v := c.Query("from"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid from"))
				return
			}
			req.From = n
		}
		if v := c.Query("size"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid size"))
				return
			}
			req.Size = n
		}
		for field, column := range map[string]string{
			"user_id":  "user_id",
			"platform": "platform",
			"status":   "status",
		} {
			if v := c.Query(field); v != "" {
				req.Filters = append(req.Filters, &types.CommonFilter{
					Field:    column,
					Operator: types.CommonFilterOperatorEq,
					Values:   []any{v},
				})
			}
		}

		res, err := svc.Scan(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Statistics (Admin)
// @Description  Returns aggregate subscription counts for dashboards.
// @Tags         Admin
// @Produce      json
// @Param        expiring_within_days query int false "Expiring-soon window in days" default(7)
// @Param        daily_days query int false "Days of daily new-subscription series" default(30)
// @Success      200  {object}  handlers.RespStatistics
// @Router       /api/v1/admin/statistics [get]
func ApiGetStatistics(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		expiringDays := 7
		if v := c.Query("expiring_within_days"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				expiringDays = n
			}
		}
		dailyDays := 30
		if v := c.Query("daily_days"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				dailyDays = n
			}
		}

		res, err := svc.Overview(c.Request.Context(), time.Duration(expiringDays)*24*time.Hour, dailyDays)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, rec *records.Service, stats *statistics.Service) {
	r.GET("/subscriptions", ApiListSubscriptions(rec))
	r.GET("/statistics", ApiGetStatistics(stats))
}
