package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func routeSet(r *gin.Engine) map[string]bool {
	out := make(map[string]bool)
	for _, rt := range r.Routes() {
		out[rt.Method+" "+rt.Path] = true
	}
	return out
}

func TestRegisterPurchaseRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterPurchaseRoutes(r.Group("/api/v1/purchase"), nil)

	require.True(t, routeSet(r)["POST /api/v1/purchase/verify"])
}

func TestRegisterWebhookRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterWebhookRoutes(r.Group("/api/v1/webhook"), nil)

	routes := routeSet(r)
	require.True(t, routes["POST /api/v1/webhook/apple"])
	require.True(t, routes["POST /api/v1/webhook/google"])
}

func TestRegisterSubscriptionRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterSubscriptionRoutes(r.Group("/api/v1/subscriptions"), nil)

	require.True(t, routeSet(r)["GET /api/v1/subscriptions/:original_transaction_id"])
}

func TestRegisterAdminRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterAdminRoutes(r.Group("/api/v1/admin"), nil, nil)

	routes := routeSet(r)
	require.True(t, routes["GET /api/v1/admin/subscriptions"])
	require.True(t, routes["GET /api/v1/admin/statistics"])
}

func TestRegisterHealthRoutes_RegistersEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterHealthRoutes(r)

	require.True(t, routeSet(r)["GET /healthz"])
}
