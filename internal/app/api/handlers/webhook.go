package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BijayX/iapguard/internal/app/service/webhook"
	"github.com/BijayX/iapguard/pkg/logctx"
	"github.com/BijayX/iapguard/pkg/response"
)

// @Summary      Apple Webhook
// @Description  Handles App Store server notifications, both the legacy V1 JSON body and the V2 signedPayload form.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body string true "App Store server notification"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/webhook/apple [post]
func ApiAppleWebhook(svc *webhook.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		logctx.FromGin(c, svc.Logger()).Infow("webhook_apple_received")

		if err := svc.HandleApple(c.Request.Context(), body); err != nil {
			logctx.FromGin(c, svc.Logger()).Errorw("webhook_apple_handle_error", "error", err.Error())
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Google Webhook
// @Description  Handles Play real-time developer notifications, either the raw DeveloperNotification or its Pub/Sub push envelope. Non-2xx responses trigger Pub/Sub redelivery.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body string true "Play developer notification"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/webhook/google [post]
func ApiGoogleWebhook(svc *webhook.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		logctx.FromGin(c, svc.Logger()).Infow("webhook_google_received")

		if err := svc.HandleGoogle(c.Request.Context(), body); err != nil {
			logctx.FromGin(c, svc.Logger()).Errorw("webhook_google_handle_error", "error", err.Error())
			// Pub/Sub retries on non-2xx; transient failures should be retried.
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterWebhookRoutes(r gin.IRouter, svc *webhook.Service) {
	r.POST("/apple", ApiAppleWebhook(svc))
	r.POST("/google", ApiGoogleWebhook(svc))
}
