package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BijayX/iapguard/internal/app/service/purchase"
	"github.com/BijayX/iapguard/internal/app/service/verification"
	"github.com/BijayX/iapguard/pkg/response"
	"github.com/BijayX/iapguard/pkg/types"
)

type VerifyPurchaseRequest struct {
	UserID   string         `json:"user_id"`
	Platform types.Platform `json:"platform"`

	// iOS
	ReceiptData string `json:"receipt_data,omitempty"`
	Password    string `json:"password,omitempty"`

	// Android
	PackageName    string `json:"package_name,omitempty"`
	ProductID      string `json:"product_id,omitempty"`
	PurchaseToken  string `json:"purchase_token,omitempty"`
	IsSubscription bool   `json:"is_subscription,omitempty"`
}

func (r *VerifyPurchaseRequest) toVerification() verification.Request {
	return verification.Request{
		Platform: r.Platform,
		Apple: verification.ApplePayload{
			ReceiptData: r.ReceiptData,
			Password:    r.Password,
		},
		Google: verification.GooglePayload{
			PackageName:    r.PackageName,
			ProductID:      r.ProductID,
			PurchaseToken:  r.PurchaseToken,
			IsSubscription: r.IsSubscription,
		},
	}
}

// @Summary      Verify Purchase
// @Description  Verifies a client-submitted receipt or purchase token with the originating store and updates the stored subscription state.
// @Tags         Purchase
// @Accept       json
// @Produce      json
// @Param        request body VerifyPurchaseRequest true "Purchase verification request"
// @Success      200  {object}  handlers.RespVerifyPurchase
// @Router       /api/v1/purchase/verify [post]
func ApiVerifyPurchase(svc *purchase.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyPurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if !req.Platform.Known() {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "unsupported platform"))
			return
		}

		out, err := svc.VerifyAndApply(c.Request.Context(), req.UserID, req.toVerification())
		if err != nil {
			if errors.Is(err, verification.ErrUnsupportedPlatform) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(out))
	}
}

func RegisterPurchaseRoutes(r gin.IRouter, svc *purchase.Service) {
	r.POST("/verify", ApiVerifyPurchase(svc))
}
