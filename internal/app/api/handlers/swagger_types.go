package handlers

import (
	"github.com/BijayX/iapguard/internal/app/service/purchase"
	"github.com/BijayX/iapguard/internal/app/service/records"
	"github.com/BijayX/iapguard/internal/app/service/statistics"
	"github.com/BijayX/iapguard/internal/models"
	"github.com/BijayX/iapguard/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespVerifyPurchase wraps the verification outcome in the standard envelope.
type RespVerifyPurchase struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    purchase.Outcome         `json:"data"`
}

// RespSubscription wraps a single subscription record in the standard envelope.
type RespSubscription struct {
	Code    response.APIResponseCode  `json:"code"`
	Message string                    `json:"message"`
	Data    models.SubscriptionRecord `json:"data"`
}

// RespListSubscriptions wraps a paginated record listing in the standard envelope.
type RespListSubscriptions struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    records.ScanResponse     `json:"data"`
}

// RespStatistics wraps the admin overview in the standard envelope.
type RespStatistics struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    statistics.Overview      `json:"data"`
}
