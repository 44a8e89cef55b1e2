package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mestermind/backend/internal/requestdata"
	"github.com/mestermind/backend/internal/services"
)

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (ph *PaymentHandler) CreateIntent(c *gin.Context) {
	proID := requestdata.UserID(c.Request.Context())
	var req services.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	resp, err := ph.paymentService.CreateIntent(c.Request.Context(), proID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, resp)
}

func (ph *PaymentHandler) Confirm(c *gin.Context) {
	proID := requestdata.UserID(c.Request.Context())
	var req services.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	purchase, err := ph.paymentService.Confirm(c.Request.Context(), proID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"purchase": purchase})
}

func (ph *PaymentHandler) CheckAccess(c *gin.Context) {
	proID := requestdata.UserID(c.Request.Context())
	jobID, err := uuid.Parse(c.Param("requestID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request id"))
		return
	}
	hasAccess, err := ph.paymentService.CheckAccess(c.Request.Context(), proID, jobID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"has_access": hasAccess})
}
