package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mestermind/backend/internal/services"
)

type PricingHandler struct {
	pricingService services.PricingService
}

func NewPricingHandler(pricingService services.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

// LeadPrice serves both pricing/lead/{requestID} and
// pricing/thread/{threadID}: a thread is keyed by its job id, so the lookup
// is identical.
func (ph *PricingHandler) LeadPrice(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request id"))
		return
	}
	price, err := ph.pricingService.PriceForJob(c.Request.Context(), jobID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, price)
}
