package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mestermind/backend/internal/requestdata"
	"github.com/mestermind/backend/internal/services"
)

type AppointmentHandler struct {
	appointmentService services.AppointmentService
	proposalService    services.ProposalService
}

func NewAppointmentHandler(appointmentService services.AppointmentService, proposalService services.ProposalService) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentService: appointmentService,
		proposalService:    proposalService,
	}
}

func (ah *AppointmentHandler) Create(c *gin.Context) {
	proID := requestdata.UserID(c.Request.Context())
	var req services.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	appointment, err := ah.appointmentService.Create(c.Request.Context(), proID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, gin.H{"appointment": appointment})
}

func (ah *AppointmentHandler) ListMine(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	appointments, err := ah.appointmentService.ListMine(c.Request.Context(), userID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"appointments": appointments})
}

func (ah *AppointmentHandler) CreateProposal(c *gin.Context) {
	proID := requestdata.UserID(c.Request.Context())
	jobID, err := uuid.Parse(c.Param("threadID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid thread id"))
		return
	}
	var req services.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	proposal, err := ah.proposalService.Create(c.Request.Context(), proID, jobID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, gin.H{"proposal": proposal})
}

func (ah *AppointmentHandler) ListProposals(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("threadID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid thread id"))
		return
	}
	proposals, err := ah.proposalService.ListByThread(c.Request.Context(), jobID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"proposals": proposals})
}

func (ah *AppointmentHandler) AcceptProposal(c *gin.Context) {
	customerID := requestdata.UserID(c.Request.Context())
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid proposal id"))
		return
	}
	var req services.RespondProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	appointment, err := ah.proposalService.Accept(c.Request.Context(), customerID, proposalID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"appointment": appointment})
}

func (ah *AppointmentHandler) RejectProposal(c *gin.Context) {
	customerID := requestdata.UserID(c.Request.Context())
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid proposal id"))
		return
	}
	var req services.RespondProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ah.proposalService.Reject(c.Request.Context(), customerID, proposalID, req); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

func (ah *AppointmentHandler) CancelProposal(c *gin.Context) {
	proID := requestdata.UserID(c.Request.Context())
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid proposal id"))
		return
	}
	if err := ah.proposalService.Cancel(c.Request.Context(), proID, proposalID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

func (ah *AppointmentHandler) Reschedule(c *gin.Context) {
	actorID := requestdata.UserID(c.Request.Context())
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid appointment id"))
		return
	}
	var req services.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	appointment, err := ah.appointmentService.Reschedule(c.Request.Context(), actorID, appointmentID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"appointment": appointment})
}

func (ah *AppointmentHandler) Cancel(c *gin.Context) {
	actorID := requestdata.UserID(c.Request.Context())
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid appointment id"))
		return
	}
	var req services.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ah.appointmentService.Cancel(c.Request.Context(), actorID, appointmentID, req); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

func (ah *AppointmentHandler) Complete(c *gin.Context) {
	proID := requestdata.UserID(c.Request.Context())
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid appointment id"))
		return
	}
	var req services.CompleteAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := ah.appointmentService.Complete(c.Request.Context(), proID, appointmentID, req); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

func (ah *AppointmentHandler) MarkNoShow(c *gin.Context) {
	proID := requestdata.UserID(c.Request.Context())
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid appointment id"))
		return
	}
	if err := ah.appointmentService.MarkNoShow(c.Request.Context(), proID, appointmentID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

func (ah *AppointmentHandler) ExportICal(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid appointment id"))
		return
	}
	ical, err := ah.appointmentService.ExportICal(c.Request.Context(), userID, appointmentID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="appointment-%s.ics"`, appointmentID))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ical))
}
