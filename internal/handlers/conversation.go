package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mestermind/backend/internal/requestdata"
	"github.com/mestermind/backend/internal/services"
)

type ConversationHandler struct {
	conversationService services.ConversationService
}

func NewConversationHandler(conversationService services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

func (ch *ConversationHandler) List(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	archivedOnly := c.Query("archived") == "true"
	conversations, err := ch.conversationService.List(c.Request.Context(), userID, archivedOnly)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversations": conversations})
}

// ListArchived is the archived inbox view, equivalent to List with
// ?archived=true.
func (ch *ConversationHandler) ListArchived(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	conversations, err := ch.conversationService.List(c.Request.Context(), userID, true)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversations": conversations})
}

func (ch *ConversationHandler) jobIDFromBody(c *gin.Context) (uuid.UUID, bool) {
	var req struct {
		JobID uuid.UUID `json:"job_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.JobID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("job_id is required"))
		return uuid.Nil, false
	}
	return req.JobID, true
}

func (ch *ConversationHandler) Archive(c *gin.Context) {
	jobID, ok := ch.jobIDFromBody(c)
	if !ok {
		return
	}
	userID := requestdata.UserID(c.Request.Context())
	if err := ch.conversationService.Archive(c.Request.Context(), userID, jobID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"archived": true})
}

func (ch *ConversationHandler) Unarchive(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid job_id"))
		return
	}
	userID := requestdata.UserID(c.Request.Context())
	if err := ch.conversationService.Unarchive(c.Request.Context(), userID, jobID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"archived": false})
}

func (ch *ConversationHandler) CheckArchived(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid job_id"))
		return
	}
	userID := requestdata.UserID(c.Request.Context())
	archived, err := ch.conversationService.IsArchived(c.Request.Context(), userID, jobID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"archived": archived})
}

func (ch *ConversationHandler) Star(c *gin.Context) {
	jobID, ok := ch.jobIDFromBody(c)
	if !ok {
		return
	}
	userID := requestdata.UserID(c.Request.Context())
	if err := ch.conversationService.Star(c.Request.Context(), userID, jobID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"starred": true})
}

func (ch *ConversationHandler) Unstar(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid job_id"))
		return
	}
	userID := requestdata.UserID(c.Request.Context())
	if err := ch.conversationService.Unstar(c.Request.Context(), userID, jobID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"starred": false})
}

func (ch *ConversationHandler) CheckStarred(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid job_id"))
		return
	}
	userID := requestdata.UserID(c.Request.Context())
	starred, err := ch.conversationService.IsStarred(c.Request.Context(), userID, jobID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"starred": starred})
}
