package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mestermind/backend/internal/requestdata"
	"github.com/mestermind/backend/internal/services"
)

type MessageHandler struct {
	messageService services.MessageService
	gateService    services.GateService
}

func NewMessageHandler(messageService services.MessageService, gateService services.GateService) *MessageHandler {
	return &MessageHandler{messageService: messageService, gateService: gateService}
}

// List serves GET /messages?job_id=|user_id=. With job_id the thread view is
// returned (redaction applied for the viewer); with user_id the raw message
// list for the conversation aggregate.
func (mh *MessageHandler) List(c *gin.Context) {
	viewerID := requestdata.UserID(c.Request.Context())

	if jobIDStr := c.Query("job_id"); jobIDStr != "" {
		jobID, err := uuid.Parse(jobIDStr)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid job_id"))
			return
		}
		messages, err := mh.messageService.ListThread(c.Request.Context(), viewerID, jobID)
		if err != nil {
			RespondAPIError(c, err)
			return
		}
		RespondOK(c, gin.H{"messages": messages})
		return
	}

	messages, err := mh.messageService.ListForUser(c.Request.Context(), viewerID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"messages": messages})
}

func (mh *MessageHandler) Send(c *gin.Context) {
	senderID := requestdata.UserID(c.Request.Context())
	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	message, err := mh.messageService.Send(c.Request.Context(), senderID, req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondCreated(c, gin.H{"message": message})
}

func (mh *MessageHandler) MarkRead(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid message id"))
		return
	}
	if err := mh.messageService.MarkRead(c.Request.Context(), userID, messageID); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

// GateStatus serves GET /lead-purchases/check?job_id= for the sending UI.
func (mh *MessageHandler) GateStatus(c *gin.Context) {
	proID := requestdata.UserID(c.Request.Context())
	jobID, err := uuid.Parse(c.Query("job_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid job_id"))
		return
	}
	status, err := mh.gateService.Status(c.Request.Context(), proID, jobID)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, status)
}
