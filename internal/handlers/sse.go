package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mestermind/backend/internal/requestdata"
	"github.com/mestermind/backend/internal/sse"
)

type SSEHandler struct {
	hub *sse.SSEHub
}

func NewSSEHandler(hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// SSEStream holds the connection open and pushes hub events. The client is
// subscribed to its own user channel on creation; job channels are added via
// SSESubscribe.
func (sh *SSEHandler) SSEStream(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	client := sh.hub.NewSSEClient(userID)
	defer sh.hub.RemoveClient(client)
	defer client.Close()

	sh.hub.ServeHTTP(c.Writer, c.Request, client)
}

func (sh *SSEHandler) SSESubscribe(c *gin.Context) {
	var req struct {
		JobID uuid.UUID `json:"job_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.JobID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("job_id is required"))
		return
	}
	userID := requestdata.UserID(c.Request.Context())
	sh.hub.SubscribeUser(userID, sse.JobChannel(req.JobID))
	RespondOK(c, gin.H{"subscribed": true})
}

func (sh *SSEHandler) SSEUnsubscribe(c *gin.Context) {
	var req struct {
		JobID uuid.UUID `json:"job_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.JobID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("job_id is required"))
		return
	}
	userID := requestdata.UserID(c.Request.Context())
	sh.hub.UnsubscribeUser(userID, sse.JobChannel(req.JobID))
	RespondOK(c, gin.H{"subscribed": false})
}
