package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mestermind/backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"me": me})
}
