package handler

import (
	"github.com/gin-gonic/gin"

	"fintrack/internal/util"
)

// GetMe returns the authenticated user.
func GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	util.Success(c, util.Response{
		"user": userView(user),
	})
}
