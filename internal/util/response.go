package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the data object of a success envelope.
type Response map[string]interface{}

// Business codes carried in the envelope next to the HTTP status.
const (
	CodeOK                = 0
	CodeInvalidParam      = 40001
	CodeInsufficientFunds = 40002
	CodeAuth              = 40101
	CodeNotFound          = 40401
	CodeConflict          = 40901
	CodeTooManyRequests   = 42901
	CodeServerErr         = 50001
)

// Success writes a 200 envelope.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data Response) {
	c.JSON(http.StatusCreated, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes an error envelope.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}
