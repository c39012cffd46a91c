// Package handler holds the gin handlers of the /api surface.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/ledger"
	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/report"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// currentUser returns the authenticated user or writes a 401.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return nil, false
	}
	return user, true
}

// respondError maps service errors to the envelope. Unknown errors are
// attached to the context for the request logger and reported as 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, report.ErrInvalidFilter):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		util.Error(c, http.StatusBadRequest, util.CodeInsufficientFunds, "insufficient balance")
	case errors.Is(err, ledger.ErrNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
	default:
		_ = c.Error(err)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal server error")
	}
}

// amountCent validates a request amount. It writes a 400 and returns false when invalid.
func amountCent(c *gin.Context, field string, d *decimal.Decimal) (int64, bool) {
	if d == nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, field+" is required")
		return 0, false
	}
	cent, err := money.ToCent(*d)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, field+": "+err.Error())
		return 0, false
	}
	return cent, true
}

// parseFilter reads start_date/end_date, month and year.
func parseFilter(c *gin.Context) (report.Filter, error) {
	return report.ParseFilter(
		strings.TrimSpace(c.Query("start_date")),
		strings.TrimSpace(c.Query("end_date")),
		strings.TrimSpace(c.Query("month")),
		strings.TrimSpace(c.Query("year")),
	)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// userView is the public shape of a user.
func userView(u *models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"created_at": u.CreatedAt,
	}
}
