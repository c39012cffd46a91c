package handler

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/models"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UpdateProfileReq changes username, email or both.
type UpdateProfileReq struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// ChangePasswordReq replaces the password after checking the current one.
type ChangePasswordReq struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// UpdateProfile updates the current user's username and/or email.
func UpdateProfile(db *gorm.DB, allowedEmailDomain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req UpdateProfileReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
			return
		}

		ctx := c.Request.Context()
		updates := map[string]any{}

		if req.Username != nil && strings.TrimSpace(*req.Username) != "" {
			name := strings.TrimSpace(*req.Username)
			if err := util.ValidateUsername(name); err != nil {
				util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
				return
			}
			var n int64
			if err := db.WithContext(ctx).Model(&models.User{}).
				Where("LOWER(username) = LOWER(?) AND id <> ?", name, user.ID).
				Count(&n).Error; err != nil {
				respondError(c, err)
				return
			}
			if n > 0 {
				util.Error(c, http.StatusConflict, util.CodeConflict, "username already taken")
				return
			}
			updates["username"] = name
		}

		if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			if err := util.ValidateEmail(email, allowedEmailDomain); err != nil {
				util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
				return
			}
			var n int64
			if err := db.WithContext(ctx).Model(&models.User{}).
				Where("email = ? AND id <> ?", email, user.ID).
				Count(&n).Error; err != nil {
				respondError(c, err)
				return
			}
			if n > 0 {
				util.Error(c, http.StatusConflict, util.CodeConflict, "email already taken")
				return
			}
			updates["email"] = email
		}

		if len(updates) == 0 {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "provide username or email")
			return
		}

		if err := db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				util.Error(c, http.StatusConflict, util.CodeConflict, "username or email already taken")
				return
			}
			respondError(c, err)
			return
		}

		if v, ok := updates["username"].(string); ok {
			user.Username = v
		}
		if v, ok := updates["email"].(string); ok {
			user.Email = v
		}
		util.Success(c, util.Response{
			"user": userView(user),
		})
	}
}

// ChangePassword replaces the current user's password.
func ChangePassword(db *gorm.DB, bcryptCost int) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req ChangePasswordReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "current_password and new_password are required")
			return
		}

		if !util.CheckPassword(req.CurrentPassword, user.PasswordHash) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "current password is wrong")
			return
		}
		if err := util.ValidatePassword(req.NewPassword); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}

		hash, err := util.HashPassword(req.NewPassword, bcryptCost)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := db.WithContext(c.Request.Context()).Model(user).Update("password_hash", hash).Error; err != nil {
			respondError(c, err)
			return
		}

		util.Success(c, util.Response{
			"message": "password updated, please log in again",
		})
	}
}
