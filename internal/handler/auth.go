package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/models"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	DB       *gorm.DB
	JWT      config.JWTConfig
	Security config.SecurityConfig
	Log      *log.Logger
	now      func() time.Time
}

func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig, sec config.SecurityConfig, logger *log.Logger) *AuthHandler {
	if jwtCfg.ExpireHours <= 0 {
		jwtCfg.ExpireHours = 24
	}
	if sec.MaxFailedLogins <= 0 {
		sec.MaxFailedLogins = 5
	}
	if sec.LockMinutes <= 0 {
		sec.LockMinutes = 10
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &AuthHandler{
		DB:       db,
		JWT:      jwtCfg,
		Security: sec,
		Log:      logger.WithComponent(log.ComponentAuth),
		now:      time.Now,
	}
}

type registerReq struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account. No token is issued; the client logs in afterwards.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "username, email and password are required")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := util.ValidateUsername(req.Username); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := util.ValidateEmail(req.Email, h.Security.AllowedEmailDomain); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := util.ValidatePassword(req.Password); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	ctx := c.Request.Context()
	var count int64
	if err := h.DB.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = LOWER(?) OR email = ?", req.Username, req.Email).
		Count(&count).Error; err != nil {
		respondError(c, err)
		return
	}
	if count > 0 {
		util.Error(c, http.StatusConflict, util.CodeConflict, "email or username already registered")
		return
	}

	hash, err := util.HashPassword(req.Password, h.Security.BcryptCost)
	if err != nil {
		respondError(c, err)
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.Error(c, http.StatusConflict, util.CodeConflict, "email or username already registered")
			return
		}
		respondError(c, err)
		return
	}

	h.Log.InfoContext(ctx, "user registered", log.FieldUserID, user.ID)
	util.Created(c, util.Response{
		"message": "registration successful, please log in",
		"user":    userView(&user),
	})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and returns a bearer token. Repeated failures lock the account.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "email and password are required")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx := c.Request.Context()
	var user models.User
	if err := h.DB.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid email or password")
		} else {
			respondError(c, err)
		}
		return
	}

	now := h.now().UTC()

	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "account locked, try again later")
		return
	}

	if !util.CheckPassword(req.Password, user.PasswordHash) {
		updates := map[string]any{"failed_login_attempts": user.FailedLoginAttempts + 1}
		if user.FailedLoginAttempts+1 >= h.Security.MaxFailedLogins {
			lockUntil := now.Add(time.Duration(h.Security.LockMinutes) * time.Minute)
			updates["locked_until"] = lockUntil
			updates["failed_login_attempts"] = 0
			h.Log.WarnContext(ctx, "account locked", log.FieldUserID, user.ID, log.FieldClientIP, c.ClientIP())
		}
		if err := h.DB.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			_ = c.Error(err)
		}
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid email or password")
		return
	}

	if err := h.DB.WithContext(ctx).Model(&user).Updates(map[string]any{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
		"last_login_ip":         c.ClientIP(),
	}).Error; err != nil {
		respondError(c, err)
		return
	}

	ttl := time.Duration(h.JWT.ExpireHours) * time.Hour
	token, err := util.GenerateToken(h.JWT.Secret, h.JWT.Issuer, user.ID, user.Username, ttl)
	if err != nil {
		respondError(c, err)
		return
	}

	util.Success(c, util.Response{
		"token":      token,
		"expires_in": int(ttl.Seconds()),
		"user":       userView(&user),
	})
}
