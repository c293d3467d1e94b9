package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/engforum/engforum/config"
	"github.com/engforum/engforum/middleware"
	"github.com/engforum/engforum/models"
	"github.com/engforum/engforum/services"
	"github.com/engforum/engforum/utils"
)

const recentThreadsOnProfile = 5

// AuthController handles registration, sessions and public profiles.
type AuthController struct {
	users        *services.UserService
	forum        *services.ForumService
	sessionTTL   time.Duration
	cookieSecure bool
	isAdminName  func(string) bool
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(users *services.UserService, forum *services.ForumService, cfg config.AppConfig) *AuthController {
	ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &AuthController{
		users:        users,
		forum:        forum,
		sessionTTL:   ttl,
		cookieSecure: cfg.CookieSecure,
		isAdminName:  cfg.IsAdminUsername,
	}
}

// validUsername allows letters, digits and '-', '_', '.'.
func validUsername(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			continue
		}
		return false
	}
	return s != ""
}

func (a *AuthController) startSession(ctx *gin.Context, user *models.User) (string, bool) {
	token, err := utils.GenerateToken(user.ID, user.Username, a.sessionTTL)
	if err != nil {
		internalError(ctx, 50004, "failed to generate token", err)
		return "", false
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookie, token, int(a.sessionTTL.Seconds()), "/", "", a.cookieSecure, true)
	return token, true
}

// Register creates an account and signs it in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username        string `json:"username" binding:"required,min=3,max=50"`
		Email           string `json:"email" binding:"omitempty,email,max=255"`
		Password        string `json:"password" binding:"required,min=6,max=100"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	if len(username) < 3 || !validUsername(username) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username may only contain letters, digits, '-', '_' and '.'")
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		utils.Error(ctx, http.StatusBadRequest, 40002, "passwords do not match")
		return
	}

	user, err := a.users.Register(ctx.Request.Context(), username, strings.TrimSpace(req.Email), req.Password)
	if errors.Is(err, services.ErrAlreadyExists) {
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
		return
	}
	if err != nil {
		internalError(ctx, 50002, "failed to create user", err)
		return
	}
	invalidateStats()

	// configured administrators registering after boot are promoted right away
	if a.isAdminName(user.Username) {
		if _, err := a.users.SetAdmin(ctx.Request.Context(), user.Username, true); err != nil {
			internalError(ctx, 50005, "failed to grant administrator rights", err)
			return
		}
		user.IsAdmin = true
	}

	token, ok := a.startSession(ctx, user)
	if !ok {
		return
	}
	utils.Created(ctx, gin.H{"token": token, "user": user})
}

// Login verifies user credentials and issues a session.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.users.Validate(ctx.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		internalError(ctx, 50003, "failed to validate credentials", err)
		return
	}
	if user == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid username or password")
		return
	}

	token, ok := a.startSession(ctx, user)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout revokes the current token until its natural expiration and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := middleware.CurrentToken(ctx)
	expiresAt := time.Now().Add(a.sessionTTL)
	if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookie, "", -1, "/", "", a.cookieSecure, true)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := caller(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, user)
}

// Profile returns public information about a user and their latest threads.
func (a *AuthController) Profile(ctx *gin.Context) {
	uname := strings.TrimSpace(ctx.Param("username"))
	user, err := a.users.GetByUsername(ctx.Request.Context(), uname)
	if err != nil {
		internalError(ctx, 50050, "failed to get user", err)
		return
	}
	if user == nil {
		utils.Error(ctx, http.StatusNotFound, 40411, "user not found")
		return
	}

	threads, replies, err := a.forum.CountByAuthor(ctx.Request.Context(), user.Username)
	if err != nil {
		internalError(ctx, 50051, "failed to count user activity", err)
		return
	}
	recent, err := a.forum.RecentThreadsByAuthor(ctx.Request.Context(), user.Username, recentThreadsOnProfile)
	if err != nil {
		internalError(ctx, 50052, "failed to list user threads", err)
		return
	}

	utils.Success(ctx, gin.H{
		"user": gin.H{
			"username":   user.Username,
			"is_admin":   user.IsAdmin,
			"created_at": user.CreatedAt,
		},
		"thread_count":   threads,
		"reply_count":    replies,
		"recent_threads": recent,
	})
}
