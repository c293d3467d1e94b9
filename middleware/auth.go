package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/engforum/engforum/models"
	"github.com/engforum/engforum/utils"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "forum_session"
	// ContextUserKey stores the caller's freshly loaded *models.User inside Gin context.
	ContextUserKey = "user"
	// ContextTokenKey stores the raw session token.
	ContextTokenKey = "session_token"
)

// UserLookup resolves the user behind a session.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// sessionToken reads the token from the session cookie, then from a Bearer header.
func sessionToken(ctx *gin.Context) string {
	if c, err := ctx.Cookie(SessionCookie); err == nil && strings.TrimSpace(c) != "" {
		return strings.TrimSpace(c)
	}
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

type authFailure struct {
	status  int
	code    int
	message string
}

var (
	errNoSession      = &authFailure{http.StatusUnauthorized, 40101, "authentication required"}
	errRevoked        = &authFailure{http.StatusUnauthorized, 40104, "token revoked"}
	errInvalidToken   = &authFailure{http.StatusUnauthorized, 40105, "invalid token"}
	errUnknownAccount = &authFailure{http.StatusUnauthorized, 40106, "account no longer exists"}
	errLookupFailed   = &authFailure{http.StatusInternalServerError, 50001, "failed to load session"}
)

// resolve turns the request's session into a user. The record is read on
// every request so an admin demotion takes effect immediately.
func resolve(ctx *gin.Context, users UserLookup) (*models.User, string, *authFailure) {
	token := sessionToken(ctx)
	if token == "" {
		return nil, "", errNoSession
	}
	if utils.IsTokenBlacklisted(token) {
		return nil, "", errRevoked
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		return nil, "", errInvalidToken
	}
	user, err := users.GetByID(ctx.Request.Context(), claims.UserID)
	if err != nil {
		utils.Logger.Error("session lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, "", errLookupFailed
	}
	if user == nil {
		return nil, "", errUnknownAccount
	}
	return user, token, nil
}

// AuthRequired rejects requests without a valid session.
func AuthRequired(users UserLookup) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, token, failure := resolve(ctx, users)
		if failure != nil {
			utils.AbortError(ctx, failure.status, failure.code, failure.message)
			return
		}
		ctx.Set(ContextUserKey, user)
		ctx.Set(ContextTokenKey, token)
		ctx.Next()
	}
}

// OptionalAuth attaches the caller when a valid session is present and
// otherwise lets the request through anonymously.
func OptionalAuth(users UserLookup) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if user, token, failure := resolve(ctx, users); failure == nil {
			ctx.Set(ContextUserKey, user)
			ctx.Set(ContextTokenKey, token)
		}
		ctx.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user := CurrentUser(ctx)
		if user == nil {
			utils.AbortError(ctx, http.StatusUnauthorized, 40101, "authentication required")
			return
		}
		if !user.IsAdmin {
			utils.AbortError(ctx, http.StatusForbidden, 40301, "administrator access required")
			return
		}
		ctx.Next()
	}
}

// CurrentUser returns the authenticated caller, or nil.
func CurrentUser(ctx *gin.Context) *models.User {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// CurrentToken returns the session token the caller authenticated with.
func CurrentToken(ctx *gin.Context) string {
	return ctx.GetString(ContextTokenKey)
}
