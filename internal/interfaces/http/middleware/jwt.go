package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/auth"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/infrastructure/logger"
	"github.com/RACCHUS/BookkeepingApp-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Auth context keys and headers
const (
	JWTClaimsKey  = "jwt_claims"
	UserIDKey     = "user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	// DevUserHeader names the owner directly when header identity is allowed
	DevUserHeader = "X-User-ID"
)

// AuthConfig holds configuration for the authentication middleware
type AuthConfig struct {
	// JWTService validates bearer tokens. Required.
	JWTService *auth.JWTService
	// AllowUserHeader accepts X-User-ID when no bearer token is sent. Never enable in production.
	AllowUserHeader bool
	// SkipPaths don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// Auth resolves the owning user of the request from a bearer token.
// The user id is stored in the gin context and in the request context for logging.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		userID, claims, err := authenticate(c, cfg)
		if err != nil {
			logger.For(c.Request.Context(), log).Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			abortUnauthorized(c, err)
			return
		}

		if claims != nil {
			c.Set(JWTClaimsKey, claims)
		}
		c.Set(UserIDKey, userID)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), userID.String()))
		c.Next()
	}
}

func authenticate(c *gin.Context, cfg AuthConfig) (uuid.UUID, *auth.Claims, error) {
	header := c.GetHeader(AuthHeaderKey)
	if header == "" {
		if cfg.AllowUserHeader {
			if raw := c.GetHeader(DevUserHeader); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					return uuid.Nil, nil, auth.ErrInvalidClaims
				}
				return id, nil, nil
			}
		}
		return uuid.Nil, nil, errMissingCredentials
	}

	token, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok || token == "" || cfg.JWTService == nil {
		return uuid.Nil, nil, auth.ErrInvalidToken
	}
	claims, err := cfg.JWTService.ValidateAccessToken(token)
	if err != nil {
		return uuid.Nil, nil, err
	}
	id, err := claims.GetUserUUID()
	if err != nil {
		return uuid.Nil, nil, auth.ErrInvalidClaims
	}
	return id, claims, nil
}

var errMissingCredentials = errors.New("missing authorization header")

func abortUnauthorized(c *gin.Context, err error) {
	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		message = "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrMissingUserID):
		message = "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(code, message, c.GetString(logger.RequestIDContextKey)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, ok := c.Get(JWTClaimsKey); ok {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetUserID returns the authenticated owner, or false when the request is anonymous
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return id, true
		}
	}
	return uuid.Nil, false
}
