package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"homerent/internal/logger"
	"homerent/internal/models"

	"github.com/casbin/casbin"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// RoleAnonymous - субъект casbin для запросов без Authorization
const RoleAnonymous = "ANONYMOUS"

var errInvalidCredentials = errors.New("invalid credentials")

// UserLookup is satisfied by repository.UserRepository
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// IdentityCache is satisfied by cache.ValkeyClient
type IdentityCache interface {
	GetIdentity(ctx context.Context, email, passwordHash string) (models.Identity, error)
	PutIdentity(ctx context.Context, email, passwordHash string, id models.Identity) error
}

type AuthConfig struct {
	Users     UserLookup
	Cache     IdentityCache // nil disables caching
	JWTSecret []byte        // empty disables bearer tokens
}

// Claims of a bearer token issued for a user
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func parseToken(secret []byte, raw string) (models.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return models.Identity{}, err
	}

	userID := claims.UserID
	if userID == 0 && claims.Subject != "" {
		if userID, err = strconv.ParseInt(claims.Subject, 10, 64); err != nil {
			return models.Identity{}, fmt.Errorf("invalid subject: %w", err)
		}
	}
	if userID <= 0 {
		return models.Identity{}, errors.New("token carries no user id")
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{UserID: userID, Role: role}, nil
}

func hashPassword(password string) string {
	hash := sha256.Sum256([]byte(password))
	return fmt.Sprintf("%x", hash)
}

func (cfg AuthConfig) basic(ctx context.Context, email, password string) (models.Identity, error) {
	passwordHash := hashPassword(password)

	// Сначала пытаемся найти пользователя в кеше Valkey
	if cfg.Cache != nil {
		if id, err := cfg.Cache.GetIdentity(ctx, email, passwordHash); err == nil {
			return id, nil
		}
	}

	// Fallback: поиск в базе данных
	user, err := cfg.Users.GetByEmail(ctx, email)
	if err != nil {
		return models.Identity{}, err
	}
	if user == nil || !user.IsActive || user.PasswordHash == "" {
		return models.Identity{}, errInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(passwordHash), []byte(user.PasswordHash)) != 1 {
		return models.Identity{}, errInvalidCredentials
	}

	id := models.Identity{UserID: user.ID, Role: user.Role}
	if cfg.Cache != nil {
		if err := cfg.Cache.PutIdentity(ctx, email, passwordHash, id); err != nil {
			logger.WithContext(ctx).Warn("Failed to cache credentials", "error", err)
		}
	}
	return id, nil
}

// Authenticate распознаёт Bearer JWT или HTTP Basic. Запрос без Authorization проходит
// анонимно, решение о доступе принимает Authorize.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		var (
			id  models.Identity
			err error
		)
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if len(cfg.JWTSecret) == 0 {
				err = errors.New("bearer tokens are disabled")
			} else {
				id, err = parseToken(cfg.JWTSecret, strings.TrimSpace(token))
			}
		} else if email, password, ok := c.Request.BasicAuth(); ok {
			id, err = cfg.basic(ctx, email, password)
		} else {
			err = errors.New("unsupported authorization scheme")
		}

		if err != nil {
			logger.WithContext(ctx).Info("Authentication failed", "error", err)
			c.Header("WWW-Authenticate", "Basic realm=\"Restricted\"")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		ctx = ContextWithIdentity(ctx, id)
		ctx = logger.ContextWithUserID(ctx, id.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", id.UserID)
		c.Next()
	}
}

// Authorize проверяет роль вызывающего по политике casbin: шаблон роута gin + метод.
// Шаблон, а не путь: /api/bookings/search не должен совпадать с /api/bookings/:id.
func Authorize(enforcer *casbin.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := RoleAnonymous
		id, authenticated := IdentityFromContext(c.Request.Context())
		if authenticated {
			role = string(id.Role)
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		allowed, err := enforcer.EnforceSafe(role, route, c.Request.Method)
		if err != nil {
			logger.WithContext(c.Request.Context()).Error("Authorization check failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if !allowed {
			if !authenticated {
				c.Header("WWW-Authenticate", "Basic realm=\"Restricted\"")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}
