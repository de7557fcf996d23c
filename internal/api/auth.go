package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTokenTTL = 30 * 24 * time.Hour
	tokenIssuer     = "tukicale"
)

var (
	errMissingBearer = errors.New("missing bearer token")
	errInvalidToken  = errors.New("invalid token")
)

type apiClaims struct {
	jwt.RegisteredClaims
}

// IssueToken signs a bearer token for the API. The instance has a single
// owner, so the subject is only a label.
func IssueToken(secretKey string, subject string, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(secretKey) == "" {
		return "", errors.New("secret key is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if strings.TrimSpace(subject) == "" {
		subject = "owner"
	}

	claims := apiClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	claims, err := handler.authenticateRequest(c)
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	c.Locals(contextSubjectKey, claims.Subject)
	return c.Next()
}

func (handler *Handler) authenticateRequest(c *fiber.Ctx) (*apiClaims, error) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	scheme, tokenValue, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tokenValue) == "" {
		return nil, errMissingBearer
	}

	claims := &apiClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenValue), claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return handler.secretKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(handler.now))
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if claims.ExpiresAt == nil {
		return nil, errInvalidToken
	}
	return claims, nil
}

// FeedAuthRequired also accepts the token as ?token=, since calendar clients
// cannot send headers when subscribing to a feed.
func (handler *Handler) FeedAuthRequired(c *fiber.Ctx) error {
	if strings.TrimSpace(c.Get(fiber.HeaderAuthorization)) == "" {
		if token := strings.TrimSpace(c.Query("token")); token != "" {
			c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		}
	}
	return handler.AuthRequired(c)
}
