package server

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"inertus/internal/middleware"
	"inertus/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	tokenIssuer   = "inertus-api"
	tokenAudience = "inertus-client"
	tokenTTL      = 7 * 24 * time.Hour
	tokenCookie   = "inertus_token"

	wsTicketTTL = 30 * time.Second

	localUserID   = "userID"
	localUsername = "username"
	localClaims   = "claims"
)

var errTokenSecret = errors.New("JWT secret not configured")

// tokenClaims are the claims of a principal token.
type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}

func wsTicketKey(ticket string) string {
	return "ws_ticket:" + ticket
}

// generateToken signs a principal token for the user.
func (s *Server) generateToken(userID uint, username string) (string, time.Time, error) {
	if s.config.JWTSecret == "" {
		return "", time.Time{}, errTokenSecret
	}

	now := time.Now()
	expires := now.Add(tokenTTL)
	claims := tokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	return signed, expires, err
}

// parseToken validates signature, issuer, audience and time claims.
func (s *Server) parseToken(tokenString string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(s.config.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Server) isRevoked(ctx context.Context, jti string) bool {
	if s.redis == nil || jti == "" {
		return false
	}
	n, err := s.redis.Exists(ctx, blacklistKey(jti)).Result()
	return err == nil && n > 0
}

// revoke blacklists the token until it would have expired anyway.
func (s *Server) revoke(ctx context.Context, claims *tokenClaims) error {
	if s.redis == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, blacklistKey(claims.ID), "1", ttl).Err()
}

// issueWSTicket stores a short-lived single-use ticket for userID.
func (s *Server) issueWSTicket(ctx context.Context, userID uint) (string, error) {
	ticket := uuid.NewString()
	err := s.redis.Set(ctx, wsTicketKey(ticket), strconv.FormatUint(uint64(userID), 10), wsTicketTTL).Err()
	return ticket, err
}

// consumeWSTicket returns the ticket's user and deletes it.
func (s *Server) consumeWSTicket(ctx context.Context, ticket string) (uint, bool) {
	if s.redis == nil || ticket == "" {
		return 0, false
	}
	raw, err := s.redis.GetDel(ctx, wsTicketKey(ticket)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.LoggerFrom(ctx).Warn("ws ticket lookup failed", zap.Error(err))
		}
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func wantsHTML(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML)
}

// setPrincipal binds the user to the request as fiber locals and context values.
func setPrincipal(c *fiber.Ctx, userID uint, username string) {
	c.Locals(localUserID, userID)
	if username != "" {
		c.Locals(localUsername, username)
	}
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
	c.SetUserContext(ctx)
}

// AuthRequired resolves the principal from a websocket ticket, a bearer token or the
// session cookie, in that order.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		unauthorized := func(msg string) error {
			if wantsHTML(c) {
				return c.Redirect("/login", fiber.StatusFound)
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}

		if ticket := c.Query("ticket"); ticket != "" {
			if userID, ok := s.consumeWSTicket(c.UserContext(), ticket); ok {
				setPrincipal(c, userID, "")
				return c.Next()
			}
			if c.Path() == "/ws" {
				return unauthorized("Invalid or expired WebSocket ticket")
			}
		}

		tokenString := bearerToken(c)
		if tokenString == "" {
			tokenString = c.Cookies(tokenCookie)
		}
		if tokenString == "" {
			return unauthorized("Authorization required")
		}

		claims, err := s.parseToken(tokenString)
		if err != nil {
			return unauthorized("Invalid or expired token")
		}
		userID, err := strconv.ParseUint(claims.Subject, 10, 32)
		if err != nil || userID == 0 {
			return unauthorized("Invalid user ID in token")
		}
		if s.isRevoked(c.UserContext(), claims.ID) {
			return unauthorized("Token has been revoked")
		}

		c.Locals(localClaims, claims)
		setPrincipal(c, uint(userID), claims.Username)
		return c.Next()
	}
}
