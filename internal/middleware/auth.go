package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"kart-checkout/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

type buyerKey struct{}

// WithBuyer returns a context carrying the authenticated buyer.
func WithBuyer(ctx context.Context, buyer model.Buyer) context.Context {
	return context.WithValue(ctx, buyerKey{}, buyer)
}

// BuyerFromContext returns the buyer set by BearerAuth.
func BuyerFromContext(ctx context.Context) (model.Buyer, bool) {
	buyer, ok := ctx.Value(buyerKey{}).(model.Buyer)
	return buyer, ok
}

// IssueToken signs an HS256 session token for buyer.
func IssueToken(secret string, buyer model.Buyer, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": buyer.ID,
		"email":   buyer.Email,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates an HS256 session token and extracts the buyer.
func ParseToken(secret, tokenString string) (model.Buyer, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return model.Buyer{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return model.Buyer{}, errors.New("invalid token claims")
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return model.Buyer{}, errors.New("token missing user_id")
	}
	email, _ := claims["email"].(string)

	return model.Buyer{ID: userID, Email: email}, nil
}

// BearerAuth authenticates buyers from an "Authorization: Bearer <jwt>" header.
func BearerAuth(secret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "Missing or malformed bearer token")
				return
			}

			buyer, err := ParseToken(secret, parts[1])
			if err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("rejected session token")
				writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "Invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithBuyer(r.Context(), buyer)))
		})
	}
}
