package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Token purposes. A token only verifies for the purpose it was issued with.
const (
	PurposeSignup   = "signup"
	PurposeRecovery = "recovery"
)

const (
	tokenIssuer     = "nexar"
	usedTokenPrefix = "auth_token_used:"
	defaultTokenTTL = time.Hour
)

var (
	errTokenInvalid = errors.New("token invalid")
	// ErrNoTokenSecret is returned by Issue when the issuer has no signing key.
	ErrNoTokenSecret = errors.New("token secret is not configured")
)

// TokenClaims are carried by signup-confirmation and password-recovery links.
type TokenClaims struct {
	Purpose string `json:"purpose"`
	UserID  string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 link tokens and enforces single use through Redis.
type TokenIssuer struct {
	Secret []byte
	TTL    time.Duration
	Rdb    *redis.Client
	Now    func() time.Time
}

func (t *TokenIssuer) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *TokenIssuer) ttl() time.Duration {
	if t.TTL > 0 {
		return t.TTL
	}
	return defaultTokenTTL
}

// Issue signs a token for userID.
func (t *TokenIssuer) Issue(userID uuid.UUID, purpose string) (string, error) {
	if len(t.Secret) == 0 {
		return "", ErrNoTokenSecret
	}
	now := t.now()
	claims := &TokenClaims{
		Purpose: purpose,
		UserID:  userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl())),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return signed, nil
}

// Parse verifies signature, expiry, issuer and purpose. It does not consume the token.
func (t *TokenIssuer) Parse(tokenStr, purpose string) (*TokenClaims, error) {
	if tokenStr == "" || len(t.Secret) == 0 {
		return nil, errTokenInvalid
	}
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return nil, errTokenInvalid
	}
	if claims.Purpose != purpose || claims.ID == "" {
		return nil, errTokenInvalid
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, errTokenInvalid
	}
	return claims, nil
}

// Used reports whether the token was already consumed.
func (t *TokenIssuer) Used(ctx context.Context, claims *TokenClaims) (bool, error) {
	n, err := t.Rdb.Exists(ctx, usedTokenPrefix+claims.ID).Result()
	if err != nil {
		return false, fmt.Errorf("check token use: %w", err)
	}
	return n > 0, nil
}

// Consume marks the token as used until it expires. Only the first caller succeeds.
func (t *TokenIssuer) Consume(ctx context.Context, claims *TokenClaims) error {
	ttl := claims.ExpiresAt.Time.Sub(t.now())
	if ttl <= 0 {
		return errTokenInvalid
	}
	ok, err := t.Rdb.SetNX(ctx, usedTokenPrefix+claims.ID, claims.UserID, ttl).Result()
	if err != nil {
		return fmt.Errorf("consume token: %w", err)
	}
	if !ok {
		return errTokenInvalid
	}
	return nil
}
