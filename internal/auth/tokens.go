package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 access tokens. JTIs live in
// Redis so tokens can be revoked before expiry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
}

func NewTokenService(secret string, ttl time.Duration, rdb *redis.Client) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, rdb: rdb}
}

func (s *TokenService) IssueToken(ctx context.Context, userID, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)
	jti := uuid.NewString()

	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "ai-sales-brain",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	if err := s.rdb.Set(ctx, "access:"+jti, userID, s.ttl).Err(); err != nil {
		return "", time.Time{}, err
	}

	return signed, exp, nil
}

func (s *TokenService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Prevent algorithm confusion attacks
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	exists, err := s.rdb.Exists(ctx, "access:"+claims.ID).Result()
	if err != nil || exists != 1 {
		return nil, errors.New("token revoked or expired")
	}

	return claims, nil
}

func (s *TokenService) RevokeToken(ctx context.Context, jti string) error {
	return s.rdb.Del(ctx, "access:"+jti).Err()
}
