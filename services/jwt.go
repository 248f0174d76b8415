package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/driftgate-labs/sortie_api/dto"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	appContext "github.com/alphabatem/common/context"
)

type JWTService struct {
	appContext.DefaultService

	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	jwtSecretKey         string
	redisSvc             *RedisService
}

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

const JWT_SVC = "jwt_svc"

func (svc JWTService) Id() string {
	return JWT_SVC
}

func (svc *JWTService) Configure(ctx *appContext.Context) error {
	svc.redisSvc = ctx.Service(REDIS_SVC).(*RedisService)

	svc.AccessTokenDuration = time.Duration(24 * time.Hour) // 24 hours
	svc.RefreshTokenDuration = time.Duration(7 * 24 * time.Hour)
	svc.jwtSecretKey = os.Getenv("JWT_OAUTH_SECRET")
	return svc.DefaultService.Configure(ctx)
}

func (svc *JWTService) Start() error {
	return nil
}

func (svc *JWTService) VerifyJWTToken(jwtToken string) (string, error) {
	token, err := jwt.ParseWithClaims(jwtToken, &CustomClaims{}, svc.getJWTKey)
	if err == nil && token.Valid {
		claims, ok := token.Claims.(*CustomClaims)
		if ok && claims != nil {
			// Validate expiration
			expTime, err := claims.GetExpirationTime()
			if err != nil {
				return "", fmt.Errorf("failed to get expiration time: %v", err)
			}
			now := jwt.NewNumericDate(time.Now())
			if expTime.Unix() < now.Unix() {
				return "", errors.New("token has expired")
			}

			revoked, err := svc.redisSvc.Exists(context.Background(), svc.blacklistKey(jwtToken))
			if err == nil && revoked {
				return "", errors.New("token has been revoked")
			}

			return claims.UserID, nil
		}
	}

	return "", errors.New("unsupported JWT format")
}

func (svc *JWTService) getJWTKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	return []byte(svc.jwtSecretKey), nil
}

func (svc *JWTService) GenerateTokenPair(userId string) (*dto.TokenPair, error) {
	accessToken, err := svc.ToJWT(userId)
	if err != nil {
		return nil, err
	}

	refreshToken, err := svc.NewRefreshToken(userId)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(svc.AccessTokenDuration.Seconds()),
	}, nil
}

func (svc *JWTService) ToJWT(userID string) (string, error) {
	expirationTime := svc.AccessTokenDuration
	expTime := time.Now().Add(expirationTime)

	claims := &CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "sortie_api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(svc.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}

	return tokenString, nil
}

// NewRefreshToken mints an opaque refresh token and stores it in Redis for
// the refresh window. Tokens are single use, ConsumeRefreshToken deletes them.
func (svc *JWTService) NewRefreshToken(userID string) (string, error) {
	token := uuid.NewString()

	err := svc.redisSvc.Set(context.Background(), svc.refreshKey(token), userID, svc.RefreshTokenDuration)
	if err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return token, nil
}

func (svc *JWTService) ConsumeRefreshToken(token string) (string, error) {
	ctx := context.Background()

	userID, err := svc.redisSvc.Get(ctx, svc.refreshKey(token))
	if err != nil {
		return "", fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if userID == "" {
		return "", errors.New("invalid or expired refresh token")
	}

	if err := svc.redisSvc.Delete(ctx, svc.refreshKey(token)); err != nil {
		return "", fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return userID, nil
}

func (svc *JWTService) RevokeRefreshToken(token string) error {
	return svc.redisSvc.Delete(context.Background(), svc.refreshKey(token))
}

// InvalidateToken blacklists an access token for its remaining lifetime.
func (svc *JWTService) InvalidateToken(jwtToken string) error {
	token, err := jwt.ParseWithClaims(jwtToken, &CustomClaims{}, svc.getJWTKey)
	if err != nil || !token.Valid {
		return errors.New("unsupported JWT format")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || claims == nil {
		return errors.New("unsupported JWT format")
	}

	expTime, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("failed to get expiration time: %v", err)
	}

	remaining := time.Until(expTime.Time)
	if remaining <= 0 {
		return nil
	}

	return svc.redisSvc.Set(context.Background(), svc.blacklistKey(jwtToken), "1", remaining)
}

func (svc *JWTService) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	// Check if the header starts with "Bearer "
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", errors.New("invalid authorization header format")
	}

	// Extract the token
	return authHeader[7:], nil
}

func (svc *JWTService) refreshKey(token string) string {
	return fmt.Sprintf("auth:refresh:%s", token)
}

func (svc *JWTService) blacklistKey(token string) string {
	return fmt.Sprintf("auth:blacklist:%s", token)
}
