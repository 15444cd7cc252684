package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type JWTClaims struct {
	UserID    primitive.ObjectID `json:"user_id"`
	UserType  string             `json:"user_type"`
	Email     string             `json:"email"`
	TokenType string             `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// TokenIssuer signs and validates HS256 tokens with a shared secret.
type TokenIssuer struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{Secret: secret, AccessTTL: accessTTL, RefreshTTL: refreshTTL, now: time.Now}
}

func (t *TokenIssuer) GenerateTokenPair(userID primitive.ObjectID, userType, email string) (*TokenPair, error) {
	accessToken, err := t.sign(userID, userType, email, TokenTypeAccess, t.AccessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := t.sign(userID, userType, email, TokenTypeRefresh, t.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(t.AccessTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func (t *TokenIssuer) sign(userID primitive.ObjectID, userType, email, tokenType string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := &JWTClaims{
		UserID:    userID,
		UserType:  userType,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    AppName,
			Subject:   userID.Hex(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.Secret))
}

// ValidateAccessToken parses an access token. Refresh tokens are rejected.
func (t *TokenIssuer) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	return t.validate(tokenString, TokenTypeAccess)
}

func (t *TokenIssuer) ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	return t.validate(tokenString, TokenTypeRefresh)
}

func (t *TokenIssuer) validate(tokenString, tokenType string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(t.Secret), nil
	}, jwt.WithTimeFunc(t.now))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New(ErrInvalidToken)
	}
	if claims.TokenType != tokenType {
		return nil, errors.New("unexpected token type")
	}
	return claims, nil
}
