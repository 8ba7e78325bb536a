package jwt

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenTTL = 5 * time.Minute
)

var ErrWrongTokenType = errors.New("token has the wrong type")

// Service signs and checks HS256 tokens. Access tokens authenticate REST
// calls; SSE tokens are short-lived and travel in the query string because
// EventSource cannot send headers.
type Service interface {
	GenerateAccessToken(userID string) (token string, expiresAt int64, err error)
	GenerateSSEToken(userID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (userID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenTTL time.Duration
	tokenAuth      *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenTTL time.Duration) Service {
	return &JWTService{
		accessTokenTTL: accessTokenTTL,
		tokenAuth:      jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(userID string) (string, int64, error) {
	return j.sign(userID, TokenTypeAccess, j.accessTokenTTL)
}

func (j *JWTService) GenerateSSEToken(userID string) (string, int, error) {
	token, _, err := j.sign(userID, TokenTypeSSE, sseTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return token, int(sseTokenTTL.Seconds()), nil
}

// ValidateSSEToken checks signature, expiry and type, and returns the user id.
func (j *JWTService) ValidateSSEToken(tokenString string) (string, error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return "", err
	}

	if tokenType, _ := token.Get("type"); tokenType != TokenTypeSSE {
		return "", ErrWrongTokenType
	}
	userID, _ := token.Get("user_id")
	id, ok := userID.(string)
	if !ok || id == "" {
		return "", jwt.ErrInvalidJWT()
	}
	return id, nil
}

func (j *JWTService) sign(userID, tokenType string, ttl time.Duration) (string, int64, error) {
	if ttl <= 0 {
		return "", 0, errors.New("token lifetime must be positive")
	}
	now := time.Now()
	expiresAt := now.Add(ttl).Unix()

	claims := map[string]interface{}{
		"user_id": userID,
		"type":    tokenType,
		"iat":     now.Unix(),
		"exp":     expiresAt,
	}
	_, tokenString, err := j.tokenAuth.Encode(claims)
	if err != nil {
		return "", 0, err
	}
	return tokenString, expiresAt, nil
}
