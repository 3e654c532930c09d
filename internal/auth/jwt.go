package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenDuration is how long operator tokens minted by the console stay valid.
const DefaultTokenDuration = 12 * time.Hour

// Issuer is stamped on every console token and required on validation.
const Issuer = "opshub-console"

// Claims identify the operator behind a console request. UserID shadows
// the registered subject claim.
type Claims struct {
	UserID   string `json:"sub"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secretKey []byte
	duration  time.Duration
	parser    *jwt.Parser
}

func NewJWTService(secretKey string) *JWTService {
	return NewJWTServiceWithDuration(secretKey, DefaultTokenDuration)
}

// NewJWTServiceWithDuration is NewJWTService with a custom token lifetime.
func NewJWTServiceWithDuration(secretKey string, duration time.Duration) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		duration:  duration,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

func (j *JWTService) GenerateToken(userID, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.duration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
}

func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := j.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
