package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Yuqi1124/TownRecord/internal/dependencies/clock"
)

// Issuer provides video-call credentials for players joining a town
type Issuer interface {
	IssueToken(ctx context.Context, townID, playerID string) (string, error)
}

// ErrInvalidToken is returned when a token fails verification
var ErrInvalidToken = errors.New("invalid video token")

// Config holds configuration for the JWT issuer
type Config struct {
	// SigningKey is the HMAC secret shared with the video provider
	SigningKey []byte
	// Issuer identifies this server in the token
	Issuer string
	// TTL is how long an issued credential stays valid
	TTL time.Duration
}

// DefaultConfig returns default issuer configuration.
// SigningKey must still be provided.
func DefaultConfig() Config {
	return Config{
		Issuer: "town-server",
		TTL:    time.Hour,
	}
}

// Claims are the contents of a video access token
type Claims struct {
	TownID   string `json:"town"`
	Identity string `json:"identity"`
	jwt.RegisteredClaims
}

// JWTIssuer issues HS256-signed access tokens scoped to a (town, player) pair
type JWTIssuer struct {
	cfg   Config
	clock clock.Clock
}

var _ Issuer = (*JWTIssuer)(nil)

// NewJWTIssuer creates a new JWTIssuer
func NewJWTIssuer(cfg Config, clk clock.Clock) (*JWTIssuer, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("video signing key is required")
	}
	defaults := DefaultConfig()
	if cfg.Issuer == "" {
		cfg.Issuer = defaults.Issuer
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	return &JWTIssuer{cfg: cfg, clock: clk}, nil
}

// IssueToken signs a credential for the player in the given town
func (i *JWTIssuer) IssueToken(ctx context.Context, townID, playerID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if townID == "" || playerID == "" {
		return "", errors.New("town and player are required")
	}

	now := i.clock.Now()
	claims := &Claims{
		TownID:   townID,
		Identity: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign video token: %w", err)
	}
	return signed, nil
}

// Verify parses a token issued by this issuer and returns its claims
func (i *JWTIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return i.cfg.SigningKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
