// Package jwt verifies operator access tokens issued by the identity service.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/workledger/workledger-backend/pkg/config"
	"github.com/workledger/workledger-backend/pkg/errors"
	"github.com/workledger/workledger-backend/pkg/httputil"
)

// Claims represents the JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`

	TenantID    string   `json:"tenant_id"`
	TenantSlug  string   `json:"tenant_slug"`
	Permissions []string `json:"permissions,omitempty"`
}

// Manager handles JWT operations
type Manager struct {
	config *config.JWTConfig
}

// NewManager creates a new JWT manager
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg}
}

// Operator is the identity embedded in an access token
type Operator struct {
	ID          string
	Name        string
	Role        string
	TenantID    string
	TenantSlug  string
	Permissions []string
}

// GenerateAccessToken signs an access token for the operator.
// Tokens are normally minted by the identity service; the ledger service uses this
// for local tooling and tests.
func (m *Manager) GenerateAccessToken(op *Operator) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(m.config.AccessExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   op.ID,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID:      op.ID,
		Name:        op.Name,
		Role:        op.Role,
		TenantID:    op.TenantID,
		TenantSlug:  op.TenantSlug,
		Permissions: op.Permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// ValidateAccessToken validates an access token and returns the claims
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	}, jwt.WithIssuer(m.config.Issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.TokenInvalid()
	}

	return claims, nil
}

// Verify implements httputil.TokenVerifier
func (m *Manager) Verify(tokenString string) (*httputil.Principal, error) {
	claims, err := m.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	return &httputil.Principal{
		UserID:      claims.UserID,
		Name:        claims.Name,
		Role:        claims.Role,
		TenantID:    claims.TenantID,
		TenantSlug:  claims.TenantSlug,
		Permissions: claims.Permissions,
	}, nil
}
