package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/01moynul/zemmon-store/internal/apperr"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the authenticated caller. It is passed explicitly into every
// cart and order operation.
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (p Principal) Authenticated() bool {
	return strings.TrimSpace(p.ID) != ""
}

func (p Principal) IsAdmin() bool {
	return p.Authenticated() && p.Role == RoleAdmin
}

// Claims carries the principal inside the token. "sub" is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// GenerateToken creates a token for p that expires after ttl.
// Production tokens are issued by the identity service; this is used by
// tests and the dev token command.
func (m *TokenManager) GenerateToken(p Principal, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses tokenString and returns the principal it carries.
func (m *TokenManager) ValidateToken(tokenString string) (Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, apperr.ErrTokenExpired.Wrap(err)
		}
		return Principal{}, apperr.ErrInvalidToken.Wrap(err)
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return Principal{}, apperr.ErrInvalidToken.With("Invalid token payload")
	}

	role := claims.Role
	if role == "" {
		role = RoleUser
	}
	return Principal{ID: claims.Subject, Role: role}, nil
}
