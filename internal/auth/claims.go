package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default session lengths in minutes.
const (
	defaultAccessTTL  = 60
	defaultPremiumTTL = 24 * 60
)

// Claims is the payload of an EcoRent access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

// TokenIssuer signs and verifies HS256 access tokens. The token lifetime is
// chosen per user tier.
type TokenIssuer struct {
	secret []byte
	ttl    map[UserType]time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. Non-positive TTLs fall back to the
// defaults (60 minutes, 24 hours for premium and admin accounts).
func NewTokenIssuer(secret string, accessTTLMinutes, premiumTTLMinutes int) *TokenIssuer {
	if accessTTLMinutes <= 0 {
		accessTTLMinutes = defaultAccessTTL
	}
	if premiumTTLMinutes <= 0 {
		premiumTTLMinutes = defaultPremiumTTL
	}
	access := time.Duration(accessTTLMinutes) * time.Minute
	premium := time.Duration(premiumTTLMinutes) * time.Minute

	return &TokenIssuer{
		secret: []byte(secret),
		ttl: map[UserType]time.Duration{
			UserTypeRegular: access,
			UserTypePremium: premium,
			UserTypeAdmin:   premium,
		},
		now: time.Now,
	}
}

// TTL returns the token lifetime for a tier.
func (ti *TokenIssuer) TTL(t UserType) time.Duration {
	if d, ok := ti.ttl[t]; ok {
		return d
	}
	return ti.ttl[UserTypeRegular]
}

// Issue creates a signed access token for user.
func (ti *TokenIssuer) Issue(user *User) (string, error) {
	now := ti.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.TTL(user.UserType))),
			ID:        uuid.NewString(),
		},
		UserID:  user.ID,
		Name:    user.Name,
		Surname: user.Surname,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// Parse validates a token's signature and expiry and returns its claims.
// Every failure wraps ErrTokenInvalid.
func (ti *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrTokenInvalid)
	}

	return claims, nil
}
