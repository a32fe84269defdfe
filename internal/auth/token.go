package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/models"
)

var (
	ErrExpired = errors.New("auth: token expired")
	ErrInvalid = errors.New("auth: invalid token")
)

// Claims carried by an access token. The user id is written under
// "user_id"; "id" is read as a fallback for tokens minted by older
// builds.
type Claims struct {
	jwt.RegisteredClaims

	UserID           string   `json:"user_id,omitempty"`
	LegacyID         string   `json:"id,omitempty"`
	Email            string   `json:"email,omitempty"`
	Name             string   `json:"name,omitempty"`
	Watchlist        []string `json:"watchlist,omitempty"`
	PreferredSectors []string `json:"preferred_sectors,omitempty"`
}

// Identity is the per-request identity decoded from a verified token. It
// lives for a single request and is never written back to storage.
type Identity struct {
	ID               string
	Email            string
	Name             string
	Watchlist        []string
	PreferredSectors []string
}

// TokenService issues and verifies access tokens signed with a shared
// HMAC secret.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewTokenService fails only on misconfiguration: an empty secret or an
// algorithm that is unknown or not HMAC-based.
func NewTokenService(secret, algorithm string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret is not configured")
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("auth: unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: algorithm %q is not usable with a shared secret", algorithm)
	}
	return &TokenService{secret: []byte(secret), method: method, ttl: ttl}, nil
}

// TTL returns the lifetime applied to issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue builds a signed token embedding the user's identity and a
// snapshot of their watchlist and preferred sectors.
func (s *TokenService) Issue(u *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
		UserID:           u.ID.Hex(),
		Email:            u.Email,
		Name:             u.Name,
		Watchlist:        u.Watchlist,
		PreferredSectors: u.PreferredSectors,
	}
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

// Verify checks signature and expiry and returns the decoded identity.
// Expired tokens return ErrExpired, anything else wrong with the token
// returns ErrInvalid; other errors are returned as-is.
func (s *TokenService) Verify(token string) (*Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.method.Alg()}))
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	default:
		return nil, err
	}

	id := claims.UserID
	if id == "" {
		id = claims.LegacyID
	}
	ident := &Identity{
		ID:               id,
		Email:            claims.Email,
		Name:             claims.Name,
		Watchlist:        claims.Watchlist,
		PreferredSectors: claims.PreferredSectors,
	}
	if ident.Watchlist == nil {
		ident.Watchlist = []string{}
	}
	if ident.PreferredSectors == nil {
		ident.PreferredSectors = []string{}
	}
	return ident, nil
}
