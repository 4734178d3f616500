// Package token signs and verifies the HS256 access tokens handed out at login.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/fastygo/journal/domain"
)

const TypeAccess = "access"

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

// Claims is the payload of an editor access token.
type Claims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	EditorID   int64  `json:"editor_in_chief_id"`
	IsApproved bool   `json:"is_approved"`
	TokenType  string `json:"token_type"`
}

// AccountID decodes the subject claim.
func (c *Claims) AccountID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject %q", ErrInvalid, c.Subject)
	}
	return id, nil
}

type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret, issuer string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *Service) TTL() time.Duration { return s.ttl }

// Issue signs a token for an editor's account.
func (s *Service) Issue(account domain.Account, profile domain.EditorProfile) (domain.IssuedToken, error) {
	now := s.now().UTC().Truncate(time.Second)
	expires := now.Add(s.ttl)
	jti := uuid.NewString()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(account.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        jti,
		},
		Email:      account.Email,
		FirstName:  account.FirstName,
		LastName:   account.LastName,
		EditorID:   profile.ID,
		IsApproved: profile.IsApproved,
		TokenType:  TypeAccess,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return domain.IssuedToken{}, err
	}
	return domain.IssuedToken{
		Value:     signed,
		ID:        jti,
		IssuedAt:  now,
		ExpiresAt: expires,
	}, nil
}

// Parse verifies signature, algorithm, issuer and expiry.
func (s *Service) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalid
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalid
	}
	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return nil, fmt.Errorf("%w: issuer", ErrInvalid)
	}
	if claims.TokenType != TypeAccess || claims.ID == "" {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalid)
	}
	return claims, nil
}
