package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// IngestScope is the scope claim a token needs to report matches
	IngestScope = "ingest"

	SourceSecret = "secret"
	SourceToken  = "token"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidScope       = errors.New("token scope does not allow ingestion")
)

// Caller identifies an authenticated reporter
type Caller struct {
	Subject string
	Source  string
}

type ingestClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Service authenticates game servers with the shared ingest secret, either
// presented directly or as the HMAC key of a signed token.
type Service struct {
	secret []byte
	now    func() time.Time
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret), now: time.Now}
}

// Authenticate checks a presented credential
func (s *Service) Authenticate(credential string) (*Caller, error) {
	if credential == "" || len(s.secret) == 0 {
		return nil, ErrMissingCredentials
	}

	if subtle.ConstantTimeCompare([]byte(credential), s.secret) == 1 {
		return &Caller{Source: SourceSecret}, nil
	}

	return s.ValidateToken(credential)
}

func (s *Service) ValidateToken(tokenString string) (*Caller, error) {
	claims := &ingestClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Scope != IngestScope {
		return nil, ErrInvalidScope
	}

	return &Caller{Subject: claims.Subject, Source: SourceToken}, nil
}

// IssueToken signs an ingest token for subject valid for ttl
func (s *Service) IssueToken(subject string, ttl time.Duration) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ingestClaims{
		Scope: IngestScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign ingest token: %w", err)
	}
	return signed, nil
}
