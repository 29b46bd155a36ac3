package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/johnrirwin/smartnews/internal/config"
	"github.com/johnrirwin/smartnews/internal/logging"
)

// DefaultReaderID is the reader every request without a valid token acts as.
const DefaultReaderID = "default"

// ReaderToken is issued to an anonymous reader session.
type ReaderToken struct {
	ReaderID    string    `json:"readerId"`
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Service issues and validates anonymous reader tokens.
type Service struct {
	config config.AuthConfig
	logger *logging.Logger
	now    func() time.Time
}

// NewService creates a new auth service
func NewService(cfg config.AuthConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// IssueReaderToken starts a new anonymous reader session with a fresh id.
func (s *Service) IssueReaderToken() (*ReaderToken, error) {
	return s.issue(uuid.NewString())
}

// RenewReaderToken issues a new token for an existing reader id.
func (s *Service) RenewReaderToken(readerID string) (*ReaderToken, error) {
	if readerID == "" {
		return nil, &AuthError{Code: "invalid_input", Message: "reader id is required"}
	}
	return s.issue(readerID)
}

func (s *Service) issue(readerID string) (*ReaderToken, error) {
	now := s.now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   readerID,
		Issuer:    s.config.JWTIssuer,
		Audience:  jwt.ClaimStrings{s.config.JWTAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign reader token: %w", err)
	}

	s.logger.Debug("Issued reader token", logging.WithField("readerId", readerID))

	return &ReaderToken{
		ReaderID:    readerID,
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.UTC(),
	}, nil
}

// ValidateAccessToken returns the reader id carried by a valid token.
func (s *Service) ValidateAccessToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(s.config.JWTIssuer),
		jwt.WithAudience(s.config.JWTAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", &AuthError{Code: "token_expired", Message: "token has expired"}
		}
		return "", &AuthError{Code: "invalid_token", Message: "invalid or expired token"}
	}

	if claims.Subject == "" {
		return "", &AuthError{Code: "invalid_token", Message: "invalid token subject"}
	}
	return claims.Subject, nil
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AuthError) Error() string {
	return e.Message
}
