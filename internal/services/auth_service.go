package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/gravadigital/urna-cipa/internal/config"
	"github.com/gravadigital/urna-cipa/internal/logger"
)

const adminSubject = "admin"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService issues and verifies the admin bearer token
type AuthService struct {
	username     string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
	log          *log.Logger
}

// NewAuthService uses ADMIN_PASSWORD_HASH when set, otherwise hashes the
// plain ADMIN_PASSWORD once at startup.
func NewAuthService(cfg *config.Config) (*AuthService, error) {
	if cfg.Admin.JWTSecret == "" {
		return nil, errors.New("jwt secret cannot be empty")
	}

	hash := []byte(cfg.Admin.PasswordHash)
	if len(hash) == 0 {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}

	ttl := cfg.Admin.TokenTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}

	return &AuthService{
		username:     cfg.Admin.Username,
		passwordHash: hash,
		secret:       []byte(cfg.Admin.JWTSecret),
		ttl:          ttl,
		now:          time.Now,
		log:          logger.Service("auth"),
	}, nil
}

// Login checks the admin credentials and returns a signed HS256 token
func (s *AuthService) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		s.log.Warn("admin login rejected", "username", username)
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.log.Info("admin logged in")
	return token, nil
}

// ParseToken validates signature, algorithm and expiry
func (s *AuthService) ParseToken(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Subject != adminSubject {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
