package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spielapi/internal/platform/crypto"
	"spielapi/internal/platform/logger"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
)

// Token is the result of a successful login.
type Token struct {
	Token     string    `json:"token"`
	ExpiresIn int       `json:"expiresIn"`
	ExpiresAt time.Time `json:"expiresAt"`
	Roles     []string  `json:"roles"`
}

type Service struct {
	secret    string
	issuer    string
	ttl       time.Duration
	users     UserStore
	blacklist Blacklist
	log       *logger.Logger
}

func NewService(secret, issuer string, ttl time.Duration, users UserStore, blacklist Blacklist, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		secret:    secret,
		issuer:    issuer,
		ttl:       ttl,
		users:     users,
		blacklist: blacklist,
		log:       log,
	}
}

func (s *Service) Login(ctx context.Context, username, password string) (*Token, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil || !crypto.VerifyPassword(u.PasswordHash, password) {
		s.log.Debug("login rejected", "username", username)
		return nil, ErrUnauthorized
	}

	roles := NormalizeRoles(u.Roles)
	token, _, err := crypto.GenerateToken(s.secret, s.issuer, u.Username, roles, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	s.log.Info("login", "username", u.Username)
	return &Token{
		Token:     token,
		ExpiresIn: int(s.ttl.Seconds()),
		ExpiresAt: time.Now().Add(s.ttl),
		Roles:     roles,
	}, nil
}

// Logout revokes the token until it expires.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := crypto.ParseToken(s.secret, token)
	if err != nil {
		return ErrUnauthorized
	}

	expiresAt := time.Now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if owned, ok := s.blacklist.(interface {
		AddFor(ctx context.Context, jti, username string, expiresAt time.Time) error
	}); ok {
		err = owned.AddFor(ctx, claims.ID, claims.Sub, expiresAt)
	} else {
		err = s.blacklist.Add(ctx, claims.ID, expiresAt)
	}
	if err != nil {
		return err
	}
	s.log.Info("logout", "username", claims.Sub)
	return nil
}
