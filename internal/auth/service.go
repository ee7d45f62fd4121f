// Package auth is the identity provider: email and password accounts with
// stateless bearer sessions.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nurpe/contratpro/internal/model"
	"github.com/nurpe/contratpro/internal/repository"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      model.Principal `json:"user"`
}

type Service struct {
	users     UserStore
	tokens    *Tokens
	minSecret int
	cost      int
	log       zerolog.Logger
}

func NewService(users UserStore, tokens *Tokens, minSecret int, log zerolog.Logger) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		minSecret: minSecret,
		cost:      bcrypt.DefaultCost,
		log:       log.With().Str("component", "auth").Logger(),
	}
}

func (s *Service) Register(ctx context.Context, email, secret string) (*Session, error) {
	email = normalizeEmail(email)
	if len([]rune(secret)) < s.minSecret {
		return nil, newError(KindWeakSecret, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		weak := newError(KindWeakSecret, err)
		weak.Message = "Le mot de passe est trop long"
		return nil, weak
	}
	if err != nil {
		return nil, newError(KindUnknown, err)
	}
	user := &model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(KindEmailInUse, err)
		}
		s.log.Error().Err(err).Msg("failed to create user")
		return nil, newError(KindUnknown, err)
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return s.session(*user)
}

func (s *Service) Login(ctx context.Context, email, secret string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindInvalidCredential, nil)
		}
		s.log.Error().Err(err).Msg("failed to load user")
		return nil, newError(KindUnknown, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)); err != nil {
		return nil, newError(KindInvalidCredential, nil)
	}
	return s.session(*user)
}

// Authenticate resolves a bearer token to its principal.
func (s *Service) Authenticate(token string) (*model.Principal, error) {
	return s.tokens.Parse(token)
}

func (s *Service) session(user model.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, newError(KindUnknown, err)
	}
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      model.Principal{UserID: user.ID, Email: user.Email},
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
