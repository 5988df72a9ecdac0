package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/repository"
	"github.com/bodefavour/web3event/pkg/config"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

// AuthResult is a user together with a fresh access token.
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// UserService manages accounts and issues access tokens. Login is by
// wallet address; an unknown wallet is registered on first login.
type UserService interface {
	Login(ctx context.Context, walletAddress, name string) (*AuthResult, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, name string, email, avatarURL *string) (*domain.User, error)
}

type userService struct {
	repo repository.UserRepository
	jwt  config.JWTConfig
}

// NewUserService creates the user service.
func NewUserService(repo repository.UserRepository, jwtCfg config.JWTConfig) UserService {
	return &userService{repo: repo, jwt: jwtCfg}
}

var _ UserService = (*userService)(nil)

func (s *userService) Login(ctx context.Context, walletAddress, name string) (*AuthResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.user.login")
	defer span.End()

	user, err := s.repo.GetByWallet(ctx, walletAddress)
	if errors.Is(err, domain.ErrUserNotFound) {
		user = &domain.User{
			ID:            uuid.New(),
			WalletAddress: walletAddress,
			Name:          name,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.user.get")
	defer span.End()

	return s.repo.GetByID(ctx, id)
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, name string, email, avatarURL *string) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.user.update")
	defer span.End()

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != "" {
		user.Name = name
	}
	if email != nil {
		user.Email = email
	}
	if avatarURL != nil {
		user.AvatarURL = avatarURL
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) issueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		Issuer:    s.jwt.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwt.AccessTokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwt.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
