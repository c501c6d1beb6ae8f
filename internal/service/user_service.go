package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alimikegami/e-commerce/storefront-service/config"
	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/alimikegami/e-commerce/storefront-service/internal/repository"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type UserServiceImpl struct {
	repo   repository.UserRepository
	config config.JWTConfig
}

func CreateNewUserService(repo repository.UserRepository, config config.JWTConfig) UserService {
	return &UserServiceImpl{repo: repo, config: config}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserServiceImpl) Register(ctx context.Context, req dto.RegisterRequest) (res dto.AuthResponse, err error) {
	email := normalizeEmail(req.Email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return
	}

	if user.ID != "" {
		return res, errs.ErrEmailAlreadyUsed
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "Register").Msg("")
		return res, fmt.Errorf("hash password: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return res, fmt.Errorf("error generating user id: %w", err)
	}

	user, err = s.repo.AddUser(ctx, domain.User{
		ID:             id.String(),
		Email:          email,
		HashedPassword: hash,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Role:           domain.RoleUser,
	})
	if err != nil {
		return
	}

	return s.authResponse(user)
}

func (s *UserServiceImpl) Login(ctx context.Context, req dto.LoginRequest) (res dto.AuthResponse, err error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return
	}

	// Unknown email and wrong password are indistinguishable to the caller.
	if user.ID == "" || !utils.VerifyPassword(req.Password, user.HashedPassword) {
		log.Ctx(ctx).Info().Str("component", "Login").Msg("rejected login attempt")
		return res, errs.ErrInvalidCredentials
	}

	return s.authResponse(user)
}

func (s *UserServiceImpl) authResponse(user domain.User) (res dto.AuthResponse, err error) {
	token, err := utils.CreateJWTToken(user.ID, user.Email, string(user.Role), s.config.JWTSecret, s.config.TTL)
	if err != nil {
		return res, fmt.Errorf("sign token: %w", err)
	}

	res.User = toUserResponse(user)
	res.Token = token

	return
}

// GetUserByID returns errs.ErrNotFound when the account no longer exists.
func (s *UserServiceImpl) GetUserByID(ctx context.Context, id string) (user domain.User, err error) {
	user, err = s.repo.GetUserByID(ctx, id)
	if err != nil {
		return
	}

	if user.ID == "" {
		return user, errs.ErrNotFound
	}

	return
}

func (s *UserServiceImpl) GetCustomers(ctx context.Context) (res []dto.UserResponse, err error) {
	users, err := s.repo.GetUsersByRole(ctx, domain.RoleUser)
	if err != nil {
		return
	}

	res = make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		res = append(res, toUserResponse(user))
	}

	return
}

func toUserResponse(user domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
