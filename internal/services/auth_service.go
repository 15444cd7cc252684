package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"
	"oustaa/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	SignUp(ctx context.Context, request *SignUpRequest) (*AuthResponse, error)
	SignIn(ctx context.Context, request *SignInRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
}

type authService struct {
	profileRepo       interfaces.ProfileRepository
	tokens            *utils.TokenIssuer
	passwordMinLength int
	bcryptCost        int
	logger            *logger.Logger
	now               func() time.Time
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
	UserType string `json:"user_type" validate:"required,user_type"`
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	CarModel string `json:"car_model" validate:"omitempty,max=64"`
	CarPlate string `json:"car_plate" validate:"omitempty,max=32"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Profile *models.Profile  `json:"profile"`
	Tokens  *utils.TokenPair `json:"tokens"`
}

type AuthOptions struct {
	PasswordMinLength int
	BcryptCost        int
}

func NewAuthService(
	profileRepo interfaces.ProfileRepository,
	tokens *utils.TokenIssuer,
	opts AuthOptions,
	logger *logger.Logger,
) AuthService {
	if opts.PasswordMinLength <= 0 {
		opts.PasswordMinLength = 6
	}
	if opts.BcryptCost < bcrypt.MinCost {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		profileRepo:       profileRepo,
		tokens:            tokens,
		passwordMinLength: opts.PasswordMinLength,
		bcryptCost:        opts.BcryptCost,
		logger:            logger,
		now:               time.Now,
	}
}

func (s *authService) SignUp(ctx context.Context, request *SignUpRequest) (*AuthResponse, error) {
	request.Email = utils.NormalizeEmail(request.Email)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, utils.ValidationError(utils.ErrValidationFailed, utils.ValidationDetails(err))
	}
	if len(request.Password) < s.passwordMinLength {
		return nil, utils.ValidationError(utils.ErrValidationFailed, map[string]string{
			"password": fmt.Sprintf("must be at least %d characters", s.passwordMinLength),
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	profile := &models.Profile{
		Email:        request.Email,
		PasswordHash: string(hashedPassword),
		FullName:     strings.TrimSpace(request.FullName),
		Phone:        strings.TrimSpace(request.Phone),
		UserType:     models.UserType(request.UserType),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if profile.IsDriver() {
		profile.CarModel = strings.TrimSpace(request.CarModel)
		profile.CarPlate = strings.TrimSpace(request.CarPlate)
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, utils.ConflictError(utils.CodeConflict, utils.ErrUserExists)
		}
		s.logger.WithError(err).Error("Failed to create profile")
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.WithUserID(profile.ID).WithField("user_type", profile.UserType).Info("User registered")
	return s.issue(profile)
}

func (s *authService) SignIn(ctx context.Context, request *SignInRequest) (*AuthResponse, error) {
	request.Email = utils.NormalizeEmail(request.Email)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, utils.ValidationError(utils.ErrValidationFailed, utils.ValidationDetails(err))
	}

	profile, err := s.profileRepo.GetByEmail(ctx, request.Email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.UnauthorizedError(utils.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(request.Password)); err != nil {
		s.logger.WithUserID(profile.ID).Warn("Failed sign in attempt")
		return nil, utils.UnauthorizedError(utils.ErrInvalidCredentials)
	}

	s.logger.WithUserID(profile.ID).Info("User signed in")
	return s.issue(profile)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, utils.UnauthorizedError(utils.ErrInvalidToken).Wrap(err)
	}

	profile, err := s.profileRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.UnauthorizedError(utils.ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return s.issue(profile)
}

func (s *authService) issue(profile *models.Profile) (*AuthResponse, error) {
	tokens, err := s.tokens.GenerateTokenPair(profile.ID, string(profile.UserType), profile.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return &AuthResponse{Profile: profile, Tokens: tokens}, nil
}
