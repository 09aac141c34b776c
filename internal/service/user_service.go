package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invoicedesk/internal/auth"
	"invoicedesk/internal/billing"
	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

// DTOs for Request validation
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ConfirmPasswordResetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt string    `json:"created_at"`
}

type TokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}

// UserService covers sign up, sign in and password recovery.
type UserService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	GetUserByEmail(ctx context.Context, email string) (*UserResponse, error)
	RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error
	ResetPassword(ctx context.Context, req ConfirmPasswordResetRequest) error
}

type userService struct {
	userRepo    repository.UserRepository
	tokenRepo   repository.TokenRepository
	profileRepo repository.ProfileRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	tokens      *auth.Tokens
	refreshTTL  time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewUserService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	profileRepo repository.ProfileRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	tokens *auth.Tokens,
	refreshTTL time.Duration,
	logger *zap.Logger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		tokens:      tokens,
		refreshTTL:  refreshTTL,
		logger:      logger.Named("user"),
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapToResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

// SignUp creates the account together with its default business profile.
func (s *userService) SignUp(ctx context.Context, req SignUpRequest) (*TokenResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{Email: email, Password: string(hash)}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := s.profileRepo.Create(txCtx, user.ID, billing.DefaultBusinessProfile()); err != nil {
			return fmt.Errorf("failed to create business profile: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, user.ID, model.ActionSignUp, user.ID.String(), user.Email, map[string]string{"email": user.Email})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User signed up", zap.String("user_id", user.ID.String()))
	return s.issueTokens(ctx, user)
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(ctx, user)
}

// RefreshToken rotates the refresh token: the presented one stops working.
func (s *userService) RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	stored, err := s.tokenRepo.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if err := s.tokenRepo.DeleteRefreshToken(ctx, req.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if s.now().After(stored.ExpiresAt) {
		return nil, auth.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokenRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := mapToResponse(user)
	return &res, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*UserResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	res := mapToResponse(user)
	return &res, nil
}

// RequestPasswordReset issues a one hour token. There is no mailer, so the
// token is written to the log. Unknown addresses succeed silently.
func (s *userService) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error {
	email := normalizeEmail(req.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Debug("Password reset for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := auth.NewOpaqueToken()
	if err != nil {
		return err
	}
	expires := s.now().Add(resetTokenTTL)
	if err := s.tokenRepo.CreateResetToken(ctx, &model.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expires,
	}); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	s.logger.Info("Password reset requested",
		zap.String("email", user.Email),
		zap.String("reset_token", token),
		zap.Time("expires_at", expires))
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, req ConfirmPasswordResetRequest) error {
	stored, err := s.tokenRepo.FindResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.ErrInvalidToken
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}
	now := s.now()
	if stored.UsedAt != nil || now.After(stored.ExpiresAt) {
		return auth.ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.UpdatePassword(txCtx, stored.UserID, string(hash)); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if err := s.tokenRepo.MarkResetTokenUsed(txCtx, stored.ID, now); err != nil {
			return fmt.Errorf("failed to consume reset token: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, stored.UserID, model.ActionResetPassword, stored.UserID.String(), "", map[string]bool{"reset": true})
	})
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	access, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	if err := s.tokenRepo.CreateRefreshToken(ctx, &model.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return &TokenResponse{
		Token:        access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
		User:         mapToResponse(user),
	}, nil
}
