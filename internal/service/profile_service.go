package service

import (
	"context"
	"fmt"
	"strings"

	"invoicedesk/internal/billing"
	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"

	"github.com/google/uuid"
)

type ProfileResponse struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Logo    string `json:"logo,omitempty"`
	GSTIN   string `json:"gstin,omitempty"`
}

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Logo    *string `json:"logo"`
	GSTIN   *string `json:"gstin"`
}

type ProfileService interface {
	Get(ctx context.Context, ownerID uuid.UUID) (ProfileResponse, error)
	Update(ctx context.Context, ownerID uuid.UUID, req UpdateProfileRequest) (ProfileResponse, error)
}

type profileService struct {
	profileRepo repository.ProfileRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewProfileService(profileRepo repository.ProfileRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) ProfileService {
	return &profileService{profileRepo: profileRepo, auditRepo: auditRepo, txManager: txManager}
}

func toProfileResponse(p billing.BusinessProfile) ProfileResponse {
	return ProfileResponse{
		Name:    p.Name,
		Address: p.Address,
		Phone:   p.Phone,
		Email:   p.Email,
		Logo:    p.Logo,
		GSTIN:   p.GSTIN,
	}
}

func (s *profileService) Get(ctx context.Context, ownerID uuid.UUID) (ProfileResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return ProfileResponse{}, err
	}
	profile, err := loadProfile(ctx, s.profileRepo, ownerID)
	if err != nil {
		return ProfileResponse{}, err
	}
	return toProfileResponse(profile), nil
}

func (s *profileService) Update(ctx context.Context, ownerID uuid.UUID, req UpdateProfileRequest) (ProfileResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return ProfileResponse{}, err
	}
	patch := repository.ProfilePatch{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		Logo:    req.Logo,
		GSTIN:   req.GSTIN,
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return ProfileResponse{}, fmt.Errorf("%w: business name cannot be empty", ErrValidation)
	}

	var updated billing.BusinessProfile
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := loadProfile(txCtx, s.profileRepo, ownerID)
		if err != nil {
			return err
		}
		if err := s.profileRepo.Update(txCtx, ownerID, patch); err != nil {
			return fmt.Errorf("failed to update business profile: %w", err)
		}
		updated = patch.Apply(current)
		return writeAudit(txCtx, s.auditRepo, ownerID, model.ActionUpdateProfile, ownerID.String(), updated.Name, patch.Columns())
	})
	if err != nil {
		return ProfileResponse{}, err
	}
	return toProfileResponse(updated), nil
}
