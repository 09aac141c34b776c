package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"invoicedesk/internal/billing"
	"invoicedesk/internal/events"
	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	// ErrValidation is returned for request fields that fail business rules
	// beyond what binding tags check.
	ErrValidation         = errors.New("validation failed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

func requireOwner(ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return billing.ErrAuthRequired
	}
	return nil
}

// writeAudit records an action for ownerID. Call it with the transaction
// context so the entry commits or rolls back with the change.
func writeAudit(ctx context.Context, repo repository.AuditRepository, ownerID uuid.UUID, action, entityID, entityName string, details interface{}) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	uid := ownerID
	entry := &model.AuditLog{
		UserID:     &uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    datatypes.JSON(raw),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// publish never fails the caller; the change is already stored.
func publish(ctx context.Context, p events.Publisher, logger *zap.Logger, e events.Event) {
	if err := p.Publish(ctx, e); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("event", string(e.Type)),
			zap.String("owner_id", e.OwnerID.String()),
			zap.Error(err))
	}
}

// loadProfile returns the stored profile, creating the default one on first use.
func loadProfile(ctx context.Context, repo repository.ProfileRepository, ownerID uuid.UUID) (billing.BusinessProfile, error) {
	profile, err := repo.Get(ctx, ownerID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return billing.BusinessProfile{}, fmt.Errorf("failed to load business profile: %w", err)
	}

	profile = billing.DefaultBusinessProfile()
	if err := repo.Create(ctx, ownerID, profile); err != nil {
		// lost a race with another first request
		if existing, getErr := repo.Get(ctx, ownerID); getErr == nil {
			return existing, nil
		}
		return billing.BusinessProfile{}, fmt.Errorf("failed to create business profile: %w", err)
	}
	return profile, nil
}
