package repository

import (
	"context"
	"errors"

	"invoicedesk/internal/billing"
	"invoicedesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	Get(ctx context.Context, ownerID uuid.UUID) (billing.BusinessProfile, error)
	Create(ctx context.Context, ownerID uuid.UUID, profile billing.BusinessProfile) error
	Update(ctx context.Context, ownerID uuid.UUID, patch ProfilePatch) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, ownerID uuid.UUID) (billing.BusinessProfile, error) {
	var row model.BusinessProfile
	err := GetDB(ctx, r.db).Where("owner_id = ?", ownerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return billing.BusinessProfile{}, ErrNotFound
	}
	if err != nil {
		return billing.BusinessProfile{}, err
	}
	return profileToDomain(row), nil
}

func (r *profileRepository) Create(ctx context.Context, ownerID uuid.UUID, profile billing.BusinessProfile) error {
	row := profileFromDomain(ownerID, profile)
	return GetDB(ctx, r.db).Create(&row).Error
}

func (r *profileRepository) Update(ctx context.Context, ownerID uuid.UUID, patch ProfilePatch) error {
	cols := patch.Columns()
	if len(cols) == 0 {
		return nil
	}
	res := GetDB(ctx, r.db).Model(&model.BusinessProfile{}).Where("owner_id = ?", ownerID).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
