package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"plate-service/internal/model"
)

type PlateReadingRepository struct {
	db *gorm.DB
}

func NewPlateReadingRepository(db *gorm.DB) *PlateReadingRepository {
	return &PlateReadingRepository{db: db}
}

// Create stores the reading together with its candidates in one transaction.
func (r *PlateReadingRepository) Create(ctx context.Context, reading *model.PlateReading) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidates := reading.Candidates
		reading.Candidates = nil
		if err := tx.Create(reading).Error; err != nil {
			reading.Candidates = candidates
			return err
		}
		for i := range candidates {
			candidates[i].ReadingID = reading.ID
		}
		reading.Candidates = candidates
		if len(candidates) == 0 {
			return nil
		}
		return tx.Create(&reading.Candidates).Error
	})
}

func (r *PlateReadingRepository) GetByID(ctx context.Context, id string) (*model.PlateReading, error) {
	var reading model.PlateReading
	err := r.db.WithContext(ctx).
		Preload("Candidates", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC")
		}).
		Where("id = ?", id).
		First(&reading).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &reading, nil
}

type PlateReadingListFilter struct {
	CreatedByUserID *string
	NormalizedPlate *string
	Status          *model.PlateReadingStatus
	From            *time.Time
	To              *time.Time
	Limit           int
}

func (r *PlateReadingRepository) List(ctx context.Context, filter PlateReadingListFilter) ([]model.PlateReading, error) {
	var readings []model.PlateReading
	query := r.db.WithContext(ctx).Model(&model.PlateReading{})

	if filter.CreatedByUserID != nil {
		query = query.Where("created_by_user_id = ?", *filter.CreatedByUserID)
	}
	if filter.NormalizedPlate != nil {
		query = query.Where("normalized_plate = ?", *filter.NormalizedPlate)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	if err := query.Order("created_at DESC").Find(&readings).Error; err != nil {
		return nil, err
	}

	return readings, nil
}
