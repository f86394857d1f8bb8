package postgres

import (
	"context"
	"errors"

	"github.com/jaydeesquared/FlagIt/internal/models"
	"github.com/jaydeesquared/FlagIt/internal/store"
	"github.com/jaydeesquared/FlagIt/internal/utils"
	"gorm.io/gorm"
)

type recordingRepo struct {
	db *gorm.DB
}

func NewRecordingRepo(db *gorm.DB) store.RecordingStore {
	return &recordingRepo{db: db}
}

func (r *recordingRepo) Insert(ctx context.Context, rec *models.Recording) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *recordingRepo) GetByID(ctx context.Context, id uint) (*models.Recording, error) {
	var row models.Recording
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *recordingRepo) List(ctx context.Context) ([]models.Recording, error) {
	var rows []models.Recording
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *recordingRepo) ListByCategory(ctx context.Context, category string) ([]models.Recording, error) {
	var rows []models.Recording
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *recordingRepo) Update(ctx context.Context, rec *models.Recording) error {
	res := r.db.WithContext(ctx).Model(&models.Recording{}).
		Where("id = ?", rec.ID).
		Updates(map[string]any{
			"name":        rec.Name,
			"category":    rec.Category,
			"category_id": rec.CategoryID,
			"duration":    rec.DurationMS,
			"notes":       rec.Notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *recordingRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Recording{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
