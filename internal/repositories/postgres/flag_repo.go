package postgres

import (
	"context"
	"errors"

	"github.com/jaydeesquared/FlagIt/internal/models"
	"github.com/jaydeesquared/FlagIt/internal/store"
	"github.com/jaydeesquared/FlagIt/internal/utils"
	"gorm.io/gorm"
)

type flagRepo struct {
	db *gorm.DB
}

func NewFlagRepo(db *gorm.DB) store.FlagStore {
	return &flagRepo{db: db}
}

func (r *flagRepo) Insert(ctx context.Context, flag *models.Flag) error {
	return r.db.WithContext(ctx).Create(flag).Error
}

func (r *flagRepo) GetByID(ctx context.Context, id uint) (*models.Flag, error) {
	var row models.Flag
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *flagRepo) ListByRecording(ctx context.Context, recordingID uint) ([]models.Flag, error) {
	var rows []models.Flag
	err := r.db.WithContext(ctx).
		Where("recording_id = ?", recordingID).
		Order("timestamp ASC").
		Find(&rows).Error
	return rows, err
}

func (r *flagRepo) Update(ctx context.Context, flag *models.Flag) error {
	res := r.db.WithContext(ctx).Model(&models.Flag{}).
		Where("id = ?", flag.ID).
		Updates(map[string]any{
			"timestamp":   flag.TimestampMS,
			"color":       flag.Color,
			"description": flag.Description,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *flagRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Flag{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *flagRepo) DeleteByRecording(ctx context.Context, recordingID uint) error {
	return r.db.WithContext(ctx).
		Where("recording_id = ?", recordingID).
		Delete(&models.Flag{}).Error
}
