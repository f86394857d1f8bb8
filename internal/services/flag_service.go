package services

import (
	"context"
	"errors"

	"github.com/jaydeesquared/FlagIt/internal/models"
	"github.com/jaydeesquared/FlagIt/internal/store"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

type FlagService interface {
	Create(ctx context.Context, recordingID uint, timestampMS int64, color, description string) (*models.Flag, error)
	ListByRecording(ctx context.Context, recordingID uint) ([]models.Flag, error)
	Update(ctx context.Context, id uint, timestampMS *int64, color, description *string) (*models.Flag, error)
	Delete(ctx context.Context, id uint) error
}

type flagService struct {
	flags      store.FlagStore
	recordings store.RecordingStore
}

func NewFlagService(stores store.Stores) FlagService {
	return &flagService{flags: stores.Flags, recordings: stores.Recordings}
}

func (s *flagService) Create(ctx context.Context, recordingID uint, timestampMS int64, color, description string) (*models.Flag, error) {
	const op = "FlagService.Create"

	if timestampMS < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "timestamp must be non-negative", nil)
	}
	// Unrecognized colors fall back to red on the edit path; the marker
	// renderer has its own green fallback.
	if !models.ValidFlagColor(color) {
		color = "red"
	}
	if _, err := s.recordings.GetByID(ctx, recordingID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "recording not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load recording", err)
	}

	flag := &models.Flag{
		RecordingID: recordingID,
		TimestampMS: timestampMS,
		Color:       color,
		Description: description,
	}
	if err := s.flags.Insert(ctx, flag); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert flag", err)
	}
	return flag, nil
}

func (s *flagService) ListByRecording(ctx context.Context, recordingID uint) ([]models.Flag, error) {
	const op = "FlagService.ListByRecording"

	rows, err := s.flags.ListByRecording(ctx, recordingID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list flags", err)
	}
	return rows, nil
}

func (s *flagService) Update(ctx context.Context, id uint, timestampMS *int64, color, description *string) (*models.Flag, error) {
	const op = "FlagService.Update"

	flag, err := s.flags.GetByID(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "flag not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load flag", err)
	}

	if timestampMS != nil {
		if *timestampMS < 0 {
			return nil, utils.E(utils.CodeInvalidArgument, op, "timestamp must be non-negative", nil)
		}
		flag.TimestampMS = *timestampMS
	}
	if color != nil {
		flag.Color = *color
		if !models.ValidFlagColor(flag.Color) {
			flag.Color = "red"
		}
	}
	if description != nil {
		flag.Description = *description
	}

	if err := s.flags.Update(ctx, flag); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update flag", err)
	}
	return flag, nil
}

func (s *flagService) Delete(ctx context.Context, id uint) error {
	const op = "FlagService.Delete"

	if err := s.flags.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "flag not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete flag", err)
	}
	return nil
}
