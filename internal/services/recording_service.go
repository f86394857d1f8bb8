package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/blobstore"
	"github.com/jaydeesquared/FlagIt/internal/cache"
	"github.com/jaydeesquared/FlagIt/internal/models"
	"github.com/jaydeesquared/FlagIt/internal/store"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

const (
	recordingListKey = "recordings:list"
	recordingListTTL = 5 * time.Minute
)

type RecordingService interface {
	Create(ctx context.Context, name, category string, categoryID *uint, durationMS int64, notes string) (*models.Recording, error)
	Get(ctx context.Context, id uint) (*models.RecordingWithFlags, error)
	List(ctx context.Context) ([]models.Recording, error)
	ListByCategory(ctx context.Context, category string) ([]models.Recording, error)
	Update(ctx context.Context, id uint, name, category *string, categoryID *uint, notes *string) (*models.Recording, error)
	Delete(ctx context.Context, id uint) error
	SaveAudio(ctx context.Context, id uint, blob audio.Blob) error
	LoadAudio(ctx context.Context, id uint) (audio.Blob, error)
}

type recordingService struct {
	recordings store.RecordingStore
	flags      store.FlagStore
	blobs      blobstore.Store
	cache      cache.Cache
	log        *logrus.Logger
}

func NewRecordingService(stores store.Stores, blobs blobstore.Store, c cache.Cache, log *logrus.Logger) RecordingService {
	if log == nil {
		log = logrus.New()
	}
	return &recordingService{
		recordings: stores.Recordings,
		flags:      stores.Flags,
		blobs:      blobs,
		cache:      c,
		log:        log,
	}
}

func (s *recordingService) Create(ctx context.Context, name, category string, categoryID *uint, durationMS int64, notes string) (*models.Recording, error) {
	const op = "RecordingService.Create"

	if name == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "name is required", nil)
	}
	if durationMS < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "duration must be non-negative", nil)
	}
	if category == "" {
		category = models.DefaultCategoryName
	}

	rec := &models.Recording{
		Name:       name,
		Category:   category,
		CategoryID: categoryID,
		DurationMS: durationMS,
		Notes:      notes,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.recordings.Insert(ctx, rec); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert recording", err)
	}
	s.invalidateList(ctx)
	return rec, nil
}

func (s *recordingService) Get(ctx context.Context, id uint) (*models.RecordingWithFlags, error) {
	const op = "RecordingService.Get"

	rec, err := s.recordings.GetByID(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "recording not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load recording", err)
	}

	flags, err := s.flags.ListByRecording(ctx, id)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load flags", err)
	}
	return &models.RecordingWithFlags{Recording: *rec, Flags: flags}, nil
}

func (s *recordingService) List(ctx context.Context) ([]models.Recording, error) {
	const op = "RecordingService.List"

	if s.cache != nil {
		var cached []models.Recording
		if hit, err := s.cache.GetJSON(ctx, recordingListKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	rows, err := s.recordings.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list recordings", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, recordingListKey, rows, recordingListTTL); err != nil {
			s.log.WithError(err).Debug("recording list cache write failed")
		}
	}
	return rows, nil
}

func (s *recordingService) ListByCategory(ctx context.Context, category string) ([]models.Recording, error) {
	const op = "RecordingService.ListByCategory"

	if category == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "category is required", nil)
	}
	rows, err := s.recordings.ListByCategory(ctx, category)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list recordings", err)
	}
	return rows, nil
}

func (s *recordingService) Update(ctx context.Context, id uint, name, category *string, categoryID *uint, notes *string) (*models.Recording, error) {
	const op = "RecordingService.Update"

	rec, err := s.recordings.GetByID(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeNotFound, op, "recording not found", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load recording", err)
	}

	if name != nil {
		if *name == "" {
			return nil, utils.E(utils.CodeInvalidArgument, op, "name cannot be empty", nil)
		}
		rec.Name = *name
	}
	if category != nil {
		rec.Category = *category
		if rec.Category == "" {
			rec.Category = models.DefaultCategoryName
		}
	}
	if categoryID != nil {
		rec.CategoryID = categoryID
	}
	if notes != nil {
		rec.Notes = *notes
	}

	if err := s.recordings.Update(ctx, rec); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update recording", err)
	}
	s.invalidateList(ctx)
	return rec, nil
}

// Delete removes the recording, its flags, and its stored audio. A missing
// blob is fine; metadata wins.
func (s *recordingService) Delete(ctx context.Context, id uint) error {
	const op = "RecordingService.Delete"

	if err := s.recordings.Delete(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "recording not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete recording", err)
	}
	if err := s.flags.DeleteByRecording(ctx, id); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete recording flags", err)
	}
	if err := s.blobs.Delete(ctx, id); err != nil && !errors.Is(err, utils.ErrNotFound) {
		s.log.WithError(err).WithField("recording_id", id).Warn("failed to delete recording audio")
	}
	s.invalidateList(ctx)
	return nil
}

func (s *recordingService) SaveAudio(ctx context.Context, id uint, blob audio.Blob) error {
	const op = "RecordingService.SaveAudio"

	if len(blob.Data) == 0 {
		return utils.E(utils.CodeInvalidArgument, op, "audio blob is empty", nil)
	}
	if _, err := s.recordings.GetByID(ctx, id); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "recording not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load recording", err)
	}
	if err := s.blobs.Save(ctx, id, blob); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to store audio", err)
	}
	return nil
}

func (s *recordingService) LoadAudio(ctx context.Context, id uint) (audio.Blob, error) {
	const op = "RecordingService.LoadAudio"

	blob, err := s.blobs.Load(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return audio.Blob{}, utils.E(utils.CodeNotFound, op, "recording audio not found", err)
	}
	if err != nil {
		return audio.Blob{}, utils.E(utils.CodeUnavailable, op, "failed to load audio", err)
	}
	return blob, nil
}

func (s *recordingService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, recordingListKey); err != nil {
		s.log.WithError(err).Debug("recording list cache invalidation failed")
	}
}
