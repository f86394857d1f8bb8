package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/jaydeesquared/FlagIt/internal/blobstore"
	"github.com/jaydeesquared/FlagIt/internal/models"
	"github.com/jaydeesquared/FlagIt/internal/snippet"
	"github.com/jaydeesquared/FlagIt/internal/store"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

type SnippetService interface {
	// CreateSnippet cuts [startSec, endSec) out of the source recording and
	// saves it as a new recording with its own audio.
	CreateSnippet(ctx context.Context, sourceID uint, startSec, endSec float64, name string, categoryID *uint) (*models.Recording, error)
}

type snippetService struct {
	recordings RecordingService
	categories store.CategoryStore
	extractor  *snippet.Extractor
	blobs      blobstore.Store
	log        *logrus.Logger
}

func NewSnippetService(recordings RecordingService, categories store.CategoryStore, extractor *snippet.Extractor, blobs blobstore.Store, log *logrus.Logger) SnippetService {
	if log == nil {
		log = logrus.New()
	}
	return &snippetService{
		recordings: recordings,
		categories: categories,
		extractor:  extractor,
		blobs:      blobs,
		log:        log,
	}
}

func (s *snippetService) CreateSnippet(ctx context.Context, sourceID uint, startSec, endSec float64, name string, categoryID *uint) (*models.Recording, error) {
	const op = "SnippetService.CreateSnippet"

	if endSec < startSec {
		return nil, utils.E(utils.CodeInvalidArgument, op, "snippet end must not precede start", nil)
	}

	source, err := s.recordings.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	blob, err := s.recordings.LoadAudio(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	cut, err := s.extractor.Extract(ctx, blob, startSec, endSec)
	if err != nil {
		return nil, err
	}

	categoryName := models.DefaultCategoryName
	if categoryID != nil {
		cat, err := s.categories.GetByID(ctx, *categoryID)
		if err != nil && !errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeInternal, op, "failed to load category", err)
		}
		if cat != nil {
			categoryName = cat.Name
		}
	}

	if name == "" {
		name = fmt.Sprintf("%s (Snippet)", source.Name)
	}
	durationMS := int64(math.Round((endSec - startSec) * 1000))

	rec, err := s.recordings.Create(ctx, name, categoryName, categoryID, durationMS, "")
	if err != nil {
		return nil, err
	}
	if err := s.blobs.Save(ctx, rec.ID, cut); err != nil {
		// Roll the metadata back so no recording exists without audio.
		if derr := s.recordings.Delete(ctx, rec.ID); derr != nil {
			s.log.WithError(derr).WithField("recording_id", rec.ID).Warn("failed to roll back snippet recording")
		}
		return nil, utils.E(utils.CodeUnavailable, op, "failed to store snippet audio", err)
	}

	s.log.WithFields(logrus.Fields{
		"source_id":   sourceID,
		"snippet_id":  rec.ID,
		"duration_ms": durationMS,
	}).Info("snippet created")
	return rec, nil
}
