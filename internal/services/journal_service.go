package services

import (
	"context"
	"time"

	"github.com/jaydeesquared/FlagIt/internal/models"
	mongorepo "github.com/jaydeesquared/FlagIt/internal/repositories/mongo"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

type JournalService interface {
	AppendChunk(ctx context.Context, sessionID string, chunkIndex int64, sizeBytes int, contentType string, elapsedMS int64) (*models.CaptureJournal, error)
	MarkSTT(ctx context.Context, sessionID string, chunkIndex int64, transcript string, status string) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.CaptureJournal, error)
}

type journalService struct {
	journal mongorepo.JournalRepository
	ttl     time.Duration
}

func NewJournalService(journal mongorepo.JournalRepository, ttl time.Duration) JournalService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &journalService{journal: journal, ttl: ttl}
}

func (s *journalService) AppendChunk(ctx context.Context, sessionID string, chunkIndex int64, sizeBytes int, contentType string, elapsedMS int64) (*models.CaptureJournal, error) {
	const op = "JournalService.AppendChunk"

	if sessionID == "" || chunkIndex <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required and chunk_index must be > 0", nil)
	}
	if sizeBytes <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "chunk must carry audio bytes", nil)
	}

	now := time.Now().UTC()
	doc := &models.CaptureJournal{
		SessionID:   sessionID,
		ChunkIndex:  chunkIndex,
		SizeBytes:   sizeBytes,
		ContentType: contentType,
		ElapsedMS:   elapsedMS,

		STTStatus: "pending",

		Timestamp: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.journal.InsertChunk(ctx, doc); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert journal entry", err)
	}
	return doc, nil
}

func (s *journalService) MarkSTT(ctx context.Context, sessionID string, chunkIndex int64, transcript string, status string) error {
	const op = "JournalService.MarkSTT"

	if sessionID == "" || chunkIndex <= 0 || status == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id, chunk_index (>0), and status are required", nil)
	}
	if err := s.journal.UpdateSTT(ctx, sessionID, chunkIndex, transcript, status); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update stt fields", err)
	}
	return nil
}

func (s *journalService) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.CaptureJournal, error) {
	const op = "JournalService.ListBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	out, err := s.journal.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list journal entries", err)
	}
	return out, nil
}
