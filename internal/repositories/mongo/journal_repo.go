package mongo

import (
	"context"
	"time"

	"github.com/jaydeesquared/FlagIt/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type JournalRepository interface {
	InsertChunk(ctx context.Context, e *models.CaptureJournal) error
	UpdateSTT(ctx context.Context, sessionID string, chunkIndex int64, transcript string, status string) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.CaptureJournal, error)
}

type journalRepo struct {
	col *mongo.Collection
}

func NewJournalRepo(db *mongo.Database) JournalRepository {
	return &journalRepo{col: db.Collection("capture_journal")}
}

func (r *journalRepo) InsertChunk(ctx context.Context, e *models.CaptureJournal) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r *journalRepo) UpdateSTT(ctx context.Context, sessionID string, chunkIndex int64, transcript string, status string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "chunk_index": chunkIndex},
		bson.M{"$set": bson.M{
			"transcript": transcript,
			"stt_status": status,
		}},
	)
	return err
}

func (r *journalRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.CaptureJournal, error) {
	if limit <= 0 {
		limit = 200
	}

	cur, err := r.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().
			SetSort(bson.D{{Key: "chunk_index", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.CaptureJournal
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
