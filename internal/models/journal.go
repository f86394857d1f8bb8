package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CaptureJournal is one live-capture chunk receipt, written as chunks
// arrive over the ingest socket. Entries carry a TTL so abandoned sessions
// age out of Mongo on their own.
type CaptureJournal struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID  string             `bson:"session_id" json:"session_id"` // uuid v4
	ChunkIndex int64              `bson:"chunk_index" json:"chunk_index"`

	SizeBytes   int    `bson:"size_bytes" json:"size_bytes"`
	ContentType string `bson:"content_type" json:"content_type"`
	ElapsedMS   int64  `bson:"elapsed_ms" json:"elapsed_ms"`

	Transcript string `bson:"transcript,omitempty" json:"transcript,omitempty"`
	STTStatus  string `bson:"stt_status" json:"stt_status"` // pending|processing|done|failed

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}
