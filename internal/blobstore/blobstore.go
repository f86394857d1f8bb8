// Package blobstore persists recording audio, keyed by recording id. Two
// backends: local filesystem (default) and Google Cloud Storage.
package blobstore

import (
	"context"

	"github.com/jaydeesquared/FlagIt/internal/audio"
)

type Store interface {
	Save(ctx context.Context, recordingID uint, blob audio.Blob) error
	Load(ctx context.Context, recordingID uint) (audio.Blob, error)
	Delete(ctx context.Context, recordingID uint) error
}
