// Package store declares the persistence contracts the service layer
// depends on. Implementations live under internal/repositories: a Postgres
// one behind gorm and a single-file JSON one for installs without a
// database.
package store

import (
	"context"

	"github.com/jaydeesquared/FlagIt/internal/models"
)

type RecordingStore interface {
	Insert(ctx context.Context, rec *models.Recording) error
	GetByID(ctx context.Context, id uint) (*models.Recording, error)
	List(ctx context.Context) ([]models.Recording, error)
	ListByCategory(ctx context.Context, category string) ([]models.Recording, error)
	Update(ctx context.Context, rec *models.Recording) error
	Delete(ctx context.Context, id uint) error
}

type FlagStore interface {
	Insert(ctx context.Context, flag *models.Flag) error
	GetByID(ctx context.Context, id uint) (*models.Flag, error)
	ListByRecording(ctx context.Context, recordingID uint) ([]models.Flag, error)
	Update(ctx context.Context, flag *models.Flag) error
	Delete(ctx context.Context, id uint) error
	DeleteByRecording(ctx context.Context, recordingID uint) error
}

type CategoryStore interface {
	Insert(ctx context.Context, cat *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Delete(ctx context.Context, id uint) error
}

// Stores bundles the three contracts for wiring.
type Stores struct {
	Recordings RecordingStore
	Flags      FlagStore
	Categories CategoryStore
}
