// Package file is a single-file JSON persistence backend for installs
// without Postgres. The whole dataset is held in memory and flushed to disk
// on every write; good enough for a single-user recorder, not a database.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jaydeesquared/FlagIt/internal/models"
	"github.com/jaydeesquared/FlagIt/internal/store"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

type dataset struct {
	NextRecordingID uint               `json:"next_recording_id"`
	NextFlagID      uint               `json:"next_flag_id"`
	NextCategoryID  uint               `json:"next_category_id"`
	Recordings      []models.Recording `json:"recordings"`
	Flags           []models.Flag      `json:"flags"`
	Categories      []models.Category  `json:"categories"`
}

// Store implements all three persistence contracts against one JSON file.
type Store struct {
	path string

	mu   sync.Mutex
	data dataset
}

// Open loads (or initializes) the dataset at path.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: dataset{NextRecordingID: 1, NextFlagID: 1, NextCategoryID: 1}}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Stores returns the contract bundle backed by this file. Flags and
// categories go through thin adapters because the three contracts share
// method names.
func (s *Store) Stores() store.Stores {
	return store.Stores{Recordings: s, Flags: flagStore{s}, Categories: categoryStore{s}}
}

type flagStore struct{ s *Store }

func (f flagStore) Insert(ctx context.Context, flag *models.Flag) error {
	return f.s.InsertFlag(ctx, flag)
}

func (f flagStore) GetByID(ctx context.Context, id uint) (*models.Flag, error) {
	return f.s.GetFlagByID(ctx, id)
}

func (f flagStore) ListByRecording(ctx context.Context, recordingID uint) ([]models.Flag, error) {
	return f.s.ListByRecording(ctx, recordingID)
}

func (f flagStore) Update(ctx context.Context, flag *models.Flag) error {
	return f.s.UpdateFlag(ctx, flag)
}

func (f flagStore) Delete(ctx context.Context, id uint) error {
	return f.s.DeleteFlag(ctx, id)
}

func (f flagStore) DeleteByRecording(ctx context.Context, recordingID uint) error {
	return f.s.DeleteByRecording(ctx, recordingID)
}

type categoryStore struct{ s *Store }

func (c categoryStore) Insert(ctx context.Context, cat *models.Category) error {
	return c.s.InsertCategory(ctx, cat)
}

func (c categoryStore) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	return c.s.GetCategoryByID(ctx, id)
}

func (c categoryStore) GetByName(ctx context.Context, name string) (*models.Category, error) {
	return c.s.GetByName(ctx, name)
}

func (c categoryStore) List(ctx context.Context) ([]models.Category, error) {
	return c.s.ListCategories(ctx)
}

func (c categoryStore) Delete(ctx context.Context, id uint) error {
	return c.s.DeleteCategory(ctx, id)
}

// flushLocked writes the dataset atomically: temp file then rename.
func (s *Store) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) Insert(ctx context.Context, rec *models.Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.data.NextRecordingID
	s.data.NextRecordingID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Category == "" {
		rec.Category = models.DefaultCategoryName
	}
	s.data.Recordings = append(s.data.Recordings, *rec)
	return s.flushLocked()
}

func (s *Store) GetByID(ctx context.Context, id uint) (*models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Recordings {
		if s.data.Recordings[i].ID == id {
			rec := s.data.Recordings[i]
			return &rec, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (s *Store) List(ctx context.Context) ([]models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Recording(nil), s.data.Recordings...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListByCategory(ctx context.Context, category string) ([]models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Recording
	for _, rec := range s.data.Recordings {
		if rec.Category == category {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Update(ctx context.Context, rec *models.Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Recordings {
		if s.data.Recordings[i].ID == rec.ID {
			created := s.data.Recordings[i].CreatedAt
			s.data.Recordings[i] = *rec
			s.data.Recordings[i].CreatedAt = created
			return s.flushLocked()
		}
	}
	return utils.ErrNotFound
}

func (s *Store) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Recordings {
		if s.data.Recordings[i].ID == id {
			s.data.Recordings = append(s.data.Recordings[:i], s.data.Recordings[i+1:]...)
			return s.flushLocked()
		}
	}
	return utils.ErrNotFound
}

func (s *Store) InsertFlag(ctx context.Context, flag *models.Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	flag.ID = s.data.NextFlagID
	s.data.NextFlagID++
	if flag.Color == "" {
		flag.Color = "red"
	}
	s.data.Flags = append(s.data.Flags, *flag)
	return s.flushLocked()
}

func (s *Store) GetFlagByID(ctx context.Context, id uint) (*models.Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Flags {
		if s.data.Flags[i].ID == id {
			flag := s.data.Flags[i]
			return &flag, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (s *Store) ListByRecording(ctx context.Context, recordingID uint) ([]models.Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Flag
	for _, f := range s.data.Flags {
		if f.RecordingID == recordingID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMS < out[j].TimestampMS })
	return out, nil
}

func (s *Store) UpdateFlag(ctx context.Context, flag *models.Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Flags {
		if s.data.Flags[i].ID == flag.ID {
			recID := s.data.Flags[i].RecordingID
			s.data.Flags[i] = *flag
			s.data.Flags[i].RecordingID = recID
			return s.flushLocked()
		}
	}
	return utils.ErrNotFound
}

func (s *Store) DeleteFlag(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Flags {
		if s.data.Flags[i].ID == id {
			s.data.Flags = append(s.data.Flags[:i], s.data.Flags[i+1:]...)
			return s.flushLocked()
		}
	}
	return utils.ErrNotFound
}

func (s *Store) DeleteByRecording(ctx context.Context, recordingID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.data.Flags[:0]
	for _, f := range s.data.Flags {
		if f.RecordingID != recordingID {
			kept = append(kept, f)
		}
	}
	s.data.Flags = kept
	return s.flushLocked()
}

func (s *Store) InsertCategory(ctx context.Context, cat *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.Categories {
		if existing.Name == cat.Name {
			return utils.E(utils.CodeConflict, "file.Store.InsertCategory", "category name already exists", nil)
		}
	}
	cat.ID = s.data.NextCategoryID
	s.data.NextCategoryID++
	if cat.Color == "" {
		cat.Color = "gray"
	}
	s.data.Categories = append(s.data.Categories, *cat)
	return s.flushLocked()
}

func (s *Store) GetCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Categories {
		if s.data.Categories[i].ID == id {
			cat := s.data.Categories[i]
			return &cat, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (s *Store) GetByName(ctx context.Context, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Categories {
		if s.data.Categories[i].Name == name {
			cat := s.data.Categories[i]
			return &cat, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Category(nil), s.data.Categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Categories {
		if s.data.Categories[i].ID == id {
			s.data.Categories = append(s.data.Categories[:i], s.data.Categories[i+1:]...)
			return s.flushLocked()
		}
	}
	return utils.ErrNotFound
}
