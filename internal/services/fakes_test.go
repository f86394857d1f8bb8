package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/models"
	"github.com/jaydeesquared/FlagIt/internal/store"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

type memRecordingStore struct {
	nextID uint
	rows   map[uint]models.Recording
}

func newMemRecordingStore() *memRecordingStore {
	return &memRecordingStore{rows: map[uint]models.Recording{}}
}

func (m *memRecordingStore) Insert(_ context.Context, rec *models.Recording) error {
	m.nextID++
	rec.ID = m.nextID
	m.rows[rec.ID] = *rec
	return nil
}

func (m *memRecordingStore) GetByID(_ context.Context, id uint) (*models.Recording, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &r, nil
}

func (m *memRecordingStore) List(_ context.Context) ([]models.Recording, error) {
	out := make([]models.Recording, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRecordingStore) ListByCategory(_ context.Context, category string) ([]models.Recording, error) {
	var out []models.Recording
	for _, r := range m.rows {
		if r.Category == category {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRecordingStore) Update(_ context.Context, rec *models.Recording) error {
	if _, ok := m.rows[rec.ID]; !ok {
		return utils.ErrNotFound
	}
	m.rows[rec.ID] = *rec
	return nil
}

func (m *memRecordingStore) Delete(_ context.Context, id uint) error {
	if _, ok := m.rows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memFlagStore struct {
	nextID uint
	rows   map[uint]models.Flag
}

func newMemFlagStore() *memFlagStore {
	return &memFlagStore{rows: map[uint]models.Flag{}}
}

func (m *memFlagStore) Insert(_ context.Context, flag *models.Flag) error {
	m.nextID++
	flag.ID = m.nextID
	m.rows[flag.ID] = *flag
	return nil
}

func (m *memFlagStore) GetByID(_ context.Context, id uint) (*models.Flag, error) {
	f, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &f, nil
}

func (m *memFlagStore) ListByRecording(_ context.Context, recordingID uint) ([]models.Flag, error) {
	var out []models.Flag
	for _, f := range m.rows {
		if f.RecordingID == recordingID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimestampMS < out[j].TimestampMS })
	return out, nil
}

func (m *memFlagStore) Update(_ context.Context, flag *models.Flag) error {
	if _, ok := m.rows[flag.ID]; !ok {
		return utils.ErrNotFound
	}
	m.rows[flag.ID] = *flag
	return nil
}

func (m *memFlagStore) Delete(_ context.Context, id uint) error {
	if _, ok := m.rows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memFlagStore) DeleteByRecording(_ context.Context, recordingID uint) error {
	for id, f := range m.rows {
		if f.RecordingID == recordingID {
			delete(m.rows, id)
		}
	}
	return nil
}

type memCategoryStore struct {
	nextID uint
	rows   map[uint]models.Category
}

func newMemCategoryStore() *memCategoryStore {
	return &memCategoryStore{rows: map[uint]models.Category{}}
}

func (m *memCategoryStore) Insert(_ context.Context, cat *models.Category) error {
	m.nextID++
	cat.ID = m.nextID
	m.rows[cat.ID] = *cat
	return nil
}

func (m *memCategoryStore) GetByID(_ context.Context, id uint) (*models.Category, error) {
	c, ok := m.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &c, nil
}

func (m *memCategoryStore) GetByName(_ context.Context, name string) (*models.Category, error) {
	for _, c := range m.rows {
		if c.Name == name {
			cc := c
			return &cc, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (m *memCategoryStore) List(_ context.Context) ([]models.Category, error) {
	out := make([]models.Category, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCategoryStore) Delete(_ context.Context, id uint) error {
	if _, ok := m.rows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func memStores() (store.Stores, *memRecordingStore, *memFlagStore, *memCategoryStore) {
	r := newMemRecordingStore()
	f := newMemFlagStore()
	c := newMemCategoryStore()
	return store.Stores{Recordings: r, Flags: f, Categories: c}, r, f, c
}

type memBlobStore struct {
	blobs   map[uint]audio.Blob
	saveErr error
	saves   int
	deletes []uint
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: map[uint]audio.Blob{}}
}

func (m *memBlobStore) Save(_ context.Context, recordingID uint, blob audio.Blob) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.blobs[recordingID] = blob
	return nil
}

func (m *memBlobStore) Load(_ context.Context, recordingID uint) (audio.Blob, error) {
	b, ok := m.blobs[recordingID]
	if !ok {
		return audio.Blob{}, utils.ErrNotFound
	}
	return b, nil
}

func (m *memBlobStore) Delete(_ context.Context, recordingID uint) error {
	m.deletes = append(m.deletes, recordingID)
	if _, ok := m.blobs[recordingID]; !ok {
		return utils.ErrNotFound
	}
	delete(m.blobs, recordingID)
	return nil
}

type memCache struct {
	entries map[string][]byte
	sets    int
	dels    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (m *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.sets++
	m.entries[key] = raw
	return nil
}

func (m *memCache) Del(_ context.Context, keys ...string) error {
	m.dels++
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}
