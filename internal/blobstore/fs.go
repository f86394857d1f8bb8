package blobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

// FSStore keeps each blob as <dir>/<id>.bin with a JSON sidecar carrying
// the content type.
type FSStore struct {
	dir string
}

type fsMeta struct {
	ContentType string `json:"content_type"`
}

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) dataPath(id uint) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.bin", id))
}

func (s *FSStore) metaPath(id uint) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.json", id))
}

func (s *FSStore) Save(_ context.Context, recordingID uint, blob audio.Blob) error {
	meta, err := json.Marshal(fsMeta{ContentType: blob.ContentType})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.dataPath(recordingID), blob.Data, 0o644); err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(recordingID), meta, 0o644)
}

func (s *FSStore) Load(_ context.Context, recordingID uint) (audio.Blob, error) {
	data, err := os.ReadFile(s.dataPath(recordingID))
	if os.IsNotExist(err) {
		return audio.Blob{}, utils.ErrNotFound
	}
	if err != nil {
		return audio.Blob{}, err
	}

	blob := audio.Blob{Data: data, ContentType: audio.MIMEWebM}
	if raw, err := os.ReadFile(s.metaPath(recordingID)); err == nil {
		var meta fsMeta
		if json.Unmarshal(raw, &meta) == nil && meta.ContentType != "" {
			blob.ContentType = meta.ContentType
		}
	}
	return blob, nil
}

func (s *FSStore) Delete(_ context.Context, recordingID uint) error {
	if err := os.Remove(s.dataPath(recordingID)); err != nil {
		if os.IsNotExist(err) {
			return utils.ErrNotFound
		}
		return err
	}
	_ = os.Remove(s.metaPath(recordingID))
	return nil
}
