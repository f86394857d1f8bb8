package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"

	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

// GCSStore keeps blobs as recordings/<id> objects in one bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: c, bucket: bucket}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) objectName(id uint) string {
	return fmt.Sprintf("recordings/%d", id)
}

func (s *GCSStore) Save(ctx context.Context, recordingID uint, blob audio.Blob) error {
	obj := s.client.Bucket(s.bucket).Object(s.objectName(recordingID))

	w := obj.NewWriter(ctx)
	w.ContentType = blob.ContentType

	if _, err := io.Copy(w, bytes.NewReader(blob.Data)); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (s *GCSStore) Load(ctx context.Context, recordingID uint) (audio.Blob, error) {
	obj := s.client.Bucket(s.bucket).Object(s.objectName(recordingID))

	r, err := obj.NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return audio.Blob{}, utils.ErrNotFound
	}
	if err != nil {
		return audio.Blob{}, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return audio.Blob{}, err
	}
	return audio.Blob{Data: data, ContentType: r.Attrs.ContentType}, nil
}

func (s *GCSStore) Delete(ctx context.Context, recordingID uint) error {
	err := s.client.Bucket(s.bucket).Object(s.objectName(recordingID)).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return utils.ErrNotFound
	}
	return err
}
