package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaydeesquared/FlagIt/internal/audio"
)

type mapBlobSource map[uint]audio.Blob

func (m mapBlobSource) Load(_ context.Context, id uint) (audio.Blob, error) {
	blob, ok := m[id]
	if !ok {
		return audio.Blob{}, errors.New("blob not found")
	}
	return blob, nil
}

// passthroughConverter stamps converted blobs as MP3 without re-encoding.
type passthroughConverter struct{ failIDs map[byte]bool }

func (p passthroughConverter) Convert(_ context.Context, blob audio.Blob) (audio.Blob, error) {
	if len(blob.Data) > 0 && p.failIDs[blob.Data[0]] {
		return audio.Blob{}, errors.New("codec failure")
	}
	return audio.Blob{Data: blob.Data, ContentType: audio.MIMEMpeg}, nil
}

func newExporter(blobs mapBlobSource, conv Converter) *Exporter {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	x := New(blobs, conv, log)
	x.clock = func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }
	return x
}

func TestSanitizeName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Call with Sam", "call_with_sam"},
		{"ALL CAPS!", "all_caps_"},
		{"already_fine_123", "already_fine_123"},
		{"émigré", "_migr_"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeName(tc.in), tc.in)
	}
}

func TestFileNameDuplicates(t *testing.T) {
	items := []Item{
		{ID: 1, Name: "Call"},
		{ID: 2, Name: "call"},
		{ID: 3, Name: "Standup"},
		{ID: 4, Name: "CALL"},
	}
	numbers := assignNumbers(items)

	// First occurrence keeps the bare name; later duplicates are numbered.
	assert.Equal(t, "call.mp3", FileName(items[0], numbers[1]))
	assert.Equal(t, "call (1).mp3", FileName(items[1], numbers[2]))
	assert.Equal(t, "standup.mp3", FileName(items[2], numbers[3]))
	assert.Equal(t, "call (2).mp3", FileName(items[3], numbers[4]))
}

func TestFileNameUnnamedRecording(t *testing.T) {
	assert.Equal(t, "recording_17.mp3", FileName(Item{ID: 17}, 0))
}

func TestExportBatchLayout(t *testing.T) {
	blobs := mapBlobSource{
		1: {Data: []byte{1}, ContentType: audio.MIMEWebM},
		2: {Data: []byte{2}, ContentType: audio.MIMEWebM},
		3: {Data: []byte{3}, ContentType: audio.MIMEWebM},
	}
	x := newExporter(blobs, passthroughConverter{})

	items := []Item{
		{ID: 1, Name: "Call", Category: "Work"},
		{ID: 2, Name: "Call", Category: "Work"},
		{ID: 3, Name: "Jam", Category: ""},
	}
	res, err := x.ExportBatch(context.Background(), items, false)
	require.NoError(t, err)

	assert.Equal(t, "recordings-2025-06-01-0930.zip", res.Filename)
	assert.Equal(t, "application/zip", res.ContentType)
	assert.Equal(t, 3, res.Added)
	assert.Empty(t, res.Missing)

	names := zipNames(t, res.Data)
	assert.Equal(t, []string{
		"recordings/jam.mp3",
		"work/call (1).mp3",
		"work/call.mp3",
	}, names)
}

func TestExportBatchNotesSidecars(t *testing.T) {
	blobs := mapBlobSource{1: {Data: []byte{1}, ContentType: audio.MIMEWebM}}
	x := newExporter(blobs, passthroughConverter{})

	items := []Item{{
		ID:         1,
		Name:       "Call",
		Category:   "Work",
		Notes:      "follow up on budget",
		DurationMS: 95000,
		CreatedAt:  time.Date(2025, 5, 30, 14, 5, 0, 0, time.UTC),
	}}
	res, err := x.ExportBatch(context.Background(), items, true)
	require.NoError(t, err)

	entries := zipEntries(t, res.Data)
	require.Contains(t, entries, "work/call.txt")
	sidecar := string(entries["work/call.txt"])
	assert.Contains(t, sidecar, "Recording: Call")
	assert.Contains(t, sidecar, "Date: 2025-05-30 at 14:05")
	assert.Contains(t, sidecar, "Duration: 1m 35s")
	assert.Contains(t, sidecar, "Category: Work")
	assert.Contains(t, sidecar, "follow up on budget")
}

func TestExportBatchSkipsMissingAudio(t *testing.T) {
	blobs := mapBlobSource{1: {Data: []byte{1}, ContentType: audio.MIMEWebM}}
	x := newExporter(blobs, passthroughConverter{})

	items := []Item{
		{ID: 1, Name: "Kept"},
		{ID: 2, Name: "Lost"},
	}
	res, err := x.ExportBatch(context.Background(), items, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, []uint{2}, res.Missing)
	assert.Equal(t, []string{"recordings/kept.mp3"}, zipNames(t, res.Data))
}

func TestExportBatchSkipsFailedConversions(t *testing.T) {
	blobs := mapBlobSource{
		1: {Data: []byte{1}, ContentType: audio.MIMEWebM},
		2: {Data: []byte{2}, ContentType: audio.MIMEWebM},
	}
	x := newExporter(blobs, passthroughConverter{failIDs: map[byte]bool{2: true}})

	res, err := x.ExportBatch(context.Background(), []Item{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, []uint{2}, res.Missing)
}

func TestExportOne(t *testing.T) {
	blobs := mapBlobSource{5: {Data: []byte{9, 9}, ContentType: audio.MIMEWebM}}
	x := newExporter(blobs, passthroughConverter{})

	res, notes, err := x.ExportOne(context.Background(), Item{ID: 5, Name: "Solo Take", Notes: "n"}, true)
	require.NoError(t, err)
	assert.Equal(t, "solo_take.mp3", res.Filename)
	assert.Equal(t, audio.MIMEMpeg, res.ContentType)
	assert.Equal(t, []byte{9, 9}, res.Data)
	assert.NotEmpty(t, notes)
}

func TestExportOneMissingAudio(t *testing.T) {
	x := newExporter(mapBlobSource{}, passthroughConverter{})
	_, _, err := x.ExportOne(context.Background(), Item{ID: 1, Name: "gone"}, false)
	require.Error(t, err)
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func zipEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	entries := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[f.Name] = content
	}
	return entries
}
