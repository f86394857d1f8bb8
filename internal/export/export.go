// Package export packages recordings for download: MP3-converted audio,
// optional notes sidecars, and zip archives grouped by category.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

// DefaultCategory groups recordings that have none.
const DefaultCategory = "Recordings"

var unsafeChars = regexp.MustCompile(`[^a-z0-9]`)

// SanitizeName lowercases input and replaces every character outside
// [a-z0-9] with an underscore, making it safe as a path segment.
func SanitizeName(input string) string {
	return unsafeChars.ReplaceAllString(strings.ToLower(input), "_")
}

// Item is one recording selected for export.
type Item struct {
	ID         uint
	Name       string
	Category   string
	Notes      string
	DurationMS int64
	CreatedAt  time.Time
}

// Result is a finished export: a single MP3 (plus optional sidecar) or a
// zip archive. Missing lists recordings whose audio could not be loaded or
// converted; they are skipped, not fatal.
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
	Added       int
	Missing     []uint
}

// BlobSource loads the stored audio for a recording.
type BlobSource interface {
	Load(ctx context.Context, recordingID uint) (audio.Blob, error)
}

// Converter produces the audio/mpeg rendition of a blob.
type Converter interface {
	Convert(ctx context.Context, blob audio.Blob) (audio.Blob, error)
}

// Exporter assembles download packages.
type Exporter struct {
	blobs     BlobSource
	converter Converter
	clock     func() time.Time
	log       *logrus.Logger
}

func New(blobs BlobSource, converter Converter, log *logrus.Logger) *Exporter {
	if log == nil {
		log = logrus.New()
	}
	return &Exporter{blobs: blobs, converter: converter, clock: time.Now, log: log}
}

// ExportOne converts a single recording to MP3. Missing audio is an error
// here, unlike the batch path.
func (x *Exporter) ExportOne(ctx context.Context, item Item, includeNotes bool) (Result, []byte, error) {
	const op = "export.Exporter.ExportOne"

	blob, err := x.blobs.Load(ctx, item.ID)
	if err != nil {
		return Result{}, nil, utils.E(utils.CodeNotFound, op, "recording audio not found", err)
	}
	mp3, err := x.converter.Convert(ctx, blob)
	if err != nil {
		return Result{}, nil, err
	}

	res := Result{
		Filename:    FileName(item, 0),
		ContentType: audio.MIMEMpeg,
		Data:        mp3.Data,
		Added:       1,
	}
	var notes []byte
	if includeNotes {
		notes = []byte(notesSidecar(item))
	}
	return res, notes, nil
}

// ExportBatch converts the selected recordings and packs them into a zip
// archive with one folder per category. Recordings sharing a sanitized name
// get " (n)" suffixes after the first. Audio that cannot be loaded or
// converted lands in Missing and the archive is produced without it.
func (x *Exporter) ExportBatch(ctx context.Context, items []Item, includeNotes bool) (Result, error) {
	const op = "export.Exporter.ExportBatch"

	numbers := assignNumbers(items)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	res := Result{
		Filename:    fmt.Sprintf("recordings-%s.zip", x.clock().Format("2006-01-02-1504")),
		ContentType: "application/zip",
	}

	for _, item := range items {
		blob, err := x.blobs.Load(ctx, item.ID)
		if err != nil {
			x.log.WithError(err).WithField("recording_id", item.ID).Warn("skipping recording without audio")
			res.Missing = append(res.Missing, item.ID)
			continue
		}
		mp3, err := x.converter.Convert(ctx, blob)
		if err != nil {
			x.log.WithError(err).WithField("recording_id", item.ID).Warn("skipping recording that failed to convert")
			res.Missing = append(res.Missing, item.ID)
			continue
		}

		category := item.Category
		if category == "" {
			category = DefaultCategory
		}
		dir := SanitizeName(category)
		name := FileName(item, numbers[item.ID])

		if err := writeZipFile(zw, dir+"/"+name, mp3.Data); err != nil {
			return Result{}, utils.E(utils.CodeInternal, op, "write archive entry", err)
		}
		if includeNotes {
			sidecar := strings.TrimSuffix(name, ".mp3") + ".txt"
			if err := writeZipFile(zw, dir+"/"+sidecar, []byte(notesSidecar(item))); err != nil {
				return Result{}, utils.E(utils.CodeInternal, op, "write notes entry", err)
			}
		}
		res.Added++
	}

	if err := zw.Close(); err != nil {
		return Result{}, utils.E(utils.CodeInternal, op, "finalize archive", err)
	}
	res.Data = buf.Bytes()
	return res, nil
}

func writeZipFile(zw *zip.Writer, path string, data []byte) error {
	w, err := zw.Create(path)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// assignNumbers gives each later duplicate of a sanitized base name a
// sequential number; the first occurrence keeps the bare name.
func assignNumbers(items []Item) map[uint]int {
	counts := map[string]int{}
	numbers := make(map[uint]int, len(items))
	for _, item := range items {
		base := baseName(item)
		numbers[item.ID] = counts[base]
		counts[base]++
	}
	return numbers
}

func baseName(item Item) string {
	name := item.Name
	if name == "" {
		name = fmt.Sprintf("recording-%d", item.ID)
	}
	return SanitizeName(name)
}

// FileName builds the exported MP3 name: the sanitized recording name, a
// " (n)" suffix for duplicates past the first, and the .mp3 extension.
func FileName(item Item, number int) string {
	base := baseName(item)
	if number > 0 {
		return fmt.Sprintf("%s (%d).mp3", base, number)
	}
	return base + ".mp3"
}

func notesSidecar(item Item) string {
	category := item.Category
	if category == "" {
		category = DefaultCategory
	}
	notes := item.Notes
	if notes == "" {
		notes = "No notes added"
	}
	return fmt.Sprintf("Recording: %s\nDate: %s\nDuration: %s\nCategory: %s\n\nNotes:\n%s",
		item.Name,
		item.CreatedAt.Format("2006-01-02 at 15:04"),
		formatDuration(item.DurationMS),
		category,
		notes)
}

func formatDuration(ms int64) string {
	seconds := ms / 1000
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
