package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/capture"
	"github.com/jaydeesquared/FlagIt/internal/services"
	"github.com/jaydeesquared/FlagIt/internal/trigger"
)

const captureStream = "capture:chunks"

// CaptureWSHandler runs one live recording per WebSocket connection. Audio
// chunks stream in from the client, get journaled and queued for speech
// recognition; transcripts come back over Redis pub/sub and feed the voice
// trigger detector, whose markers are pushed to the client as they land.
type CaptureWSHandler struct {
	journal    services.JournalService
	recordings services.RecordingService
	flags      services.FlagService
	redis      *redis.Client
	log        *logrus.Logger
	upgrader   websocket.Upgrader
}

func NewCaptureWSHandler(journal services.JournalService, recordings services.RecordingService, flags services.FlagService, rdb *redis.Client, log *logrus.Logger) *CaptureWSHandler {
	if log == nil {
		log = logrus.New()
	}
	return &CaptureWSHandler{
		journal:    journal,
		recordings: recordings,
		flags:      flags,
		redis:      rdb,
		log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type captureClientMsg struct {
	Type        string `json:"type"`
	ChunkIndex  int64  `json:"chunk_index"`
	AudioBase64 string `json:"audio_base64"`
	ContentType string `json:"content_type"`
	Language    string `json:"language"`

	// stop fields
	Name       string `json:"name"`
	Category   string `json:"category"`
	CategoryID *uint  `json:"category_id"`
	Notes      string `json:"notes"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.writeText(b)
}

// wsStream adapts the chunk messages arriving over the socket into the
// capture session's stream contract.
type wsStream struct {
	mu          sync.Mutex
	pending     []byte
	contentType string
	closed      bool
}

func newWSStream(contentType string) *wsStream {
	if contentType == "" {
		contentType = audio.MIMEWebM
	}
	return &wsStream{contentType: contentType}
}

func (s *wsStream) Push(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = append(s.pending, data...)
}

func (s *wsStream) Flush() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("stream closed")
	}
	out := s.pending
	s.pending = nil
	return out, nil
}

func (s *wsStream) ContentType() string { return s.contentType }

func (s *wsStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = nil
	return nil
}

// wsDevice hands out the connection's stream. The permission gate already
// happened client-side before any bytes reach us, so Open cannot fail here.
type wsDevice struct {
	stream *wsStream
}

func (d wsDevice) Open(context.Context) (capture.Stream, error) {
	return d.stream, nil
}

func (h *CaptureWSHandler) CaptureWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx := c.Request.Context()

	sessionID := uuid.NewString()
	stream := newWSStream(c.Query("content_type"))
	log := h.log.WithField("session_id", sessionID)

	var sess *capture.Session
	detector := trigger.NewDetector(trigger.Config{
		Recognizer: trigger.NewRedisRecognizer(h.redis, sessionID, h.log),
		AddMarker: func(source string, voice bool) bool {
			_, ok := sess.AddMarker(source, voice)
			return ok
		},
		Recording: func() bool { return sess.Recording() },
		OnAdvisory: func(msg string) {
			_ = wc.writeJSON(gin.H{"type": "advisory", "message": msg})
		},
		// Opening the socket is the user's gesture.
		UserActivated: true,
		Logger:        h.log,
	})
	sess, err = capture.OpenSession(ctx, wsDevice{stream: stream}, h.log,
		capture.WithDetector(detector),
		capture.WithMarkerListener(func(m capture.Marker) {
			_ = wc.writeJSON(gin.H{
				"type":      "marker",
				"offset_ms": m.OffsetMS,
				"source":    m.Source,
				"voice":     m.Voice,
			})
		}),
	)
	if err != nil {
		_ = wc.writeJSON(gin.H{"type": "error", "code": "FAILED_PRECONDITION", "message": err.Error()})
		return
	}

	// transcripts and worker status fan back out over the socket
	statusSub := h.redis.Subscribe(ctx,
		"session:"+sessionID+":transcript",
		"session:"+sessionID+":status",
	)
	defer statusSub.Close()
	go func() {
		for {
			m, rerr := statusSub.ReceiveMessage(ctx)
			if rerr != nil {
				return
			}
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}()

	defer func() {
		// connection dropped mid-recording: finalize without persisting
		if sess.Recording() {
			if _, serr := sess.Stop(); serr != nil {
				log.WithError(serr).Warn("abandoned capture discarded")
			}
		}
	}()

	_ = wc.writeJSON(gin.H{"type": "ready", "session_id": sessionID})

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg captureClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
			continue
		}

		switch msg.Type {
		case "start":
			if err := sess.Start(); err != nil {
				_ = wc.writeJSON(gin.H{"type": "error", "code": "FAILED_PRECONDITION", "message": err.Error()})
				continue
			}
			detector.Start()
			_ = wc.writeJSON(gin.H{"type": "started", "session_id": sessionID})

		case "audio_chunk":
			h.handleChunk(c, wc, log, sessionID, stream, sess, msg)

		case "marker":
			m, ok := sess.AddMarker("Manual", false)
			if !ok {
				_ = wc.writeText([]byte(`{"type":"error","code":"FAILED_PRECONDITION","message":"not recording"}`))
				continue
			}
			_ = m // the marker listener already acked it

		case "stop":
			h.handleStop(c, wc, log, sess, msg)
			return

		default:
			_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
		}
	}
}

func (h *CaptureWSHandler) handleChunk(c *gin.Context, wc *wsConn, log *logrus.Entry, sessionID string, stream *wsStream, sess *capture.Session, msg captureClientMsg) {
	ctx := c.Request.Context()

	if msg.ChunkIndex <= 0 {
		_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"chunk_index must be > 0"}`))
		return
	}
	if msg.AudioBase64 == "" {
		_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"audio_base64 required"}`))
		return
	}

	raw, err := base64.StdEncoding.DecodeString(msg.AudioBase64)
	if err != nil {
		_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid audio_base64"}`))
		return
	}

	stream.Push(raw)

	if _, err := h.journal.AppendChunk(ctx, sessionID, msg.ChunkIndex, len(raw), stream.ContentType(), sess.ElapsedMS()); err != nil {
		log.WithError(err).Warn("journal append failed")
	}

	if err := h.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: captureStream,
		Values: map[string]any{
			"session_id":   sessionID,
			"chunk_index":  strconv.FormatInt(msg.ChunkIndex, 10),
			"audio_base64": msg.AudioBase64,
			"language":     msg.Language,
			"ts_unix":      strconv.FormatInt(time.Now().UTC().Unix(), 10),
		},
	}).Err(); err != nil {
		// recognition is best effort; the capture itself keeps going
		log.WithError(err).Warn("failed to enqueue chunk for recognition")
	}
}

func (h *CaptureWSHandler) handleStop(c *gin.Context, wc *wsConn, log *logrus.Entry, sess *capture.Session, msg captureClientMsg) {
	ctx := c.Request.Context()

	res, err := sess.Stop()
	if err != nil {
		_ = wc.writeJSON(gin.H{"type": "error", "code": "NO_AUDIO", "message": err.Error()})
		return
	}

	name := msg.Name
	if name == "" {
		name = "Recording " + time.Now().Format("2006-01-02 15:04")
	}

	rec, err := h.recordings.Create(ctx, name, msg.Category, msg.CategoryID, res.ElapsedMS, msg.Notes)
	if err != nil {
		_ = wc.writeJSON(gin.H{"type": "error", "code": "INTERNAL", "message": "failed to create recording"})
		return
	}
	if err := h.recordings.SaveAudio(ctx, rec.ID, res.Blob); err != nil {
		log.WithError(err).Error("failed to store captured audio")
		_ = wc.writeJSON(gin.H{"type": "error", "code": "INTERNAL", "message": "failed to store audio"})
		return
	}

	created := 0
	for _, m := range res.Markers {
		if _, ferr := h.flags.Create(ctx, rec.ID, m.OffsetMS, "", m.Source); ferr != nil {
			log.WithError(ferr).Warn("failed to persist marker")
			continue
		}
		created++
	}

	_ = wc.writeJSON(gin.H{
		"type":          "stopped",
		"recording":     rec,
		"flags_created": created,
	})
}
