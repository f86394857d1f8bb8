package workers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jaydeesquared/FlagIt/internal/providers/stt"
	"github.com/jaydeesquared/FlagIt/internal/services"
)

// RecognitionWorkerPool drains captured audio chunks off a Redis stream,
// runs them through speech recognition, and publishes the transcripts on
// per-session channels where the voice-trigger detector listens.
type RecognitionWorkerPool struct {
	Redis      *redis.Client
	Journal    services.JournalService
	NumWorkers int

	STT stt.Provider

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *RecognitionWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Journal == nil || p.STT == nil {
		return errors.New("RecognitionWorkerPool missing dependency: Redis/Journal/STT must be set")
	}
	if p.Stream == "" {
		p.Stream = "capture:chunks"
	}
	if p.Group == "" {
		p.Group = "recognition-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 5
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *RecognitionWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func normalizeLanguage(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "en-US"
	}
	switch v {
	case "en":
		return "en-US"
	default:
		return v
	}
}

func (p *RecognitionWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	sessionID := getStr("session_id")
	chunkIndexStr := getStr("chunk_index")
	if sessionID == "" || chunkIndexStr == "" {
		return
	}
	chunkIndex, _ := strconv.ParseInt(chunkIndexStr, 10, 64)

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":    msg.ID,
		"session_id":  sessionID,
		"chunk_index": chunkIndex,
	})

	transcriptCh := "session:" + sessionID + ":transcript"
	statusCh := "session:" + sessionID + ":status"

	language := normalizeLanguage(getStr("language"))

	var audioBytes []byte
	if b64 := getStr("audio_base64"); b64 != "" {
		raw := b64
		if i := strings.Index(raw, ","); i >= 0 {
			raw = raw[i+1:] // strip data:...;base64,
		}
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			log.WithError(err).Warn("base64 decode failed")
			_ = p.Journal.MarkSTT(ctx, sessionID, chunkIndex, "", "failed")
			_ = p.Redis.Publish(ctx, statusCh, `{"type":"status","status":"failed","message":"invalid audio_base64","chunk_index":`+strconv.FormatInt(chunkIndex, 10)+`}`).Err()
			return
		}
		audioBytes = decoded
	} else {
		return
	}

	_ = p.Journal.MarkSTT(ctx, sessionID, chunkIndex, "", "processing")

	text, conf, err := p.STT.Transcribe(ctx, audioBytes, language)
	if err != nil {
		log.WithError(err).Error("stt failed")
		_ = p.Journal.MarkSTT(ctx, sessionID, chunkIndex, "", "failed")
		_ = p.Redis.Publish(ctx, statusCh, `{"type":"status","status":"failed","message":"stt failed","chunk_index":`+strconv.FormatInt(chunkIndex, 10)+`}`).Err()
		return
	}

	_ = p.Journal.MarkSTT(ctx, sessionID, chunkIndex, text, "done")

	payload, _ := json.Marshal(map[string]any{
		"type":        "transcript",
		"chunk_index": chunkIndex,
		"text":        text,
		"confidence":  conf,
		"is_final":    true,
	})
	_ = p.Redis.Publish(ctx, transcriptCh, string(payload)).Err()
	_ = p.Redis.Publish(ctx, statusCh, `{"type":"status","status":"done","message":"chunk processed","chunk_index":`+strconv.FormatInt(chunkIndex, 10)+`}`).Err()
}
