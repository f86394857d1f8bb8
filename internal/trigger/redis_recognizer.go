package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var errAlreadyListening = errors.New("recognizer already listening")

type transcriptMsg struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
}

// RedisRecognizer feeds transcripts published by the recognition workers
// into the detector. Each Start subscribes to the session's transcript
// channel; Stop tears the subscription down and emits a natural end so the
// detector can decide whether to re-arm.
type RedisRecognizer struct {
	rdb       *redis.Client
	sessionID string
	log       *logrus.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    int
	events chan Event
}

func NewRedisRecognizer(rdb *redis.Client, sessionID string, log *logrus.Logger) *RedisRecognizer {
	if log == nil {
		log = logrus.New()
	}
	return &RedisRecognizer{
		rdb:       rdb,
		sessionID: sessionID,
		log:       log,
		events:    make(chan Event, 16),
	}
}

func (r *RedisRecognizer) Events() <-chan Event { return r.events }

func (r *RedisRecognizer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return errAlreadyListening
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.gen++
	gen := r.gen

	sub := r.rdb.Subscribe(ctx, "session:"+r.sessionID+":transcript")
	go r.pump(ctx, gen, sub)
	return nil
}

func (r *RedisRecognizer) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (r *RedisRecognizer) pump(ctx context.Context, gen int, sub *redis.PubSub) {
	defer func() {
		_ = sub.Close()
		r.mu.Lock()
		if r.gen == gen {
			r.cancel = nil
		}
		r.mu.Unlock()
		r.emit(Event{Kind: EventEnd})
	}()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				r.emit(Event{Kind: EventError, Code: ErrNetwork})
				return
			}
			var tm transcriptMsg
			if err := json.Unmarshal([]byte(msg.Payload), &tm); err != nil {
				r.log.WithError(err).Warn("bad transcript payload")
				continue
			}
			if tm.Type != "transcript" || tm.Text == "" {
				continue
			}
			r.emit(Event{Kind: EventResult, Transcript: tm.Text, Final: tm.IsFinal})
		}
	}
}

func (r *RedisRecognizer) emit(e Event) {
	select {
	case r.events <- e:
	default:
		// detector fell behind; dropping is safer than blocking the pump
	}
}
