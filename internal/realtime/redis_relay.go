package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const DefaultRelayChannel = "taskhub:events"

// defaultOutbox bounds events waiting to be published.
const defaultOutbox = 256

type relayMessage struct {
	UserID string          `json:"userId"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// RedisRelay fans pushes out through a Redis channel so that every instance
// delivers to the connections it holds locally.
type RedisRelay struct {
	rc             *redis.Client
	channel        string
	local          *Registry
	outbox         chan []byte
	publishTimeout time.Duration
	retryDelay     time.Duration
}

func NewRedisRelay(rc *redis.Client, channel string, local *Registry) *RedisRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	return &RedisRelay{
		rc:             rc,
		channel:        channel,
		local:          local,
		outbox:         make(chan []byte, defaultOutbox),
		publishTimeout: 2 * time.Second,
		retryDelay:     time.Second,
	}
}

// Push queues the event for publishing and returns immediately. A full
// queue drops the event; publish failures are logged and dropped.
func (r *RedisRelay) Push(userID, event string, payload interface{}) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		log.Errorf("[relay][publish][err] user=%s event=%s: %v", userID, event, err)
		return
	}
	msg, err := sonic.Marshal(relayMessage{UserID: userID, Event: event, Data: data})
	if err != nil {
		log.Errorf("[relay][publish][err] user=%s event=%s: %v", userID, event, err)
		return
	}
	select {
	case r.outbox <- msg:
	default:
		log.Warnf("[relay][publish][drop] user=%s event=%s outbox full", userID, event)
	}
}

func (r *RedisRelay) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.outbox:
			pctx, cancel := context.WithTimeout(ctx, r.publishTimeout)
			if err := r.rc.Publish(pctx, r.channel, msg).Err(); err != nil {
				log.Warnf("[relay][publish][err] channel=%s: %v", r.channel, err)
			}
			cancel()
		}
	}
}

// Run subscribes to the relay channel and delivers every message to the
// local registry until ctx is cancelled. A dropped subscription is reopened.
// It also drains the publish queue filled by Push.
func (r *RedisRelay) Run(ctx context.Context) {
	go r.publishLoop(ctx)
	for {
		sub := r.rc.Subscribe(ctx, r.channel)
		if _, err := sub.Receive(ctx); err != nil {
			_ = sub.Close()
			if ctx.Err() != nil {
				return
			}
			log.Warnf("[relay][subscribe][err] channel=%s: %v", r.channel, err)
			if !sleepCtx(ctx, r.retryDelay) {
				return
			}
			continue
		}
		log.Infof("[relay][subscribe][ok] channel=%s", r.channel)

		r.consume(ctx, sub.Channel())
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		log.Error("[relay] pubsub channel closed, reconnecting")
		if !sleepCtx(ctx, r.retryDelay) {
			return
		}
	}
}

func (r *RedisRelay) consume(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var m relayMessage
			if err := sonic.UnmarshalString(msg.Payload, &m); err != nil {
				log.Errorf("[relay][decode][err] %v", err)
				continue
			}
			if m.UserID == "" || m.Event == "" {
				continue
			}
			r.local.Push(m.UserID, m.Event, m.Data)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
