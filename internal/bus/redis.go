package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const channelName = "ideagate:chat:events"

// RedisBridge fans events out across server instances. Local
// subscribers are served by the wrapped Bus; every publish is also
// mirrored to a Redis channel, and events arriving from other origins
// are replayed into the local bus.
type RedisBridge struct {
	local  *Bus
	client *redis.Client
	origin string
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisBridge(redisURL, origin string, local *Bus) (*RedisBridge, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisBridgeWithClient(client, origin, local), nil
}

// NewRedisBridgeWithClient wires a bridge onto an existing client.
func NewRedisBridgeWithClient(client *redis.Client, origin string, local *Bus) *RedisBridge {
	bridge := &RedisBridge{
		local:  local,
		client: client,
		origin: origin,
		done:   make(chan struct{}),
	}
	runCtx, runCancel := context.WithCancel(context.Background())
	bridge.cancel = runCancel
	go bridge.run(runCtx)
	return bridge
}

// Publish serves local subscribers immediately and mirrors the event
// to Redis for other instances. A Redis failure is logged, never
// propagated; the local fan-out already happened.
func (b *RedisBridge) Publish(event Event) {
	event.Origin = b.origin
	if event.At.IsZero() {
		event.At = time.Now()
	}
	b.local.Publish(event)

	encoded, err := json.Marshal(event)
	if err != nil {
		log.Printf("encode bus event: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, channelName, encoded).Err(); err != nil {
		log.Printf("mirror bus event to redis: %v", err)
	}
}

func (b *RedisBridge) run(ctx context.Context) {
	defer close(b.done)
	sub := b.client.Subscribe(ctx, channelName)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("decode bus event from redis: %v", err)
				continue
			}
			// Events this instance published were already fanned out.
			if event.Origin == b.origin {
				continue
			}
			b.local.Publish(event)
		}
	}
}

func (b *RedisBridge) Close() error {
	b.cancel()
	<-b.done
	return b.client.Close()
}
