// internal/pubsub/pubsub.go
package pubsub

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Channel is the well-known Redis channel that carries sync trigger messages.
const Channel = "sync"

// Publisher pushes trigger messages onto the sync channel.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish sends the message and returns the number of subscribers that
// received it.
func (p *Publisher) Publish(ctx context.Context, msg Message) (int64, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}
	n, err := p.rdb.Publish(ctx, Channel, raw).Result()
	if err != nil {
		return 0, err
	}
	log.Printf("📡 [PUBSUB] Published message %s (subscribers: %d)", msg.ID, n)
	return n, nil
}

// Subscriber is the long-lived worker that listens on the sync channel and
// runs the sync engine for every decodable message. The engine's own job
// lock enforces single-flight, so a burst of messages only results in one
// run plus cheap no-ops.
type Subscriber struct {
	rdb    *redis.Client
	run    func(ctx context.Context)
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSubscriber(rdb *redis.Client, run func(ctx context.Context)) *Subscriber {
	return &Subscriber{
		rdb:  rdb,
		run:  run,
		done: make(chan struct{}),
	}
}

// Start subscribes to the channel and spawns the receive loop. It returns
// once the subscription is confirmed so callers know triggers will be seen.
func (s *Subscriber) Start(ctx context.Context) error {
	subCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	sub := s.rdb.Subscribe(subCtx, Channel)
	if _, err := sub.Receive(subCtx); err != nil {
		// The loop never started, so nothing will close done; a later
		// Stop must not wait on it.
		cancel()
		s.cancel = nil
		_ = sub.Close()
		return err
	}

	go s.loop(subCtx, sub)
	log.Printf("📡 [PUBSUB] Subscribed to channel %q", Channel)
	return nil
}

// Stop unsubscribes and waits for the receive loop (and any in-flight sync
// run it started) to finish.
func (s *Subscriber) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Subscriber) loop(ctx context.Context, sub *redis.PubSub) {
	defer close(s.done)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Println("📡 [PUBSUB] Subscriber stopping")
			return
		case raw, ok := <-ch:
			if !ok {
				log.Println("📡 [PUBSUB] Subscription channel closed")
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				// Not fatal: junk on the channel is logged and skipped.
				log.Printf("⚠️ [PUBSUB] Ignoring undecodable message: %v", err)
				continue
			}
			log.Printf("📡 [PUBSUB] Message received: id=%s payload=%q", msg.ID, msg.Payload)
			s.run(ctx)
		}
	}
}
