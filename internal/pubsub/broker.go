// Package pubsub implements the cross-process broker publisher: a thin
// envelope over Redis PUBLISH/SUBSCRIBE carrying the same PubSubItem union
// the in-process streaming manager fans out.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/eddist-go/bbs/internal/bbsdomain"
)

const (
	ChannelPubSubItem    = "bbs:pubsubitem"
	ChannelResCreated    = "event:res_created"
	ChannelThreadCreated = "event:thread_created"
)

// envelope is the wire shape published on ChannelPubSubItem.
type envelope struct {
	Kind           bbsdomain.PubSubItemKind `json:"kind"`
	CreatingRes    *bbsdomain.CreatingRes    `json:"creating_res,omitempty"`
	CreatingThread *bbsdomain.CreatingThread `json:"creating_thread,omitempty"`
}

// Publisher publishes PubSubItems to Redis. Failures are logged and
// swallowed: broker publish is fire-and-forget with respect to the write
// path that triggered it.
type Publisher struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewPublisher builds a Publisher backed by client.
func NewPublisher(client *redis.Client, logger zerolog.Logger) *Publisher {
	return &Publisher{redis: client, logger: logger}
}

// Publish fans item out to ChannelPubSubItem and, for the response/thread
// variants, to the narrower event:res_created/event:thread_created
// channels consumed by lighter subscribers.
func (p *Publisher) Publish(ctx context.Context, item bbsdomain.PubSubItem) {
	env := envelope{Kind: item.Kind, CreatingRes: item.CreatingRes, CreatingThread: item.CreatingThread}
	data, err := json.Marshal(env)
	if err != nil {
		p.logger.Error().Err(err).Msg("pubsub: marshal envelope failed")
		return
	}

	if err := p.redis.Publish(ctx, ChannelPubSubItem, data).Err(); err != nil {
		p.logger.Error().Err(err).Str("channel", ChannelPubSubItem).Msg("pubsub: publish failed")
	}

	switch item.Kind {
	case bbsdomain.KindCreatingRes:
		p.publishNarrow(ctx, ChannelResCreated, item.CreatingRes)
	case bbsdomain.KindCreatingThread:
		p.publishNarrow(ctx, ChannelThreadCreated, item.CreatingThread)
	}
}

func (p *Publisher) publishNarrow(ctx context.Context, channel string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error().Err(err).Str("channel", channel).Msg("pubsub: marshal narrow payload failed")
		return
	}
	if err := p.redis.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Error().Err(err).Str("channel", channel).Msg("pubsub: publish failed")
	}
}

// Subscriber consumes ChannelPubSubItem for cross-process consumers; the
// serve command does not start one.
type Subscriber struct {
	redis *redis.Client
}

// NewSubscriber builds a Subscriber backed by client.
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{redis: client}
}

// Run subscribes to ChannelPubSubItem and invokes handle for each decoded
// item until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context, handle func(bbsdomain.PubSubItem)) error {
	sub := s.redis.Subscribe(ctx, ChannelPubSubItem)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("pubsub: subscription channel closed")
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			handle(bbsdomain.PubSubItem{Kind: env.Kind, CreatingRes: env.CreatingRes, CreatingThread: env.CreatingThread})
		}
	}
}
