package walletevents

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox/registry"
)

type publisherSource interface {
	Publisher(name string) *gcppubsub.Publisher
}

// PubSubSink publishes wallet events with per-wallet ordering enabled.
type PubSubSink struct {
	source publisherSource

	mu         sync.Mutex
	publishers map[string]*gcppubsub.Publisher
}

func NewPubSubSink(source publisherSource) *PubSubSink {
	return &PubSubSink{source: source, publishers: make(map[string]*gcppubsub.Publisher)}
}

func (s *PubSubSink) Send(ctx context.Context, topic string, msg *gcppubsub.Message) error {
	pub, err := s.publisher(topic)
	if err != nil {
		return err
	}
	if _, err := pub.Publish(ctx, msg).Get(ctx); err != nil {
		if msg.OrderingKey != "" {
			// An ordered publish failure pauses the key until resumed.
			pub.ResumePublish(msg.OrderingKey)
		}
		return err
	}
	return nil
}

func (s *PubSubSink) publisher(topic string) (*gcppubsub.Publisher, error) {
	if topic == "" {
		return nil, registry.NewNonRetryableError(errors.New("event has no topic"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pub, ok := s.publishers[topic]; ok {
		return pub, nil
	}
	if s.source == nil {
		return nil, registry.NewNonRetryableError(errors.New("pubsub client not configured"))
	}
	pub := s.source.Publisher(topic)
	if pub == nil {
		return nil, registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}
	pub.EnableMessageOrdering = true
	s.publishers[topic] = pub
	return pub, nil
}

// Stop flushes and stops every cached publisher.
func (s *PubSubSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for topic, pub := range s.publishers {
		pub.Stop()
		delete(s.publishers, topic)
	}
}
