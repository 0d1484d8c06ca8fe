package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/bitwisdom/site-assistant/internal/model"
)

const (
	// StreamName is the name of the chatbot analytics stream.
	StreamName = "CHATBOT"

	// SubjectPrefix is the prefix for all chat-turn subjects.
	SubjectPrefix = "chatbot.turn"

	// tailBatchSize is how many messages one tail fetch pulls.
	tailBatchSize = 256

	streamMaxAge = 90 * 24 * time.Hour
)

// TurnStream publishes and reads chat-turn events.
type TurnStream struct {
	js jetstream.JetStream
}

// NewTurnStream creates a new turn stream over a connected client.
func NewTurnStream(client *Client) *TurnStream {
	return &TurnStream{js: client.JetStream()}
}

// EnsureStream creates the stream when it does not exist yet.
func (s *TurnStream) EnsureStream(ctx context.Context) error {
	_, err := s.js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = s.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      streamMaxAge,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Chatbot turn analytics",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// TurnSubject returns the subject for a turn answered in the given mode.
func TurnSubject(mode string) string {
	if mode == "" {
		mode = "unknown"
	}
	return fmt.Sprintf("%s.%s", SubjectPrefix, mode)
}

// PublishTurn publishes one turn event.
func (s *TurnStream) PublishTurn(ctx context.Context, event *model.TurnEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal turn event: %w", err)
	}

	if _, err := s.js.Publish(ctx, TurnSubject(event.Mode), data, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("failed to publish turn event: %w", err)
	}
	return nil
}

// RecentTurns returns the most recent limit events, oldest first,
// optionally restricted to one mode. It reads a window at the tail of the
// stream and widens it until enough matching events are found or the window
// covers the whole stream.
func (s *TurnStream) RecentTurns(ctx context.Context, mode string, limit int) ([]model.TurnEvent, error) {
	if limit <= 0 {
		return []model.TurnEvent{}, nil
	}

	filter := SubjectPrefix + ".>"
	if mode != "" {
		filter = TurnSubject(mode)
	}

	stream, err := s.js.Stream(ctx, StreamName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up stream: %w", err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream info: %w", err)
	}
	state := info.State
	if state.Msgs == 0 {
		return []model.TurnEvent{}, nil
	}

	window := uint64(limit)
	for {
		start := state.FirstSeq
		if state.LastSeq-state.FirstSeq+1 > window {
			start = state.LastSeq - window + 1
		}

		events, err := s.readTail(ctx, filter, start, state.LastSeq, limit)
		if err != nil {
			return nil, err
		}
		if len(events) >= limit || start == state.FirstSeq {
			return events, nil
		}
		window *= 4
	}
}

// readTail reads matching events with stream sequences in [start, last]
// and keeps the final limit of them.
func (s *TurnStream) readTail(ctx context.Context, filter string, start, last uint64, limit int) ([]model.TurnEvent, error) {
	consumer, err := s.js.OrderedConsumer(ctx, StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{filter},
		DeliverPolicy:  jetstream.DeliverByStartSequencePolicy,
		OptStartSeq:    start,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	events := make([]model.TurnEvent, 0, limit)
	for {
		batch, err := consumer.FetchNoWait(tailBatchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch turn events: %w", err)
		}

		var received int
		reachedEnd := false
		for msg := range batch.Messages() {
			received++
			if meta, err := msg.Metadata(); err == nil && meta.Sequence.Stream >= last {
				reachedEnd = true
			}

			var event model.TurnEvent
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				continue
			}
			events = append(events, event)
			if len(events) > limit {
				events = events[1:]
			}
		}

		if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, jetstream.ErrNoMessages) {
			return nil, fmt.Errorf("batch error: %w", err)
		}
		if reachedEnd || received == 0 {
			return events, nil
		}
	}
}
