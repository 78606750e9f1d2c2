package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/careeyes/fod/internal/models"
)

// DetectionHandler processes one decoded detector report. A returned error
// naks the message for redelivery unless it wraps ErrDropDetection.
type DetectionHandler func(ctx context.Context, d models.Detection) error

type Consumer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewConsumer(natsURL string) (*Consumer, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &Consumer{nc: nc, js: js}, nil
}

// ConsumeDetections starts a durable consumer on the DETECTIONS stream.
func (c *Consumer) ConsumeDetections(ctx context.Context, consumerName string, handler DetectionHandler) error {
	stream, err := c.js.Stream(ctx, DetectionsStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", DetectionsStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
		FilterSubject: DetectionsSubjectBase + ".>",
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("fetch detections error", "error", err)
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				handleDetectionMsg(ctx, msg, handler)
			}
		}
	}()

	slog.Info("detection consumer started", "consumer", consumerName)
	return nil
}

// ErrDropDetection tells the consumer a detection can never succeed and must
// not be redelivered.
var ErrDropDetection = errors.New("drop detection")

// ackable is the subset of jetstream.Msg the consumer uses.
type ackable interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
	Term() error
}

func handleDetectionMsg(ctx context.Context, msg ackable, handler DetectionHandler) {
	var d models.Detection
	if err := json.Unmarshal(msg.Data(), &d); err != nil {
		slog.Error("malformed detection dropped", "subject", msg.Subject(), "error", err)
		_ = msg.Term()
		return
	}
	if err := handler(ctx, d); err != nil {
		if errors.Is(err, ErrDropDetection) {
			slog.Error("detection dropped", "subject", msg.Subject(), "error", err)
			_ = msg.Term()
			return
		}
		slog.Error("process detection error", "subject", msg.Subject(), "error", err)
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

// SubscribeControl delivers ingestor control commands published on ControlSubject.
func (c *Consumer) SubscribeControl(handler func(ControlCommand)) (*nats.Subscription, error) {
	return c.nc.Subscribe(ControlSubject, func(msg *nats.Msg) {
		var cmd ControlCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			slog.Error("invalid control message", "error", err)
			return
		}
		handler(cmd)
	})
}

func (c *Consumer) Close() {
	c.nc.Close()
}
