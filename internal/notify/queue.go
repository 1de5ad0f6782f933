package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/course_enrollment/internal/logging"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sender is anything able to deliver a verification code to an address.
type Sender interface {
	SendVerification(ctx context.Context, to, code string) error
}

// QueueNotifier hands verification emails to Kafka; Worker delivers them.
type QueueNotifier struct {
	w messageWriter
}

func NewQueueNotifier(brokers []string, topic string) *QueueNotifier {
	return &QueueNotifier{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
	}
}

func (q *QueueNotifier) SendVerification(ctx context.Context, to, code string) error {
	data, err := json.Marshal(VerificationEmail{To: to, Code: code})
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	if err := q.w.WriteMessages(ctx, kafka.Message{Key: []byte(to), Value: data}); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (q *QueueNotifier) Close() error { return q.w.Close() }

type Worker struct {
	r      messageReader
	sender Sender
}

func NewWorker(brokers []string, topic, groupID string, sender Sender) *Worker {
	return &Worker{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
			MaxWait:  time.Second,
		}),
		sender: sender,
	}
}

// Run consumes until ctx is cancelled. Undeliverable messages are logged and
// committed; the user can ask for the code again.
func (w *Worker) Run(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "notify.worker")
	for {
		m, err := w.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("kafka: fetch failed: %w", err)
		}

		var msg VerificationEmail
		if err := json.Unmarshal(m.Value, &msg); err != nil || msg.To == "" || msg.Code == "" {
			l.Error("verification_email_dropped", "reason", "malformed message", "offset", m.Offset, "error", err)
		} else if err := w.sender.SendVerification(ctx, msg.To, msg.Code); err != nil {
			l.Error("verification_email_failed", "to", msg.To, "error", err)
		} else {
			l.Info("verification_email_sent", "to", msg.To)
		}

		if err := w.r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka: commit failed: %w", err)
		}
	}
}

func (w *Worker) Close() error { return w.r.Close() }
