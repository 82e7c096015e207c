package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("producer closed")

const writeTimeout = 10 * time.Second

// messageWriter is the part of *kafka.Writer the loop needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages in an inbox drained by one writer goroutine.
type Producer struct {
	w     messageWriter
	log   *slog.Logger
	inbox chan kafka.Message

	mu     sync.Mutex
	closed bool

	doneCh chan struct{}
}

func NewProducer(brokers []string, topic string, buf int, log *slog.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, buf, log)
}

func newProducer(w messageWriter, buf int, log *slog.Logger) *Producer {
	if buf <= 0 {
		buf = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Producer{
		w:      w,
		log:    log.With("component", "kafka-producer"),
		inbox:  make(chan kafka.Message, buf),
		doneCh: make(chan struct{}),
	}
}

// Start runs the writer loop until Close is called or ctx is done; either way
// the remaining buffered messages are flushed first.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.doneCh)
		stop := context.AfterFunc(ctx, p.Close)
		defer stop()

		for m := range p.inbox {
			p.write(m)
		}
		if err := p.w.Close(); err != nil {
			p.log.Error("close writer", "err", err)
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.log.Error("publish failed", "key", string(m.Key), "err", err)
	}
}

// Publish enqueues a message. It blocks while the inbox is full, up to ctx.
func (p *Producer) Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.inbox <- kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting messages. Safe to call more than once.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// Tunggu sampai goroutine selesai flush.
func (p *Producer) WaitClosed() { <-p.doneCh }
