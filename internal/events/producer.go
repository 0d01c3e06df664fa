package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer publishes envelopes to Kafka through a buffered inbox so that
// HTTP requests never block on the broker. Close the inbox and WaitClosed
// to flush the remainder on shutdown.
type Producer struct {
	w         *kafka.Writer
	log       *zap.Logger
	inbox     chan kafka.Message
	closeCh   chan struct{}
	closeOnce sync.Once
	doneOnce  sync.Once
}

func NewProducer(brokers []string, log *zap.Logger, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        TopicStockMovements,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		log:     log,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer p.finish()
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					return
				}
				p.write(m)
			}
		}
	}()
}

// drain flushes whatever is buffered without waiting for more.
func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				return
			}
			p.write(m)
		default:
			return
		}
	}
}

func (p *Producer) finish() {
	_ = p.w.Close()
	p.doneOnce.Do(func() { close(p.closeCh) })
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Warn("kafka write failed", zap.Error(err), zap.ByteString("key", m.Key))
	}
}

// Publish enqueues one envelope. Events are best-effort: a full inbox drops
// the event with a warning rather than stalling the caller.
func (p *Producer) Publish(env Envelope) {
	value, err := json.Marshal(env)
	if err != nil {
		p.log.Warn("encode event failed", zap.Error(err), zap.String("event_type", env.EventType))
		return
	}
	m := kafka.Message{
		Key:   []byte(env.CorrelationID),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(env.EventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}
	select {
	case p.inbox <- m:
	default:
		p.log.Warn("event inbox full, dropping event", zap.String("event_type", env.EventType))
	}
}

// Close stops accepting new events; the flush loop exits after the
// remaining buffered messages are written.
func (p *Producer) Close() {
	p.closeOnce.Do(func() { close(p.inbox) })
}

// WaitClosed blocks until the flush loop has exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
