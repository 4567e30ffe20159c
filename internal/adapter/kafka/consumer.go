package kafka

import (
	"context"
	"errors"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/example/inventory-dashboard/internal/domain"
)

type Config struct {
	Brokers          []string
	Topic            string
	GroupID          string
	DLQTopic         string // "" => без DLQ
	MinBytes         int
	MaxBytes         int
	MaxWait          time.Duration
	ReadErrorBackoff time.Duration
}

// Consumer читает журнал заказов из Kafka; оффсет коммитится только после
// успешной обработки (или отправки в DLQ).
type Consumer struct {
	cfg    Config
	reader *kafkago.Reader
	dlq    *kafkago.Writer
	log    *log.Logger
}

func NewConsumer(cfg Config, logger *log.Logger) *Consumer {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 10e3
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10e6
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 2 * time.Second
	}
	if cfg.ReadErrorBackoff == 0 {
		cfg.ReadErrorBackoff = 2 * time.Second
	}

	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		MaxWait:        cfg.MaxWait,
		CommitInterval: 0, // коммитим вручную
	})
	var w *kafkago.Writer
	if cfg.DLQTopic != "" {
		w = &kafkago.Writer{
			Addr:     kafkago.TCP(cfg.Brokers...),
			Topic:    cfg.DLQTopic,
			Balancer: &kafkago.LeastBytes{},
		}
	}
	return &Consumer{cfg: cfg, reader: r, dlq: w, log: logger}
}

// Subscribe запускает цикл чтения в фоне; он завершается с отменой ctx.
func (c *Consumer) Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	go func() {
		if err := c.Run(ctx, handler); err != nil {
			c.log.Printf("consumer stopped: %v", err)
		}
		if err := c.Close(); err != nil {
			c.log.Printf("close: %v", err)
		}
	}()
	return nil
}

func (c *Consumer) Run(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	c.log.Printf("started: topic=%s group=%s", c.cfg.Topic, c.cfg.GroupID)
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			c.log.Printf("fetch error: %v (retry in %s)", err, c.cfg.ReadErrorBackoff)
			if !sleepCtx(ctx, c.cfg.ReadErrorBackoff) {
				return nil
			}
			continue
		}

		if err := c.process(ctx, m, handler); err != nil {
			// оффсет не коммитим — сообщение вернётся
			c.log.Printf("process error (offset %d): %v", m.Offset, err)
			if !sleepCtx(ctx, 500*time.Millisecond) {
				return nil
			}
			continue
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Printf("commit error (offset %d): %v", m.Offset, err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, m kafkago.Message, handler func(ctx context.Context, raw []byte) error) error {
	hCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := handler(hCtx, m.Value)
	if err == nil || !errors.Is(err, domain.ErrValidation) {
		return err
	}
	c.log.Printf("invalid message at offset %d: %v", m.Offset, err)
	if c.dlq == nil {
		return nil
	}
	return c.dlq.WriteMessages(ctx, kafkago.Message{Key: m.Key, Value: m.Value, Time: time.Now()})
}

func (c *Consumer) Close() error {
	var err1, err2 error
	if c.reader != nil {
		err1 = c.reader.Close()
	}
	if c.dlq != nil {
		err2 = c.dlq.Close()
	}
	return errors.Join(err1, err2)
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

var _ domain.MessageSubscriber = (*Consumer)(nil)
