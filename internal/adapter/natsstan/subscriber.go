package natsstan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	stan "github.com/nats-io/stan.go"

	"github.com/example/inventory-dashboard/internal/domain"
)

// Subscriber — долговременная queue-подписка на журнал заказов с ручным ack.
type Subscriber struct {
	ClusterID  string
	ClientID   string
	URL        string
	Subject    string
	QueueGroup string
	Durable    string
	Log        *log.Logger
}

func (s *Subscriber) Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	clientID := s.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("inv-svc-%d", time.Now().UnixNano())
	}
	group := s.QueueGroup
	if group == "" {
		group = "inventory-workers"
	}
	sc, err := stan.Connect(s.ClusterID, clientID, stan.NatsURL(s.URL))
	if err != nil {
		return domain.Unavailable("stan connect", err)
	}
	go func() {
		<-ctx.Done()
		sc.Close()
	}()
	_, err = sc.QueueSubscribe(s.Subject, group, func(m *stan.Msg) {
		hCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := handler(hCtx, m.Data); err != nil {
			if !errors.Is(err, domain.ErrValidation) {
				// не подтверждаем, даём сообщению переотправиться
				s.Log.Printf("handler error (seq %d): %v", m.Sequence, err)
				return
			}
			// битое сообщение повтор не исправит
			s.Log.Printf("dropping invalid message (seq %d): %v", m.Sequence, err)
		}
		if err := m.Ack(); err != nil {
			s.Log.Printf("ack failed: %v", err)
		}
	}, stan.DurableName(s.Durable), stan.SetManualAckMode(), stan.AckWait(10*time.Second), stan.DeliverAllAvailable())
	if err != nil {
		sc.Close()
		return domain.Unavailable("stan subscribe", err)
	}
	s.Log.Printf("subscribed subject=%s group=%s durable=%s", s.Subject, group, s.Durable)
	return nil
}

var _ domain.MessageSubscriber = (*Subscriber)(nil)
