package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"gamekey-bot/internal/market"
)

// Producer publishes delivery notifications to Kafka. Writes are buffered
// through an inbox channel and flushed on shutdown; delivery to the chat
// transport is best effort.
type Producer struct {
	w         *kafka.Writer
	inbox     chan kafka.Message
	closeOnce sync.Once
	closeCh   chan struct{}
	service   string
	log       zerolog.Logger
}

func NewProducer(brokers []string, topic, service string, buf int, log zerolog.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		service: service,
		log:     log,
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				p.Close()
				for m := range p.inbox {
					p.write(m)
				}
				_ = p.w.Close()
				close(p.closeCh)
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					close(p.closeCh)
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Error().Err(err).Msg("publish notification")
	}
}

// Notify enqueues a KeysDelivered event. Partition key is the user id so one
// user's notifications stay ordered.
func (p *Producer) Notify(_ context.Context, userID int64, orderID, productName string, keys []market.OrderKey) error {
	infos := make([]KeyInfo, 0, len(keys))
	for _, k := range keys {
		infos = append(infos, KeyInfo{Serial: k.Serial, Name: k.Name, Type: k.Type})
	}
	payload, err := json.Marshal(KeysDeliveredPayload{
		UserID:      userID,
		OrderID:     orderID,
		ProductName: productName,
		Keys:        infos,
	})
	if err != nil {
		return err
	}
	value, err := json.Marshal(Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventKeysDelivered,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     p.service,
		Payload:      payload,
	})
	if err != nil {
		return err
	}

	p.inbox <- kafka.Message{
		Key:   []byte(strconv.FormatInt(userID, 10)),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(EventKeysDelivered)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}
	return nil
}

// Close stops accepting messages; the loop flushes what is left and exits.
// Safe to call alongside context cancellation.
func (p *Producer) Close() { p.closeOnce.Do(func() { close(p.inbox) }) }

// WaitClosed blocks until the flush loop has finished.
func (p *Producer) WaitClosed() { <-p.closeCh }
