package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventStatusChangeRequested = "OrderStatusChangeRequested"

	maxAttempts = 3
)

// MessageReader is satisfied by broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type OrderListener struct {
	consumer MessageReader
	uc       order.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewOrderListener(consumer MessageReader, uc order.UseCase, logger logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		backoff:  200 * time.Millisecond,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting Order Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Order Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				if !sleep(ctx, time.Second) {
					return
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type StatusChangeRequestedEvent struct {
	EventID   string              `json:"event_id"`
	EventType string              `json:"event_type"`
	Payload   StatusChangePayload `json:"payload"`
	Timestamp time.Time           `json:"timestamp"`
}

type StatusChangePayload struct {
	OrderID  int64  `json:"order_id"`
	Status   string `json:"status"`
	UserID   int64  `json:"user_id,omitempty"`
	BranchID int64  `json:"branch_id,omitempty"`
}

// Actor is the requesting user, or the system actor when the event was not
// raised on behalf of one. A named user is always confined to its branch;
// global scope is never taken from the message.
func (p StatusChangePayload) Actor() auth.Actor {
	if p.UserID == 0 {
		return auth.SystemActor
	}
	return auth.Actor{ID: p.UserID, BranchID: p.BranchID}
}

func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event StatusChangeRequestedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != EventStatusChangeRequested {
		return
	}

	log := l.logger.With(
		zap.String("event_id", event.EventID),
		zap.Int64("order_id", event.Payload.OrderID),
		zap.String("status", event.Payload.Status),
	)
	log.Info("Processing OrderStatusChangeRequested event")

	input := &dto.ChangeStatusInput{
		Actor:   event.Payload.Actor(),
		OrderID: event.Payload.OrderID,
		Status:  model.OrderStatus(event.Payload.Status),
	}

	for attempt := 1; ; attempt++ {
		_, err := l.uc.ChangeStatus(ctx, input)
		if err == nil {
			return
		}

		kind := apperror.KindOf(err)
		if !kind.Retryable() || attempt == maxAttempts {
			log.Error("Failed to change order status",
				zap.String("kind", kind.String()),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return
		}

		log.Warn("Retrying order status change", zap.Int("attempt", attempt), zap.Error(err))
		if !sleep(ctx, time.Duration(attempt)*l.backoff) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
