package listener

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sliceReader struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		msg := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

type scriptedUseCase struct {
	mu     sync.Mutex
	errs   []error
	inputs []dto.ChangeStatusInput
}

func (u *scriptedUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	panic("not used")
}

func (u *scriptedUseCase) GetOrder(ctx context.Context, actor auth.Actor, id int64) (*model.Order, error) {
	panic("not used")
}

func (u *scriptedUseCase) ListOrders(ctx context.Context, input *dto.ListOrdersInput) ([]model.Order, int, error) {
	panic("not used")
}

func (u *scriptedUseCase) ChangeStatus(ctx context.Context, input *dto.ChangeStatusInput) (*model.Order, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.inputs = append(u.inputs, *input)
	if len(u.errs) == 0 {
		return &model.Order{ID: input.OrderID, Status: input.Status}, nil
	}
	err := u.errs[0]
	u.errs = u.errs[1:]
	if err != nil {
		return nil, err
	}
	return &model.Order{ID: input.OrderID, Status: input.Status}, nil
}

func (u *scriptedUseCase) calls() []dto.ChangeStatusInput {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]dto.ChangeStatusInput(nil), u.inputs...)
}

func event(t *testing.T, eventType string, payload StatusChangePayload) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(StatusChangeRequestedEvent{EventID: "evt-1", EventType: eventType, Payload: payload})
	require.NoError(t, err)
	return kafka.Message{Value: raw}
}

func newListener(uc *scriptedUseCase) (*OrderListener, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewOrderListener(nil, uc, logger.Wrap(zap.New(core)))
	l.backoff = time.Millisecond
	return l, logs
}

func TestProcessMessage_carriesActorFromPayload(t *testing.T) {
	uc := &scriptedUseCase{}
	l, _ := newListener(uc)

	l.processMessage(context.Background(), event(t, EventStatusChangeRequested, StatusChangePayload{OrderID: 7, Status: "confirmed", UserID: 3, BranchID: 2}).Value)
	l.processMessage(context.Background(), event(t, EventStatusChangeRequested, StatusChangePayload{OrderID: 8, Status: "completed"}).Value)

	calls := uc.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, auth.Actor{ID: 3, BranchID: 2}, calls[0].Actor)
	assert.Equal(t, model.OrderStatusConfirmed, calls[0].Status)
	assert.Equal(t, auth.SystemActor, calls[1].Actor)
	assert.Equal(t, int64(8), calls[1].OrderID)
}

func TestProcessMessage_neverGrantsGlobalScopeToUsers(t *testing.T) {
	uc := &scriptedUseCase{}
	l, _ := newListener(uc)

	raw := []byte(`{"event_id":"evt-2","event_type":"OrderStatusChangeRequested","payload":{"order_id":7,"status":"cancelled","user_id":3,"branch_id":2,"global_scope":true}}`)
	l.processMessage(context.Background(), raw)

	calls := uc.calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Actor.GlobalScope)
	assert.Equal(t, auth.Actor{ID: 3, BranchID: 2}, calls[0].Actor)
}

func TestProcessMessage_ignoresOtherEventsAndGarbage(t *testing.T) {
	uc := &scriptedUseCase{}
	l, logs := newListener(uc)

	l.processMessage(context.Background(), event(t, "OrderCreated", StatusChangePayload{OrderID: 1}).Value)
	l.processMessage(context.Background(), []byte("{not json"))

	assert.Empty(t, uc.calls())
	assert.Equal(t, 1, logs.FilterMessage("Failed to unmarshal event").Len())
}

func TestProcessMessage_retriesConcurrencyTimeout(t *testing.T) {
	uc := &scriptedUseCase{errs: []error{
		apperror.ConcurrencyTimeout(context.DeadlineExceeded),
		apperror.ConcurrencyTimeout(context.DeadlineExceeded),
		nil,
	}}
	l, logs := newListener(uc)

	l.processMessage(context.Background(), event(t, EventStatusChangeRequested, StatusChangePayload{OrderID: 7, Status: "confirmed"}).Value)

	assert.Len(t, uc.calls(), 3)
	assert.Equal(t, 2, logs.FilterMessage("Retrying order status change").Len())
	assert.Zero(t, logs.FilterMessage("Failed to change order status").Len())
}

func TestProcessMessage_givesUpAfterMaxAttempts(t *testing.T) {
	timeout := apperror.ConcurrencyTimeout(context.DeadlineExceeded)
	uc := &scriptedUseCase{errs: []error{timeout, timeout, timeout, timeout}}
	l, logs := newListener(uc)

	l.processMessage(context.Background(), event(t, EventStatusChangeRequested, StatusChangePayload{OrderID: 7, Status: "confirmed"}).Value)

	assert.Len(t, uc.calls(), maxAttempts)
	failures := logs.FilterMessage("Failed to change order status").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "CONCURRENCY_TIMEOUT", failures[0].ContextMap()["kind"])
}

func TestProcessMessage_businessRejectionIsNotRetried(t *testing.T) {
	uc := &scriptedUseCase{errs: []error{apperror.InsufficientStock(1, 9, 2, 0)}}
	l, logs := newListener(uc)

	l.processMessage(context.Background(), event(t, EventStatusChangeRequested, StatusChangePayload{OrderID: 7, Status: "confirmed"}).Value)

	assert.Len(t, uc.calls(), 1)
	assert.Equal(t, 1, logs.FilterMessage("Failed to change order status").Len())
}

func TestStart_consumesUntilCancelled(t *testing.T) {
	uc := &scriptedUseCase{}
	reader := &sliceReader{msgs: []kafka.Message{
		event(t, EventStatusChangeRequested, StatusChangePayload{OrderID: 1, Status: "confirmed"}),
		event(t, EventStatusChangeRequested, StatusChangePayload{OrderID: 2, Status: "cancelled"}),
	}}
	l, _ := newListener(uc)
	l.consumer = reader

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(uc.calls()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop after cancellation")
	}
}
