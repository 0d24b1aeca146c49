package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection error", errors.New("connection refused"), true},
		{"EOF error", errors.New("unexpected EOF"), true},
		{"broken pipe error", errors.New("broken pipe"), true},
		{"closed network connection error", errors.New("use of closed network connection"), true},
		{"other error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	t.Run("initial state is closed", func(t *testing.T) {
		if client.isCircuitOpen() {
			t.Error("Circuit breaker should be closed initially")
		}
	})

	t.Run("record success resets state", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 3)
		atomic.StoreInt32(&client.state, StateOpen)

		client.recordSuccess()

		if client.isCircuitOpen() {
			t.Error("Circuit breaker should be closed after success")
		}
		if atomic.LoadInt64(&client.failureCount) != 0 {
			t.Error("Failure count should be reset to 0 after success")
		}
	})

	t.Run("multiple failures open circuit", func(t *testing.T) {
		client.recordSuccess()
		for i := 0; i < maxFailures; i++ {
			client.recordFailure()
		}
		if !client.isCircuitOpen() {
			t.Error("Circuit breaker should be open after max failures")
		}
	})

	t.Run("circuit transitions to half-open after timeout", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)

		if client.isCircuitOpen() {
			t.Error("Circuit should transition to half-open after timeout")
		}
		if atomic.LoadInt32(&client.state) != StateHalfOpen {
			t.Error("State should be StateHalfOpen after timeout")
		}
	})

	t.Run("failure while half-open reopens", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 0)
		atomic.StoreInt32(&client.state, StateHalfOpen)
		client.recordFailure()
		if atomic.LoadInt32(&client.state) != StateOpen {
			t.Error("State should be StateOpen after a half-open failure")
		}
	})
}

func TestClient_PublishTransactionEvent_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	t.Run("publish fails when circuit is open", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()

		err := client.PublishTransactionEvent(context.Background(), TransactionEvent{Type: TransactionCreated, ID: 123})
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("expected ErrCircuitOpen, got: %v", err)
		}
	})

	t.Run("publish respects context cancellation", func(t *testing.T) {
		client.recordSuccess()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := client.PublishTransactionEvent(ctx, TransactionEvent{Type: TransactionCreated, ID: 123})
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
	})
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func TestDispatch(t *testing.T) {
	good, _ := NewTransactionEvent(TransactionCreated, 7).ToJSON()

	t.Run("acks handled events", func(t *testing.T) {
		ack := &fakeAck{}
		var seen int64
		dispatch(context.Background(), good, ack, func(_ context.Context, ev *TransactionEvent) error {
			seen = ev.ID
			return nil
		})
		if !ack.acked || seen != 7 {
			t.Errorf("expected ack of event 7, got acked=%v id=%d", ack.acked, seen)
		}
	})

	t.Run("requeues on handler error", func(t *testing.T) {
		ack := &fakeAck{}
		dispatch(context.Background(), good, ack, func(context.Context, *TransactionEvent) error {
			return errors.New("sheets down")
		})
		if !ack.nacked || !ack.requeued {
			t.Error("expected nack with requeue")
		}
	})

	t.Run("drops events the handler does not know", func(t *testing.T) {
		ack := &fakeAck{}
		dispatch(context.Background(), good, ack, func(_ context.Context, ev *TransactionEvent) error {
			return &UnknownEventError{Type: ev.Type}
		})
		if !ack.nacked || ack.requeued {
			t.Error("expected nack without requeue")
		}
	})

	t.Run("drops undecodable bodies", func(t *testing.T) {
		ack := &fakeAck{}
		called := false
		dispatch(context.Background(), []byte(`{"type":"bogus","id":1}`), ack, func(context.Context, *TransactionEvent) error {
			called = true
			return nil
		})
		if called || !ack.nacked || ack.requeued {
			t.Error("expected nack without requeue and no handler call")
		}
	})
}

func TestTransactionEvent_JSON(t *testing.T) {
	ev := &TransactionEvent{
		Type:      TransactionDeleted,
		ID:        12345,
		SheetRow:  "Transactions!A5:F5",
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	b, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if !strings.Contains(string(b), `"type":"transaction.deleted"`) {
		t.Errorf("unexpected JSON %s", b)
	}

	parsed, err := TransactionEventFromJSON(b)
	if err != nil {
		t.Fatalf("TransactionEventFromJSON() error = %v", err)
	}
	if parsed.ID != ev.ID || parsed.SheetRow != ev.SheetRow || !parsed.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("parsed = %+v, want %+v", parsed, ev)
	}
}

func TestTransactionEvent_InvalidJSON(t *testing.T) {
	if _, err := TransactionEventFromJSON([]byte(`{"id": "not_a_number"}`)); err == nil {
		t.Error("TransactionEventFromJSON() should fail with invalid JSON")
	}
}
