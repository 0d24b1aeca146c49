package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tietkiem/internal/amqp"
	"tietkiem/internal/storage"
)

func newGateway(t *testing.T) *storage.Gateway {
	t.Helper()
	gw, err := storage.Open(filepath.Join(t.TempDir(), "tietkiem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { gw.Close() })
	return gw
}

func fixedClock(year, month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.Month(month), day, 9, 30, 0, 0, time.UTC)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, ev amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}
