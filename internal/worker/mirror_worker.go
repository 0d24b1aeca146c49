// Package worker mirrors stored transactions into the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tietkiem/internal/amqp"
	"tietkiem/internal/core"
	"tietkiem/internal/sheets"
	"tietkiem/internal/storage"
)

// MirrorWorker applies transaction events to a TransactionMirror and keeps
// the per-row sync status in SQLite.
type MirrorWorker struct {
	gw        *storage.Gateway
	mirror    sheets.TransactionMirror
	batchSize int
}

func NewMirrorWorker(gw *storage.Gateway, mirror sheets.TransactionMirror, batchSize int) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &MirrorWorker{gw: gw, mirror: mirror, batchSize: batchSize}
}

// HandleEvent is the AMQP consumer callback. Returning an error requeues the message.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	switch ev.Type {
	case amqp.TransactionCreated:
		return w.handleCreated(ctx, ev)
	case amqp.TransactionDeleted:
		return w.handleDeleted(ctx, ev)
	default:
		return &amqp.UnknownEventError{Type: ev.Type}
	}
}

func (w *MirrorWorker) handleCreated(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event", "type", ev.Type, "id", ev.ID)

	t, err := w.gw.Transactions.ByID(ctx, ev.ID)
	if errors.Is(err, core.ErrNotFound) {
		// deleted before the worker got to it
		slog.InfoContext(ctx, "Transaction no longer exists, skipping", "id", ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if t.SyncStatus == core.SyncSynced {
		return nil
	}
	return w.mirrorTransaction(ctx, t)
}

func (w *MirrorWorker) handleDeleted(ctx context.Context, ev *amqp.TransactionEvent) error {
	if ev.SheetRow == "" {
		slog.InfoContext(ctx, "Deleted transaction was never mirrored", "id", ev.ID)
		return nil
	}
	if err := w.mirror.DeleteTransaction(ctx, ev.SheetRow); err != nil {
		slog.ErrorContext(ctx, "Failed to delete mirrored row",
			"id", ev.ID, "sheet_row", ev.SheetRow, "error", err)
		return fmt.Errorf("delete mirrored row: %w", err)
	}
	slog.InfoContext(ctx, "Deleted mirrored row", "id", ev.ID, "sheet_row", ev.SheetRow)
	return nil
}

// ProcessPending mirrors up to one batch of pending transactions. It is the
// fallback for lost AMQP messages and returns the number mirrored.
func (w *MirrorWorker) ProcessPending(ctx context.Context) (int, error) {
	return w.processBatch(ctx, w.batchSize)
}

// StartupSyncCheck drains a larger batch once when the worker starts.
func (w *MirrorWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.processBatch(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}

func (w *MirrorWorker) processBatch(ctx context.Context, limit int) (int, error) {
	pending, err := w.gw.Transactions.PendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	synced := 0
	for _, t := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.mirrorTransaction(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction", "id", t.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

func (w *MirrorWorker) mirrorTransaction(ctx context.Context, t core.Transaction) error {
	ref, err := w.mirror.AppendTransaction(ctx, t)
	if err != nil {
		if markErr := w.gw.Transactions.MarkSyncError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append to mirror: %w", err)
	}

	// the row exists remotely even if this fails; the next pass would duplicate it
	if err := w.gw.Transactions.MarkSynced(ctx, t.ID, ref); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", t.ID, "sheet_row", ref, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"id", t.ID, "sheet_row", ref, "type", t.Type, "amount", t.Amount)
	return nil
}
