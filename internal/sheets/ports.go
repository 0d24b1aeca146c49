package sheets

import (
	"context"

	"tietkiem/internal/core"
)

// TransactionMirror copies stored transactions into a spreadsheet.
// Row references returned by AppendTransaction are opaque to callers.
type TransactionMirror interface {
	AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	DeleteTransaction(ctx context.Context, rowRef string) error
}

// Row renders a transaction as the mirrored columns
// date, type, category, note, amount, id.
func Row(t core.Transaction) []any {
	return []any{t.Date.String(), string(t.Type), t.Category, t.Note, t.Amount, t.ID}
}
