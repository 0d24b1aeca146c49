package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tietkiem/internal/core"
	ports "tietkiem/internal/sheets"
)

var _ ports.TransactionMirror = (*Store)(nil)

// Store is an in-process mirror used when no spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	next int
	rows map[string][]any
}

func New() *Store {
	return &Store{rows: make(map[string][]any)}
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	if t.ID == 0 {
		return "", errors.New("transaction has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	ref := fmt.Sprintf("mem:%d", s.next)
	s.rows[ref] = ports.Row(t)
	return ref, nil
}

func (s *Store) DeleteTransaction(_ context.Context, rowRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[rowRef]; !ok {
		return fmt.Errorf("row %q not found", rowRef)
	}
	delete(s.rows, rowRef)
	return nil
}

// Row returns a copy of a mirrored row.
func (s *Store) Row(rowRef string) ([]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[rowRef]
	if !ok {
		return nil, false
	}
	return append([]any(nil), row...), true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
