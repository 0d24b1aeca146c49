package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"tietkiem/internal/core"
)

const (
	colDate        = "date"
	colDescription = "description"
	colAmount      = "amount"
	colCategory    = "category"
)

// headerAliases maps normalized header names to statement columns.
var headerAliases = map[string]string{
	"date":        colDate,
	"ngày":        colDate,
	"ngay":        colDate,
	"description": colDescription,
	"mô tả":       colDescription,
	"mo ta":       colDescription,
	"amount":      colAmount,
	"số tiền":     colAmount,
	"so tien":     colAmount,
	"category":    colCategory,
	"danh mục":    colCategory,
	"danh muc":    colCategory,
}

// statementDateLayouts are tried in order for the date column.
var statementDateLayouts = []string{
	core.DateLayout,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// ImportCSVStatement imports a bank statement into an account. Rows that fail
// are reported in the result and never abort the import. The balance is
// recalculated once when at least one row was imported.
func (s *AccountService) ImportCSVStatement(ctx context.Context, accountID int64, r io.Reader) (core.ImportResult, error) {
	result := core.ImportResult{
		Errors:       []core.RowImportError{},
		Transactions: []core.Transaction{},
	}
	if _, err := s.gw.Accounts.ByID(ctx, accountID); err != nil {
		return result, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return result, core.Invalid("file", "Không đọc được dòng tiêu đề CSV")
	}
	columns, err := mapColumns(header)
	if err != nil {
		return result, err
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				result.Errors = append(result.Errors, core.RowImportError{Row: pe.StartLine, Message: err.Error(), Raw: record})
				continue
			}
			// the reader keeps returning the same error, so stop at the last good row
			slog.WarnContext(ctx, "Statement read aborted", "account_id", accountID, "after_line", line, "error", err)
			result.Errors = append(result.Errors, core.RowImportError{Row: line + 1, Message: "không đọc được tệp: " + err.Error()})
			break
		}
		// row numbers are the file lines records start on, header included
		line, _ = reader.FieldPos(0)
		if isBlank(record) {
			continue
		}

		t, err := parseStatementRow(record, columns)
		if err != nil {
			result.Errors = append(result.Errors, core.RowImportError{Row: line, Message: err.Error(), Raw: record})
			continue
		}
		t.AccountID = accountID

		created, err := s.gw.Transactions.Create(ctx, t)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to store imported row", "row", line, "error", err)
			result.Errors = append(result.Errors, core.RowImportError{Row: line, Message: "không lưu được giao dịch", Raw: record})
			continue
		}
		result.Transactions = append(result.Transactions, created)
		result.Imported++
	}

	if result.Imported > 0 {
		if _, err := s.RecalculateBalance(ctx, accountID); err != nil {
			return result, err
		}
	}

	slog.InfoContext(ctx, "Statement imported",
		"account_id", accountID,
		"imported", result.Imported,
		"errors", len(result.Errors))
	return result, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if col, ok := headerAliases[name]; ok {
			if _, seen := columns[col]; !seen {
				columns[col] = i
			}
		}
	}
	if _, ok := columns[colDate]; !ok {
		return nil, core.Invalid("file", "Thiếu cột ngày (Date/Ngày)")
	}
	if _, ok := columns[colAmount]; !ok {
		return nil, core.Invalid("file", "Thiếu cột số tiền (Amount/Số tiền)")
	}
	return columns, nil
}

// parseStatementRow turns one record into an account transaction. The sign
// of the amount gives the direction; the stored amount is its magnitude.
func parseStatementRow(record []string, columns map[string]int) (core.Transaction, error) {
	field := func(col string) string {
		i, ok := columns[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := parseStatementDate(field(colDate))
	if err != nil {
		return core.Transaction{}, err
	}

	raw := field(colAmount)
	amount, err := core.ParseStatementAmount(raw)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("số tiền không hợp lệ: %q", raw)
	}
	if amount.IsZero() {
		return core.Transaction{}, fmt.Errorf("số tiền bằng 0: %q", raw)
	}

	t := core.Transaction{
		Date:     date,
		Note:     field(colDescription),
		Category: field(colCategory),
		Type:     core.Income,
		Amount:   amount.Abs().InexactFloat64(),
	}
	if amount.IsNegative() {
		t.Type = core.Expense
	}
	if t.Category == "" {
		t.Category = uncategorized
	}
	return t, nil
}

func parseStatementDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, errors.New("thiếu ngày")
	}
	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return core.Date{}, fmt.Errorf("ngày không hợp lệ: %q", s)
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
