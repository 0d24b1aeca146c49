package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tietkiem/internal/core"
	ports "tietkiem/internal/sheets"
)

var _ ports.TransactionMirror = (*Client)(nil)

// Config selects the spreadsheet and the service account credentials.
// CredentialsJSON wins over CredentialsFile; GOOGLE_APPLICATION_CREDENTIALS
// is the last fallback.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// base name without year; rows go to "<year> <base>" by transaction date
	sheetBase string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Transactions"
	}

	creds, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID, "sheet", base)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: base}, nil
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendTransaction appends one row and returns its A1 range.
func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.sheetBase, t.Date.Year())
	rng := fmt.Sprintf("%s!A:F", quoteSheet(sheet))
	vr := &gsheet.ValueRange{Values: [][]any{ports.Row(t)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	if resp.Updates == nil || resp.Updates.UpdatedRange == "" {
		return "", fmt.Errorf("append to sheet %s: no updated range", sheet)
	}
	return resp.Updates.UpdatedRange, nil
}

// DeleteTransaction clears the mirrored row. Rows are cleared rather than
// removed so other row references stay valid.
func (c *Client) DeleteTransaction(ctx context.Context, rowRef string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(rowRef) == "" {
		return errors.New("empty row reference")
	}
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rowRef, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", rowRef, err)
	}
	return nil
}

// quoteSheet quotes a sheet name for A1 notation when it has spaces or quotes.
func quoteSheet(name string) string {
	if !strings.ContainsAny(name, " '!") {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
