// Package backend chooses the outbound collaborators of a process from
// configuration: the spreadsheet mirror and the transaction event publisher.
package backend

import (
	"context"
	"fmt"

	"tietkiem/internal/amqp"
	"tietkiem/internal/config"
	applog "tietkiem/internal/log"
	"tietkiem/internal/services"
	"tietkiem/internal/sheets"
	gsheet "tietkiem/internal/sheets/google"
	"tietkiem/internal/sheets/memory"
)

// MirrorType names a spreadsheet mirror implementation.
type MirrorType string

const (
	SheetsMirror MirrorType = "sheets"
	MemoryMirror MirrorType = "memory"
)

func (t MirrorType) String() string { return string(t) }

// CleanupFunc releases resources held by a collaborator.
type CleanupFunc func() error

func noCleanup() error { return nil }

// MirrorTypeFor returns the mirror a configuration selects. A spreadsheet id
// selects Google Sheets; otherwise rows are mirrored in memory.
func MirrorTypeFor(cfg *config.Config) MirrorType {
	if cfg.GoogleSpreadsheetID != "" {
		return SheetsMirror
	}
	return MemoryMirror
}

// Factory builds collaborators from an application config.
type Factory struct {
	cfg    *config.Config
	logger *applog.Logger
	dial   func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(cfg *config.Config, logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Factory{cfg: cfg, logger: logger, dial: amqp.NewClient}
}

// Mirror creates the transaction mirror selected by the config.
func (f *Factory) Mirror(ctx context.Context) (sheets.TransactionMirror, error) {
	switch MirrorTypeFor(f.cfg) {
	case SheetsMirror:
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   f.cfg.GoogleSpreadsheetID,
			SheetName:       f.cfg.GoogleSheetName,
			CredentialsJSON: f.cfg.GoogleServiceAccountJSON,
			CredentialsFile: f.cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize Google Sheets mirror: %w", err)
		}
		f.logger.Info("Initialized Google Sheets mirror", "spreadsheet_id", f.cfg.GoogleSpreadsheetID)
		return client, nil
	default:
		f.logger.Info("Google Sheets disabled - mirroring in memory")
		return memory.New(), nil
	}
}

// Publisher connects to the broker when AMQP_URL is set. Without a URL it
// returns a nil publisher, which services treat as "events disabled".
func (f *Factory) Publisher() (services.EventPublisher, CleanupFunc, error) {
	client, cleanup, err := f.Broker()
	if err != nil || client == nil {
		return nil, cleanup, err
	}
	return client, cleanup, nil
}

// Broker returns the AMQP client, or nil when AMQP is not configured.
func (f *Factory) Broker() (*amqp.Client, CleanupFunc, error) {
	if f.cfg.AMQPURL == "" {
		f.logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, noCleanup, nil
	}
	client, err := f.dial(f.cfg.AMQPURL, f.cfg.AMQPExchange, f.cfg.AMQPQueue)
	if err != nil {
		return nil, noCleanup, fmt.Errorf("initialize AMQP client: %w", err)
	}
	f.logger.Info("Initialized AMQP client", "exchange", f.cfg.AMQPExchange, "queue", f.cfg.AMQPQueue)
	return client, client.Close, nil
}
