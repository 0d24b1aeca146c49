package backend

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tietkiem/internal/amqp"
	"tietkiem/internal/config"
	applog "tietkiem/internal/log"
	"tietkiem/internal/sheets/memory"
)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func TestMirrorTypeFor(t *testing.T) {
	assert.Equal(t, MemoryMirror, MirrorTypeFor(&config.Config{}))
	assert.Equal(t, SheetsMirror, MirrorTypeFor(&config.Config{GoogleSpreadsheetID: "abc"}))
}

func TestFactory_MemoryMirror(t *testing.T) {
	f := NewFactory(&config.Config{}, quietLogger())
	mirror, err := f.Mirror(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, mirror)
}

func TestFactory_SheetsMirrorNeedsCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	f := NewFactory(&config.Config{GoogleSpreadsheetID: "sheet-id"}, quietLogger())
	_, err := f.Mirror(context.Background())
	assert.ErrorContains(t, err, "Google Sheets")
}

func TestFactory_PublisherDisabledWithoutURL(t *testing.T) {
	f := NewFactory(&config.Config{}, quietLogger())
	f.dial = func(string, string, string) (*amqp.Client, error) {
		t.Fatal("dial must not be called without a URL")
		return nil, nil
	}

	pub, cleanup, err := f.Publisher()
	require.NoError(t, err)
	assert.Nil(t, pub)
	assert.NoError(t, cleanup())
}

func TestFactory_PublisherDialFailure(t *testing.T) {
	f := NewFactory(&config.Config{AMQPURL: "amqp://localhost:1/"}, quietLogger())
	f.dial = func(string, string, string) (*amqp.Client, error) {
		return nil, errors.New("connection refused")
	}

	pub, cleanup, err := f.Publisher()
	assert.ErrorContains(t, err, "connection refused")
	assert.Nil(t, pub)
	assert.NoError(t, cleanup())
}
