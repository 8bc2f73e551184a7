package service

import (
	"log/slog"

	"github.com/docegestao/docegestao/internal/adapter/memfeed"
	"github.com/docegestao/docegestao/internal/adapter/memstore"
	"github.com/docegestao/docegestao/internal/sync"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestSyncStore() (*sync.Store, *memstore.Store) {
	backend := memstore.New()
	return sync.NewStore(backend, memfeed.New(), testLogger()), backend
}
