package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "docegestao"

// Metrics holds the domain metric instruments. A nil *Metrics is valid
// and records nothing, so callers never need to branch on telemetry
// being enabled.
type Metrics struct {
	Connections   metric.Int64UpDownCounter
	MenuEdits     metric.Int64Counter
	SavesFlushed  metric.Int64Counter
	RemoteUpdates metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Connections, err = meter.Int64UpDownCounter("docegestao.ws.connections",
		metric.WithDescription("Active WebSocket connections"))
	if err != nil {
		return nil, err
	}

	m.MenuEdits, err = meter.Int64Counter("docegestao.menu.edits",
		metric.WithDescription("Menu edits received from clients"))
	if err != nil {
		return nil, err
	}

	m.SavesFlushed, err = meter.Int64Counter("docegestao.saves.flushed",
		metric.WithDescription("Coalesced autosave writes flushed to storage"))
	if err != nil {
		return nil, err
	}

	m.RemoteUpdates, err = meter.Int64Counter("docegestao.remote.updates",
		metric.WithDescription("Remote document updates pushed to clients"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// AddConnections records a connection opening (+1) or closing (-1).
func (m *Metrics) AddConnections(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.Connections.Add(ctx, delta)
}

// CountMenuEdit records one client menu edit.
func (m *Metrics) CountMenuEdit(ctx context.Context) {
	if m == nil {
		return
	}
	m.MenuEdits.Add(ctx, 1)
}

// CountSaveFlushed records one write reaching storage.
func (m *Metrics) CountSaveFlushed(ctx context.Context) {
	if m == nil {
		return
	}
	m.SavesFlushed.Add(ctx, 1)
}

// CountRemoteUpdate records one remote update delivered to a client.
func (m *Metrics) CountRemoteUpdate(ctx context.Context) {
	if m == nil {
		return
	}
	m.RemoteUpdates.Add(ctx, 1)
}
