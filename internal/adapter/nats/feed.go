// Package nats implements the docstore change feed over NATS JetStream.
// Per-subject stream ordering gives the per-(tenant, resource) write-order
// delivery guarantee; nothing is guaranteed across subjects.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/docegestao/docegestao/internal/port/docstore"
)

const streamName = "DOCEGESTAO"

// Feed implements docstore.Feed using NATS JetStream.
type Feed struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the JetStream stream exists.
func Connect(ctx context.Context, url string) (*Feed, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"docs.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Feed{nc: nc, js: js}, nil
}

// Publish emits a change event on the (tenant, resource) subject.
func (f *Feed) Publish(ctx context.Context, tenant, resource string, ev docstore.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subj := subject(tenant, resource)
	if _, err := f.js.Publish(ctx, subj, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subj, err)
	}
	return nil
}

// Subscribe registers handlers for events on the (tenant, resource)
// subject. New deliveries start from the subscription point; the initial
// state comes from the store, not from stream replay.
func (f *Feed) Subscribe(ctx context.Context, tenant, resource string, fn docstore.Handler, errFn docstore.ErrHandler) (func(), error) {
	subj := subject(tenant, resource)

	consumer, err := f.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubject: subj,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("nats consumer create: %w", err)
	}

	opts := []jetstream.PullConsumeOpt{}
	if errFn != nil {
		opts = append(opts, jetstream.ConsumeErrHandler(func(_ jetstream.ConsumeContext, err error) {
			errFn(err)
		}))
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		var ev docstore.Event
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			slog.Error("change event decode failed", "subject", msg.Subject(), "error", err)
			if nakErr := msg.Nak(); nakErr != nil {
				slog.Error("nats nak failed", "error", nakErr)
			}
			return
		}
		fn(ev)
		if ackErr := msg.Ack(); ackErr != nil {
			slog.Error("nats ack failed", "error", ackErr)
		}
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats consume: %w", err)
	}

	return cons.Stop, nil
}

// Close shuts down the NATS connection.
func (f *Feed) Close() error {
	f.nc.Close()
	return nil
}

// subject maps a (tenant, resource) scope onto a NATS subject. Path
// separators and subject-reserved characters in ids are replaced so every
// scope is exactly one token pair.
func subject(tenant, resource string) string {
	return "docs." + token(tenant) + "." + token(resource)
}

func token(s string) string {
	r := strings.NewReplacer(".", "_", "*", "_", ">", "_", "/", "_", " ", "_")
	return r.Replace(s)
}
