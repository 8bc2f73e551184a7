package memfeed

import (
	"context"
	"errors"
	"testing"

	"github.com/docegestao/docegestao/internal/port/docstore"
)

func TestPublishReachesSubscribedScopeOnly(t *testing.T) {
	f := New()
	ctx := context.Background()

	var got []docstore.Event
	cancel, err := f.Subscribe(ctx, "t1", "orders", func(ev docstore.Event) {
		got = append(got, ev)
	}, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := f.Publish(ctx, "t1", "orders", docstore.Event{Doc: docstore.Document{Path: "a"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := f.Publish(ctx, "t2", "orders", docstore.Event{Doc: docstore.Document{Path: "b"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := f.Publish(ctx, "t1", "menu", docstore.Event{Doc: docstore.Document{Path: "c"}}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(got) != 1 || got[0].Doc.Path != "a" {
		t.Fatalf("expected only the t1/orders event, got %+v", got)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	f := New()
	ctx := context.Background()

	var got int
	cancel, err := f.Subscribe(ctx, "t1", "orders", func(docstore.Event) { got++ }, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	cancel()
	cancel()

	if err := f.Publish(ctx, "t1", "orders", docstore.Event{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got != 0 {
		t.Fatalf("cancelled subscriber must not receive events, got %d", got)
	}
}

func TestFailReachesErrorHandlers(t *testing.T) {
	f := New()
	ctx := context.Background()

	var got []error
	cancel, err := f.Subscribe(ctx, "t1", "orders", func(docstore.Event) {}, func(err error) {
		got = append(got, err)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	// A nil errFn must not panic.
	cancel2, err := f.Subscribe(ctx, "t1", "orders", func(docstore.Event) {}, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel2()

	wantErr := errors.New("boom")
	f.Fail("t1", "orders", wantErr)

	if len(got) != 1 || !errors.Is(got[0], wantErr) {
		t.Fatalf("expected the transport error, got %v", got)
	}
}
