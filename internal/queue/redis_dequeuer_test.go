package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeStreams records acknowledgements in a shared operation log so tests
// can assert ordering against the enqueuer and DLQ fakes.
type fakeStreams struct {
	ops    *[]string
	ackErr error
}

func (f *fakeStreams) EnsureGroup(context.Context, string, string) error { return nil }

func (f *fakeStreams) ReadGroup(context.Context, string, string, string, int64, time.Duration) ([]streamEntry, error) {
	return nil, nil
}

func (f *fakeStreams) Ack(_ context.Context, _, _, entryID string) error {
	if f.ackErr != nil {
		return f.ackErr
	}
	*f.ops = append(*f.ops, "ack:"+entryID)
	return nil
}

type fakeEnqueuer struct {
	ops      *[]string
	enqueued []*Message
	err      error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, msg *Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	*f.ops = append(*f.ops, "enqueue:"+msg.ID)
	f.enqueued = append(f.enqueued, msg)
	return "entry-" + msg.ID, nil
}

type fakeDLQ struct {
	ops    *[]string
	parked []*Message
	err    error
}

func (f *fakeDLQ) MoveToDLQ(_ context.Context, msg *Message, _ string) error {
	if f.err != nil {
		return f.err
	}
	*f.ops = append(*f.ops, "dlq:"+msg.ID)
	f.parked = append(f.parked, msg)
	return nil
}

func (f *fakeDLQ) Reprocess(context.Context, []string) (int, error) { return 0, nil }

type redisFixture struct {
	dequeuer *RedisDequeuer
	streams  *fakeStreams
	enqueuer *fakeEnqueuer
	dlq      *fakeDLQ
	handler  *fakeBatchHandler
	ops      []string
}

func newRedisFixture(errByID map[string]error) *redisFixture {
	fx := &redisFixture{handler: &fakeBatchHandler{errByID: errByID}}
	fx.streams = &fakeStreams{ops: &fx.ops}
	fx.enqueuer = &fakeEnqueuer{ops: &fx.ops}
	fx.dlq = &fakeDLQ{ops: &fx.ops}
	fx.dequeuer = NewRedisDequeuer(
		fx.streams, fx.enqueuer, fx.dlq, fx.handler,
		NewRetryStrategy(5), DefaultConfig(), zerolog.Nop(),
	)
	return fx
}

func entryFor(t *testing.T, msg *Message, entryID string) streamEntry {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	return streamEntry{ID: entryID, Data: string(data)}
}

func TestRedisDequeuer_BatchDelivered(t *testing.T) {
	fx := newRedisFixture(nil)

	fx.dequeuer.processBatch(context.Background(), []streamEntry{
		entryFor(t, eventMessage("m1", 0), "1-0"),
		entryFor(t, eventMessage("m2", 0), "1-1"),
	})

	if len(fx.handler.batches) != 1 {
		t.Fatalf("expected one HandleBatch call, got %d", len(fx.handler.batches))
	}
	if len(fx.handler.batches[0]) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(fx.handler.batches[0]))
	}

	want := []string{"ack:1-0", "ack:1-1"}
	if fmt.Sprint(fx.ops) != fmt.Sprint(want) {
		t.Errorf("expected ops %v, got %v", want, fx.ops)
	}
}

func TestRedisDequeuer_UndecodableEntryAcked(t *testing.T) {
	fx := newRedisFixture(nil)

	fx.dequeuer.processBatch(context.Background(), []streamEntry{
		{ID: "1-0", Data: "{broken"},
		entryFor(t, eventMessage("m1", 0), "1-1"),
	})

	if len(fx.handler.batches) != 1 || len(fx.handler.batches[0]) != 1 {
		t.Fatalf("expected only the decodable entry to reach the handler, got %+v", fx.handler.batches)
	}
	if fx.handler.batches[0][0].ID != "m1" {
		t.Errorf("expected m1 in batch, got %s", fx.handler.batches[0][0].ID)
	}

	want := []string{"ack:1-0", "ack:1-1"}
	if fmt.Sprint(fx.ops) != fmt.Sprint(want) {
		t.Errorf("expected ops %v, got %v", want, fx.ops)
	}
}

func TestRedisDequeuer_PermanentFailureParkedBeforeAck(t *testing.T) {
	fx := newRedisFixture(map[string]error{
		"m1": fmt.Errorf("send notification: invalid api key: %w", ErrPermanent),
	})

	fx.dequeuer.processBatch(context.Background(), []streamEntry{
		entryFor(t, eventMessage("m1", 0), "1-0"),
	})

	want := []string{"dlq:m1", "ack:1-0"}
	if fmt.Sprint(fx.ops) != fmt.Sprint(want) {
		t.Errorf("expected ops %v, got %v", want, fx.ops)
	}
	if len(fx.enqueuer.enqueued) != 0 {
		t.Errorf("expected no retry for a permanent failure, got %d", len(fx.enqueuer.enqueued))
	}
}

func TestRedisDequeuer_DLQFailureLeavesEntryPending(t *testing.T) {
	fx := newRedisFixture(map[string]error{"m1": errors.New("send failed")})
	fx.dlq.err = errors.New("dlq unavailable")

	// Fifth failure exhausts the budget; the park fails, so the entry must
	// stay pending (no ack) for a later claim.
	fx.dequeuer.processBatch(context.Background(), []streamEntry{
		entryFor(t, eventMessage("m1", 4), "1-0"),
	})

	if len(fx.ops) != 0 {
		t.Errorf("expected no ops when the dlq park fails, got %v", fx.ops)
	}
}

func TestRedisDequeuer_RedeliverEnqueuesBeforeAck(t *testing.T) {
	fx := newRedisFixture(nil)

	msg := eventMessage("m1", 1)
	fx.dequeuer.redeliver(context.Background(), msg, "1-0", time.Millisecond)

	// The retry copy must land before the original is acked; the reverse
	// order would lose the message on a crash in between.
	want := []string{"enqueue:m1", "ack:1-0"}
	if fmt.Sprint(fx.ops) != fmt.Sprint(want) {
		t.Errorf("expected ops %v, got %v", want, fx.ops)
	}
	if len(fx.enqueuer.enqueued) != 1 || fx.enqueuer.enqueued[0].RetryCount != 1 {
		t.Errorf("unexpected redelivered message: %+v", fx.enqueuer.enqueued)
	}
}

func TestRedisDequeuer_RedeliverFailureLeavesEntryPending(t *testing.T) {
	fx := newRedisFixture(nil)
	fx.enqueuer.err = errors.New("redis down")

	fx.dequeuer.redeliver(context.Background(), eventMessage("m1", 1), "1-0", time.Millisecond)

	if len(fx.ops) != 0 {
		t.Errorf("expected no ack when the retry copy was not enqueued, got %v", fx.ops)
	}
}

func TestRedisDequeuer_RedeliverCancelledContext(t *testing.T) {
	fx := newRedisFixture(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fx.dequeuer.redeliver(ctx, eventMessage("m1", 1), "1-0", time.Hour)

	if len(fx.ops) != 0 {
		t.Errorf("expected no ops after cancellation, got %v", fx.ops)
	}
}
