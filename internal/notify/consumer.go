package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/recipher/administrato-notify/internal/event"
)

// EventResult is the outcome of one event within a consumed batch. Events
// are independent; a result carries the error of its own event only.
type EventResult struct {
	Index int
	Kind  event.Kind
	Err   error
}

// Consumer processes delivery batches of domain events. Per event it
// resolves recipients, syncs profiles, composes and dispatches -- in that
// order. Events within a batch share no mutable state and are processed
// with bounded parallelism; one event's failure never aborts its siblings.
type Consumer struct {
	sync        *ProfileSync
	dispatcher  *Dispatcher
	directory   Directory
	access      AccessRecorder
	log         zerolog.Logger
	concurrency int
}

// NewConsumer creates a Consumer. concurrency bounds the batch fan-out;
// zero or less means serial processing.
func NewConsumer(
	sync *ProfileSync,
	dispatcher *Dispatcher,
	dir Directory,
	access AccessRecorder,
	log zerolog.Logger,
	concurrency int,
) *Consumer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Consumer{
		sync:        sync,
		dispatcher:  dispatcher,
		directory:   dir,
		access:      access,
		log:         log,
		concurrency: concurrency,
	}
}

// Consume processes every event of a batch and returns one result per
// event, indexed by batch position. It never returns early: a failing event
// yields a result with its error while siblings continue.
func (c *Consumer) Consume(ctx context.Context, batch []*event.Event) []EventResult {
	results := make([]EventResult, len(batch))

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.concurrency)

	for i, ev := range batch {
		results[i] = EventResult{Index: i, Kind: ev.Kind}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, ev *event.Event) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i].Err = c.Process(ctx, ev)
		}(i, ev)
	}

	wg.Wait()
	return results
}

// Process handles a single event by kind. A nil return means the event is
// done (delivered, audited, or deliberately skipped) and must be
// acknowledged; an error means the event alone should be redelivered.
func (c *Consumer) Process(ctx context.Context, ev *event.Event) (err error) {
	start := time.Now()
	defer func() {
		EventProcessingDuration.WithLabelValues(string(ev.Kind)).Observe(time.Since(start).Seconds())
		if err != nil {
			EventsProcessedTotal.WithLabelValues(string(ev.Kind), "failed").Inc()
		}
	}()

	switch ev.Kind {
	case event.KindApprovalBatchCreated:
		return c.processBatchCreated(ctx, ev)
	case event.KindScheduleSetGenerated:
		return c.processSetGenerated(ctx, ev)
	case event.KindDocumentDownloaded:
		return c.processDocumentDownloaded(ctx, ev)
	default:
		// Decode rejects unknown kinds; reaching here means a programming
		// error, not a redeliverable failure.
		c.log.Error().Str("kind", string(ev.Kind)).Msg("unhandled event kind")
		return nil
	}
}

// processBatchCreated notifies the single recipient of a new approval batch.
// A recipient with no resolvable identity skips the whole event: no profile
// sync, no send, no retry. The skip is logged and counted so the gap stays
// visible.
func (c *Consumer) processBatchCreated(ctx context.Context, ev *event.Event) error {
	if !ev.UserData.Resolvable() {
		c.log.Warn().
			Str("set_id", ev.SetID).
			Str("user_id", ev.UserID).
			Msg("approval batch recipient has no contact identity, skipping event")
		EventsProcessedTotal.WithLabelValues(string(ev.Kind), "skipped").Inc()
		RecipientsSkippedTotal.Inc()
		return nil
	}

	identity := *ev.UserData
	if identity.ID == "" {
		identity.ID = ev.UserID
	}

	periods, err := c.directory.PeriodsForSet(ctx, ev.SetID)
	if err != nil {
		return fmt.Errorf("resolve periods for set %s: %w", ev.SetID, err)
	}

	if err := c.sync.Sync(ctx, []event.Identity{identity}); err != nil {
		return err
	}

	msg := ComposeBatchCreated(ev, identity, periods)
	if _, err := c.dispatcher.Dispatch(ctx, msg); err != nil {
		return err
	}

	RecipientsNotifiedTotal.Inc()
	EventsProcessedTotal.WithLabelValues(string(ev.Kind), "processed").Inc()
	return nil
}

// processSetGenerated notifies every approver of a generated schedule set
// with one multi-recipient message. Approvers without a resolvable identity
// are silently excluded before sync; every surviving profile is synced
// before the single send.
func (c *Consumer) processSetGenerated(ctx context.Context, ev *event.Event) error {
	approvers, err := c.directory.ApproversForSet(ctx, ev.SetID)
	if err != nil {
		return fmt.Errorf("resolve approvers for set %s: %w", ev.SetID, err)
	}

	var recipients []event.Identity
	for _, a := range approvers {
		if !a.Identity.Resolvable() {
			c.log.Debug().
				Str("set_id", ev.SetID).
				Str("user_id", a.UserID).
				Msg("approver has no contact identity, excluding from send")
			RecipientsSkippedTotal.Inc()
			continue
		}
		identity := *a.Identity
		if identity.ID == "" {
			identity.ID = a.UserID
		}
		recipients = append(recipients, identity)
	}

	if len(recipients) == 0 {
		c.log.Warn().Str("set_id", ev.SetID).Msg("no resolvable approvers for set, nothing to send")
		EventsProcessedTotal.WithLabelValues(string(ev.Kind), "skipped").Inc()
		return nil
	}

	if err := c.sync.Sync(ctx, recipients); err != nil {
		return err
	}

	msg := ComposeSetGenerated(ev, recipients)
	if _, err := c.dispatcher.Dispatch(ctx, msg); err != nil {
		return err
	}

	RecipientsNotifiedTotal.Add(float64(len(recipients)))
	EventsProcessedTotal.WithLabelValues(string(ev.Kind), "processed").Inc()
	return nil
}

// processDocumentDownloaded records a download audit entry. Not a
// notification event: no composition, no send.
func (c *Consumer) processDocumentDownloaded(ctx context.Context, ev *event.Event) error {
	if err := c.access.RecordDownload(ctx, ev.DocumentID, ev.Meta.User.Name); err != nil {
		return fmt.Errorf("record download of document %s: %w", ev.DocumentID, err)
	}
	c.log.Info().
		Str("document_id", ev.DocumentID).
		Str("actor", ev.Meta.User.Name).
		Msg("document download recorded")
	EventsProcessedTotal.WithLabelValues(string(ev.Kind), "processed").Inc()
	return nil
}
