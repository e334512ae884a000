package commands

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/ports"
)

// IngestOutcome describes what happened to a delivered event.
type IngestOutcome string

const (
	// IngestEnqueued means the event was new and a job was enqueued.
	IngestEnqueued IngestOutcome = "enqueued"

	// IngestAlreadyProcessed means the same event was delivered before;
	// nothing was enqueued.
	IngestAlreadyProcessed IngestOutcome = "already_processed"
)

// WebhookJobPayload is the payload of a webhook-triggered job: the delivery
// context plus the raw body, carried verbatim for the worker to parse.
type WebhookJobPayload struct {
	Source    string          `json:"source"`
	EventType string          `json:"event_type"`
	Body      json.RawMessage `json:"body"`
}

// IngestEventCommandHandler is the webhook intake: it authenticates the
// delivery, dedups it, and durably enqueues the work it implies. The dedup
// record and the job commit in one transaction, so an accepted event can
// never be lost between acknowledgment and processing.
//
// Example:
//
//	handler := NewIngestEventCommandHandler(uowFactory, secrets)
//	cmd, _ := NewIngestEventCommand("shopmart", sigHeader, body, EventTypeOrderCreated)
//
//	outcome, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, ErrAuthenticationFailed) {
//	    // respond 401; nothing was recorded
//	}
type IngestEventCommandHandler struct {
	uowFactory IngestUoWFactory
	secrets    ports.SignatureSecrets
}

// NewIngestEventCommandHandler creates a handler for webhook intake.
func NewIngestEventCommandHandler(uowFactory IngestUoWFactory, secrets ports.SignatureSecrets) IngestEventCommandHandler {
	return IngestEventCommandHandler{
		uowFactory: uowFactory,
		secrets:    secrets,
	}
}

// Handle authenticates and records the event, enqueueing its job when the
// event is new. Returns IngestAlreadyProcessed without error for redundant
// deliveries, so the source sees success and stops retrying.
func (h *IngestEventCommandHandler) Handle(ctx context.Context, cmd IngestEventCommand) (IngestOutcome, error) {
	if err := cmd.Validate(); err != nil {
		return "", err
	}

	if err := h.verifySignature(cmd); err != nil {
		return "", err
	}

	externalEventID, err := cmd.ExternalEventID()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(WebhookJobPayload{
		Source:    cmd.Source(),
		EventType: cmd.EventType(),
		Body:      json.RawMessage(cmd.RawBody()),
	})
	if err != nil {
		return "", err
	}

	j, err := job.NewJob(
		WebhookJobID(cmd.Source(), externalEventID),
		QueueWebhooks, JobTypeChannelOrderUpsert,
		payload, maxAttemptsUpsert,
	)
	if err != nil {
		return "", err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return "", err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	created, err := uow.ProcessedEventRepository().Record(ctx, cmd.Source(), externalEventID)
	if err != nil {
		return "", err
	}
	if !created {
		return IngestAlreadyProcessed, nil
	}

	if _, err = uow.JobRepository().Enqueue(ctx, j); err != nil {
		return "", err
	}

	if err = uow.Commit(ctx); err != nil {
		return "", err
	}

	return IngestEnqueued, nil
}

// verifySignature recomputes the HMAC-SHA256 of the raw body under the
// source's shared secret and compares it to the presented signature in
// constant time. An unknown source fails closed.
func (h *IngestEventCommandHandler) verifySignature(cmd IngestEventCommand) error {
	secret, err := h.secrets.SecretFor(cmd.Source())
	if err != nil {
		return ErrAuthenticationFailed
	}

	presented, err := hex.DecodeString(strings.TrimPrefix(cmd.Signature(), "sha256="))
	if err != nil {
		return ErrAuthenticationFailed
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(cmd.RawBody())
	if !hmac.Equal(presented, mac.Sum(nil)) {
		return ErrAuthenticationFailed
	}
	return nil
}
