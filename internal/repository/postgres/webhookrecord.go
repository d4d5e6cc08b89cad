package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flexprice/payments/internal/domain/webhookrecord"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/postgres"
	"github.com/flexprice/payments/internal/types"
)

type webhookRecordRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewWebhookRecordRepository(client postgres.IClient, logger *logger.Logger) webhookrecord.Repository {
	return &webhookRecordRepository{
		client: client,
		logger: logger,
	}
}

// webhookRecordRow adds the JSON headers column to the domain model for
// scanning.
type webhookRecordRow struct {
	webhookrecord.WebhookRecord
	HeadersJSON []byte `db:"headers"`
}

func (row *webhookRecordRow) toRecord() (*webhookrecord.WebhookRecord, error) {
	record := row.WebhookRecord
	if len(row.HeadersJSON) > 0 {
		if err := json.Unmarshal(row.HeadersJSON, &record.Headers); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Stored webhook headers are corrupt").
				Mark(ierr.ErrDatabase)
		}
	}
	return &record, nil
}

func (r *webhookRecordRepository) Create(ctx context.Context, record *webhookrecord.WebhookRecord) error {
	headers, err := json.Marshal(record.Headers)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode webhook headers").
			Mark(ierr.ErrSystem)
	}

	row := webhookRecordRow{
		WebhookRecord: *record,
		HeadersJSON:   headers,
	}

	query := `
		INSERT INTO webhook_records (
			id, provider, event_name, body_hash, body, headers,
			received_at, processed_at
		) VALUES (
			:id, :provider, :event_name, :body_hash, :body, :headers,
			:received_at, :processed_at
		)`

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, &row); err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("This webhook body was already delivered").
				WithReportableDetails(map[string]any{
					"provider":  record.Provider,
					"body_hash": record.BodyHash,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to store webhook").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *webhookRecordRepository) Get(ctx context.Context, id string) (*webhookrecord.WebhookRecord, error) {
	var row webhookRecordRow
	err := r.client.Querier(ctx).GetContext(ctx, &row,
		`SELECT * FROM webhook_records WHERE id = $1`, id)
	if err != nil {
		return nil, wrapGetErr(err, "webhook record", id)
	}
	return row.toRecord()
}

func (r *webhookRecordRepository) GetByBodyHash(ctx context.Context, provider types.ProviderType, bodyHash string) (*webhookrecord.WebhookRecord, error) {
	var row webhookRecordRow
	err := r.client.Querier(ctx).GetContext(ctx, &row,
		`SELECT * FROM webhook_records WHERE provider = $1 AND body_hash = $2`,
		provider, bodyHash)
	if err != nil {
		return nil, wrapGetErr(err, "webhook record", bodyHash)
	}
	return row.toRecord()
}

func (r *webhookRecordRepository) MarkProcessed(ctx context.Context, id string) error {
	result, err := r.client.Querier(ctx).ExecContext(ctx,
		`UPDATE webhook_records SET processed_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to mark webhook processed").
			Mark(ierr.ErrDatabase)
	}
	return requireRow(result, "webhook record", id)
}

func (r *webhookRecordRepository) ListUnprocessed(ctx context.Context, provider types.ProviderType) ([]*webhookrecord.WebhookRecord, error) {
	rows := []webhookRecordRow{}
	err := r.client.Querier(ctx).SelectContext(ctx, &rows,
		`SELECT * FROM webhook_records
		 WHERE provider = $1 AND processed_at IS NULL
		 ORDER BY received_at`,
		provider)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list unprocessed webhooks").
			Mark(ierr.ErrDatabase)
	}

	records := make([]*webhookrecord.WebhookRecord, 0, len(rows))
	for i := range rows {
		record, err := rows[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
