package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/relaykit/core/delivery"
	"github.com/dmitrymomot/relaykit/core/smtp"
	"github.com/dmitrymomot/relaykit/core/template"
)

// querier is the subset of pgxpool.Pool and pgx.Tx the stores need.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// q returns the transaction from the context when one is present, the pool
// otherwise.
func q(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return pool
}

// DeliveryLogStore persists delivery records. It implements
// delivery.AttemptLogger.
type DeliveryLogStore struct {
	pool *pgxpool.Pool
}

// NewDeliveryLogStore creates a DeliveryLogStore on the pool.
func NewDeliveryLogStore(pool *pgxpool.Pool) *DeliveryLogStore {
	return &DeliveryLogStore{pool: pool}
}

// Record inserts one delivery record.
func (s *DeliveryLogStore) Record(ctx context.Context, rec delivery.Record) error {
	const stmt = `
		INSERT INTO delivery_logs (
			id, recipient, subject, status, category, diagnostic,
			tls_mode, auth_method, attempts, elapsed_ms, last_reply_code, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := q(ctx, s.pool).Exec(ctx, stmt,
		rec.ID, rec.Recipient, rec.Subject, rec.Status, rec.Category, rec.Diagnostic,
		rec.TLSMode, rec.AuthMethod, rec.Attempts, rec.ElapsedMS, rec.LastReplyCode, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting delivery record: %w", err)
	}
	return nil
}

// List returns the most recent delivery records, newest first.
func (s *DeliveryLogStore) List(ctx context.Context, limit int) ([]delivery.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	const stmt = `
		SELECT id, recipient, subject, status, category, diagnostic,
		       tls_mode, auth_method, attempts, elapsed_ms, last_reply_code, created_at
		FROM delivery_logs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := q(ctx, s.pool).Query(ctx, stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("listing delivery records: %w", err)
	}
	defer rows.Close()

	var recs []delivery.Record
	for rows.Next() {
		var rec delivery.Record
		if err := rows.Scan(
			&rec.ID, &rec.Recipient, &rec.Subject, &rec.Status, &rec.Category, &rec.Diagnostic,
			&rec.TLSMode, &rec.AuthMethod, &rec.Attempts, &rec.ElapsedMS, &rec.LastReplyCode, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning delivery record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// SettingsStore holds the single database-backed SMTP settings record, the
// fallback half of the configuration source chain. It implements
// delivery.ConfigSource.
type SettingsStore struct {
	pool *pgxpool.Pool
}

// NewSettingsStore creates a SettingsStore on the pool.
func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

// SMTPConfig loads the stored relay settings.
func (s *SettingsStore) SMTPConfig(ctx context.Context) (smtp.Config, error) {
	const stmt = `
		SELECT host, port, username, password, debug
		FROM smtp_settings
		WHERE id = 1`

	var cfg smtp.Config
	err := q(ctx, s.pool).QueryRow(ctx, stmt).Scan(
		&cfg.Host, &cfg.Port, &cfg.Username, &cfg.Password, &cfg.Debug,
	)
	if IsNotFoundError(err) {
		return smtp.Config{}, ErrSettingsNotFound
	}
	if err != nil {
		return smtp.Config{}, fmt.Errorf("loading smtp settings: %w", err)
	}
	return cfg, nil
}

// Save upserts the relay settings record. The configuration is validated
// first so a broken record can never be stored.
func (s *SettingsStore) Save(ctx context.Context, cfg smtp.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	const stmt = `
		INSERT INTO smtp_settings (id, host, port, username, password, debug, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			host = EXCLUDED.host,
			port = EXCLUDED.port,
			username = EXCLUDED.username,
			password = EXCLUDED.password,
			debug = EXCLUDED.debug,
			updated_at = now()`

	if _, err := q(ctx, s.pool).Exec(ctx, stmt,
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Debug,
	); err != nil {
		return fmt.Errorf("saving smtp settings: %w", err)
	}
	return nil
}

// TemplateStore loads message templates by key. It implements
// template.Store.
type TemplateStore struct {
	pool *pgxpool.Pool
}

// NewTemplateStore creates a TemplateStore on the pool.
func NewTemplateStore(pool *pgxpool.Pool) *TemplateStore {
	return &TemplateStore{pool: pool}
}

// GetTemplate loads one template. A missing key maps to
// template.ErrTemplateNotFound so the resolver's strictness decision stays
// in one place.
func (s *TemplateStore) GetTemplate(ctx context.Context, key string) (template.Template, error) {
	const stmt = `
		SELECT key, subject, body_text, body_html
		FROM templates
		WHERE key = $1`

	var tpl template.Template
	err := q(ctx, s.pool).QueryRow(ctx, stmt, key).Scan(
		&tpl.Key, &tpl.Subject, &tpl.Text, &tpl.HTML,
	)
	if IsNotFoundError(err) {
		return template.Template{}, fmt.Errorf("%w: %q", template.ErrTemplateNotFound, key)
	}
	if err != nil {
		return template.Template{}, fmt.Errorf("loading template: %w", err)
	}
	return tpl, nil
}

// Upsert stores or replaces a template.
func (s *TemplateStore) Upsert(ctx context.Context, tpl template.Template) error {
	const stmt = `
		INSERT INTO templates (key, subject, body_text, body_html, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (key) DO UPDATE SET
			subject = EXCLUDED.subject,
			body_text = EXCLUDED.body_text,
			body_html = EXCLUDED.body_html,
			updated_at = now()`

	if _, err := q(ctx, s.pool).Exec(ctx, stmt,
		tpl.Key, tpl.Subject, tpl.Text, tpl.HTML,
	); err != nil {
		return fmt.Errorf("saving template: %w", err)
	}
	return nil
}
