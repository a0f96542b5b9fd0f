package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 2

// migrations[i] takes the schema from version i to i+1. The SQL is shared by
// Postgres and SQLite: timestamps are unix milliseconds, lists are JSON text.
var migrations = []string{
	// 0 -> 1: initial schema
	`
	CREATE TABLE IF NOT EXISTS candidates (
	  id                TEXT PRIMARY KEY,
	  remote_id         TEXT NOT NULL UNIQUE,
	  source_name       TEXT NOT NULL DEFAULT '',
	  fingerprint       TEXT NOT NULL DEFAULT '',
	  full_name         TEXT NOT NULL DEFAULT '',
	  email             TEXT NOT NULL DEFAULT '',
	  email_norm        TEXT NOT NULL DEFAULT '',
	  phone             TEXT NOT NULL DEFAULT '',
	  linkedin_url      TEXT NOT NULL DEFAULT '',
	  location          TEXT NOT NULL DEFAULT '',
	  years_experience  DOUBLE PRECISION,
	  current_title     TEXT NOT NULL DEFAULT '',
	  current_company   TEXT NOT NULL DEFAULT '',
	  skills_json       TEXT NOT NULL DEFAULT '[]',
	  tech_stack_json   TEXT NOT NULL DEFAULT '[]',
	  domains_json      TEXT NOT NULL DEFAULT '[]',
	  education_json    TEXT NOT NULL DEFAULT '[]',
	  work_history_json TEXT NOT NULL DEFAULT '[]',
	  summary           TEXT NOT NULL DEFAULT '',
	  raw_text          TEXT NOT NULL DEFAULT '',
	  status            TEXT NOT NULL DEFAULT 'PENDING'
	                    CHECK (status IN ('PENDING','EMAILED','EMAIL_OPENED','REPLIED','INTERESTED','NOT_INTERESTED')),
	  notes             TEXT NOT NULL DEFAULT '',
	  created_at        BIGINT NOT NULL,
	  updated_at        BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_candidates_email_norm ON candidates(email_norm);
	CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates(status);
	CREATE INDEX IF NOT EXISTS idx_candidates_created ON candidates(created_at);

	CREATE TABLE IF NOT EXISTS email_templates (
	  id            TEXT PRIMARY KEY,
	  name          TEXT NOT NULL,
	  subject       TEXT NOT NULL,
	  body_html     TEXT NOT NULL,
	  body_text     TEXT NOT NULL DEFAULT '',
	  body_markdown TEXT NOT NULL DEFAULT '',
	  is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	  created_at    BIGINT NOT NULL,
	  updated_at    BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS email_campaigns (
	  id                   TEXT PRIMARY KEY,
	  candidate_id         TEXT NOT NULL REFERENCES candidates(id),
	  template_id          TEXT REFERENCES email_templates(id) ON DELETE SET NULL,
	  rendered_subject     TEXT NOT NULL DEFAULT '',
	  rendered_html        TEXT NOT NULL DEFAULT '',
	  rendered_text        TEXT NOT NULL DEFAULT '',
	  tracking_token       TEXT NOT NULL UNIQUE,
	  transport_message_id TEXT NOT NULL DEFAULT '',
	  sent_at              BIGINT NOT NULL,
	  open_count           INTEGER NOT NULL DEFAULT 0,
	  first_opened_at      BIGINT,
	  last_opened_at       BIGINT,
	  replied_at           BIGINT,
	  bounced_at           BIGINT,
	  unsubscribed_at      BIGINT,
	  created_at           BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_campaigns_candidate ON email_campaigns(candidate_id, sent_at);
	CREATE INDEX IF NOT EXISTS idx_campaigns_message_id ON email_campaigns(transport_message_id);

	CREATE TABLE IF NOT EXISTS email_events (
	  id           TEXT PRIMARY KEY,
	  campaign_id  TEXT,
	  candidate_id TEXT,
	  kind         TEXT NOT NULL,
	  ip_address   TEXT NOT NULL DEFAULT '',
	  user_agent   TEXT NOT NULL DEFAULT '',
	  url          TEXT NOT NULL DEFAULT '',
	  raw_payload  TEXT NOT NULL DEFAULT '{}',
	  occurred_at  BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_campaign ON email_events(campaign_id, occurred_at);
	CREATE INDEX IF NOT EXISTS idx_events_candidate ON email_events(candidate_id, occurred_at);
	`,

	// 1 -> 2: async sync jobs
	`
	CREATE TABLE IF NOT EXISTS sync_jobs (
	  id            TEXT PRIMARY KEY,
	  folder_ref    TEXT NOT NULL,
	  force_reparse BOOLEAN NOT NULL DEFAULT FALSE,
	  status        TEXT NOT NULL,
	  report_json   TEXT NOT NULL DEFAULT '',
	  error_message TEXT NOT NULL DEFAULT '',
	  created_at    BIGINT NOT NULL,
	  started_at    BIGINT,
	  completed_at  BIGINT
	);
	`,
}

// migrate applies pending migrations recorded in schema_migrations.
func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at BIGINT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for v := version; v < len(migrations); v++ {
		target := v + 1
		err := db.WithTx(ctx, func(tx *Tx) error {
			if _, err := tx.conn.ExecContext(ctx, migrations[v]); err != nil {
				return err
			}
			_, err := tx.exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, target, tx.nowMillis())
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d failed: %w", target, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration, 0 on a fresh database.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	if err := db.queryRow(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}
