// Package postgres stores captured leads and conversation transcripts in a
// PostgreSQL collector database.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/devcoregroup/lox/backend/internal/model/chat"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	"github.com/devcoregroup/lox/backend/internal/transport"
)

// Schema creates the collector tables when they are missing.
const Schema = `
CREATE TABLE IF NOT EXISTS leads (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT NOT NULL,
	contact_method TEXT NOT NULL,
	contact_info   TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (contact_method, contact_info)
);

CREATE TABLE IF NOT EXISTS transcripts (
	lead_id    BIGINT PRIMARY KEY REFERENCES leads (id) ON DELETE CASCADE,
	messages   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// NewDBConnection opens the pool and pings the server.
func NewDBConnection(ctx context.Context, connString string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

type LeadRepository struct {
	DB  *sql.DB
	log logrus.FieldLogger
}

var _ transport.Leads = (*LeadRepository)(nil)

func NewLeadRepository(db *sql.DB, logger logrus.FieldLogger) *LeadRepository {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LeadRepository{DB: db, log: logger.WithField("component", "postgres")}
}

// Migrate applies Schema.
func (r *LeadRepository) Migrate(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

// PersistLead upserts by contact and returns the row id. A lead that already
// has a numeric id is updated in place, which is how the email handoff
// rewrites the contact. When the rewritten contact is already stored the
// existing row's id is returned instead.
func (r *LeadRepository) PersistLead(ctx context.Context, l lead.Lead) (string, error) {
	var id int64

	if existing, err := strconv.ParseInt(l.ID, 10, 64); err == nil {
		query := `
			UPDATE leads
			SET name = $2, contact_method = $3, contact_info = $4, updated_at = NOW()
			WHERE id = $1
			RETURNING id
		`
		err := r.DB.QueryRowContext(ctx, query, existing, l.Name, string(l.ContactMethod), l.ContactInfo).Scan(&id)
		if err == nil {
			return strconv.FormatInt(id, 10), nil
		}
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case isUniqueViolation(err):
			// the new contact already belongs to another row; adopt that row
			r.log.WithField("lead_id", existing).Debug("contact already stored, merging into existing lead")
		default:
			return "", fmt.Errorf("postgres update lead: %w", err)
		}
	}

	query := `
		INSERT INTO leads (name, contact_method, contact_info, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (contact_method, contact_info)
		DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = NOW()
		RETURNING id
	`
	if err := r.DB.QueryRowContext(ctx, query, l.Name, string(l.ContactMethod), l.ContactInfo).Scan(&id); err != nil {
		return "", fmt.Errorf("postgres upsert lead: %w", err)
	}

	r.log.WithField("lead_id", id).Debug("lead stored")
	return strconv.FormatInt(id, 10), nil
}

// PersistTranscript replaces the stored thread of the lead. Leads whose id
// came from another collector are matched by contact.
func (r *LeadRepository) PersistTranscript(ctx context.Context, l lead.Lead, messages []chat.Message) error {
	leadID, err := r.resolveID(ctx, l)
	if err != nil {
		return err
	}

	payload, err := encodeMessages(messages)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transcripts (lead_id, messages, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (lead_id)
		DO UPDATE SET messages = EXCLUDED.messages, updated_at = NOW()
	`
	if _, err := r.DB.ExecContext(ctx, query, leadID, string(payload)); err != nil {
		return fmt.Errorf("postgres upsert transcript: %w", err)
	}
	return nil
}

func (r *LeadRepository) resolveID(ctx context.Context, l lead.Lead) (int64, error) {
	if id, err := strconv.ParseInt(l.ID, 10, 64); err == nil {
		return id, nil
	}

	var id int64
	query := `SELECT id FROM leads WHERE contact_method = $1 AND contact_info = $2`
	err := r.DB.QueryRowContext(ctx, query, string(l.ContactMethod), l.ContactInfo).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("postgres transcript: no lead stored for %s", l.ContactIdentifier())
	}
	if err != nil {
		return 0, fmt.Errorf("postgres find lead: %w", err)
	}
	return id, nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func encodeMessages(messages []chat.Message) ([]byte, error) {
	if messages == nil {
		messages = []chat.Message{}
	}
	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("postgres encode transcript: %w", err)
	}
	return payload, nil
}
