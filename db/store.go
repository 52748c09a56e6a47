package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"cleanquote/core/pricing"
	cqerrors "cleanquote/internal/errors"
)

// Record is one published config version
type Record struct {
	ID        string            `json:"id"`
	ServiceID string            `json:"service_id"`
	Version   string            `json:"version"`
	Active    bool              `json:"active"`
	CreatedAt time.Time         `json:"created_at"`
	Document  *pricing.Document `json:"document,omitempty"`
}

// Store keeps the config history of every service, with at most one active
// version per service.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore wraps an open, migrated database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// OpenStore opens and migrates the database at path
func OpenStore(ctx context.Context, path string) (*Store, error) {
	conn, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return NewStore(conn), nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Name() string {
	return pricing.SourceStore
}

func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return cqerrors.Wrap(cqerrors.TypeConfigUnavailable, "config store", err)
	}
	return nil
}

// Publish stores doc as the active config of its service. A document without
// a version is numbered after the service's history.
func (s *Store) Publish(ctx context.Context, doc *pricing.Document) (*Record, error) {
	if doc == nil || doc.ServiceID == "" {
		return nil, cqerrors.InvalidInput("document needs a service id")
	}
	if doc.Config == nil {
		return nil, cqerrors.MalformedConfig("rate document has no config object")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "db: begin publish")
	}
	defer tx.Rollback()

	version := doc.Version
	if version == "" {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM pricing_configs WHERE service_id = ?`, doc.ServiceID,
		).Scan(&n); err != nil {
			return nil, eris.Wrapf(err, "db: count versions of %s", doc.ServiceID)
		}
		version = fmt.Sprintf("v%d", n+1)
	}

	stored := *doc
	stored.Version = version
	body, err := json.Marshal(&stored)
	if err != nil {
		return nil, eris.Wrap(err, "db: marshal document")
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE pricing_configs SET active = 0 WHERE service_id = ? AND active = 1`, doc.ServiceID,
	); err != nil {
		return nil, eris.Wrapf(err, "db: deactivate %s", doc.ServiceID)
	}

	rec := &Record{
		ID:        uuid.NewString(),
		ServiceID: doc.ServiceID,
		Version:   version,
		Active:    true,
		CreatedAt: s.now().UTC(),
		Document:  &stored,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pricing_configs (id, service_id, version, document, active, created_at) VALUES (?, ?, ?, ?, 1, ?)`,
		rec.ID, rec.ServiceID, rec.Version, string(body), rec.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return nil, eris.Wrapf(err, "db: insert config for %s", doc.ServiceID)
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "db: commit publish")
	}

	stored.Source = pricing.SourceStore
	return rec, nil
}

// ActiveConfig returns the active document of a service
func (s *Store) ActiveConfig(ctx context.Context, serviceID string) (*pricing.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, service_id, version, document, active, created_at
		 FROM pricing_configs WHERE service_id = ? AND active = 1`, serviceID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cqerrors.NotFound("active config", serviceID)
	}
	if err != nil {
		return nil, err
	}
	return rec.Document, nil
}

// History lists every version of a service, newest first
func (s *Store) History(ctx context.Context, serviceID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, service_id, version, document, active, created_at
		 FROM pricing_configs WHERE service_id = ? ORDER BY seq DESC`, serviceID)
	if err != nil {
		return nil, eris.Wrapf(err, "db: query history of %s", serviceID)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "db: iterate history")
	}
	return out, nil
}

// Activate makes an earlier version the active one
func (s *Store) Activate(ctx context.Context, id string) (*Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "db: begin activate")
	}
	defer tx.Rollback()

	var serviceID string
	err = tx.QueryRowContext(ctx, `SELECT service_id FROM pricing_configs WHERE id = ?`, id).Scan(&serviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cqerrors.NotFound("config version", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "db: lookup version %s", id)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE pricing_configs SET active = 0 WHERE service_id = ? AND active = 1`, serviceID,
	); err != nil {
		return nil, eris.Wrapf(err, "db: deactivate %s", serviceID)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE pricing_configs SET active = 1 WHERE id = ?`, id); err != nil {
		return nil, eris.Wrapf(err, "db: activate %s", id)
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT id, service_id, version, document, active, created_at FROM pricing_configs WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "db: commit activate")
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec       Record
		body      string
		active    int
		createdAt string
	)
	if err := row.Scan(&rec.ID, &rec.ServiceID, &rec.Version, &body, &active, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "db: scan config")
	}

	doc, err := pricing.DecodeDocument([]byte(body))
	if err != nil {
		return nil, err
	}
	doc.Source = pricing.SourceStore

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, eris.Wrapf(err, "db: parse created_at of %s", rec.ID)
	}

	rec.Active = active == 1
	rec.CreatedAt = ts
	rec.Document = doc
	return &rec, nil
}
