package officina

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	id BIGSERIAL PRIMARY KEY,
	customer_id TEXT NOT NULL,
	vehicle TEXT NOT NULL,
	issue_description TEXT NOT NULL,
	issue_code TEXT NOT NULL,
	urgency_description TEXT,
	symptom_notes TEXT,
	time_preference TEXT,
	service_type TEXT,
	has_diagnosis TEXT,
	category TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'NEW',
	reply TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	replied_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ
)`

// Migrate creates the requests table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

type pgStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return &pgStore{db: db}
}

const requestColumns = `id, customer_id, vehicle, issue_description, issue_code,
	urgency_description, symptom_notes, time_preference, service_type,
	has_diagnosis, category, status, reply, created_at, replied_at, completed_at`

func (s *pgStore) Insert(ctx context.Context, req *Request) (int64, error) {
	if !req.Category.Valid() {
		return 0, fmt.Errorf("unknown category %q", req.Category)
	}
	if !req.Status.Valid() {
		return 0, fmt.Errorf("unknown status %q", req.Status)
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO requests (customer_id, vehicle, issue_description, issue_code,
			urgency_description, symptom_notes, time_preference, service_type,
			has_diagnosis, category, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`,
		req.CustomerID,
		req.Vehicle,
		req.IssueDescription,
		req.IssueCode,
		req.UrgencyDescription,
		req.SymptomNotes,
		req.TimePreference,
		req.ServiceType,
		req.HasDiagnosis,
		string(req.Category),
		string(req.Status),
		req.CreatedAt,
	).Scan(&id)
	return id, err
}

func (s *pgStore) List(ctx context.Context, f Filter) ([]Request, error) {
	q := `SELECT ` + requestColumns + ` FROM requests`
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, string(f.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (s *pgStore) Get(ctx context.Context, id int64) (*Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *pgStore) MarkReplied(ctx context.Context, id int64, reply string, at time.Time) error {
	// status guard keeps completed requests from reverting
	res, err := s.db.ExecContext(ctx, `
		UPDATE requests
		SET status = $1, reply = $2, replied_at = $3
		WHERE id = $4 AND status <> $5
	`, string(StatusReplied), reply, at, id, string(StatusCompleted))
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *pgStore) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE requests
		SET status = $1, completed_at = $2
		WHERE id = $3
	`, string(StatusCompleted), at, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *pgStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM requests`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*Request, error) {
	var (
		req      Request
		category string
		status   string
	)
	if err := row.Scan(
		&req.ID,
		&req.CustomerID,
		&req.Vehicle,
		&req.IssueDescription,
		&req.IssueCode,
		&req.UrgencyDescription,
		&req.SymptomNotes,
		&req.TimePreference,
		&req.ServiceType,
		&req.HasDiagnosis,
		&category,
		&status,
		&req.Reply,
		&req.CreatedAt,
		&req.RepliedAt,
		&req.CompletedAt,
	); err != nil {
		return nil, err
	}
	req.Category = Category(category)
	req.Status = Status(status)
	if !req.Category.Valid() {
		return nil, fmt.Errorf("unknown category %q in row %d", category, req.ID)
	}
	if !req.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q in row %d", status, req.ID)
	}
	return &req, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
