package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recipher/administrato-notify/internal/approval"
	"github.com/recipher/administrato-notify/internal/event"
)

// Store reads approvals, users, and schedules from PostgreSQL and records
// document access entries.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ApprovalsForSet returns every approval record of a schedule set in
// creation order.
func (s *Store) ApprovalsForSet(ctx context.Context, setID string) ([]approval.Approval, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, set_id, user_id, status
		   FROM approvals
		  WHERE set_id = $1
		  ORDER BY created_at, id`, setID)
	if err != nil {
		return nil, fmt.Errorf("query approvals for set %s: %w", setID, err)
	}
	defer rows.Close()

	var approvals []approval.Approval
	for rows.Next() {
		var a approval.Approval
		if err := rows.Scan(&a.ID, &a.SetID, &a.UserID, &a.Status); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		approvals = append(approvals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read approvals for set %s: %w", setID, err)
	}
	return approvals, nil
}

// ApproversForSet returns the distinct approvers of a set joined with their
// directory identities. Approvers without a directory entry (or without an
// email) come back with a nil Identity; order follows approval creation and
// is stable across calls.
func (s *Store) ApproversForSet(ctx context.Context, setID string) ([]Approver, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.user_id, u.name, u.email
		   FROM (SELECT user_id, MIN(created_at) AS first_seen
		           FROM approvals
		          WHERE set_id = $1
		          GROUP BY user_id) a
		   LEFT JOIN users u ON u.id = a.user_id
		  ORDER BY a.first_seen, a.user_id`, setID)
	if err != nil {
		return nil, fmt.Errorf("query approvers for set %s: %w", setID, err)
	}
	defer rows.Close()

	var approvers []Approver
	for rows.Next() {
		var (
			userID      string
			name, email *string
		)
		if err := rows.Scan(&userID, &name, &email); err != nil {
			return nil, fmt.Errorf("scan approver: %w", err)
		}

		approver := Approver{UserID: userID}
		if email != nil && *email != "" {
			identity := &event.Identity{ID: userID, Email: *email}
			if name != nil {
				identity.Name = *name
			}
			approver.Identity = identity
		}
		approvers = append(approvers, approver)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read approvers for set %s: %w", setID, err)
	}
	return approvers, nil
}

// PeriodsForSet returns the named schedule periods of a generated set.
func (s *Store) PeriodsForSet(ctx context.Context, setID string) ([]Period, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, year
		   FROM schedules
		  WHERE set_id = $1
		  ORDER BY year, name`, setID)
	if err != nil {
		return nil, fmt.Errorf("query periods for set %s: %w", setID, err)
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.Name, &p.Year); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read periods for set %s: %w", setID, err)
	}
	return periods, nil
}

// RecordDownload writes a document access audit entry.
func (s *Store) RecordDownload(ctx context.Context, documentID, actor string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO document_access (id, document_id, accessed_by, accessed_at)
		 VALUES ($1, $2, $3, now())`,
		uuid.New(), documentID, actor)
	if err != nil {
		return fmt.Errorf("record download of document %s: %w", documentID, err)
	}
	return nil
}

// SetExists reports whether any approval or schedule row references the set.
func (s *Store) SetExists(ctx context.Context, setID string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 WHERE EXISTS (SELECT 1 FROM approvals WHERE set_id = $1)
		            OR EXISTS (SELECT 1 FROM schedules WHERE set_id = $1)`, setID).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check set %s: %w", setID, err)
	}
	return true, nil
}
