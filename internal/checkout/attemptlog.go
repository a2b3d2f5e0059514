package checkout

import (
	"context"
	"database/sql"
	"time"
)

// AttemptEntry is one completed step of one checkout attempt. OrderID is
// empty until the header exists.
type AttemptEntry struct {
	AttemptID string
	UserID    string
	OrderID   string
	Step      Step
	Detail    string
}

// AttemptLog is the forward-only record of completed saga steps, kept so
// partial failures can be reconciled or reviewed later.
type AttemptLog interface {
	Append(ctx context.Context, entry AttemptEntry) error
}

type PostgresAttemptLog struct {
	db *sql.DB
}

func NewPostgresAttemptLog(db *sql.DB) *PostgresAttemptLog {
	return &PostgresAttemptLog{db: db}
}

func (l *PostgresAttemptLog) Append(ctx context.Context, entry AttemptEntry) error {
	var orderID any
	if entry.OrderID != "" {
		orderID = entry.OrderID
	}

	var detail any
	if entry.Detail != "" {
		detail = entry.Detail
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO checkout_attempts (attempt_id, user_id, order_id, step, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.AttemptID, entry.UserID, orderID, entry.Step.String(), detail, time.Now().UTC())
	return err
}
