package postgres

import (
	"context"
	"database/sql"
	"time"

	"lembra/internal/domain/followups"
	"lembra/internal/platform/braziltime"
)

type FollowupsRepo struct {
	db *sql.DB
}

func NewFollowupsRepo(db *sql.DB) *FollowupsRepo {
	return &FollowupsRepo{db: db}
}

const ticketColumns = `
	id, event_id, owner_id,
	attempts, max_attempts,
	next_due, deadline,
	active, completed,
	created_at, updated_at
`

func (r *FollowupsRepo) Create(ctx context.Context, t followups.Ticket) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO followup_tickets (`+ticketColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		t.ID,
		t.EventID,
		t.Owner,
		t.Attempts,
		t.MaxAttempts,
		t.NextDue,
		t.Deadline,
		t.Active,
		t.Completed,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

func (r *FollowupsRepo) Update(ctx context.Context, t followups.Ticket) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE followup_tickets
		SET
			attempts = $2,
			next_due = $3,
			active = $4,
			completed = $5,
			updated_at = $6
		WHERE id = $1
	`,
		t.ID,
		t.Attempts,
		t.NextDue,
		t.Active,
		t.Completed,
		t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *FollowupsRepo) ActiveByEvent(ctx context.Context, eventID string) (followups.Ticket, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+ticketColumns+`
		FROM followup_tickets
		WHERE event_id = $1 AND active = TRUE
		LIMIT 1
	`, eventID)

	t, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return followups.Ticket{}, false, nil
	}
	if err != nil {
		return followups.Ticket{}, false, err
	}
	return t, true, nil
}

func (r *FollowupsRepo) ListDue(ctx context.Context, due time.Time, limit int) ([]followups.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ticketColumns+`
		FROM followup_tickets
		WHERE active = TRUE AND next_due <= $1
		ORDER BY next_due ASC
		LIMIT $2
	`, due, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]followups.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTicket(row rowScanner) (followups.Ticket, error) {
	var t followups.Ticket
	if err := row.Scan(
		&t.ID,
		&t.EventID,
		&t.Owner,
		&t.Attempts,
		&t.MaxAttempts,
		&t.NextDue,
		&t.Deadline,
		&t.Active,
		&t.Completed,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return followups.Ticket{}, err
	}

	t.NextDue = t.NextDue.In(braziltime.Zone)
	t.Deadline = t.Deadline.In(braziltime.Zone)
	t.CreatedAt = t.CreatedAt.In(braziltime.Zone)
	t.UpdatedAt = t.UpdatedAt.In(braziltime.Zone)
	return t, nil
}
