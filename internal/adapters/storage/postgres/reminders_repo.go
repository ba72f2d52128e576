package postgres

import (
	"context"
	"database/sql"
	"time"

	"lembra/internal/domain/reminders"
	"lembra/internal/platform/braziltime"
)

type RemindersRepo struct {
	db *sql.DB
}

func NewRemindersRepo(db *sql.DB) *RemindersRepo {
	return &RemindersRepo{db: db}
}

func (r *RemindersRepo) WasSent(ctx context.Context, eventID string, kind reminders.Kind) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1)
		FROM sent_reminders
		WHERE event_id = $1 AND kind = $2
	`, eventID, string(kind)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RemindersRepo) Record(ctx context.Context, sr reminders.SentReminder) error {
	// (event_id, kind) tiene unique index: el conflicto es la señal de que
	// otro tick ya lo despachó
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sent_reminders (
			id, event_id, owner_id, kind,
			message_id, sent_at, read, read_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		sr.ID,
		sr.EventID,
		sr.Owner,
		string(sr.Kind),
		sr.MessageID,
		sr.SentAt,
		sr.Read,
		toNullTime(sr.ReadAt),
	)
	return err
}

func (r *RemindersRepo) LatestForOwner(ctx context.Context, owner string) (reminders.SentReminder, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, event_id, owner_id, kind, message_id, sent_at, read, read_at
		FROM sent_reminders
		WHERE owner_id = $1
		ORDER BY sent_at DESC
		LIMIT 1
	`, owner)

	sr, err := scanSentReminder(row)
	if err == sql.ErrNoRows {
		return reminders.SentReminder{}, false, nil
	}
	if err != nil {
		return reminders.SentReminder{}, false, err
	}
	return sr, true, nil
}

func (r *RemindersRepo) MarkRead(ctx context.Context, messageID string, at time.Time) error {
	// receipt de un mensaje desconocido: 0 filas, no es error
	_, err := r.db.ExecContext(ctx, `
		UPDATE sent_reminders
		SET read = TRUE, read_at = $2
		WHERE message_id = $1
	`, messageID, at)
	return err
}

func (r *RemindersRepo) EventByMessage(ctx context.Context, messageID string) (string, bool, error) {
	var eventID string
	err := r.db.QueryRowContext(ctx, `
		SELECT event_id
		FROM sent_reminders
		WHERE message_id = $1
		ORDER BY sent_at DESC
		LIMIT 1
	`, messageID).Scan(&eventID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return eventID, true, nil
}

func scanSentReminder(row rowScanner) (reminders.SentReminder, error) {
	var sr reminders.SentReminder
	var kind string
	var readAt sql.NullTime

	if err := row.Scan(
		&sr.ID,
		&sr.EventID,
		&sr.Owner,
		&kind,
		&sr.MessageID,
		&sr.SentAt,
		&sr.Read,
		&readAt,
	); err != nil {
		return reminders.SentReminder{}, err
	}

	sr.Kind = reminders.Kind(kind)
	sr.SentAt = sr.SentAt.In(braziltime.Zone)
	if readAt.Valid {
		sr.ReadAt = readAt.Time.In(braziltime.Zone)
	}
	return sr, nil
}
