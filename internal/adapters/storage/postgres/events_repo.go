package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lembra/internal/domain/events"
	"lembra/internal/platform/braziltime"
)

type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

const eventColumns = `
	id, owner_id,
	kind, title, description, person, address,
	at, created_at,
	status,
	is_recurring, recurrence_id,
	checklist,
	travel_minutes, travel_km, travel_traffic, travel_origin, travel_computed_at
`

func (r *EventsRepo) Create(ctx context.Context, e events.Event) error {
	checklist, err := json.Marshal(e.Checklist)
	if err != nil {
		return fmt.Errorf("events: marshal checklist: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`,
		e.ID,
		e.Owner,
		string(e.Kind),
		e.Title,
		e.Description,
		e.Person,
		e.Address,
		e.At,
		e.CreatedAt,
		string(e.Status),
		e.IsRecurring,
		toNullString(e.RecurrenceID),
		checklist,
		e.TravelMinutes,
		e.TravelKm,
		e.TravelTraffic,
		e.TravelOrigin,
		toNullTime(e.TravelComputedAt),
	)
	return err
}

func (r *EventsRepo) Update(ctx context.Context, e events.Event) error {
	checklist, err := json.Marshal(e.Checklist)
	if err != nil {
		return fmt.Errorf("events: marshal checklist: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET
			kind = $2,
			title = $3,
			description = $4,
			person = $5,
			address = $6,
			at = $7,
			status = $8,
			checklist = $9,
			travel_minutes = $10,
			travel_km = $11,
			travel_traffic = $12,
			travel_origin = $13,
			travel_computed_at = $14
		WHERE id = $1
	`,
		e.ID,
		string(e.Kind),
		e.Title,
		e.Description,
		e.Person,
		e.Address,
		e.At,
		string(e.Status),
		checklist,
		e.TravelMinutes,
		e.TravelKm,
		e.TravelTraffic,
		e.TravelOrigin,
		toNullTime(e.TravelComputedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (events.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return events.Event{}, events.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE id = $1
	`, id)

	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return events.Event{}, events.ErrNotFound
	}
	return e, err
}

func (r *EventsRepo) ListWindow(ctx context.Context, f events.WindowFilter) ([]events.Event, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT ` + eventColumns + `
		FROM events
		WHERE 1=1
	`)

	args := []any{}
	argN := 1

	if f.Owner != "" {
		sb.WriteString(fmt.Sprintf(" AND owner_id = $%d", argN))
		args = append(args, f.Owner)
		argN++
	}
	if !f.From.IsZero() {
		sb.WriteString(fmt.Sprintf(" AND at >= $%d", argN))
		args = append(args, f.From)
		argN++
	}
	if !f.To.IsZero() {
		sb.WriteString(fmt.Sprintf(" AND at <= $%d", argN))
		args = append(args, f.To)
		argN++
	}
	if f.OnlyOpen {
		sb.WriteString(" AND (status = 'pendente' OR status = '')")
	}
	if q := strings.TrimSpace(f.TitleContains); q != "" {
		sb.WriteString(fmt.Sprintf(" AND title ILIKE $%d", argN))
		args = append(args, "%"+q+"%")
		argN++
	}
	if len(f.Kinds) > 0 {
		placeholders := make([]string, 0, len(f.Kinds))
		for _, k := range f.Kinds {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argN))
			args = append(args, string(k))
			argN++
		}
		sb.WriteString(" AND kind IN (" + strings.Join(placeholders, ",") + ")")
	}

	sb.WriteString(" ORDER BY at ASC")

	if f.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventsRepo) DeleteExpiredReminders(ctx context.Context, before time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM events
		WHERE kind = $1 AND at < $2
	`, string(events.KindReminder), before)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (events.Event, error) {
	var e events.Event
	var kind, status string
	var recurrenceID sql.NullString
	var checklist []byte
	var travelComputed sql.NullTime

	if err := row.Scan(
		&e.ID,
		&e.Owner,
		&kind,
		&e.Title,
		&e.Description,
		&e.Person,
		&e.Address,
		&e.At,
		&e.CreatedAt,
		&status,
		&e.IsRecurring,
		&recurrenceID,
		&checklist,
		&e.TravelMinutes,
		&e.TravelKm,
		&e.TravelTraffic,
		&e.TravelOrigin,
		&travelComputed,
	); err != nil {
		return events.Event{}, err
	}

	e.Kind = events.Kind(kind)
	e.Status = events.Status(status)
	e.RecurrenceID = recurrenceID.String
	if travelComputed.Valid {
		e.TravelComputedAt = travelComputed.Time.In(braziltime.Zone)
	}
	if len(checklist) > 0 {
		if err := json.Unmarshal(checklist, &e.Checklist); err != nil {
			return events.Event{}, fmt.Errorf("events: unmarshal checklist: %w", err)
		}
	}

	// timestamptz vuelve en UTC; el dominio trabaja en -03:00
	e.At = e.At.In(braziltime.Zone)
	e.CreatedAt = e.CreatedAt.In(braziltime.Zone)

	return e, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
