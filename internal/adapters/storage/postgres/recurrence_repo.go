package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lembra/internal/domain/recurrence"
	"lembra/internal/platform/braziltime"
)

type RecurrenceRepo struct {
	db *sql.DB
}

func NewRecurrenceRepo(db *sql.DB) *RecurrenceRepo {
	return &RecurrenceRepo{db: db}
}

func (r *RecurrenceRepo) CreateRule(ctx context.Context, rule recurrence.Rule) error {
	weekdays, err := json.Marshal(rule.Weekdays)
	if err != nil {
		return fmt.Errorf("recurrence: marshal weekdays: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recurrence_rules (
			id, owner_id, origin_event_id,
			frequency, interval_n, weekdays, month_day,
			start_date, end_date, occurrence_count,
			active, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		rule.ID,
		rule.Owner,
		rule.OriginEventID,
		string(rule.Frequency),
		rule.Interval,
		weekdays,
		rule.MonthDay,
		rule.StartDate,
		toNullTime(rule.EndDate),
		rule.Count,
		rule.Active,
		rule.CreatedAt,
	)
	return err
}

func (r *RecurrenceRepo) GetRule(ctx context.Context, id string) (recurrence.Rule, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return recurrence.Rule{}, recurrence.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, owner_id, origin_event_id,
			frequency, interval_n, weekdays, month_day,
			start_date, end_date, occurrence_count,
			active, created_at
		FROM recurrence_rules
		WHERE id = $1
	`, id)

	var rule recurrence.Rule
	var freq string
	var weekdays []byte
	var endDate sql.NullTime

	if err := row.Scan(
		&rule.ID,
		&rule.Owner,
		&rule.OriginEventID,
		&freq,
		&rule.Interval,
		&weekdays,
		&rule.MonthDay,
		&rule.StartDate,
		&endDate,
		&rule.Count,
		&rule.Active,
		&rule.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return recurrence.Rule{}, recurrence.ErrNotFound
		}
		return recurrence.Rule{}, err
	}

	rule.Frequency = recurrence.Frequency(freq)
	if len(weekdays) > 0 {
		if err := json.Unmarshal(weekdays, &rule.Weekdays); err != nil {
			return recurrence.Rule{}, fmt.Errorf("recurrence: unmarshal weekdays: %w", err)
		}
	}
	if endDate.Valid {
		rule.EndDate = endDate.Time.In(braziltime.Zone)
	}
	rule.StartDate = rule.StartDate.In(braziltime.Zone)
	rule.CreatedAt = rule.CreatedAt.In(braziltime.Zone)

	return rule, nil
}

func (r *RecurrenceRepo) UpdateRule(ctx context.Context, rule recurrence.Rule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurrence_rules
		SET end_date = $2, occurrence_count = $3, active = $4
		WHERE id = $1
	`,
		rule.ID,
		toNullTime(rule.EndDate),
		rule.Count,
		rule.Active,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return recurrence.ErrNotFound
	}
	return nil
}

func (r *RecurrenceRepo) CreateOccurrence(ctx context.Context, o recurrence.Occurrence) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurrence_occurrences (id, rule_id, event_id, date, excluded)
		VALUES ($1,$2,$3,$4,$5)
	`,
		o.ID,
		o.RuleID,
		o.EventID,
		braziltime.StartOfDay(o.Date),
		o.Excluded,
	)
	return err
}

func (r *RecurrenceRepo) GetOccurrence(ctx context.Context, ruleID string, date time.Time) (recurrence.Occurrence, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, rule_id, event_id, date, excluded
		FROM recurrence_occurrences
		WHERE rule_id = $1 AND date = $2
	`, ruleID, braziltime.StartOfDay(date))

	var o recurrence.Occurrence
	if err := row.Scan(&o.ID, &o.RuleID, &o.EventID, &o.Date, &o.Excluded); err != nil {
		if err == sql.ErrNoRows {
			return recurrence.Occurrence{}, recurrence.ErrNotFound
		}
		return recurrence.Occurrence{}, err
	}
	o.Date = o.Date.In(braziltime.Zone)
	return o, nil
}

func (r *RecurrenceRepo) UpdateOccurrence(ctx context.Context, o recurrence.Occurrence) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurrence_occurrences
		SET event_id = $2, excluded = $3
		WHERE id = $1
	`,
		o.ID,
		o.EventID,
		o.Excluded,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return recurrence.ErrNotFound
	}
	return nil
}
