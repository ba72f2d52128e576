package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"lembra/internal/domain/dialogue"
	"lembra/internal/platform/braziltime"
)

type DialogueRepo struct {
	db *sql.DB
}

func NewDialogueRepo(db *sql.DB) *DialogueRepo {
	return &DialogueRepo{db: db}
}

func (r *DialogueRepo) AppendTurn(ctx context.Context, t dialogue.Turn) error {
	// el contexto es un blob chico y de vida corta; JSONB evita una tabla
	// por cada variante de acción pendiente
	var contextJSON []byte
	if t.Context != nil {
		b, err := json.Marshal(t.Context)
		if err != nil {
			return fmt.Errorf("dialogue: marshal context: %w", err)
		}
		contextJSON = b
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dialogue_turns (
			id, owner_id,
			user_message, assistant_message,
			context, created_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		t.ID,
		t.Owner,
		t.UserMessage,
		t.AssistantMessage,
		toNullBytes(contextJSON),
		t.CreatedAt,
	)
	return err
}

func (r *DialogueRepo) LastTurns(ctx context.Context, owner string, n int) ([]dialogue.Turn, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, user_message, assistant_message, context, created_at
		FROM dialogue_turns
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, owner, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dialogue.Turn, 0, n)
	for rows.Next() {
		var t dialogue.Turn
		var contextJSON []byte
		if err := rows.Scan(
			&t.ID,
			&t.Owner,
			&t.UserMessage,
			&t.AssistantMessage,
			&contextJSON,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(contextJSON) > 0 {
			var c dialogue.Context
			if err := json.Unmarshal(contextJSON, &c); err != nil {
				return nil, fmt.Errorf("dialogue: unmarshal context: %w", err)
			}
			t.Context = &c
		}
		t.CreatedAt = t.CreatedAt.In(braziltime.Zone)
		out = append(out, t)
	}
	return out, rows.Err()
}

func toNullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
