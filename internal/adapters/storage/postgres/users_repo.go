package postgres

import (
	"context"
	"database/sql"
	"strings"

	"lembra/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) UpsertUser(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, phone, created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (phone) DO UPDATE SET name = EXCLUDED.name
	`,
		u.ID,
		u.Name,
		u.Phone,
		u.CreatedAt,
	)
	return err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, phone, created_at
		FROM users
		WHERE id = $1
	`, id)

	return scanUser(row)
}

func (r *UsersRepo) GetByPhone(ctx context.Context, phone string) (users.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return users.User{}, users.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, phone, created_at
		FROM users
		WHERE phone = $1
	`, phone)

	return scanUser(row)
}

func (r *UsersRepo) UpsertPlace(ctx context.Context, p users.Place) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO places (id, owner_id, label, address)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (owner_id, label) DO UPDATE SET
			id = EXCLUDED.id,
			address = EXCLUDED.address
	`,
		p.ID,
		p.Owner,
		p.Label,
		p.Address,
	)
	return err
}

func (r *UsersRepo) GetPlace(ctx context.Context, owner, label string) (users.Place, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, label, address
		FROM places
		WHERE owner_id = $1 AND label = $2
	`, owner, label)

	var p users.Place
	if err := row.Scan(&p.ID, &p.Owner, &p.Label, &p.Address); err != nil {
		if err == sql.ErrNoRows {
			return users.Place{}, users.ErrNotFound
		}
		return users.Place{}, err
	}
	return p, nil
}

func (r *UsersRepo) ListPlaces(ctx context.Context, owner string) ([]users.Place, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, label, address
		FROM places
		WHERE owner_id = $1
		ORDER BY label ASC
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.Place, 0)
	for rows.Next() {
		var p users.Place
		if err := rows.Scan(&p.ID, &p.Owner, &p.Label, &p.Address); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	if err := row.Scan(&u.ID, &u.Name, &u.Phone, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}
	return u, nil
}
