package users

import "time"

// User es el vínculo dueño <-> canal de mensajería (teléfono).
type User struct {
	ID        string
	Name      string
	Phone     string // handle E.164 del canal
	CreatedAt time.Time
}

// Place es un lugar favorito ("casa", "trabalho"); el label es único por
// dueño y sirve de origen default para estimar viaje.
type Place struct {
	ID      string
	Owner   string
	Label   string
	Address string
}
