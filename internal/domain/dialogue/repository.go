package dialogue

import "context"

type Repository interface {
	AppendTurn(ctx context.Context, t Turn) error
	// LastTurns devuelve los últimos n turnos del dueño, el más nuevo primero.
	LastTurns(ctx context.Context, owner string, n int) ([]Turn, error)
}
