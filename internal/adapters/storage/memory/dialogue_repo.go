package memory

import (
	"context"
	"errors"
	"sync"

	"lembra/internal/domain/dialogue"
)

type dialogueRepo struct {
	mu    sync.RWMutex
	turns []dialogue.Turn
}

func NewDialogueRepo() dialogue.Repository {
	return &dialogueRepo{}
}

func (r *dialogueRepo) AppendTurn(ctx context.Context, t dialogue.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" {
		return errors.New("turn id required")
	}
	r.turns = append(r.turns, t)
	return nil
}

func (r *dialogueRepo) LastTurns(ctx context.Context, owner string, n int) ([]dialogue.Turn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]dialogue.Turn, 0, n)
	for i := len(r.turns) - 1; i >= 0 && len(out) < n; i-- {
		if r.turns[i].Owner == owner {
			out = append(out, r.turns[i])
		}
	}
	return out, nil
}
