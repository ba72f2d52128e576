package events

import (
	"context"
	"strings"

	"lembra/internal/platform/braziltime"
)

const (
	searchLimit          = 10
	DefaultSearchHorizon = 30 // días
)

type FindResult struct {
	Events   []Event
	WasFuzzy bool
}

// Find busca eventos abiertos del dueño por fragmento de título, en dos etapas:
//  1. substring exacto (case-insensitive) — evita falsos positivos con
//     palabras cortas;
//  2. fuzzy: AND de tokens (>2 chars) contra el título — tolera reorden y
//     frases parciales típicas de comandos por voz.
func (s *Service) Find(ctx context.Context, owner, query string, horizonDays int) (FindResult, error) {
	query = strings.TrimSpace(query)
	if strings.TrimSpace(owner) == "" || query == "" {
		return FindResult{}, ErrInvalidInput
	}
	if horizonDays <= 0 {
		horizonDays = DefaultSearchHorizon
	}

	now := s.now()
	window := WindowFilter{
		Owner:    owner,
		From:     braziltime.StartOfDay(now),
		To:       now.AddDate(0, 0, horizonDays),
		OnlyOpen: true,
		Limit:    searchLimit,
	}

	// Etapa 1: match exacto por substring.
	exact := window
	exact.TitleContains = query
	found, err := s.repo.ListWindow(ctx, exact)
	if err != nil {
		return FindResult{}, err
	}
	if len(found) > 0 {
		return FindResult{Events: found}, nil
	}

	// Etapa 2: fuzzy. Tokens cortos fuera (≤2 chars: "de", "a", "no"...).
	tokens := fuzzyTokens(query)
	if len(tokens) == 0 {
		return FindResult{}, nil
	}

	candidates := window
	candidates.Limit = 0 // la ventana completa; el corte viene después
	all, err := s.repo.ListWindow(ctx, candidates)
	if err != nil {
		return FindResult{}, err
	}

	out := make([]Event, 0, searchLimit)
	for _, e := range all {
		if titleHasAllTokens(e.Title, tokens) {
			out = append(out, e)
			if len(out) == searchLimit {
				break
			}
		}
	}
	return FindResult{Events: out, WasFuzzy: true}, nil
}

func fuzzyTokens(q string) []string {
	fields := strings.Fields(strings.ToLower(q))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) <= 2 {
			continue
		}
		out = append(out, f)
	}
	return out
}

func titleHasAllTokens(title string, tokens []string) bool {
	low := strings.ToLower(title)
	for _, tk := range tokens {
		if !strings.Contains(low, tk) {
			return false
		}
	}
	return true
}
