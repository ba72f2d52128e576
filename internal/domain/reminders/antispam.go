package reminders

import (
	"context"
	"time"

	"lembra/internal/platform/braziltime"
)

// GateConfig parametriza el throttle. La clasificación de críticos es
// configuración, no una lista cableada: un kind nuevo decide ahí su urgencia.
type GateConfig struct {
	CriticalKinds map[Kind]bool

	// BlockWindow: con un envío no leído más nuevo que esto, se bloquea.
	BlockWindow time.Duration
	// FailOpenAfter: no leído pero más viejo que esto => se permite igual,
	// para que un pipeline de receipts roto no silencie al usuario para
	// siempre.
	FailOpenAfter time.Duration
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		CriticalKinds: map[Kind]bool{
			Kind1Hour:     true,
			KindNow:       true,
			KindChecklist: true,
		},
		BlockWindow:   120 * time.Minute,
		FailOpenAfter: 360 * time.Minute,
	}
}

// Gate es el anti-spam: evita martillar a un usuario que no responde.
type Gate struct {
	repo Repository
	cfg  GateConfig
	now  func() time.Time
}

func NewGate(repo Repository, cfg GateConfig) *Gate {
	if cfg.BlockWindow <= 0 {
		cfg.BlockWindow = 120 * time.Minute
	}
	if cfg.FailOpenAfter <= 0 {
		cfg.FailOpenAfter = 360 * time.Minute
	}
	return &Gate{
		repo: repo,
		cfg:  cfg,
		now:  braziltime.Now,
	}
}

// CanSend decide si un recordatorio kind puede salir para owner.
// Críticos siempre salen. Para el resto: sin historial o último leído =>
// permite; no leído y reciente => bloquea; no leído y viejo => fail-open.
func (g *Gate) CanSend(ctx context.Context, owner string, kind Kind) (bool, error) {
	if g.cfg.CriticalKinds[kind] {
		return true, nil
	}

	last, ok, err := g.repo.LatestForOwner(ctx, owner)
	if err != nil {
		return false, err
	}
	if !ok || last.Read {
		return true, nil
	}

	age := g.now().Sub(last.SentAt)
	if age < g.cfg.BlockWindow {
		return false, nil
	}
	if age >= g.cfg.FailOpenAfter {
		return true, nil
	}
	// entre BlockWindow y FailOpenAfter: bloquea incondicional
	return false, nil
}
