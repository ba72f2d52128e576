package travel

import (
	"context"
	"errors"
	"time"
)

var ErrNoRoute = errors.New("travel: no route found")

type Estimate struct {
	Minutes      int
	DistanceKm   float64
	TrafficLevel string // "leve" | "moderado" | "pesado"
}

// Estimator es la capacidad externa de tiempo de viaje (origen -> destino).
type Estimator interface {
	Estimate(ctx context.Context, origin, destination string, departure time.Time) (Estimate, error)
}
