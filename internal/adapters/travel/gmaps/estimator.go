package gmaps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lembra/internal/platform/httpclient"
	"lembra/internal/ports/travel"
)

var (
	ErrNotConfigured = errors.New("gmaps client not configured")
	ErrUpstream      = errors.New("gmaps upstream error")
)

type Config struct {
	BaseURL string // default https://maps.googleapis.com
	APIKey  string

	Timeout time.Duration
}

// Estimator consulta la Distance Matrix con tráfico al momento de salida.
type Estimator struct {
	http   *httpclient.Client
	apiKey string
}

func NewEstimator(cfg Config) (*Estimator, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = "https://maps.googleapis.com"
	}
	c, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Estimator{
		http:   c,
		apiKey: strings.TrimSpace(cfg.APIKey),
	}, nil
}

func (e *Estimator) IsConfigured() bool {
	return e != nil && e.http != nil && e.apiKey != ""
}

type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Meters int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Seconds int `json:"value"`
			} `json:"duration"`
			DurationInTraffic struct {
				Seconds int `json:"value"`
			} `json:"duration_in_traffic"`
		} `json:"elements"`
	} `json:"rows"`
}

func (e *Estimator) Estimate(ctx context.Context, origin, destination string, departure time.Time) (travel.Estimate, error) {
	if !e.IsConfigured() {
		return travel.Estimate{}, ErrNotConfigured
	}
	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return travel.Estimate{}, errors.New("gmaps: origin and destination required")
	}

	q := url.Values{}
	q.Set("origins", origin)
	q.Set("destinations", destination)
	q.Set("mode", "driving")
	q.Set("key", e.apiKey)
	if !departure.IsZero() && departure.After(time.Now()) {
		q.Set("departure_time", strconv.FormatInt(departure.Unix(), 10))
	} else {
		q.Set("departure_time", "now")
	}

	var out matrixResponse
	err := e.http.DoJSON(ctx, http.MethodGet,
		"/maps/api/distancematrix/json?"+q.Encode(), nil, nil, &out)
	if err != nil {
		return travel.Estimate{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if out.Status != "OK" || len(out.Rows) == 0 || len(out.Rows[0].Elements) == 0 {
		return travel.Estimate{}, fmt.Errorf("%w: status=%s", ErrUpstream, out.Status)
	}

	el := out.Rows[0].Elements[0]
	if el.Status != "OK" {
		return travel.Estimate{}, travel.ErrNoRoute
	}

	duration := el.Duration.Seconds
	withTraffic := el.DurationInTraffic.Seconds
	if withTraffic == 0 {
		withTraffic = duration
	}

	est := travel.Estimate{
		Minutes:    (withTraffic + 59) / 60,
		DistanceKm: float64(el.Distance.Meters) / 1000,
	}

	// nivel de tráfico por relación tiempo-con-tráfico / tiempo-base
	switch {
	case duration == 0 || withTraffic <= duration*11/10:
		est.TrafficLevel = "leve"
	case withTraffic <= duration*14/10:
		est.TrafficLevel = "moderado"
	default:
		est.TrafficLevel = "pesado"
	}

	return est, nil
}
