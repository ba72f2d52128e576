package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"lembra/internal/adapters/auth/webhook"
	"lembra/internal/adapters/nlu/llm"
	"lembra/internal/adapters/transport/zapi"
	"lembra/internal/adapters/travel/gmaps"
	"lembra/internal/platform/logger"
	"lembra/internal/ports/auth"
	"lembra/internal/ports/nlu"
	"lembra/internal/ports/transport"
	"lembra/internal/ports/travel"
	"lembra/internal/router"
)

func main() {
	_ = godotenv.Load()

	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	var verifier auth.Verifier
	if secret := os.Getenv("WEBHOOK_SECRET"); secret != "" {
		verifier = webhook.NewVerifier(secret)
	} else {
		log.Warn("WEBHOOK_SECRET not set, running in dev mode", nil)
	}

	var sender transport.Sender
	if base := os.Getenv("ZAPI_BASE_URL"); base != "" {
		s, err := zapi.NewSender(zapi.Config{
			BaseURL:    base,
			InstanceID: os.Getenv("ZAPI_INSTANCE_ID"),
			Token:      os.Getenv("ZAPI_TOKEN"),
		})
		if err != nil {
			log.Error("zapi config invalid", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		sender = s
	}

	var extractor nlu.Extractor
	if base := os.Getenv("LLM_BASE_URL"); base != "" {
		e, err := llm.NewExtractor(llm.Config{
			BaseURL: base,
			APIKey:  os.Getenv("LLM_API_KEY"),
			Model:   os.Getenv("LLM_MODEL"),
		})
		if err != nil {
			log.Error("llm config invalid", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		extractor = e
	}

	var estimator travel.Estimator
	if key := os.Getenv("GMAPS_API_KEY"); key != "" {
		g, err := gmaps.NewEstimator(gmaps.Config{APIKey: key})
		if err != nil {
			log.Error("gmaps config invalid", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		estimator = g
	}

	r := router.NewRouter(router.Options{
		Verifier:  verifier,
		Sender:    sender,
		Extractor: extractor,
		Estimator: estimator,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
