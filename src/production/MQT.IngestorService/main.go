package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	container "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Container"
	mqtingestor "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.IngestorService/ingestor"
)

func main() {
	ctr, err := container.NewIngestorContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	log := ctr.GetLogger()
	log.Info().Msg("Starting MQTT Ingestor Service")

	cfg := ctr.GetConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ctr.InitializeDatabase(ctx); err != nil {
		log.FatalWithError(err, "Failed to initialize database")
	}

	writer, err := ctr.GetIngestionWriter()
	if err != nil {
		log.FatalWithError(err, "Failed to build ingestion pipeline")
	}

	ing := mqtingestor.New(cfg.MQTT, writer, log)
	if err := ing.Start(ctx); err != nil {
		if ctx.Err() != nil {
			log.Info().Msg("Shutdown requested before the broker was reachable")
			return
		}
		log.FatalWithError(err, "Failed to start MQTT ingestor")
	}
	defer ing.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      healthMux(ctr, ing),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Health server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorWithError(err, "Health server failed")
		}
	}()

	log.Info().Str("broker", cfg.MQTT.BrokerURL()).Msg("MQTT ingestor running... press Ctrl+C to stop")
	<-ctx.Done()

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorWithError(err, "Health server shutdown failed")
	}
}

func healthMux(ctr *container.IngestorContainer, ing *mqtingestor.Ingestor) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		mqttStatus := "disconnected"
		if ing.IsConnected() {
			mqttStatus = "connected"
		}

		db := ctr.HealthCheck(ctx)

		status := "healthy"
		code := http.StatusOK
		if mqttStatus != "connected" || db["status"] != "ok" {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		body, _ := json.Marshal(map[string]interface{}{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services": map[string]interface{}{
				"mqtt":     mqttStatus,
				"database": db,
				"alerting": ctr.GetDispatcher().BreakerStatus(),
			},
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		w.Write(body)
	})
	return mux
}
