package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/futuricity/livability/internal/model"
	"github.com/futuricity/livability/internal/pipeline"
	"github.com/futuricity/livability/pkg/overpass"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scoring HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runner, client, err := newRunner(cfg)
		if err != nil {
			return err
		}

		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", handleHealth(client))
		r.Post("/v1/scores", handleBatchScores(runner))
		r.Post("/calculate-score", handleSingleScore(runner))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// handleHealth reports liveness plus the Overpass breaker state, so an
// operator can tell a healthy process from one waiting out an outage.
func handleHealth(client *overpass.HTTPClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":           "ok",
			"overpass_breaker": client.BreakerState().String(),
		})
	}
}

// handleBatchScores scores a batch of locations. The whole batch is
// validated before any fetch; a validation failure rejects it entirely.
func handleBatchScores(runner *pipeline.Runner) http.HandlerFunc {
	type request struct {
		Locations []model.Location `json:"locations"`
	}
	type locationError struct {
		Index int    `json:"index"`
		Error string `json:"error"`
	}
	type response struct {
		Results []model.LocationResult `json:"results"`
		Errors  []locationError        `json:"errors,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		log := zap.L().With(zap.String("request_id", uuid.NewString()))

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := pipeline.ValidateBatch(req.Locations); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		batch, err := runner.Run(r.Context(), req.Locations)
		if err != nil {
			log.Error("batch scoring failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "scoring failed")
			return
		}

		resp := response{Results: batch.Results}
		for _, le := range batch.Errors {
			resp.Errors = append(resp.Errors, locationError{Index: le.Index, Error: le.Err.Error()})
		}

		log.Info("batch scored",
			zap.Int("locations", len(req.Locations)),
			zap.Int("failed", len(batch.Errors)),
		)
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleSingleScore is the single-point endpoint; it wraps a one-element
// batch and returns the bare result.
func handleSingleScore(runner *pipeline.Runner) http.HandlerFunc {
	type request struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		log := zap.L().With(zap.String("request_id", uuid.NewString()))

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		loc := model.Location{Lat: req.Lat, Lng: req.Lng}
		if err := loc.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := runner.RunOne(r.Context(), loc)
		if err != nil {
			log.Error("scoring failed",
				zap.Float64("lat", req.Lat),
				zap.Float64("lng", req.Lng),
				zap.Error(err),
			)
			writeError(w, http.StatusServiceUnavailable, "scoring failed")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
