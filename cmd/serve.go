package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/cnpj-cli/internal/cnpj"
	"github.com/sells-group/cnpj-cli/internal/resilience"
	"github.com/sells-group/cnpj-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP lookup facade",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/lookup", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				CNPJ string `json:"cnpj"`
				Save bool   `json:"save"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.CNPJ == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cnpj is required"})
				return
			}

			// Each API request counts as an interactive trigger.
			if ok, wait := env.Engine.Throttle().Allow(time.Now()); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds()+1)))
				writeJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":        "throttled",
					"retry_after_s": wait.Seconds(),
				})
				return
			}

			res, err := env.Engine.Lookup(req.Context(), body.CNPJ)
			switch {
			case errors.Is(err, cnpj.ErrInvalid):
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
				return
			case errors.Is(err, resilience.ErrAllProvidersFailed):
				// Statuses still carry the per-provider detail.
			case err != nil:
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}

			if body.Save && !res.AllFailed {
				if _, serr := env.Store.SaveLookup(req.Context(), res); serr != nil {
					zap.L().Warn("saving lookup failed", zap.Error(serr))
				}
			}

			status := http.StatusOK
			if res.AllFailed {
				status = http.StatusBadGateway
			}
			writeJSON(w, status, res)
		})

		r.Post("/session/clear", func(w http.ResponseWriter, _ *http.Request) {
			env.Engine.ClearSession()
			writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
		})

		r.Get("/lookups", func(w http.ResponseWriter, req *http.Request) {
			lookups, err := env.Store.ListLookups(req.Context(), lookupFilterFromQuery(req))
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, lookups)
		})

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
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func lookupFilterFromQuery(req *http.Request) store.LookupFilter {
	f := store.LookupFilter{Identifier: req.URL.Query().Get("cnpj")}
	if n, err := strconv.Atoi(req.URL.Query().Get("limit")); err == nil {
		f.Limit = n
	}
	if n, err := strconv.Atoi(req.URL.Query().Get("offset")); err == nil {
		f.Offset = n
	}
	return f
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
