package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rivalscan/internal/engine"
	"github.com/sells-group/rivalscan/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the discovery HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng := initEngine()

		// Snapshot persistence is optional in serve mode.
		st, err := initStore(ctx)
		if err != nil {
			zap.L().Warn("serve: store unavailable, snapshots disabled", zap.Error(err))
			st = nil
		} else {
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(eng, st),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("serve: shutting down")
			srv.Shutdown(context.Background()) //nolint:errcheck
		}()

		zap.L().Info("serve: starting", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func newRouter(eng *engine.Engine, st store.Store) http.Handler {
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

	r.Post("/api/v1/competitors", func(w http.ResponseWriter, req *http.Request) {
		domain, ok := decodeDomain(w, req)
		if !ok {
			return
		}
		report, err := eng.Competitors(req.Context(), domain)
		if err != nil {
			writeEngineError(w, domain, err)
			return
		}
		saveSnapshot(req.Context(), st, report.Target, store.ScanCompetitors, report)
		writeJSON(w, http.StatusOK, report)
	})

	r.Post("/api/v1/keywords", func(w http.ResponseWriter, req *http.Request) {
		domain, ok := decodeDomain(w, req)
		if !ok {
			return
		}
		report, err := eng.Keywords(req.Context(), domain)
		if err != nil {
			writeEngineError(w, domain, err)
			return
		}
		saveSnapshot(req.Context(), st, report.Target, store.ScanKeywords, report)
		writeJSON(w, http.StatusOK, report)
	})

	return r
}

func decodeDomain(w http.ResponseWriter, req *http.Request) (string, bool) {
	var body struct {
		Domain string `json:"domain"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return "", false
	}
	if body.Domain == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "domain is required"})
		return "", false
	}
	return body.Domain, true
}

func writeEngineError(w http.ResponseWriter, domain string, err error) {
	if eris.Is(err, engine.ErrInvalidDomain) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "not a resolvable domain", "domain": domain})
		return
	}
	zap.L().Error("serve: discovery failed", zap.String("domain", domain), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "discovery failed"})
}

func saveSnapshot(ctx context.Context, st store.Store, domain string, kind store.ScanKind, payload any) {
	if st == nil {
		return
	}
	if _, err := st.SaveScan(ctx, domain, kind, payload); err != nil {
		zap.L().Warn("serve: snapshot save failed",
			zap.String("domain", domain),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
