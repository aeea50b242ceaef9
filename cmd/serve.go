package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/streeteats/cleanup-cli/internal/cleanup"
	"github.com/streeteats/cleanup-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(initService(st), cfg.Cleanup.BatchSize),
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting admin server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

// cleanupRequest is the body of POST /api/admin/data-cleanup.
type cleanupRequest struct {
	Action      string   `json:"action"`
	RecordID    string   `json:"record_id,omitempty"`
	PrimaryID   string   `json:"primary_id,omitempty"`
	DuplicateID string   `json:"duplicate_id,omitempty"`
	Operations  []string `json:"operations,omitempty"`
	MaxRecords  int      `json:"max_records,omitempty"`
}

// apiResponse is the envelope every admin endpoint returns.
type apiResponse struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
	Result  any    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

func newRouter(svc *cleanup.Service, batchSize int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/admin/data-cleanup", func(w http.ResponseWriter, req *http.Request) {
		action := req.URL.Query().Get("action")
		switch action {
		case "status":
			status, err := svc.Status(req.Context())
			respond(w, action, status, err)
		case "preview":
			result, err := svc.RunFullCleanup(req.Context(), cleanup.Options{
				BatchSize: batchSize,
				DryRun:    true,
			})
			respond(w, action, result, err)
		default:
			writeJSON(w, http.StatusBadRequest, apiResponse{
				Action:  action,
				Message: fmt.Sprintf("unknown action %q", action),
			})
		}
	})

	r.Post("/api/admin/data-cleanup", func(w http.ResponseWriter, req *http.Request) {
		var body cleanupRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, apiResponse{Message: "invalid request body"})
			return
		}

		switch body.Action {
		case "full-cleanup", "dry-run":
			ops := make([]model.OperationType, 0, len(body.Operations))
			for _, op := range body.Operations {
				ops = append(ops, model.OperationType(op))
			}
			result, err := svc.RunFullCleanup(req.Context(), cleanup.Options{
				BatchSize:  batchSize,
				DryRun:     body.Action == "dry-run",
				Operations: ops,
				MaxRecords: body.MaxRecords,
			})
			respond(w, body.Action, result, err)
		case "check-duplicates":
			if body.RecordID == "" {
				writeJSON(w, http.StatusBadRequest, apiResponse{
					Action:  body.Action,
					Message: "record_id is required",
				})
				return
			}
			pairs, err := svc.CheckRecord(req.Context(), body.RecordID, batchSize)
			respond(w, body.Action, pairs, err)
		case "merge-duplicates":
			if body.PrimaryID == "" || body.DuplicateID == "" {
				writeJSON(w, http.StatusBadRequest, apiResponse{
					Action:  body.Action,
					Message: "primary_id and duplicate_id are required",
				})
				return
			}
			outcome, err := svc.Merge(req.Context(), body.PrimaryID, body.DuplicateID, false)
			respond(w, body.Action, outcome, err)
		default:
			writeJSON(w, http.StatusBadRequest, apiResponse{
				Action:  body.Action,
				Message: fmt.Sprintf("unknown action %q", body.Action),
			})
		}
	})

	return r
}

// respond maps a service result to the API envelope. Validation failures map
// to 400; anything else that errors is a failed job, reported with 200 and
// success=false so callers can distinguish it from a transport problem.
func respond(w http.ResponseWriter, action string, result any, err error) {
	if err != nil {
		status := http.StatusOK
		if cleanup.IsValidation(err) || errors.Is(err, cleanup.ErrNotFound) {
			status = http.StatusBadRequest
		}
		zap.L().Error("admin action failed", zap.String("action", action), zap.Error(err))
		writeJSON(w, status, apiResponse{
			Action:  action,
			Message: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Action:  action,
		Result:  result,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
