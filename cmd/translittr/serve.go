// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/kraklabs/translittr/internal/config"
	apperrors "github.com/kraklabs/translittr/internal/errors"
	"github.com/kraklabs/translittr/pkg/job"
)

// translittrServer exposes the job engine over HTTP: asynchronous job
// creation that returns immediately with a job id, status polling,
// and a WebSocket progress room per job, matching the teacher's
// cieServer async-job pattern (cmd/cie/serve.go).
type translittrServer struct {
	app *app
}

// runServe executes the 'serve' CLI command: it starts the HTTP job
// API and, unless --metrics-addr is empty, a separate Prometheus
// metrics listener, matching the teacher's --metrics-addr convention.
func runServe(globals GlobalFlags, args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ExitOnError)
	addr := fs.String("addr", ":8088", "HTTP listen address for the job API")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(config.ProjectConfigPath("."))
	if err != nil {
		return err
	}

	logger := slog.Default()
	a, err := newApp(cfg, ".", logger)
	if err != nil {
		return apperrors.NewInternalError("could not initialize translittr", err.Error(), "", err)
	}
	defer a.Jobs.Close()

	srv := &translittrServer{app: a}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/v1/jobs", srv.handleJobs)
	mux.HandleFunc("/v1/jobs/", srv.handleJob)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if *metricsAddr != "" {
		go func() {
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
			metricsServer := &http.Server{Addr: *metricsAddr, Handler: metricsMux, ReadHeaderTimeout: 10 * time.Second}
			logger.Info("serve.metrics.start", "addr", *metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("serve.metrics.error", "error", err)
			}
		}()
	}

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigC
		logger.Info("serve.shutdown.signal")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctx)
	}()

	logger.Info("serve.start", "addr", *addr, "project_id", cfg.ProjectID)
	fmt.Printf("translittr serving on http://0.0.0.0%s\n", *addr)
	fmt.Println("  GET    /health              health check")
	fmt.Println("  POST   /v1/jobs             start a translation job")
	fmt.Println("  GET    /v1/jobs             list known jobs")
	fmt.Println("  GET    /v1/jobs/{id}        job status")
	fmt.Println("  DELETE /v1/jobs/{id}        cancel a job")
	fmt.Println("  GET    /v1/jobs/{id}/ws     progress WebSocket")

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return apperrors.NewNetworkError("HTTP server error", err.Error(), "", err)
	}
	return nil
}

func (s *translittrServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"project_id": s.app.Config.ProjectID,
		"running":    s.app.Jobs.CountRunning(),
	})
}

func (s *translittrServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createJob(w, r)
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.app.Jobs.List(""))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *translittrServer) createJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InputDir  string `json:"input_dir"`
		OutputDir string `json:"output_dir"`
		Owner     string `json:"owner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.InputDir == "" {
		http.Error(w, "input_dir is required", http.StatusBadRequest)
		return
	}
	if req.OutputDir == "" {
		req.OutputDir = req.InputDir + "-pt_br"
	}
	if _, err := os.Stat(req.InputDir); err != nil {
		http.Error(w, "input_dir not found: "+err.Error(), http.StatusBadRequest)
		return
	}

	j, err := job.NewJob(req.InputDir, req.OutputDir, req.Owner)
	if err != nil {
		http.Error(w, "failed to create job: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.app.Jobs.Put(j)

	go func() {
		ctx := context.Background()
		if err := s.app.Runner.Run(ctx, j, s.app.Hub.ProgressCallback(j.ID)); err != nil {
			s.app.Hub.Broadcast(job.Event{Type: job.EventError, JobID: j.ID, Message: err.Error()})
			return
		}
		// Run returns a nil error both for a completed job and for one
		// cancelled mid-dispatch; only a real completion gets the
		// translation_complete event.
		switch j.Snapshot().Status {
		case job.StatusCompleted:
			s.app.Hub.Broadcast(job.Event{Type: job.EventComplete, JobID: j.ID})
		case job.StatusCancelled:
			s.app.Hub.Broadcast(job.Event{Type: job.EventError, JobID: j.ID, Message: "job cancelled"})
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{"job_id": j.ID, "status": "running"})
}

func (s *translittrServer) handleJob(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if path == "" {
		http.Error(w, "job id is required", http.StatusBadRequest)
		return
	}

	if strings.HasSuffix(path, "/ws") {
		jobID := strings.TrimSuffix(path, "/ws")
		s.handleJobWS(w, r, jobID)
		return
	}

	jobID := path
	j, ok := s.app.Jobs.Get(jobID)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(j.Snapshot())
	case http.MethodDelete:
		j.Cancel()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"job_id": jobID, "status": "cancelling"})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *translittrServer) handleJobWS(w http.ResponseWriter, r *http.Request, jobID string) {
	if _, ok := s.app.Jobs.Get(jobID); !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	conn, err := s.app.Hub.Join(w, r, jobID)
	if err != nil {
		s.app.Logger.Warn("serve.ws.upgrade_failed", "job_id", jobID, "error", err)
		return
	}
	defer s.app.Hub.Leave(jobID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
