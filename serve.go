package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"jobtrack/pipeline"
)

// startServer exposes the pipeline behind an HTTP trigger. Concurrent runs
// against one sheet are unsafe, so triggers are serialized with a mutex.
func startServer(p *pipeline.Pipeline, port string, logger *slog.Logger) {
	var running sync.Mutex

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprint(w, "ok"); err != nil {
			logger.Warn("Failed to write response", "error", err)
		}
	})

	mux.HandleFunc("/triggerz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		logger.Info("Trigger endpoint hit")
		running.Lock()
		sum, err := p.Run(r.Context())
		running.Unlock()
		if err != nil {
			logger.Error("Run failed", "error", err)
			http.Error(w, "Run failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(sum); err != nil {
			logger.Warn("Failed to write response", "error", err)
		}
	})

	logger.Info("Starting HTTP server", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
