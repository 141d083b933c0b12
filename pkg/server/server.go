// Package server is the HTTP front-end for starting scrape, clean and export runs.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/export"
	"github.com/Sriram-PR/pair-scraper/pkg/orchestrate"
	"github.com/Sriram-PR/pair-scraper/pkg/pipeline"
	"github.com/Sriram-PR/pair-scraper/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Runner is the set of runs exposed over HTTP
type Runner interface {
	PrepareScrape(seed string, threads any) (orchestrate.ScrapeRequest, error)
	Scrape(ctx context.Context, req orchestrate.ScrapeRequest, opts ...pipeline.RunOption) orchestrate.Result
	Clean(ctx context.Context) orchestrate.Result
	Export(format string) orchestrate.Result
}

type scrapeRequest struct {
	URL     string `json:"url"`
	Threads any    `json:"threads"`
}

type exportRequest struct {
	Format string `json:"format"`
}

// Server serves the run endpoints
type Server struct {
	runner Runner
	log    *logrus.Entry
}

func New(runner Runner, log *logrus.Entry) *Server {
	return &Server{runner: runner, log: log}
}

// Handler returns the routed handler with correlation ids applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /startScraping", s.startScraping)
	mux.HandleFunc("POST /startCleaning", s.startCleaning)
	mux.HandleFunc("POST /exportData", s.exportData)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return CorrelationID(s.log, mux)
}

// Run listens on addr until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (s *Server) startScraping(w http.ResponseWriter, r *http.Request) {
	var body scrapeRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeResult(w, r, invalid(err))
		return
	}

	req, err := s.runner.PrepareScrape(body.URL, body.Threads)
	if err != nil {
		s.writeResult(w, r, invalid(err))
		return
	}
	s.writeResult(w, r, s.runner.Scrape(r.Context(), req))
}

func (s *Server) startCleaning(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, r, s.runner.Clean(r.Context()))
}

func (s *Server) exportData(w http.ResponseWriter, r *http.Request) {
	body := exportRequest{Format: export.FormatJSONL}
	if err := decodeBody(r, &body); err != nil {
		s.writeResult(w, r, invalid(err))
		return
	}
	s.writeResult(w, r, s.runner.Export(body.Format))
}

// decodeBody reads an optional JSON object into dst. Numbers stay json.Number.
func decodeBody(r *http.Request, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %w", utils.ErrResponseBodyRead, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: request JSON: %w", utils.ErrParsing, err)
	}
	return nil
}

type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func invalid(err error) orchestrate.Result {
	return orchestrate.Result{Status: orchestrate.StatusError, Message: err.Error(), Err: badRequest{err}}
}

func statusCode(res orchestrate.Result) int {
	var br badRequest
	switch {
	case res.OK():
		return http.StatusOK
	case errors.As(res.Err, &br), res.InvalidInput():
		return http.StatusBadRequest
	case errors.Is(res.Err, utils.ErrRunInProgress):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, res orchestrate.Result) {
	code := statusCode(res)
	if code != http.StatusOK {
		s.log.WithFields(logrus.Fields{
			"path":           r.URL.Path,
			"status":         code,
			"correlation_id": GetCorrelationID(r.Context()),
		}).Warnf("Request failed: %s", res.Message)
	}
	writeJSON(w, code, res)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
