// Package server exposes the scan engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
	"github.com/nothingdao/solana-wallet-scanner/internal/observability"
	"github.com/nothingdao/solana-wallet-scanner/internal/scanner"
	"github.com/nothingdao/solana-wallet-scanner/internal/storage"
)

const defaultHistoryLimit = 20

// Options configures a Server.
type Options struct {
	Scanner *scanner.Scanner
	// Store is the optional scan archive. When nil the history endpoints
	// return 404 and results are not persisted.
	Store        storage.ScanStore
	Logger       *zap.Logger
	RateLimitRPM int
}

// Server handles the HTTP API.
type Server struct {
	scanner *scanner.Scanner
	store   storage.ScanStore
	logger  *zap.Logger
	rpm     int
}

// New creates a Server. Scanner is required.
func New(opts Options) (*Server, error) {
	if opts.Scanner == nil {
		return nil, fmt.Errorf("scanner is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RateLimitRPM <= 0 {
		opts.RateLimitRPM = 60
	}
	return &Server{
		scanner: opts.Scanner,
		store:   opts.Store,
		logger:  opts.Logger,
		rpm:     opts.RateLimitRPM,
	}, nil
}

// Router builds the HTTP routing table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.rpm, time.Minute))
		r.Get("/scan/{owner}", s.handleScan)
		r.Get("/scans/{owner}", s.handleHistory)
		r.Get("/scans/{owner}/latest", s.handleLatest)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScan runs a fresh scan and, when an archive is configured, records
// the result before responding.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	result, err := s.scanner.Scan(r.Context(), owner)
	if err != nil {
		s.writeScanError(w, owner, err)
		return
	}

	resp := ToScanResponse(result)
	if s.store != nil {
		s.archive(r.Context(), result, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "scan history is not enabled"})
		return
	}
	owner := chi.URLParam(r, "owner")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := s.store.GetByOwner(r.Context(), owner, limit)
	if err != nil {
		s.logger.Error("history lookup failed", zap.String("owner", owner), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	entries := make([]HistoryEntryResponse, 0, len(records))
	for _, rec := range records {
		entries = append(entries, toHistoryEntry(rec))
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "scan history is not enabled"})
		return
	}
	owner := chi.URLParam(r, "owner")

	rec, err := s.store.Latest(r.Context(), owner)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no scans recorded for owner"})
			return
		}
		s.logger.Error("latest lookup failed", zap.String("owner", owner), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	// The archived JSON is already in wire form.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(rec.ResultJSON)
}

// archive stores the scan result. Failures are logged, never surfaced.
func (s *Server) archive(ctx context.Context, result *domain.ScanResult, resp ScanResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal scan result", zap.Error(err))
		return
	}
	rec := &domain.ScanRecord{
		Owner:             result.Owner,
		ScannedAt:         result.ScannedAt,
		RiskScore:         result.Summary.RiskScore,
		TotalTokens:       result.Summary.TotalTokens,
		TotalNFTs:         result.Summary.TotalNFTs,
		SuspiciousCount:   result.Summary.SuspiciousCount,
		MaliciousCount:    result.Summary.MaliciousCount,
		DelegateApprovals: result.Summary.DelegateApprovals,
		TotalValueUSD:     result.Summary.TotalValueUSD,
		ResultJSON:        raw,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		s.logger.Error("archive scan result", zap.String("owner", result.Owner), zap.Error(err))
	}
}

func (s *Server) writeScanError(w http.ResponseWriter, owner string, err error) {
	switch {
	case errors.Is(err, scanner.ErrInvalidAddress):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, scanner.ErrUpstreamUnavailable):
		s.logger.Warn("scan upstream unavailable", zap.String("owner", owner), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "upstream rpc unavailable"})
	default:
		s.logger.Error("scan failed", zap.String("owner", owner), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
