package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/khanhnv2901/cyberaudit/internal/api/middleware"
	"github.com/khanhnv2901/cyberaudit/internal/checker"
	"github.com/khanhnv2901/cyberaudit/internal/history"
	"github.com/khanhnv2901/cyberaudit/internal/report"
	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/cyberaudit/internal/shared/errors"
	"github.com/khanhnv2901/cyberaudit/internal/shared/security"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// ScanRequest is the body of POST /api/v1/scans.
type ScanRequest struct {
	Domain string `json:"domain"`
}

type Config struct {
	Scanner      checker.FullScanner
	History      history.Repository
	Jobs         *JobManager // nil disables asynchronous scans
	Report       report.Options
	AuthToken    string
	Logger       *zap.Logger
	CORSOrigins  []string      // Allowed CORS origins (empty = allow all)
	RateLimit    int           // Requests per second per IP (0 = disabled)
	RateBurst    int           // Burst size for rate limiter
	HistoryLimit int           // Default page size for GET /scans
	ScanTimeout  time.Duration // Upper bound for one scan, 0 = request context only
}

type Server struct {
	cfg      Config
	router   *mux.Router
	limiters *rateLimiterMap
	handler  http.Handler
	pending  sync.WaitGroup
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		cfg:      cfg,
		router:   mux.NewRouter(),
		limiters: newRateLimiterMap(),
	}
	srv.routes()
	// Middleware chain: RequestID -> Logging -> RateLimit -> CORS -> Auth -> Handler
	srv.handler = middleware.RequestID(srv.withLogging(srv.withRateLimit(srv.withCORS(srv.router))))
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Wait blocks until every asynchronous scan has been stored.
func (s *Server) Wait() {
	s.pending.Wait()
}

func (s *Server) routes() {
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, errors.New("not found"))
	})

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.withAuth)

	v1.HandleFunc("/health", s.byMethod(methodHandlers{http.MethodGet: s.handleHealth}))
	v1.HandleFunc("/scans", s.byMethod(methodHandlers{
		http.MethodGet:  s.handleListScans,
		http.MethodPost: s.handleCreateScan,
	}))
	v1.HandleFunc("/scans/{id}", s.byMethod(methodHandlers{http.MethodGet: s.handleGetScan}))
	v1.HandleFunc("/scans/{id}/report.pdf", s.byMethod(methodHandlers{http.MethodGet: s.handleScanPDF}))
	v1.HandleFunc("/scans/{id}/report.md", s.byMethod(methodHandlers{http.MethodGet: s.handleScanMarkdown}))
	v1.HandleFunc("/jobs", s.byMethod(methodHandlers{http.MethodGet: s.handleListJobs}))
	v1.HandleFunc("/jobs/{id}", s.byMethod(methodHandlers{http.MethodGet: s.handleGetJob}))
	v1.HandleFunc("/jobs-stream", s.byMethod(methodHandlers{http.MethodGet: s.handleJobStream}))
}

type methodHandlers map[string]http.HandlerFunc

// byMethod dispatches on r.Method so every registered path answers a method
// mismatch with 405 and an Allow header.
func (s *Server) byMethod(handlers methodHandlers) http.HandlerFunc {
	allowed := make([]string, 0, len(handlers))
	for m := range handlers {
		allowed = append(allowed, m)
	}
	sort.Strings(allowed)
	allow := strings.Join(allowed, ", ")

	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.Method]; ok {
			h(w, r)
			return
		}
		w.Header().Set("Allow", allow)
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History != nil {
		if _, err := s.cfg.History.List(r.Context(), 1); err != nil {
			s.writeError(w, r, http.StatusServiceUnavailable, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: %v", sharedErrors.ErrInvalidInput, err))
		return
	}
	if checker.NormalizeDomain(strings.TrimSpace(req.Domain)) == "" {
		s.writeError(w, r, http.StatusBadRequest, sharedErrors.ErrEmptyDomain)
		return
	}
	domain := strings.TrimSpace(req.Domain)

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if s.cfg.Jobs == nil {
			s.writeError(w, r, http.StatusNotFound, errors.New("job service not available"))
			return
		}
		job := s.cfg.Jobs.CreateJob(checker.NormalizeDomain(domain))
		s.pending.Add(1)
		go s.runJob(job.ID, domain)
		writeJSON(w, http.StatusAccepted, job)
		return
	}

	ctx, cancel := s.scanContext(r.Context())
	defer cancel()

	entry, err := s.scanAndStore(ctx, domain)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) runJob(id, domain string) {
	defer s.pending.Done()

	started := time.Now().UTC()
	s.cfg.Jobs.UpdateJob(id, func(j *Job) {
		j.Status = JobRunning
		j.StartedAt = &started
	})

	ctx, cancel := s.scanContext(context.Background())
	defer cancel()

	entry, err := s.scanAndStore(ctx, domain)
	finished := time.Now().UTC()
	s.cfg.Jobs.UpdateJob(id, func(j *Job) {
		j.FinishedAt = &finished
		if err != nil {
			j.Status = JobError
			j.Error = "failed to store scan"
			return
		}
		score := entry.Result.Score
		j.Status = JobDone
		j.EntryID = entry.ID
		j.Score = &score
	})
	if err != nil && s.cfg.Logger != nil {
		s.cfg.Logger.Error("async_scan_failed", zap.String("job_id", id), zap.Error(err))
	}
}

func (s *Server) scanAndStore(ctx context.Context, domain string) (history.Entry, error) {
	result := s.cfg.Scanner.RunFullScan(ctx, domain)
	if s.cfg.History == nil {
		return history.Entry{Result: result}, nil
	}
	entry, err := s.cfg.History.Append(ctx, result)
	if err != nil {
		return history.Entry{}, fmt.Errorf("store scan: %w", err)
	}
	return entry, nil
}

func (s *Server) scanContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.ScanTimeout > 0 {
		return context.WithTimeout(parent, s.cfg.ScanTimeout)
	}
	return context.WithCancel(parent)
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		writeJSON(w, http.StatusOK, []history.Entry{})
		return
	}
	limit := s.cfg.HistoryLimit
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	if q := r.URL.Query().Get("limit"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	entries, err := s.cfg.History.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupEntry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleScanPDF(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupEntry(w, r)
	if !ok {
		return
	}
	data, err := report.RenderPDF(entry.Result, s.cfg.Report)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reportFileName(entry, "pdf")))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.requestLogger(r).Error("failed to write response", zap.Error(err))
	}
}

func (s *Server) handleScanMarkdown(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookupEntry(w, r)
	if !ok {
		return
	}
	md, err := report.RenderMarkdown(entry.Result, s.cfg.Report)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", reportFileName(entry, "md")))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(md)); err != nil {
		s.requestLogger(r).Error("failed to write response", zap.Error(err))
	}
}

func (s *Server) lookupEntry(w http.ResponseWriter, r *http.Request) (history.Entry, bool) {
	if s.cfg.History == nil {
		s.writeError(w, r, http.StatusNotFound, sharedErrors.ErrEntryNotFound)
		return history.Entry{}, false
	}
	entry, err := s.cfg.History.Get(r.Context(), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, sharedErrors.ErrInvalidEntryID):
		s.writeError(w, r, http.StatusBadRequest, err)
		return history.Entry{}, false
	case errors.Is(err, sharedErrors.ErrEntryNotFound):
		s.writeError(w, r, http.StatusNotFound, err)
		return history.Entry{}, false
	case err != nil:
		s.writeError(w, r, http.StatusInternalServerError, err)
		return history.Entry{}, false
	}
	return entry, true
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job service not available"))
		return
	}
	limit := 25
	if q := r.URL.Query().Get("limit"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	writeJSON(w, http.StatusOK, s.cfg.Jobs.ListJobs(limit))
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job service not available"))
		return
	}
	job := s.cfg.Jobs.GetJob(mux.Vars(r)["id"])
	if job == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job not found"))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job service not available"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates, unsubscribe := s.cfg.Jobs.Subscribe()
	defer unsubscribe()
	ctx := r.Context()
	for {
		select {
		case job, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(job)
			if err != nil {
				s.requestLogger(r).Error("failed to marshal job", zap.Error(err))
				continue
			}
			if !s.writeStreamChunk(w, []byte("event: job\ndata: ")) ||
				!s.writeStreamChunk(w, payload) ||
				!s.writeStreamChunk(w, []byte("\n\n")) {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip rate limiting if disabled
		if s.cfg.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := clientIPFromRequest(r)
		limiter := s.limiters.getLimiter(clientIP, s.cfg.RateLimit, s.cfg.RateBurst)

		if !limiter.Allow() {
			s.requestLogger(r).Warn("rate_limit_exceeded",
				zap.String("client_ip", clientIP),
			)
			s.writeError(w, r, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIPFromRequest prefers the first X-Forwarded-For hop and strips the port.
func clientIPFromRequest(r *http.Request) string {
	clientIP := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx > 0 {
			clientIP = strings.TrimSpace(forwarded[:idx])
		} else {
			clientIP = strings.TrimSpace(forwarded)
		}
	}
	if host, _, err := net.SplitHostPort(clientIP); err == nil {
		return host
	}
	return strings.Trim(clientIP, "[]")
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowOrigin := "*"
		if len(s.cfg.CORSOrigins) > 0 {
			allowOrigin = ""
			for _, allowedOrigin := range s.cfg.CORSOrigins {
				if allowedOrigin == origin {
					allowOrigin = origin
					break
				}
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)

		if s.cfg.Logger != nil {
			s.cfg.Logger.Info("http_request",
				zap.String("request_id", middleware.GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", lrw.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.Int64("bytes", lrw.bytesWritten),
			)
		}
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.AuthToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
			s.writeError(w, r, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code and bytes written
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

// Flush lets the job stream push events through the logging wrapper.
func (lrw *loggingResponseWriter) Flush() {
	if f, ok := lrw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()

	// For 5xx errors, return generic message and log details server-side
	if status >= 500 {
		s.requestLogger(r).Error("internal_server_error",
			zap.Error(err),
			zap.Int("status", status),
		)
		msg = "internal server error"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if s.cfg.Logger == nil {
		return zap.NewNop()
	}

	return s.cfg.Logger.With(
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func (s *Server) writeStreamChunk(w http.ResponseWriter, data []byte) bool {
	if _, err := w.Write(data); err != nil {
		if s.cfg.Logger != nil {
			s.cfg.Logger.Error("failed to write stream chunk", zap.Error(err))
		}
		return false
	}
	return true
}

func reportFileName(entry history.Entry, ext string) string {
	return fmt.Sprintf("%s-%s.%s", security.SanitizeFileName(entry.Result.Domain), entry.Result.ScannedAt.UTC().Format("20060102"), ext)
}

// rateLimiterMap manages per-IP rate limiters with automatic cleanup
type rateLimiterMap struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiterMap() *rateLimiterMap {
	m := &rateLimiterMap{
		limiters: make(map[string]*ipLimiter),
	}
	go m.cleanupLoop()
	return m
}

func (m *rateLimiterMap) getLimiter(ip string, rps, burst int) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if burst <= 0 {
		burst = rps
	}

	limiter, exists := m.limiters[ip]
	if !exists {
		limiter = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		m.limiters[ip] = limiter
	}
	limiter.lastSeen = time.Now()

	return limiter.limiter
}

// cleanupLoop removes limiters that haven't been used in 5 minutes
func (m *rateLimiterMap) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.evictIdle(5 * time.Minute)
	}
}

func (m *rateLimiterMap) evictIdle(maxIdle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ip, limiter := range m.limiters {
		if time.Since(limiter.lastSeen) > maxIdle {
			delete(m.limiters, ip)
		}
	}
}
