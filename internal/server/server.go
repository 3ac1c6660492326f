package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/super-leedc/phonemizer/internal/config"
	"github.com/super-leedc/phonemizer/internal/festival"
	"github.com/super-leedc/phonemizer/internal/phonemize"
	"github.com/super-leedc/phonemizer/internal/text"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	jobs           int
	maxJobs        int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   64 * 1024,
		workers:        2,
		jobs:           1,
		maxJobs:        4,
		requestTimeout: 60 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes for
// POST /phonemize.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent phonemize requests.
// Zero disables the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithJobs sets the number of festival instances used when a request does
// not ask for a specific count.
func WithJobs(n int) Option {
	return func(o *options) { o.jobs = n }
}

// WithMaxJobs caps the festival instances a single request may ask for.
// The cap never drops below the default set by WithJobs.
func WithMaxJobs(n int) Option {
	return func(o *options) { o.maxJobs = n }
}

// WithRequestTimeout sets the per-request deadline. Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	phonemizer *phonemize.Phonemizer
	opts       options
	sem        chan struct{} // bounds concurrent phonemize calls
	log        *slog.Logger
}

// NewHandler returns an http.Handler that serves /health and POST /phonemize.
// Requests are phonemized by p, with per-request separator overrides.
func NewHandler(p *phonemize.Phonemizer, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if opts.jobs < 1 {
		opts.jobs = 1
	}
	opts.maxJobs = max(opts.maxJobs, opts.jobs)

	h := &handler{
		phonemizer: p,
		opts:       opts,
		log:        opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/phonemize", h.handlePhonemize)
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type phonemizeRequest struct {
	Text           *string              `json:"text"`
	Lines          []string             `json:"lines"`
	Jobs           int                  `json:"jobs"`
	Separator      *phonemize.Separator `json:"separator"`
	StripSeparator *bool                `json:"strip_separator"`
}

func (h *handler) handlePhonemize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}

	// Separator fields left out of the request keep their configured value.
	sep := h.phonemizer.Separator()
	req := phonemizeRequest{Separator: &sep}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	in, size, status, msg := h.requestInput(req)
	if status != 0 {
		writeError(w, status, msg)
		return
	}

	jobs := req.Jobs
	if jobs == 0 {
		jobs = h.opts.jobs
	}
	if jobs < 0 {
		writeError(w, http.StatusBadRequest, "jobs must be a positive integer")
		return
	}
	if jobs > h.opts.maxJobs {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("jobs must not exceed %d", h.opts.maxJobs))
		return
	}

	popts := []phonemize.Option{phonemize.WithLogger(h.log)}
	if req.Separator != nil {
		popts = append(popts, phonemize.WithSeparator(*req.Separator))
	}
	if req.StripSeparator != nil {
		popts = append(popts, phonemize.WithStripSeparator(*req.StripSeparator))
	}
	p := h.phonemizer.With(popts...)

	// Acquire a worker slot, honouring cancellation while waiting.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return
		}
		defer func() { <-h.sem }()
	}

	ctx := r.Context()
	if h.opts.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.requestTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := p.Phonemize(ctx, in, jobs)
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		status, msg := statusForError(err)
		h.log.ErrorContext(r.Context(), "phonemize failed",
			slog.Int("text_len", size),
			slog.Int("jobs", jobs),
			slog.Int("status", status),
			slog.Int64("duration_ms", durationMS),
			slog.String("error", err.Error()),
		)
		writeError(w, status, msg)
		return
	}

	lines := out.Slice()
	h.log.InfoContext(r.Context(), "phonemize complete",
		slog.Int("text_len", size),
		slog.Int("jobs", jobs),
		slog.Int("lines", len(lines)),
		slog.Int64("duration_ms", durationMS),
	)

	// The response mirrors the request shape.
	if out.IsString() {
		writeJSON(w, http.StatusOK, map[string]string{"text": out.String()})
		return
	}
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"lines": lines})
}

// requestInput validates the text or lines of req. A non-zero status
// reports a rejected request.
func (h *handler) requestInput(req phonemizeRequest) (in phonemize.Lines, size, status int, msg string) {
	switch {
	case req.Text != nil && req.Lines != nil:
		return in, 0, http.StatusBadRequest, "only one of text and lines may be set"
	case req.Text != nil:
		size = len(*req.Text)
	case req.Lines != nil:
		for _, l := range req.Lines {
			size += len(l)
		}
	default:
		return in, 0, http.StatusBadRequest, "text or lines field is required"
	}

	if h.opts.maxTextBytes > 0 && size > h.opts.maxTextBytes {
		return in, size, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes)
	}

	if req.Lines != nil {
		return phonemize.FromSlice(req.Lines), size, 0, ""
	}

	normalized, err := text.Normalize(*req.Text)
	if err != nil {
		return in, size, http.StatusBadRequest, "text field is required"
	}
	return phonemize.FromString(normalized), size, 0, ""
}

// statusForError maps a phonemize error to an HTTP status and message.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "phonemization timed out"
	case errors.Is(err, phonemize.ErrInvalidJobs):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, festival.ErrInvocation),
		errors.Is(err, festival.ErrDecode),
		errors.Is(err, phonemize.ErrMalformedTree):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
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

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	phonemizer      *phonemize.Phonemizer
	shutdownTimeout time.Duration
	log             *slog.Logger
}

func New(cfg config.Config, p *phonemize.Phonemizer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	shutdown := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if shutdown <= 0 {
		shutdown = 30 * time.Second
	}
	return &Server{
		cfg:             cfg,
		phonemizer:      p,
		shutdownTimeout: shutdown,
		log:             logger,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	if s.phonemizer == nil {
		return errors.New("server: phonemizer is required")
	}

	h := NewHandler(s.phonemizer,
		WithWorkers(s.cfg.Server.Workers),
		WithJobs(s.cfg.Phonemize.Jobs),
		WithMaxJobs(s.cfg.Server.MaxJobs),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithLogger(s.log),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.log.Info("listening", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
