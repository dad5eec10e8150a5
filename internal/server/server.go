package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/goap-planner/internal/action"
	"github.com/kingrea/goap-planner/internal/planner"
	"github.com/kingrea/goap-planner/internal/scenario"
	"github.com/kingrea/goap-planner/internal/world"
)

// ProtocolVersion is reported by /health.
const ProtocolVersion = 1

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// ErrDisabled is returned by Start when the settings disable the server.
var ErrDisabled = errors.New("server: disabled")

// Info describes the planning service.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ServiceInfo is served by /info and printed by `goap info`.
var ServiceInfo = Info{
	ID:          "goap-planner",
	Name:        "Goal-Oriented Action Planning",
	Description: "Plans the cheapest sequence of actions that turns a start state into one satisfying a goal.",
}

// Logger is the subset of internal/logging.Logger the server writes to.
type Logger interface {
	Printf(format string, args ...any)
}

// Server wraps the HTTP listener and handlers backing the planning API.
type Server struct {
	settings    Settings
	logger      Logger
	clock       func() time.Time
	plannerOpts []planner.Option

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithPlannerOptions appends planner options applied to every /plan call,
// after the expansion cap taken from Settings.
func WithPlannerOptions(opts ...planner.Option) Option {
	return func(s *Server) {
		s.plannerOpts = append(s.plannerOpts, opts...)
	}
}

// NewServer prepares a planning server using the provided settings.
func NewServer(settings Settings, opts ...Option) *Server {
	s := &Server{
		settings: settings,
		logger:   nopLogger{},
		clock:    func() time.Time { return time.Now().UTC() },
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns the routed HTTP handler without binding a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/plan", s.handlePlan)
	mux.HandleFunc("/enabled", s.handleEnabled)
	mux.HandleFunc("/step", s.handleStep)
	mux.HandleFunc("/satisfied", s.handleSatisfied)
	return mux
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("server: server is nil")
	}
	if !s.settings.Enabled {
		return ErrDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("server: already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = s.now()
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		// Requests keep ctx's values but not its cancellation; Shutdown drains them.
		base := context.WithoutCancel(ctx)
		server.BaseContext = func(net.Listener) context.Context { return base }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("server: serve error: %v", err)
		}
	}()
	s.logger.Printf("server: listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	s.logger.Printf("server: stopped")
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL (scheme + host:port) for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	start := s.startTime
	s.mu.RUnlock()
	if start.IsZero() {
		return 0
	}
	return int64(s.now().Sub(start).Seconds())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", fmt.Sprintf("%s, %s", http.MethodGet, http.MethodHead))
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	resp := healthResponse{
		Status:        string(s.Status()),
		Version:       ProtocolVersion,
		UptimeSeconds: s.uptimeSeconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, ServiceInfo)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var sc scenario.Scenario
	if !s.decodeScenario(w, r, &sc, &sc) {
		return
	}
	sc = sc.Normalized()

	ctx := r.Context()
	if s.settings.PlanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settings.PlanTimeout)
		defer cancel()
	}
	opts := make([]planner.Option, 0, len(s.plannerOpts)+1)
	if s.settings.MaxExpansions > 0 {
		opts = append(opts, planner.WithMaxExpansions(s.settings.MaxExpansions))
	}
	opts = append(opts, s.plannerOpts...)

	started := s.now()
	plan, err := scenario.Plan(ctx, sc, opts...)
	elapsed := s.now().Sub(started)
	if err != nil {
		status := statusForError(err)
		s.logger.Printf("server: plan %s failed after %d expansions (%s): %v", sc.ID, plan.Expansions, elapsed, err)
		writeJSON(w, status, errorResponse{
			Error:      err.Error(),
			Scenario:   sc.ID,
			Expansions: plan.Expansions,
			Status:     string(planner.StatusFailed),
		})
		return
	}
	s.logger.Printf("server: plan %s: %d steps, cost %g, %d expansions (%s)", sc.ID, plan.Len(), plan.Cost, plan.Expansions, elapsed)
	writeJSON(w, http.StatusOK, planResponse{
		ID:           plan.ID,
		Scenario:     sc.ID,
		Plan:         plan.Actions,
		Cost:         plan.Cost,
		TotalSteps:   plan.Len(),
		Expansions:   plan.Expansions,
		InitialState: scenario.StateVars(plan.Start),
		FinalState:   scenario.StateVars(plan.Final),
		Status:       string(plan.Status),
	})
}

func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	var sc scenario.Scenario
	if !s.decodeScenario(w, r, &sc, &sc) {
		return
	}
	names, err := scenario.Enabled(sc)
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: err.Error(), Scenario: sc.Normalized().ID})
		return
	}
	writeJSON(w, http.StatusOK, enabledResponse{Scenario: sc.Normalized().ID, Enabled: names})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if !s.decodeScenario(w, r, &req, &req.Scenario) {
		return
	}
	id := req.Scenario.Normalized().ID
	next, err := scenario.Step(req.Scenario, req.Action)
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: err.Error(), Scenario: id})
		return
	}
	writeJSON(w, http.StatusOK, stepResponse{
		Scenario: id,
		Action:   strings.TrimSpace(req.Action),
		Enabled:  next != nil,
		State:    next,
	})
}

func (s *Server) handleSatisfied(w http.ResponseWriter, r *http.Request) {
	var sc scenario.Scenario
	if !s.decodeScenario(w, r, &sc, &sc) {
		return
	}
	ok, err := scenario.Satisfied(sc)
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: err.Error(), Scenario: sc.Normalized().ID})
		return
	}
	writeJSON(w, http.StatusOK, satisfiedResponse{Scenario: sc.Normalized().ID, Satisfied: ok})
}

// decodeScenario reads a POST body into payload and validates the scenario
// it carries. It writes the error response and returns false on failure.
func (s *Server) decodeScenario(w http.ResponseWriter, r *http.Request, payload any, sc *scenario.Scenario) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return false
	}
	if r.Body == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty body"})
		return false
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "payload exceeds limit"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unable to read body"})
		return false
	}
	if err := json.Unmarshal(body, payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return false
	}
	if err := sc.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func statusForError(err error) int {
	var (
		malformed *world.MalformedStateError
		duplicate *action.DuplicateActionError
		notFound  *planner.PlanNotFoundError
		limit     *planner.ExpansionLimitError
		cancelled *planner.PlanCancelledError
	)
	switch {
	case errors.As(err, &malformed), errors.As(err, &duplicate), errors.Is(err, action.ErrInvalidCost),
		errors.Is(err, scenario.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.As(err, &limit):
		return http.StatusUnprocessableEntity
	case errors.As(err, &cancelled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       int    `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type planResponse struct {
	ID           string         `json:"id"`
	Scenario     string         `json:"scenario"`
	Plan         []string       `json:"plan"`
	Cost         float64        `json:"cost"`
	TotalSteps   int            `json:"total_steps"`
	Expansions   int            `json:"expansions"`
	InitialState []scenario.Var `json:"initial_state"`
	FinalState   []scenario.Var `json:"final_state"`
	Status       string         `json:"status"`
}

type stepRequest struct {
	scenario.Scenario
	Action string `json:"action"`
}

type enabledResponse struct {
	Scenario string   `json:"scenario"`
	Enabled  []string `json:"enabled"`
}

type stepResponse struct {
	Scenario string         `json:"scenario"`
	Action   string         `json:"action"`
	Enabled  bool           `json:"enabled"`
	State    []scenario.Var `json:"state"`
}

type satisfiedResponse struct {
	Scenario  string `json:"scenario"`
	Satisfied bool   `json:"satisfied"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Scenario   string `json:"scenario,omitempty"`
	Expansions int    `json:"expansions,omitempty"`
	Status     string `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
