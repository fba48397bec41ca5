// Package daemon exposes the power drivers of a set of ports over HTTP.
// Calls for the same port are serialized; different ports run in
// parallel.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/OpenCHAMI/powerctl/internal/cache"
	"github.com/OpenCHAMI/powerctl/internal/version"
	"github.com/OpenCHAMI/powerctl/pkg/driver"
	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// operations kept for GET /operations/{id}
const operationHistory = 1024

// Builder creates the driver for a port.
type Builder func(port power.Port) (driver.Driver, error)

type entry struct {
	mu     sync.Mutex
	port   power.Port
	driver driver.Driver
}

// Operation records a power action requested through the API.
type Operation struct {
	ID       uuid.UUID `json:"id"`
	Port     string    `json:"port"`
	Action   string    `json:"action"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Error    string    `json:"error,omitempty"`
}

type Server struct {
	ports      map[string]*entry
	names      []string
	operations cache.Storage[Operation]
	jwtSecret  []byte
}

// New() builds a driver for every port up front so configuration errors
// surface when the daemon starts instead of on the first request.
func New(ports []power.Port, build Builder, jwtSecret string) (*Server, error) {
	s := &Server{
		ports:      make(map[string]*entry, len(ports)),
		operations: cache.NewMemoryStorage[Operation](operationHistory),
	}
	if jwtSecret != "" {
		s.jwtSecret = []byte(jwtSecret)
	}
	for _, port := range ports {
		d, err := build(port)
		if err != nil {
			return nil, err
		}
		if _, dup := s.ports[port.Name]; dup {
			return nil, &power.ConfigurationError{Field: "name", Value: port.Name, Reason: "duplicate port name"}
		}
		s.ports[port.Name] = &entry{port: port, driver: d}
		s.names = append(s.names, port.Name)
	}
	return s, nil
}

// Router returns the HTTP handler for the API.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
		middleware.StripSlashes,
	)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, version.Get())
	})
	router.Get("/backends", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, power.Backends())
	})

	router.Group(func(r chi.Router) {
		if s.jwtSecret != nil {
			r.Use(s.authenticate)
		}
		r.Get("/ports", s.listPorts)
		r.Get("/ports/{name}", s.getPort)
		r.Post("/ports/{name}/{action}", s.actOnPort)
		r.Get("/operations/{id}", s.getOperation)
	})
	return router
}

// Run serves the API on endpoint until ctx is done.
func (s *Server) Run(ctx context.Context, endpoint string) error {
	srv := &http.Server{
		Addr:              endpoint,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down daemon")
		}
	}()

	log.Info().Str("endpoint", endpoint).Int("ports", len(s.ports)).Msg("starting daemon")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type portSummary struct {
	Name  string `json:"name"`
	Mode  string `json:"mode"`
	Model string `json:"model,omitempty"`
}

func (s *Server) listPorts(w http.ResponseWriter, r *http.Request) {
	summaries := make([]portSummary, 0, len(s.names))
	for _, name := range s.names {
		port := s.ports[name].port
		summaries = append(summaries, portSummary{Name: name, Mode: string(port.ResolvedMode()), Model: port.Model})
	}
	writeJSON(w, http.StatusOK, summaries)
}

type portState struct {
	Name string `json:"name"`
	On   bool   `json:"on"`
}

func (s *Server) getPort(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	on, err := e.driver.Get()
	e.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portState{Name: e.port.Name, On: on})
}

func (s *Server) actOnPort(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	action := chi.URLParam(r, "action")
	var fn func() error
	switch action {
	case "on":
		fn = e.driver.On
	case "off":
		fn = e.driver.Off
	case "cycle":
		fn = e.driver.Cycle
	default:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown action " + action})
		return
	}

	op := Operation{ID: uuid.New(), Port: e.port.Name, Action: action, Started: time.Now()}
	if err := s.operations.Save(op.ID, op); err != nil {
		log.Warn().Err(err).Msg("failed to record operation")
	}
	logger := log.With().Str("op", op.ID.String()).Str("port", op.Port).Str("action", action).Logger()
	logger.Info().Msg("power operation started")

	e.mu.Lock()
	err := fn()
	e.mu.Unlock()

	op.Finished = time.Now()
	if err != nil {
		op.Error = err.Error()
	}
	if uerr := s.operations.Update(op.ID, op); uerr != nil {
		log.Warn().Err(uerr).Msg("failed to record operation")
	}
	if err != nil {
		logger.Error().Err(err).Msg("power operation failed")
		writeJSON(w, statusFor(err), op)
		return
	}
	logger.Info().Dur("took", op.Finished.Sub(op.Started)).Msg("power operation finished")
	writeJSON(w, http.StatusOK, op)
}

func (s *Server) getOperation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid operation id"})
		return
	}
	op, err := s.operations.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	name := chi.URLParam(r, "name")
	e, ok := s.ports[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown port " + name})
	}
	return e, ok
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps the power error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		cfgErr  *power.ConfigurationError
		netErr  *power.NetworkError
		execErr *power.ExecutionError
	)
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &netErr):
		return http.StatusBadGateway
	case errors.As(err, &execErr):
		if execErr.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	case errors.Is(err, errors.ErrUnsupported):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request-id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("handled request")
	})
}
