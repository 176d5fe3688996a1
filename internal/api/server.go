// Package api serves the operator console, the control and input
// endpoints, the live event stream and the metrics endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/AaronLay10/SentientPlayer/internal/clock"
	"github.com/AaronLay10/SentientPlayer/internal/events"
	"github.com/AaronLay10/SentientPlayer/internal/metrics"
	"github.com/AaronLay10/SentientPlayer/internal/orchestrator"
	"github.com/AaronLay10/SentientPlayer/internal/playlist"
	"github.com/AaronLay10/SentientPlayer/internal/storage"
)

// Controller executes commands against the running presentation.
type Controller interface {
	Execute(ctx context.Context, cmd orchestrator.Command) (interface{}, error)
	Status(ctx context.Context) (orchestrator.Status, error)
}

// commandTimeout bounds how long a request waits for the engine loop.
const commandTimeout = 5 * time.Second

// Server is the HTTP surface of the player.
type Server struct {
	ctrl   Controller
	router *mux.Router
}

// NewServer builds the router for ctrl.
func NewServer(ctrl Controller) *Server {
	s := &Server{ctrl: ctrl, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/events", RequireAnyRole(eventsHandler)).Methods(http.MethodGet)
	r.HandleFunc("/ws", RequireAnyRole(wsEventsHandler))
	r.HandleFunc("/state", RequireAnyRole(s.stateHandler)).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler()).Methods(http.MethodGet)

	control := r.PathPrefix("/control").Subrouter()
	for _, action := range []string{"play", "pause", "resume", "stop", "goto", "back"} {
		control.HandleFunc("/"+action, RequireOperator(s.commandHandler(action))).Methods(http.MethodPost)
	}

	input := r.PathPrefix("/input").Subrouter()
	input.HandleFunc("/overlay", RequireAnyRole(s.commandHandler("click"))).Methods(http.MethodPost)
	input.HandleFunc("/answer", RequireAnyRole(s.commandHandler("answer"))).Methods(http.MethodPost)
	input.HandleFunc("/frame", RequireAnyRole(s.commandHandler("close_frame"))).Methods(http.MethodPost)
	input.HandleFunc("/activity", RequireAnyRole(s.commandHandler("activity"))).Methods(http.MethodPost)
	input.HandleFunc("/swipe", RequireAnyRole(s.swipeHandler)).Methods(http.MethodPost)

	r.HandleFunc("/", RequireOperator(operatorUIHandler)).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(s.router)
}

// ListenAndServe serves on port until ctx is cancelled. TLS is used when
// configured through InitTLS.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	tlsCfg, err := LoadTLSConfig()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if tlsCfg != nil {
			log.WithField("addr", srv.Addr).Info("API listening (TLS)")
			errCh <- srv.ListenAndServeTLS("", "")
		} else {
			log.WithField("addr", srv.Addr).Info("API listening")
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		events.CloseAllSubscribers()
		return srv.Shutdown(shutdownCtx)
	}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   "player",
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// eventsHandler returns the in-memory buffer, or the persisted journal
// when source=journal.
func eventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("source") != "journal" {
		writeJSON(w, http.StatusOK, events.Snapshot())
		return
	}

	journal := events.Journal()
	if journal == nil {
		writeJSON(w, http.StatusServiceUnavailable, APIResponse{Error: "journal not configured"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := journal.Query(storage.ClampLimit(limit))
	if err != nil {
		log.WithError(err).Error("journal query failed")
		writeJSON(w, http.StatusInternalServerError, APIResponse{Error: "journal query failed"})
		return
	}
	if rows == nil {
		rows = []storage.EventRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// APIResponse is the envelope of every control and input response.
type APIResponse struct {
	OK     bool        `json:"ok"`
	Error  string      `json:"error,omitempty"`
	Result interface{} `json:"result,omitempty"`
}

func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	st, err := s.ctrl.Status(ctx)
	if err != nil {
		writeJSON(w, statusFor(err), APIResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{OK: true, Result: st})
}

// commandHandler decodes an optional Command body and runs it with the
// route's action.
func (s *Server) commandHandler(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd orchestrator.Command
		if err := decodeBody(r, &cmd); err != nil {
			writeJSON(w, http.StatusBadRequest, APIResponse{Error: "invalid JSON"})
			return
		}
		cmd.Action = action
		s.execute(w, r, cmd)
	}
}

// swipeHandler accepts a bare gesture sample.
func (s *Server) swipeHandler(w http.ResponseWriter, r *http.Request) {
	var g orchestrator.Gesture
	if err := decodeBody(r, &g); err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Error: "invalid JSON"})
		return
	}
	s.execute(w, r, orchestrator.Command{Action: "swipe", Gesture: &g})
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, cmd orchestrator.Command) {
	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	result, err := s.ctrl.Execute(ctx, cmd)
	if err != nil {
		metrics.RemoteCommands.WithLabelValues("http", cmd.Action, "error").Inc()
		log.WithFields(log.Fields{"action": cmd.Action, "error": err}).Warn("command rejected")
		writeJSON(w, statusFor(err), APIResponse{Error: err.Error()})
		return
	}
	metrics.RemoteCommands.WithLabelValues("http", cmd.Action, "ok").Inc()
	writeJSON(w, http.StatusOK, APIResponse{OK: true, Result: result})
}

// statusFor maps a controller error to an HTTP status.
func statusFor(err error) int {
	var unknown *playlist.UnknownSubjectError
	switch {
	case errors.As(err, &unknown), errors.Is(err, orchestrator.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, clock.ErrLoopClosed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusConflict
	}
}

// decodeBody decodes JSON into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
