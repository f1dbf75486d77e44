// Package web provides an HTTP status server for the alarm-clock daemon.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/trace"

	"github.com/sweeney/alarm-clock/internal/history"
	"github.com/sweeney/alarm-clock/internal/ics"
	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/status"
)

const (
	// DefaultHistoryLimit is the number of journal entries /history.json returns.
	DefaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// History is the read side of the event journal.
type History interface {
	Recent(limit int) ([]history.Entry, error)
}

// Deps are the optional collaborators behind the non-status endpoints.
// A nil field disables its endpoint with a 404.
type Deps struct {
	Display  http.Handler
	Gatherer prometheus.Gatherer
	History  History
	// Commands receives alarm commands from POST /alarm. Sends never block.
	Commands chan<- logic.Command
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	deps       Deps
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker, deps Deps) *Server {
	s := &Server{tracker: tracker, deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/alarm", s.handleAlarm)
	mux.HandleFunc("/alarm.ics", s.handleCalendar)
	mux.HandleFunc("/history.json", s.handleHistory)
	mux.HandleFunc("/debug/events", trace.Events)
	if deps.Display != nil {
		mux.Handle("/display.png", deps.Display)
	}
	if deps.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap, s.deps.Display != nil)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	if !snap.Updated {
		http.Error(w, "alarm state not available yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="alarm.ics"`)
	if err := ics.Encode(w, snap.Now, snap.Alarm.State); err != nil {
		log.Printf("web: encode calendar: %v", err)
		http.Error(w, "encode calendar", http.StatusInternalServerError)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		http.NotFound(w, r)
		return
	}

	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := s.deps.History.Recent(limit)
	if err != nil {
		log.Printf("web: read history: %v", err)
		http.Error(w, "read history", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Events []history.Entry `json:"events"`
	}{entries})
}

func (s *Server) handleAlarm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.deps.Commands == nil {
		http.NotFound(w, r)
		return
	}

	cmds, err := parseCommands(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	for _, cmd := range cmds {
		select {
		case s.deps.Commands <- cmd:
		default:
			log.Printf("web: command queue full, dropped %s", cmd.Kind)
			http.Error(w, "command queue full", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

// parseCommands turns the form fields time=HH:MM and on=true|false into
// commands. Setting a time also enables the alarm, so on=false is applied after it.
func parseCommands(r *http.Request) ([]logic.Command, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	var cmds []logic.Command
	if v := strings.TrimSpace(r.PostForm.Get("time")); v != "" {
		t, err := time.Parse("15:04", v)
		if err != nil {
			return nil, fmt.Errorf("time must be HH:MM: %q", v)
		}
		cmds = append(cmds, logic.Command{Kind: logic.CommandSet, Hour: t.Hour(), Minute: t.Minute()})
	}
	if v := strings.TrimSpace(r.PostForm.Get("on")); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("on must be true or false: %q", v)
		}
		kind := logic.CommandDisable
		if on {
			kind = logic.CommandEnable
		}
		cmds = append(cmds, logic.Command{Kind: kind})
	}
	if len(cmds) == 0 {
		return nil, errors.New("expected time and/or on")
	}
	return cmds, nil
}
