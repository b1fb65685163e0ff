package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"caredesk/internal/calendar"
	"caredesk/internal/database"
	"caredesk/internal/events"
	"caredesk/internal/model"
)

// Wire layout for datetimes exchanged with the web UI. Timezone-naive
// local time, same as the upstream clinical API.
const timeLayout = "2006-01-02T15:04:05"

const dateLayout = "2006-01-02"

// Pusher propagates appointment mutations back to the upstream system.
type Pusher interface {
	PushStatus(ctx context.Context, appointmentID string, status model.Status) error
	PushReschedule(ctx context.Context, appointmentID string, start, end time.Time) error
}

// Server is the HTTP JSON API consumed by the provider dashboard.
type Server struct {
	db     *database.DB
	pusher Pusher
	bus    *events.EventBus
	log    zerolog.Logger
	apiKey string
	now    func() time.Time

	mu       sync.RWMutex
	settings calendar.Settings

	server *http.Server
}

// NewServer creates the API server. pusher and bus may be nil; the
// corresponding side effects are then skipped.
func NewServer(
	port int,
	apiKey string,
	settings calendar.Settings,
	db *database.DB,
	pusher Pusher,
	bus *events.EventBus,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		db:       db,
		pusher:   pusher,
		bus:      bus,
		log:      logger.With().Str("component", "api").Logger(),
		apiKey:   apiKey,
		now:      time.Now,
		settings: settings,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/calendar/month", s.handleMonthView)
	mux.HandleFunc("/api/v1/calendar/week", s.handleWeekView)
	mux.HandleFunc("/api/v1/calendar/day", s.handleDayView)
	mux.HandleFunc("/api/v1/appointments/conflicts", s.handleConflicts)
	mux.HandleFunc("/api/v1/appointments/", s.handleAppointmentAction)
	mux.HandleFunc("/api/v1/audit/events", s.handleAuditEvents)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.withRequestID(s.withAuth(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler exposes the configured handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("api server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// UpdateSettings swaps in new calendar settings. Wired to the config
// file watcher so grid parameters apply without a restart.
func (s *Server) UpdateSettings(settings calendar.Settings) {
	if err := settings.Validate(); err != nil {
		s.log.Error().Err(err).Msg("rejected invalid calendar settings update")
		return
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.log.Info().
		Int("start_hour", settings.StartHour).
		Int("end_hour", settings.EndHour).
		Int("slot_minutes", settings.SlotDurationMinutes).
		Msg("calendar settings updated")
}

func (s *Server) currentSettings() calendar.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// withAuth rejects requests without the configured API key. An empty
// configured key disables the check.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-Api-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRequestID tags every response with a request id for log correlation.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		s.log.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request")

		next.ServeHTTP(w, r)
	})
}

// parseDateParam reads the optional ?date=YYYY-MM-DD query parameter,
// defaulting to today.
func (s *Server) parseDateParam(r *http.Request) (time.Time, error) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		return s.now(), nil
	}
	date, err := time.ParseInLocation(dateLayout, dateStr, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format; expected YYYY-MM-DD")
	}
	return date, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
