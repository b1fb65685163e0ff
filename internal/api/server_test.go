package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"caredesk/internal/calendar"
	"caredesk/internal/database"
	"caredesk/internal/events"
	"caredesk/internal/model"
)

const testAPIKey = "valid-key"

// Fixed clock so view tests do not depend on the wall clock.
var testNow = time.Date(2026, time.March, 4, 10, 0, 0, 0, time.Local)

type fakePusher struct {
	mu          sync.Mutex
	statusCalls []string
	windowCalls []string
	err         error
}

func (p *fakePusher) PushStatus(ctx context.Context, id string, status model.Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusCalls = append(p.statusCalls, id+":"+string(status))
	return p.err
}

func (p *fakePusher) PushReschedule(ctx context.Context, id string, start, end time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.windowCalls = append(p.windowCalls, id)
	return p.err
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type testEnv struct {
	server *Server
	db     *database.DB
	pusher *fakePusher
	bus    *events.EventBus
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	pusher := &fakePusher{}
	bus := events.NewEventBus()

	server := NewServer(0, testAPIKey, calendar.DefaultSettings(), db, pusher, bus, zerolog.Nop())
	server.now = func() time.Time { return testNow }

	return &testEnv{server: server, db: db, pusher: pusher, bus: bus}
}

func seedAppointment(t *testing.T, db *database.DB, id string, start time.Time, minutes int, status model.Status) model.Appointment {
	t.Helper()

	appt := model.Appointment{
		ID:          id,
		PatientID:   "patient-" + id,
		PatientName: "Ada Smith",
		Type:        model.TypeConsultation,
		Status:      status,
		StartTime:   start,
		EndTime:     start.Add(time.Duration(minutes) * time.Minute),
	}
	if err := db.UpsertAppointments(context.Background(), []model.Appointment{appt}); err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}
	return appt
}

func doRequest(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("X-Api-Key", testAPIKey)
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name       string
		apiKey     string
		wantStatus int
	}{
		{name: "valid key", apiKey: testAPIKey, wantStatus: http.StatusOK},
		{name: "missing key", apiKey: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", apiKey: "nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar/day?date=2026-03-04", nil)
			if tt.apiKey != "" {
				req.Header.Set("X-Api-Key", tt.apiKey)
			}

			w := httptest.NewRecorder()
			env.server.Handler().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar/day", nil)
	w := doRequest(env, req)

	if w.Header().Get("X-Request-Id") == "" {
		t.Error("response missing X-Request-Id header")
	}

	// Caller-provided request id is echoed back.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/calendar/day", nil)
	req.Header.Set("X-Request-Id", "req-42")
	w = doRequest(env, req)

	if got := w.Header().Get("X-Request-Id"); got != "req-42" {
		t.Errorf("X-Request-Id = %q, want %q", got, "req-42")
	}
}

func TestUpdateSettingsRejectsInvalid(t *testing.T) {
	env := setupTestServer(t)

	bad := calendar.DefaultSettings()
	bad.StartHour = 20
	bad.EndHour = 8
	env.server.UpdateSettings(bad)

	if got := env.server.currentSettings().StartHour; got != calendar.DefaultSettings().StartHour {
		t.Errorf("StartHour = %d after invalid update, want %d", got, calendar.DefaultSettings().StartHour)
	}
}
